package util

import (
	"errors"
	"fmt"
	"testing"
)

func TestStepErrorUnwrap(t *testing.T) {
	cause := errors.New("syntax error on line 3")
	err := NewStepError(StepLoad, "r1/a.config", cause)

	if !errors.Is(err, cause) {
		t.Error("StepError should unwrap to its cause")
	}
	if StepOf(err) != StepLoad {
		t.Errorf("StepOf = %q, want %q", StepOf(err), StepLoad)
	}
	if StepOf(cause) != "" {
		t.Errorf("StepOf on plain error = %q, want empty", StepOf(cause))
	}
}

func TestStepOfWrapped(t *testing.T) {
	inner := NewStepError(StepRender, "a.config", ErrEmptyRender)
	wrapped := fmt.Errorf("processing a.config: %w", inner)

	if StepOf(wrapped) != StepRender {
		t.Errorf("StepOf through wrapping = %q, want %q", StepOf(wrapped), StepRender)
	}
	if !errors.Is(wrapped, ErrEmptyRender) {
		t.Error("wrapped StepError should still match the sentinel")
	}
}

func TestConnectError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewConnectError("r1", "10.0.0.1", cause)

	if !errors.Is(err, cause) {
		t.Error("ConnectError should unwrap to its cause")
	}
	var ce *ConnectError
	if !errors.As(err, &ce) || ce.Device != "r1" {
		t.Errorf("errors.As failed or device mismatch: %+v", ce)
	}
}
