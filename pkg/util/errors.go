// Package util provides shared logging helpers and common error types.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for run-level failure classification
var (
	ErrRunAborted         = errors.New("run aborted by user")
	ErrNotReachable       = errors.New("device not reachable")
	ErrNetconfUnavailable = errors.New("netconf service not available")
	ErrEmptyRender        = errors.New("device returned empty set rendering")
)

// Step identifies the stage of per-file processing that failed.
type Step string

const (
	StepRead     Step = "read"
	StepLock     Step = "lock"
	StepLoad     Step = "load"
	StepRender   Step = "render"
	StepTransfer Step = "transfer"
)

// StepError reports which per-file processing step failed. The orchestrator
// treats any StepError as a per-file skip; the step name drives log detail.
type StepError struct {
	Step Step
	File string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Step, e.File, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a step error for the given file
func NewStepError(step Step, file string, err error) *StepError {
	return &StepError{Step: step, File: file, Err: err}
}

// StepOf returns the failed step of err, or "" if err is not a StepError.
func StepOf(err error) Step {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}

// ConnectError reports a failure to establish a management session.
// It always results in a per-device skip, never a run abort.
type ConnectError struct {
	Device string
	Addr   string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect to %s (%s): %v", e.Device, e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// NewConnectError creates a connection error
func NewConnectError(device, addr string, err error) *ConnectError {
	return &ConnectError{Device: device, Addr: addr, Err: err}
}
