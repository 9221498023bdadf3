package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jset-tools/jset/pkg/util"
)

type fakeSession struct {
	rendered string

	lockErr     error
	loadErr     error
	renderErr   error
	rollbackErr error
	removeErr   error

	loads     []string
	locks     int
	unlocks   int
	rollbacks int
	uploads   map[string][]byte
	removed   []string
	closed    bool
}

func newFakeSession(rendered string) *fakeSession {
	return &fakeSession{rendered: rendered, uploads: map[string][]byte{}}
}

func (s *fakeSession) Lock(ctx context.Context) error {
	s.locks++
	return s.lockErr
}

func (s *fakeSession) Unlock(ctx context.Context) error {
	s.unlocks++
	return nil
}

func (s *fakeSession) LoadText(ctx context.Context, config string) error {
	if s.loadErr != nil {
		return s.loadErr
	}
	s.loads = append(s.loads, config)
	return nil
}

func (s *fakeSession) RenderSet(ctx context.Context) (string, error) {
	if s.renderErr != nil {
		return "", s.renderErr
	}
	return s.rendered, nil
}

func (s *fakeSession) Rollback(ctx context.Context) error {
	s.rollbacks++
	return s.rollbackErr
}

func (s *fakeSession) Upload(ctx context.Context, remotePath string, contents []byte) error {
	s.uploads[remotePath] = contents
	return nil
}

func (s *fakeSession) Download(ctx context.Context, remotePath, localPath string) error {
	contents, ok := s.uploads[remotePath]
	if !ok {
		return errors.New("no such remote file")
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(localPath, contents, 0644)
}

func (s *fakeSession) RemoveFile(ctx context.Context, remotePath string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, remotePath)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.config")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSetName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a.config", "a.set.config"},
		{"chapter1-start.config", "chapter1-start.set.config"},
		{"weird.config.config", "weird.config.set.config"},
		{"noext", "noext.set.config"},
	}
	for _, tt := range tests {
		if got := SetName(tt.in); got != tt.want {
			t.Errorf("SetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("output", "router1", filepath.Join("configs", "router1", "chapter1-start.config"))
	want := filepath.Join("output", "router1", "chapter1-start.set.config")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestConvertSuccessRollsBackOnce(t *testing.T) {
	sess := newFakeSession("set system host-name r1\n")
	cfg := writeConfig(t, "system { host-name r1; }")

	var c Converter
	out, err := c.Convert(context.Background(), sess, cfg)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if out != "set system host-name r1\n" {
		t.Errorf("rendered = %q", out)
	}
	if len(sess.loads) != 1 || sess.loads[0] != "system { host-name r1; }" {
		t.Errorf("loads = %v", sess.loads)
	}
	if sess.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", sess.rollbacks)
	}
	if sess.locks != 1 || sess.unlocks != 1 {
		t.Errorf("locks/unlocks = %d/%d, want 1/1", sess.locks, sess.unlocks)
	}
}

func TestConvertLoadFailureStillRollsBack(t *testing.T) {
	sess := newFakeSession("")
	sess.loadErr = errors.New("syntax error")
	cfg := writeConfig(t, "bad {")

	var c Converter
	_, err := c.Convert(context.Background(), sess, cfg)
	if util.StepOf(err) != util.StepLoad {
		t.Fatalf("step = %q, want load (err=%v)", util.StepOf(err), err)
	}
	if sess.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want exactly 1", sess.rollbacks)
	}
	if sess.unlocks != 1 {
		t.Errorf("unlocks = %d, want 1", sess.unlocks)
	}
}

func TestConvertRenderFailureStillRollsBack(t *testing.T) {
	sess := newFakeSession("")
	sess.renderErr = errors.New("cannot render")
	cfg := writeConfig(t, "system { }")

	var c Converter
	_, err := c.Convert(context.Background(), sess, cfg)
	if util.StepOf(err) != util.StepRender {
		t.Fatalf("step = %q, want render", util.StepOf(err))
	}
	if sess.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", sess.rollbacks)
	}
}

func TestConvertLockFailureNoRollback(t *testing.T) {
	sess := newFakeSession("")
	sess.lockErr = errors.New("lock held")
	cfg := writeConfig(t, "system { }")

	var c Converter
	_, err := c.Convert(context.Background(), sess, cfg)
	if util.StepOf(err) != util.StepLock {
		t.Fatalf("step = %q, want lock", util.StepOf(err))
	}
	if sess.rollbacks != 0 {
		t.Errorf("rollback must not run when the lock was never taken, got %d", sess.rollbacks)
	}
}

func TestConvertUnreadableFile(t *testing.T) {
	sess := newFakeSession("")

	var c Converter
	_, err := c.Convert(context.Background(), sess, filepath.Join(t.TempDir(), "absent.config"))
	if util.StepOf(err) != util.StepRead {
		t.Fatalf("step = %q, want read", util.StepOf(err))
	}
	if sess.locks != 0 {
		t.Error("session should be untouched for unreadable files")
	}
}

func TestConvertRollbackFailureDoesNotChangeOutcome(t *testing.T) {
	sess := newFakeSession("set system host-name r1\n")
	sess.rollbackErr = errors.New("rollback rpc failed")
	cfg := writeConfig(t, "system { host-name r1; }")

	var c Converter
	out, err := c.Convert(context.Background(), sess, cfg)
	if err != nil {
		t.Fatalf("rollback failure must not fail the file: %v", err)
	}
	if out == "" {
		t.Error("rendered text lost")
	}
}

func TestRetrieveWritesOutputAndCleansUp(t *testing.T) {
	sess := newFakeSession("")
	outputDir := t.TempDir()

	var c Converter
	local, err := c.Retrieve(context.Background(), sess, "set system host-name r1\n",
		"router1", "configs/router1/a.config", outputDir)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	want := filepath.Join(outputDir, "router1", "a.set.config")
	if local != want {
		t.Errorf("local = %q, want %q", local, want)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if string(data) != "set system host-name r1\n" {
		t.Errorf("output contents = %q", data)
	}
	if len(sess.removed) != 1 || sess.removed[0] != "/var/tmp/a.set.config" {
		t.Errorf("removed = %v, want the staged temp file", sess.removed)
	}
}

func TestRetrieveRemoveFailureIsWarningOnly(t *testing.T) {
	sess := newFakeSession("")
	sess.removeErr = errors.New("permission denied")

	var c Converter
	_, err := c.Retrieve(context.Background(), sess, "set x\n",
		"router1", "a.config", t.TempDir())
	if err != nil {
		t.Fatalf("remote cleanup failure must not fail the transfer: %v", err)
	}
}
