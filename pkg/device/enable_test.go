package device

import (
	"context"
	"errors"
	"testing"

	"github.com/jset-tools/jset/pkg/util"
)

type fakeProber struct {
	failures int // probes that fail before success
	calls    int
}

func (p *fakeProber) Probe(ctx context.Context, host string) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

type fakeProvisioner struct {
	calls int
	err   error
}

func (p *fakeProvisioner) EnableNetconf(ctx context.Context, host string, creds Credentials) error {
	p.calls++
	return p.err
}

func zeroDelay(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Interval: 0}
}

func TestEnsureAlreadyReachable(t *testing.T) {
	prober := &fakeProber{}
	prov := &fakeProvisioner{}
	e := &Enabler{Prober: prober, Provisioner: prov, Retry: zeroDelay(3)}

	provisioned, err := e.Ensure(context.Background(), "r1", Credentials{})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if provisioned {
		t.Error("no provisioning should be reported when probe succeeds")
	}
	if prov.calls != 0 {
		t.Errorf("provisioner should not run when probe succeeds, ran %d times", prov.calls)
	}
}

func TestEnsureProvisionsThenSucceeds(t *testing.T) {
	// First probe fails (service off); after provisioning the second
	// and third probes fail and the fourth succeeds.
	prober := &fakeProber{failures: 3}
	prov := &fakeProvisioner{}
	e := &Enabler{Prober: prober, Provisioner: prov, Retry: zeroDelay(5)}

	provisioned, err := e.Ensure(context.Background(), "r1", Credentials{})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !provisioned {
		t.Error("provisioning commit should be reported")
	}
	if prov.calls != 1 {
		t.Errorf("provisioner calls = %d, want 1", prov.calls)
	}
	if prober.calls != 4 {
		t.Errorf("probe calls = %d, want 4", prober.calls)
	}
}

func TestEnsureExhaustsRetries(t *testing.T) {
	prober := &fakeProber{failures: 100}
	prov := &fakeProvisioner{}
	e := &Enabler{Prober: prober, Provisioner: prov, Retry: zeroDelay(2)}

	_, err := e.Ensure(context.Background(), "r1", Credentials{})
	if !errors.Is(err, util.ErrNetconfUnavailable) {
		t.Fatalf("err = %v, want ErrNetconfUnavailable", err)
	}
	// 1 initial probe + 2 bounded retries
	if prober.calls != 3 {
		t.Errorf("probe calls = %d, want 3", prober.calls)
	}
}

func TestEnsureProvisioningFailureSkipsDevice(t *testing.T) {
	prober := &fakeProber{failures: 100}
	prov := &fakeProvisioner{err: errors.New("auth failed")}
	e := &Enabler{Prober: prober, Provisioner: prov, Retry: zeroDelay(2)}

	_, err := e.Ensure(context.Background(), "r1", Credentials{})
	if !errors.Is(err, util.ErrNetconfUnavailable) {
		t.Fatalf("err = %v, want ErrNetconfUnavailable", err)
	}
}

func TestEnsurePingFailureShortCircuits(t *testing.T) {
	prober := &fakeProber{}
	prov := &fakeProvisioner{}
	e := &Enabler{
		Prober:      prober,
		Provisioner: prov,
		Ping: func(ctx context.Context, host string) error {
			return errors.New("no reply")
		},
		Retry: zeroDelay(2),
	}

	_, err := e.Ensure(context.Background(), "r1", Credentials{})
	if !errors.Is(err, util.ErrNotReachable) {
		t.Fatalf("err = %v, want ErrNotReachable", err)
	}
	if prober.calls != 0 || prov.calls != 0 {
		t.Error("dead host should not be probed or provisioned")
	}
}

func TestCountdownAbortedByContext(t *testing.T) {
	prober := &fakeProber{failures: 100}
	prov := &fakeProvisioner{}
	e := &Enabler{
		Prober:      prober,
		Provisioner: prov,
		Countdown:   5_000_000_000, // 5s; cancelled context aborts immediately
		Retry:       zeroDelay(1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Ensure(ctx, "r1", Credentials{})
	if !errors.Is(err, util.ErrRunAborted) {
		t.Fatalf("err = %v, want ErrRunAborted", err)
	}
	if prov.calls != 0 {
		t.Error("aborted countdown must not provision")
	}
}
