package device

import (
	"context"
	"fmt"
	"os"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/schollz/progressbar/v3"

	"github.com/jset-tools/jset/pkg/util"
)

// RetryPolicy bounds the re-probe loop after provisioning. The values are
// tuning constants with no behavioral intent beyond "wait long enough";
// tests inject a zero-interval policy.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultRetryPolicy matches the settle behavior of slow control planes.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 6, Interval: 10 * time.Second}

// Enabler ensures the management protocol is reachable on a host,
// provisioning it over SSH when it is not. The provisioning commit is the
// only configuration change this tool ever leaves on a device.
type Enabler struct {
	Prober      Prober
	Provisioner Provisioner

	// Ping pre-checks raw reachability so a dead host is reported as
	// such rather than as a disabled service. Nil skips the check.
	Ping func(ctx context.Context, host string) error

	// Countdown is the abort window shown before provisioning.
	Countdown time.Duration

	// Settle is the wait between the provisioning commit and the first
	// re-probe.
	Settle time.Duration

	Retry RetryPolicy
}

// Ensure returns once the management protocol answers on host; the
// boolean reports whether a provisioning commit was made. It returns
// util.ErrRunAborted if the countdown is cancelled, and an error
// wrapping util.ErrNotReachable or util.ErrNetconfUnavailable for
// per-device skip conditions.
func (e *Enabler) Ensure(ctx context.Context, host string, creds Credentials) (bool, error) {
	log := util.WithDevice(host)

	if e.Ping != nil {
		if err := e.Ping(ctx, host); err != nil {
			return false, fmt.Errorf("%w: %v", util.ErrNotReachable, err)
		}
	}

	if err := e.Prober.Probe(ctx, host); err == nil {
		log.Debug("netconf already reachable")
		return false, nil
	}
	log.Info("netconf not reachable, enabling over ssh")

	if err := e.countdown(ctx, host); err != nil {
		return false, err
	}

	if err := e.Provisioner.EnableNetconf(ctx, host, creds); err != nil {
		return false, fmt.Errorf("%w: provisioning failed: %v", util.ErrNetconfUnavailable, err)
	}
	log.Infof("netconf service committed, settling for %s", e.Settle)

	if err := sleepCtx(ctx, e.Settle); err != nil {
		return true, err
	}

	policy := e.Retry
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if lastErr = e.Prober.Probe(ctx, host); lastErr == nil {
			log.Infof("netconf reachable after %d probe(s)", attempt)
			return true, nil
		}
		log.Debugf("probe attempt %d/%d failed: %v", attempt, policy.MaxAttempts, lastErr)
		if attempt < policy.MaxAttempts {
			if err := sleepCtx(ctx, policy.Interval); err != nil {
				return true, err
			}
		}
	}
	return true, fmt.Errorf("%w after %d attempts: %v", util.ErrNetconfUnavailable, policy.MaxAttempts, lastErr)
}

// countdown renders an abortable wait before any change is made. A
// cancelled context (Ctrl-C) aborts the whole run, not just this device.
func (e *Enabler) countdown(ctx context.Context, host string) error {
	if e.Countdown <= 0 {
		return nil
	}

	seconds := int(e.Countdown / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	bar := progressbar.NewOptions(seconds,
		progressbar.OptionSetDescription(fmt.Sprintf("enabling netconf on %s (Ctrl-C aborts)", host)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < seconds; i++ {
		select {
		case <-ctx.Done():
			return util.ErrRunAborted
		case <-ticker.C:
			bar.Add(1)
		}
	}
	return nil
}

// PingCheck is the default reachability pre-check: a few unprivileged
// ICMP echoes. Any reply counts as reachable.
func PingCheck(ctx context.Context, host string) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(false)
	pinger.Count = 3
	pinger.Interval = 200 * time.Millisecond
	pinger.Timeout = 5 * time.Second

	if err := pinger.RunWithContext(ctx); err != nil {
		return err
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("no ping reply from %s", host)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return util.ErrRunAborted
	case <-timer.C:
		return nil
	}
}
