// Package run orchestrates a conversion run across the device inventory:
// one management session per device, one load→render→rollback cycle per
// config file, with per-device failures isolated from the rest of the run.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/jset-tools/jset/pkg/audit"
	"github.com/jset-tools/jset/pkg/convert"
	"github.com/jset-tools/jset/pkg/device"
	"github.com/jset-tools/jset/pkg/inventory"
	"github.com/jset-tools/jset/pkg/util"
)

// Config holds the per-run inputs.
type Config struct {
	Inventory   string
	ConfigDir   string
	OutputDir   string
	Credentials device.Credentials

	// EnableNetconf turns on the probe/provision pass before dialing.
	EnableNetconf bool
}

// FileResult records the outcome for one config file.
type FileResult struct {
	Source string
	Output string
	Err    error
}

// DeviceResult records the outcome for one inventory device. A non-empty
// SkipReason means no conversion was attempted.
type DeviceResult struct {
	Hostname   string
	MgmtIP     string
	SkipReason string
	Files      []FileResult
}

// Summary aggregates a whole run.
type Summary struct {
	Devices []DeviceResult
}

// DevicesProcessed counts devices a session was opened against.
func (s *Summary) DevicesProcessed() int {
	n := 0
	for _, d := range s.Devices {
		if d.SkipReason == "" {
			n++
		}
	}
	return n
}

// DevicesSkipped counts devices no conversion was attempted on.
func (s *Summary) DevicesSkipped() int {
	return len(s.Devices) - s.DevicesProcessed()
}

// FilesConverted counts config files that produced an output file.
func (s *Summary) FilesConverted() int {
	n := 0
	for _, d := range s.Devices {
		for _, f := range d.Files {
			if f.Err == nil {
				n++
			}
		}
	}
	return n
}

// FilesFailed counts config files that errored at any step.
func (s *Summary) FilesFailed() int {
	n := 0
	for _, d := range s.Devices {
		for _, f := range d.Files {
			if f.Err != nil {
				n++
			}
		}
	}
	return n
}

// Runner wires the inventory, dialer, converter, and optional enabler
// into one run. Zero-value collaborators are not usable; main wires
// real implementations, tests wire fakes.
type Runner struct {
	Config    Config
	Dialer    device.Dialer
	Enabler   *device.Enabler
	Converter *convert.Converter
	Audit     audit.Logger
}

// Run converts every config file of every inventory device. Per-device
// and per-file errors are recorded in the summary and do not stop the
// run; only inventory errors and a cancelled context abort it.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	devices, err := inventory.Load(r.Config.Inventory)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("inventory %s lists no devices", r.Config.Inventory)
	}

	if err := os.MkdirAll(r.Config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	summary := &Summary{}
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return summary, util.ErrRunAborted
		}
		result, err := r.processDevice(ctx, dev)
		summary.Devices = append(summary.Devices, result)
		if errors.Is(err, util.ErrRunAborted) {
			return summary, err
		}
	}
	return summary, nil
}

// processDevice handles one device end to end. Errors that only affect
// this device come back folded into the result; util.ErrRunAborted is
// returned so the caller can stop the whole run.
func (r *Runner) processDevice(ctx context.Context, dev inventory.Device) (DeviceResult, error) {
	log := util.WithDevice(dev.Hostname)
	result := DeviceResult{Hostname: dev.Hostname, MgmtIP: dev.MgmtIP}

	files, err := inventory.ConfigFiles(r.Config.ConfigDir, dev.Hostname)
	if err != nil {
		log.Errorf("listing config files: %v", err)
		result.SkipReason = "config dir unreadable"
		return result, nil
	}
	if len(files) == 0 {
		log.Warn("no config files, skipping")
		result.SkipReason = "no config files"
		return result, nil
	}

	if r.Config.EnableNetconf && r.Enabler != nil {
		start := time.Now()
		provisioned, err := r.Enabler.Ensure(ctx, dev.MgmtIP, r.Config.Credentials)
		if provisioned {
			r.logAudit(dev.Hostname, err, time.Since(start))
		}
		if errors.Is(err, util.ErrRunAborted) {
			result.SkipReason = "run aborted"
			return result, err
		}
		if err != nil {
			log.Errorf("enable netconf: %v", err)
			result.SkipReason = skipReasonFor(err)
			return result, nil
		}
	}

	sess, err := r.Dialer.Dial(ctx, dev.MgmtIP, r.Config.Credentials)
	if err != nil {
		log.Errorf("%v", util.NewConnectError(dev.Hostname, dev.MgmtIP, err))
		result.SkipReason = "connect failed"
		return result, nil
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warnf("closing session: %v", err)
		}
	}()

	log.Infof("converting %d config file(s)", len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, util.ErrRunAborted
		}
		result.Files = append(result.Files, r.convertFile(ctx, sess, dev, file))
	}
	return result, nil
}

func (r *Runner) convertFile(ctx context.Context, sess device.Session, dev inventory.Device, file string) FileResult {
	log := util.WithFields(map[string]interface{}{"device": dev.Hostname, "config": file})
	fr := FileResult{Source: file}

	rendered, err := r.Converter.Convert(ctx, sess, file)
	if err != nil {
		log.Errorf("conversion failed at %s step: %v", util.StepOf(err), err)
		fr.Err = err
		return fr
	}

	output, err := r.Converter.Retrieve(ctx, sess, rendered, dev.Hostname, file, r.Config.OutputDir)
	if err != nil {
		log.Errorf("retrieval failed: %v", err)
		fr.Err = err
		return fr
	}

	log.Infof("wrote %s", output)
	fr.Output = output
	return fr
}

func (r *Runner) logAudit(hostname string, err error, d time.Duration) {
	if r.Audit == nil {
		return
	}
	ev := audit.NewEvent(currentUser(), hostname, "enable-netconf").WithDuration(d)
	if err != nil {
		ev.WithError(err)
	} else {
		ev.WithSuccess()
	}
	if logErr := r.Audit.Log(ev); logErr != nil {
		util.WithDevice(hostname).Warnf("audit log: %v", logErr)
	}
}

func skipReasonFor(err error) string {
	switch {
	case errors.Is(err, util.ErrNotReachable):
		return "not reachable"
	case errors.Is(err, util.ErrNetconfUnavailable):
		return "netconf unavailable"
	default:
		return "enable netconf failed"
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
