// Package convert turns local curly-brace config files into set-syntax
// renderings using the device itself as the renderer. Every candidate
// load is paired with a rollback on all exit paths; no committed change
// ever results.
package convert

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jset-tools/jset/pkg/device"
	"github.com/jset-tools/jset/pkg/util"
)

// DefaultRemoteDir is where renderings are staged on the device.
const DefaultRemoteDir = "/var/tmp"

// SetName derives the output file name by inserting ".set" before the
// final ".config" suffix: "a.config" → "a.set.config". Names without the
// suffix get it appended.
func SetName(base string) string {
	if strings.HasSuffix(base, ".config") {
		return strings.TrimSuffix(base, ".config") + ".set.config"
	}
	return base + ".set.config"
}

// OutputPath places the converted file under the per-host output directory.
func OutputPath(outputDir, hostname, source string) string {
	return filepath.Join(outputDir, hostname, SetName(filepath.Base(source)))
}

// Converter performs the per-file load→render→rollback sequence.
type Converter struct {
	// RemoteDir overrides the staging directory on the device.
	RemoteDir string
}

// Convert reads the local config file, merges it into the candidate,
// and returns the candidate rendered in set syntax. The candidate is
// rolled back and unlocked on every exit path once the lock is held;
// a rollback failure is logged but never changes the outcome.
func (c *Converter) Convert(ctx context.Context, sess device.Session, configPath string) (string, error) {
	log := util.WithConfigFile(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", util.NewStepError(util.StepRead, configPath, err)
	}

	if err := sess.Lock(ctx); err != nil {
		return "", util.NewStepError(util.StepLock, configPath, err)
	}
	defer func() {
		if err := sess.Rollback(ctx); err != nil {
			log.Warnf("rollback failed: %v", err)
		}
		if err := sess.Unlock(ctx); err != nil {
			log.Warnf("unlock failed: %v", err)
		}
	}()

	log.Debug("loading candidate configuration (merge)")
	if err := sess.LoadText(ctx, string(data)); err != nil {
		return "", util.NewStepError(util.StepLoad, configPath, err)
	}

	log.Debug("rendering candidate in set syntax")
	rendered, err := sess.RenderSet(ctx)
	if err != nil {
		return "", util.NewStepError(util.StepRender, configPath, err)
	}

	return rendered, nil
}

// Retrieve stages the rendering in a temporary file on the device,
// copies it back to the local output tree, and removes the remote file.
// A failed remote cleanup is a warning, not a failure.
func (c *Converter) Retrieve(ctx context.Context, sess device.Session, rendered, hostname, source, outputDir string) (string, error) {
	remoteDir := c.RemoteDir
	if remoteDir == "" {
		remoteDir = DefaultRemoteDir
	}
	remotePath := path.Join(remoteDir, SetName(filepath.Base(source)))
	localPath := OutputPath(outputDir, hostname, source)
	log := util.WithDevice(hostname)

	log.Debugf("staging rendering at %s", remotePath)
	if err := sess.Upload(ctx, remotePath, []byte(rendered)); err != nil {
		return "", util.NewStepError(util.StepTransfer, source, fmt.Errorf("staging remote file: %w", err))
	}

	log.Debugf("retrieving %s to %s", remotePath, localPath)
	if err := sess.Download(ctx, remotePath, localPath); err != nil {
		return "", util.NewStepError(util.StepTransfer, source, fmt.Errorf("retrieving remote file: %w", err))
	}

	if err := sess.RemoveFile(ctx, remotePath); err != nil {
		log.Warnf("could not remove %s: %v", remotePath, err)
	}

	return localPath, nil
}
