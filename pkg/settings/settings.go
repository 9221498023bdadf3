// Package settings manages persistent user defaults for the jset CLI.
package settings

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent user preferences. Every field is optional;
// command-line flags override anything set here.
type Settings struct {
	// Username is the default device login when -u is not specified
	Username string `yaml:"username,omitempty"`

	// Inventory is the default device CSV path
	Inventory string `yaml:"inventory,omitempty"`

	// ConfigDir is the default base directory of per-host config files
	ConfigDir string `yaml:"config_dir,omitempty"`

	// OutputDir is the default destination for converted files
	OutputDir string `yaml:"output_dir,omitempty"`

	// NetconfPort overrides the NETCONF-over-SSH port (default 830)
	NetconfPort int `yaml:"netconf_port,omitempty"`

	// SSHPort overrides the SSH port used for SFTP and provisioning (default 22)
	SSHPort int `yaml:"ssh_port,omitempty"`

	// ConnectTimeoutSeconds bounds each session/probe dial
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds,omitempty"`

	// Enable tunes the optional NETCONF-enablement path. The defaults
	// are only "wait long enough" values.
	Enable EnableSettings `yaml:"enable,omitempty"`
}

// EnableSettings tunes the enable-NETCONF fallback path.
type EnableSettings struct {
	// CountdownSeconds is the abort window shown before provisioning
	CountdownSeconds int `yaml:"countdown_seconds,omitempty"`

	// SettleSeconds is the wait after commit before the first re-probe
	SettleSeconds int `yaml:"settle_seconds,omitempty"`

	// RetryAttempts bounds the re-probe loop
	RetryAttempts int `yaml:"retry_attempts,omitempty"`

	// RetryIntervalSeconds is the fixed delay between re-probes
	RetryIntervalSeconds int `yaml:"retry_interval_seconds,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "jset_settings.yaml"
	}
	return filepath.Join(home, ".jset", "settings.yaml")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields
// empty settings, not an error.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ConnectTimeout returns the configured dial timeout (with fallback).
func (s *Settings) ConnectTimeout() time.Duration {
	if s.ConnectTimeoutSeconds > 0 {
		return time.Duration(s.ConnectTimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

// Countdown returns the abort window before provisioning (with fallback).
func (e *EnableSettings) Countdown() time.Duration {
	if e.CountdownSeconds > 0 {
		return time.Duration(e.CountdownSeconds) * time.Second
	}
	return 10 * time.Second
}

// Settle returns the post-commit settle delay (with fallback).
func (e *EnableSettings) Settle() time.Duration {
	if e.SettleSeconds > 0 {
		return time.Duration(e.SettleSeconds) * time.Second
	}
	return 15 * time.Second
}

// Attempts returns the bounded re-probe attempt count (with fallback).
func (e *EnableSettings) Attempts() int {
	if e.RetryAttempts > 0 {
		return e.RetryAttempts
	}
	return 6
}

// RetryInterval returns the fixed delay between re-probes (with fallback).
func (e *EnableSettings) RetryInterval() time.Duration {
	if e.RetryIntervalSeconds > 0 {
		return time.Duration(e.RetryIntervalSeconds) * time.Second
	}
	return 10 * time.Second
}
