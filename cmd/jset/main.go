// Jset - Junos set-syntax conversion tool
//
// Jset converts curly-brace Junos configuration files into "set" syntax
// by loading each file into a device's candidate configuration, asking
// the device to render the candidate as set commands, and copying the
// rendering back. Nothing is ever committed: every load is rolled back.
//
// For each device listed in the inventory CSV (hostname,mgmt_ip), jset
// looks for <config-dir>/<hostname>/*.config and writes the converted
// files to <output-dir>/<hostname>/<name>.set.config.
//
// Examples:
//
//	jset -i devices.csv -c configs -o output -u lab
//	jset -i devices.csv -c configs -o output -u lab --enable-netconf
//	jset check 10.0.0.1 -u lab
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jset-tools/jset/pkg/audit"
	"github.com/jset-tools/jset/pkg/convert"
	"github.com/jset-tools/jset/pkg/device"
	"github.com/jset-tools/jset/pkg/device/junos"
	"github.com/jset-tools/jset/pkg/run"
	"github.com/jset-tools/jset/pkg/settings"
	"github.com/jset-tools/jset/pkg/util"
	"github.com/jset-tools/jset/pkg/version"
)

var (
	inventoryPath string
	configDir     string
	outputDir     string
	username      string
	password      string
	enableNetconf bool
	debugMode     bool
	logFile       string
	auditLog      string
	netconfPort   int
	sshPort       int
	timeoutSec    int
	settingsPath  string

	userSettings *settings.Settings
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, util.ErrRunAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "jset",
	Short:         "Convert Junos configs to set syntax using the devices themselves",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Jset loads local Junos configuration files into each device's candidate
configuration, renders the candidate in set syntax, and retrieves the
rendering. Every load is rolled back; devices are never committed to
(the only exception is --enable-netconf, which commits exactly one
"set system services netconf ssh").`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		level := "info"
		if debugMode {
			level = "debug"
		}
		if err := util.SetLogLevel(level); err != nil {
			return err
		}
		if logFile != "" {
			closer, err := util.TeeLogFile(logFile)
			if err != nil {
				return err
			}
			cobra.OnFinalize(func() { closer.Close() })
		}

		path := settingsPath
		if path == "" {
			path = settings.DefaultSettingsPath()
		}
		var err error
		userSettings, err = settings.LoadFrom(path)
		if err != nil {
			util.Warnf("could not load settings %s: %v", path, err)
			userSettings = &settings.Settings{}
		}

		applySettingsDefaults()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if inventoryPath == "" {
			return fmt.Errorf("an inventory CSV is required (-i or settings)")
		}
		if configDir == "" {
			return fmt.Errorf("a config directory is required (-c or settings)")
		}

		creds, err := credentials()
		if err != nil {
			return err
		}

		runner := &run.Runner{
			Config: run.Config{
				Inventory:     inventoryPath,
				ConfigDir:     configDir,
				OutputDir:     outputDir,
				Credentials:   creds,
				EnableNetconf: enableNetconf,
			},
			Dialer:    newDialer(),
			Converter: &convert.Converter{},
		}

		if enableNetconf {
			runner.Enabler = newEnabler()
			runner.Audit = openAuditLog()
			defer runner.Audit.Close()
		}

		summary, err := runner.Run(cmd.Context())
		if summary != nil {
			summary.Print(os.Stdout)
		}
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jset %s\n", version.Info())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&inventoryPath, "inventory", "i", "", "Device inventory CSV (hostname,mgmt_ip)")
	pf.StringVarP(&configDir, "config-dir", "c", "", "Base directory of per-host config files")
	pf.StringVarP(&outputDir, "output-dir", "o", "output", "Destination for converted files")
	pf.StringVarP(&username, "username", "u", "", "Device login username")
	pf.StringVarP(&password, "password", "p", "", "Device login password (prompted if empty)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	pf.StringVar(&logFile, "log-file", "", "Mirror log output to this file")
	pf.IntVar(&netconfPort, "port", 0, "NETCONF port (default 830)")
	pf.IntVar(&sshPort, "ssh-port", 0, "SSH port for file transfer and provisioning (default 22)")
	pf.IntVar(&timeoutSec, "timeout", 0, "Connect timeout in seconds (default 30)")
	pf.StringVar(&settingsPath, "settings", "", "Settings file (default ~/.jset/settings.yaml)")

	rootCmd.Flags().BoolVar(&enableNetconf, "enable-netconf", false,
		"Probe NETCONF and enable it over SSH where missing (commits one change)")
	rootCmd.Flags().StringVar(&auditLog, "audit-log", "",
		"Audit log for enablement commits (default ~/.jset/audit.log)")

	rootCmd.AddCommand(versionCmd, checkCmd)
}

// applySettingsDefaults fills unset flags from the settings file.
func applySettingsDefaults() {
	if inventoryPath == "" {
		inventoryPath = userSettings.Inventory
	}
	if configDir == "" {
		configDir = userSettings.ConfigDir
	}
	if outputDir == "output" && userSettings.OutputDir != "" {
		outputDir = userSettings.OutputDir
	}
	if username == "" {
		username = userSettings.Username
	}
	if netconfPort == 0 {
		netconfPort = userSettings.NetconfPort
	}
	if sshPort == 0 {
		sshPort = userSettings.SSHPort
	}
	if timeoutSec == 0 {
		timeoutSec = userSettings.ConnectTimeoutSeconds
	}
}

// credentials resolves the device login, prompting for the password on
// the terminal when it was not supplied.
func credentials() (device.Credentials, error) {
	if username == "" {
		return device.Credentials{}, fmt.Errorf("a username is required (-u or settings)")
	}
	if password == "" {
		fmt.Fprintf(os.Stderr, "Password for %s: ", username)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return device.Credentials{}, fmt.Errorf("reading password: %w", err)
		}
		password = string(raw)
	}
	return device.Credentials{Username: username, Password: password}, nil
}

func connectTimeout() time.Duration {
	if timeoutSec > 0 {
		return time.Duration(timeoutSec) * time.Second
	}
	return userSettings.ConnectTimeout()
}

func newDialer() *junos.Dialer {
	return &junos.Dialer{
		NetconfPort: netconfPort,
		SSHPort:     sshPort,
		Timeout:     connectTimeout(),
	}
}

func newEnabler() *device.Enabler {
	en := &userSettings.Enable
	return &device.Enabler{
		Prober:      &junos.Probe{Port: netconfPort, Timeout: connectTimeout()},
		Provisioner: &junos.Provisioner{Port: sshPort, Timeout: connectTimeout()},
		Ping:        device.PingCheck,
		Countdown:   en.Countdown(),
		Settle:      en.Settle(),
		Retry: device.RetryPolicy{
			MaxAttempts: en.Attempts(),
			Interval:    en.RetryInterval(),
		},
	}
}

func openAuditLog() audit.Logger {
	path := auditLog
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			util.Warnf("audit logging disabled: %v", err)
			return audit.NopLogger{}
		}
		path = home + "/.jset/audit.log"
	}
	logger, err := audit.NewFileLogger(path)
	if err != nil {
		util.Warnf("audit logging disabled: %v", err)
		return audit.NopLogger{}
	}
	return logger
}
