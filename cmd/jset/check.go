package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jset-tools/jset/pkg/cli"
	"github.com/jset-tools/jset/pkg/util"
)

// checkConfig is a harmless candidate edit used to exercise the full
// load→render→rollback path. The marker hostname never survives: the
// candidate is rolled back before the session closes.
const (
	checkMarker = "JSET-CHECK"
	checkConfig = "system {\n    host-name " + checkMarker + ";\n}\n"
)

var checkCmd = &cobra.Command{
	Use:   "check <host>",
	Short: "Verify that a device can load and render configs",
	Long: `Check opens a management session to one device and runs a conversion
dry run: lock, load a marker config into the candidate, render it in
set syntax, and roll back. It reports which step failed, making it the
first thing to run when a conversion misbehaves.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host := args[0]
		ctx := cmd.Context()

		creds, err := credentials()
		if err != nil {
			return err
		}

		step := func(name string) { fmt.Printf("%s ", cli.DotPad(name, 28)) }
		ok := func() { fmt.Println(cli.Green("ok")) }

		step("connecting")
		sess, err := newDialer().Dial(ctx, host, creds)
		if err != nil {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("connect: %w", err)
		}
		defer sess.Close()
		ok()

		step("locking candidate")
		if err := sess.Lock(ctx); err != nil {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("lock: %w", err)
		}
		defer func() {
			if err := sess.Rollback(ctx); err != nil {
				util.Warnf("rollback failed: %v", err)
			}
			if err := sess.Unlock(ctx); err != nil {
				util.Warnf("unlock failed: %v", err)
			}
		}()
		ok()

		step("rendering baseline")
		baseline, err := sess.RenderSet(ctx)
		if err != nil {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("render: %w", err)
		}
		if strings.Contains(baseline, checkMarker) {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("candidate already contains %s; a previous check did not roll back", checkMarker)
		}
		ok()

		step("loading marker config")
		if err := sess.LoadText(ctx, checkConfig); err != nil {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("load: %w", err)
		}
		ok()

		step("rendering set syntax")
		rendered, err := sess.RenderSet(ctx)
		if err != nil {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("render: %w", err)
		}
		if !strings.Contains(rendered, checkMarker) {
			fmt.Println(cli.Red("failed"))
			return fmt.Errorf("rendering does not contain the marker host-name %s", checkMarker)
		}
		ok()

		fmt.Fprintf(os.Stdout, "\n%s is ready for conversions\n", cli.Bold(host))
		return nil
	},
}
