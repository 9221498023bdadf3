package junos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/jset-tools/jset/pkg/device"
	"github.com/jset-tools/jset/pkg/util"
)

// enableCommands is the fixed CLI sequence that activates NETCONF and
// commits that single change.
var enableCommands = []string{
	"configure",
	"set system services netconf ssh",
	"commit and-quit",
}

// Provisioner enables the NETCONF service over an interactive SSH CLI
// session. This is the administrative fallback transport; it is only used
// when the NETCONF port does not answer.
type Provisioner struct {
	Port    int
	Timeout time.Duration

	// CommandDelay is the fixed pause after each CLI line, giving the
	// device time to reach the next prompt. There is no prompt parsing.
	CommandDelay time.Duration
}

var _ device.Provisioner = (*Provisioner)(nil)

// EnableNetconf runs the enable sequence and verifies the commit.
func (p *Provisioner) EnableNetconf(ctx context.Context, host string, creds device.Credentials) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	addr := net.JoinHostPort(host, strconv.Itoa(portOr(p.Port, DefaultSSHPort)))
	client, err := ssh.Dial("tcp", addr, sshConfig(creds, timeout))
	if err != nil {
		return fmt.Errorf("ssh dial: %w", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("ssh session: %w", err)
	}
	defer sess.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("vt100", 40, 80, modes); err != nil {
		return fmt.Errorf("request pty: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		return err
	}
	var output bytes.Buffer
	sess.Stdout = &output
	sess.Stderr = &output

	if err := sess.Shell(); err != nil {
		return fmt.Errorf("start shell: %w", err)
	}

	delay := p.CommandDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	for _, cmd := range append(enableCommands, "exit") {
		util.WithDevice(host).Debugf("provision: %s", cmd)
		if _, err := io.WriteString(stdin, cmd+"\n"); err != nil {
			return fmt.Errorf("sending %q: %w", cmd, err)
		}
		if err := waitCtx(ctx, delay); err != nil {
			return err
		}
	}
	stdin.Close()

	done := make(chan error, 1)
	go func() { done <- sess.Wait() }()
	select {
	case <-done:
		// Exit status of the CLI shell is not meaningful here; the
		// commit confirmation in the transcript is.
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for cli session to end")
	}

	if !strings.Contains(output.String(), "commit complete") {
		return fmt.Errorf("commit confirmation not seen in cli output")
	}
	return nil
}

func waitCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
