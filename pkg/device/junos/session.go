// Package junos implements the device abstraction for Junos devices:
// NETCONF over SSH for configuration operations and SFTP for file
// transfer. The NETCONF internals belong to the client library; this
// package only sequences its calls.
package junos

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Juniper/go-netconf/netconf"
	"golang.org/x/crypto/ssh"

	"github.com/jset-tools/jset/pkg/device"
	"github.com/jset-tools/jset/pkg/util"
)

const (
	// DefaultNetconfPort is the NETCONF-over-SSH port.
	DefaultNetconfPort = 830

	// DefaultSSHPort carries SFTP transfers and provisioning commands.
	DefaultSSHPort = 22
)

// Dialer opens NETCONF sessions to Junos devices.
type Dialer struct {
	NetconfPort int
	SSHPort     int
	Timeout     time.Duration
}

var _ device.Dialer = (*Dialer)(nil)

// Dial opens a NETCONF session with a bounded connect timeout.
func (d *Dialer) Dial(ctx context.Context, host string, creds device.Credentials) (device.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := net.JoinHostPort(host, strconv.Itoa(portOr(d.NetconfPort, DefaultNetconfPort)))
	nc, err := netconf.DialSSHTimeout(target, sshConfig(creds, d.Timeout), d.timeout())
	if err != nil {
		return nil, err
	}

	return &Session{
		nc:      nc,
		host:    host,
		creds:   creds,
		sshPort: portOr(d.SSHPort, DefaultSSHPort),
		timeout: d.timeout(),
	}, nil
}

func (d *Dialer) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return 30 * time.Second
}

// Session is a live NETCONF connection to one Junos device, plus a
// lazily opened SFTP connection for file transfer.
type Session struct {
	nc      *netconf.Session
	host    string
	creds   device.Credentials
	sshPort int
	timeout time.Duration

	sshConn *ssh.Client
	files   *fileTransfer
}

var _ device.Session = (*Session)(nil)

// Lock takes the exclusive candidate configuration lock.
func (s *Session) Lock(ctx context.Context) error {
	_, err := s.exec(ctx, rpcLockConfig)
	return err
}

// Unlock releases the candidate configuration lock.
func (s *Session) Unlock(ctx context.Context) error {
	_, err := s.exec(ctx, rpcUnlockConfig)
	return err
}

// LoadText merges curly-brace configuration text into the candidate.
func (s *Session) LoadText(ctx context.Context, config string) error {
	_, err := s.exec(ctx, loadMergeRPC(config))
	return err
}

// RenderSet returns the candidate configuration in set syntax.
func (s *Session) RenderSet(ctx context.Context) (string, error) {
	reply, err := s.exec(ctx, rpcGetSetConfig)
	if err != nil {
		return "", err
	}
	out, err := parseSetOutput(reply.Data)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", util.ErrEmptyRender
	}
	return out, nil
}

// Rollback discards all uncommitted candidate changes.
func (s *Session) Rollback(ctx context.Context) error {
	_, err := s.exec(ctx, rpcRollback)
	return err
}

// RemoveFile deletes a file on the device via the management session.
func (s *Session) RemoveFile(ctx context.Context, remotePath string) error {
	_, err := s.exec(ctx, fileDeleteRPC(remotePath))
	return err
}

// Close terminates the NETCONF session and any SFTP connection.
func (s *Session) Close() error {
	var firstErr error
	if s.files != nil {
		firstErr = s.files.Close()
		s.files = nil
	}
	if s.sshConn != nil {
		if err := s.sshConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.sshConn = nil
	}
	if err := s.nc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// exec issues one RPC. The NETCONF client library blocks without context
// support, so cancellation is only observed between calls.
func (s *Session) exec(ctx context.Context, payload string) (*netconf.RPCReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply, err := s.nc.Exec(netconf.RawMethod(payload))
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// transfer returns the SFTP-backed file transfer, dialing it on first use.
func (s *Session) transfer(ctx context.Context) (*fileTransfer, error) {
	if s.files != nil {
		return s.files, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.sshPort))
	conn, err := ssh.Dial("tcp", addr, sshConfig(s.creds, s.timeout))
	if err != nil {
		return nil, fmt.Errorf("dialing sftp transport: %w", err)
	}

	ft, err := newFileTransfer(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.sshConn = conn
	s.files = ft
	return ft, nil
}

// Upload writes contents to a file on the device over SFTP.
func (s *Session) Upload(ctx context.Context, remotePath string, contents []byte) error {
	ft, err := s.transfer(ctx)
	if err != nil {
		return err
	}
	return ft.Upload(remotePath, contents)
}

// Download copies a device file to localPath over SFTP.
func (s *Session) Download(ctx context.Context, remotePath, localPath string) error {
	ft, err := s.transfer(ctx)
	if err != nil {
		return err
	}
	return ft.Download(remotePath, localPath)
}

func sshConfig(creds device.Credentials, timeout time.Duration) *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
