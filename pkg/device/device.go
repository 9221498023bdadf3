// Package device defines the management-session abstraction jset drives.
// The converter and orchestrator depend only on these interfaces; the
// junos subpackage provides the NETCONF/SFTP implementation.
package device

import "context"

// Credentials authenticate both the management session and the SSH
// fallback used for file transfer and provisioning.
type Credentials struct {
	Username string
	Password string
}

// Session is one open management connection to a device. All candidate
// configuration edits made through a Session are transient: callers pair
// every LoadText with a Rollback on all exit paths.
type Session interface {
	// Lock takes the exclusive candidate configuration lock.
	Lock(ctx context.Context) error

	// Unlock releases the candidate configuration lock.
	Unlock(ctx context.Context) error

	// LoadText merges curly-brace configuration text into the candidate.
	LoadText(ctx context.Context, config string) error

	// RenderSet returns the candidate configuration in set syntax.
	RenderSet(ctx context.Context) (string, error)

	// Rollback discards all uncommitted candidate changes.
	Rollback(ctx context.Context) error

	// Upload writes contents to a file on the device.
	Upload(ctx context.Context, remotePath string, contents []byte) error

	// Download copies a device file to localPath, creating parent
	// directories as needed.
	Download(ctx context.Context, remotePath, localPath string) error

	// RemoveFile deletes a file on the device.
	RemoveFile(ctx context.Context, remotePath string) error

	// Close terminates the session and any transfer connection.
	Close() error
}

// Dialer opens management sessions.
type Dialer interface {
	Dial(ctx context.Context, host string, creds Credentials) (Session, error)
}

// Prober checks that the management protocol answers on a host. It is the
// lightweight pre-connection used by the enable-NETCONF path.
type Prober interface {
	Probe(ctx context.Context, host string) error
}

// Provisioner activates the management service on a host over a separate
// administrative transport (plain SSH), committing that one change.
type Provisioner interface {
	EnableNetconf(ctx context.Context, host string, creds Credentials) error
}
