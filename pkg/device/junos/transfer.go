package junos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// fileTransfer wraps one SFTP client over an established SSH connection.
type fileTransfer struct {
	client *sftp.Client
}

func newFileTransfer(conn *ssh.Client) (*fileTransfer, error) {
	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("starting sftp subsystem: %w", err)
	}
	return &fileTransfer{client: client}, nil
}

// Upload writes contents to remotePath, truncating any existing file.
func (t *fileTransfer) Upload(remotePath string, contents []byte) (err error) {
	f, err := t.client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	if _, err := f.Write(contents); err != nil {
		return fmt.Errorf("writing %s: %w", remotePath, err)
	}
	return nil
}

// Download copies remotePath to localPath byte-for-byte, creating local
// parent directories as needed.
func (t *fileTransfer) Download(remotePath, localPath string) (err error) {
	src, err := t.client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", remotePath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, dst.Close()) }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s: %w", remotePath, err)
	}
	return nil
}

func (t *fileTransfer) Close() error {
	return t.client.Close()
}
