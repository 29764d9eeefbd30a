// Package transport provides remote file operations over a single reusable
// session. The Transport interface is the only thing the rest of the tool
// knows about the remote host; the SFTP implementation lives in sftp.go and
// an in-memory implementation for tests and dry runs lives in mem.go.
package transport

import (
	"context"
	"errors"
	"io/fs"
)

// Transport is a session to the remote host. Implementations connect lazily
// on first use; Connect is idempotent and Close is safe to call on a
// transport that never connected.
type Transport interface {
	Connect(ctx context.Context) error
	IsOpen() bool
	Close() error

	WriteFile(ctx context.Context, path string, data []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ListDir(ctx context.Context, path string) ([]string, error)
	MkdirAll(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	Symlink(ctx context.Context, target, link string) error
	ReadLink(ctx context.Context, path string) (string, error)
	// Rename replaces newpath atomically where the server supports it.
	Rename(ctx context.Context, oldpath, newpath string) error
	Run(ctx context.Context, cmd string) (int, error)
}

// IsNotExist reports whether err means the remote path does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
