package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHOptions holds the credentials for the SFTP transport. KeyFile and
// Password are both optional but at least one must be set.
type SSHOptions struct {
	Host     string
	Port     int
	User     string
	KeyFile  string
	Password string
	Timeout  time.Duration
}

// SFTP is the production Transport: one SSH connection with an SFTP
// subsystem on top, established on first use and reused for every
// subsequent operation in the invocation.
type SFTP struct {
	opts SSHOptions

	ssh  *ssh.Client
	sftp *sftp.Client
}

// NewSFTP returns an unconnected SFTP transport.
func NewSFTP(opts SSHOptions) *SFTP {
	if opts.Port == 0 {
		opts.Port = 22
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &SFTP{opts: opts}
}

// Connect establishes the SSH connection and SFTP channel. Calling it on an
// already-open transport is a no-op.
func (t *SFTP) Connect(ctx context.Context) error {
	if t.IsOpen() {
		return nil
	}

	auth, err := t.authMethods()
	if err != nil {
		return err
	}

	cfg := &ssh.ClientConfig{
		User: t.opts.User,
		Auth: auth,
		// Host-key verification is delegated to the operator's known
		// environment; the deploy target is operator-controlled.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         t.opts.Timeout,
	}

	addr := net.JoinHostPort(t.opts.Host, fmt.Sprintf("%d", t.opts.Port))

	dialer := net.Dialer{Timeout: t.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("could not reach %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	ftp, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return fmt.Errorf("could not open sftp channel: %w", err)
	}

	t.ssh = client
	t.sftp = ftp
	return nil
}

func (t *SFTP) authMethods() ([]ssh.AuthMethod, error) {
	var auth []ssh.AuthMethod
	if t.opts.KeyFile != "" {
		key, err := os.ReadFile(t.opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("could not read key file %s: %w", t.opts.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("could not parse key file %s: %w", t.opts.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if t.opts.Password != "" {
		auth = append(auth, ssh.Password(t.opts.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh credentials configured for %s", t.opts.Host)
	}
	return auth, nil
}

// IsOpen reports whether the session is established.
func (t *SFTP) IsOpen() bool {
	return t.sftp != nil
}

// Close tears down the SFTP channel and the SSH connection.
func (t *SFTP) Close() error {
	if !t.IsOpen() {
		return nil
	}
	ferr := t.sftp.Close()
	cerr := t.ssh.Close()
	t.sftp = nil
	t.ssh = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}

// ready connects lazily and honors context cancellation. The sftp package
// itself has no per-operation contexts, so cancellation is checked at
// operation boundaries.
func (t *SFTP) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.Connect(ctx)
}

func (t *SFTP) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	f, err := t.sftp.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

func (t *SFTP) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	f, err := t.sftp.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return data, nil
}

func (t *SFTP) ListDir(ctx context.Context, path string) ([]string, error) {
	if err := t.ready(ctx); err != nil {
		return nil, err
	}
	infos, err := t.sftp.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func (t *SFTP) MkdirAll(ctx context.Context, path string) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	return t.sftp.MkdirAll(path)
}

func (t *SFTP) Remove(ctx context.Context, path string) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	return t.sftp.Remove(path)
}

func (t *SFTP) RemoveAll(ctx context.Context, path string) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	return t.sftp.RemoveAll(path)
}

func (t *SFTP) Symlink(ctx context.Context, target, link string) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	return t.sftp.Symlink(target, link)
}

func (t *SFTP) ReadLink(ctx context.Context, path string) (string, error) {
	if err := t.ready(ctx); err != nil {
		return "", err
	}
	return t.sftp.ReadLink(path)
}

// Rename uses the posix-rename extension so an existing newpath is replaced
// atomically. Servers without the extension return an error and callers fall
// back to remove-then-link.
func (t *SFTP) Rename(ctx context.Context, oldpath, newpath string) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	return t.sftp.PosixRename(oldpath, newpath)
}

// Run executes a command on the remote host over a fresh SSH session and
// returns its exit code.
func (t *SFTP) Run(ctx context.Context, cmd string) (int, error) {
	if err := t.ready(ctx); err != nil {
		return -1, err
	}
	session, err := t.ssh.NewSession()
	if err != nil {
		return -1, fmt.Errorf("could not open session: %w", err)
	}
	defer session.Close()

	if err := session.Run(cmd); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitStatus(), nil
		}
		return -1, fmt.Errorf("remote command failed: %w", err)
	}
	return 0, nil
}
