package transport

import (
	"context"
	"time"

	"static-deploy/logger"
)

// Logging wraps a Transport and logs every remote operation with its
// duration. Wrap the production transport with it when debug logging is on.
type Logging struct {
	next Transport
	log  *logger.Logger
}

// WithLogging decorates t so each remote call is logged at debug level.
func WithLogging(t Transport, log *logger.Logger) *Logging {
	return &Logging{next: t, log: log}
}

func (l *Logging) observe(op, path string, start time.Time, err error) {
	if err != nil {
		l.log.Debug("remote op failed", "op", op, "path", path, "elapsed", time.Since(start), "err", err)
		return
	}
	l.log.Debug("remote op", "op", op, "path", path, "elapsed", time.Since(start))
}

func (l *Logging) Connect(ctx context.Context) error {
	start := time.Now()
	err := l.next.Connect(ctx)
	l.observe("connect", "", start, err)
	return err
}

func (l *Logging) IsOpen() bool { return l.next.IsOpen() }

func (l *Logging) Close() error {
	start := time.Now()
	err := l.next.Close()
	l.observe("close", "", start, err)
	return err
}

func (l *Logging) WriteFile(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	err := l.next.WriteFile(ctx, path, data)
	l.observe("write", path, start, err)
	return err
}

func (l *Logging) ReadFile(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	data, err := l.next.ReadFile(ctx, path)
	l.observe("read", path, start, err)
	return data, err
}

func (l *Logging) ListDir(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	names, err := l.next.ListDir(ctx, path)
	l.observe("list", path, start, err)
	return names, err
}

func (l *Logging) MkdirAll(ctx context.Context, path string) error {
	start := time.Now()
	err := l.next.MkdirAll(ctx, path)
	l.observe("mkdir", path, start, err)
	return err
}

func (l *Logging) Remove(ctx context.Context, path string) error {
	start := time.Now()
	err := l.next.Remove(ctx, path)
	l.observe("remove", path, start, err)
	return err
}

func (l *Logging) RemoveAll(ctx context.Context, path string) error {
	start := time.Now()
	err := l.next.RemoveAll(ctx, path)
	l.observe("rmdir", path, start, err)
	return err
}

func (l *Logging) Symlink(ctx context.Context, target, link string) error {
	start := time.Now()
	err := l.next.Symlink(ctx, target, link)
	l.observe("symlink", link, start, err)
	return err
}

func (l *Logging) ReadLink(ctx context.Context, path string) (string, error) {
	start := time.Now()
	target, err := l.next.ReadLink(ctx, path)
	l.observe("readlink", path, start, err)
	return target, err
}

func (l *Logging) Rename(ctx context.Context, oldpath, newpath string) error {
	start := time.Now()
	err := l.next.Rename(ctx, oldpath, newpath)
	l.observe("rename", newpath, start, err)
	return err
}

func (l *Logging) Run(ctx context.Context, cmd string) (int, error) {
	start := time.Now()
	code, err := l.next.Run(ctx, cmd)
	l.observe("exec", cmd, start, err)
	return code, err
}
