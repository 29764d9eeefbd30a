package transport

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// Mem is an in-memory Transport used by tests and the -dry-run flag. It
// keeps a flat map of files and symlinks, records every mutating operation
// in Ops, and can be told to fail specific paths.
type Mem struct {
	mu sync.Mutex

	Files map[string][]byte // path -> contents
	Links map[string]string // link path -> target
	Dirs  map[string]bool

	// Ops records every mutating call in order, e.g. "write /a/b".
	Ops []string

	// Fail maps a path (or command) to the error operations on it
	// return. Keys may be bare paths or op-qualified ("symlink /x") to
	// fail only one operation kind. Entries are not consumed; they fail
	// every time.
	Fail map[string]error

	// RenameUnsupported makes Rename fail, forcing callers onto their
	// remove-then-link fallback.
	RenameUnsupported bool

	open bool
}

// NewMem returns an empty in-memory transport.
func NewMem() *Mem {
	return &Mem{
		Files: make(map[string][]byte),
		Links: make(map[string]string),
		Dirs:  make(map[string]bool),
		Fail:  make(map[string]error),
	}
}

func (m *Mem) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	return nil
}

func (m *Mem) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

func (m *Mem) failure(op, p string) error {
	if err, ok := m.Fail[op+" "+p]; ok {
		return err
	}
	if err, ok := m.Fail[p]; ok {
		return err
	}
	return nil
}

func (m *Mem) record(op, p string) {
	m.Ops = append(m.Ops, op+" "+p)
}

func (m *Mem) WriteFile(ctx context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("write", p); err != nil {
		return err
	}
	m.record("write", p)
	m.Files[p] = append([]byte(nil), data...)
	return nil
}

func (m *Mem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("read", p); err != nil {
		return nil, err
	}
	data, ok := m.Files[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// ListDir lists the immediate children of p: file and link basenames plus
// first-level subdirectories inferred from deeper paths.
func (m *Mem) ListDir(ctx context.Context, p string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("list", p); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	prefix := strings.TrimSuffix(p, "/") + "/"
	collect := func(full string) {
		if !strings.HasPrefix(full, prefix) {
			return
		}
		rest := strings.TrimPrefix(full, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			seen[rest] = true
		}
	}
	for f := range m.Files {
		collect(f)
	}
	for l := range m.Links {
		collect(l)
	}
	for d := range m.Dirs {
		collect(d)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Mem) MkdirAll(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("mkdir", p); err != nil {
		return err
	}
	m.record("mkdir", p)
	m.Dirs[strings.TrimSuffix(p, "/")] = true
	return nil
}

func (m *Mem) Remove(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("remove", p); err != nil {
		return err
	}
	if _, ok := m.Links[p]; ok {
		m.record("remove", p)
		delete(m.Links, p)
		return nil
	}
	if _, ok := m.Files[p]; ok {
		m.record("remove", p)
		delete(m.Files, p)
		return nil
	}
	return fmt.Errorf("%s: %w", p, fs.ErrNotExist)
}

func (m *Mem) RemoveAll(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("rmall", p); err != nil {
		return err
	}
	m.record("rmall", p)
	prefix := strings.TrimSuffix(p, "/") + "/"
	for f := range m.Files {
		if f == p || strings.HasPrefix(f, prefix) {
			delete(m.Files, f)
		}
	}
	for l := range m.Links {
		if l == p || strings.HasPrefix(l, prefix) {
			delete(m.Links, l)
		}
	}
	for d := range m.Dirs {
		if d == p || strings.HasPrefix(d, prefix) {
			delete(m.Dirs, d)
		}
	}
	return nil
}

func (m *Mem) Symlink(ctx context.Context, target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("symlink", link); err != nil {
		return err
	}
	if _, ok := m.Links[link]; ok {
		return fmt.Errorf("%s: %w", link, fs.ErrExist)
	}
	m.record("symlink", link+" -> "+target)
	m.Links[link] = target
	return nil
}

func (m *Mem) ReadLink(ctx context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("readlink", p); err != nil {
		return "", err
	}
	target, ok := m.Links[p]
	if !ok {
		return "", fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return target, nil
}

func (m *Mem) Rename(ctx context.Context, oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RenameUnsupported {
		return fmt.Errorf("rename %s: operation unsupported", oldpath)
	}
	if err := m.failure("rename", newpath); err != nil {
		return err
	}
	m.record("rename", oldpath+" -> "+newpath)
	if target, ok := m.Links[oldpath]; ok {
		delete(m.Links, oldpath)
		m.Links[newpath] = target
		return nil
	}
	if data, ok := m.Files[oldpath]; ok {
		delete(m.Files, oldpath)
		m.Files[newpath] = data
		return nil
	}
	return fmt.Errorf("%s: %w", oldpath, fs.ErrNotExist)
}

func (m *Mem) Run(ctx context.Context, cmd string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("exec", cmd); err != nil {
		return -1, err
	}
	m.record("exec", cmd)
	return 0, nil
}

// AddRevision seeds a revision directory with an entry file and marshaled
// metadata, mirroring what an upload produces. Test helper.
func (m *Mem) AddRevision(dir, revision, metadataJSON string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[path.Join(dir, revision, "index.html")] = []byte("<html></html>")
	m.Files[path.Join(dir, revision, "metadata.json")] = []byte(metadataJSON)
}
