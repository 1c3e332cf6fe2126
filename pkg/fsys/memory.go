package fsys

import (
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory FS for tests. Paths are cleaned with forward
// slashes; "/" and "." always exist. Symbolic links created with Symlink
// are followed by ReadFile and Stat.
type Memory struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]struct{}

	// Now supplies timestamps for newly written files.
	Now func() time.Time
	// FailWrite, when set, is consulted before every mutating call. A non-nil
	// return aborts the operation with that error.
	FailWrite func(op, name string) error

	nextIno uint64
}

var (
	errIsDir   = errors.New("is a directory")
	errNotLink = errors.New("not a symbolic link")
	errLoop    = errors.New("too many levels of symbolic links")
)

const maxLinkHops = 40

// resolveLocked follows symbolic links from p to a non-link path.
func (m *Memory) resolveLocked(p string) (string, error) {
	for hops := 0; ; hops++ {
		f, ok := m.files[p]
		if !ok || f.stat.Mode&fs.ModeSymlink == 0 {
			return p, nil
		}
		if hops == maxLinkHops {
			return "", errLoop
		}
		target := string(f.data)
		if !path.IsAbs(target) {
			target = path.Join(path.Dir(p), target)
		}
		p = clean(target)
	}
}

type memFile struct {
	data []byte
	stat FileStat
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]*memFile),
		dirs:  map[string]struct{}{"/": {}, ".": {}},
		Now:   time.Now,
	}
}

func clean(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func (m *Memory) fail(op, name string) error {
	if m.FailWrite == nil {
		return nil
	}
	if err := m.FailWrite(op, name); err != nil {
		return wrap(op, name, err)
	}
	return nil
}

func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.resolveLocked(clean(name))
	if err != nil {
		return nil, wrap("read", name, err)
	}
	f, ok := m.files[p]
	if !ok {
		if _, isDir := m.dirs[p]; isDir {
			return nil, wrap("read", name, errIsDir)
		}
		return nil, wrap("read", name, fs.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

func (m *Memory) Stat(name string) (FileStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.resolveLocked(clean(name))
	if err != nil {
		return FileStat{}, wrap("stat", name, err)
	}
	return m.statLocked(name, p)
}

func (m *Memory) Lstat(name string) (FileStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statLocked(name, clean(name))
}

func (m *Memory) statLocked(name, p string) (FileStat, error) {
	if f, ok := m.files[p]; ok {
		return f.stat, nil
	}
	if _, ok := m.dirs[p]; ok {
		return FileStat{Mode: fs.ModeDir | 0o755}, nil
	}
	return FileStat{}, wrap("stat", name, fs.ErrNotExist)
}

func (m *Memory) WriteAtomic(name string, data []byte, perm fs.FileMode) error {
	if err := m.fail("write", name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(name, data, perm)
}

// WriteFile is WriteAtomic without the fault hook, for test fixtures.
func (m *Memory) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(name, data, perm)
}

func (m *Memory) writeLocked(name string, data []byte, perm fs.FileMode) error {
	p := clean(name)
	if _, ok := m.dirs[path.Dir(p)]; !ok {
		return wrap("write", name, fs.ErrNotExist)
	}
	if _, ok := m.dirs[p]; ok {
		return wrap("write", name, fs.ErrExist)
	}
	now := m.Now()
	f, ok := m.files[p]
	if !ok {
		m.nextIno++
		f = &memFile{stat: FileStat{Ino: m.nextIno}}
		m.files[p] = f
	}
	f.data = append([]byte(nil), data...)
	f.stat.Ctime = now
	f.stat.Mtime = now
	f.stat.Mode = perm.Perm()
	f.stat.Size = int64(len(data))
	return nil
}

// Symlink creates name as a symbolic link to target, for test fixtures.
func (m *Memory) Symlink(target, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeLocked(name, []byte(target), 0o777); err != nil {
		return err
	}
	m.files[clean(name)].stat.Mode = fs.ModeSymlink | 0o777
	return nil
}

func (m *Memory) Readlink(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[clean(name)]
	if !ok {
		return "", wrap("readlink", name, fs.ErrNotExist)
	}
	if f.stat.Mode&fs.ModeSymlink == 0 {
		return "", wrap("readlink", name, errNotLink)
	}
	return string(f.data), nil
}

// SetStat overrides the stat record of an existing file. Size is kept in
// sync with the stored content.
func (m *Memory) SetStat(name string, st FileStat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[clean(name)]
	if !ok {
		return wrap("stat", name, fs.ErrNotExist)
	}
	st.Size = int64(len(f.data))
	f.stat = st
	return nil
}

func (m *Memory) MkdirAll(name string, perm fs.FileMode) error {
	if err := m.fail("mkdir", name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(name)
	cur := ""
	if strings.HasPrefix(p, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		cur = path.Join(cur, seg)
		if _, ok := m.files[cur]; ok {
			return wrap("mkdir", name, fs.ErrExist)
		}
		m.dirs[cur] = struct{}{}
	}
	return nil
}

func (m *Memory) ReadDir(name string) ([]DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(name)
	if _, ok := m.dirs[p]; !ok {
		return nil, wrap("readdir", name, fs.ErrNotExist)
	}

	seen := make(map[string]bool)
	var out []DirEntry
	add := func(child string, isDir bool) {
		if path.Dir(child) != p || child == p {
			return
		}
		base := path.Base(child)
		if seen[base] {
			return
		}
		seen[base] = true
		out = append(out, DirEntry{Name: base, IsDir: isDir})
	}
	for d := range m.dirs {
		add(d, true)
	}
	for f := range m.files {
		add(f, false)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Remove(name string) error {
	if err := m.fail("remove", name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(name)
	if _, ok := m.files[p]; ok {
		delete(m.files, p)
		return nil
	}
	if _, ok := m.dirs[p]; ok {
		for other := range m.files {
			if path.Dir(other) == p {
				return wrap("remove", name, fs.ErrExist)
			}
		}
		for other := range m.dirs {
			if other != p && path.Dir(other) == p {
				return wrap("remove", name, fs.ErrExist)
			}
		}
		delete(m.dirs, p)
		return nil
	}
	return wrap("remove", name, fs.ErrNotExist)
}

func (m *Memory) CreateExclusive(name string) error {
	if err := m.fail("create", name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(name)
	if _, ok := m.files[p]; ok {
		return wrap("create", name, fs.ErrExist)
	}
	return m.writeLocked(name, nil, 0o644)
}

var _ FS = (*Memory)(nil)
