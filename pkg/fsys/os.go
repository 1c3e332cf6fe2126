package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// OS is the real filesystem.
type OS struct{}

// NewOS returns an FS backed by the os package.
func NewOS() *OS {
	return &OS{}
}

func (OS) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, wrap("read", name, err)
	}
	return data, nil
}

func (OS) Stat(name string) (FileStat, error) {
	info, err := os.Stat(name)
	if err != nil {
		return FileStat{}, wrap("stat", name, err)
	}
	return statFromInfo(info), nil
}

func (OS) Lstat(name string) (FileStat, error) {
	info, err := os.Lstat(name)
	if err != nil {
		return FileStat{}, wrap("lstat", name, err)
	}
	return statFromInfo(info), nil
}

func (OS) Readlink(name string) (string, error) {
	target, err := os.Readlink(name)
	if err != nil {
		return "", wrap("readlink", name, err)
	}
	return target, nil
}

// WriteAtomic writes to a temp file in the target directory and renames it
// into place.
func (OS) WriteAtomic(name string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(name)+"-*")
	if err != nil {
		return wrap("write tmpfile", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrap("write", name, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrap("write chmod", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return wrap("write close", name, err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return wrap("write rename", name, err)
	}
	return nil
}

func (OS) MkdirAll(name string, perm fs.FileMode) error {
	return wrap("mkdir", name, os.MkdirAll(name, perm))
}

// ReadDir lists name sorted by entry name.
func (OS) ReadDir(name string) ([]DirEntry, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, wrap("readdir", name, err)
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (OS) Remove(name string) error {
	return wrap("remove", name, os.Remove(name))
}

func (OS) CreateExclusive(name string) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return wrap("create", name, err)
	}
	return wrap("create close", name, f.Close())
}

var _ FS = OS{}
