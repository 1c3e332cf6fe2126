// Package fsys is the filesystem accessor used by the object store, the
// index and the repository facade. Keeping every durable operation behind
// the FS interface lets tests run against an in-memory tree and inject
// write failures.
package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// ErrFilesystem matches every error returned by an FS implementation.
var ErrFilesystem = errors.New("filesystem error")

// FS abstracts the filesystem operations the repository needs.
type FS interface {
	ReadFile(name string) ([]byte, error)
	Stat(name string) (FileStat, error)
	// Lstat is Stat without following a final symbolic link.
	Lstat(name string) (FileStat, error)
	Readlink(name string) (string, error)
	// WriteAtomic replaces name with data so that readers observe either the
	// old content or the new content, never a partial write.
	WriteAtomic(name string, data []byte, perm fs.FileMode) error
	MkdirAll(name string, perm fs.FileMode) error
	ReadDir(name string) ([]DirEntry, error)
	Remove(name string) error
	// CreateExclusive creates an empty file, failing with fs.ErrExist when
	// name is already present.
	CreateExclusive(name string) error
}

// FileStat is the subset of stat(2) recorded in index entries.
type FileStat struct {
	Ctime time.Time
	Mtime time.Time
	Dev   uint64
	Ino   uint64
	Mode  fs.FileMode
	UID   uint32
	GID   uint32
	Size  int64
}

// IsDir reports whether the stat describes a directory.
func (s FileStat) IsDir() bool { return s.Mode.IsDir() }

// IsSymlink reports whether the stat describes a symbolic link.
func (s FileStat) IsSymlink() bool { return s.Mode&fs.ModeSymlink != 0 }

// DirEntry is one name returned by ReadDir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// PathError records a failed filesystem operation. It matches both
// ErrFilesystem and the underlying cause with errors.Is.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *PathError) Is(target error) bool {
	return target == ErrFilesystem
}

func wrap(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	var ope *fs.PathError
	if errors.As(err, &ope) {
		err = ope.Err
	}
	return &PathError{Op: op, Path: name, Err: err}
}

// IsNotExist reports whether err says the named file does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
