// Package repo ties the object store and the staging index together for a
// single repository rooted at a working directory.
package repo

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/object"
)

// DirName is the repository metadata directory under the root.
const DirName = ".twig"

var (
	ErrNotRepository    = errors.New("not a twig repository")
	ErrRepositoryExists = errors.New("repository already exists")
	ErrIndexLocked      = errors.New("index is locked by another operation")
	ErrPathNotStaged    = errors.New("path is not staged")
	ErrPathOutsideRepo  = errors.New("path is outside the repository")
	ErrPathConflict     = errors.New("path is both a file and a directory")
	ErrUnmergedEntries  = errors.New("index has unmerged entries")
	ErrIdentityMissing  = errors.New("user identity is not configured")
)

// Repo represents an opened repository. It is an explicit handle: nothing
// in this package keeps process-wide state.
type Repo struct {
	RootDir string        // working directory root
	Dir     string        // .twig/ directory
	FS      fsys.FS       // filesystem accessor
	Store   *object.Store // content-addressed object store
	Config  *Config
	Logger  *slog.Logger

	// WorkDir resolves relative paths passed to Add and Remove. It
	// defaults to RootDir.
	WorkDir string
}

// Option configures a Repo at Init or Open.
type Option func(*Repo)

// WithLogger sets the logger for debug records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repo) {
		if l != nil {
			r.Logger = l
		}
	}
}

// WithWorkDir sets the directory relative paths are resolved against.
func WithWorkDir(dir string) Option {
	return func(r *Repo) { r.WorkDir = dir }
}

func newRepo(fs fsys.FS, root string, cfg *Config, opts []Option) *Repo {
	r := &Repo{
		RootDir: root,
		Dir:     filepath.Join(root, DirName),
		FS:      fs,
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		WorkDir: root,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Store = object.NewStore(fs, r.Dir,
		object.WithCompression(cfg.Core.Compression),
		object.WithLogger(r.Logger),
	)
	return r
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.Dir, "index")
}

func (r *Repo) lockPath() string {
	return filepath.Join(r.Dir, "index.lock")
}
