package repo

import (
	"fmt"
	"path/filepath"

	"github.com/odvcencio/twig/pkg/fsys"
)

// Init creates a new repository at path. It creates the .twig/ directory
// structure: HEAD, objects/, refs/heads/ and a default config.toml.
// Returns ErrRepositoryExists if .twig/ is already present.
func Init(fs fsys.FS, path string, opts ...Option) (*Repo, error) {
	root, err := absPath(path)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	dir := filepath.Join(root, DirName)

	if _, err := fs.Stat(dir); err == nil {
		return nil, fmt.Errorf("init: %w at %s", ErrRepositoryExists, dir)
	} else if !fsys.IsNotExist(err) {
		return nil, fmt.Errorf("init: %w", err)
	}

	for _, d := range []string{
		filepath.Join(dir, "objects"),
		filepath.Join(dir, "refs", "heads"),
	} {
		if err := fs.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: %w", err)
		}
	}

	// Write default HEAD.
	if err := fs.WriteAtomic(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	cfg := DefaultConfig()
	if err := WriteConfig(fs, dir, cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r := newRepo(fs, root, cfg, opts)
	r.Logger.Debug("initialized repository", "dir", dir)
	return r, nil
}

// Open searches upward from path for a .twig/ directory and opens the
// repository. Returns ErrNotRepository if none is found.
func Open(fs fsys.FS, path string, opts ...Option) (*Repo, error) {
	cur, err := absPath(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	for {
		dir := filepath.Join(cur, DirName)
		st, err := fs.Stat(dir)
		if err == nil && st.IsDir() {
			cfg, err := ReadConfig(fs, dir)
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			return newRepo(fs, cur, cfg, opts), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", path, ErrNotRepository)
		}
		cur = parent
	}
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	return abs, nil
}
