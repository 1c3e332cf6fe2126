package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/index"
)

// ReadIndex loads .twig/index. A missing index is empty.
func (r *Repo) ReadIndex() (*index.Index, error) {
	ix, err := index.Load(r.FS, r.indexPath())
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return ix, nil
}

// lockIndex takes .twig/index.lock. The returned func releases it.
func (r *Repo) lockIndex() (func(), error) {
	lock := r.lockPath()
	if err := r.FS.CreateExclusive(lock); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s exists", ErrIndexLocked, lock)
		}
		return nil, fmt.Errorf("lock index: %w", err)
	}
	return func() {
		if err := r.FS.Remove(lock); err != nil {
			r.Logger.Warn("release index lock", "path", lock, "error", err)
		}
	}, nil
}

// updateIndex runs fn on the loaded index under the lock and persists the
// result only if fn succeeds.
func (r *Repo) updateIndex(fn func(ix *index.Index) error) error {
	unlock, err := r.lockIndex()
	if err != nil {
		return err
	}
	defer unlock()

	ix, err := r.ReadIndex()
	if err != nil {
		return err
	}
	if err := fn(ix); err != nil {
		return err
	}
	if err := ix.Persist(r.FS, r.indexPath()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	r.Logger.Debug("persisted index", "path", r.indexPath(), "entries", ix.Len())
	return nil
}

// Add stages the given paths. Directories expand to the files beneath
// them and symbolic links are staged as links, never followed. Paths are
// staged in sorted order and the index is written once; on any failure
// the on-disk index is left as it was.
func (r *Repo) Add(paths []string) error {
	rels, err := r.resolvePaths(paths)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	files, err := r.expandDirs(rels)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	err = r.updateIndex(func(ix *index.Index) error {
		for _, rel := range files {
			abs := r.absPath(rel)
			st, err := r.FS.Lstat(abs)
			if err != nil {
				return fmt.Errorf("stat %s: %w", rel, err)
			}
			content, err := r.readContent(abs, st)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			e, err := ix.Stage(r.Store, rel, content, st)
			if err != nil {
				return err
			}
			r.Logger.Debug("staged", "path", rel, "hash", e.Hash.String(), "size", e.Size)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// readContent returns the blob content for a path: the link target for a
// symbolic link, the file bytes otherwise.
func (r *Repo) readContent(abs string, st fsys.FileStat) ([]byte, error) {
	if st.IsSymlink() {
		target, err := r.FS.Readlink(abs)
		if err != nil {
			return nil, err
		}
		return []byte(target), nil
	}
	return r.FS.ReadFile(abs)
}

// Remove unstages the given paths. The working tree is not touched.
func (r *Repo) Remove(paths []string) error {
	rels, err := r.resolvePaths(paths)
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	err = r.updateIndex(func(ix *index.Index) error {
		for _, rel := range rels {
			if !ix.Remove(rel) {
				return fmt.Errorf("%w: %s", ErrPathNotStaged, rel)
			}
			r.Logger.Debug("unstaged", "path", rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	return nil
}

// Status lists the staged paths, one line per entry.
func (r *Repo) Status(verbose bool) ([]string, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return ix.List(verbose), nil
}

// resolvePaths converts arguments to sorted, deduplicated repo-relative
// slash paths.
func (r *Repo) resolvePaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := r.repoRelPath(p)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out, nil
}

// repoRelPath resolves p against WorkDir and returns it relative to the
// repository root with forward slashes.
func (r *Repo) repoRelPath(p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.WorkDir, p)
	}
	rel, err := filepath.Rel(r.RootDir, filepath.Clean(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRepo, p)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRepo, p)
	}
	if rel == DirName || strings.HasPrefix(rel, DirName+"/") {
		return "", fmt.Errorf("%w %q: inside %s", index.ErrInvalidPath, p, DirName)
	}
	return rel, nil
}

func (r *Repo) absPath(rel string) string {
	if rel == "." {
		return r.RootDir
	}
	return filepath.Join(r.RootDir, filepath.FromSlash(rel))
}

// expandDirs replaces directory paths with the files beneath them. Files
// are returned sorted and deduplicated.
func (r *Repo) expandDirs(rels []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(rel string) {
		if _, dup := seen[rel]; !dup {
			seen[rel] = struct{}{}
			out = append(out, rel)
		}
	}

	for _, rel := range rels {
		st, err := r.FS.Lstat(r.absPath(rel))
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", rel, err)
		}
		if !st.IsDir() {
			add(rel)
			continue
		}
		if err := r.walkFiles(rel, add); err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repo) walkFiles(rel string, fn func(string)) error {
	entries, err := r.FS.ReadDir(r.absPath(rel))
	if err != nil {
		return fmt.Errorf("read dir %s: %w", rel, err)
	}
	for _, e := range entries {
		child := e.Name
		if rel != "." {
			child = rel + "/" + e.Name
		}
		if child == DirName {
			continue
		}
		if e.IsDir {
			if err := r.walkFiles(child, fn); err != nil {
				return err
			}
			continue
		}
		fn(child)
	}
	return nil
}
