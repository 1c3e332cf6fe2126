package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/twig/pkg/index"
	"github.com/odvcencio/twig/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode uint32
	Hash object.Hash
}

// WriteTree converts the flat index entries into a hierarchy of tree
// objects, writes them to the store and returns the root tree hash.
func (r *Repo) WriteTree() (object.Hash, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write-tree: %w", err)
	}
	for _, e := range ix.Entries {
		if e.Stage() != 0 {
			return object.ZeroHash, fmt.Errorf("write-tree: %w: %s (stage %d)", ErrUnmergedEntries, e.Name, e.Stage())
		}
	}
	h, err := r.buildTreeDir(ix.Entries, "")
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write-tree: %w", err)
	}
	return h, nil
}

// buildTreeDir writes the tree for the entries under prefix. entries must
// be sorted by name, which keeps each directory's children contiguous.
func (r *Repo) buildTreeDir(entries []index.Entry, prefix string) (object.Hash, error) {
	var tree object.Tree
	files := make(map[string]struct{})

	for i := 0; i < len(entries); {
		rel := strings.TrimPrefix(entries[i].Name, prefix)
		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			// Direct child file.
			files[rel] = struct{}{}
			tree.Entries = append(tree.Entries, object.TreeEntry{
				Name: rel,
				Mode: entries[i].Mode,
				Hash: entries[i].Hash,
			})
			i++
			continue
		}

		// Child is in a subdirectory: take the run sharing its prefix. A
		// file with the same name always sorts before the run.
		name := rel[:slash]
		childPrefix := prefix + name + "/"
		j := i
		for j < len(entries) && strings.HasPrefix(entries[j].Name, childPrefix) {
			j++
		}
		if _, isFile := files[name]; isFile {
			return object.ZeroHash, fmt.Errorf("%w: %s", ErrPathConflict, prefix+name)
		}
		subHash, err := r.buildTreeDir(entries[i:j], childPrefix)
		if err != nil {
			return object.ZeroHash, err
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: name,
			Mode: object.ModeDir,
			Hash: subHash,
		})
		i = j
	}

	h, err := r.Store.WriteTree(&tree)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	files, err := r.flattenTreeRec(h, "")
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path: fullPath,
				Mode: entry.Mode,
				Hash: entry.Hash,
			})
		}
	}
	return result, nil
}
