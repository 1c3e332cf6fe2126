package index

import (
	"fmt"
	"sort"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/object"
)

// BlobWriter is the part of the object store Stage needs.
type BlobWriter interface {
	WriteBlob(b *object.Blob) (object.Hash, error)
}

// Index is the in-memory staging area. Entries are kept sorted by name
// (byte order) and then by stage.
type Index struct {
	Version uint32
	Entries []Entry
}

// New returns an empty index.
func New() *Index {
	return &Index{Version: Version}
}

// Load reads the index file at path. A missing file yields an empty index;
// any other failure, including corruption, is returned.
func Load(fs fsys.FS, path string) (*Index, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if fsys.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("load index: %w", err)
	}
	entries, err := Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	for i := 1; i < len(entries); i++ {
		if !entryLess(entries[i-1], entries[i]) {
			return nil, fmt.Errorf("load index %s: %w: %q (stage %d) is not after %q (stage %d)",
				path, ErrIndexEntryMalformed,
				entries[i].Name, entries[i].Stage(), entries[i-1].Name, entries[i-1].Stage())
		}
	}
	return &Index{Version: Version, Entries: entries}, nil
}

func entryLess(a, b Entry) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Stage() < b.Stage()
}

// Persist packs the index and atomically replaces the file at path.
func (ix *Index) Persist(fs fsys.FS, path string) error {
	if err := fs.WriteAtomic(path, Pack(ix.Entries), 0o644); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.Entries) }

// span returns the half-open range of entries named path.
func (ix *Index) span(path string) (int, int) {
	lo := sort.Search(len(ix.Entries), func(i int) bool { return ix.Entries[i].Name >= path })
	hi := lo
	for hi < len(ix.Entries) && ix.Entries[hi].Name == path {
		hi++
	}
	return lo, hi
}

// Entry returns the lowest-stage entry for path.
func (ix *Index) Entry(path string) (Entry, bool) {
	lo, hi := ix.span(path)
	if lo == hi {
		return Entry{}, false
	}
	return ix.Entries[lo], true
}

// Put inserts e at its sorted position. Every existing entry for the same
// path, at any stage, is replaced.
func (ix *Index) Put(e Entry) {
	e.Flags = nameFlags(e.Name, e.Flags)
	lo, hi := ix.span(e.Name)
	entries := make([]Entry, 0, len(ix.Entries)-(hi-lo)+1)
	entries = append(entries, ix.Entries[:lo]...)
	entries = append(entries, e)
	entries = append(entries, ix.Entries[hi:]...)
	ix.Entries = entries
}

// Remove drops every entry for path and reports whether any existed.
func (ix *Index) Remove(path string) bool {
	lo, hi := ix.span(path)
	if lo == hi {
		return false
	}
	ix.Entries = append(ix.Entries[:lo:lo], ix.Entries[hi:]...)
	return true
}

// Stage writes content as a blob and records it for path with the given
// stat data. The index is only modified once the blob write succeeded.
func (ix *Index) Stage(w BlobWriter, path string, content []byte, st fsys.FileStat) (Entry, error) {
	if err := ValidatePath(path); err != nil {
		return Entry{}, fmt.Errorf("stage: %w", err)
	}
	h, err := w.WriteBlob(&object.Blob{Data: content})
	if err != nil {
		return Entry{}, fmt.Errorf("stage %s: %w", path, err)
	}
	e := NewEntry(path, h, st)
	ix.Put(e)
	return e, nil
}

// List renders the entries in index order. Without verbose only the paths
// are listed; verbose lines are "<mode> <digest> <stage>\t<path>".
func (ix *Index) List(verbose bool) []string {
	out := make([]string, 0, len(ix.Entries))
	for _, e := range ix.Entries {
		if verbose {
			out = append(out, fmt.Sprintf("%06o %s %d\t%s", e.Mode, e.Hash, e.Stage(), e.Name))
		} else {
			out = append(out, e.Name)
		}
	}
	return out
}
