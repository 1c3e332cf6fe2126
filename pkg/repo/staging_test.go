package repo

import (
	"crypto/sha1"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/twig/pkg/index"
	"github.com/odvcencio/twig/pkg/object"
)

// Stage a.txt with "hi\n": one blob, one index entry.
func TestAddSingleFile(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "hi\n")

	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	want := object.Hash(sha1.Sum([]byte("hi\n")))
	hashes, err := r.Store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]object.Hash{want}, hashes); diff != "" {
		t.Errorf("stored objects (-want +got):\n%s", diff)
	}
	blob, err := r.Store.ReadBlob(want)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "hi\n" {
		t.Errorf("blob = %q", blob.Data)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("index has %d entries, want 1", ix.Len())
	}
	e := ix.Entries[0]
	if e.Name != "a.txt" || e.Size != 3 || e.Hash != want {
		t.Errorf("entry = {Name:%q Size:%d Hash:%s}, want {a.txt 3 %s}", e.Name, e.Size, e.Hash, want)
	}
	if e.Mode != object.ModeFile {
		t.Errorf("Mode = %o, want %o", e.Mode, object.ModeFile)
	}
}

// Re-staging a path replaces its entry; status stays sorted.
func TestAddRestageKeepsOrder(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "one\n")
	writeFile(t, m, "b.txt", "bee\n")

	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	if err := r.Add([]string{"b.txt"}); err != nil {
		t.Fatalf("Add b: %v", err)
	}
	writeFile(t, m, "a.txt", "two\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add a again: %v", err)
	}

	got, err := r.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, got); diff != "" {
		t.Errorf("Status (-want +got):\n%s", diff)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	e, ok := ix.Entry("a.txt")
	if !ok {
		t.Fatal("a.txt not staged")
	}
	if want := object.Hash(sha1.Sum([]byte("two\n"))); e.Hash != want {
		t.Errorf("a.txt hash = %s, want %s", e.Hash, want)
	}
}

// No index file: status is empty and not an error.
func TestStatusWithoutIndex(t *testing.T) {
	r, m := memRepo(t)
	got, err := r.Status(true)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Status = %v, want empty", got)
	}
	if _, err := m.Stat(r.indexPath()); err == nil {
		t.Error("Status created an index file")
	}
}

func TestAddVerboseStatus(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "hi\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Status(true)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	want := []string{"100644 " + object.Hash(sha1.Sum([]byte("hi\n"))).String() + " 0\ta.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Status (-want +got):\n%s", diff)
	}
}

func TestAddDirectoryExpands(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "src/main.go", "package main\n")
	writeFile(t, m, "src/util/util.go", "package util\n")
	writeFile(t, m, "README", "readme\n")

	if err := r.Add([]string{"."}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	want := []string{"README", "src/main.go", "src/util/util.go"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Status (-want +got):\n%s", diff)
	}
}

func TestAddRelativeToWorkDir(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "sub/x.txt", "x\n")
	r.WorkDir = "/repo/sub"

	if err := r.Add([]string{"x.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := r.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if diff := cmp.Diff([]string{"sub/x.txt"}, got); diff != "" {
		t.Errorf("Status (-want +got):\n%s", diff)
	}
}

func TestAddRejectsBadPaths(t *testing.T) {
	r, _ := memRepo(t)
	tests := []struct {
		path string
		want error
	}{
		{"/etc/passwd", ErrPathOutsideRepo},
		{"../outside", ErrPathOutsideRepo},
		{".twig/HEAD", index.ErrInvalidPath},
		{".twig", index.ErrInvalidPath},
	}
	for _, tt := range tests {
		if err := r.Add([]string{tt.path}); !errors.Is(err, tt.want) {
			t.Errorf("Add(%q): got %v, want %v", tt.path, err, tt.want)
		}
	}
}

func TestAddMissingFileLeavesIndex(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "hi\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before, err := m.ReadFile(r.indexPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	writeFile(t, m, "b.txt", "bee\n")
	if err := r.Add([]string{"b.txt", "missing.txt"}); err == nil {
		t.Fatal("Add with a missing path succeeded")
	}
	after, err := m.ReadFile(r.indexPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("index changed after failed Add (-before +after):\n%s", diff)
	}
}

func TestAddStoreFailureLeavesIndex(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "hi\n")
	writeFile(t, m, "b.txt", "bee\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	m.FailWrite = func(op, name string) error {
		if op == "mkdir" || (op == "write" && name != r.indexPath()) {
			return errors.New("disk full")
		}
		return nil
	}
	if err := r.Add([]string{"b.txt"}); err == nil {
		t.Fatal("Add succeeded with failing object writes")
	}
	m.FailWrite = nil

	got, err := r.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if diff := cmp.Diff([]string{"a.txt"}, got); diff != "" {
		t.Errorf("Status (-want +got):\n%s", diff)
	}
	if _, err := m.Stat(r.lockPath()); err == nil {
		t.Error("index.lock left behind after failure")
	}
}

func TestAddWhileLocked(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "hi\n")
	if err := m.CreateExclusive(r.lockPath()); err != nil {
		t.Fatalf("CreateExclusive: %v", err)
	}

	if err := r.Add([]string{"a.txt"}); !errors.Is(err, ErrIndexLocked) {
		t.Fatalf("Add: got %v, want ErrIndexLocked", err)
	}
	if err := r.Remove([]string{"a.txt"}); !errors.Is(err, ErrIndexLocked) {
		t.Fatalf("Remove: got %v, want ErrIndexLocked", err)
	}
	// The foreign lock is not ours to remove.
	if _, err := m.Stat(r.lockPath()); err != nil {
		t.Errorf("lock removed: %v", err)
	}
}

func TestRemove(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "a\n")
	writeFile(t, m, "b.txt", "b\n")
	if err := r.Add([]string{"a.txt", "b.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.Remove([]string{"a.txt"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err := r.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if diff := cmp.Diff([]string{"b.txt"}, got); diff != "" {
		t.Errorf("Status (-want +got):\n%s", diff)
	}
	// Working tree untouched.
	if _, err := m.Stat("/repo/a.txt"); err != nil {
		t.Errorf("a.txt removed from working tree: %v", err)
	}
}

func TestRemoveNotStaged(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "a\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := r.Remove([]string{"a.txt", "nope.txt"})
	if !errors.Is(err, ErrPathNotStaged) {
		t.Fatalf("Remove: got %v, want ErrPathNotStaged", err)
	}
	got, err := r.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if diff := cmp.Diff([]string{"a.txt"}, got); diff != "" {
		t.Errorf("Status after failed Remove (-want +got):\n%s", diff)
	}
}

func TestCorruptIndexSurfaces(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "a\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	data, err := m.ReadFile(r.indexPath())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[20] ^= 0x01
	if err := m.WriteFile(r.indexPath(), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := r.Status(false); !errors.Is(err, index.ErrIndexChecksumMismatch) {
		t.Errorf("Status: got %v, want ErrIndexChecksumMismatch", err)
	}
	if err := r.Add([]string{"a.txt"}); !errors.Is(err, index.ErrIndexChecksumMismatch) {
		t.Errorf("Add: got %v, want ErrIndexChecksumMismatch", err)
	}
}

func TestAddSymlinkStagesLink(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "target.txt", "real content\n")
	if err := m.Symlink("target.txt", "/repo/link"); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	if err := r.Add([]string{"."}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	e, ok := ix.Entry("link")
	if !ok {
		t.Fatal("link not staged")
	}
	if e.Mode != object.ModeSymlink || e.Size != uint32(len("target.txt")) {
		t.Errorf("link entry = {Mode:%o Size:%d}, want {120000 %d}", e.Mode, e.Size, len("target.txt"))
	}
	if want := object.Hash(sha1.Sum([]byte("target.txt"))); e.Hash != want {
		t.Errorf("link hash = %s, want digest of the link target %s", e.Hash, want)
	}
}
