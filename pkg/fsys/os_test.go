package fsys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOSWriteAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "index")
	f := NewOS()

	if err := f.WriteAtomic(name, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if err := f.WriteAtomic(name, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, err := f.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("os.ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}

	info, err := os.Stat(name)
	if err != nil {
		t.Fatalf("os.Stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("perm = %o, want 644", info.Mode().Perm())
	}
}

func TestOSWriteAtomicMissingDir(t *testing.T) {
	f := NewOS()
	err := f.WriteAtomic(filepath.Join(t.TempDir(), "missing", "x"), []byte("x"), 0o644)
	if err == nil {
		t.Fatal("WriteAtomic into missing dir should fail")
	}
	if !errors.Is(err, ErrFilesystem) {
		t.Errorf("error %v does not match ErrFilesystem", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not match fs.ErrNotExist", err)
	}
}

func TestOSReadFileMissing(t *testing.T) {
	_, err := NewOS().ReadFile(filepath.Join(t.TempDir(), "nope"))
	if !IsNotExist(err) {
		t.Fatalf("ReadFile missing: got %v, want not-exist", err)
	}
	var pe *PathError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not *PathError", err)
	}
	if pe.Op != "read" {
		t.Errorf("Op = %q, want read", pe.Op)
	}
}

func TestOSStat(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(name, []byte("hi\n"), 0o755); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	st, err := NewOS().Stat(name)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Size != 3 {
		t.Errorf("Size = %d, want 3", st.Size)
	}
	if st.Mode&0o100 == 0 {
		t.Errorf("Mode = %v, want owner-executable", st.Mode)
	}
	if st.Mtime.IsZero() || st.Ctime.IsZero() {
		t.Errorf("timestamps not populated: %+v", st)
	}
	if st.IsDir() {
		t.Error("regular file reported as dir")
	}
}

func TestOSCreateExclusive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "index.lock")
	f := NewOS()
	if err := f.CreateExclusive(name); err != nil {
		t.Fatalf("CreateExclusive: %v", err)
	}
	err := f.CreateExclusive(name)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("second CreateExclusive: got %v, want fs.ErrExist", err)
	}
	if err := f.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := f.CreateExclusive(name); err != nil {
		t.Fatalf("CreateExclusive after Remove: %v", err)
	}
}

func TestOSReadDirSorted(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"c", "a", "b"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatalf("os.WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "d"), 0o755); err != nil {
		t.Fatalf("os.Mkdir: %v", err)
	}
	entries, err := NewOS().ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "a,b,c,d" {
		t.Errorf("names = %v, want [a b c d]", names)
	}
	if !entries[3].IsDir {
		t.Error("d should be a directory")
	}
}

func TestOSLstatAndReadlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("content\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink("target.txt", link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	osfs := NewOS()
	lst, err := osfs.Lstat(link)
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if !lst.IsSymlink() || lst.Size != int64(len("target.txt")) {
		t.Errorf("Lstat = %+v, want a symlink of size %d", lst, len("target.txt"))
	}
	st, err := osfs.Stat(link)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.IsSymlink() || st.Size != 8 {
		t.Errorf("Stat = %+v, want the target's stat", st)
	}

	got, err := osfs.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if got != "target.txt" {
		t.Errorf("Readlink = %q", got)
	}
	if _, err := osfs.Readlink(target); !errors.Is(err, ErrFilesystem) {
		t.Errorf("Readlink of regular file: got %v, want ErrFilesystem", err)
	}
}
