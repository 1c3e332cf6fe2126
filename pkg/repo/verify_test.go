package repo

import (
	"errors"
	"testing"

	"github.com/odvcencio/twig/pkg/index"
	"github.com/odvcencio/twig/pkg/object"
)

func TestVerify(t *testing.T) {
	r, tree := committerRepo(t)
	if _, err := r.CommitTree(tree, nil, "m\n", commitTime, nil); err != nil {
		t.Fatalf("CommitTree: %v", err)
	}

	rep, err := r.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := object.VerifySummary{Objects: 3, Blobs: 1, Trees: 1, Commits: 1}
	if rep.VerifySummary != want || rep.IndexEntries != 1 {
		t.Errorf("Verify = %+v, want %+v with 1 index entry", rep, want)
	}
}

func TestVerifyCorruptObject(t *testing.T) {
	r, m := memRepo(t)
	writeFile(t, m, "a.txt", "hi\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hex := blobHash("hi\n").String()
	p := "/repo/.twig/objects/" + hex[:2] + "/" + hex[2:]
	if err := m.WriteFile(p, []byte("blob 3\x00ho\n"), 0o444); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := r.Verify(); !errors.Is(err, object.ErrObjectCorrupt) {
		t.Fatalf("Verify: got %v, want ErrObjectCorrupt", err)
	}
}

func TestVerifyCorruptIndex(t *testing.T) {
	r, m := memRepo(t)
	if err := m.WriteFile(r.indexPath(), []byte("DIRC"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.Verify(); !errors.Is(err, index.ErrIndexTruncated) {
		t.Fatalf("Verify: got %v, want ErrIndexTruncated", err)
	}
}

func TestVerifyMissingStagedBlob(t *testing.T) {
	r, m := memRepo(t)
	ix := index.New()
	ix.Put(index.Entry{Name: "ghost.txt", Mode: object.ModeFile, Hash: blobHash("ghost\n")})
	if err := ix.Persist(m, r.indexPath()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := r.Verify(); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Verify: got %v, want ErrObjectNotFound", err)
	}
}
