package repo

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
)

// VerifyReport summarizes a full repository check.
type VerifyReport struct {
	object.VerifySummary
	IndexEntries int
}

// Verify re-reads every stored object and loads the index. The first
// corrupt object, corrupt index, or index entry whose blob is missing is
// returned as an error.
func (r *Repo) Verify() (*VerifyReport, error) {
	sum, err := r.Store.Verify()
	if err != nil {
		return nil, err
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, e := range ix.Entries {
		if _, err := r.Store.ReadBlob(e.Hash); err != nil {
			return nil, fmt.Errorf("verify: index entry %s: %w", e.Name, err)
		}
	}
	return &VerifyReport{VerifySummary: *sum, IndexEntries: ix.Len()}, nil
}
