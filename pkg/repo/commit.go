package repo

import (
	"fmt"
	"time"

	"github.com/odvcencio/twig/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in Commit.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitTree creates a commit object for tree with an optional parent.
//
//  1. Check that tree (and parent, if any) exist with the right kind
//  2. Build the author and committer identity from config at when
//  3. Sign the payload when signer is provided
//  4. Write the commit to the store
//
// No ref is moved.
func (r *Repo) CommitTree(tree object.Hash, parent *object.Hash, message string, when time.Time, signer CommitSigner) (object.Hash, error) {
	// 1. Referenced objects must exist.
	if _, err := r.Store.ReadTree(tree); err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: tree: %w", err)
	}
	if parent != nil {
		if _, err := r.Store.ReadCommit(*parent); err != nil {
			return object.ZeroHash, fmt.Errorf("commit-tree: parent: %w", err)
		}
	}

	// 2. Identity.
	who, err := r.Config.Identity(when)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: %w", err)
	}

	c := &object.Commit{
		Tree:      tree,
		Author:    who,
		Committer: who,
		Message:   message,
	}
	if parent != nil {
		p := *parent
		c.Parent = &p
	}

	// 3. Sign.
	if signer != nil {
		signature, err := signer(object.CommitSigningPayload(c))
		if err != nil {
			return object.ZeroHash, fmt.Errorf("commit-tree: sign commit: %w", err)
		}
		c.Signature = signature
	}

	// 4. Write.
	h, err := r.Store.WriteCommit(c)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: write commit: %w", err)
	}
	r.Logger.Debug("wrote commit", "hash", h.String(), "tree", tree.String(), "signed", c.Signature != "")
	return h, nil
}
