package object

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrObjectCorrupt   = errors.New("object corrupt")
	ErrMalformedTree   = errors.New("malformed tree")
	ErrMalformedCommit = errors.New("malformed commit")
	ErrTypeMismatch    = errors.New("object type mismatch")
	ErrInvalidHash     = errors.New("invalid hash")
)

// Error describes a failed store operation on one object. Err is one of the
// package sentinels or a wrapped filesystem error.
type Error struct {
	Op   string
	Hash Hash
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("object %s %s: %v", e.Op, e.Hash, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
