package index

import (
	"errors"
	"fmt"
)

var (
	ErrIndexTruncated        = errors.New("index truncated")
	ErrIndexChecksumMismatch = errors.New("index checksum mismatch")
	ErrIndexEntryMalformed   = errors.New("index entry malformed")
	ErrIndexHeaderMalformed  = errors.New("index header malformed")
	ErrInvalidPath           = errors.New("invalid index path")
)

// Error reports a decoding failure at a byte offset of the index file.
type Error struct {
	Offset int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("index at offset %d: %v", e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func errAt(off int, sentinel error, format string, args ...any) error {
	return &Error{Offset: off, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
