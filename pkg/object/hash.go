package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the length of a raw digest in bytes.
const HashSize = sha1.Size

// Hash is a raw SHA-1 digest.
type Hash [HashSize]byte

// ZeroHash is the all-zero digest. It never names a stored object.
var ZeroHash Hash

// HashBytes returns the SHA-1 of data.
func HashBytes(data []byte) Hash {
	return Hash(sha1.Sum(data))
}

// String renders h as 40 lowercase hex characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is ZeroHash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// ParseHash parses a 40-character hex digest. Upper-case input is accepted.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidHash, s, len(s), 2*HashSize)
	}
	if _, err := hex.Decode(h[:], []byte(strings.ToLower(s))); err != nil {
		return ZeroHash, fmt.Errorf("%w: %q: %v", ErrInvalidHash, s, err)
	}
	return h, nil
}

// HashFromBytes copies a raw 20-byte digest.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("%w: raw digest has length %d, want %d", ErrInvalidHash, len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}
