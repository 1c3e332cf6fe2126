// Package index implements the binary staging area: the sorted table of
// path -> blob digest + stat data that becomes the next commit's tree.
//
// On-disk layout, all integers big-endian:
//
//	header:   "DIRC" | version(4) | entry count(4)
//	entry:    ctime_sec ctime_nsec mtime_sec mtime_nsec dev ino mode uid gid size (4 each)
//	          digest(20) flags(2) name, NUL-padded so the entry length is a
//	          multiple of 8 with at least one NUL
//	extension (optional, repeated): signature(4) | size(4) | data
//	trailer:  SHA-1 of everything above
package index

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"unicode/utf8"

	"github.com/odvcencio/twig/pkg/object"
)

const (
	signature = "DIRC"
	// Version is the only index format version read and written.
	Version uint32 = 2

	headerSize     = 12
	entryFixedSize = 62
	trailerSize    = sha1.Size
)

// paddedLen rounds an entry length up to the next multiple of 8, always
// leaving room for at least one NUL.
func paddedLen(n int) int {
	return (n + 8) &^ 7
}

// Pack encodes entries in the order given and appends the trailing
// checksum. The name-length bits of each entry's flags are recomputed from
// the name; the other flag bits are written as-is.
func Pack(entries []Entry) []byte {
	size := headerSize + trailerSize
	for _, e := range entries {
		size += paddedLen(entryFixedSize + len(e.Name))
	}
	buf := make([]byte, 0, size)

	buf = append(buf, signature...)
	buf = binary.BigEndian.AppendUint32(buf, Version)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(entries)))

	for _, e := range entries {
		start := len(buf)
		for _, v := range []uint32{
			e.CtimeSec, e.CtimeNsec, e.MtimeSec, e.MtimeNsec,
			e.Dev, e.Ino, e.Mode, e.UID, e.GID, e.Size,
		} {
			buf = binary.BigEndian.AppendUint32(buf, v)
		}
		buf = append(buf, e.Hash[:]...)
		buf = binary.BigEndian.AppendUint16(buf, nameFlags(e.Name, e.Flags))
		buf = append(buf, e.Name...)
		for pad := paddedLen(entryFixedSize+len(e.Name)) - (len(buf) - start); pad > 0; pad-- {
			buf = append(buf, 0)
		}
	}

	sum := sha1.Sum(buf)
	return append(buf, sum[:]...)
}

// Unpack decodes an index file. The checksum is verified before anything
// else is parsed, so any damaged byte reports ErrIndexChecksumMismatch.
func Unpack(data []byte) ([]Entry, error) {
	if len(data) < headerSize+trailerSize {
		return nil, errAt(0, ErrIndexTruncated, "%d bytes is shorter than header and trailer", len(data))
	}
	body := data[:len(data)-trailerSize]
	if sum := sha1.Sum(body); !bytes.Equal(sum[:], data[len(body):]) {
		return nil, errAt(len(body), ErrIndexChecksumMismatch, "computed %x, stored %x", sum, data[len(body):])
	}

	if string(body[:4]) != signature {
		return nil, errAt(0, ErrIndexHeaderMalformed, "bad signature %q", body[:4])
	}
	if v := binary.BigEndian.Uint32(body[4:8]); v != Version {
		return nil, errAt(4, ErrIndexHeaderMalformed, "unsupported version %d", v)
	}
	count := binary.BigEndian.Uint32(body[8:12])

	// The declared count only sizes the slice up to what the body can hold.
	capHint := (len(body) - headerSize) / (entryFixedSize + 2)
	if uint64(count) < uint64(capHint) {
		capHint = int(count)
	}
	entries := make([]Entry, 0, capHint)

	off := headerSize
	for i := uint32(0); i < count; i++ {
		e, n, err := unpackEntry(body, off)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		off += n
	}

	if err := skipExtensions(body, off); err != nil {
		return nil, err
	}
	return entries, nil
}

// unpackEntry decodes the entry starting at off and returns it with its
// padded length. Fixed fields are read at absolute offsets; the name field
// is everything up to the padded end, trimmed of trailing NULs only.
func unpackEntry(body []byte, off int) (Entry, int, error) {
	if len(body)-off < entryFixedSize {
		return Entry{}, 0, errAt(off, ErrIndexTruncated, "entry needs %d fixed bytes, %d left", entryFixedSize, len(body)-off)
	}
	u32 := func(field int) uint32 {
		return binary.BigEndian.Uint32(body[off+4*field:])
	}
	e := Entry{
		CtimeSec:  u32(0),
		CtimeNsec: u32(1),
		MtimeSec:  u32(2),
		MtimeNsec: u32(3),
		Dev:       u32(4),
		Ino:       u32(5),
		Mode:      u32(6),
		UID:       u32(7),
		GID:       u32(8),
		Size:      u32(9),
		Flags:     binary.BigEndian.Uint16(body[off+60:]),
	}
	copy(e.Hash[:], body[off+40:off+40+object.HashSize])

	if e.Flags&FlagExtended != 0 {
		return Entry{}, 0, errAt(off+60, ErrIndexEntryMalformed, "extended flag set in version %d", Version)
	}

	nameStart := off + entryFixedSize
	nameLen := int(e.Flags & flagNameMask)
	if nameLen == int(flagNameMask) {
		// Length did not fit in 12 bits; the name runs to the first NUL.
		nul := bytes.IndexByte(body[nameStart:], 0)
		if nul < 0 {
			return Entry{}, 0, errAt(nameStart, ErrIndexTruncated, "long name has no terminator")
		}
		if nul < int(flagNameMask) {
			return Entry{}, 0, errAt(nameStart, ErrIndexEntryMalformed, "name of %d bytes flagged as overlong", nul)
		}
		nameLen = nul
	}

	n := paddedLen(entryFixedSize + nameLen)
	if len(body)-off < n {
		return Entry{}, 0, errAt(off, ErrIndexTruncated, "entry needs %d bytes, %d left", n, len(body)-off)
	}
	name := bytes.TrimRight(body[nameStart:off+n], "\x00")
	switch {
	case len(name) != nameLen:
		return Entry{}, 0, errAt(nameStart, ErrIndexEntryMalformed, "name is %d bytes, flags say %d", len(name), nameLen)
	case nameLen == 0:
		return Entry{}, 0, errAt(nameStart, ErrIndexEntryMalformed, "empty name")
	case bytes.IndexByte(name, 0) >= 0:
		return Entry{}, 0, errAt(nameStart, ErrIndexEntryMalformed, "name contains NUL")
	case !utf8.Valid(name):
		return Entry{}, 0, errAt(nameStart, ErrIndexEntryMalformed, "name %q is not valid UTF-8", name)
	}
	e.Name = string(name)
	return e, n, nil
}

// skipExtensions walks the extension sections between the last entry and
// the trailer. Optional extensions (signature starting with 'A'..'Z') are
// ignored; any other extension cannot be honored and is rejected.
func skipExtensions(body []byte, off int) error {
	for off < len(body) {
		if len(body)-off < 8 {
			return errAt(off, ErrIndexTruncated, "extension header needs 8 bytes, %d left", len(body)-off)
		}
		sig := body[off : off+4]
		size := binary.BigEndian.Uint32(body[off+4:])
		left := len(body) - off - 8
		if uint64(size) > uint64(left) {
			return errAt(off, ErrIndexTruncated, "extension %q declares %d bytes, %d left", sig, size, left)
		}
		if sig[0] < 'A' || sig[0] > 'Z' {
			return errAt(off, ErrIndexEntryMalformed, "unsupported required extension %q", sig)
		}
		off += 8 + int(size)
	}
	return nil
}
