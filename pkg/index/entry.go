package index

import (
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/object"
)

// Flag bits, high to low: assume-valid, extended, 2-bit stage, 12-bit name
// length.
const (
	FlagAssumeValid uint16 = 0x8000
	FlagExtended    uint16 = 0x4000
	flagStageMask   uint16 = 0x3000
	flagStageShift         = 12
	flagNameMask    uint16 = 0x0fff
)

// Entry is one staged file.
type Entry struct {
	CtimeSec  uint32
	CtimeNsec uint32
	MtimeSec  uint32
	MtimeNsec uint32
	Dev       uint32
	Ino       uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      uint32
	Hash      object.Hash
	Flags     uint16
	Name      string
}

// Stage returns the merge stage (0 for a normal entry).
func (e Entry) Stage() int {
	return int(e.Flags&flagStageMask) >> flagStageShift
}

// NewEntry builds a stage-0 entry for name from stat data. Fields wider than
// 32 bits are truncated the way git truncates them.
func NewEntry(name string, h object.Hash, st fsys.FileStat) Entry {
	return Entry{
		CtimeSec:  uint32(st.Ctime.Unix()),
		CtimeNsec: uint32(st.Ctime.Nanosecond()),
		MtimeSec:  uint32(st.Mtime.Unix()),
		MtimeNsec: uint32(st.Mtime.Nanosecond()),
		Dev:       uint32(st.Dev),
		Ino:       uint32(st.Ino),
		Mode:      ModeFromFileMode(st.Mode),
		UID:       st.UID,
		GID:       st.GID,
		Size:      uint32(st.Size),
		Hash:      h,
		Flags:     nameFlags(name, 0),
		Name:      name,
	}
}

// nameFlags replaces the name-length bits of flags.
func nameFlags(name string, flags uint16) uint16 {
	n := len(name)
	if n > int(flagNameMask) {
		n = int(flagNameMask)
	}
	return flags&^flagNameMask | uint16(n)
}

// ModeFromFileMode maps a filesystem mode to the git modes an index entry
// may carry: symlink, executable file or regular file.
func ModeFromFileMode(m fs.FileMode) uint32 {
	switch {
	case m&fs.ModeSymlink != 0:
		return object.ModeSymlink
	case m.Perm()&0o111 != 0:
		return object.ModeExecutable
	default:
		return object.ModeFile
	}
}

// ValidatePath checks that p is a clean repository-relative path with
// forward slashes.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if !utf8.ValidString(p) || strings.ContainsRune(p, 0) {
		return fmt.Errorf("%w %q: not valid path text", ErrInvalidPath, p)
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w %q: absolute", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("%w %q: empty, '.' or '..' segment", ErrInvalidPath, p)
		}
	}
	return nil
}
