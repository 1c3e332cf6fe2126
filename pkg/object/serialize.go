package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Encode returns the canonical bytes of o. The digest of o is the SHA-1 of
// exactly these bytes.
func Encode(o Object) []byte {
	switch v := o.(type) {
	case *Blob:
		return MarshalBlob(v)
	case *Tree:
		return MarshalTree(v)
	case *Commit:
		return MarshalCommit(v)
	}
	panic(fmt.Sprintf("object: Encode of unsupported type %T", o))
}

// Decode parses canonical bytes of the given kind.
func Decode(t ObjectType, data []byte) (Object, error) {
	switch t {
	case TypeBlob:
		return UnmarshalBlob(data)
	case TypeTree:
		return UnmarshalTree(data)
	case TypeCommit:
		return UnmarshalCommit(data)
	}
	return nil, fmt.Errorf("decode: unknown object type %q", t)
}

// DecodeCanonical decodes data and checks that re-encoding reproduces it
// byte for byte, so data is the only encoding of its object.
func DecodeCanonical(t ObjectType, data []byte) (Object, error) {
	o, err := Decode(t, data)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(Encode(o), data) {
		return o, nil
	}
	sentinel := ErrMalformedTree
	if t == TypeCommit {
		sentinel = ErrMalformedCommit
	}
	return nil, fmt.Errorf("%w: not in canonical form", sentinel)
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree. Entries are sorted by Name for
// deterministic output. Each entry is:
//
//	<octal mode> <name>\x00<20 raw digest bytes>
//
// Directory modes are written without a leading zero ("40000").
func MarshalTree(tr *Tree) []byte {
	sorted := sortedEntries(tr.Entries)

	var buf bytes.Buffer
	for _, e := range sorted {
		buf.WriteString(strconv.FormatUint(uint64(e.Mode), 8))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes()
}

func sortedEntries(entries []TreeEntry) []TreeEntry {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// UnmarshalTree parses a Tree from its serialized form. Entries must be
// strictly ascending by name.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	prev := ""
	for off := 0; off < len(data); {
		sp := bytes.IndexByte(data[off:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: entry at offset %d: missing mode separator", ErrMalformedTree, off)
		}
		mode, err := strconv.ParseUint(string(data[off:off+sp]), 8, 32)
		if err != nil || sp == 0 {
			return nil, fmt.Errorf("%w: entry at offset %d: bad mode %q", ErrMalformedTree, off, data[off:off+sp])
		}
		nameStart := off + sp + 1
		nul := bytes.IndexByte(data[nameStart:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: entry at offset %d: missing name terminator", ErrMalformedTree, off)
		}
		name := string(data[nameStart : nameStart+nul])
		if err := validateEntryName(name); err != nil {
			return nil, fmt.Errorf("%w: entry at offset %d: %v", ErrMalformedTree, off, err)
		}
		digestStart := nameStart + nul + 1
		if len(data)-digestStart < HashSize {
			return nil, fmt.Errorf("%w: entry %q: digest has %d bytes, want %d", ErrMalformedTree, name, len(data)-digestStart, HashSize)
		}
		if len(tr.Entries) > 0 && name <= prev {
			return nil, fmt.Errorf("%w: entry %q is not after %q", ErrMalformedTree, name, prev)
		}

		var h Hash
		copy(h[:], data[digestStart:digestStart+HashSize])
		tr.Entries = append(tr.Entries, TreeEntry{Name: name, Mode: uint32(mode), Hash: h})
		prev = name
		off = digestStart + HashSize
	}
	return tr, nil
}

func validateEntryName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("reserved name %q", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("name %q contains a separator", name)
	}
	return nil
}

// Validate reports entries that would encode to a tree UnmarshalTree
// rejects: invalid names or duplicates.
func (tr *Tree) Validate() error {
	sorted := sortedEntries(tr.Entries)
	for i, e := range sorted {
		if err := validateEntryName(e.Name); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedTree, err)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return fmt.Errorf("%w: duplicate entry %q", ErrMalformedTree, e.Name)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H       (optional)
//	author A
//	committer C
//	signature S    (optional)
//
//	message
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	if c.Parent != nil {
		fmt.Fprintf(&buf, "parent %s\n", *c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if c.Signature != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a Commit from its serialized form.
func UnmarshalCommit(data []byte) (*Commit, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing header/message separator", ErrMalformedCommit)
	}
	header := string(data[:idx])
	c := &Commit{Message: string(data[idx+2:])}

	var haveTree, haveAuthor, haveCommitter bool
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed header line %q", ErrMalformedCommit, line)
		}
		switch key {
		case "tree":
			if haveTree {
				return nil, fmt.Errorf("%w: duplicate tree header", ErrMalformedCommit)
			}
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("%w: tree: %v", ErrMalformedCommit, err)
			}
			c.Tree = h
			haveTree = true
		case "parent":
			if c.Parent != nil {
				return nil, fmt.Errorf("%w: more than one parent", ErrMalformedCommit)
			}
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("%w: parent: %v", ErrMalformedCommit, err)
			}
			c.Parent = &h
		case "author":
			id, err := ParseIdentity(val)
			if err != nil {
				return nil, fmt.Errorf("%w: author: %v", ErrMalformedCommit, err)
			}
			c.Author = id
			haveAuthor = true
		case "committer":
			id, err := ParseIdentity(val)
			if err != nil {
				return nil, fmt.Errorf("%w: committer: %v", ErrMalformedCommit, err)
			}
			c.Committer = id
			haveCommitter = true
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("%w: unknown header key %q", ErrMalformedCommit, key)
		}
	}
	if !haveTree {
		return nil, fmt.Errorf("%w: missing tree header", ErrMalformedCommit)
	}
	if !haveAuthor || !haveCommitter {
		return nil, fmt.Errorf("%w: missing author or committer", ErrMalformedCommit)
	}
	return c, nil
}

// Validate reports commits whose fields cannot round-trip through
// MarshalCommit.
func (c *Commit) Validate() error {
	for _, id := range []struct {
		role string
		id   Identity
	}{{"author", c.Author}, {"committer", c.Committer}} {
		if err := id.id.validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedCommit, id.role, err)
		}
	}
	if strings.Contains(c.Signature, "\n") {
		return fmt.Errorf("%w: signature spans multiple lines", ErrMalformedCommit)
	}
	return nil
}

// String renders the identity as it appears in commit headers.
func (id Identity) String() string {
	return fmt.Sprintf("%s <%s> %d %s", id.Name, id.Email, id.When, id.TZ)
}

func (id Identity) validate() error {
	if strings.ContainsAny(id.Name, "<>\n") || strings.ContainsAny(id.Email, "<>\n") {
		return fmt.Errorf("name or email contains '<', '>' or newline")
	}
	if !validTZ(id.TZ) {
		return fmt.Errorf("bad timezone %q", id.TZ)
	}
	if !utf8.ValidString(id.Name) {
		return fmt.Errorf("name is not valid UTF-8")
	}
	return nil
}

// ParseIdentity parses "Name <email> unix-seconds tz".
func ParseIdentity(s string) (Identity, error) {
	lt := strings.IndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < lt {
		return Identity{}, fmt.Errorf("identity %q: missing <email>", s)
	}
	name := strings.TrimSuffix(s[:lt], " ")
	email := s[lt+1 : gt]
	rest := strings.Fields(s[gt+1:])
	if len(rest) != 2 {
		return Identity{}, fmt.Errorf("identity %q: want timestamp and timezone", s)
	}
	when, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("identity %q: bad timestamp: %v", s, err)
	}
	if !validTZ(rest[1]) {
		return Identity{}, fmt.Errorf("identity %q: bad timezone %q", s, rest[1])
	}
	return Identity{Name: name, Email: email, When: when, TZ: rest[1]}, nil
}

func validTZ(tz string) bool {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return false
	}
	for _, c := range tz[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
