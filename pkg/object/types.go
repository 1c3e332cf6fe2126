package object

import "fmt"

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// ParseObjectType maps an envelope or command-line type name to an
// ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case TypeBlob, TypeTree, TypeCommit:
		return ObjectType(s), nil
	}
	return "", fmt.Errorf("unknown object type %q", s)
}

// Git-compatible tree entry modes.
const (
	ModeDir        uint32 = 0o040000
	ModeFile       uint32 = 0o100644
	ModeExecutable uint32 = 0o100755
	ModeSymlink    uint32 = 0o120000
	ModeGitlink    uint32 = 0o160000
)

// Object is implemented by *Blob, *Tree and *Commit.
type Object interface {
	Type() ObjectType
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

func (*Blob) Type() ObjectType { return TypeBlob }

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Name string
	Mode uint32
	Hash Hash
}

// IsDir reports whether the entry names a subtree.
func (e TreeEntry) IsDir() bool { return e.Mode == ModeDir }

// Tree is a directory listing. Entries are encoded sorted by Name regardless
// of the order they are held in.
type Tree struct {
	Entries []TreeEntry
}

func (*Tree) Type() ObjectType { return TypeTree }

// Identity is an author or committer line: "Name <email> unix-seconds tz".
type Identity struct {
	Name  string
	Email string
	When  int64
	TZ    string // "+hhmm" or "-hhmm"
}

// Commit records a tree snapshot with at most one parent.
type Commit struct {
	Tree      Hash
	Parent    *Hash
	Author    Identity
	Committer Identity
	Signature string
	Message   string
}

func (*Commit) Type() ObjectType { return TypeCommit }
