package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/odvcencio/twig/pkg/fsys"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	fs       fsys.FS
	root     string
	compress bool
	logger   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCompression toggles zstd compression of newly written objects.
// Reading handles both forms regardless of this setting.
func WithCompression(on bool) StoreOption {
	return func(s *Store) { s.compress = on }
}

// WithLogger sets the logger used for debug records.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write. Compression is on by
// default.
func NewStore(fs fsys.FS, root string, opts ...StoreOption) *Store {
	s := &Store{
		fs:       fs,
		root:     root,
		compress: true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	hx := h.String()
	return filepath.Join(s.objectsDir(), hx[:2], hx[2:])
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := s.fs.Stat(s.objectPath(h))
	return err == nil
}

// validator is implemented by objects whose fields can be rejected before
// encoding.
type validator interface {
	Validate() error
}

// Write encodes o and stores it, returning its digest.
func (s *Store) Write(o Object) (Hash, error) {
	if v, ok := o.(validator); ok {
		if err := v.Validate(); err != nil {
			return ZeroHash, &Error{Op: "write", Err: err}
		}
	}
	return s.writeEncoded(o.Type(), Encode(o))
}

// WriteRaw stores bytes of the given type. Trees and commits must be in
// canonical form, so a logical object has exactly one digest. Writing a
// digest that already exists is a no-op.
func (s *Store) WriteRaw(objType ObjectType, data []byte) (Hash, error) {
	if _, err := ParseObjectType(string(objType)); err != nil {
		return ZeroHash, &Error{Op: "write", Err: err}
	}
	if _, err := DecodeCanonical(objType, data); err != nil {
		return ZeroHash, &Error{Op: "write", Err: err}
	}
	return s.writeEncoded(objType, data)
}

// writeEncoded stores canonical bytes. New objects are written to a temp
// file and renamed into place, so concurrent writers of the same digest
// are safe.
func (s *Store) writeEncoded(objType ObjectType, data []byte) (Hash, error) {
	h := HashBytes(data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Dir(s.objectPath(h))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return ZeroHash, &Error{Op: "write", Hash: h, Err: err}
	}

	raw := makeObjectEnvelope(objType, data)
	if s.compress {
		var err error
		if raw, err = compressZstd(raw); err != nil {
			return ZeroHash, &Error{Op: "write", Hash: h, Err: fmt.Errorf("compress: %w", err)}
		}
	}
	if err := s.fs.WriteAtomic(s.objectPath(h), raw, 0o444); err != nil {
		return ZeroHash, &Error{Op: "write", Hash: h, Err: err}
	}

	s.logger.Debug("wrote object", "hash", h.String(), "type", string(objType), "size", len(data))
	return h, nil
}

func makeObjectEnvelope(objType ObjectType, data []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	raw := make([]byte, 0, len(header)+len(data))
	raw = append(raw, header...)
	return append(raw, data...)
}

// ReadRaw retrieves an object by hash, returning its type and canonical
// bytes. The content is re-hashed on every read.
func (s *Store) ReadRaw(h Hash) (ObjectType, []byte, error) {
	stored, err := s.fs.ReadFile(s.objectPath(h))
	if err != nil {
		if fsys.IsNotExist(err) {
			return "", nil, &Error{Op: "read", Hash: h, Err: ErrObjectNotFound}
		}
		return "", nil, &Error{Op: "read", Hash: h, Err: err}
	}

	raw, err := inflate(stored)
	if err != nil {
		return "", nil, corrupt(h, "decompress: %v", err)
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corrupt(h, "invalid format (no NUL)")
	}
	typeName, lenText, ok := bytes.Cut(raw[:nulIdx], []byte(" "))
	if !ok {
		return "", nil, corrupt(h, "invalid header %q", raw[:nulIdx])
	}
	objType, err := ParseObjectType(string(typeName))
	if err != nil {
		return "", nil, corrupt(h, "%v", err)
	}
	length, err := strconv.Atoi(string(lenText))
	if err != nil {
		return "", nil, corrupt(h, "invalid length %q", lenText)
	}
	content := raw[nulIdx+1:]
	if len(content) != length {
		return "", nil, corrupt(h, "length mismatch (header=%d, actual=%d)", length, len(content))
	}
	if actual := HashBytes(content); actual != h {
		return "", nil, corrupt(h, "hash mismatch (computed %s)", actual)
	}
	return objType, content, nil
}

func corrupt(h Hash, format string, args ...any) error {
	return &Error{Op: "read", Hash: h, Err: fmt.Errorf("%w: "+format, append([]any{ErrObjectCorrupt}, args...)...)}
}

// Read retrieves and decodes an object.
func (s *Store) Read(h Hash) (Object, error) {
	objType, data, err := s.ReadRaw(h)
	if err != nil {
		return nil, err
	}
	o, err := Decode(objType, data)
	if err != nil {
		return nil, &Error{Op: "read", Hash: h, Err: err}
	}
	return o, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(b)
}

// WriteTree serializes and stores a Tree.
func (s *Store) WriteTree(tr *Tree) (Hash, error) {
	return s.Write(tr)
}

// WriteCommit serializes and stores a Commit.
func (s *Store) WriteCommit(c *Commit) (Hash, error) {
	return s.Write(c)
}

func (s *Store) readTyped(h Hash, want ObjectType) (Object, error) {
	objType, data, err := s.ReadRaw(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, &Error{Op: "read", Hash: h, Err: fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, objType, want)}
	}
	o, err := Decode(objType, data)
	if err != nil {
		return nil, &Error{Op: "read", Hash: h, Err: err}
	}
	return o, nil
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	o, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return o.(*Blob), nil
}

// ReadTree reads and deserializes a Tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	o, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	return o.(*Tree), nil
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	o, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	return o.(*Commit), nil
}

// ---------------------------------------------------------------------------
// Enumeration and verification
// ---------------------------------------------------------------------------

// List returns the digests of all stored objects in ascending order.
// Temp files and foreign names in the objects directory are ignored.
func (s *Store) List() ([]Hash, error) {
	fanoutDirs, err := s.fs.ReadDir(s.objectsDir())
	if err != nil {
		if fsys.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read objects dir: %w", err)
	}

	var hashes []Hash
	for _, fanoutDir := range fanoutDirs {
		if !fanoutDir.IsDir || !isHexHashComponent(fanoutDir.Name, 2) {
			continue
		}
		prefix := fanoutDir.Name
		objectEntries, err := s.fs.ReadDir(filepath.Join(s.objectsDir(), prefix))
		if err != nil {
			return nil, fmt.Errorf("read objects fanout %s: %w", prefix, err)
		}
		for _, objectEntry := range objectEntries {
			if objectEntry.IsDir || !isHexHashComponent(objectEntry.Name, 2*HashSize-2) {
				continue
			}
			h, err := ParseHash(prefix + objectEntry.Name)
			if err != nil {
				continue
			}
			hashes = append(hashes, h)
		}
	}

	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return hashes, nil
}

func isHexHashComponent(s string, expectedLen int) bool {
	if len(s) != expectedLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && s == lowerHex(s)
}

func lowerHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'F' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	Objects int
	Blobs   int
	Trees   int
	Commits int
}

// Verify re-reads and decodes every stored object. The first corrupt or
// undecodable object aborts the walk.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}
	report := &VerifySummary{}
	for _, h := range hashes {
		o, err := s.Read(h)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		switch o.Type() {
		case TypeBlob:
			report.Blobs++
		case TypeTree:
			report.Trees++
		case TypeCommit:
			report.Commits++
		}
		report.Objects++
	}
	return report, nil
}
