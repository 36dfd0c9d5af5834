package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// ErrInvalidName is returned for document names that would escape the store root.
var ErrInvalidName = errors.New("docstore: invalid document name")

// Store persists named JSON documents under a root directory. Names may contain
// forward slashes to address sub-directories (e.g. "2026-02-23/brief.json").
type Store struct {
	dir string
}

// New constructs a store rooted at dir. The directory is created lazily on the
// first save.
func New(dir string) *Store {
	if dir == "" {
		dir = "data"
	}
	return &Store{dir: dir}
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves a document name to its file path.
func (s *Store) Path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, clean), nil
}

// Read decodes the named document into dst. Missing files surface as
// fs.ErrNotExist; malformed JSON surfaces as a decode error.
func (s *Store) Read(name string, dst any) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named document is present on disk.
func (s *Store) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save replaces the named document. The payload goes to a temp file first and
// is renamed into place.
func (s *Store) Save(name string, doc any) error {
	path, data, err := s.prepare(name, doc)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("docstore: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("docstore: rename %s: %w", name, err)
	}
	return nil
}

// Create writes a new document. It fails with an error matching fs.ErrExist
// when the name is already taken, leaving the existing file untouched.
func (s *Store) Create(name string, doc any) error {
	path, data, err := s.prepare(name, doc)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("docstore: create %s: %w", name, err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("docstore: write %s: %w", name, werr)
	}
	return nil
}

func (s *Store) prepare(name string, doc any) (string, []byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", nil, fmt.Errorf("docstore: encode %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", nil, fmt.Errorf("docstore: create dir for %s: %w", name, err)
	}
	return path, buf.Bytes(), nil
}

// Remove deletes the named document. Removing a missing document is not an error.
func (s *Store) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("docstore: remove %s: %w", name, err)
	}
	return nil
}

// List returns the sorted entry names of a sub-directory ("" for the root).
// A missing directory yields an empty list.
func (s *Store) List(sub string) ([]fs.DirEntry, error) {
	dir := s.dir
	if sub != "" {
		p, err := s.Path(sub)
		if err != nil {
			return nil, err
		}
		dir = p
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Load returns the named document, or fallback() when the file is absent or
// cannot be decoded. Neither case is an error.
func Load[T any](s *Store, name string, fallback func() T) T {
	var doc T
	err := s.Read(name, &doc)
	switch {
	case err == nil:
		return doc
	case errors.Is(err, fs.ErrNotExist):
		return fallback()
	default:
		logx.Infof("docstore: %s unreadable, starting from empty default: %v", name, err)
		return fallback()
	}
}
