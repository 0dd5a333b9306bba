package fragment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	serrors "github.com/conneroisu/splice/internal/errors"
)

// Store reads fragment content from storage.
type Store interface {
	// Read returns the content of the fragment at path. A missing path
	// fails with an error matching errors.ErrFragmentNotFound.
	Read(path string) (string, error)
	// Exists reports whether path names a readable fragment file.
	Exists(path string) bool
}

// FileStore is a Store backed by an afero filesystem.
type FileStore struct {
	fs afero.Fs
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store over fs. A nil fs means the OS filesystem.
func NewFileStore(fs afero.Fs) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{fs: fs}
}

// Fs returns the underlying filesystem.
func (s *FileStore) Fs() afero.Fs {
	return s.fs
}

// Read implements Store.
func (s *FileStore) Read(path string) (string, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", serrors.NewFragmentNotFound(path, err)
		}
		return "", fmt.Errorf("stat fragment %s: %w", path, err)
	}
	if info.IsDir() {
		return "", serrors.NewFragmentNotFound(path, fmt.Errorf("is a directory"))
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", serrors.NewFragmentNotFound(path, err)
		}
		return "", fmt.Errorf("read fragment %s: %w", path, err)
	}

	return string(data), nil
}

// Exists implements Store.
func (s *FileStore) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureDirs creates every missing directory in dirs. Existing directories
// and their contents are left alone.
func (s *FileStore) EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Clean returns the cleaned absolute form of path. Names keep the bytes they
// were given, so the result can be used to read storage that compares names
// byte for byte.
func Clean(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return abs, nil
}

// Key returns the identity of a cleaned path used by Cache and Guard: its NFC
// form, so decomposed and composed spellings of a name are the same fragment.
func Key(path string) string {
	return norm.NFC.String(path)
}
