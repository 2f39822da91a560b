// Package uploads stores user-supplied images on the local filesystem.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for files that are not JPEG or PNG images.
	ErrUnsupportedType = errors.New("images only: jpg and png are allowed")
	// ErrTooLarge is returned for files over MaxSize.
	ErrTooLarge = errors.New("images are limited to 5 MiB")
	// ErrNotFound is returned for unknown or malformed references.
	ErrNotFound = errors.New("upload not found")
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// MaxSize is the largest accepted upload.
const MaxSize = 5 << 20

// Store persists uploads under a base directory.
type Store struct {
	basePath string
}

// New creates a Store, ensuring the base directory exists.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save writes r to a new file and returns its reference. The client's
// filename only contributes its extension.
func (s *Store) Save(filename string, r io.Reader) (ref string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}

	ref = uuid.New().String() + ext
	path := filepath.Join(s.basePath, ref)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close upload: %w", cerr)
		}
		if err != nil {
			os.Remove(path) // Clean up partial file
			ref = ""
		}
	}()

	n, err := io.Copy(f, io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > MaxSize {
		return "", ErrTooLarge
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("flush upload: %w", err)
	}
	return ref, nil
}

// resolve maps a reference to the file on disk.
func (s *Store) resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.Contains(ref, "..") || strings.ContainsAny(ref, `/\`) {
		return "", ErrNotFound
	}
	if !allowedExt[strings.ToLower(filepath.Ext(ref))] {
		return "", ErrNotFound
	}
	path := filepath.Join(s.basePath, ref)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Remove deletes an upload. Removing an unknown reference is not an error.
func (s *Store) Remove(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return nil
	}
	return os.Remove(path)
}

// Open opens the upload named by ref for reading.
func (s *Store) Open(ref string) (*os.File, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
