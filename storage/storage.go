// Package storage abstracts the blob store holding certificate artifacts
// and backup files. The default implementation writes to local disk and
// serves files through the app's static route; a remote object store can
// be dropped in behind the same interface.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrBlobNotFound is returned when a requested path does not exist.
var ErrBlobNotFound = errors.New("storage: blob not found")

// BlobStore is the external artifact store collaborator. Failures are
// surfaced to the caller; nothing is retried internally.
type BlobStore interface {
	Put(path string, data []byte) (string, error)
	Get(path string) ([]byte, error)
	Delete(path string) error
}

// LocalStore persists blobs under a root directory on disk.
type LocalStore struct {
	rootDir string
	baseURL string
}

// NewLocalStore creates a disk-backed store rooted at rootDir. Returned
// URLs are baseURL + "/" + path.
func NewLocalStore(rootDir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("storage: create root dir: %w", err)
	}
	return &LocalStore{rootDir: rootDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) fullPath(path string) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(path))
}

// Put writes data at path, creating parent directories as needed, and
// returns the retrievable URL.
func (s *LocalStore) Put(path string, data []byte) (string, error) {
	full := s.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("storage: write blob: %w", err)
	}
	return s.baseURL + "/" + path, nil
}

// Get reads the blob at path.
func (s *LocalStore) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("storage: read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob at path. Deleting a missing blob is an error
// so housekeeping can report it.
func (s *LocalStore) Delete(path string) error {
	err := os.Remove(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("storage: delete blob: %w", err)
	}
	return nil
}
