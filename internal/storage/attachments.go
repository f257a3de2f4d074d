package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidPath rejects stored paths that escape the attachment directory.
var ErrInvalidPath = errors.New("invalid attachment path")

// AttachmentStore keeps uploaded files on local disk under opaque names. The
// database stores the relative path; the original filename is kept separately
// for download headers.
type AttachmentStore struct {
	baseDir string
}

// NewAttachmentStore ensures the base directory exists.
func NewAttachmentStore(baseDir string) (*AttachmentStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &AttachmentStore{baseDir: baseDir}, nil
}

// Save writes the upload under a generated name and returns the relative path.
func (s *AttachmentStore) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	f, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

// FullPath resolves a stored relative path, rejecting traversal.
func (s *AttachmentStore) FullPath(relPath string) (string, error) {
	if relPath == "" || strings.Contains(relPath, "..") || strings.ContainsAny(relPath, `/\`) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, relPath), nil
}

// Remove deletes a stored file. Missing files are not an error: delete
// cascades retry-safe.
func (s *AttachmentStore) Remove(relPath string) error {
	full, err := s.FullPath(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
