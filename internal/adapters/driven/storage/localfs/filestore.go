// Package localfs stores uploaded files on the local filesystem.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore keeps files under a root directory. Storage paths are
// slash-separated and relative to the root.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Put writes content to name. The write goes through a temp file so a
// crash never leaves a partial upload behind.
func (s *FileStore) Put(_ context.Context, name string, content []byte) (string, error) {
	full, rel, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("rename file: %w", err)
	}
	return rel, nil
}

// Get reads the file at path.
func (s *FileStore) Get(_ context.Context, path string) ([]byte, error) {
	full, _, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes the file at path and its directory when empty.
// A missing file is not an error.
func (s *FileStore) Delete(_ context.Context, path string) error {
	full, _, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	if dir := filepath.Dir(full); dir != s.root {
		_ = os.Remove(dir) // only succeeds when empty
	}
	return nil
}

// Root returns the root directory.
func (s *FileStore) Root() string {
	return s.root
}

// resolve maps a storage path to an absolute path inside the root.
func (s *FileStore) resolve(name string) (full, rel string, err error) {
	rel = filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if name == "" || rel == "." || filepath.IsAbs(name) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", fmt.Errorf("%w: storage path %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), rel, nil
}
