package memory

import (
	"context"
	"sync"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string][]byte),
	}
}

// Put stores a copy of content. The storage path is the name itself.
func (s *FileStore) Put(_ context.Context, name string, content []byte) (string, error) {
	if name == "" {
		return "", domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), content...)
	return name, nil
}

// Get returns a copy of the stored content.
func (s *FileStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

// Delete removes the content at path.
func (s *FileStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}
