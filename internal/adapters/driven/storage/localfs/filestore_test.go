package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func TestFileStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)

	path, err := store.Put(ctx, "doc-1/notes.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1/notes.pdf", path)

	_, err = os.Stat(filepath.Join(root, "doc-1", "notes.pdf"))
	require.NoError(t, err)

	data, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	require.NoError(t, store.Delete(ctx, path))
	_, err = store.Get(ctx, path)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = os.Stat(filepath.Join(root, "doc-1"))
	assert.True(t, os.IsNotExist(err), "empty document dir is removed")

	assert.NoError(t, store.Delete(ctx, path), "deleting twice is fine")
}

func TestFileStore_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		_, err := store.Put(ctx, name, []byte("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}
