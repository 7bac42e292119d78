package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func TestFileStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore()

	content := []byte("lecture notes")
	path, err := store.Put(ctx, "doc-1/notes.txt", content)
	require.NoError(t, err)

	content[0] = 'L'
	got, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "lecture notes", string(got))

	require.NoError(t, store.Delete(ctx, path))
	_, err = store.Get(ctx, path)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, path), "deleting twice is fine")
}

func TestFileStore_EmptyName(t *testing.T) {
	_, err := NewFileStore().Put(context.Background(), "", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
