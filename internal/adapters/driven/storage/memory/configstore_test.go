package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"retrieval.max_chunks": 5}
	store := NewConfigStore(seed)

	seed["retrieval.max_chunks"] = 9
	assert.Equal(t, 5, store.GetInt("retrieval.max_chunks"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"embedding.provider":  "openai",
		"embedding.batch":     int64(100),
		"retrieval.threshold": 0.7,
		"chunking.size":       1000.0,
		"worker.enabled":      true,
	})

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, 100, store.GetInt("embedding.batch"))
	assert.Equal(t, 1000, store.GetInt("chunking.size"))
	assert.InDelta(t, 0.7, store.GetFloat("retrieval.threshold"), 1e-9)
	assert.InDelta(t, 100.0, store.GetFloat("embedding.batch"), 1e-9)
	assert.True(t, store.GetBool("worker.enabled"))
}

func TestConfigStore_WrongTypeAndMissing(t *testing.T) {
	store := NewConfigStore(map[string]any{"k": "text"})

	assert.Zero(t, store.GetInt("k"))
	assert.Zero(t, store.GetFloat("k"))
	assert.False(t, store.GetBool("k"))
	assert.Empty(t, store.GetString("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_SetAndPersistNoOps(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("http.addr", ":9090"))
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())

	assert.Equal(t, ":9090", store.GetString("http.addr"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", i), i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
