package retrieval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) GetEmbedding(contentHash string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) PutEmbedding(contentHash string, text string, embedding []float32) error {
	return errors.New("connection refused")
}

func TestContentHash(t *testing.T) {
	t.Run("Same text hashes identically", func(t *testing.T) {
		assert.Equal(t, ContentHash("aspirin"), ContentHash("aspirin"), "Expected deterministic hash")
	})

	t.Run("Different texts hash differently", func(t *testing.T) {
		assert.NotEqual(t, ContentHash("aspirin"), ContentHash("Aspirin"), "Expected content-sensitive hash")
	})

	t.Run("Hash is hex encoded SHA-256", func(t *testing.T) {
		assert.Len(t, ContentHash(""), 64, "Expected 64 hex characters")
	})
}

func TestCachedEmbedder(t *testing.T) {
	t.Run("Second embedding of the same text hits the cache", func(t *testing.T) {
		calls := 0
		counting := func(text string) ([]float32, error) {
			calls++
			return fakeEmbed(text)
		}
		embed := CachedEmbedder(counting, NewMemoryStore(), nil)

		first, err := embed("aspirin headache")
		require.NoError(t, err)
		second, err := embed("aspirin headache")
		require.NoError(t, err)

		assert.Equal(t, 1, calls, "Expected a single underlying embedding call")
		assert.Equal(t, first, second, "Expected identical cached embedding")
	})

	t.Run("Distinct texts are embedded separately", func(t *testing.T) {
		calls := 0
		counting := func(text string) ([]float32, error) {
			calls++
			return fakeEmbed(text)
		}
		embed := CachedEmbedder(counting, NewMemoryStore(), nil)

		_, err := embed("aspirin")
		require.NoError(t, err)
		_, err = embed("insulin")
		require.NoError(t, err)

		assert.Equal(t, 2, calls, "Expected one call per distinct text")
	})

	t.Run("Broken store degrades to recomputation", func(t *testing.T) {
		calls := 0
		counting := func(text string) ([]float32, error) {
			calls++
			return fakeEmbed(text)
		}
		embed := CachedEmbedder(counting, failingStore{}, nil)

		_, err := embed("aspirin")
		require.NoError(t, err, "Expected store failure not to surface")
		_, err = embed("aspirin")
		require.NoError(t, err)

		assert.Equal(t, 2, calls, "Expected recomputation when the store is down")
	})

	t.Run("Embedder errors propagate", func(t *testing.T) {
		broken := func(text string) ([]float32, error) {
			return nil, errors.New("model not loaded")
		}
		embed := CachedEmbedder(broken, NewMemoryStore(), nil)

		_, err := embed("aspirin")
		assert.Error(t, err, "Expected embedder failure to surface")
	})
}
