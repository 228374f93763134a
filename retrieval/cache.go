package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
)

// ContentHash returns the SHA-256 hex digest of a text. Cache keys are
// content hashes so a changed text never reuses a stale embedding.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// EmbeddingStore persists embeddings keyed by content hash. GetEmbedding
// returns nil without error on a cache miss.
type EmbeddingStore interface {
	GetEmbedding(contentHash string) ([]float32, error)
	PutEmbedding(contentHash string, text string, embedding []float32) error
}

// MemoryStore is a process-local EmbeddingStore
type MemoryStore struct {
	mu         sync.RWMutex
	embeddings map[string][]float32
}

// NewMemoryStore creates an empty in-memory embedding store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{embeddings: map[string][]float32{}}
}

func (s *MemoryStore) GetEmbedding(contentHash string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddings[contentHash], nil
}

func (s *MemoryStore) PutEmbedding(contentHash string, text string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[contentHash] = embedding
	return nil
}

// CachedEmbedder wraps an embedder with a content-hash cache. Store failures
// are logged and fall through to the underlying embedder, so a broken cache
// degrades to recomputation rather than an error.
func CachedEmbedder(embed EmbedFunc, store EmbeddingStore, logger *slog.Logger) EmbedFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(text string) ([]float32, error) {
		hash := ContentHash(text)

		cached, err := store.GetEmbedding(hash)
		if err != nil {
			logger.Warn("embedding cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}

		embedding, err := embed(text)
		if err != nil {
			return nil, err
		}

		if err := store.PutEmbedding(hash, text, embedding); err != nil {
			logger.Warn("embedding cache write failed", slog.Any("error", err))
		}
		return embedding, nil
	}
}
