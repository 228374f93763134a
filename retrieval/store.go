package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
)

// queryPrefixLen bounds how much of a document is used as the search query
const queryPrefixLen = 500

// passageMaxLen caps how much of a passage is rendered into the prompt
const passageMaxLen = 500

// SearchResult is one ranked passage from the vector store
type SearchResult struct {
	DocID      string  `json:"doc_id"`
	Text       string  `json:"text"`
	Similarity float32 `json:"similarity"`
}

type passageEntry struct {
	docID     string
	text      string
	embedding []float32
}

// VectorStore is an in-memory passage index over embedded documents. It
// implements the retriever contract used by retrieval-augmented prompting.
// Safe for concurrent searches; AddDocument must not race with Search.
type VectorStore struct {
	embed   EmbedFunc
	mu      sync.RWMutex
	entries []passageEntry
}

// NewVectorStore creates a vector store over the given embedder. The
// embedder is typically wrapped with CachedEmbedder first.
func NewVectorStore(embed EmbedFunc) (*VectorStore, error) {
	if embed == nil {
		return nil, helper.NewError("NewVectorStore", fmt.Errorf("embedder must not be nil"))
	}
	return &VectorStore{embed: embed}, nil
}

// AddDocument splits a document into paragraph passages and embeds each one
func (s *VectorStore) AddDocument(doc model.Document) error {
	for _, passage := range splitPassages(doc.Text) {
		embedding, err := s.embed(passage)
		if err != nil {
			return helper.NewError("AddDocument embed passage", err)
		}
		s.mu.Lock()
		s.entries = append(s.entries, passageEntry{docID: doc.DocID, text: passage, embedding: embedding})
		s.mu.Unlock()
	}
	return nil
}

// Len returns the number of indexed passages
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Search returns the topK passages ranked by cosine similarity to the query
func (s *VectorStore) Search(query string, topK int) ([]SearchResult, error) {
	if topK < 1 {
		return nil, nil
	}

	queryEmbedding, err := s.embed(query)
	if err != nil {
		return nil, helper.NewError("Search embed query", err)
	}

	s.mu.RLock()
	results := make([]SearchResult, 0, len(s.entries))
	for _, entry := range s.entries {
		results = append(results, SearchResult{
			DocID:      entry.docID,
			Text:       entry.text,
			Similarity: cosineSimilarity(queryEmbedding, entry.embedding),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// RetrieveContext searches with a bounded query prefix and formats the top
// passages for prompt embedding.
func (s *VectorStore) RetrieveContext(ctx context.Context, query string, topK int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(query) > queryPrefixLen {
		query = query[:queryPrefixLen]
	}

	results, err := s.Search(query, topK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, result := range results {
		text := result.Text
		if len(text) > passageMaxLen {
			text = text[:passageMaxLen] + "..."
		}
		fmt.Fprintf(&b, "[Context %d] (Similarity: %.3f)\n%s\n\n", i+1, result.Similarity, text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// splitPassages breaks a text into non-empty paragraph blocks
func splitPassages(text string) []string {
	var passages []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			passages = append(passages, block)
		}
	}
	return passages
}
