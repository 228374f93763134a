package model

import "time"

// EvalConfig represents configuration for an evaluation run
type EvalConfig struct {
	// Primary matching policy for the reported precision/recall/F1
	Policy MatchPolicy `json:"policy"`

	// Resolver parameters
	FuzzyThreshold float64 `json:"fuzzy_threshold"`
	AcronymMaxLen  int     `json:"acronym_max_len"`

	// Semantic scorer
	ScorerTimeout time.Duration `json:"scorer_timeout"`

	// Parallelism across documents
	Workers int `json:"workers"`

	// Passages retrieved per document for the RAG technique
	RAGTopK int `json:"rag_top_k"`
}

// DefaultEvalConfig returns a sensible default configuration
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Policy:         PolicyExact,
		FuzzyThreshold: 0.85,
		AcronymMaxLen:  6,
		ScorerTimeout:  30 * time.Second,
		Workers:        4,
		RAGTopK:        5,
	}
}
