package retrieval

import (
	"context"

	"github.com/relgraph/releval/core/metrics"
)

// NewEmbeddingScorer adapts an embedder into the semantic scorer contract:
// the score of two relation texts is the cosine similarity of their
// embeddings, floored at 0. Pass the result to the metrics calculator.
func NewEmbeddingScorer(embed EmbedFunc) metrics.ScoreFunc {
	return func(ctx context.Context, a, b string) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		embeddingA, err := embed(a)
		if err != nil {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		embeddingB, err := embed(b)
		if err != nil {
			return 0, err
		}

		similarity := float64(cosineSimilarity(embeddingA, embeddingB))
		if similarity < 0 {
			similarity = 0
		}
		return similarity, nil
	}
}
