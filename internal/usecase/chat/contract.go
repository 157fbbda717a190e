package chat

import (
	"context"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher returns the k chunks nearest to a query vector, best first.
type Searcher interface {
	SimilaritySearch(ctx context.Context, q []float32, k int) ([]domain.ScoredChunk, error)
}

// Generator answers a question from a context block.
type Generator interface {
	Generate(ctx context.Context, question, context string) (string, error)
}

// Guardrail screens text in one direction.
type Guardrail interface {
	Apply(ctx context.Context, dir domain.Direction, text string) (domain.Verdict, error)
}
