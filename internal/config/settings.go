package config

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// Settings is the immutable, startup-resolved view of Config consumed by the pipelines.
type Settings struct {
	Embedding  domain.EmbeddingSpec
	Generation domain.GenerationSpec

	GuardrailID      string
	GuardrailVersion string

	ChunkSize    int
	ChunkOverlap int

	DefaultTopK            int
	DefaultMaxContextChars int
	DefaultMaxFiles        int
	PruneStaleChunks       bool

	CacheTTL time.Duration
}

// Resolve derives model families and validates model-specific constraints once.
func (c Config) Resolve() (Settings, error) {
	emb, err := domain.ResolveEmbedding(
		c.Embedding.Provider, c.Embedding.Model, c.Embedding.Dimensions, boolOr(c.Embedding.Normalize, true),
	)
	if err != nil {
		return Settings{}, fmt.Errorf("embedding: %w", err)
	}

	temperature := float32(0.2)
	if c.Generation.Temperature != nil {
		temperature = *c.Generation.Temperature
	}
	gen, err := domain.ResolveGeneration(c.Generation.Provider, c.Generation.Model, c.Generation.MaxTokens, temperature)
	if err != nil {
		return Settings{}, fmt.Errorf("generation: %w", err)
	}

	if c.Chunking.Size <= 0 {
		return Settings{}, fmt.Errorf("chunking.size must be > 0, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return Settings{}, fmt.Errorf("chunking.overlap must be >= 0, got %d", c.Chunking.Overlap)
	}

	return Settings{
		Embedding:              emb,
		Generation:             gen,
		GuardrailID:            c.Guardrail.ID,
		GuardrailVersion:       c.Guardrail.Version,
		ChunkSize:              c.Chunking.Size,
		ChunkOverlap:           c.Chunking.Overlap,
		DefaultTopK:            c.Retrieval.TopK,
		DefaultMaxContextChars: c.Retrieval.MaxContextChars,
		DefaultMaxFiles:        c.Ingest.MaxFiles,
		PruneStaleChunks:       c.Ingest.PruneStaleChunks,
		CacheTTL:               time.Duration(c.Cache.TTLSec) * time.Second,
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
