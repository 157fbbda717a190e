package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbedFamily selects the request shape of an embedding model.
type EmbedFamily string

// Embedding model families.
const (
	// EmbedTitanV1 accepts only {"inputText"} and always returns 1536 floats.
	EmbedTitanV1 EmbedFamily = "titan-v1"
	// EmbedTitanV2 accepts a dimension from TitanV2Dimensions and a normalize flag.
	EmbedTitanV2 EmbedFamily = "titan-v2"
	// EmbedBedrock is any other Bedrock embedding model using {"inputText"}.
	EmbedBedrock EmbedFamily = "bedrock"
	// EmbedOpenAI is an OpenAI-compatible /embeddings endpoint.
	EmbedOpenAI EmbedFamily = "openai"
)

// TitanV1Dimensions is the fixed output size of titan-embed-text-v1.
const TitanV1Dimensions = 1536

// TitanV2Dimensions lists the output sizes titan-embed-text-v2 accepts.
var TitanV2Dimensions = []int{256, 512, 1024}

// ProviderOpenAI names the OpenAI-compatible provider in configuration.
const ProviderOpenAI = "openai"

// EmbeddingSpec is the startup-resolved embedding configuration.
type EmbeddingSpec struct {
	Family     EmbedFamily
	Model      string
	Dimensions int
	Normalize  bool
}

// ResolveEmbedding picks the model family and validates the dimensionality once.
func ResolveEmbedding(provider, model string, dims int, normalize bool) (EmbeddingSpec, error) {
	if model == "" {
		return EmbeddingSpec{}, fmt.Errorf("embedding model is required")
	}
	spec := EmbeddingSpec{Model: model, Dimensions: dims, Normalize: normalize}

	switch {
	case provider == ProviderOpenAI:
		spec.Family = EmbedOpenAI
	case strings.Contains(model, "titan-embed-text-v1"):
		spec.Family = EmbedTitanV1
		spec.Dimensions = TitanV1Dimensions
	case strings.Contains(model, "titan-embed-text-v2"):
		spec.Family = EmbedTitanV2
		if !slices.Contains(TitanV2Dimensions, dims) {
			return EmbeddingSpec{}, fmt.Errorf(
				"titan v2 supports dimensions %v only, got %d", TitanV2Dimensions, dims,
			)
		}
	default:
		spec.Family = EmbedBedrock
	}

	if spec.Dimensions <= 0 {
		return EmbeddingSpec{}, fmt.Errorf("embedding dimensions must be positive, got %d", spec.Dimensions)
	}
	return spec, nil
}
