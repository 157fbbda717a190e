package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

// Embedder calls a Bedrock embedding model.
type Embedder struct {
	api    InvokeAPI
	spec   domain.EmbeddingSpec
	logger *zap.Logger
}

// NewEmbedder creates a Bedrock embedder for a resolved spec.
func NewEmbedder(api InvokeAPI, spec domain.EmbeddingSpec, logger *zap.Logger) *Embedder {
	return &Embedder{api: api, spec: spec, logger: logger}
}

type embedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  *bool  `json:"normalize,omitempty"`
}

type embedResponse struct {
	Embedding        []float32 `json:"embedding"`
	EmbeddingsByType struct {
		Float []float32 `json:"float"`
	} `json:"embeddingsByType"`
	InputTextTokenCount int `json:"inputTextTokenCount"`
}

func (e *Embedder) payload(text string) ([]byte, error) {
	req := embedRequest{InputText: text}
	if e.spec.Family == domain.EmbedTitanV2 {
		normalize := e.spec.Normalize
		req.Dimensions = e.spec.Dimensions
		req.Normalize = &normalize
	}
	return json.Marshal(req) //nolint:wrapcheck // plain struct, cannot fail
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	model := e.spec.Model
	body, err := e.payload(text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("encode embedding request: %w", err)
	}

	start := time.Now()
	raw, err := invokeJSON(ctx, e.api, model, body)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, errorCode(err)).Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("embedding %s: %w: %w", model, domain.ErrEmbeddingProviderError, err)
	}

	var resp embedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, "decode").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("decode embedding response: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	vec := resp.Embedding
	if len(vec) == 0 {
		vec = resp.EmbeddingsByType.Float
	}
	if len(vec) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, "missing_vector").Inc()
		return domain.EmbeddingResult{}, domain.ErrMissingVector
	}
	if err := domain.CheckDimensions(vec, e.spec.Dimensions); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, model, "dimension_mismatch").Inc()
		return domain.EmbeddingResult{}, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerLabel, model).Observe(duration.Seconds())
	if resp.InputTextTokenCount > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(providerLabel, model).Add(float64(resp.InputTextTokenCount))
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.InputTextTokenCount,
		TotalTokens:  resp.InputTextTokenCount,
	}, nil
}
