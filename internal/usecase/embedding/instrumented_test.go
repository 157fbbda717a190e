package embedding

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 4,
	}}
	p := NewInstrumentedEmbedder(inner, "bedrock", "amazon.titan-embed-text-v2:0", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(result.Embedding))
	}
	if result.TotalTokens != 4 {
		t.Errorf("expected tokens to pass through, got %d", result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_ErrorKeepsSentinel(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrMissingVector}
	p := NewInstrumentedEmbedder(inner, "bedrock", "m", zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrMissingVector) {
		t.Fatalf("expected ErrMissingVector, got %v", err)
	}
}

func TestRateLimitedEmbedder_DisabledReturnsInner(t *testing.T) {
	inner := &mockEmbedder{}
	if got := NewRateLimitedEmbedder(inner, 0, 1); got != domain.Embedder(inner) {
		t.Error("rps=0 should return the inner embedder unchanged")
	}
}

func TestRateLimitedEmbedder_Paces(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	e := NewRateLimitedEmbedder(inner, 20, 1)

	start := time.Now()
	for range 3 {
		if _, err := e.Embed(context.Background(), "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// burst 1 at 20 rps: the 2nd and 3rd calls each wait ~50ms
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected pacing, finished in %v", elapsed)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 inner calls, got %d", inner.calls)
	}
}

func TestRateLimitedEmbedder_CancelledContext(t *testing.T) {
	inner := &mockEmbedder{}
	e := NewRateLimitedEmbedder(inner, 0.001, 1)

	// drain the single burst token
	if _, err := e.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Embed(ctx, "x"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if inner.calls != 1 {
		t.Errorf("inner must not be called after a failed wait, calls=%d", inner.calls)
	}
}
