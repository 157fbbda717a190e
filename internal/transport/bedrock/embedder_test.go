package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
)

func TestEmbedder_TitanV1Payload(t *testing.T) {
	api := &fakeInvoke{body: []byte(`{"embedding":[0.1,0.2,0.3],"inputTextTokenCount":4}`)}
	spec := domain.EmbeddingSpec{Family: domain.EmbedTitanV1, Model: "amazon.titan-embed-text-v1", Dimensions: 3}

	res, err := NewEmbedder(api, spec, zap.NewNop()).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 4 {
		t.Errorf("got %+v", res)
	}
	if string(api.lastReq) != `{"inputText":"hello"}` {
		t.Errorf("payload = %s", api.lastReq)
	}
	if *api.lastIn.ModelId != "amazon.titan-embed-text-v1" || *api.lastIn.ContentType != "application/json" {
		t.Errorf("unexpected input: %+v", api.lastIn)
	}
}

func TestEmbedder_TitanV2Payload(t *testing.T) {
	api := &fakeInvoke{body: []byte(`{"embedding":[0.1,0.2]}`)}
	spec := domain.EmbeddingSpec{Family: domain.EmbedTitanV2, Model: "amazon.titan-embed-text-v2:0", Dimensions: 2, Normalize: false}

	if _, err := NewEmbedder(api, spec, zap.NewNop()).Embed(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(api.lastReq, &got); err != nil {
		t.Fatal(err)
	}
	if got["inputText"] != "hi" || got["dimensions"] != float64(2) || got["normalize"] != false {
		t.Errorf("payload = %v", got)
	}
}

func TestEmbedder_EmbeddingsByTypeFallback(t *testing.T) {
	api := &fakeInvoke{body: []byte(`{"embeddingsByType":{"float":[1,2]}}`)}
	spec := domain.EmbeddingSpec{Family: domain.EmbedBedrock, Model: "amazon.titan-embed-g1", Dimensions: 2}

	res, err := NewEmbedder(api, spec, zap.NewNop()).Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedding[0] != 1 || res.Embedding[1] != 2 {
		t.Errorf("embedding = %v", res.Embedding)
	}
}

func TestEmbedder_Errors(t *testing.T) {
	spec := domain.EmbeddingSpec{Family: domain.EmbedBedrock, Model: "m", Dimensions: 3}
	tests := []struct {
		name string
		api  *fakeInvoke
		want error
	}{
		{"missing vector", &fakeInvoke{body: []byte(`{}`)}, domain.ErrMissingVector},
		{"wrong dims", &fakeInvoke{body: []byte(`{"embedding":[1,2]}`)}, domain.ErrVectorDimMismatch},
		{"bad json", &fakeInvoke{body: []byte(`nope`)}, domain.ErrEmbeddingProviderError},
		{
			"throttled",
			&fakeInvoke{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}},
			domain.ErrEmbeddingProviderError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbedder(tt.api, spec, zap.NewNop()).Embed(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEmbedder_KeepsAPIErrorInChain(t *testing.T) {
	spec := domain.EmbeddingSpec{Family: domain.EmbedBedrock, Model: "m", Dimensions: 3}
	api := &fakeInvoke{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}

	_, err := NewEmbedder(api, spec, zap.NewNop()).Embed(context.Background(), "x")
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "ThrottlingException" {
		t.Fatalf("SDK error not in chain: %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}
