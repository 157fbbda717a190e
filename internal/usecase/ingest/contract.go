package ingest

import (
	"context"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/extract"
)

// ObjectSource lists and downloads objects from a bucket-like namespace.
type ObjectSource interface {
	Scheme() string
	List(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Extractor converts raw object bytes to text by extension.
type Extractor interface {
	Extract(ctx context.Context, data []byte, ext string) (extract.Text, error)
}

// Chunker splits text into overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store runs a batch of writes inside one transaction.
type Store interface {
	InTx(ctx context.Context, fn func(domain.ChunkWriter) error) error
}
