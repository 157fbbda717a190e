package domain

import "context"

// ChunkWriter persists documents and chunks inside one storage transaction.
type ChunkWriter interface {
	UpsertDocument(ctx context.Context, doc Document) error
	UpsertChunk(ctx context.Context, c Chunk) error
	// PruneChunks deletes chunks of docID whose index is at or past keep.
	PruneChunks(ctx context.Context, docID string, keep int) error
}
