package vector

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// store is the consumer interface for the relational backend (ISP).
type store interface {
	DB() *gorm.DB
}

// Repo implements the vector store over PostgreSQL + pgvector.
type Repo struct {
	gdb        *gorm.DB
	dimensions int
}

// New creates a vector repository. Every chunk embedding must have exactly dims components.
func New(s store, dims int) *Repo {
	return &Repo{gdb: s.DB(), dimensions: dims}
}

// InTx runs fn inside a single transaction. A nil return commits, anything else rolls back.
func (r *Repo) InTx(ctx context.Context, fn func(domain.ChunkWriter) error) error {
	return r.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txWriter{tx: tx, dimensions: r.dimensions})
	})
}

// SimilaritySearch returns up to k chunks closest to q by cosine distance.
// Score is 1 - distance; ties are broken by chunk_id so the order is stable.
func (r *Repo) SimilaritySearch(ctx context.Context, q []float32, k int) ([]domain.ScoredChunk, error) {
	if err := domain.CheckDimensions(q, r.dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	vec := pgvector.NewVector(finite(q))
	var rows []scoredRow
	err := r.gdb.WithContext(ctx).Raw(
		`SELECT doc_id, chunk_id, title, content, 1 - (embedding <=> ?) AS score
FROM rag_chunks
WHERE embedding IS NOT NULL
ORDER BY embedding <=> ?, chunk_id
LIMIT ?`, vec, vec, k,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	out := make([]domain.ScoredChunk, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

var _ domain.ChunkWriter = (*txWriter)(nil)

type txWriter struct {
	tx         *gorm.DB
	dimensions int
}

func (w *txWriter) UpsertDocument(ctx context.Context, doc domain.Document) error {
	row := toDocumentRow(doc)
	updates := append(
		clause.AssignmentColumns([]string{"title", "doc_type", "source", "source_uri", "tags"}),
		clause.Assignment{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("now()")},
	)
	err := w.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_id"}},
			DoUpdates: updates,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.DocID, err)
	}
	return nil
}

func (w *txWriter) UpsertChunk(ctx context.Context, c domain.Chunk) error {
	if err := domain.CheckDimensions(c.Embedding, w.dimensions); err != nil {
		return fmt.Errorf("chunk %s: %w", c.ChunkID, err)
	}
	row, err := toChunkRow(c)
	if err != nil {
		return fmt.Errorf("encode chunk %s: %w", c.ChunkID, err)
	}

	updates := append(
		clause.AssignmentColumns([]string{"chunk_index", "title", "section", "content", "metadata", "embedding"}),
		clause.Assignment{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("now()")},
	)
	err = w.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_id"}, {Name: "chunk_id"}},
			DoUpdates: updates,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
	}
	return nil
}

func (w *txWriter) PruneChunks(ctx context.Context, docID string, keep int) error {
	err := w.tx.WithContext(ctx).
		Where("doc_id = ? AND chunk_index >= ?", docID, keep).
		Delete(&chunkRow{}).Error
	if err != nil {
		return fmt.Errorf("prune chunks %s: %w", docID, err)
	}
	return nil
}
