package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/ragd/internal/db"
)

// Table names shared with the vector repository.
const (
	DocumentsTable = "rag_documents"
	ChunksTable    = "rag_chunks"
)

// schemaStatements returns the idempotent DDL for an embedding width of dims.
func schemaStatements(dims int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ` + DocumentsTable + ` (
	doc_id     text PRIMARY KEY,
	title      text,
	doc_type   text NOT NULL DEFAULT 'doc',
	source     text NOT NULL,
	source_uri text NOT NULL,
	tags       text[] NOT NULL DEFAULT '{}',
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS `+ChunksTable+` (
	doc_id      text NOT NULL REFERENCES `+DocumentsTable+`(doc_id) ON DELETE CASCADE,
	chunk_id    text NOT NULL,
	chunk_index integer NOT NULL,
	title       text,
	section     text,
	content     text NOT NULL,
	metadata    jsonb NOT NULL DEFAULT '{}',
	embedding   vector(%d),
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (doc_id, chunk_id)
)`, dims),
	}
}

// Migrate creates the pgvector extension and both tables if they are missing.
// Similarity indexes are left to the operator.
func (s *Store) Migrate(ctx context.Context, dims int) error {
	if dims <= 0 {
		return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("dimensions must be positive, got %d", dims)}
	}

	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range schemaStatements(dims) {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpMigrate, Err: err}
	}
	return nil
}
