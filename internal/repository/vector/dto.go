package vector

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/kailas-cloud/ragd/internal/db/postgres"
	"github.com/kailas-cloud/ragd/internal/domain"
)

type documentRow struct {
	DocID     string   `gorm:"column:doc_id;primaryKey"`
	Title     string   `gorm:"column:title"`
	DocType   string   `gorm:"column:doc_type"`
	Source    string   `gorm:"column:source"`
	SourceURI string   `gorm:"column:source_uri"`
	Tags      []string `gorm:"column:tags;type:text[]"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return postgres.DocumentsTable }

type chunkRow struct {
	DocID      string          `gorm:"column:doc_id;primaryKey"`
	ChunkID    string          `gorm:"column:chunk_id;primaryKey"`
	ChunkIndex int             `gorm:"column:chunk_index"`
	Title      string          `gorm:"column:title"`
	Section    *string         `gorm:"column:section"`
	Content    string          `gorm:"column:content"`
	Metadata   datatypes.JSON  `gorm:"column:metadata;type:jsonb"`
	Embedding  pgvector.Vector `gorm:"column:embedding;type:vector"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (chunkRow) TableName() string { return postgres.ChunksTable }

// scoredRow is the projection returned by the similarity query.
type scoredRow struct {
	DocID   string  `gorm:"column:doc_id"`
	ChunkID string  `gorm:"column:chunk_id"`
	Title   *string `gorm:"column:title"`
	Content string  `gorm:"column:content"`
	Score   float64 `gorm:"column:score"`
}

func toDocumentRow(d domain.Document) documentRow {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	docType := d.DocType
	if docType == "" {
		docType = domain.DefaultDocType
	}
	return documentRow{
		DocID:     d.DocID,
		Title:     d.Title,
		DocType:   docType,
		Source:    d.Source,
		SourceURI: d.SourceURI,
		Tags:      tags,
	}
}

func toChunkRow(c domain.Chunk) (chunkRow, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return chunkRow{}, err
	}
	var section *string
	if c.Section != "" {
		s := c.Section
		section = &s
	}
	return chunkRow{
		DocID:      c.DocID,
		ChunkID:    c.ChunkID,
		ChunkIndex: c.Index,
		Title:      c.Title,
		Section:    section,
		Content:    c.Content,
		Metadata:   datatypes.JSON(meta),
		Embedding:  pgvector.NewVector(finite(c.Embedding)),
	}, nil
}

func (r scoredRow) toDomain() domain.ScoredChunk {
	var title string
	if r.Title != nil {
		title = *r.Title
	}
	return domain.ScoredChunk{
		DocID:   r.DocID,
		ChunkID: r.ChunkID,
		Title:   title,
		Content: r.Content,
		Score:   r.Score,
	}
}

// finite replaces NaN and ±Inf components with 0. The input is not modified.
func finite(v []float32) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			continue
		}
		out[i] = f
	}
	return out
}
