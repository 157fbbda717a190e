package vector

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kailas-cloud/ragd/internal/domain"
)

func testDoc() domain.Document {
	uri := domain.SourceURI(domain.SourceS3, "docs", "a/b.txt")
	return domain.Document{
		DocID:     domain.DocID(uri),
		Title:     "b.txt",
		Source:    domain.SourceS3,
		SourceURI: uri,
		Tags:      []string{"hr"},
	}
}

func testChunk(docID string, idx int, vec []float32) domain.Chunk {
	return domain.Chunk{
		DocID:     docID,
		ChunkID:   domain.ChunkID(docID, idx),
		Index:     idx,
		Title:     "b.txt",
		Content:   "hello",
		Metadata:  domain.ChunkMetadata{Bucket: "docs", Key: "a/b.txt", Ext: "txt", Bytes: 5, EmbedDims: len(vec)},
		Embedding: vec,
	}
}

func TestInTx_UpsertDocumentAndChunk(t *testing.T) {
	repo, mock := newTestRepo(t, 3)
	doc := testDoc()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "rag_documents" (.+) ON CONFLICT \("doc_id"\) DO UPDATE SET (.+)"updated_at"=now\(\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "rag_chunks" (.+) ON CONFLICT \("doc_id","chunk_id"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(w domain.ChunkWriter) error {
		if err := w.UpsertDocument(context.Background(), doc); err != nil {
			return err
		}
		return w.UpsertChunk(context.Background(), testChunk(doc.DocID, 0, []float32{0.1, 0.2, 0.3}))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInTx_RollbackOnError(t *testing.T) {
	repo, mock := newTestRepo(t, 3)
	doc := testDoc()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "rag_documents"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "rag_chunks"`).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(w domain.ChunkWriter) error {
		if err := w.UpsertDocument(context.Background(), doc); err != nil {
			return err
		}
		return w.UpsertChunk(context.Background(), testChunk(doc.DocID, 0, []float32{1, 2, 3}))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertChunk_DimensionMismatchWritesNothing(t *testing.T) {
	repo, mock := newTestRepo(t, 3)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(w domain.ChunkWriter) error {
		return w.UpsertChunk(context.Background(), testChunk("d", 0, []float32{1, 2}))
	})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	var dm *domain.DimensionMismatchError
	if !errors.As(err, &dm) || dm.Got != 2 || dm.Expected != 3 {
		t.Errorf("unexpected mismatch detail: %+v", dm)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPruneChunks(t *testing.T) {
	repo, mock := newTestRepo(t, 3)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "rag_chunks" WHERE doc_id = \$1 AND chunk_index >= \$2`).
		WithArgs("d", 2).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(w domain.ChunkWriter) error {
		return w.PruneChunks(context.Background(), "d", 2)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSimilaritySearch(t *testing.T) {
	repo, mock := newTestRepo(t, 3)

	rows := sqlmock.NewRows([]string{"doc_id", "chunk_id", "title", "content", "score"}).
		AddRow("d1", "d1:0", "a.txt", "alpha", 0.9).
		AddRow("d2", "d2:0", nil, "beta", 0.7)
	mock.ExpectQuery(`SELECT doc_id, chunk_id, title, content, 1 - \(embedding <=> \$1\) AS score\s+FROM rag_chunks\s+WHERE embedding IS NOT NULL\s+ORDER BY embedding <=> \$2, chunk_id\s+LIMIT \$3`).
		WithArgs("[0.1,0.2,0.3]", "[0.1,0.2,0.3]", 2).
		WillReturnRows(rows)

	got, err := repo.SimilaritySearch(context.Background(), []float32{0.1, 0.2, 0.3}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(got))
	}
	if got[0].ChunkID != "d1:0" || got[0].Score != 0.9 || got[0].Title != "a.txt" {
		t.Errorf("unexpected first hit: %+v", got[0])
	}
	if got[1].Title != "" {
		t.Errorf("null title should map to empty, got %q", got[1].Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSimilaritySearch_WrongQueryDimension(t *testing.T) {
	repo, _ := newTestRepo(t, 3)
	_, err := repo.SimilaritySearch(context.Background(), []float32{1}, 5)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestFinite(t *testing.T) {
	in := []float32{1, float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), -2}
	out := finite(in)
	want := []float32{1, 0, 0, 0, -2}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	if !math.IsNaN(float64(in[1])) {
		t.Error("input must not be modified")
	}
}

func TestToDocumentRow_Defaults(t *testing.T) {
	row := toDocumentRow(domain.Document{DocID: "x", Source: domain.SourceS3})
	if row.DocType != domain.DefaultDocType {
		t.Errorf("doc type = %q", row.DocType)
	}
	if row.Tags == nil {
		t.Error("tags must be an empty array, not NULL")
	}
}
