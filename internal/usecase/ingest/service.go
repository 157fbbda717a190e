package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	dom "github.com/kailas-cloud/ragd/internal/domain/ingest"
	"github.com/kailas-cloud/ragd/internal/extract"
	"github.com/kailas-cloud/ragd/internal/logger"
	"github.com/kailas-cloud/ragd/internal/metrics"
)

// Limits for a single ingestion request.
const (
	MaxFilesLimit  = 500
	SkippedSampleN = 50
)

// Request describes one ingestion run over bucket/prefix.
type Request struct {
	Bucket   string
	Prefix   string
	DocType  string
	Tags     []string
	MaxFiles int // 0 = configured default
}

// Report summarizes an ingestion run.
type Report struct {
	Bucket     string
	Prefix     string
	FilesFound int
	Ingested   int
	ListMs     int64
	DBMs       int64
	Results    []dom.Result
	Skipped    []domain.ObjectInfo
}

// Errors returns the per-item error outcomes in processing order.
func (r Report) Errors() []dom.Result {
	out := make([]dom.Result, 0)
	for _, res := range r.Results {
		if res.Status() == dom.StatusError {
			out = append(out, res)
		}
	}
	return out
}

// Config holds the ingestion settings resolved at startup.
type Config struct {
	Embedding       domain.EmbeddingSpec
	DefaultMaxFiles int
	PruneStale      bool
}

// Service lists, extracts, chunks, embeds and stores objects.
type Service struct {
	source  ObjectSource
	extract Extractor
	chunker Chunker
	embed   Embedder
	store   Store
	cfg     Config
}

// New creates an ingestion service.
func New(source ObjectSource, ex Extractor, chunker Chunker, embed Embedder, store Store, cfg Config) *Service {
	if cfg.DefaultMaxFiles <= 0 {
		cfg.DefaultMaxFiles = 50
	}
	return &Service{source: source, extract: ex, chunker: chunker, embed: embed, store: store, cfg: cfg}
}

// Ingest processes every supported object under bucket/prefix in one transaction.
// Per-object extract and embed failures are reported in the Report; any other
// failure rolls back the whole batch and is returned wrapped in ErrTransaction.
func (s *Service) Ingest(ctx context.Context, req Request) (Report, error) {
	log := logger.FromContext(ctx)

	bucket := strings.TrimSpace(req.Bucket)
	if bucket == "" {
		return Report{}, fmt.Errorf("%w: bucket is required", domain.ErrValidation)
	}
	if req.DocType == "" {
		req.DocType = domain.DefaultDocType
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	maxFiles := s.clampMaxFiles(req.MaxFiles)

	report := Report{Bucket: bucket, Prefix: req.Prefix, Results: []dom.Result{}, Skipped: []domain.ObjectInfo{}}

	start := time.Now()
	objects, err := s.source.List(ctx, bucket, req.Prefix)
	if err != nil {
		return Report{}, fmt.Errorf("list %s/%s: %w", bucket, req.Prefix, err)
	}
	report.ListMs = time.Since(start).Milliseconds()

	keys, skipped, skips := filterObjects(objects, maxFiles)
	report.FilesFound = len(keys)
	report.Skipped = skipped
	report.Results = append(report.Results, skips...)

	log.Info("ingest_list",
		zap.String("bucket", bucket),
		zap.String("prefix", req.Prefix),
		zap.Int("files_found", len(keys)),
		zap.Int("skipped", len(skips)),
		zap.Int64("list_ms", report.ListMs),
	)

	if len(keys) == 0 {
		recordOutcomes(report.Results)
		return report, nil
	}

	start = time.Now()
	var results []dom.Result
	var ingested int
	err = s.store.InTx(ctx, func(w domain.ChunkWriter) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, ok, err := s.ingestObject(ctx, w, bucket, key, req)
			if err != nil {
				return err
			}
			if ok {
				ingested++
			}
			results = append(results, res...)
		}
		return nil
	})
	report.DBMs = time.Since(start).Milliseconds()
	if err != nil {
		log.Error("ingest_rollback", zap.String("bucket", bucket), zap.Error(err))
		return Report{}, fmt.Errorf("%w: %w", domain.ErrTransaction, err)
	}

	report.Ingested = ingested
	report.Results = append(report.Results, results...)
	recordOutcomes(report.Results)

	sum := dom.Summarize(report.Results)
	log.Info("ingest_commit",
		zap.Int("ingested", ingested),
		zap.Int("ok", sum.OK),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Int64("db_ms", report.DBMs),
	)
	return report, nil
}

// ingestObject handles one key. It returns the outcomes for the key, whether the
// document was written, and a non-nil error only when the transaction must abort.
func (s *Service) ingestObject(
	ctx context.Context, w domain.ChunkWriter, bucket, key string, req Request,
) ([]dom.Result, bool, error) {
	log := logger.FromContext(ctx)
	ext := domain.ExtOfKey(key)

	data, err := s.source.Get(ctx, bucket, key)
	if err != nil {
		log.Warn("ingest_fetch_failed", zap.String("key", key), zap.Error(err))
		return []dom.Result{dom.NewError(key, dom.StepExtract, err)}, false, nil
	}
	text, err := s.extract.Extract(ctx, data, ext)
	if err != nil {
		log.Warn("ingest_extract_failed", zap.String("key", key), zap.Error(err))
		return []dom.Result{dom.NewError(key, dom.StepExtract, err)}, false, nil
	}

	raw := strings.TrimSpace(text.Text)
	log.Info("ingest_extract",
		zap.String("key", key),
		zap.Int("bytes", text.Bytes),
		zap.String("ext", text.Ext),
		zap.Int("text_chars", len([]rune(raw))),
	)
	if raw == "" {
		return []dom.Result{dom.NewEmptyText(key)}, false, nil
	}

	uri := domain.SourceURI(s.source.Scheme(), bucket, key)
	doc := domain.Document{
		DocID:     domain.DocID(uri),
		Title:     domain.TitleFromKey(key),
		DocType:   req.DocType,
		Source:    s.source.Scheme(),
		SourceURI: uri,
		Tags:      req.Tags,
	}
	if err := w.UpsertDocument(ctx, doc); err != nil {
		return nil, false, err
	}

	pieces := s.chunker.Split(raw)
	log.Info("ingest_chunk", zap.String("key", key), zap.Int("chunks", len(pieces)))

	meta := domain.ChunkMetadata{
		Bucket:     bucket,
		Key:        key,
		Ext:        text.Ext,
		Bytes:      text.Bytes,
		EmbedModel: s.cfg.Embedding.Model,
		EmbedDims:  s.cfg.Embedding.Dimensions,
	}

	for i, content := range pieces {
		vec, err := s.embedChunk(ctx, content)
		if err != nil {
			log.Warn("ingest_embed_failed", zap.String("key", key), zap.Int("chunk_index", i), zap.Error(err))
			// the document and the chunks before i stay in the transaction
			return []dom.Result{dom.NewChunkError(key, i, dom.StepEmbed, err)}, true, nil
		}
		c := domain.Chunk{
			DocID:     doc.DocID,
			ChunkID:   domain.ChunkID(doc.DocID, i),
			Index:     i,
			Title:     doc.Title,
			Content:   content,
			Metadata:  meta,
			Embedding: vec,
		}
		if err := w.UpsertChunk(ctx, c); err != nil {
			return nil, false, err
		}
		metrics.IngestChunksTotal.Inc()
	}

	if s.cfg.PruneStale {
		if err := w.PruneChunks(ctx, doc.DocID, len(pieces)); err != nil {
			return nil, false, err
		}
	}
	return []dom.Result{dom.NewOK(key)}, true, nil
}

// embedChunk wraps every failure in domain.ErrEmbedding.
func (s *Service) embedChunk(ctx context.Context, content string) ([]float32, error) {
	res, err := s.embed.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if err := domain.CheckDimensions(res.Embedding, s.cfg.Embedding.Dimensions); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return res.Embedding, nil
}

func recordOutcomes(results []dom.Result) {
	for _, r := range results {
		metrics.IngestItemsTotal.WithLabelValues(string(r.Status()), string(r.Step())).Inc()
	}
}

func (s *Service) clampMaxFiles(n int) int {
	if n == 0 {
		n = s.cfg.DefaultMaxFiles
	}
	return max(1, min(n, MaxFilesLimit))
}

// Reasons recorded on skipped results.
const (
	SkipFolderMarker = "folder_marker"
	SkipEmptyObject  = "empty_object"
	SkipUnsupported  = "unsupported_ext"
)

// filterObjects drops folder markers, empty objects and unsupported extensions.
// It returns at most maxFiles keys, a sample of the skipped objects and one
// skipped result per filtered object.
func filterObjects(objects []domain.ObjectInfo, maxFiles int) ([]string, []domain.ObjectInfo, []dom.Result) {
	keys := make([]string, 0, min(len(objects), maxFiles))
	skipped := make([]domain.ObjectInfo, 0)
	var skips []dom.Result
	for _, o := range objects {
		if o.Key == "" {
			continue
		}
		if reason := skipReason(o); reason != "" {
			skips = append(skips, dom.NewSkipped(o.Key, reason))
			if len(skipped) < SkippedSampleN {
				skipped = append(skipped, o)
			}
			continue
		}
		if len(keys) < maxFiles {
			keys = append(keys, o.Key)
		}
	}
	return keys, skipped, skips
}

func skipReason(o domain.ObjectInfo) string {
	switch {
	case domain.IsFolderMarker(o.Key):
		return SkipFolderMarker
	case o.Size <= 0:
		return SkipEmptyObject
	case !extract.Supported(domain.ExtOfKey(o.Key)):
		return SkipUnsupported
	default:
		return ""
	}
}
