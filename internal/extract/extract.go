// Package extract converts raw object bytes into plain text by file extension.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// Text is the result of extracting one object.
type Text struct {
	Text  string
	Bytes int
	Ext   string
}

// Extractor converts raw bytes of one format to text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) { return f(ctx, data) }

// supported is the set of extensions ingestion lists; other extensions are skipped before download.
var supported = map[string]struct{}{
	"pdf": {}, "docx": {}, "txt": {}, "md": {}, "json": {}, "csv": {},
}

// Supported reports whether ext (lower-case, no dot) is accepted for ingestion.
func Supported(ext string) bool {
	_, ok := supported[ext]
	return ok
}

// Registry maps extensions to extractors with a fallback for unknown extensions.
type Registry struct {
	byExt    map[string]Extractor
	fallback Extractor
}

// NewRegistry returns a registry with the built-in plain, pdf and docx strategies.
func NewRegistry() *Registry {
	plain := Plain()
	r := &Registry{
		byExt:    make(map[string]Extractor),
		fallback: plain,
	}
	for _, ext := range []string{"txt", "md", "csv", "json"} {
		r.Register(ext, plain)
	}
	r.Register("pdf", PDF())
	r.Register("docx", DOCX())
	return r
}

// Register sets the extractor for ext, replacing any existing one.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Extract runs the strategy registered for ext, or the fallback.
func (r *Registry) Extract(ctx context.Context, data []byte, ext string) (Text, error) {
	e, ok := r.byExt[ext]
	if !ok {
		e = r.fallback
	}
	text, err := e.Extract(ctx, data)
	if err != nil {
		return Text{}, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, extLabel(ext), err)
	}
	return Text{Text: text, Bytes: len(data), Ext: ext}, nil
}

func extLabel(ext string) string {
	if ext == "" {
		return "no extension"
	}
	return ext
}

// Plain decodes bytes as UTF-8 text.
func Plain() Extractor {
	return ExtractorFunc(func(_ context.Context, data []byte) (string, error) {
		return strings.ToValidUTF8(string(data), "�"), nil
	})
}
