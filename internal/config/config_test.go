package config

import (
	"testing"

	"github.com/kailas-cloud/ragd/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		HTTP:       HTTPConfig{Port: 8080},
		Database:   DatabaseConfig{DSN: "postgres://localhost/ragd"},
		Generation: GenerationConfig{Model: "anthropic.claude-3-haiku-20240307-v1:0"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func TestValidate_CacheWithoutAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}
}

func TestValidate_InvalidProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "vertex"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	expected := `embedding.provider must be "bedrock" or "openai", got "vertex"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_FSSourceRequiresRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Kind = SourceFS

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for fs source without root")
	}
	cfg.Source.Root = "/data"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeOverlap(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.Overlap = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative overlap")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Embedding.Model != "amazon.titan-embed-text-v1" {
		t.Errorf("expected titan v1 model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Normalize == nil || !*cfg.Embedding.Normalize {
		t.Error("expected Normalize=true")
	}
	if cfg.Generation.MaxTokens != 600 {
		t.Errorf("expected MaxTokens=600, got %d", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0.2 {
		t.Error("expected Temperature=0.2")
	}
	if cfg.Chunking.Size != 1200 || cfg.Chunking.Overlap != 0 {
		t.Errorf("expected chunking 1200/0, got %d/%d", cfg.Chunking.Size, cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.TopK != 6 {
		t.Errorf("expected TopK=6, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MaxContextChars != 12000 {
		t.Errorf("expected MaxContextChars=12000, got %d", cfg.Retrieval.MaxContextChars)
	}
	if cfg.Ingest.MaxFiles != 50 {
		t.Errorf("expected MaxFiles=50, got %d", cfg.Ingest.MaxFiles)
	}
	if cfg.Source.Kind != SourceS3 {
		t.Errorf("expected Source.Kind=s3, got %q", cfg.Source.Kind)
	}
	if cfg.Guardrail.Version != "" {
		t.Errorf("expected empty guardrail version without id, got %q", cfg.Guardrail.Version)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	normalize := false
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90},
		Embedding: EmbeddingConfig{Model: "amazon.titan-embed-text-v2:0", Dimensions: 512, Normalize: &normalize},
		Guardrail: GuardrailConfig{ID: "gr-1", Version: "DRAFT"},
		Chunking:  ChunkingConfig{Size: 800, Overlap: 100},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Embedding.Dimensions != 512 || *cfg.Embedding.Normalize {
		t.Errorf("embedding overridden: %+v", cfg.Embedding)
	}
	if cfg.Guardrail.Version != "DRAFT" {
		t.Errorf("expected Version=DRAFT, got %q", cfg.Guardrail.Version)
	}
	if cfg.Chunking.Size != 800 || cfg.Chunking.Overlap != 100 {
		t.Errorf("chunking overridden: %+v", cfg.Chunking)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("RAGD_TEST_DSN", "postgres://db/ragd")
	data := []byte(`
http:
  port: ${RAGD_TEST_PORT:-9090}
database:
  dsn: ${RAGD_TEST_DSN}
generation:
  model: meta.llama3-8b-instruct-v1:0
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.DSN != "postgres://db/ragd" {
		t.Errorf("expected expanded dsn, got %q", cfg.Database.DSN)
	}
}

func TestResolve(t *testing.T) {
	cfg := validConfig()

	s, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Embedding.Family != domain.EmbedTitanV1 || s.Embedding.Dimensions != 1536 {
		t.Errorf("embedding = %+v", s.Embedding)
	}
	if s.Generation.Family != domain.GenAnthropic {
		t.Errorf("generation family = %q", s.Generation.Family)
	}
	if s.ChunkSize != 1200 || s.DefaultTopK != 6 || s.DefaultMaxFiles != 50 {
		t.Errorf("settings = %+v", s)
	}
}

func TestResolve_TitanV2InvalidDimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = "amazon.titan-embed-text-v2:0"
	cfg.Embedding.Dimensions = 768

	if _, err := cfg.Resolve(); err == nil {
		t.Fatal("expected error for unsupported titan v2 dimensions")
	}
}
