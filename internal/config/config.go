package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceS3 = "s3"
	SourceFS = "fs"
)

// Config holds the ragd configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	AWS        AWSConfig        `yaml:"aws"`
	Source     SourceConfig     `yaml:"source"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Guardrail  GuardrailConfig  `yaml:"guardrail"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	AutoMigrate      bool   `yaml:"auto_migrate"`
}

// CacheConfig holds the optional Redis embedding cache settings.
type CacheConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTLSec    int      `yaml:"ttl_sec"`
}

// AWSConfig holds AWS client settings. Credentials come from the default chain.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// SourceConfig selects where ingestion reads objects from.
type SourceConfig struct {
	Kind string `yaml:"kind"` // s3 (default) or fs
	Root string `yaml:"root"` // base directory for fs; the request bucket is resolved under it
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Provider     string  `yaml:"provider"` // bedrock (default) or openai
	Model        string  `yaml:"model"`
	Dimensions   int     `yaml:"dimensions"`
	Normalize    *bool   `yaml:"normalize"`
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateBurst    int     `yaml:"rate_burst"`
}

// GenerationConfig holds generative model settings.
type GenerationConfig struct {
	Provider    string   `yaml:"provider"` // bedrock (default) or openai
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
}

// GuardrailConfig identifies the content-safety guardrail. Empty ID disables filtering.
type GuardrailConfig struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

// ChunkingConfig holds window size and overlap, in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig holds chat retrieval defaults.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

// IngestConfig holds ingestion defaults.
type IngestConfig struct {
	MaxFiles         int  `yaml:"max_files"`
	PruneStaleChunks bool `yaml:"prune_stale_chunks"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML with env expansion, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// generation on Bedrock routinely exceeds 10s
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 5
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "ragd:"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceS3
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "bedrock"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "amazon.titan-embed-text-v1"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.Normalize == nil {
		normalize := true
		c.Embedding.Normalize = &normalize
	}
	if c.Embedding.RateBurst <= 0 {
		c.Embedding.RateBurst = 1
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "bedrock"
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 600
	}
	if c.Generation.Temperature == nil {
		temperature := float32(0.2)
		c.Generation.Temperature = &temperature
	}
	if c.Guardrail.ID != "" && c.Guardrail.Version == "" {
		c.Guardrail.Version = "1"
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = 1200
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 6
	}
	if c.Retrieval.MaxContextChars <= 0 {
		c.Retrieval.MaxContextChars = 12000
	}
	if c.Ingest.MaxFiles <= 0 {
		c.Ingest.MaxFiles = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	switch c.Source.Kind {
	case SourceS3:
	case SourceFS:
		if c.Source.Root == "" {
			return fmt.Errorf("source.root is required for source.kind %q", SourceFS)
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceS3, SourceFS, c.Source.Kind)
	}
	if err := validateProvider("embedding", c.Embedding.Provider); err != nil {
		return err
	}
	if err := validateProvider("generation", c.Generation.Provider); err != nil {
		return err
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must be >= 0, got %d", c.Chunking.Overlap)
	}
	if c.Embedding.RateLimitRPS < 0 {
		return fmt.Errorf("embedding.rate_limit_rps must be >= 0, got %v", c.Embedding.RateLimitRPS)
	}
	return nil
}

func validateProvider(section, provider string) error {
	switch provider {
	case "bedrock", "openai":
		return nil
	default:
		return fmt.Errorf("%s.provider must be \"bedrock\" or \"openai\", got %q", section, provider)
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
