package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/config"
	"github.com/kailas-cloud/ragd/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/ragd/internal/db/redis"
	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/domain/chunk"
	"github.com/kailas-cloud/ragd/internal/extract"
	logpkg "github.com/kailas-cloud/ragd/internal/logger"
	"github.com/kailas-cloud/ragd/internal/metrics"
	"github.com/kailas-cloud/ragd/internal/repository/embcache"
	"github.com/kailas-cloud/ragd/internal/repository/vector"
	bedrockTransport "github.com/kailas-cloud/ragd/internal/transport/bedrock"
	fsTransport "github.com/kailas-cloud/ragd/internal/transport/fs"
	openaiTransport "github.com/kailas-cloud/ragd/internal/transport/openai"
	s3Transport "github.com/kailas-cloud/ragd/internal/transport/s3"
	chatuc "github.com/kailas-cloud/ragd/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/ragd/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragd/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragd/internal/usecase/ingest"
)

// app is the composition root shared by all subcommands.
type app struct {
	cfg      config.Config
	settings config.Settings
	logger   *zap.Logger

	pg    *postgres.Store
	cache *dbRedis.Store

	fsSource *fsTransport.Source
	ingest   *ingestuc.Service
	chat     *chatuc.Service
	health   *healthuc.Service
}

// loadConfig reads and resolves configuration and builds the logger.
func loadConfig() (config.Config, config.Settings, *zap.Logger, error) {
	cfg, err := config.Load(envName)
	if err != nil {
		return config.Config{}, config.Settings{}, nil, fmt.Errorf("load config: %w", err)
	}
	settings, err := cfg.Resolve()
	if err != nil {
		return config.Config{}, config.Settings{}, nil, fmt.Errorf("resolve config: %w", err)
	}
	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, config.Settings{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, settings, logger, nil
}

// openDatabase connects to PostgreSQL, waits for readiness and optionally migrates.
func openDatabase(ctx context.Context, cfg config.Config, dims int, logger *zap.Logger) (*postgres.Store, error) {
	pg, err := postgres.NewStore(postgres.Config{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Debug:        cfg.Logging.Level == "debug",
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := pg.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(ctx, dims); err != nil {
			_ = pg.Close()
			return nil, err
		}
		logger.Info("Schema migrated", zap.Int("dimensions", dims))
	}
	return pg, nil
}

// newApp wires every dependency. Callers must call close.
func newApp(ctx context.Context) (*app, error) {
	cfg, settings, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	metrics.Register()

	a := &app{cfg: cfg, settings: settings, logger: logger}

	a.pg, err = openDatabase(ctx, cfg, settings.Embedding.Dimensions, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		a.cache, err = dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Cache.Addrs, Password: cfg.Cache.Password})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	var awsCfg aws.Config
	if needsAWS(cfg) {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("load aws config: %w", err)
		}
	}
	var brt *bedrockruntime.Client
	if cfg.Embedding.Provider != domain.ProviderOpenAI || cfg.Generation.Provider != domain.ProviderOpenAI ||
		settings.GuardrailID != "" {
		brt = bedrockruntime.NewFromConfig(awsCfg)
	}

	baseEmbedder := buildBaseEmbedder(cfg, settings, brt, logger)
	embedder := a.buildEmbedderChain(baseEmbedder)

	var generator domain.Generator
	if cfg.Generation.Provider == domain.ProviderOpenAI {
		generator = openaiTransport.NewGenerator(&openaiTransport.Config{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Logger:  logger,
		}, settings.Generation)
	} else {
		generator = bedrockTransport.NewGenerator(brt, settings.Generation, logger)
	}

	var guard domain.Guardrail = domain.NoopGuardrail{}
	if settings.GuardrailID != "" {
		guard = bedrockTransport.NewGuardrail(brt, settings.GuardrailID, settings.GuardrailVersion, logger)
	}

	var source ingestuc.ObjectSource
	if cfg.Source.Kind == config.SourceFS {
		a.fsSource = fsTransport.NewSource(cfg.Source.Root)
		source = a.fsSource
	} else {
		source = s3Transport.NewSource(awss3.NewFromConfig(awsCfg))
	}

	chunker, err := chunk.New(settings.ChunkSize, settings.ChunkOverlap)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	repo := vector.New(a.pg, settings.Embedding.Dimensions)

	a.ingest = ingestuc.New(source, extract.NewRegistry(), chunker, embedder, repo, ingestuc.Config{
		Embedding:       settings.Embedding,
		DefaultMaxFiles: settings.DefaultMaxFiles,
		PruneStale:      settings.PruneStaleChunks,
	})
	a.chat = chatuc.New(guard, embedder, repo, generator, chatuc.Config{
		DefaultTopK:            settings.DefaultTopK,
		DefaultMaxContextChars: settings.DefaultMaxContextChars,
	})

	healthOpts := []healthuc.Option{healthuc.WithEmbedding(newEmbeddingHealthChecker(baseEmbedder))}
	if a.cache != nil {
		healthOpts = append(healthOpts, healthuc.WithCache(a.cache))
	}
	a.health = healthuc.New(a.pg, healthOpts...)

	logger.Info("Pipelines ready",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", settings.Embedding.Model),
		zap.String("embedding_family", string(settings.Embedding.Family)),
		zap.Int("dimensions", settings.Embedding.Dimensions),
		zap.String("generation_model", settings.Generation.Model),
		zap.String("generation_family", string(settings.Generation.Family)),
		zap.Bool("guardrail", settings.GuardrailID != ""),
		zap.String("source", cfg.Source.Kind),
	)
	return a, nil
}

func needsAWS(cfg config.Config) bool {
	return cfg.Source.Kind == config.SourceS3 ||
		cfg.Embedding.Provider != domain.ProviderOpenAI ||
		cfg.Generation.Provider != domain.ProviderOpenAI ||
		cfg.Guardrail.ID != ""
}

func buildBaseEmbedder(
	cfg config.Config, settings config.Settings, brt *bedrockruntime.Client, logger *zap.Logger,
) domain.Embedder {
	if cfg.Embedding.Provider == domain.ProviderOpenAI {
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Logger:  logger,
		}, settings.Embedding)
	}
	return bedrockTransport.NewEmbedder(brt, settings.Embedding, logger)
}

// buildEmbedderChain assembles the decorator chain: provider -> cached -> rate limited -> instrumented.
func (a *app) buildEmbedderChain(base domain.Embedder) domain.Embedder {
	embedder := base
	if a.cache != nil {
		embedder = embcache.New(embedder, a.cache, embcache.Options{
			KeyPrefix:  a.cfg.Cache.KeyPrefix,
			Spec:       a.settings.Embedding,
			TTL:        a.settings.CacheTTL,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     a.logger,
		})
	}
	embedder = embeddinguc.NewRateLimitedEmbedder(embedder, a.cfg.Embedding.RateLimitRPS, a.cfg.Embedding.RateBurst)
	return embeddinguc.NewInstrumentedEmbedder(embedder, a.cfg.Embedding.Provider, a.settings.Embedding.Model, a.logger)
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.logger.Warn("Close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
