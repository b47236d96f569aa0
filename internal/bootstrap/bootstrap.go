package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mlevkov/claimaudit/internal/config"
	"github.com/mlevkov/claimaudit/internal/core/ports"
	"github.com/mlevkov/claimaudit/internal/core/usecase"
	"github.com/mlevkov/claimaudit/internal/extract"
	"github.com/mlevkov/claimaudit/internal/infrastructure/docintel"
	"github.com/mlevkov/claimaudit/internal/infrastructure/llm/gemini"
	"github.com/mlevkov/claimaudit/internal/infrastructure/resilience"
	"github.com/mlevkov/claimaudit/internal/infrastructure/storage/localfs"
	s3storage "github.com/mlevkov/claimaudit/internal/infrastructure/storage/s3"
	"github.com/mlevkov/claimaudit/internal/observability/metrics"
	"github.com/mlevkov/claimaudit/internal/report"
	"github.com/mlevkov/claimaudit/internal/risk"
	"github.com/mlevkov/claimaudit/internal/rules"
)

type App struct {
	Config config.Config

	Storage  ports.ObjectStorage
	AuditUC  ports.ClaimAuditor
	UploadUC ports.ClaimIngestor

	ServerMetrics   *metrics.HTTPServerMetrics
	PipelineMetrics *metrics.PipelineMetrics
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	serverMetrics := metrics.NewHTTPServerMetrics("claimaudit-api")
	pipelineMetrics := metrics.NewPipelineMetrics(serverMetrics)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.LLMRetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.LLMRetryInitialMillis) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.LLMRetryMaxMillis) * time.Millisecond,
		RetryMultiplier:     2.0,
		BreakerEnabled:      true,
	})
	client := gemini.NewWithOptions(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
		RequestsPerMinute:  cfg.LLMRequestsPerMinute,
		Timeout:            time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})
	generator := instrumentGenerator(client, pipelineMetrics)

	ruleConfig, err := rules.LoadConfig(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rule config: %w", err)
	}

	analyzer := docintel.NewAnalyzer(storage, generator, logger)
	extractor := extract.NewFieldExtractor(generator, logger)
	validator := rules.NewValidator(ruleConfig)
	scorer := risk.NewScorer(generator, extractor, logger)
	composer := report.NewComposer(generator, logger)

	auditUC := usecase.NewAuditClaimUseCase(analyzer, extractor, validator, scorer, composer, storage, logger)

	return &App{
		Config:          cfg,
		Storage:         storage,
		AuditUC:         instrumentAuditor(auditUC, pipelineMetrics),
		UploadUC:        usecase.NewUploadClaimUseCase(storage),
		ServerMetrics:   serverMetrics,
		PipelineMetrics: pipelineMetrics,
	}, nil
}

func newStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return storage, nil
	case "s3":
		storage, err := s3storage.New(ctx, cfg.S3Bucket, s3storage.Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
