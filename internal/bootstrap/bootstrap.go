package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/biaslab/bias-engine/internal/config"
	"github.com/biaslab/bias-engine/internal/core/ports"
	"github.com/biaslab/bias-engine/internal/core/usecase"
	"github.com/biaslab/bias-engine/internal/infrastructure/cache"
	"github.com/biaslab/bias-engine/internal/infrastructure/extractor/web"
	"github.com/biaslab/bias-engine/internal/infrastructure/llm/openai"
	natsqueue "github.com/biaslab/bias-engine/internal/infrastructure/queue/nats"
	"github.com/biaslab/bias-engine/internal/infrastructure/repository/postgres"
	"github.com/biaslab/bias-engine/internal/infrastructure/resilience"
	"github.com/biaslab/bias-engine/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Analyzer ports.ArticleAnalyzer
	Metrics  *metrics.PipelineMetrics
	Store    ports.ResultStore
	Queue    ports.AnalysisQueue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	pipelineMetrics := metrics.NewPipelineMetrics(service)

	var store ports.ResultStore
	closers := []func(){}
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		resultStore := postgres.NewResultStore(db)
		if err := resultStore.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = resultStore
		closers = append(closers, func() { _ = db.Close() })
	}

	var queue ports.AnalysisQueue
	if cfg.NATSURL != "" {
		natsQueue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			return nil, fmt.Errorf("init analysis queue: %w", err)
		}
		queue = natsQueue
		closers = append(closers, natsQueue.Close)
	}

	model := openai.New(cfg.ModelURL, cfg.ModelAPIKey, cfg.ModelName, openai.Options{
		RequestsPerSecond: cfg.ModelRateLimitRPS,
		Timeout:           cfg.ModelRequestTimeout,
	})
	scorer := usecase.NewDimensionScorer(model, pipelineMetrics, usecase.ScorePolicy{
		MaxAttempts:    cfg.ScoreMaxAttempts,
		InitialBackoff: cfg.ScoreInitialBackoff,
		MaxBackoff:     cfg.ScoreMaxBackoff,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	})

	classifier, err := usecase.NewNarrativeClassifier(cfg.ClusterMatchThreshold)
	if err != nil {
		return nil, fmt.Errorf("init narrative classifier: %w", err)
	}
	aggregator := usecase.NewConfidenceAggregator(cfg.MinDimensions, cfg.PartialConfidenceCap)

	extractor := web.New(&http.Client{Timeout: cfg.ExtractTimeout})
	resultCache := cache.New(cache.Config{TTL: cfg.CacheTTL, Capacity: cfg.CacheCapacity})

	analyzer := usecase.NewAnalyzeArticleUseCase(
		extractor,
		scorer,
		aggregator,
		classifier,
		resultCache,
		store,
		pipelineMetrics,
		usecase.SlogProgressSink{},
		usecase.AnalyzeConfig{
			OverallTimeout:          cfg.AnalysisOverallTimeout,
			MaxConcurrentModelCalls: int64(cfg.ModelMaxConcurrent),
		},
	)

	return &App{
		Config:   cfg,
		Analyzer: analyzer,
		Metrics:  pipelineMetrics,
		Store:    store,
		Queue:    queue,

		closeFn: func() {
			for _, closeFn := range closers {
				closeFn()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
