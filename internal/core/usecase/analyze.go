package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/biaslab/bias-engine/internal/core/domain"
	"github.com/biaslab/bias-engine/internal/core/ports"
)

// AnalyzeConfig tunes the orchestrator.
type AnalyzeConfig struct {
	// OverallTimeout bounds one analysis computation end to end; request
	// priority scales it. Independent of per-dimension call timeouts.
	OverallTimeout time.Duration
	// MaxConcurrentModelCalls sizes the global scoring pool shared across
	// requests, matched to the external service's rate limit.
	MaxConcurrentModelCalls int64
}

func (c AnalyzeConfig) normalize() AnalyzeConfig {
	out := c
	if out.OverallTimeout <= 0 {
		out.OverallTimeout = 45 * time.Second
	}
	if out.MaxConcurrentModelCalls <= 0 {
		out.MaxConcurrentModelCalls = 10
	}
	return out
}

// AnalyzeArticleUseCase coordinates one bias analysis per request: cache
// gate, extraction, bounded fan-out over the five dimensions, aggregation,
// classification, sealing.
type AnalyzeArticleUseCase struct {
	extractor  ports.ContentExtractor
	scorer     *DimensionScorer
	aggregator *ConfidenceAggregator
	classifier *NarrativeClassifier
	cache      ports.ResultCache
	store      ports.ResultStore
	metrics    ports.MetricsRecorder
	progress   ports.ProgressSink
	pool       *semaphore.Weighted
	cfg        AnalyzeConfig
}

func NewAnalyzeArticleUseCase(
	extractor ports.ContentExtractor,
	scorer *DimensionScorer,
	aggregator *ConfidenceAggregator,
	classifier *NarrativeClassifier,
	cache ports.ResultCache,
	store ports.ResultStore,
	metrics ports.MetricsRecorder,
	progress ports.ProgressSink,
	cfg AnalyzeConfig,
) *AnalyzeArticleUseCase {
	cfg = cfg.normalize()
	if progress == nil {
		progress = nopProgress{}
	}
	return &AnalyzeArticleUseCase{
		extractor:  extractor,
		scorer:     scorer,
		aggregator: aggregator,
		classifier: classifier,
		cache:      cache,
		store:      store,
		metrics:    metrics,
		progress:   progress,
		pool:       semaphore.NewWeighted(cfg.MaxConcurrentModelCalls),
		cfg:        cfg,
	}
}

// Analyze routes the request through the single-flight cache. The caller's
// context bounds only its own wait; a computation already shared with other
// joiners runs on its own budget and is cached regardless.
func (uc *AnalyzeArticleUseCase) Analyze(ctx context.Context, req ports.AnalyzeRequest) (*domain.AnalysisResult, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze", errors.New("empty input"))
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	key := domain.Fingerprint(input)
	result, hit, err := uc.cache.GetOrCompute(ctx, key, func(computeCtx context.Context) (*domain.AnalysisResult, error) {
		return uc.runPipeline(computeCtx, key, input, priority)
	})
	if err != nil {
		uc.metrics.Increment("analysis.failure")
		return nil, err
	}
	if hit {
		uc.metrics.Increment("cache.hit")
	} else {
		uc.metrics.Increment("cache.miss")
	}
	return result, nil
}

func (uc *AnalyzeArticleUseCase) runPipeline(ctx context.Context, key, input string, priority domain.Priority) (*domain.AnalysisResult, error) {
	start := time.Now()
	timeout := time.Duration(float64(uc.cfg.OverallTimeout) * priority.TimeoutFactor())
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	uc.metrics.Increment("analysis.begin")
	defer uc.metrics.Increment("analysis.end")

	uc.progress.StateChanged(key, domain.StatePending, domain.StateExtracting)
	doc, err := uc.extractor.Extract(ctx, input)
	if err != nil {
		uc.progress.StateChanged(key, domain.StateExtracting, domain.StateFailed)
		return nil, fmt.Errorf("extract document: %w", err)
	}

	uc.progress.StateChanged(key, domain.StateExtracting, domain.StateScoring)
	scores := uc.scoreAllDimensions(ctx, doc)
	if len(scores) == 0 {
		uc.progress.StateChanged(key, domain.StateScoring, domain.StateFailed)
		return nil, domain.WrapError(domain.ErrAllDimensionsFailed, "score document",
			fmt.Errorf("no dimension produced a score for %s", doc.Fingerprint))
	}

	uc.progress.StateChanged(key, domain.StateScoring, domain.StateAggregating)
	confidence, partial := uc.aggregator.Aggregate(scores, doc.Quality)

	uc.progress.StateChanged(key, domain.StateAggregating, domain.StateClassifying)
	clusterLabel := ""
	if cluster := uc.classifier.Classify(doc, scores); cluster != nil {
		clusterLabel = cluster.Label
	}

	result := &domain.AnalysisResult{
		DocumentFingerprint: doc.Fingerprint,
		SourceURL:           doc.SourceURL,
		Source:              doc.Source,
		Title:               doc.Title,
		Scores:              scores,
		Confidence:          confidence,
		NarrativeCluster:    clusterLabel,
		ComputedAt:          time.Now().UTC(),
		LatencyMs:           float64(time.Since(start).Microseconds()) / 1000.0,
		Partial:             partial,
	}
	uc.progress.StateChanged(key, domain.StateClassifying, domain.StateSealed)

	// Sealed results are reachable by document fingerprint too, so a raw
	// resubmission of the same body joins the cached entry.
	if doc.Fingerprint != key {
		uc.cache.Put(doc.Fingerprint, result)
	}
	uc.persist(ctx, result)

	uc.metrics.RecordDuration("analysis", result.LatencyMs)
	if partial {
		uc.metrics.Increment("analysis.partial")
	} else {
		uc.metrics.Increment("analysis.success")
	}
	return result, nil
}

// scoreAllDimensions fans out the five scorer calls through the global
// pool and waits for every one of them; dimension failures are collected,
// never propagated to siblings.
func (uc *AnalyzeArticleUseCase) scoreAllDimensions(ctx context.Context, doc *domain.Document) map[domain.DimensionKind]domain.DimensionScore {
	type outcome struct {
		score domain.DimensionScore
		err   error
	}
	outcomes := make([]outcome, len(domain.AllDimensions))

	var wg sync.WaitGroup
	for i, kind := range domain.AllDimensions {
		wg.Add(1)
		go func(i int, kind domain.DimensionKind) {
			defer wg.Done()
			if err := uc.pool.Acquire(ctx, 1); err != nil {
				outcomes[i] = outcome{err: domain.WrapError(domain.ErrModel, "acquire scoring slot", err)}
				return
			}
			defer uc.pool.Release(1)
			score, err := uc.scorer.Score(ctx, doc, kind)
			outcomes[i] = outcome{score: score, err: err}
		}(i, kind)
	}
	wg.Wait()

	scores := make(map[domain.DimensionKind]domain.DimensionScore, len(domain.AllDimensions))
	for i, kind := range domain.AllDimensions {
		if outcomes[i].err != nil {
			slog.Warn("dimension_failed", "fingerprint", doc.Fingerprint, "dimension", kind, "error", outcomes[i].err)
			continue
		}
		scores[kind] = outcomes[i].score
	}
	return scores
}

// persist is best effort; the sealed result is already cached and returned
// to callers even when the durable store is down or absent.
func (uc *AnalyzeArticleUseCase) persist(ctx context.Context, result *domain.AnalysisResult) {
	if uc.store == nil {
		return
	}
	if err := uc.store.Save(ctx, result); err != nil {
		slog.Error("persist_result", "fingerprint", result.DocumentFingerprint, "error", err)
	}
}

type nopProgress struct{}

func (nopProgress) StateChanged(string, domain.AnalysisState, domain.AnalysisState) {}

// SlogProgressSink reports pipeline state transitions to the process logger.
type SlogProgressSink struct{}

func (SlogProgressSink) StateChanged(key string, from, to domain.AnalysisState) {
	slog.Debug("analysis_state", "key", key, "from", from, "to", to)
}
