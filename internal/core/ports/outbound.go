package ports

import (
	"context"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

// ContentExtractor resolves a URL or raw article text into a canonical
// document. Fails with domain.ErrFetch or domain.ErrParse.
type ContentExtractor interface {
	Extract(ctx context.Context, urlOrText string) (*domain.Document, error)
}

// AnalysisModel scores one bias dimension through the external reasoning
// service. Transient failures are wrapped as domain.ErrTemporary; retry
// policy belongs to the caller.
type AnalysisModel interface {
	ScoreDimension(ctx context.Context, doc *domain.Document, kind domain.DimensionKind) (domain.DimensionScore, error)
}

// ResultCache deduplicates and memoizes sealed analyses by key. A compute
// already in flight for a key is joined, not duplicated; the computation
// outlives any individual caller. The bool reports a cache hit.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) (*domain.AnalysisResult, error)) (*domain.AnalysisResult, bool, error)
	Put(key string, result *domain.AnalysisResult)
}

// ResultStore persists sealed analyses keyed by document fingerprint.
type ResultStore interface {
	Save(ctx context.Context, result *domain.AnalysisResult) error
	GetByFingerprint(ctx context.Context, fingerprint string) (*domain.AnalysisResult, error)
}

// AnalysisQueue publishes/consumes batch analysis jobs.
type AnalysisQueue interface {
	PublishAnalysisJob(ctx context.Context, job domain.AnalysisJob) error
	SubscribeAnalysisJobs(ctx context.Context, handler func(context.Context, domain.AnalysisJob) error) error
}

// MetricsRecorder collects process-wide pipeline counters. Calls are
// fire-and-forget and must never block the pipeline.
type MetricsRecorder interface {
	Increment(name string)
	RecordDuration(name string, ms float64)
}

// ProgressSink consumes pipeline state transitions. Fire-and-forget.
type ProgressSink interface {
	StateChanged(key string, from, to domain.AnalysisState)
}
