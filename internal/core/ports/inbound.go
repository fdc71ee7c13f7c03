package ports

import (
	"context"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

// AnalyzeRequest is the core-exposed analysis input.
type AnalyzeRequest struct {
	Input    string
	Priority domain.Priority
}

// ArticleAnalyzer is the inbound contract for the bias pipeline.
type ArticleAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisResult, error)
}

// MetricsReader exposes the process-wide counter snapshot.
type MetricsReader interface {
	Snapshot() domain.MetricsSnapshot
}
