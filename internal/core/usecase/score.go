package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/biaslab/bias-engine/internal/core/domain"
	"github.com/biaslab/bias-engine/internal/core/ports"
)

// ScorePolicy bounds retries of a single dimension-scoring call. Jitter is
// a fraction of the current backoff, applied uniformly in both directions.
type ScorePolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	JitterFraction float64
}

func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

func (p ScorePolicy) normalize() ScorePolicy {
	out := p
	def := DefaultScorePolicy()
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = def.MaxAttempts
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = def.InitialBackoff
	}
	if out.MaxBackoff < out.InitialBackoff {
		out.MaxBackoff = out.InitialBackoff
	}
	if out.Multiplier < 1.0 {
		out.Multiplier = def.Multiplier
	}
	if out.JitterFraction < 0 || out.JitterFraction >= 1 {
		out.JitterFraction = def.JitterFraction
	}
	return out
}

// DimensionScorer scores one bias dimension for a document, retrying
// transient model failures with exponential backoff. A scorer failure never
// aborts sibling dimension calls; the orchestrator collects it instead.
type DimensionScorer struct {
	model   ports.AnalysisModel
	metrics ports.MetricsRecorder
	policy  ScorePolicy
}

func NewDimensionScorer(model ports.AnalysisModel, metrics ports.MetricsRecorder, policy ScorePolicy) *DimensionScorer {
	return &DimensionScorer{
		model:   model,
		metrics: metrics,
		policy:  policy.normalize(),
	}
}

func (s *DimensionScorer) Score(ctx context.Context, doc *domain.Document, kind domain.DimensionKind) (domain.DimensionScore, error) {
	var lastErr error
	backoff := s.policy.InitialBackoff

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		start := time.Now()
		score, err := s.model.ScoreDimension(ctx, doc, kind)
		elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
		if err == nil {
			err = validateScore(score, kind)
		}
		s.metrics.RecordDuration("model_call", elapsedMs)
		if err == nil {
			s.metrics.Increment("model_call.success")
			return score, nil
		}

		s.metrics.Increment("model_call.error")
		lastErr = err
		if !retryableScoreError(err) || attempt == s.policy.MaxAttempts {
			break
		}
		s.metrics.Increment("model_call.retry")

		if waited := s.waitBackoff(ctx, backoff); !waited {
			break
		}
		backoff = time.Duration(float64(backoff) * s.policy.Multiplier)
		if backoff > s.policy.MaxBackoff {
			backoff = s.policy.MaxBackoff
		}
	}

	return domain.DimensionScore{}, domain.WrapError(domain.ErrModel, "score "+string(kind), lastErr)
}

// waitBackoff sleeps for the jittered backoff; false means the context died
// while waiting.
func (s *DimensionScorer) waitBackoff(ctx context.Context, backoff time.Duration) bool {
	wait := backoff
	if s.policy.JitterFraction > 0 {
		spread := s.policy.JitterFraction * float64(backoff)
		wait = backoff + time.Duration((rand.Float64()*2-1)*spread)
	}
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// validateScore enforces the fixed score shape at the model boundary.
// Out-of-range values are rejected as malformed, never silently clamped.
func validateScore(score domain.DimensionScore, kind domain.DimensionKind) error {
	if score.Kind != kind {
		return domain.WrapError(domain.ErrTemporary, "validate score",
			fmt.Errorf("model answered dimension %q, asked %q", score.Kind, kind))
	}
	if score.Value < 0 || score.Value > 100 {
		return domain.WrapError(domain.ErrTemporary, "validate score",
			fmt.Errorf("value %.2f outside [0,100]", score.Value))
	}
	return nil
}

func retryableScoreError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return domain.IsKind(err, domain.ErrTemporary)
}
