package usecase

import (
	"math"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

// Confidence weighting. Coverage rewards fully scored analyses,
// decisiveness rewards scores away from the 50 midpoint, quality carries
// the extraction signal, steadiness lightly rewards low cross-dimension
// spread so a legitimately polarized article is not punished.
const (
	weightCoverage     = 0.35
	weightDecisiveness = 0.35
	weightQuality      = 0.20
	weightSteadiness   = 0.10
)

// ConfidenceAggregator folds per-dimension scores and extraction quality
// into a single confidence value. Deterministic for identical inputs.
type ConfidenceAggregator struct {
	minDimensions int
	partialCap    float64
}

func NewConfidenceAggregator(minDimensions int, partialCap float64) *ConfidenceAggregator {
	if minDimensions <= 0 {
		minDimensions = 3
	}
	if partialCap <= 0 || partialCap > 1 {
		partialCap = 0.5
	}
	return &ConfidenceAggregator{minDimensions: minDimensions, partialCap: partialCap}
}

// Aggregate returns confidence in [0,1] and whether the result is partial.
// Any missing dimension marks the result partial and caps confidence; below
// the minimum-dimensions threshold coverage degrades it further.
func (a *ConfidenceAggregator) Aggregate(scores map[domain.DimensionKind]domain.DimensionScore, extractionQuality float64) (float64, bool) {
	n := len(scores)
	if n == 0 {
		return 0, true
	}
	quality := clamp01(extractionQuality)

	coverage := float64(n) / float64(len(domain.AllDimensions))

	var sum, decisivenessSum float64
	for _, score := range scores {
		sum += score.Value
		decisivenessSum += math.Abs(score.Value-50.0) / 50.0
	}
	mean := sum / float64(n)
	decisiveness := decisivenessSum / float64(n)

	var varianceSum float64
	for _, score := range scores {
		delta := score.Value - mean
		varianceSum += delta * delta
	}
	stddev := math.Sqrt(varianceSum / float64(n))
	steadiness := 1.0 - stddev/50.0
	if steadiness < 0 {
		steadiness = 0
	}

	confidence := weightCoverage*coverage +
		weightDecisiveness*decisiveness +
		weightQuality*quality +
		weightSteadiness*steadiness

	partial := n < len(domain.AllDimensions)
	if n < a.minDimensions {
		confidence *= coverage
	}
	if partial && confidence > a.partialCap {
		confidence = a.partialCap
	}
	return clamp01(confidence), partial
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
