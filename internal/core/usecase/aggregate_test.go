package usecase

import (
	"testing"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

func scoresFromValues(values map[domain.DimensionKind]float64) map[domain.DimensionKind]domain.DimensionScore {
	scores := make(map[domain.DimensionKind]domain.DimensionScore, len(values))
	for kind, value := range values {
		scores[kind] = domain.DimensionScore{Kind: kind, Value: value}
	}
	return scores
}

func fullScoreSet() map[domain.DimensionKind]domain.DimensionScore {
	return scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance:  90,
		domain.DimensionFactualGrounding:   85,
		domain.DimensionFramingChoices:     20,
		domain.DimensionEmotionalTone:      15,
		domain.DimensionSourceTransparency: 88,
	})
}

func TestAggregateFullCoverageHighConfidence(t *testing.T) {
	agg := NewConfidenceAggregator(3, 0.5)

	confidence, partial := agg.Aggregate(fullScoreSet(), 0.9)
	if partial {
		t.Fatal("full coverage must not be partial")
	}
	if confidence < 0.8 {
		t.Fatalf("decisive full-coverage analysis should score high, got %.4f", confidence)
	}
	if confidence > 1 {
		t.Fatalf("confidence above 1: %.4f", confidence)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	agg := NewConfidenceAggregator(3, 0.5)

	first, _ := agg.Aggregate(fullScoreSet(), 0.75)
	second, _ := agg.Aggregate(fullScoreSet(), 0.75)
	if first != second {
		t.Fatalf("identical inputs diverged: %.6f vs %.6f", first, second)
	}
}

func TestAggregateMissingDimensionCapsConfidence(t *testing.T) {
	agg := NewConfidenceAggregator(3, 0.5)

	scores := scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance:  90,
		domain.DimensionFactualGrounding:   85,
		domain.DimensionSourceTransparency: 88,
	})
	confidence, partial := agg.Aggregate(scores, 0.9)
	if !partial {
		t.Fatal("missing dimensions must mark the result partial")
	}
	if confidence > 0.5 {
		t.Fatalf("partial confidence must be capped at 0.5, got %.4f", confidence)
	}
}

func TestAggregateBelowMinimumDegradesFurther(t *testing.T) {
	agg := NewConfidenceAggregator(3, 0.5)

	three, _ := agg.Aggregate(scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance: 90,
		domain.DimensionFactualGrounding:  90,
		domain.DimensionFramingChoices:    90,
	}), 0.9)
	two, _ := agg.Aggregate(scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance: 90,
		domain.DimensionFactualGrounding:  90,
	}), 0.9)
	if two >= three {
		t.Fatalf("below-threshold coverage should score lower: 2-dim %.4f vs 3-dim %.4f", two, three)
	}
}

func TestAggregateNoScores(t *testing.T) {
	agg := NewConfidenceAggregator(3, 0.5)

	confidence, partial := agg.Aggregate(nil, 0.9)
	if confidence != 0 || !partial {
		t.Fatalf("expected (0, true) for empty scores, got (%.4f, %v)", confidence, partial)
	}
}

func TestAggregateStaysInBounds(t *testing.T) {
	agg := NewConfidenceAggregator(3, 0.5)

	cases := []struct {
		name    string
		values  map[domain.DimensionKind]float64
		quality float64
	}{
		{"all midpoint", map[domain.DimensionKind]float64{
			domain.DimensionIdeologicalStance:  50,
			domain.DimensionFactualGrounding:   50,
			domain.DimensionFramingChoices:     50,
			domain.DimensionEmotionalTone:      50,
			domain.DimensionSourceTransparency: 50,
		}, 0},
		{"extremes", map[domain.DimensionKind]float64{
			domain.DimensionIdeologicalStance:  0,
			domain.DimensionFactualGrounding:   100,
			domain.DimensionFramingChoices:     0,
			domain.DimensionEmotionalTone:      100,
			domain.DimensionSourceTransparency: 0,
		}, 1},
		{"quality above one clamped", map[domain.DimensionKind]float64{
			domain.DimensionIdeologicalStance: 80,
		}, 3.5},
	}

	for _, tc := range cases {
		confidence, _ := agg.Aggregate(scoresFromValues(tc.values), tc.quality)
		if confidence < 0 || confidence > 1 {
			t.Fatalf("%s: confidence %.4f outside [0,1]", tc.name, confidence)
		}
	}
}
