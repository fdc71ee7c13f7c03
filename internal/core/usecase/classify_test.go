package usecase

import (
	"testing"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

func TestClassifyExactSignatureMatch(t *testing.T) {
	classifier, err := NewNarrativeClassifier(0.35)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}

	scores := scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance:  45,
		domain.DimensionFactualGrounding:   60,
		domain.DimensionFramingChoices:     85,
		domain.DimensionEmotionalTone:      90,
		domain.DimensionSourceTransparency: 40,
	})
	doc := &domain.Document{Title: "Untitled", Body: "plain article text"}

	cluster := classifier.Classify(doc, scores)
	if cluster == nil {
		t.Fatal("expected a cluster for an exact signature match")
	}
	if cluster.Label != "privacy-alarmist" {
		t.Fatalf("expected privacy-alarmist, got %s", cluster.Label)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	classifier, err := NewNarrativeClassifier(0.35)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}

	doc := &domain.Document{Title: "t", Body: "b"}
	first := classifier.Classify(doc, fullScoreSet())
	for i := 0; i < 5; i++ {
		next := classifier.Classify(doc, fullScoreSet())
		if (first == nil) != (next == nil) {
			t.Fatal("classification flip-flopped on identical input")
		}
		if first != nil && first.Label != next.Label {
			t.Fatalf("label changed: %s vs %s", first.Label, next.Label)
		}
	}
}

func TestClassifyNoMatchBeyondThreshold(t *testing.T) {
	classifier, err := NewNarrativeClassifier(0.35)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}

	scores := scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance:  0,
		domain.DimensionFactualGrounding:   0,
		domain.DimensionFramingChoices:     100,
		domain.DimensionEmotionalTone:      100,
		domain.DimensionSourceTransparency: 0,
	})
	doc := &domain.Document{Title: "t", Body: "nothing lexical here"}

	if cluster := classifier.Classify(doc, scores); cluster != nil {
		t.Fatalf("expected no cluster, got %s", cluster.Label)
	}
}

func TestClassifyKeywordsPullBorderlineMatch(t *testing.T) {
	classifier, err := NewNarrativeClassifier(0.35)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}

	// Same vector as the no-match case; the lexical signal closes the gap.
	scores := scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance:  0,
		domain.DimensionFactualGrounding:   0,
		domain.DimensionFramingChoices:     100,
		domain.DimensionEmotionalTone:      100,
		domain.DimensionSourceTransparency: 0,
	})
	doc := &domain.Document{
		Title: "A dangerous new threat",
		Body:  "Experts call the feature invasive and a gift to stalkers.",
	}

	cluster := classifier.Classify(doc, scores)
	if cluster == nil {
		t.Fatal("expected keyword signal to produce a match")
	}
	if cluster.Label != "privacy-alarmist" {
		t.Fatalf("expected privacy-alarmist, got %s", cluster.Label)
	}
}

func TestClassifyIncompleteScores(t *testing.T) {
	classifier, err := NewNarrativeClassifier(0.35)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}

	scores := scoresFromValues(map[domain.DimensionKind]float64{
		domain.DimensionIdeologicalStance: 45,
		domain.DimensionFactualGrounding:  60,
	})
	doc := &domain.Document{Title: "t", Body: "b"}

	if cluster := classifier.Classify(doc, scores); cluster != nil {
		t.Fatalf("partial score set must not classify, got %s", cluster.Label)
	}
}
