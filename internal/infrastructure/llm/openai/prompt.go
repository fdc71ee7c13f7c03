package openai

import (
	"fmt"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

const maxArticleSnippet = 6000

// Scoring anchors per dimension, 0-100 scale.
var dimensionFraming = map[domain.DimensionKind]string{
	domain.DimensionIdeologicalStance:  "political lean (0=left, 50=center, 100=right)",
	domain.DimensionFactualGrounding:   "source quality and claim verification (0=poor, 100=excellent)",
	domain.DimensionFramingChoices:     "editorial slant and emphasis (0=neutral, 100=heavily framed)",
	domain.DimensionEmotionalTone:      "language neutrality (0=clinical, 100=inflammatory)",
	domain.DimensionSourceTransparency: "attribution clarity (0=vague, 100=clear)",
}

func buildDimensionPrompt(doc *domain.Document, kind domain.DimensionKind) string {
	snippet := doc.Body
	if len(snippet) > maxArticleSnippet {
		snippet = snippet[:maxArticleSnippet]
	}

	return fmt.Sprintf(`You are an expert media bias analyst. Score this article on one dimension only: %s, meaning %s.

Return a strict JSON object with keys:
value (number from 0 to 100), highlighted_phrases (array of 1-3 short quotes from the article that justify the score), rationale (one sentence).
No markdown, no extra keys.

Title: %s
Source: %s
Article:
%s`, kind, dimensionFraming[kind], doc.Title, doc.Source, snippet)
}
