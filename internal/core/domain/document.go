package domain

import "time"

// DimensionKind is one of the five fixed bias-scoring axes. The set is
// closed; dimensions are never added at runtime.
type DimensionKind string

const (
	DimensionIdeologicalStance  DimensionKind = "ideological_stance"
	DimensionFactualGrounding   DimensionKind = "factual_grounding"
	DimensionFramingChoices     DimensionKind = "framing_choices"
	DimensionEmotionalTone      DimensionKind = "emotional_tone"
	DimensionSourceTransparency DimensionKind = "source_transparency"
)

// AllDimensions lists the scoring axes in declaration order.
var AllDimensions = []DimensionKind{
	DimensionIdeologicalStance,
	DimensionFactualGrounding,
	DimensionFramingChoices,
	DimensionEmotionalTone,
	DimensionSourceTransparency,
}

// Document is a canonical extracted article. Immutable once built by the
// content extractor; owned by the orchestrator for the request's lifetime.
type Document struct {
	Fingerprint string    `json:"fingerprint"`
	SourceURL   string    `json:"source_url,omitempty"`
	Source      string    `json:"source,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	// Quality estimates how much usable article text survived extraction,
	// in [0,1]. Consumed by confidence aggregation.
	Quality float64 `json:"quality"`
}

// DimensionScore is one axis of a bias analysis. Produced exactly once per
// dimension per attempt, never partially mutated.
type DimensionScore struct {
	Kind               DimensionKind `json:"kind"`
	Value              float64       `json:"value"`
	HighlightedPhrases []string      `json:"highlighted_phrases"`
	Rationale          string        `json:"rationale"`
}

// AnalysisResult is a sealed bias analysis. Callers only ever see sealed
// results; no dimension slot is exposed while still in flight.
type AnalysisResult struct {
	DocumentFingerprint string                           `json:"document_fingerprint"`
	SourceURL           string                           `json:"source_url,omitempty"`
	Source              string                           `json:"source,omitempty"`
	Title               string                           `json:"title"`
	Scores              map[DimensionKind]DimensionScore `json:"scores"`
	Confidence          float64                          `json:"confidence"`
	NarrativeCluster    string                           `json:"narrative_cluster,omitempty"`
	ComputedAt          time.Time                        `json:"computed_at"`
	LatencyMs           float64                          `json:"latency_ms"`
	Partial             bool                             `json:"partial"`
}

// NarrativeCluster is a catalog entry describing a recurring coverage
// pattern: a reference score vector plus lexical markers.
type NarrativeCluster struct {
	Label     string                    `json:"label" yaml:"label"`
	Signature map[DimensionKind]float64 `json:"signature" yaml:"signature"`
	Keywords  []string                  `json:"keywords" yaml:"keywords"`
}

// AnalysisJob is a queued batch-analysis request.
type AnalysisJob struct {
	JobID    string   `json:"job_id"`
	Input    string   `json:"input"`
	Priority Priority `json:"priority,omitempty"`
}

// MetricsSnapshot is the read-only view of process-wide pipeline counters.
type MetricsSnapshot struct {
	ArticlesProcessed int64   `json:"articles_processed"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	SuccessRate       float64 `json:"success_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
}
