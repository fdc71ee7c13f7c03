package domain

import "fmt"

// AnalysisState tracks a request through the pipeline. The failed state is
// terminal and reachable only while extracting; from scoring onward,
// per-dimension failures degrade toward a partial sealing instead.
type AnalysisState string

const (
	StatePending     AnalysisState = "pending"
	StateExtracting  AnalysisState = "extracting"
	StateScoring     AnalysisState = "scoring"
	StateAggregating AnalysisState = "aggregating"
	StateClassifying AnalysisState = "classifying"
	StateSealed      AnalysisState = "sealed"
	StateFailed      AnalysisState = "failed"
)

// Priority shapes the overall time budget of a request. It never reorders
// the shared model-call pool.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func ParsePriority(raw string) (Priority, error) {
	switch raw {
	case "":
		return PriorityNormal, nil
	case string(PriorityLow), string(PriorityNormal), string(PriorityHigh):
		return Priority(raw), nil
	default:
		return "", WrapError(ErrInvalidInput, "parse priority", fmt.Errorf("unknown priority %q", raw))
	}
}

// TimeoutFactor scales the configured per-request deadline.
func (p Priority) TimeoutFactor() float64 {
	switch p {
	case PriorityLow:
		return 0.5
	case PriorityHigh:
		return 2.0
	default:
		return 1.0
	}
}
