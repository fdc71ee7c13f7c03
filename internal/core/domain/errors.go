package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks a document that could not be retrieved (unreachable,
	// blocked, non-2xx). Fatal for the request, never retried by the core.
	ErrFetch = errors.New("document fetch failed")
	// ErrParse marks a response with no extractable article text. Fatal for
	// the request, never retried by the core.
	ErrParse = errors.New("no extractable text")
	// ErrModel marks a single dimension whose scoring attempts are
	// exhausted. Local to that dimension; degrades the result to partial.
	ErrModel = errors.New("model scoring failed")
	// ErrAllDimensionsFailed is raised only when every dimension exhausted
	// its retries; surfaced as a request-level failure.
	ErrAllDimensionsFailed = errors.New("all dimensions failed")

	ErrResultNotFound = errors.New("analysis result not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
