package httpadapter

import (
	"net/http"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrResultNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrFetch), domain.IsKind(err, domain.ErrParse):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrAllDimensionsFailed), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
