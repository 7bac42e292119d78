// Package httpapi exposes the ingestion and retrieval pipeline over HTTP
// with gin.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// APIError is the error body returned by every endpoint.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// respondDomainError maps a domain error to a status code.
func respondDomainError(c *gin.Context, err error) {
	respondError(c, statusFor(err), codeFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrChunkingConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrDuplicateDocument),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrEmbeddingProviderUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrEmbeddingBatchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrDuplicateDocument):
		return "duplicate_document"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return domain.ErrorType(err)
	}
}
