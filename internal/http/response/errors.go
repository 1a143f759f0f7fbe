package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
)

// StatusOf maps a domain error code onto an HTTP status.
func StatusOf(code production.ErrorCode) int {
	switch code {
	case production.CodeNotFound:
		return http.StatusNotFound
	case production.CodeInvalidArgument:
		return http.StatusBadRequest
	case production.CodeInvalidState, production.CodeConflict:
		return http.StatusConflict
	case production.CodeConservationViolation:
		return http.StatusUnprocessableEntity
	case production.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError translates a service-layer error into the standard
// error envelope, preserving the domain code for API clients.
func RespondDomainError(c *gin.Context, err error) {
	code := production.CodeOf(err)
	if code == "" {
		code = production.CodeInternal
	}
	RespondError(c, StatusOf(code), string(code), err)
}
