package utils

import (
	"errors"
	"net/http"

	"multitenant-rag-platform/internal/store"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error payload for every endpoint.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithUnauthorized sends a 401 Unauthorized error
func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// RespondWithForbidden sends a 403 Forbidden error
func RespondWithForbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, "forbidden", message, nil)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithStoreError maps tenant-store failures onto the error
// taxonomy; anything unrecognized becomes a 500.
func RespondWithStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrTenantNotFound):
		RespondWithError(c, http.StatusNotFound, "tenant_not_found", "Tenant not found", nil)
	case errors.Is(err, store.ErrTenantInactive):
		RespondWithError(c, http.StatusForbidden, "tenant_inactive", "Tenant account is suspended", nil)
	case errors.Is(err, store.ErrQuotaExceeded):
		RespondWithError(c, http.StatusForbidden, "quota_exceeded", "Document limit reached for this tenant", nil)
	case errors.Is(err, store.ErrDocumentNotFound):
		RespondWithError(c, http.StatusNotFound, "document_not_found", "Document not found", nil)
	case errors.Is(err, store.ErrDuplicateDomain):
		RespondWithError(c, http.StatusConflict, "domain_taken", "A tenant with this domain already exists", nil)
	default:
		RespondWithInternalError(c, "Unexpected storage error", nil)
	}
}

// ExtractTokenFromHeader strips the Bearer prefix from an
// Authorization header value.
func ExtractTokenFromHeader(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
