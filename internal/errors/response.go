package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable code (codes.go)
	Message string `json:"message"` // human-readable message
}

// ValidationErrorResponse carries every violation found, not just the first.
type ValidationErrorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// RespondWithViolations reports an intake validation failure with the full
// list of violations so the caller can fix them all in one pass.
func RespondWithViolations(c *gin.Context, errorCode string, violations []string) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:      errorCode,
		Message:    "Request validation failed",
		Violations: violations,
	})
}
