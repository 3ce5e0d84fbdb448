package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`   // error code for frontend mapping
	Message string `json:"message"` // human-readable message
}

// RespondWithError writes a standard error response
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// Shorthand responders for common outcomes

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to do that"
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
