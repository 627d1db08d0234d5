package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the body of every failed response.
type APIError struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`

	// Missing names the session state generate is waiting for.
	Missing []string `json:"missing,omitempty"`

	// Reason tells a failed model call apart from an empty reply.
	Reason string `json:"reason,omitempty"`
}

// NewAPIError creates an APIError with optional details.
func NewAPIError(message string, details map[string]interface{}) *APIError {
	return &APIError{
		Error:   message,
		Details: details,
	}
}

func causeOf(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	return map[string]interface{}{"cause": err.Error()}
}

func abortWithBadRequest(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apiErr)
}

func abortWithInternalError(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, apiErr)
}
