package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lablabs/shopgraph"
	"github.com/lablabs/shopgraph/internal/logging"
	"github.com/lablabs/shopgraph/internal/middlewares"
)

// ErrorHandler middleware maps errors attached to the context to a JSON
// response and logs them.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			status := StatusFor(err)
			logging.Error("Request error", map[string]interface{}{
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"status":     status,
				"request_id": c.GetString(middlewares.RequestIDKey),
				"error":      err.Error(),
			})
			if !c.Writer.Written() {
				c.JSON(status, gin.H{"error": err.Error()})
			}
		}
	}
}

// StatusFor maps an SDK error to the HTTP status the gateway answers with.
func StatusFor(err error) int {
	var bindErr *BindError
	switch {
	case errors.As(err, &bindErr), errors.Is(err, shopgraph.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shopgraph.ErrDomain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shopgraph.ErrRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// BindError wraps a malformed request body.
type BindError struct {
	Err error
}

func (e *BindError) Error() string { return "invalid request body: " + e.Err.Error() }

func (e *BindError) Unwrap() error { return e.Err }
