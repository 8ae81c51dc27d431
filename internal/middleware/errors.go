package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/avpulse/internal/domain/dto"
)

// ErrorHandler turns errors attached with c.Error into a 500 JSON response
// when the handler did not write one itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(c, "Internal server error", c.Errors.Last().Err))
}

// AbortWithError stops the chain and writes a dto.ErrorResponse with status.
// err, when not nil, is also attached to the context for RequestLogger.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.AbortWithStatusJSON(status, errorBody(c, message, err))
}

// errorBody builds the error payload tagged with the request id.
func errorBody(c *gin.Context, message string, err error) dto.ErrorResponse {
	return dto.NewErrorResponse(message, err).WithRequestID(RequestIDFrom(c))
}

// Timeout bounds the request context. Handlers pass c.Request.Context() to
// the provider and the store, so both stop when d elapses.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
