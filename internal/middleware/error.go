package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/logger"
)

// ErrorBody builds the JSON envelope for an AppError.
func ErrorBody(appErr *apperrors.AppError) gin.H {
	return gin.H{
		"success": false,
		"message": appErr.Message,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, ErrorBody(appErr))
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. AppErrors are returned with
// their code and message; unexpected errors are logged and return a generic
// internal error to avoid leaking details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logger.Get().Errorw("app error",
					"code", appErr.Code,
					"message", appErr.Message,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
			c.JSON(appErr.StatusCode, ErrorBody(appErr))
			return
		}

		// Unexpected error: log full details, return generic message
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorBody(apperrors.ErrInternalServer))
	}
}

// NotFound answers unknown routes with the standard error envelope.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Route not found"))
	}
}
