package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/config"
	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/logger"
	"invoiceflow/internal/middleware"
	"invoiceflow/internal/pagination"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
// Email provider detail is included outside production.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		body := middleware.ErrorBody(appErr)
		if appErr.Code == apperrors.ErrEmailSendFailed.Code && appErr.Internal != nil && !config.Get().IsProduction() {
			body["details"] = appErr.Internal.Error()
		}
		c.JSON(appErr.StatusCode, body)
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, middleware.ErrorBody(apperrors.ErrInternalServer))
}

// invalidInput wraps a binding or parsing error as a 400.
func invalidInput(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// parseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: use YYYY-MM-DD or RFC3339", field, value)
	}
	return t, nil
}

// parseOptionalDate is parseDate for optional fields; nil and "" yield nil.
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// listBody is the success envelope for paginated lists.
func listBody[T any](page *pagination.PageResponse[T]) gin.H {
	return gin.H{
		"success":    true,
		"count":      len(page.Data),
		"page":       page.Page,
		"pageSize":   page.PageSize,
		"totalItems": page.TotalItems,
		"totalPages": page.TotalPages,
		"data":       page.Data,
	}
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool        `json:"success" example:"false"`
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
	Details string      `json:"details,omitempty"`
}

// MessageResponse is a success response carrying only a message.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message"`
}
