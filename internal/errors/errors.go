// Package errors provides custom error types for the InvoiceFlow API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is(err, sentinel).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Not authorized, no token", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Not authorized, token failed", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey      = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrRateLimited    = &AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later", StatusCode: http.StatusTooManyRequests}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "Server error", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "User already exists with this email", StatusCode: http.StatusConflict}
)

// Client errors.
var (
	ErrClientNotFound     = &AppError{Code: "CLIENT_NOT_FOUND", Message: "Client not found", StatusCode: http.StatusNotFound}
	ErrInvalidClient      = &AppError{Code: "INVALID_CLIENT", Message: "Client not found", StatusCode: http.StatusBadRequest}
	ErrClientInUse        = &AppError{Code: "CLIENT_IN_USE", Message: "Client is referenced by existing invoices", StatusCode: http.StatusConflict}
	ErrClientEmailMissing = &AppError{Code: "CLIENT_EMAIL_MISSING", Message: "Client does not have an email address", StatusCode: http.StatusBadRequest}
)

// Invoice errors.
var (
	ErrInvoiceNotFound = &AppError{Code: "INVOICE_NOT_FOUND", Message: "Invoice not found", StatusCode: http.StatusNotFound}
	ErrPDFRender       = &AppError{Code: "PDF_RENDER_FAILED", Message: "Error generating PDF invoice", StatusCode: http.StatusInternalServerError}
)

// Email errors.
var (
	ErrEmailSendFailed    = &AppError{Code: "EMAIL_SEND_FAILED", Message: "Failed to send email", StatusCode: http.StatusBadGateway}
	ErrEmailNotConfigured = &AppError{Code: "EMAIL_NOT_CONFIGURED", Message: "Email service not configured properly", StatusCode: http.StatusBadRequest}
)
