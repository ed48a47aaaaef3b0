// Package errors provides custom error types for the minibooks API.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidSignature   = &AppError{Code: "INVALID_SIGNATURE", Message: "Webhook signature verification failed", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Reconciliation pipeline errors.
var (
	ErrValidation           = &AppError{Code: "VALIDATION_FAILED", Message: "Transaction failed validation", StatusCode: http.StatusBadRequest}
	ErrDuplicateTransaction = &AppError{Code: "DUPLICATE_TRANSACTION", Message: "A transaction with this external ID already exists", StatusCode: http.StatusConflict}
	ErrTransactionNotFound  = &AppError{Code: "PROVIDER_TRANSACTION_NOT_FOUND", Message: "Provider transaction not found", StatusCode: http.StatusNotFound}
	ErrAlreadyProcessed     = &AppError{Code: "ALREADY_PROCESSED", Message: "Transaction already has an associated ledger entry", StatusCode: http.StatusConflict}
	ErrUpstreamFetch        = &AppError{Code: "UPSTREAM_FETCH_FAILED", Message: "Failed to fetch transactions from the provider", StatusCode: http.StatusBadGateway}
)
