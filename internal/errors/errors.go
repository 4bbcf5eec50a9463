package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable code clients branch on. The HTTP status
// is derived from it in httputil.
type ErrorCode string

const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotVerified  ErrorCode = "ACCOUNT_NOT_VERIFIED"

	// Verification credentials. Expired and invalid are kept apart so the
	// client can offer a resend instead of a retry.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidCode  ErrorCode = "INVALID_CODE"
	ErrCodeCodeExpired  ErrorCode = "CODE_EXPIRED"

	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeConflict      ErrorCode = "CONFLICT"

	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError carries a user-facing message alongside an optional cause that
// is never sent to the client.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError with the same code, so callers can write
// errors.Is(err, apperrors.InvalidCode()).
func (e *AppError) Is(target error) bool {
	var other *AppError
	return errors.As(target, &other) && other.Code == e.Code
}

// ServerSide reports failures the client could not have caused. These are
// logged; everything else is an expected outcome.
func (e *AppError) ServerSide() bool {
	switch e.Code {
	case ErrCodeInternal, ErrCodeDatabase, ErrCodeExternal:
		return true
	}
	return false
}

func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

func Unauthorized(message string) *AppError { return New(ErrCodeUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(ErrCodeForbidden, message) }

func NotVerified() *AppError {
	return New(ErrCodeNotVerified, "Please verify your email before logging in. Check your inbox or resend the code.")
}

func InvalidToken(message string) *AppError { return New(ErrCodeInvalidToken, message) }
func TokenExpired(message string) *AppError { return New(ErrCodeTokenExpired, message) }

func InvalidCode() *AppError {
	return New(ErrCodeInvalidCode, "Invalid verification code. Try again or request a new one.")
}

func CodeExpired() *AppError {
	return New(ErrCodeCodeExpired, "Code expired or not set. Request a new one.")
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, resource+" not found")
}

func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, resource+" already exists")
}

func ValidationError(message string) *AppError { return New(ErrCodeValidation, message) }

func InvalidInput(field, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, field+" is required")
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Too many attempts. Please wait and try again.")
}

func Internal(message string) *AppError { return New(ErrCodeInternal, message) }

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, "External service error: "+service, cause)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode falls back to ErrCodeInternal for errors that are not AppErrors.
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
