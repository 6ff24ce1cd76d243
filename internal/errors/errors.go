package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Taxonomy errors. Domain errors wrap one of these so MapErrorToHTTP can
// resolve a status with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoFile          = errors.New("no file uploaded")
	ErrStorage         = errors.New("storage error")
)

var (
	// ErrUserAlreadyExists is returned when the username or email is taken.
	ErrUserAlreadyExists = fmt.Errorf("%w: user already exists", ErrConflict)
	// ErrInvalidCredentials is returned for any failed login. The message is
	// identical for unknown emails and wrong passwords.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	// ErrInvalidToken is returned for missing, malformed, expired or revoked tokens.
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	// ErrUserNotFound is returned when a user record does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrNotFound)
	// ErrDocumentNotFound also masks documents the caller may not see.
	ErrDocumentNotFound = fmt.Errorf("%w: document not found", ErrNotFound)
	// ErrFileMissing is returned when the record exists but its file does not.
	ErrFileMissing = fmt.Errorf("%w: file not found on server", ErrNotFound)
	// ErrNotApproved is returned when printing a document that is not approved.
	ErrNotApproved = fmt.Errorf("%w: document must be approved before printing", ErrForbidden)
	// ErrBossOnly is returned when a non-boss attempts an approval.
	ErrBossOnly = fmt.Errorf("%w: only bosses can approve documents", ErrForbidden)
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// WithDetails returns a copy of the error carrying extra detail text.
func (e *HTTPError) WithDetails(details string) *HTTPError {
	cp := *e
	cp.Details = details
	return &cp
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}

// DetailError attaches client-facing details to a sentinel error.
type DetailError struct {
	Err     error
	Details string
}

func (e *DetailError) Error() string {
	return e.Err.Error() + ": " + e.Details
}

func (e *DetailError) Unwrap() error {
	return e.Err
}

// WithDetails wraps err so that the HTTP response carries details.
func WithDetails(err error, format string, args ...any) error {
	return &DetailError{Err: err, Details: fmt.Sprintf(format, args...)}
}

// Validation wraps a message as a validation error.
func Validation(format string, args ...any) error {
	return WithDetails(ErrValidation, format, args...)
}

// Storage wraps a low-level failure as a storage error.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// MapErrorToHTTP maps domain errors to HTTP errors. The most specific
// sentinel wins; its message is the one shown to clients.
func MapErrorToHTTP(err error) *HTTPError {
	httpErr := mapError(err)
	var detail *DetailError
	if httpErr != nil && httpErr.Details == "" && errors.As(err, &detail) {
		httpErr = httpErr.WithDetails(detail.Details)
	}
	return httpErr
}

func mapError(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, "user already exists", "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "invalid credentials", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
	case errors.Is(err, ErrNotApproved):
		return NewHTTPError(http.StatusForbidden, "document must be approved before printing", "NOT_APPROVED")
	case errors.Is(err, ErrBossOnly):
		return NewHTTPError(http.StatusForbidden, "only bosses can approve documents", "FORBIDDEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, "access denied", "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, "user not found", "USER_NOT_FOUND")
	case errors.Is(err, ErrFileMissing):
		return NewHTTPError(http.StatusNotFound, "file not found on server", "FILE_NOT_FOUND")
	case errors.Is(err, ErrDocumentNotFound):
		return NewHTTPError(http.StatusNotFound, "document not found", "DOCUMENT_NOT_FOUND")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found", "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, "conflict", "CONFLICT")
	case errors.Is(err, ErrNoFile):
		return NewHTTPError(http.StatusBadRequest, "no file uploaded", "NO_FILE")
	case errors.Is(err, ErrFileTooLarge):
		return NewHTTPError(http.StatusBadRequest, "file upload error", "FILE_TOO_LARGE")
	case errors.Is(err, ErrUnsupportedType):
		return NewHTTPError(http.StatusBadRequest, "file upload error", "UNSUPPORTED_TYPE")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, "validation error", "VALIDATION_ERROR")
	case errors.Is(err, ErrStorage):
		return NewHTTPError(http.StatusInternalServerError, "error uploading document", "STORAGE_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
