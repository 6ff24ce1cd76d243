package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork means the server could not be reached at all.
	ErrNetwork = errors.New("network error")
	// ErrTimeout means the server did not answer within the client timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrSessionExpired is returned after a 401 on an authenticated call.
	// The stored session has already been purged.
	ErrSessionExpired = errors.New("session expired")
	// ErrLoginRequired is returned by Guard when nobody is logged in.
	ErrLoginRequired = errors.New("login required")
	// ErrRedirectHome is returned by Guard when the role does not match.
	ErrRedirectHome = errors.New("view not available for this role")
	// ErrUnknownView is returned by Guard for views not in the table.
	ErrUnknownView = errors.New("unknown view")
)

// APIError is an error response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string

	expired bool
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Unwrap exposes ErrSessionExpired for 401s that purged the session.
func (e *APIError) Unwrap() error {
	if e.expired {
		return ErrSessionExpired
	}
	return nil
}

// Describe turns an error into the text shown to a user.
func Describe(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrTimeout):
		return "Request timed out. Please try again."
	case errors.Is(err, ErrNetwork):
		return "Unable to connect to the server. Please check your internet connection."
	case errors.Is(err, ErrLoginRequired):
		return "Please log in first."
	case errors.Is(err, ErrRedirectHome):
		return "You do not have access to that page."
	case errors.As(err, &apiErr):
		if apiErr.Message == "" {
			return http.StatusText(apiErr.Status)
		}
		return apiErr.Error()
	default:
		return err.Error()
	}
}
