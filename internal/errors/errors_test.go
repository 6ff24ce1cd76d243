package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{name: "duplicate user", err: WithDetails(ErrUserAlreadyExists, "email already exists"), wantStatus: http.StatusConflict, wantCode: "USER_ALREADY_EXISTS", wantDetail: "email already exists"},
		{name: "invalid credentials", err: ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_CREDENTIALS"},
		{name: "expired token", err: ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "not approved", err: ErrNotApproved, wantStatus: http.StatusForbidden, wantCode: "NOT_APPROVED"},
		{name: "forbidden", err: ErrForbidden, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "wrapped document not found", err: fmt.Errorf("get: %w", ErrDocumentNotFound), wantStatus: http.StatusNotFound, wantCode: "DOCUMENT_NOT_FOUND"},
		{name: "missing file", err: ErrFileMissing, wantStatus: http.StatusNotFound, wantCode: "FILE_NOT_FOUND"},
		{name: "validation", err: Validation("title is required"), wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantDetail: "title is required"},
		{name: "too large", err: WithDetails(ErrFileTooLarge, "limit is 10 bytes"), wantStatus: http.StatusBadRequest, wantCode: "FILE_TOO_LARGE", wantDetail: "limit is 10 bytes"},
		{name: "unsupported", err: ErrUnsupportedType, wantStatus: http.StatusBadRequest, wantCode: "UNSUPPORTED_TYPE"},
		{name: "no file", err: ErrNoFile, wantStatus: http.StatusBadRequest, wantCode: "NO_FILE"},
		{name: "storage", err: Storage("write file", fmt.Errorf("disk full")), wantStatus: http.StatusInternalServerError, wantCode: "STORAGE_ERROR"},
		{name: "unknown", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantDetail, httpErr.Details)
		})
	}
}

func TestMapErrorToHTTP_PassesThroughHTTPError(t *testing.T) {
	in := NewHTTPError(http.StatusTeapot, "short and stout", "TEAPOT")
	assert.Same(t, in, MapErrorToHTTP(in))
	assert.Nil(t, MapErrorToHTTP(nil))
}

func TestInvalidCredentialsMessageIsUniform(t *testing.T) {
	unknown := MapErrorToHTTP(ErrInvalidCredentials)
	wrapped := MapErrorToHTTP(fmt.Errorf("login: %w", ErrInvalidCredentials))
	assert.Equal(t, unknown.ToErrorResponse(), wrapped.ToErrorResponse())
}
