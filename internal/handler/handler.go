package handler

import (
	"github.com/labstack/echo/v4"

	"paperless/internal/auth"
	apperrors "paperless/internal/errors"
)

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// identity returns the authenticated caller set by the auth middleware.
func identity(c echo.Context) *auth.Identity {
	return auth.FromContext(c.Request().Context())
}

// bindAndValidate decodes the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return c.Validate(req)
}
