package router

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paperless/internal/auth"
	apperrors "paperless/internal/errors"
)

// RequestLogger logs one line per request with zap.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Resolve the status now so the log line matches the response.
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []zap.Field{
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_out", res.Size),
				zap.String("remote_ip", c.RealIP()),
			}
			if identity := auth.FromContext(req.Context()); identity != nil {
				fields = append(fields, zap.String("user_id", identity.UserID.String()))
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error("request", append(fields, zap.Error(err))...)
			case res.Status >= http.StatusBadRequest:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}

// ErrorHandler normalises every error into {error, code, details?}. In
// production 5xx responses carry no details.
func ErrorHandler(log *zap.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := toHTTPError(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
			if production {
				httpErr = httpErr.WithDetails("")
			} else if httpErr.Details == "" {
				httpErr = httpErr.WithDetails(err.Error())
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(httpErr.StatusCode)
		} else {
			writeErr = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if writeErr != nil {
			log.Warn("write error response", zap.Error(writeErr))
		}
	}
}

func toHTTPError(err error) *apperrors.HTTPError {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return apperrors.MapErrorToHTTP(err)
	}
	if resp, ok := he.Message.(apperrors.ErrorResponse); ok {
		return &apperrors.HTTPError{StatusCode: he.Code, Message: resp.Error, Code: resp.Code, Details: resp.Details}
	}
	if he.Internal != nil {
		if mapped := apperrors.MapErrorToHTTP(he.Internal); mapped.StatusCode != http.StatusInternalServerError {
			return mapped
		}
	}

	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	switch he.Code {
	case http.StatusNotFound:
		return apperrors.NewHTTPError(he.Code, "not found", "NOT_FOUND")
	case http.StatusMethodNotAllowed:
		return apperrors.NewHTTPError(he.Code, "method not allowed", "METHOD_NOT_ALLOWED")
	case http.StatusUnauthorized:
		return apperrors.NewHTTPError(he.Code, "unauthorized", "UNAUTHORIZED")
	case http.StatusServiceUnavailable:
		return apperrors.NewHTTPError(he.Code, "request timed out", "TIMEOUT")
	case http.StatusRequestEntityTooLarge:
		return apperrors.NewHTTPError(http.StatusBadRequest, "file upload error", "FILE_TOO_LARGE").WithDetails(msg)
	}
	if he.Code < http.StatusInternalServerError {
		return apperrors.NewHTTPError(he.Code, msg, "REQUEST_ERROR")
	}
	return apperrors.NewHTTPError(he.Code, "internal server error", "INTERNAL_ERROR").WithDetails(fmt.Sprint(he.Message))
}
