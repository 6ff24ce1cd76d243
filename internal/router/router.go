package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"paperless/internal/auth"
	"paperless/internal/config"
	apperrors "paperless/internal/errors"
	"paperless/internal/handler"
	"paperless/internal/service"
)

// multipartSlack is extra room for form fields around the file part.
const multipartSlack = 1 << 20

// Handlers groups everything Register mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Document *handler.DocumentHandler
	File     *handler.FileHandler
	Health   *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	authService service.AuthService,
	policy auth.Policy,
	h Handlers,
) {
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log, cfg.IsProduction())

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderContentLength},
		AllowCredentials: true,
		MaxAge:           600,
	}))
	if cfg.RequestTimeout > 0 {
		e.Use(RequestTimeout(cfg.RequestTimeout))
	}

	e.GET("/", h.Health.Info)
	e.GET("/health", h.Health.Health)
	if !cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	authn := Authenticate(authService)
	authz := Authorize(policy)

	if h.File.Public() {
		e.GET("/uploads/:fileName", h.File.Serve)
	} else {
		e.GET("/uploads/:fileName", h.File.Serve, authn, authz)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("", authn, authz)
	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/users", h.User.ListUsers)

	secured.POST("/documents/upload", h.Document.Upload, BodyLimit(cfg.MaxUploadSize+multipartSlack))
	secured.GET("/documents", h.Document.List)
	secured.GET("/documents/:id", h.Document.Get)
	secured.PATCH("/documents/:id", h.Document.Update)
	secured.PUT("/documents/:id", h.Document.Update)
	secured.DELETE("/documents/:id", h.Document.Delete)
	secured.GET("/documents/:id/download", h.Document.Download)
	secured.POST("/documents/:id/approve", h.Document.Approve)
	secured.GET("/documents/:id/print", h.Document.Print)
}

// Authenticate verifies the bearer token with echo-jwt and stores the
// caller's identity on the request context. Every failure is a uniform 401.
func Authenticate(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			identity, err := authService.Verify(c.Request().Context(), token)
			if err != nil {
				return nil, err
			}
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), identity)))
			return identity, nil
		},
		ErrorHandler: func(echo.Context, error) error {
			return apperrors.ErrInvalidToken
		},
	})
}

// Authorize evaluates the route policy once per request, after
// authentication. c.Path() is the registered route pattern.
func Authorize(policy auth.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := auth.FromContext(c.Request().Context())
			if err := policy.Check(identity, c.Request().Method, c.Path()); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// BodyLimit caps the request body. Exceeding it surfaces as an
// *http.MaxBytesError while the multipart form is parsed.
func BodyLimit(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > limit {
				return apperrors.WithDetails(apperrors.ErrFileTooLarge, "request body exceeds %d bytes", limit)
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
			return next(c)
		}
	}
}

// RequestTimeout bounds each request through its context.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: timeout,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds the echo validator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface. Failures become validation
// errors naming each offending field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation("%s", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperrors.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters long"
	case "max":
		return field + " cannot exceed " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is invalid"
	}
}
