package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"paperless/internal/auth"
	apperrors "paperless/internal/errors"
	"paperless/internal/model"
	"paperless/internal/repository"
)

// RegisterInput carries a self-registration request. Role is never taken
// from the client.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	Department string
}

// validate checks the fields that trimming can shorten or empty.
func (in RegisterInput) validate() error {
	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 50 {
		return apperrors.Validation("username must be between 3 and 50 characters")
	}
	if in.Department == "" {
		return apperrors.Validation("department is required")
	}
	return nil
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, identity *auth.Identity) error
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		now:        time.Now,
	}
}

// Register creates an employee account and returns it with a fresh token.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = model.NormalizeEmail(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	if err := in.validate(); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil:
		if existing.Email == in.Email {
			return nil, "", apperrors.WithDetails(apperrors.ErrUserAlreadyExists, "email already exists")
		}
		return nil, "", apperrors.WithDetails(apperrors.ErrUserAlreadyExists, "username already exists")
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return nil, "", fmt.Errorf("check user existence: %w", err)
	}

	user := &model.User{
		Username:   in.Username,
		Email:      in.Email,
		Role:       model.RoleEmployee,
		Department: in.Department,
		Active:     true,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			return nil, "", apperrors.WithDetails(apperrors.ErrUserAlreadyExists, "username or email already exists")
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates a user. Unknown emails, wrong passwords and inactive
// accounts all produce ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			model.CheckDecoyPassword(password)
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !user.CheckPassword(password) || !user.Active {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, identity *auth.Identity) error {
	if identity == nil {
		return apperrors.ErrUnauthenticated
	}
	return s.tokenStore.BlacklistToken(ctx, identity.TokenID, identity.ExpiresAt.Sub(s.now()))
}

// Verify checks signature, expiry and revocation of a bearer token.
func (s *authService) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	identity, err := s.jwtService.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.tokenStore.IsTokenBlacklisted(ctx, identity.TokenID) {
		return nil, fmt.Errorf("%w: revoked", apperrors.ErrInvalidToken)
	}
	return identity, nil
}
