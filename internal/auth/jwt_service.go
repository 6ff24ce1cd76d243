package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "paperless/internal/errors"
	"paperless/internal/model"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 24 * time.Hour

// Claims represents JWT claims. The token id travels as "jti".
type Claims struct {
	UserID string     `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller's identity.
func (c *Claims) Identity() (*Identity, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", apperrors.ErrInvalidToken)
	}
	identity := &Identity{
		UserID:  id,
		Email:   c.Email,
		Role:    c.Role,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		identity.ExpiresAt = c.ExpiresAt.Time
	}
	return identity, nil
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret. A zero ttl
// means DefaultTokenTTL.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured token lifetime.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a signed access token for user.
func (s *JWTService) GenerateToken(user *model.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken validates a JWT token and returns the claims. Every failure
// is reported as ErrInvalidToken so callers cannot tell expiry from forgery.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Verify validates a token and returns the identity it encodes.
func (s *JWTService) Verify(tokenString string) (*Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Identity()
}
