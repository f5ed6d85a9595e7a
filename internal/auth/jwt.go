// Package auth provides JWT bearer token issuing and validation.
// Password handling and session lifecycle live outside this service; tokens only carry
// the caller's identity.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the only token type this service issues.
const TokenTypeAccess = "access"

// AccessTokenExpiry is the lifetime of an access token.
const AccessTokenExpiry = 15 * time.Minute

// DefaultLeeway tolerates clock skew between issuer and validator.
const DefaultLeeway = 30 * time.Second

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptyUserID  = errors.New("userID cannot be empty")
)

// Claims represents the JWT claims for an access token.
// The user ID is carried in the registered subject claim.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Type     string `json:"typ"`
}

// JWTService handles JWT token operations.
// Tokens are signed with currentSecret and validated against currentSecret, then
// previousSecret when a rotation is in progress.
type JWTService struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
	now            func() time.Time
}

// NewJWTService creates a JWTService with a single secret.
func NewJWTService(secret string) *JWTService {
	return NewJWTServiceWithRotation(secret, "")
}

// NewJWTServiceWithRotation creates a JWTService that also accepts tokens signed with
// previousSecret. Pass an empty previousSecret when no rotation is in progress.
func NewJWTServiceWithRotation(currentSecret, previousSecret string) *JWTService {
	svc := &JWTService{
		currentSecret: []byte(currentSecret),
		leeway:        DefaultLeeway,
		now:           time.Now,
	}
	if previousSecret != "" {
		svc.previousSecret = []byte(previousSecret)
	}
	return svc
}

// GenerateAccessToken creates a signed access token for userID.
func (s *JWTService) GenerateAccessToken(userID, username string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
		Username: username,
		Type:     TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.currentSecret)
}

// ValidateToken parses and validates an access token, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, s.currentSecret)
	if err == nil {
		return claims, nil
	}

	if s.previousSecret != nil && !errors.Is(err, ErrExpiredToken) {
		if claims, prevErr := s.parse(tokenString, s.previousSecret); prevErr == nil {
			return claims, nil
		}
	}
	return nil, err
}

func (s *JWTService) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != TokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
