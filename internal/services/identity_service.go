package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// IdentityService issues and verifies the bearer tokens that identify the
// viewing user on the HTTP surface. Accounts and login live elsewhere; this
// only binds a viewer id to a signed token.
type IdentityService struct {
	jwtSecret string
	jwtExpiry time.Duration
	now       func() time.Time
}

type TokenClaims struct {
	ViewerID  string
	SessionID string
	ExpiresAt time.Time
}

func NewIdentityService(jwtSecret string, jwtExpiry time.Duration) *IdentityService {
	return &IdentityService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		now:       time.Now,
	}
}

func (s *IdentityService) IssueToken(viewerID string) (string, time.Time, error) {
	if viewerID == "" {
		return "", time.Time{}, errors.New("viewer id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"sub": viewerID,
		"jti": uuid.New().String(),
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *IdentityService) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// Extract viewer ID
	viewerID, ok := claims["sub"].(string)
	if !ok || viewerID == "" {
		return nil, ErrInvalidToken
	}

	// Extract session ID
	sessionID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		ViewerID:  viewerID,
		SessionID: sessionID,
		ExpiresAt: exp.Time,
	}, nil
}
