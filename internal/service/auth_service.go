package service

import (
	"errors"
	"time"

	"commutesurvey/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and checks session-scoped tokens
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service. A zero ttl issues tokens without expiry.
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateSessionToken creates a token bound to one survey session
func (s *AuthService) GenerateSessionToken(sessionID, tokenOrSlug string) (string, error) {
	now := s.now()
	claims := &model.SessionClaims{
		SessionID:   sessionID,
		TokenOrSlug: tokenOrSlug,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sessionID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken validates a session JWT and returns claims
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
