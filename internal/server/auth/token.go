package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tailtalk/roomsync/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const BearerPrefix = "Bearer "

// Claims carries the identity the engine acts as.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Manager issues and verifies the HMAC bearer tokens the development server
// accepts. Production credentials come from the external auth subsystem;
// this exists so the engine can run against a local collaborator.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewManager(secret string, ttl time.Duration, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}
}

// Issue mints a token for the given user.
func (m *Manager) Issue(user domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a token and returns the user it identifies.
func (m *Manager) Verify(tokenString string) (domain.User, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.User{}, ErrExpiredToken
		}
		return domain.User{}, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return domain.User{}, ErrInvalidToken
	}

	return domain.User{
		ID:          claims.UserID,
		DisplayName: claims.DisplayName,
		AvatarURL:   claims.AvatarURL,
	}, nil
}

// FromHeader extracts the raw token from an Authorization header value.
func FromHeader(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}
