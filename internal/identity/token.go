package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NewSessionToken выпускает токен сессии для указанного пользователя с заданным временем жизни.
// Боевые токены выпускает провайдер, здесь это нужно для тестов и локальной разработки.
func NewSessionToken(caller Caller, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is not set")
	}
	if caller.ID == "" {
		return "", errors.New("caller id is empty")
	}

	now := time.Now()
	claims := SessionClaims{
		Email:    caller.Email,
		Name:     caller.Name,
		Metadata: Metadata{Role: caller.Role},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
