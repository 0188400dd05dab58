package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/nirvana-shop/internal/lib/api/response"
)

// SessionCookie: cookie, в которой провайдер кладёт токен сессии для браузера.
const SessionCookie = "__session"

const msgNotSignedIn = "Unauthorized: not signed in"

var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
)

// Caller: аутентифицированный пользователь запроса.
type Caller struct {
	ID    string
	Email string
	Name  string
	// Role из claims сессии, может быть пустой
	Role string
}

// Metadata: публичные метаданные пользователя, которые провайдер кладёт в сессию.
type Metadata struct {
	Role string `json:"role,omitempty"`
}

// SessionClaims: claims токена сессии.
type SessionClaims struct {
	Email    string   `json:"email,omitempty"`
	Name     string   `json:"name,omitempty"`
	Metadata Metadata `json:"metadata"`
	jwt.RegisteredClaims
}

type contextKey string

const callerKey contextKey = "caller"

func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext извлекает пользователя, положенного RequireUser.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(callerKey).(*Caller)
	return caller, ok && caller != nil
}

// ParseSession проверяет подпись и срок действия токена.
func ParseSession(tokenStr string, secret []byte) (*Caller, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Caller{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Metadata.Role,
	}, nil
}

// tokenFromRequest берёт токен из заголовка Authorization, а если его нет, из cookie сессии
func tokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", ErrInvalidToken
		}
		return parts[1], nil
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

// RequireUser пропускает только запросы с валидной сессией и кладёт Caller в контекст.
func RequireUser(log *slog.Logger, secret string) func(http.Handler) http.Handler {
	if secret == "" {
		panic("session secret is not set")
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := tokenFromRequest(r)
			if err != nil {
				log.Debug("request without session", slog.String("path", r.URL.Path), slog.Any("error", err))
				response.Error(w, http.StatusUnauthorized, msgNotSignedIn)
				return
			}

			caller, err := ParseSession(tokenStr, key)
			if err != nil {
				log.Debug("rejected session token", slog.String("path", r.URL.Path), slog.Any("error", err))
				response.Error(w, http.StatusUnauthorized, msgNotSignedIn)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
