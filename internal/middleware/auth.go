// Package middleware содержит HTTP middleware для сервиса заказов.
package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/rsalgados/internal/model"
)

type contextKey string

const callerKey contextKey = "caller"

// AuthCookieName задаёт имя cookie с токеном авторизации.
const AuthCookieName = "auth_token"

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware выполняет проверку аутентификации по JWT из cookie или заголовка Authorization.
type AuthMiddleware struct {
	secretKey []byte
	ttl       time.Duration
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом
// и временем жизни токена. Пустой секрет заменяется случайным ключом процесса.
func NewAuthMiddleware(secret string, ttl time.Duration) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		ttl:       ttl,
	}
}

// IssueToken выпускает подписанный токен для пользователя.
func (a *AuthMiddleware) IssueToken(userID uuid.UUID, role model.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает вызывающего.
func (a *AuthMiddleware) ParseToken(raw string) (model.Caller, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return model.Caller{}, err
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.Caller{}, fmt.Errorf("parse subject: %w", err)
	}
	if userID == uuid.Nil {
		return model.Caller{}, errors.New("empty subject")
	}

	return model.Caller{UserID: userID, Role: model.Role(c.Role)}, nil
}

// Middleware проверяет токен и добавляет вызывающего в контекст запроса.
// Без валидного токена отвечает 401.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := a.authenticate(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RedirectMiddleware работает как Middleware, но вместо 401 перенаправляет на страницу входа.
func (a *AuthMiddleware) RedirectMiddleware(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := a.authenticate(r)
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// authenticate проверяет сначала cookie, затем заголовок Authorization.
// Устаревшая cookie не мешает запросу с валидным Bearer-токеном.
func (a *AuthMiddleware) authenticate(r *http.Request) (model.Caller, bool) {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		if caller, err := a.ParseToken(cookie.Value); err == nil {
			return caller, true
		}
	}

	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if caller, err := a.ParseToken(strings.TrimPrefix(h, "Bearer ")); err == nil {
			return caller, true
		}
	}

	return model.Caller{}, false
}

// SetAuthCookie выпускает токен, устанавливает его в cookie и возвращает его.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, userID uuid.UUID, role model.Role) (string, error) {
	token, err := a.IssueToken(userID, role)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(a.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return token, nil
}

// ClearAuthCookie удаляет cookie авторизации.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithCaller возвращает контекст с вызывающим.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCallerFromContext извлекает вызывающего из контекста запроса.
func GetCallerFromContext(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(callerKey).(model.Caller)
	return c, ok
}
