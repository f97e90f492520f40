// Package auth provides an optional bearer-token guard for the relay's
// POST endpoints. When no secret is configured the guard is a no-op, so
// local development and the browser-driven OAuth flow stay open.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Middleware verifies HS256 bearer tokens issued by the web application.
type Middleware struct {
	secret []byte
}

// NewMiddleware creates the guard. An empty secret disables verification.
func NewMiddleware(secret string) *Middleware {
	if secret == "" {
		return &Middleware{}
	}
	return &Middleware{secret: []byte(secret)}
}

// Enabled reports whether requests will actually be verified.
func (m *Middleware) Enabled() bool { return len(m.secret) > 0 }

// Handler wraps next with bearer verification. OPTIONS preflight passes
// through untouched.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		if token == "" {
			http.Error(w, "Unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}
		if err := m.verify(token); err != nil {
			http.Error(w, fmt.Sprintf("Unauthorized: %v", err), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandlerFunc wraps an http.HandlerFunc with bearer verification.
func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Handler(next).ServeHTTP(w, r)
	}
}

func (m *Middleware) verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// extractBearer pulls the token out of the Authorization header.
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
