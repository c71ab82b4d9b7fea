// Package middleware provides net/http middleware that authenticates requests
// against a goIdentity Engine.
package middleware

import (
	"context"
	"net/http"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
)

type contextKey uint8

const authResultKey contextKey = iota

// AuthFromContext returns the identity injected by Guard or SessionGuard.
func AuthFromContext(ctx context.Context) (*goIdentity.AuthResult, bool) {
	auth, ok := ctx.Value(authResultKey).(*goIdentity.AuthResult)
	return auth, ok
}

// Guard rejects requests without a valid bearer token. On success the request
// context carries the AuthResult, retrievable with AuthFromContext.
func Guard(engine *goIdentity.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			auth, err := engine.ValidateToken(withClientIP(r), token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), authResultKey, auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionGuard authenticates with an opaque session ID carried in a cookie
// instead of a bearer token.
func SessionGuard(engine *goIdentity.Engine, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			auth, err := engine.ValidateSession(withClientIP(r), cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), authResultKey, auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func withClientIP(r *http.Request) context.Context {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return goIdentity.WithClientIP(r.Context(), host)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
