package auth

import (
	"context"
	"net/http"
	"strings"
)

type keyNameKey struct{}

// Verifier checks a presented plaintext API key.
type Verifier interface {
	Verify(ctx context.Context, plain string) error
}

// Middleware returns an http.Handler middleware that extracts an API key
// from the Authorization Bearer header or the X-API-Key header. A valid key
// marks the request context as authenticated. Invalid or missing keys are
// silently ignored — use Require to enforce.
func Middleware(keys Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string

			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				key = h[len("Bearer "):]
			}
			if key == "" {
				key = r.Header.Get("X-API-Key")
			}

			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := keys.Verify(r.Context(), key); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), keyNameKey{}, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticated reports whether the request context carries a verified key.
func Authenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(keyNameKey{}).(bool)
	return ok
}

// Require is an http.Handler middleware that rejects unauthenticated
// requests with 401.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Authenticated(r.Context()) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="buildflow"`)
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
