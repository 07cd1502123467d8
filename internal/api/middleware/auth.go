package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// ServiceToken returns a middleware that requires a static bearer token
// on every request. An empty token disables authentication entirely;
// SlateDeck deployments typically sit behind an authenticating proxy,
// the token is for direct service-to-service access.
//
// OPTIONS requests pass through so CORS preflights work without
// credentials.
func ServiceToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing service token"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
