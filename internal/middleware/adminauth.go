package middleware

import (
	"net/http"
	"strings"

	"github.com/declabot/internal/auth"
)

// AdminAuth requires a bearer token matching the configured bcrypt hash on
// every request in the group.
func AdminAuth(tokenHash string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || !auth.VerifyToken(tokenHash, token) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
