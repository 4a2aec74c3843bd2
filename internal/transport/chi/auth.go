package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerAuthMiddleware returns a middleware that validates admin API keys sent as Bearer tokens.
// If apiKeys is empty every request is rejected: admin routes are never open.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys = append(validKeys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(w, r)
			if !ok {
				return
			}

			for _, k := range validKeys {
				if subtle.ConstantTimeCompare([]byte(token), k) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
		})
	}
}

// bearerToken extracts the token, writing a 401 when the header is missing or malformed.
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
		return "", false
	}
	if !strings.HasPrefix(auth, bearerPrefix) {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
		return "", false
	}
	return auth[len(bearerPrefix):], true
}
