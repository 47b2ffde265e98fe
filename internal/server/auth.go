package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/54b3r/carrierfit/internal/logging"
)

// authMiddleware guards the admin routes with a Bearer token. apiKeys is a
// comma-separated list so a key can be rotated without downtime: deploy
// "new,old", move clients, then drop "old". An empty list disables the check.
// Token values are never logged.
func authMiddleware(apiKeys string, next http.Handler) http.Handler {
	keys := splitKeys(apiKeys)
	if len(keys) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		token := bearerToken(r)
		if token == "" {
			log.Warn("auth: missing bearer token", slog.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", `Bearer realm="carrierfit"`)
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if !matchAny(token, keys) {
			log.Warn("auth: invalid token", slog.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", `Bearer realm="carrierfit" error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// matchAny compares token against every key so the time taken does not
// reveal which key (if any) matched.
func matchAny(token string, keys [][]byte) bool {
	ok := 0
	for _, k := range keys {
		ok |= subtle.ConstantTimeCompare([]byte(token), k)
	}
	return ok == 1
}

func splitKeys(s string) [][]byte {
	var keys [][]byte
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return keys
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
