package handler

import (
	"net/http"
	"strings"

	"github.com/keystonemortgage/backend/internal/logger"
)

// AdminAuth rejects requests without a valid admin bearer token.
func AdminAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				respondError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			if err := validator.ValidateToken(strings.TrimSpace(parts[1])); err != nil {
				logger.FromContext(r.Context()).Warn("admin token rejected",
					"path", r.URL.Path,
					"error", err,
				)
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
