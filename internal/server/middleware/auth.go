package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/handlers"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/jwt"
	"github.com/maryamfad/atlas-ecommerce-backend/internal/server/revocation"
	"github.com/maryamfad/atlas-ecommerce-backend/pkg/api"
)

// Auth is the authorization gate guarding protected operations.
//
// The checks run in a fixed order: extract the bearer token (absent →
// 401), consult the revocation registry (revoked → 409), then verify
// signature and expiry (invalid → 403). Revocation is checked before
// signature verification so a revoked token is rejected as revoked,
// never re-validated. On success the claims and the raw token are
// placed into the request context.
func Auth(logger *slog.Logger, tokens *jwt.Service, revoked revocation.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header",
					"method", r.Method, "path", r.URL.Path)
				writeError(w, "unauthorized request", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				logger.Warn("invalid Authorization header format",
					"method", r.Method, "path", r.URL.Path)
				writeError(w, "unauthorized request", http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]

			isRevoked, err := revoked.IsRevoked(r.Context(), tokenString)
			if err != nil {
				logger.Error("revocation check failed", "error", err)
				writeError(w, "unknown error", http.StatusInternalServerError)
				return
			}
			if isRevoked {
				logger.Warn("rejected revoked token",
					"method", r.Method, "path", r.URL.Path)
				writeError(w, "token already revoked", http.StatusConflict)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Warn("invalid access token", "error", err)
				writeError(w, "invalid token", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, handlers.RoleKey, claims.Role)
			ctx = context.WithValue(ctx, handlers.TokenKey, tokenString)

			logger.Debug("user authorized", "user_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError sends a JSON error body; the gate never sends bare status codes
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
