package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/countdown/internal/api/auth"
	"github.com/good-yellow-bee/countdown/internal/metrics"
)

// Context keys for storing request information.
type contextKey string

const (
	shopKey   contextKey = "shop"
	claimsKey contextKey = "claims"
)

// jsonUnauthorized writes an unauthorized error response.
func jsonUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="countdown"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "invalid or expired token",
		},
	})
}

// JWTAuth returns middleware that validates admin bearer tokens and puts the
// token's shop into the request context.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				jsonUnauthorized(w)
				return
			}

			// Parse Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				jsonUnauthorized(w)
				return
			}

			claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				slog.Warn("jwt auth failed", "remote_addr", r.RemoteAddr, "error", err)
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				jsonUnauthorized(w)
				return
			}
			metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

			ctx := WithShop(r.Context(), claims.Shop)
			ctx = context.WithValue(ctx, claimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithShop returns a copy of ctx carrying the authenticated shop.
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopKey, shop)
}

// GetShop returns the authenticated shop from context.
func GetShop(ctx context.Context) string {
	if v := ctx.Value(shopKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetClaims returns the JWT claims from context.
func GetClaims(ctx context.Context) *auth.Claims {
	if v := ctx.Value(claimsKey); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}
