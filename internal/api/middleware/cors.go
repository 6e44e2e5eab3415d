package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// PublicCORS allows any origin to GET the storefront endpoints. Credentials
// are never allowed, so the wildcard origin is sent as is.
func PublicCORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         600,
	}).Handler
}
