package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var devCORSOrigins = []string{"http://localhost:3000", "http://localhost:3001"}

// StorefrontCORS allows the configured storefront origins. With no origins
// configured only local development hosts are allowed.
func StorefrontCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = devCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}

// AdminCORS is applied to the dashboard API, which carries bearer tokens.
func AdminCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = devCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
