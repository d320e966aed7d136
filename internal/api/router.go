/**
 * @description
 * This file sets up the HTTP router for the transfer-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TransferRoutes creates and returns a new router for the transfer service.
func TransferRoutes(h *TransferHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", h.HealthHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Define the protected API endpoints.
		r.Post("/transfer", h.TransferHandler)
		r.Post("/send-money", h.SendMoneyHandler)
		r.Get("/transactions", h.ListTransactionsHandler)
		r.Get("/accounts", h.ListAccountsHandler)
	})

	return r
}
