/**
 * @description
 * This file contains custom middleware for the HTTP router. Middlewares are used
 * to process requests before they reach the final handler, perfect for tasks like
 * authentication, logging, or adding context to a request.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Token parsing and validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/horizonbank/transfer-service/internal/domain"
)

// principalContextKey is a custom type for the context key to avoid collisions.
type principalContextKey string

const authenticatedUserKey principalContextKey = "authenticatedUser"

// AuthMiddleware creates a middleware that validates HS256 session tokens.
// The authenticated principal carries the user id from the 'sub' claim and
// the email claim that gates derived-account ownership.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// Extract the token from "Bearer <token>"
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				respondWithError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User ID not found in token")
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid user ID in token")
				return
			}
			email, ok := claims["email"].(string)
			if !ok || strings.TrimSpace(email) == "" {
				respondWithError(w, http.StatusUnauthorized, "Email not found in token")
				return
			}

			user := domain.User{ID: userID, Email: email}
			ctx := context.WithValue(r.Context(), authenticatedUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthenticatedUser retrieves the authenticated principal from the request
// context. Handlers should use this function rather than re-parsing claims.
func GetAuthenticatedUser(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(authenticatedUserKey).(domain.User)
	return user, ok
}
