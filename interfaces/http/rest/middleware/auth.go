// Package middleware holds the HTTP middleware for the REST interface.
package middleware

import (
	"net/http"
	"strings"

	"studyflow-backend/pkg/auth"
	appErrors "studyflow-backend/pkg/errors"
)

// Authenticate verifies the Bearer token and stores the user identity on
// the request context. Identity always comes from the token claims, never
// from the request payload.
func Authenticate(validator *auth.JWTValidator, errorHandler *appErrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				errorHandler.Handle(w, r, appErrors.NewUnauthorized("missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				errorHandler.Handle(w, r, appErrors.NewUnauthorized(err.Error()))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
