package auth

import (
	"context"

	appErrors "studyflow-backend/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContext carries the authenticated user's identity through a request
type UserContext struct {
	UserID string
	Email  string
}

// SetUserInContext stores the user context on a request context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil || user.UserID == "" {
		return nil, appErrors.NewUnauthorized("no authenticated user in context")
	}
	return user, nil
}
