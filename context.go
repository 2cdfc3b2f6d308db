package jwtstrategy

import (
	"context"
	"errors"
	"fmt"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	userKey contextKey = iota
)

// Errors returned by UserFromContext.
var (
	ErrUserNotFound = errors.New("user not found in context")
	ErrUserType     = errors.New("user type assertion failed")
)

// WithUser stores an authenticated user in the context.
// Middleware and framework adapters call it after a successful
// authentication.
func WithUser(ctx context.Context, user any) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the context with
// type safety using generics.
//
// Example:
//
//	user, err := jwtstrategy.UserFromContext[*User](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get user", http.StatusInternalServerError)
//	    return
//	}
func UserFromContext[U any](ctx context.Context) (U, error) {
	var zero U

	val := ctx.Value(userKey)
	if val == nil {
		return zero, ErrUserNotFound
	}

	user, ok := val.(U)
	if !ok {
		return zero, fmt.Errorf("%w: have %T, want %T", ErrUserType, val, zero)
	}
	return user, nil
}

// MustUserFromContext retrieves the user from the context or panics.
// Use only when you are certain a user exists (e.g., after middleware has run).
func MustUserFromContext[U any](ctx context.Context) U {
	user, err := UserFromContext[U](ctx)
	if err != nil {
		panic(err)
	}
	return user
}

// HasUser checks if a user exists in the context.
func HasUser(ctx context.Context) bool {
	return ctx.Value(userKey) != nil
}
