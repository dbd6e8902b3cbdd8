package common

import (
	"context"
)

// UserContext holds the authenticated identity resolved from a bearer token.
// When absent (nil) the request is anonymous and only public routes apply.
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or "" for anonymous requests.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.UserID
	}
	return ""
}

// ResolveRole returns the Role from context, or "" for anonymous requests.
func ResolveRole(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.Role
	}
	return ""
}
