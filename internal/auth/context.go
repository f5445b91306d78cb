// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userIDContextKey is the key used to store the authenticated user id.
	userIDContextKey contextKey = "user_id"
)

// UserIDFromContext returns the identity-provider user id of the caller.
//
// Returns "" if the request is not authenticated.
//
// Usage:
//
//	userID := auth.UserIDFromContext(r.Context())
//	if userID == "" {
//	    // Handle unauthenticated request
//	}
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

// UserIDFromRequest is a convenience wrapper around UserIDFromContext.
func UserIDFromRequest(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// WithUserID stores the caller's user id in the context. An empty id leaves
// the context unauthenticated.
func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}
