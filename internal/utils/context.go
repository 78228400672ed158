package utils

import (
	"context"
	"time"
)

type contextKey string

const (
	ContextUserIDKey   contextKey = "userID"
	ContextBarangayKey contextKey = "barangayID"
	ContextUserRoleKey contextKey = "userRole"
)

// SessionData is what a SessionFetcher resolves a session cookie to.
type SessionData struct {
	UserID     string
	BarangayID string
	Role       string
	ExpiresAt  time.Time
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func GetBarangayIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextBarangayKey).(string)
	return v, ok && v != ""
}

func GetRoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextUserRoleKey).(string)
	return v
}

// WithSession returns ctx carrying the session's user, barangay and role.
func WithSession(ctx context.Context, s SessionData) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, s.UserID)
	ctx = context.WithValue(ctx, ContextBarangayKey, s.BarangayID)
	return context.WithValue(ctx, ContextUserRoleKey, s.Role)
}
