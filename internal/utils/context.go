package utils

import (
	"context"
	"time"
)

type contextKey string

const (
	ContextUserIDKey   contextKey = "userID"
	ContextUsernameKey contextKey = "username"
)

// SessionData is the resolved identity a valid session token maps to.
type SessionData struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username := ctx.Value(ContextUsernameKey)
	usernameStr, ok := username.(string)
	return usernameStr, ok
}
