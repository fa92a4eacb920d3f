package ai

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDContextKey       contextKey = "user_id"
	suggestionIDContextKey contextKey = "suggestion_id"
	requestIDContextKey    contextKey = "request_id"
)

// WithLogFields attaches identifiers that generator log lines include.
func WithLogFields(ctx context.Context, userID, suggestionID uuid.UUID, requestID string) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	ctx = context.WithValue(ctx, suggestionIDContextKey, suggestionID)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
	}
	return ctx
}

// ExtractUserID returns the user id stored by WithLogFields, or "".
func ExtractUserID(ctx context.Context) string {
	return uuidValue(ctx, userIDContextKey)
}

// ExtractSuggestionID returns the suggestion id stored by WithLogFields, or "".
func ExtractSuggestionID(ctx context.Context) string {
	return uuidValue(ctx, suggestionIDContextKey)
}

// ExtractRequestID returns the request id stored by WithLogFields, or "".
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

func uuidValue(ctx context.Context, key contextKey) string {
	if id, ok := ctx.Value(key).(uuid.UUID); ok && id != uuid.Nil {
		return id.String()
	}
	return ""
}
