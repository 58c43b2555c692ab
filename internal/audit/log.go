// Package audit emits append-only structured events for the account
// lifecycle actions that matter after the fact: registrations, logins,
// flag changes, deletions.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"userhub.org/internal/obs"
	"userhub.org/internal/user"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and actor
// context. Field values must never include plaintext secrets or
// password hashes.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if principal, ok := user.PrincipalFromContext(ctx); ok {
		entry["actor_id"] = principal.UserID
	}
	if len(fields) > 0 {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		entry["fields"] = copied
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}
