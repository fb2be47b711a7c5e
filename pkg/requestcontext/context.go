// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them without
// pulling in net/http.
package requestcontext

import (
	"context"
	"time"

	"practiceops/pkg/domain"
)

type (
	actorIDKey     struct{}
	originKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyOrigin      = originKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated staff ID from the context.
// Returns the zero value (nil UUID) if not set.
func ActorID(ctx context.Context) domain.StaffID {
	if id, ok := ctx.Value(ContextKeyActorID).(domain.StaffID); ok {
		return id
	}
	return domain.StaffID{}
}

// WithActorID injects an actor staff ID into the context.
func WithActorID(ctx context.Context, id domain.StaffID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, id)
}

// Origin retrieves the request origin (network address) from the context.
// Empty means the operation is system-originated.
func Origin(ctx context.Context) string {
	if origin, ok := ctx.Value(ContextKeyOrigin).(string); ok {
		return origin
	}
	return ""
}

// WithOrigin injects the network origin into the context.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, ContextKeyOrigin, origin)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
