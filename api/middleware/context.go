package middleware

import "context"

type contextKey int

const (
	ctxActorID contextKey = iota
	ctxRole
	ctxRequestID
)

func stringFrom(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func ActorIDFromContext(ctx context.Context) string { return stringFrom(ctx, ctxActorID) }

func RoleFromContext(ctx context.Context) string { return stringFrom(ctx, ctxRole) }

// RequestIDFromContext returns the correlation ID assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string { return stringFrom(ctx, ctxRequestID) }

// WithActor stores the gateway-provided identity. Document writes record it
// in the status history.
func WithActor(ctx context.Context, actorID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(context.WithValue(ctx, ctxActorID, actorID), ctxRole, role)
}
