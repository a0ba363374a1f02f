package auth

import "context"

type contextKey struct {
	name string
}

var actorKey = &contextKey{"actor"}

// WithContextActor stores the id of the user performing the request
func WithContextActor(ctx context.Context, actor int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey, actor)
}

// ContextActor returns the id of the user performing the request, 0 when the request is anonymous
func ContextActor(ctx context.Context) int64 {
	if ctx != nil {
		if val, ok := ctx.Value(actorKey).(int64); ok {
			return val
		}
	}
	return 0
}
