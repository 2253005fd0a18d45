package goCare

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a request identifier to ctx. The gateway sends it as
// X-Request-ID instead of generating one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
