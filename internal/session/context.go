package session

import "context"

type contextKey struct{}

// WithContext stores the resolved session on ctx.
func WithContext(ctx context.Context, sc *Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the session stored by WithContext, or nil.
func FromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	sc, _ := ctx.Value(contextKey{}).(*Context)
	return sc
}
