package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxService ctxKey = iota

func WithService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, ctxService, service)
}

// Service returns the authenticated calling service from context.
func Service(ctx context.Context) (string, error) {
	v := ctx.Value(ctxService)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("service not in context")
}
