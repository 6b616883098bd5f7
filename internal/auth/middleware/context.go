package auth

import "context"

type ctxKey struct{}

// WithSubject stores the authenticated user id. The role lives in rbac.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sub)
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
