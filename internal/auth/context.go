package auth

import "context"

type contextKey string

const subjectContextKey contextKey = "auth_subject"

// WithSubject stores the token subject of an authenticated request.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectContextKey, sub)
}

// SubjectFrom returns the subject set by the middleware, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectContextKey).(string)
	return sub, ok && sub != ""
}
