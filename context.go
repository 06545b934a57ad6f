package kvauth

import "context"

type contextKey int

const (
	clientHostKey contextKey = iota
	subjectKey
)

// WithClientHost records the calling host for audit and rate limiting.
func WithClientHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, clientHostKey, host)
}

// ClientHostFromContext returns the calling host, if any.
func ClientHostFromContext(ctx context.Context) string {
	host, _ := ctx.Value(clientHostKey).(string)
	return host
}

// WithSubject attaches a validated subject to the context. The middleware
// package uses this after token validation.
func WithSubject(ctx context.Context, sub ValidatedSubject) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}

// SubjectFromContext returns the validated subject, if any.
func SubjectFromContext(ctx context.Context) (ValidatedSubject, bool) {
	sub, ok := ctx.Value(subjectKey).(ValidatedSubject)
	return sub, ok
}
