package login

import (
	"context"
	"errors"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/session"
)

// Binding associates a handle with the identity fields injected into every
// call made through Invoke.
type Binding struct {
	// Handle supplies the token. A nil handle means calls go out
	// unauthenticated with a nil auth context.
	Handle Handle

	// ClientHost is the origin host of the end client, when this component
	// forwards on a client's behalf.
	ClientHost string

	// Forwarder is set when this component forwards another component's
	// call; the forwarded token rides in the auth context alongside ours.
	Forwarder *session.Token
}

func (b *Binding) authContext(tok *session.Token) *session.AuthContext {
	return &session.AuthContext{
		LoginToken:     tok,
		ForwarderToken: b.Forwarder,
		ClientHost:     b.ClientHost,
	}
}

// Invoke runs call with an auth context built from the binding's current
// token. If the callee answers authentication-required, one renewal is
// attempted; if it produces a different token, the call is retried exactly
// once. All other outcomes, including a renewal that returns the same
// token, surface the original failure.
func Invoke[T any](ctx context.Context, b *Binding, call func(ctx context.Context, auth *session.AuthContext) (T, error)) (T, error) {
	if b == nil || b.Handle == nil {
		result, err := call(ctx, nil)
		return result, unwrapFault(err)
	}

	tok := b.Handle.Token()
	result, err := call(ctx, b.authContext(tok))
	if err == nil || tok == nil {
		return result, unwrapFault(err)
	}
	if autherr.KindOf(err) != autherr.KindAuthenticationRequired {
		return result, unwrapFault(err)
	}

	renewed, renewErr := b.Handle.RenewToken(ctx, tok)
	if renewErr != nil || renewed == nil || renewed.Equal(tok) {
		// Renewal could not produce a fresher token; the original
		// rejection stands.
		return result, unwrapFault(err)
	}

	result, err = call(ctx, b.authContext(renewed))
	return result, unwrapFault(err)
}

// InvokeVoid is Invoke for calls with no result value.
func InvokeVoid(ctx context.Context, b *Binding, call func(ctx context.Context, auth *session.AuthContext) error) error {
	_, err := Invoke(ctx, b, func(ctx context.Context, auth *session.AuthContext) (struct{}, error) {
		return struct{}{}, call(ctx, auth)
	})
	return err
}

// unwrapFault recovers a session-access failure boxed inside a transport's
// generic internal-fault wrapper, so callers apply backend-unavailable
// policy rather than generic-fault policy.
func unwrapFault(err error) error {
	var internal *autherr.Internal
	if errors.As(err, &internal) && autherr.IsIndeterminate(internal.Cause) {
		return internal.Cause
	}
	return err
}
