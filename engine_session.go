package kvauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/session"
)

// ValidateLoginToken checks the token against the session store.
//
// The three outcomes are distinct: a valid token returns the subject; a
// token determined invalid (expired, unknown, or nil) returns (nil, nil);
// and a store that could not be consulted returns an error of kind
// SessionAccess. Callers must not treat the error case as an invalid token.
func (e *Engine) ValidateLoginToken(ctx context.Context, token *session.Token) (*ValidatedSubject, error) {
	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}()

	record, err := e.resolveRecord(ctx, token)
	if err != nil {
		e.metrics.Inc(MetricValidateUnavailable)
		return nil, err
	}
	if record == nil {
		e.metrics.Inc(MetricValidateInvalid)
		return nil, nil
	}

	subject := record.Subject()
	if subject == nil {
		e.metrics.Inc(MetricValidateInvalid)
		return nil, nil
	}

	e.metrics.Inc(MetricValidateValid)
	return &ValidatedSubject{
		Principal:  subject.Principal,
		Roles:      append([]string(nil), subject.Roles...),
		SessionRef: record.ID().DisplayHash(),
	}, nil
}

// ResolveSubject returns the session subject for a token, with the same
// invalid-versus-indeterminate contract as ValidateLoginToken. It backs the
// access checker's session resolution.
func (e *Engine) ResolveSubject(ctx context.Context, token *session.Token) (*session.Subject, error) {
	record, err := e.resolveRecord(ctx, token)
	if err != nil || record == nil {
		return nil, err
	}
	subject := record.Subject()
	if subject == nil {
		return nil, nil
	}
	return subject.Clone(), nil
}

// RequestSessionExtension pushes the session's expiration out by the
// configured lifetime and returns a replacement token. A nil token with nil
// error means the extension was refused: extensions are disabled, the token
// is invalid, or the session no longer exists. Sessions with no expiration
// are returned unchanged.
func (e *Engine) RequestSessionExtension(ctx context.Context, token *session.Token) (*session.Token, error) {
	if !e.config.Session.AllowExtension {
		e.metrics.Inc(MetricExtensionDenied)
		return nil, nil
	}

	record, err := e.resolveRecord(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		e.metrics.Inc(MetricExtensionDenied)
		return nil, nil
	}
	if record.ExpireAt() == 0 {
		return record.Token(), nil
	}

	newExpire := e.sessionExpireAt(nowMillis())
	if _, err := e.store.UpdateExpiry(ctx, record.ID(), newExpire); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			e.metrics.Inc(MetricExtensionDenied)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: extending session: %v", autherr.ErrSessionAccess, err)
	}

	e.metrics.Inc(MetricExtensionGranted)
	ref := record.ID().DisplayHash()
	subject := record.Subject()
	principal := ""
	if subject != nil {
		principal = subject.Principal
	}
	e.emitAudit(ctx, EventSessionExtension, principal, ref, true, nil)
	return session.NewToken(record.ID(), newExpire), nil
}

// RefreshSessionSubject re-reads the principal's current roles from the
// user verifier and writes them into the live session, so role grants and
// revocations reach running validators without forcing a new login. The
// invalid-versus-indeterminate contract matches ValidateLoginToken.
func (e *Engine) RefreshSessionSubject(ctx context.Context, token *session.Token) (*ValidatedSubject, error) {
	record, err := e.resolveRecord(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	subject := record.Subject()
	if subject == nil {
		return nil, nil
	}

	user, err := e.verifier.LookupUser(subject.Principal)
	if err != nil {
		return nil, err
	}

	fresh := user.Subject()
	if err := e.store.UpdateSubject(ctx, record.ID(), &fresh); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: updating session subject: %v", autherr.ErrSessionAccess, err)
	}

	return &ValidatedSubject{
		Principal:  fresh.Principal,
		Roles:      append([]string(nil), fresh.Roles...),
		SessionRef: record.ID().DisplayHash(),
	}, nil
}

// Logout destroys the session behind the token. It is idempotent: a token
// whose session is already gone, or a nil token, succeeds.
func (e *Engine) Logout(ctx context.Context, token *session.Token) error {
	if token == nil {
		return nil
	}

	err := e.store.Delete(ctx, token.ID())
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return fmt.Errorf("%w: deleting session: %v", autherr.ErrSessionAccess, err)
	}

	e.metrics.Inc(MetricLogout)
	e.emitAudit(ctx, EventLogout, "", token.ID().DisplayHash(), true, nil)
	return nil
}

// resolveRecord loads the live session for a token. It returns (nil, nil)
// when the token is authoritatively invalid and a SessionAccess error when
// the store could not answer.
func (e *Engine) resolveRecord(ctx context.Context, token *session.Token) (*session.Record, error) {
	if token == nil {
		return nil, nil
	}

	now := nowMillis()
	if token.ExpiredAt(now) {
		return nil, nil
	}

	record, err := e.store.Get(ctx, token.ID())
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: loading session: %v", autherr.ErrSessionAccess, err)
	}
	if record.IsExpired(now) {
		return nil, nil
	}
	return record, nil
}
