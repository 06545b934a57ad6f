package kvauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/internal/rate"
	"github.com/oracle/nosql-kvauth/session"
)

// Login authenticates the credentials and allocates a session.
//
// Bad credentials return autherr.ErrAuthenticationFailure. A correct but
// expired password returns ErrPasswordExpired; the caller should retry
// through RenewPasswordLogin. ErrLoginRateLimited is returned when the
// attempt window for the user or host is exhausted.
func (e *Engine) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	host := ClientHostFromContext(ctx)

	if err := e.checkLoginRate(ctx, creds.Username, host); err != nil {
		return nil, err
	}

	user, err := e.verifier.VerifyLogin(creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordExpired) {
			e.emitAudit(ctx, EventLogin, creds.Username, 0, false, err)
			return nil, err
		}
		e.metrics.Inc(MetricLoginFailure)
		e.recordLoginFailure(ctx, creds.Username, host)
		e.emitAudit(ctx, EventLogin, creds.Username, 0, false, err)
		if autherr.KindOf(err) != autherr.KindNone {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", autherr.ErrAuthenticationFailure, creds.Username)
	}

	result, ref, err := e.createSession(ctx, user)
	if err != nil {
		e.emitAudit(ctx, EventLogin, user.Principal, 0, false, err)
		return nil, err
	}

	if e.limiter != nil {
		if rerr := e.limiter.Reset(ctx, creds.Username); rerr != nil {
			e.logger.Error(rerr, "resetting login attempt window", "user", creds.Username)
		}
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, EventLogin, user.Principal, ref, true, nil)
	return result, nil
}

// ProxyLogin allocates a session for the target principal without a
// password check. The caller must prove it is a store component, either
// with a component assertion or by presenting a token whose subject holds
// a trusted role.
//
// When proxy login is disabled the operation returns
// autherr.ErrUnsupportedOperation.
func (e *Engine) ProxyLogin(ctx context.Context, creds ProxyCredentials, callerToken *session.Token) (*LoginResult, error) {
	if !e.config.Proxy.Enabled {
		return nil, autherr.ErrUnsupportedOperation
	}

	if err := e.checkProxyTrust(ctx, creds, callerToken); err != nil {
		e.metrics.Inc(MetricProxyLoginDenied)
		e.emitAudit(ctx, EventProxyLogin, creds.Target, 0, false, err)
		return nil, err
	}

	user, err := e.verifier.LookupUser(creds.Target)
	if err != nil {
		e.metrics.Inc(MetricProxyLoginDenied)
		e.emitAudit(ctx, EventProxyLogin, creds.Target, 0, false, err)
		if autherr.KindOf(err) != autherr.KindNone {
			return nil, err
		}
		return nil, fmt.Errorf("%w: unknown proxy target", autherr.ErrAuthenticationFailure)
	}

	result, ref, err := e.createSession(ctx, user)
	if err != nil {
		e.emitAudit(ctx, EventProxyLogin, user.Principal, 0, false, err)
		return nil, err
	}

	e.metrics.Inc(MetricProxyLoginSuccess)
	e.emitAudit(ctx, EventProxyLogin, user.Principal, ref, true, nil)
	return result, nil
}

// RenewPasswordLogin replaces an expired password and logs in with the new
// one. Verifiers reject renewal for passwords that are not expired, so this
// cannot be used to sidestep a compromised-credential lockout.
func (e *Engine) RenewPasswordLogin(ctx context.Context, creds RenewCredentials) (*LoginResult, error) {
	host := ClientHostFromContext(ctx)

	if err := e.checkLoginRate(ctx, creds.Username, host); err != nil {
		return nil, err
	}

	user, err := e.verifier.RenewPassword(creds.Username, creds.OldPassword, creds.NewPassword)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.recordLoginFailure(ctx, creds.Username, host)
		e.emitAudit(ctx, EventPasswordRenew, creds.Username, 0, false, err)
		if autherr.KindOf(err) != autherr.KindNone || errors.Is(err, ErrPasswordExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: password renewal refused", autherr.ErrAuthenticationFailure)
	}

	result, ref, err := e.createSession(ctx, user)
	if err != nil {
		e.emitAudit(ctx, EventPasswordRenew, user.Principal, 0, false, err)
		return nil, err
	}

	if e.limiter != nil {
		if rerr := e.limiter.Reset(ctx, creds.Username); rerr != nil {
			e.logger.Error(rerr, "resetting login attempt window", "user", creds.Username)
		}
	}

	e.metrics.Inc(MetricPasswordRenewSuccess)
	e.emitAudit(ctx, EventPasswordRenew, user.Principal, ref, true, nil)
	return result, nil
}

func (e *Engine) checkProxyTrust(ctx context.Context, creds ProxyCredentials, callerToken *session.Token) error {
	if creds.Assertion != "" {
		if e.trust == nil {
			return fmt.Errorf("%w: no assertion verifier configured", ErrProxyNotTrusted)
		}
		component, err := e.trust.Verify(creds.Assertion)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProxyNotTrusted, err)
		}
		e.logger.V(1).Info("proxy login by component assertion",
			"component", component, "target", creds.Target)
		return nil
	}

	if callerToken == nil {
		return ErrProxyNotTrusted
	}
	subject, err := e.ResolveSubject(ctx, callerToken)
	if err != nil {
		return err
	}
	if subject == nil {
		return ErrProxyNotTrusted
	}
	for _, role := range e.config.Proxy.TrustedRoles {
		if subject.HasRole(role) {
			return nil
		}
	}
	return ErrProxyNotTrusted
}

func (e *Engine) checkLoginRate(ctx context.Context, user, host string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.Check(ctx, user, host)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metrics.Inc(MetricLoginRateLimited)
		e.emitAudit(ctx, EventLogin, user, 0, false, ErrLoginRateLimited)
		return ErrLoginRateLimited
	}
	// Limiter backend trouble must not lock users out.
	e.logger.Error(err, "login rate check unavailable", "user", user)
	return nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, user, host string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, user, host); err != nil {
		e.logger.Error(err, "recording login failure", "user", user)
	}
}

// createSession allocates an identity, persists the record and returns the
// caller's token together with the session's display hash.
func (e *Engine) createSession(ctx context.Context, user *UserInfo) (*LoginResult, uint32, error) {
	id, persistent, err := e.newSessionID()
	if err != nil {
		return nil, 0, &autherr.Internal{Cause: err}
	}

	now := nowMillis()
	subject := user.Subject()
	record := session.NewRecord(id, &subject, ClientHostFromContext(ctx), e.sessionExpireAt(now), persistent)

	if err := e.store.Save(ctx, record); err != nil {
		return nil, 0, fmt.Errorf("%w: saving session: %v", autherr.ErrSessionAccess, err)
	}

	e.metrics.Inc(MetricSessionCreated)
	return &LoginResult{Token: record.Token()}, id.DisplayHash(), nil
}
