package access

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oracle/nosql-kvauth/autherr"
	"github.com/oracle/nosql-kvauth/privilege"
	"github.com/oracle/nosql-kvauth/session"
)

// SessionResolver turns a login token into its session subject. A nil
// subject with nil error means the token is authoritatively invalid; an
// error means the backend could not answer and must carry the
// session-access kind.
type SessionResolver interface {
	ResolveSubject(ctx context.Context, token *session.Token) (*session.Subject, error)
}

// RoleResolver expands role names into the privileges they grant.
type RoleResolver interface {
	PrivilegesOf(roles []string) *privilege.Collection
}

// StaticRoles is a RoleResolver over a fixed role table.
type StaticRoles map[string][]privilege.Privilege

// PrivilegesOf implements RoleResolver. Unknown roles grant nothing.
func (r StaticRoles) PrivilegesOf(roles []string) *privilege.Collection {
	var all []privilege.Privilege
	for _, role := range roles {
		all = append(all, r[role]...)
	}
	return privilege.NewCollection(all...)
}

// Checker authorizes operations.
type Checker struct {
	sessions SessionResolver
	roles    RoleResolver
	denials  *DenialLogger
}

// NewChecker builds a checker. The denial logger may be nil, in which case
// denials are not logged (they are still returned to the caller).
func NewChecker(sessions SessionResolver, roles RoleResolver, denials *DenialLogger) *Checker {
	return &Checker{sessions: sessions, roles: roles, denials: denials}
}

// ExecutionContext carries the resolved subject and privileges for one
// operation, so multi-step operations check several privilege sets without
// re-resolving the session.
type ExecutionContext struct {
	subject    *session.Subject
	privileges *privilege.Collection
	operation  string
}

// Subject returns the operation's authenticated subject.
func (x *ExecutionContext) Subject() *session.Subject {
	return x.subject
}

// Privileges returns the subject's effective privilege collection.
func (x *ExecutionContext) Privileges() *privilege.Collection {
	return x.privileges
}

// Resolve authenticates the call and computes the subject's effective
// privileges without checking any yet.
//
// Failure kinds: authentication-required when the auth context carries no
// token or the token is invalid; session-access when the session backend
// could not be consulted.
func (c *Checker) Resolve(ctx context.Context, auth *session.AuthContext, operation string) (*ExecutionContext, error) {
	if !auth.Authenticated() {
		return nil, fmt.Errorf("%w: no login token", autherr.ErrAuthenticationRequired)
	}

	subject, err := c.sessions.ResolveSubject(ctx, auth.LoginToken)
	if err != nil {
		// Already carries the session-access kind; do not re-wrap into
		// authentication-required or the caller's retry policy inverts.
		return nil, err
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: session not found or expired", autherr.ErrAuthenticationRequired)
	}

	return &ExecutionContext{
		subject:    subject,
		privileges: c.roles.PrivilegesOf(subject.Roles),
		operation:  operation,
	}, nil
}

// CheckAccess authorizes the operation: the subject behind the auth context
// must hold privileges implying every required privilege.
func (c *Checker) CheckAccess(ctx context.Context, auth *session.AuthContext, operation string, required ...privilege.Privilege) error {
	execCtx, err := c.Resolve(ctx, auth, operation)
	if err != nil {
		return err
	}
	return c.Check(execCtx, required...)
}

// Check tests an already-resolved execution context against required
// privileges. Denials are recorded through the rate-limited logger and
// always returned to the caller; logging is sampled, the response never is.
func (c *Checker) Check(execCtx *ExecutionContext, required ...privilege.Privilege) error {
	missing := execCtx.privileges.Missing(required)
	if len(missing) == 0 {
		return nil
	}

	if c.denials != nil {
		c.denials.Record(denialKey(execCtx, missing), func(log logr.Logger, suppressed uint64) {
			log.Info("access denied",
				"principal", execCtx.subject.Principal,
				"operation", execCtx.operation,
				"missing", privilege.NewCollection(missing...).String(),
				"suppressedSinceLastLog", suppressed,
			)
		})
	}

	return fmt.Errorf("%w: %s requires %s", autherr.ErrAuthorizationDenied,
		execCtx.operation, privilege.NewCollection(missing...).String())
}

// denialKey is the stable description a repeated identical denial maps to.
func denialKey(execCtx *ExecutionContext, missing []privilege.Privilege) string {
	return execCtx.subject.Principal + "|" + execCtx.operation + "|" +
		privilege.NewCollection(missing...).String()
}
