package kvauth

import "github.com/oracle/nosql-kvauth/internal/audit"

// AuditEvent is re-exported so callers can implement sinks without
// importing the internal package.
type AuditEvent = audit.Event

// AuditSink receives audit events emitted by the engine.
type AuditSink = audit.Sink

// Audit event types emitted by the engine.
const (
	EventLogin            = "login"
	EventProxyLogin       = "proxy_login"
	EventPasswordRenew    = "password_renew"
	EventLogout           = "logout"
	EventSessionExtension = "session_extension"
	EventTokenValidation  = "token_validation"
)
