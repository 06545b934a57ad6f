package internaldefs

import (
	kvauth "github.com/oracle/nosql-kvauth"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   kvauth.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   kvauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: kvauth.MetricLoginSuccess, Name: "kvauth_login_success_total", Help: "Successful login attempts."},
	{ID: kvauth.MetricLoginFailure, Name: "kvauth_login_failure_total", Help: "Failed login attempts."},
	{ID: kvauth.MetricLoginRateLimited, Name: "kvauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: kvauth.MetricProxyLoginSuccess, Name: "kvauth_proxy_login_success_total", Help: "Successful proxy logins."},
	{ID: kvauth.MetricProxyLoginDenied, Name: "kvauth_proxy_login_denied_total", Help: "Proxy logins refused for lack of trust."},
	{ID: kvauth.MetricPasswordRenewSuccess, Name: "kvauth_password_renew_success_total", Help: "Successful password-renewal logins."},
	{ID: kvauth.MetricSessionCreated, Name: "kvauth_session_created_total", Help: "Allocated sessions."},
	{ID: kvauth.MetricExtensionGranted, Name: "kvauth_session_extension_granted_total", Help: "Granted session extensions."},
	{ID: kvauth.MetricExtensionDenied, Name: "kvauth_session_extension_denied_total", Help: "Refused session extensions."},
	{ID: kvauth.MetricValidateValid, Name: "kvauth_validate_valid_total", Help: "Token validations resolving a subject."},
	{ID: kvauth.MetricValidateInvalid, Name: "kvauth_validate_invalid_total", Help: "Token validations determined invalid."},
	{ID: kvauth.MetricValidateUnavailable, Name: "kvauth_validate_unavailable_total", Help: "Token validations the session store could not answer."},
	{ID: kvauth.MetricLogout, Name: "kvauth_logout_total", Help: "Logout operations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: kvauth.MetricValidateLatency, Name: "kvauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus style.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with names safe for metric
// identifiers.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form the
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
