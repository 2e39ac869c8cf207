package internaldefs

import (
	"github.com/credgate/credgate"
)

// CounterDef defines a public type used by credgate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   credgate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by credgate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   credgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the credential core.
var CounterDefs = []CounterDef{
	{ID: credgate.MetricLoginSuccess, Name: "credgate_login_success_total", Help: "Successful login attempts."},
	{ID: credgate.MetricLoginFailure, Name: "credgate_login_failure_total", Help: "Failed login attempts."},
	{ID: credgate.MetricLoginLocked, Name: "credgate_login_locked_total", Help: "Login attempts rejected or absorbed by an account lock."},
	{ID: credgate.MetricLoginThrottled, Name: "credgate_login_throttled_total", Help: "Throttled login attempts."},
	{ID: credgate.MetricRegisterSuccess, Name: "credgate_register_success_total", Help: "Successful account registrations."},
	{ID: credgate.MetricRegisterDuplicate, Name: "credgate_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: credgate.MetricPasswordChangeSuccess, Name: "credgate_password_change_success_total", Help: "Successful password changes."},
	{ID: credgate.MetricPasswordChangeInvalidOld, Name: "credgate_password_change_invalid_old_total", Help: "Password change attempts with invalid current password."},
	{ID: credgate.MetricPasswordChangeReuseRejected, Name: "credgate_password_change_reuse_rejected_total", Help: "Password change attempts rejected for reuse."},
	{ID: credgate.MetricResetRequest, Name: "credgate_reset_request_total", Help: "Password reset requests."},
	{ID: credgate.MetricResetConfirmSuccess, Name: "credgate_reset_confirm_success_total", Help: "Successful password reset redemptions."},
	{ID: credgate.MetricResetConfirmFailure, Name: "credgate_reset_confirm_failure_total", Help: "Failed password reset redemptions."},
	{ID: credgate.MetricResetNotifyFailure, Name: "credgate_reset_notify_failure_total", Help: "Reset tokens revoked because delivery failed."},
	{ID: credgate.MetricSessionIssued, Name: "credgate_session_issued_total", Help: "Issued session tokens."},
	{ID: credgate.MetricLogout, Name: "credgate_logout_total", Help: "Logout operations."},
}

// HistogramDefs is an exported constant or variable used by the credential core.
var HistogramDefs = []HistogramDef{
	{ID: credgate.MetricVerifyLatency, Name: "credgate_verify_latency_seconds", Help: "Session verification latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the credential core.
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

// HistogramBoundSuffix is an exported constant or variable used by the credential core.
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

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
