package internaldefs

// CounterDef binds one engine counter, addressed by its stable snapshot
// key, to the exposition name and help text every exporter must use.
type CounterDef struct {
	Key  string
	Name string
	Help string
}

// CounterDefs lists every engine counter in exposition order.
var CounterDefs = []CounterDef{
	{Key: "otp_issued", Name: "phoneauth_otp_issued_total", Help: "Verification codes issued and dispatched."},
	{Key: "otp_request_limited", Name: "phoneauth_otp_request_limited_total", Help: "Code requests rejected by the daily issuance budget."},
	{Key: "otp_verify_success", Name: "phoneauth_otp_verify_success_total", Help: "Successful code verifications."},
	{Key: "otp_verify_failure", Name: "phoneauth_otp_verify_failure_total", Help: "Failed code verifications."},
	{Key: "otp_blocked", Name: "phoneauth_otp_blocked_total", Help: "Verification attempts rejected on a blocked record."},
	{Key: "register_success", Name: "phoneauth_register_success_total", Help: "Completed registrations."},
	{Key: "login_success", Name: "phoneauth_login_success_total", Help: "Successful logins."},
	{Key: "login_failure", Name: "phoneauth_login_failure_total", Help: "Failed login attempts."},
	{Key: "account_frozen", Name: "phoneauth_account_frozen_total", Help: "Accounts frozen after repeated failures."},
	{Key: "logout", Name: "phoneauth_logout_total", Help: "Logout operations."},
	{Key: "refresh_success", Name: "phoneauth_refresh_success_total", Help: "Successful session refresh rotations."},
	{Key: "refresh_reuse_detected", Name: "phoneauth_refresh_reuse_detected_total", Help: "Detected refresh token reuses."},
	{Key: "password_reset_success", Name: "phoneauth_password_reset_success_total", Help: "Completed password resets."},
	{Key: "throttle_hit", Name: "phoneauth_throttle_hit_total", Help: "Requests denied by the per-IP throttle."},
}

// AuditDroppedName is the exposition name of the audit backpressure
// counter, which lives on the dispatcher rather than in the snapshot.
const AuditDroppedName = "phoneauth_audit_dropped_total"

// AuditDroppedHelp documents the audit backpressure counter.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
