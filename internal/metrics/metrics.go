// Package metrics holds the engine's in-process atomic counters.
// Snapshot gives a consistent point-in-time copy; the exporters in
// metrics/export render it for external systems.
package metrics

import "sync/atomic"

// MetricID identifies one counter.
type MetricID uint8

const (
	MetricOtpIssued MetricID = iota
	MetricOtpRequestLimited
	MetricOtpVerifySuccess
	MetricOtpVerifyFailure
	MetricOtpBlocked
	MetricRegisterSuccess
	MetricLoginSuccess
	MetricLoginFailure
	MetricAccountFrozen
	MetricLogout
	MetricRefreshSuccess
	MetricRefreshReuseDetected
	MetricPasswordResetSuccess
	MetricThrottleHit

	MetricIDCount
)

var names = [MetricIDCount]string{
	MetricOtpIssued:            "otp_issued",
	MetricOtpRequestLimited:    "otp_request_limited",
	MetricOtpVerifySuccess:     "otp_verify_success",
	MetricOtpVerifyFailure:     "otp_verify_failure",
	MetricOtpBlocked:           "otp_blocked",
	MetricRegisterSuccess:      "register_success",
	MetricLoginSuccess:         "login_success",
	MetricLoginFailure:         "login_failure",
	MetricAccountFrozen:        "account_frozen",
	MetricLogout:               "logout",
	MetricRefreshSuccess:       "refresh_success",
	MetricRefreshReuseDetected: "refresh_reuse_detected",
	MetricPasswordResetSuccess: "password_reset_success",
	MetricThrottleHit:          "throttle_hit",
}

// Name returns the stable export name of a counter.
func (id MetricID) Name() string {
	if id >= MetricIDCount {
		return "unknown"
	}
	return names[id]
}

// Metrics is a fixed array of atomic counters. A nil or disabled
// Metrics ignores all operations.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot is a point-in-time copy of every counter keyed by name.
type Snapshot map[string]uint64

func (m *Metrics) Snapshot() Snapshot {
	snap := make(Snapshot, MetricIDCount)
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap[id.Name()] = m.counters[id].Load()
	}
	return snap
}
