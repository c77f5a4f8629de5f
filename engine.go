package phoneauth

import (
	"context"
	"errors"
	"time"

	"github.com/aungsithu-dev/phoneauth/internal/audit"
	"github.com/aungsithu-dev/phoneauth/internal/limiters"
	"github.com/aungsithu-dev/phoneauth/internal/metrics"
	"github.com/aungsithu-dev/phoneauth/jwt"
	"github.com/aungsithu-dev/phoneauth/password"
)

// Engine is the phone-OTP identity and session engine. Configure it once
// through the Builder and treat it as immutable afterwards; all methods
// are safe for concurrent use.
type Engine struct {
	config     Config
	userStore  UserStore
	otpStore   OtpStore
	otpSender  OtpSender
	jwtManager *jwt.Manager
	hasher     *password.Hasher
	throttle   *limiters.RequestThrottle
	audit      *audit.Dispatcher
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters
// keyed by stable export names.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Throttle consumes one request slot for the caller's IP. It returns
// ErrThrottled once the fixed-window budget is exhausted, or nil when
// throttling is disabled.
func (e *Engine) Throttle(ctx context.Context, ip string) error {
	if e.throttle == nil {
		return nil
	}
	if err := e.throttle.Allow(ctx, ip); err != nil {
		if errors.Is(err, limiters.ErrRateLimited) {
			e.metrics.Inc(metrics.MetricThrottleHit)
			return ErrThrottled
		}
		return serverError(err)
	}
	return nil
}

// otpWriteAttempts bounds the optimistic-concurrency retry loop around
// OTP record read-modify-write cycles.
const otpWriteAttempts = 3

// runOtpCAS re-runs fn while it reports a sequence conflict on the OTP
// record. fn must be restartable: it re-reads the record and re-decides
// on every attempt.
func runOtpCAS[T any](fn func() (T, error)) (T, error) {
	var result T
	var err error
	for attempt := 0; attempt < otpWriteAttempts; attempt++ {
		result, err = fn()
		if !errors.Is(err, ErrOtpConflict) {
			return result, err
		}
	}
	return result, serverError(err)
}

// runOtpWrite is runOtpCAS for closures with no result.
func runOtpWrite(fn func() error) error {
	_, err := runOtpCAS(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
