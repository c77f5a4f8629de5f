// Package policy holds the pure decision functions behind the engine's
// date-scoped counters. Nothing here touches a store or the clock; the
// caller supplies both timestamps so the functions stay trivially
// testable.
package policy

import "time"

// SameCalendarDay reports whether two instants fall in the same UTC
// calendar day. Time of day is ignored; explicit UTC truncation avoids
// timezone drift between nodes.
func SameCalendarDay(last, now time.Time) bool {
	ly, lm, ld := last.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ly == ny && lm == nm && ld == nd
}

// ErrorCeilingReached reports whether a record's same-day verification
// failures have hit the abuse ceiling. A prior-day count never blocks.
func ErrorCeilingReached(sameDay bool, errorCount, ceiling int) bool {
	return sameDay && errorCount >= ceiling
}

// IssueLimitReached reports whether another OTP may be issued today. The
// ceiling is call-site specific: 3/day for register-login issuance,
// 4/day for forgot-password.
func IssueLimitReached(sameDay bool, count, limit int) bool {
	return sameDay && count >= limit
}

// VerifyExpired reports whether an OTP is outside its verification
// window, measured from the record's last update.
func VerifyExpired(updatedAt, now time.Time, window time.Duration) bool {
	return now.Sub(updatedAt) > window
}

// ConsumeExpired reports whether a verifyToken is outside its
// consumption window. The boundary is inclusive: a token presented at
// exactly the window's edge is already expired.
func ConsumeExpired(updatedAt, now time.Time, window time.Duration) bool {
	return now.Sub(updatedAt) >= window
}

// NextErrorCount is the date-scoped failure bump applied on a wrong OTP:
// reset to 1 on a new day, increment otherwise.
func NextErrorCount(sameDay bool, errorCount int) int {
	if !sameDay {
		return 1
	}
	return errorCount + 1
}
