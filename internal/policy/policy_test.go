package policy

import (
	"testing"
	"time"
)

func TestSameCalendarDay(t *testing.T) {
	base := time.Date(2025, 3, 10, 23, 50, 0, 0, time.UTC)

	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"same instant", base, base, true},
		{"same day different hour", base.Add(-20 * time.Hour), base, true},
		{"minutes across midnight", base, base.Add(15 * time.Minute), false},
		{"exactly 24h later", base, base.Add(24 * time.Hour), false},
		{"different zone same utc day", base, base.In(time.FixedZone("MMT", 6*3600+1800)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameCalendarDay(tt.last, tt.now); got != tt.want {
				t.Errorf("SameCalendarDay(%v, %v) = %v, want %v", tt.last, tt.now, got, tt.want)
			}
		})
	}
}

func TestErrorCeilingReached(t *testing.T) {
	if ErrorCeilingReached(false, 99, 5) {
		t.Error("prior-day count must never block")
	}
	if ErrorCeilingReached(true, 4, 5) {
		t.Error("below ceiling should pass")
	}
	if !ErrorCeilingReached(true, 5, 5) {
		t.Error("at ceiling should block")
	}
}

func TestIssueLimitReached(t *testing.T) {
	if IssueLimitReached(false, 10, 3) {
		t.Error("a new day always unlocks issuance")
	}
	if IssueLimitReached(true, 2, 3) {
		t.Error("below limit should pass")
	}
	if !IssueLimitReached(true, 3, 3) {
		t.Error("at limit should block")
	}
}

func TestVerifyExpiredBoundary(t *testing.T) {
	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Minute

	if VerifyExpired(issued, issued.Add(window), window) {
		t.Error("exactly at the window edge is still valid")
	}
	if !VerifyExpired(issued, issued.Add(window+time.Second), window) {
		t.Error("one second past the window is expired")
	}
}

func TestConsumeExpiredBoundary(t *testing.T) {
	verified := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	if ConsumeExpired(verified, verified.Add(window-time.Second), window) {
		t.Error("inside the window is still valid")
	}
	if !ConsumeExpired(verified, verified.Add(window), window) {
		t.Error("the consume boundary is inclusive")
	}
}

func TestNextErrorCount(t *testing.T) {
	if got := NextErrorCount(false, 4); got != 1 {
		t.Errorf("new day restart = %d, want 1", got)
	}
	if got := NextErrorCount(true, 4); got != 5 {
		t.Errorf("same day bump = %d, want 5", got)
	}
}
