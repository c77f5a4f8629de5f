package phoneauth

import "github.com/aungsithu-dev/phoneauth/internal/metrics"

// MetricsSnapshot is a point-in-time copy of the engine's counters keyed
// by stable export names such as "otp_issued" or "refresh_reuse_detected".
type MetricsSnapshot = metrics.Snapshot
