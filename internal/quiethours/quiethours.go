// Package quiethours decides whether a signal falls inside the configured
// suppression window.
package quiethours

import (
	"time"

	"timesignal/internal/quarter"
)

// IsWithin reports whether now (in its own location) is inside cfg's window.
// Start is inclusive and end exclusive in both the plain and the
// midnight-wrapping case. Start == End is an empty window.
func IsWithin(cfg quarter.QuietHours, now time.Time) bool {
	if !cfg.Enabled {
		return false
	}
	t := sinceMidnight(now)
	start := cfg.Start.SinceMidnight()
	end := cfg.End.SinceMidnight()
	if start <= end {
		return t >= start && t < end
	}
	return t >= start || t < end
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
