package trigger

import (
	"time"

	"timesignal/internal/quarter"
)

// Payload travels with a registered alarm and comes back on delivery.
type Payload struct {
	Slot quarter.Slot `json:"slot"`
	// ScheduledAt is the instant the alarm was registered for; used to report
	// delivery delay.
	ScheduledAt time.Time `json:"scheduled_at"`
}

// AlarmCapability is the host's one-shot wake alarm facility.
type AlarmCapability interface {
	// ScheduleExactWake registers (or replaces) the alarm identified by key.
	ScheduleExactWake(key int, at time.Time, payload Payload) error
	// Cancel removes the alarm identified by key. Unknown keys are not an error.
	Cancel(key int) error
	// CanScheduleExact is the permission gate for exact alarms.
	CanScheduleExact() bool
}

// Clock supplies the current zoned instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Registration describes one pending alarm.
type Registration struct {
	Slot quarter.Slot
	At   time.Time
}
