package trigger

import (
	"time"

	"timesignal/internal/quarter"
)

// NextTrigger returns the first instant strictly after from whose local minute
// equals slot.Minute() and whose seconds are zero. An exact hit on the
// boundary rolls forward a full hour.
//
// The arithmetic stays on the absolute timeline (like adding an hour to a zoned
// date-time), so in a repeated DST hour the next trigger is the repeated
// occurrence rather than a skip.
func NextTrigger(slot quarter.Slot, from time.Time) time.Time {
	base := from.Round(0).Add(-time.Duration(from.Second())*time.Second - time.Duration(from.Nanosecond()))
	candidate := base.Add(time.Duration(slot.Minute()-base.Minute()) * time.Minute)
	if !candidate.After(from) {
		candidate = candidate.Add(time.Hour)
	}
	return candidate
}
