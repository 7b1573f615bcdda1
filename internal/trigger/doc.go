// Package trigger computes quarter-hour trigger instants and keeps exactly one
// registered wake alarm per enabled slot.
//
// # Next trigger
//
// NextTrigger zeroes the seconds of the reference instant, moves the minute to
// the slot's minute and rolls forward one hour when the candidate is not
// strictly after the reference. The result depends only on the reference wall
// clock, never on when the previous alarm was supposed to fire, so late
// deliveries do not accumulate drift.
//
// # Registration
//
// Alarms are keyed by the slot ordinal. Registering the same key again replaces
// the pending alarm, so Reschedule (cancel every slot, then register the enabled
// ones) is idempotent and safe to call after boot, clock changes, timezone
// changes and settings edits.
//
// When the host denies exact wake alarms, ScheduleNext is a no-op. The slot
// stays silent until a later Reschedule succeeds; callers surface the condition
// through CanScheduleExact.
package trigger
