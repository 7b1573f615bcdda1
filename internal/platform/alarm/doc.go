// Package alarm implements the host wake-alarm facility on top of
// robfig/cron: every registration is a one-shot cron entry keyed by the slot
// ordinal. Registering a key again replaces its entry.
//
// Go timers follow the monotonic clock, so an entry can fire late after the
// host sleeps or the wall clock jumps. The daemon covers that by rescheduling
// on clock-jump events.
package alarm
