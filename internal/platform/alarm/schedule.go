package alarm

import (
	"time"
)

// onceSchedule fires a single time at at. Once that instant has passed it
// returns the zero time, which cron treats as "never".
type onceSchedule struct {
	at time.Time
}

func (s onceSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}
