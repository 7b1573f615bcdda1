package trigger

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"timesignal/internal/quarter"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 3, 14, h, m, s, 0, time.UTC)
}

func TestNextTriggerExamples(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		slot quarter.Slot
		from time.Time
		want time.Time
	}{
		{"exact boundary rolls forward", quarter.Fifteen, at(10, 15, 0), at(11, 15, 0)},
		{"one second before", quarter.Thirty, at(10, 29, 59), at(10, 30, 0)},
		{"zero slot mid hour", quarter.Zero, at(10, 7, 30), at(11, 0, 0)},
		{"forty five early", quarter.FortyFive, at(10, 0, 0), at(10, 45, 0)},
		{"just after slot", quarter.FortyFive, at(10, 45, 1), at(11, 45, 0)},
		{"crosses midnight", quarter.Zero, at(23, 59, 59), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"sub-second reference", quarter.Thirty, at(10, 30, 0).Add(500 * time.Millisecond), at(11, 30, 0)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NextTrigger(tc.slot, tc.from)
			if !got.Equal(tc.want) {
				t.Fatalf("NextTrigger(%v, %v) = %v, want %v", tc.slot, tc.from, got, tc.want)
			}
		})
	}
}

func TestNextTriggerProperties(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(42))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2000; i++ {
		from := base.Add(time.Duration(r.Int63n(int64(365 * 24 * time.Hour))))
		for _, slot := range quarter.All() {
			got := NextTrigger(slot, from)
			if !got.After(from) {
				t.Fatalf("NextTrigger(%v, %v) = %v, not after reference", slot, from, got)
			}
			if got.Sub(from) > time.Hour {
				t.Fatalf("NextTrigger(%v, %v) = %v, more than an hour away", slot, from, got)
			}
			if got.Second() != 0 || got.Nanosecond() != 0 {
				t.Fatalf("NextTrigger(%v, %v) = %v, seconds not zeroed", slot, from, got)
			}
			if got.Minute() != slot.Minute() {
				t.Fatalf("NextTrigger(%v, %v) = %v, wrong minute", slot, from, got)
			}
		}
	}
}

func TestNextTriggerMatchesCronSchedule(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(7))
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, slot := range quarter.All() {
		sched, err := cron.ParseStandard(fmt.Sprintf("%d * * * *", slot.Minute()))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		for i := 0; i < 500; i++ {
			from := base.Add(time.Duration(r.Int63n(int64(30 * 24 * time.Hour))))
			if i%10 == 0 {
				from = from.Truncate(time.Minute)
			}
			want := sched.Next(from)
			if got := NextTrigger(slot, from); !got.Equal(want) {
				t.Fatalf("slot %v from %v: got %v, cron says %v", slot, from, got, want)
			}
		}
	}
}

func TestNextTriggerHalfHourOffsetZone(t *testing.T) {
	t.Parallel()
	zone := time.FixedZone("IST", 5*3600+30*60)
	from := time.Date(2024, 3, 14, 9, 50, 0, 0, zone)
	got := NextTrigger(quarter.Zero, from)
	want := time.Date(2024, 3, 14, 10, 0, 0, 0, zone)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.In(zone).Minute() != 0 {
		t.Fatalf("local minute = %d", got.In(zone).Minute())
	}
}

// Lord Howe shifts by 30 minutes, so an absolute hour after 01:30 +10:30 is
// 03:00 +11 local. The result stays one hour after the pre-shift candidate.
func TestNextTriggerHalfHourDSTShift(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Australia/Lord_Howe")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	from := time.Date(2024, 10, 6, 1, 50, 0, 0, loc)
	got := NextTrigger(quarter.Thirty, from)
	want := time.Date(2024, 10, 6, 1, 30, 0, 0, loc).Add(time.Hour)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !got.After(from) || got.Sub(from) > time.Hour {
		t.Fatalf("got %v not within the hour after %v", got, from)
	}
}

func TestNextTriggerIgnoresMonotonicReading(t *testing.T) {
	t.Parallel()
	now := time.Now()
	got := NextTrigger(quarter.Fifteen, now)
	if !got.After(now) || got.Sub(now) > time.Hour {
		t.Fatalf("NextTrigger(now) = %v for now %v", got, now)
	}
}

func TestPreviewListsEnabledSlotsOnly(t *testing.T) {
	t.Parallel()
	st := quarter.DefaultState()
	st = st.With(quarter.Thirty, quarter.Settings{Enabled: true})
	st = st.With(quarter.Zero, quarter.Settings{Enabled: true})
	got := Preview(st, at(10, 20, 0))
	if len(got) != 2 {
		t.Fatalf("preview len = %d, want 2", len(got))
	}
	if got[0].Slot != quarter.Zero || !got[0].At.Equal(at(11, 0, 0)) {
		t.Fatalf("preview[0] = %+v", got[0])
	}
	if got[1].Slot != quarter.Thirty || !got[1].At.Equal(at(10, 30, 0)) {
		t.Fatalf("preview[1] = %+v", got[1])
	}
}
