package quarter

import (
	"fmt"
	"strings"
	"time"

	"timesignal/internal/pattern"
)

// Settings is the per-slot configuration.
//
// Custom, when set, is authoritative. PresetID is the legacy representation and
// only applies when Custom is nil. When both are absent the default preset plays.
type Settings struct {
	Enabled  bool            `json:"enabled"`
	PresetID string          `json:"preset_id,omitempty"`
	Custom   *pattern.Fields `json:"custom,omitempty"`
}

// Pattern resolves the pattern this slot plays. A malformed custom chain is
// returned as *pattern.InvalidPatternError and never silently replaced.
func (s Settings) Pattern() (pattern.Pattern, error) {
	if s.Custom != nil && !s.Custom.IsEmpty() {
		return pattern.FromFields(*s.Custom)
	}
	if id := strings.TrimSpace(s.PresetID); id != "" {
		return pattern.MigratePreset(id), nil
	}
	return pattern.Default(), nil
}

// TimeOfDay is minutes since local midnight (0..1439).
type TimeOfDay int

const minutesPerDay = 24 * 60

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", raw)
	}
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Valid() bool    { return t >= 0 && t < minutesPerDay }
func (t TimeOfDay) Hour() int      { return int(t) / 60 }
func (t TimeOfDay) Minute() int    { return int(t) % 60 }
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()) }

// SinceMidnight is the offset of this time of day from local midnight.
func (t TimeOfDay) SinceMidnight() time.Duration { return time.Duration(t) * time.Minute }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// QuietHours is a daily suppression window. Start is inclusive, End exclusive;
// Start > End means the window wraps past midnight.
type QuietHours struct {
	Enabled bool      `json:"enabled"`
	Start   TimeOfDay `json:"start"`
	End     TimeOfDay `json:"end"`
}

// DefaultQuietHours is 23:00-07:00, disabled.
func DefaultQuietHours() QuietHours {
	return QuietHours{Enabled: false, Start: 23 * 60, End: 7 * 60}
}

// State is an immutable snapshot of everything the core reads from the settings store.
type State struct {
	Quarters   [Count]Settings `json:"quarters"`
	QuietHours QuietHours      `json:"quiet_hours"`

	// CanScheduleExact mirrors the alarm capability's permission gate so callers
	// can show an advisory when scheduling is deferred.
	CanScheduleExact bool `json:"can_schedule_exact"`
}

// DefaultState has every slot disabled with the default pattern.
func DefaultState() State {
	return State{QuietHours: DefaultQuietHours(), CanScheduleExact: true}
}

// Slot returns the settings for s; unknown slots read as disabled.
func (st State) Slot(s Slot) Settings {
	if !s.Valid() {
		return Settings{}
	}
	return st.Quarters[s]
}

// EnabledSlots lists enabled slots in minute order.
func (st State) EnabledSlots() []Slot {
	out := make([]Slot, 0, Count)
	for _, s := range All() {
		if st.Quarters[s].Enabled {
			out = append(out, s)
		}
	}
	return out
}

// With returns a copy with slot s replaced.
func (st State) With(s Slot, set Settings) State {
	if s.Valid() {
		st.Quarters[s] = set
	}
	return st
}
