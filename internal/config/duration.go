package config

import (
	"fmt"
	"strings"
	"time"
)

// Durations holds every duration-valued key of a Config, parsed.
// Unset keys stay zero; consumers apply their own defaults with Or.
type Durations struct {
	BusyTimeout        time.Duration
	LeadIn             time.Duration
	SafetyMargin       time.Duration
	ClockCheckInterval time.Duration
	ClockJumpThreshold time.Duration
}

type durationKey struct {
	path string
	raw  func(*Config) string
	dst  func(*Durations) *time.Duration
}

var durationKeys = []durationKey{
	{"settings.busy_timeout", func(c *Config) string { return c.Settings.BusyTimeout }, func(d *Durations) *time.Duration { return &d.BusyTimeout }},
	{"vibrator.lead_in", func(c *Config) string { return c.Vibrator.LeadIn }, func(d *Durations) *time.Duration { return &d.LeadIn }},
	{"wake.safety_margin", func(c *Config) string { return c.Wake.SafetyMargin }, func(d *Durations) *time.Duration { return &d.SafetyMargin }},
	{"events.clock_check_interval", func(c *Config) string { return c.Events.ClockCheckInterval }, func(d *Durations) *time.Duration { return &d.ClockCheckInterval }},
	{"events.clock_jump_threshold", func(c *Config) string { return c.Events.ClockJumpThreshold }, func(d *Durations) *time.Duration { return &d.ClockJumpThreshold }},
}

// Durations parses the duration keys. The first bad key is reported with its
// field path as prefix.
func (c *Config) Durations() (Durations, error) {
	var out Durations
	if c == nil {
		return out, nil
	}
	for _, k := range durationKeys {
		d, err := parseDuration(k.path, k.raw(c))
		if err != nil {
			return Durations{}, err
		}
		*k.dst(&out) = d
	}
	return out, nil
}

// Or returns d, or def when d is unset.
func Or(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Empty means 0; negative values are rejected.
func parseDuration(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
