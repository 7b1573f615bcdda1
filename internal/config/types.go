package config

// Config is the daemon configuration file (JSON or YAML).
//
// All durations are Go duration strings (e.g. "200ms", "10s").
//
// Example:
//
//	logging:  { level: info, console: true }
//	timezone: Europe/Berlin
//	settings: { driver: sqlite, path: /var/lib/timesignal/settings.db }
//	vibrator: { driver: timed_output }
//	wake:     { driver: logind }
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Timezone for trigger computation. Empty or "Local" follows the host
	// zone and picks up changes to /etc/localtime.
	Timezone string `json:"timezone,omitempty"`

	Settings SettingsConfig `json:"settings"`
	Alarm    AlarmConfig    `json:"alarm"`
	Vibrator VibratorConfig `json:"vibrator"`
	Wake     WakeConfig     `json:"wake"`
	Events   EventsConfig   `json:"events"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SettingsConfig selects the settings store.
//
//	"settings": { "driver": "file", "path": "./timesignal.settings.json" }
type SettingsConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type AlarmConfig struct {
	// ExactAllowed is the permission gate for exact wake alarms. When false,
	// scheduling is a silent no-op and status reports it. Defaults to true.
	ExactAllowed *bool `json:"exact_allowed,omitempty"`
}

type VibratorConfig struct {
	Driver string `json:"driver"` // timed_output | leds | log | none
	Path   string `json:"path,omitempty"`
	// LeadIn is slept before the first pulse.
	LeadIn    string `json:"lead_in,omitempty"`
	Amplitude int    `json:"amplitude,omitempty"`
}

type WakeConfig struct {
	Driver       string `json:"driver"` // logind | none
	SafetyMargin string `json:"safety_margin,omitempty"`
}

type EventsConfig struct {
	ClockCheckInterval string `json:"clock_check_interval,omitempty"`
	ClockJumpThreshold string `json:"clock_jump_threshold,omitempty"`
	ZoneinfoPath       string `json:"zoneinfo_path,omitempty"`
	WatchZoneinfo      *bool  `json:"watch_zoneinfo,omitempty"`
}

// ExactAllowed resolves the alarm permission gate.
func (c *Config) ExactAllowed() bool {
	if c == nil || c.Alarm.ExactAllowed == nil {
		return true
	}
	return *c.Alarm.ExactAllowed
}

// WatchZoneinfo resolves events.watch_zoneinfo (default true).
func (c *Config) WatchZoneinfo() bool {
	if c == nil || c.Events.WatchZoneinfo == nil {
		return true
	}
	return *c.Events.WatchZoneinfo
}
