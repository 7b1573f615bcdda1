package config

import (
	"strings"

	logx "timesignal/pkg/logx"
)

// Restart-only sections: the daemon logs a warning when they change.
var restartSections = map[string]bool{
	"settings": true,
	"vibrator": true,
	"wake":     true,
	"events":   true,
}

// RequiresRestart reports whether a changed section only takes effect after a restart.
func RequiresRestart(section string) bool { return restartSections[section] }

// SummarizeConfigChange returns the changed sections plus structured fields
// describing the new values.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if !strings.EqualFold(strings.TrimSpace(oldCfg.Timezone), strings.TrimSpace(newCfg.Timezone)) {
		changed = append(changed, "timezone")
		attrs = append(attrs, logx.String("timezone", newCfg.Timezone))
	}
	if oldCfg.Settings != newCfg.Settings {
		changed = append(changed, "settings")
		attrs = append(attrs,
			logx.String("settings.driver", newCfg.Settings.Driver),
			logx.String("settings.path", newCfg.Settings.Path),
		)
	}
	if oldCfg.ExactAllowed() != newCfg.ExactAllowed() {
		changed = append(changed, "alarm")
		attrs = append(attrs, logx.Bool("alarm.exact_allowed", newCfg.ExactAllowed()))
	}
	if oldCfg.Vibrator != newCfg.Vibrator {
		changed = append(changed, "vibrator")
		attrs = append(attrs,
			logx.String("vibrator.driver", newCfg.Vibrator.Driver),
			logx.String("vibrator.lead_in", newCfg.Vibrator.LeadIn),
		)
	}
	if oldCfg.Wake != newCfg.Wake {
		changed = append(changed, "wake")
		attrs = append(attrs, logx.String("wake.driver", newCfg.Wake.Driver))
	}
	if oldCfg.Events.ClockCheckInterval != newCfg.Events.ClockCheckInterval ||
		oldCfg.Events.ClockJumpThreshold != newCfg.Events.ClockJumpThreshold ||
		oldCfg.Events.ZoneinfoPath != newCfg.Events.ZoneinfoPath ||
		oldCfg.WatchZoneinfo() != newCfg.WatchZoneinfo() {
		changed = append(changed, "events")
		attrs = append(attrs, logx.String("events.clock_check_interval", newCfg.Events.ClockCheckInterval))
	}
	return changed, attrs
}
