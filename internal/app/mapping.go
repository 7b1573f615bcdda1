package app

import (
	"time"

	"timesignal/internal/config"
	"timesignal/internal/haptics"
	"timesignal/internal/platform/clock"
	"timesignal/internal/platform/sysevents"
	"timesignal/internal/platform/vibrator"
	"timesignal/internal/platform/wakelock"
	"timesignal/internal/settings"
	logx "timesignal/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapSettingsConfig(cfg *config.Config) (settings.Config, error) {
	d, err := cfg.Durations()
	if err != nil {
		return settings.Config{}, err
	}
	path := cfg.Settings.Path
	if path == "" {
		path = config.DefaultSettingsPath
	}
	return settings.Config{
		Driver:      cfg.Settings.Driver,
		Path:        path,
		BusyTimeout: d.BusyTimeout,
	}, nil
}

func mapVibratorConfig(cfg *config.Config) vibrator.Config {
	return vibrator.Config{Driver: cfg.Vibrator.Driver, Path: cfg.Vibrator.Path}
}

func mapWakeConfig(cfg *config.Config) wakelock.Config {
	return wakelock.Config{Driver: cfg.Wake.Driver}
}

func mapPolicy(cfg *config.Config) (haptics.Policy, error) {
	d, err := cfg.Durations()
	if err != nil {
		return haptics.Policy{}, err
	}
	return haptics.Policy{
		LeadIn:       d.LeadIn,
		Amplitude:    cfg.Vibrator.Amplitude,
		SafetyMargin: config.Or(d.SafetyMargin, haptics.DefaultSafetyMargin),
	}, nil
}

func zoneinfoPath(cfg *config.Config) string {
	if cfg.Events.ZoneinfoPath != "" {
		return cfg.Events.ZoneinfoPath
	}
	return clock.DefaultZoneinfoPath
}

func mapEventsConfig(cfg *config.Config) (sysevents.Config, error) {
	d, err := cfg.Durations()
	if err != nil {
		return sysevents.Config{}, err
	}
	interval := config.Or(d.ClockCheckInterval, sysevents.DefaultClockCheckInterval)
	return sysevents.Config{
		ClockCheckInterval: interval,
		ClockJumpThreshold: config.Or(d.ClockJumpThreshold, sysevents.DefaultClockJumpThreshold),
		ZoneinfoPath:       zoneinfoPath(cfg),
		WatchZoneinfo:      cfg.WatchZoneinfo(),
		MinGap:             max(sysevents.DefaultMinGap, 3*interval),
	}, nil
}

func loadLocation(cfg *config.Config) (*time.Location, error) {
	return clock.Load(cfg.Timezone, zoneinfoPath(cfg))
}

// validateMappings runs every mapping so a hot reload that would fail at
// wiring time is rejected before it is committed.
func validateMappings(cfg *config.Config) error {
	if _, err := mapSettingsConfig(cfg); err != nil {
		return err
	}
	if _, err := mapPolicy(cfg); err != nil {
		return err
	}
	if _, err := mapEventsConfig(cfg); err != nil {
		return err
	}
	_, err := loadLocation(cfg)
	return err
}
