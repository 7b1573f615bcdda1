package config

import (
	"fmt"
	"strings"
	"time"

	logx "timesignal/pkg/logx"
)

const (
	DefaultPath         = "./timesignal.yaml"
	DefaultSettingsPath = "./timesignal.settings.json"
)

// Default is used when no config file exists.
func Default() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info", Console: true},
		Settings: SettingsConfig{Driver: "file", Path: DefaultSettingsPath},
		Vibrator: VibratorConfig{Driver: "log"},
		Wake:     WakeConfig{Driver: "none"},
	}
}

// Validate rejects values that would fail later at wiring time. Errors name
// the offending field path.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" && !logx.ValidLevel(lv) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	if cfg.Logging.File.Enabled && strings.TrimSpace(cfg.Logging.File.Path) == "" {
		return fmt.Errorf("logging.file.path: required when logging.file.enabled")
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" && !strings.EqualFold(tz, "local") {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("timezone: invalid %q: %w", tz, err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Settings.Driver)) {
	case "", "file", "json", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("settings.driver: unknown driver %q", cfg.Settings.Driver)
	}
	if strings.TrimSpace(cfg.Settings.Path) == "" {
		return fmt.Errorf("settings.path: required")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Vibrator.Driver)) {
	case "", "timed_output", "leds", "log", "none":
	default:
		return fmt.Errorf("vibrator.driver: unknown driver %q", cfg.Vibrator.Driver)
	}
	if cfg.Vibrator.Amplitude < 0 || cfg.Vibrator.Amplitude > 255 {
		return fmt.Errorf("vibrator.amplitude: must be within 0..255")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Wake.Driver)) {
	case "", "logind", "none":
	default:
		return fmt.Errorf("wake.driver: unknown driver %q", cfg.Wake.Driver)
	}

	_, err := cfg.Durations()
	return err
}
