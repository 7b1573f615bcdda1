// Package vibrator drives the host vibration motor.
//
// Drivers:
//   - "timed_output": writes the pulse length in ms to <path>/enable
//     (default /sys/class/timed_output/vibrator)
//   - "leds": the LED-class transient trigger, <path>/duration then
//     <path>/activate (default /sys/class/leds/vibrator)
//   - "log": logs every pulse; useful on hosts without a motor
//   - "none": discards pulses
package vibrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"timesignal/internal/haptics"
	logx "timesignal/pkg/logx"
)

const (
	DefaultTimedOutputPath = "/sys/class/timed_output/vibrator"
	DefaultLEDsPath        = "/sys/class/leds/vibrator"
)

type Config struct {
	Driver string
	Path   string
}

// Open returns the configured vibrator. An empty driver means "log".
func Open(cfg Config, log logx.Logger) (haptics.VibrationCapability, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "timed_output":
		return openSysfs(cfg.Path, DefaultTimedOutputPath, timedOutputWrite, log)
	case "leds":
		return openSysfs(cfg.Path, DefaultLEDsPath, ledsWrite, log)
	case "", "log":
		return &Log{log: log}, nil
	case "none":
		return None{}, nil
	default:
		return nil, errors.New("unknown vibrator driver: " + driver)
	}
}

// writeFunc pushes one pulse to the device directory.
type writeFunc func(dir string, ms int64) error

func timedOutputWrite(dir string, ms int64) error {
	return writeAttr(filepath.Join(dir, "enable"), ms)
}

func ledsWrite(dir string, ms int64) error {
	if err := writeAttr(filepath.Join(dir, "duration"), ms); err != nil {
		return err
	}
	return writeAttr(filepath.Join(dir, "activate"), 1)
}

func writeAttr(path string, v int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.FormatInt(v, 10)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Sysfs is a vibrator behind a sysfs attribute directory.
type Sysfs struct {
	dir   string
	write writeFunc
	log   logx.Logger

	mu sync.Mutex
}

func openSysfs(path, def string, write writeFunc, log logx.Logger) (*Sysfs, error) {
	dir := strings.TrimSpace(path)
	if dir == "" {
		dir = def
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("vibrator device: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("vibrator device %s is not a directory", dir)
	}
	return &Sysfs{dir: dir, write: write, log: log}, nil
}

func (s *Sysfs) Pulse(d time.Duration) error {
	ms := d.Milliseconds()
	if ms <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.dir, ms)
}

// SetAmplitude writes <dir>/amplitude when the kernel exposes it.
func (s *Sysfs) SetAmplitude(level int) error {
	path := filepath.Join(s.dir, "amplitude")
	if _, err := os.Stat(path); err != nil {
		s.log.Debug("amplitude not supported", logx.String("dir", s.dir))
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAttr(path, int64(level))
}

// Log records pulses instead of driving hardware.
type Log struct {
	log logx.Logger
}

func (l *Log) Pulse(d time.Duration) error {
	l.log.Info("vibrate", logx.Duration("for", d))
	return nil
}

type None struct{}

func (None) Pulse(time.Duration) error { return nil }
