package haptics

import (
	"time"
)

// VibrationCapability is the single hardware primitive: vibrate for d.
// Pulse starts the motor and returns; the engine sleeps for the pulse itself.
type VibrationCapability interface {
	Pulse(d time.Duration) error
}

// AmplitudeSetter is implemented by vibrators that support a strength level.
type AmplitudeSetter interface {
	SetAmplitude(level int) error
}

// WakeResource keeps the host awake for at most budget.
type WakeResource interface {
	Acquire(budget time.Duration) (WakeHandle, error)
}

// WakeHandle releases an acquired wake resource. Release must be safe to call
// more than once.
type WakeHandle interface {
	Release() error
}

// Policy adjusts playback to the capability in use.
type Policy struct {
	// LeadIn is slept before the first pulse. Some motors drop a pulse that
	// arrives right after the device leaves idle.
	LeadIn time.Duration
	// Amplitude is applied before the first pulse when > 0 and the vibrator
	// implements AmplitudeSetter.
	Amplitude int
	// SafetyMargin is added to the wake budget on top of the playback duration.
	SafetyMargin time.Duration
}

// DefaultSafetyMargin is used when Policy.SafetyMargin is zero.
const DefaultSafetyMargin = 200 * time.Millisecond

func (p Policy) withDefaults() Policy {
	if p.SafetyMargin <= 0 {
		p.SafetyMargin = DefaultSafetyMargin
	}
	if p.LeadIn < 0 {
		p.LeadIn = 0
	}
	return p
}

type noWake struct{}

func (noWake) Acquire(time.Duration) (WakeHandle, error) { return noHandle{}, nil }

type noHandle struct{}

func (noHandle) Release() error { return nil }

// NoWake is a WakeResource that holds nothing.
var NoWake WakeResource = noWake{}
