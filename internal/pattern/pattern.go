// Package pattern models vibration patterns as a validated on/off chain.
//
// A pattern is at most five steps: vib1, pause1, vib2, pause2, vib3. Steps
// alternate vibrate/pause starting with a vibrate, and every step is drawn from
// a small fixed duration set. Persisted data uses five optional millisecond
// fields (Fields); everything past the storage boundary uses Pattern, which can
// only be obtained through the validating constructors.
package pattern

import (
	"fmt"
	"strings"
	"time"
)

// MaxSteps is the longest chain: vib1 pause1 vib2 pause2 vib3.
const MaxSteps = 5

// Allowed step lengths, in milliseconds.
var allowedMillis = [...]int{50, 100, 200, 300, 500}

var fieldNames = [MaxSteps]string{"vib1", "pause1", "vib2", "pause2", "vib3"}

// AllowedDurations lists the step lengths a pattern may use, ascending.
func AllowedDurations() []time.Duration {
	out := make([]time.Duration, 0, len(allowedMillis))
	for _, ms := range allowedMillis {
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out
}

func allowed(d time.Duration) bool {
	if d%time.Millisecond != 0 {
		return false
	}
	ms := int(d / time.Millisecond)
	for _, a := range allowedMillis {
		if a == ms {
			return true
		}
	}
	return false
}

// Segment is one (vibrate, pause) pair. The last segment of a chain may have Pause == 0.
type Segment struct {
	Vibrate time.Duration
	Pause   time.Duration
}

// Pattern is a validated vibration chain. The zero value is empty and rejected by Validate.
type Pattern struct {
	steps []time.Duration
}

// New builds a pattern from steps in chain order (vib, pause, vib, ...).
func New(steps ...time.Duration) (Pattern, error) {
	if len(steps) == 0 {
		return Pattern{}, &InvalidPatternError{Field: fieldNames[0], Reason: "required"}
	}
	if len(steps) > MaxSteps {
		return Pattern{}, &InvalidPatternError{Field: "steps", Reason: fmt.Sprintf("at most %d steps, got %d", MaxSteps, len(steps))}
	}
	for i, d := range steps {
		if !allowed(d) {
			return Pattern{}, &InvalidPatternError{Field: fieldNames[i], Reason: fmt.Sprintf("%s is not an allowed duration", d)}
		}
	}
	return Pattern{steps: append([]time.Duration(nil), steps...)}, nil
}

// MustNew is New for package-level tables; it panics on invalid input.
func MustNew(steps ...time.Duration) Pattern {
	p, err := New(steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Millis is New with millisecond integers.
func Millis(ms ...int) (Pattern, error) {
	steps := make([]time.Duration, 0, len(ms))
	for _, v := range ms {
		steps = append(steps, time.Duration(v)*time.Millisecond)
	}
	return New(steps...)
}

// Validate re-checks the invariants. Only the zero Pattern can fail it.
func (p Pattern) Validate() error {
	if len(p.steps) == 0 {
		return &InvalidPatternError{Field: fieldNames[0], Reason: "required"}
	}
	_, err := New(p.steps...)
	return err
}

func (p Pattern) IsZero() bool { return len(p.steps) == 0 }

// Len is the number of steps (1..5 for a valid pattern).
func (p Pattern) Len() int { return len(p.steps) }

// Steps returns a copy of the chain.
func (p Pattern) Steps() []time.Duration { return append([]time.Duration(nil), p.steps...) }

// Segments pairs every vibrate step with the pause that follows it.
func (p Pattern) Segments() []Segment {
	out := make([]Segment, 0, (len(p.steps)+1)/2)
	for i := 0; i < len(p.steps); i += 2 {
		seg := Segment{Vibrate: p.steps[i]}
		if i+1 < len(p.steps) {
			seg.Pause = p.steps[i+1]
		}
		out = append(out, seg)
	}
	return out
}

// TotalDuration is the sum of every step.
func (p Pattern) TotalDuration() time.Duration {
	var total time.Duration
	for _, d := range p.steps {
		total += d
	}
	return total
}

// Pulses is the number of vibrate steps.
func (p Pattern) Pulses() int { return (len(p.steps) + 1) / 2 }

func (p Pattern) Equal(o Pattern) bool {
	if len(p.steps) != len(o.steps) {
		return false
	}
	for i := range p.steps {
		if p.steps[i] != o.steps[i] {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	if len(p.steps) == 0 {
		return "<empty>"
	}
	parts := make([]string, 0, len(p.steps))
	for i, d := range p.steps {
		kind := "on"
		if i%2 == 1 {
			kind = "off"
		}
		parts = append(parts, fmt.Sprintf("%dms %s", d.Milliseconds(), kind))
	}
	return strings.Join(parts, ", ")
}
