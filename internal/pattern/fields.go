package pattern

import (
	"fmt"
	"time"
)

// Fields is the persisted layout: five optional millisecond values.
// Once a field is nil every later field must be nil as well.
type Fields struct {
	Vib1   *int `json:"vib1,omitempty"`
	Pause1 *int `json:"pause1,omitempty"`
	Vib2   *int `json:"vib2,omitempty"`
	Pause2 *int `json:"pause2,omitempty"`
	Vib3   *int `json:"vib3,omitempty"`
}

func (f Fields) slice() [MaxSteps]*int {
	return [MaxSteps]*int{f.Vib1, f.Pause1, f.Vib2, f.Pause2, f.Vib3}
}

// IsEmpty reports whether no field is set.
func (f Fields) IsEmpty() bool {
	for _, v := range f.slice() {
		if v != nil {
			return false
		}
	}
	return true
}

// FromFields validates the prefix chain and builds a Pattern.
func FromFields(f Fields) (Pattern, error) {
	vals := f.slice()
	steps := make([]time.Duration, 0, MaxSteps)
	gap := -1
	for i, v := range vals {
		if v == nil {
			if gap < 0 {
				gap = i
			}
			continue
		}
		if gap >= 0 {
			return Pattern{}, &InvalidPatternError{
				Field:  fieldNames[i],
				Reason: fmt.Sprintf("set while %s is empty", fieldNames[gap]),
			}
		}
		steps = append(steps, time.Duration(*v)*time.Millisecond)
	}
	return New(steps...)
}

// Fields converts a pattern back into its persisted layout.
func (p Pattern) Fields() Fields {
	var vals [MaxSteps]*int
	for i, d := range p.steps {
		ms := int(d / time.Millisecond)
		vals[i] = &ms
	}
	return Fields{Vib1: vals[0], Pause1: vals[1], Vib2: vals[2], Pause2: vals[3], Vib3: vals[4]}
}

// Truncate drops every step from field index i on. It mirrors the editor rule
// that clearing a field clears everything after it.
func (p Pattern) Truncate(i int) (Pattern, error) {
	if i < 0 {
		i = 0
	}
	if i >= len(p.steps) {
		return p, nil
	}
	return New(p.steps[:i]...)
}

// FieldIndex maps "vib1".."vib3" to its chain position.
func FieldIndex(name string) (int, bool) {
	for i, n := range fieldNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// FieldNames returns the chain field names in order.
func FieldNames() []string { return append([]string(nil), fieldNames[:]...) }
