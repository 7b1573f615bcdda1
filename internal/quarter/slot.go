// Package quarter holds the fixed quarter-hour slots and the settings snapshot
// the rest of timesignal reads.
package quarter

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot is one of the four fixed minute offsets within an hour.
// The numeric value is the ordinal and doubles as the alarm registration key,
// so it must never be renumbered.
type Slot int

const (
	Zero Slot = iota
	Fifteen
	Thirty
	FortyFive
)

// Count is the number of slots; State arrays are indexed by Slot.
const Count = 4

var slotMinutes = [Count]int{0, 15, 30, 45}
var slotNames = [Count]string{"ZERO", "FIFTEEN", "THIRTY", "FORTY_FIVE"}

// All returns every slot in minute order.
func All() []Slot { return []Slot{Zero, Fifteen, Thirty, FortyFive} }

func (s Slot) Valid() bool { return s >= Zero && s <= FortyFive }

// Minute is the minute-of-hour this slot fires at.
func (s Slot) Minute() int {
	if !s.Valid() {
		return -1
	}
	return slotMinutes[s]
}

// Ordinal is the stable alarm key for this slot.
func (s Slot) Ordinal() int { return int(s) }

// Name is the persisted identifier ("FIFTEEN").
func (s Slot) Name() string {
	if !s.Valid() {
		return "Slot(" + strconv.Itoa(int(s)) + ")"
	}
	return slotNames[s]
}

// Label is the display label ("every hour at :15").
func (s Slot) Label() string {
	if !s.Valid() {
		return s.Name()
	}
	return fmt.Sprintf("every hour at :%02d", s.Minute())
}

func (s Slot) String() string { return s.Name() }

// ParseSlot accepts a slot name ("FIFTEEN", "forty_five") or its minute ("15", ":15").
func ParseSlot(raw string) (Slot, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.TrimPrefix(v, ":")
	for _, s := range All() {
		if v == s.Name() || v == strings.ReplaceAll(s.Name(), "_", "") {
			return s, nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil {
		for _, s := range All() {
			if n == s.Minute() {
				return s, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown slot %q (use 0, 15, 30, 45 or ZERO, FIFTEEN, THIRTY, FORTY_FIVE)", raw)
}

// MarshalText stores slots by name so persisted data survives reordering mistakes.
func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid slot %d", int(s))
	}
	return []byte(s.Name()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	v, err := ParseSlot(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
