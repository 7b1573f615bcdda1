package pattern

import (
	"errors"
	"testing"
	"time"
)

func intp(v int) *int { return &v }

func TestFromFieldsTotalsForEveryChainLength(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fields Fields
		total  time.Duration
		segs   []Segment
	}{
		{
			name:   "vib1",
			fields: Fields{Vib1: intp(200)},
			total:  200 * time.Millisecond,
			segs:   []Segment{{Vibrate: 200 * time.Millisecond}},
		},
		{
			name:   "vib1 pause1",
			fields: Fields{Vib1: intp(100), Pause1: intp(50)},
			total:  150 * time.Millisecond,
			segs:   []Segment{{Vibrate: 100 * time.Millisecond, Pause: 50 * time.Millisecond}},
		},
		{
			name:   "three steps",
			fields: Fields{Vib1: intp(100), Pause1: intp(200), Vib2: intp(300)},
			total:  600 * time.Millisecond,
			segs: []Segment{
				{Vibrate: 100 * time.Millisecond, Pause: 200 * time.Millisecond},
				{Vibrate: 300 * time.Millisecond},
			},
		},
		{
			name:   "four steps",
			fields: Fields{Vib1: intp(50), Pause1: intp(50), Vib2: intp(50), Pause2: intp(500)},
			total:  650 * time.Millisecond,
			segs: []Segment{
				{Vibrate: 50 * time.Millisecond, Pause: 50 * time.Millisecond},
				{Vibrate: 50 * time.Millisecond, Pause: 500 * time.Millisecond},
			},
		},
		{
			name:   "full chain",
			fields: Fields{Vib1: intp(500), Pause1: intp(300), Vib2: intp(200), Pause2: intp(100), Vib3: intp(50)},
			total:  1150 * time.Millisecond,
			segs: []Segment{
				{Vibrate: 500 * time.Millisecond, Pause: 300 * time.Millisecond},
				{Vibrate: 200 * time.Millisecond, Pause: 100 * time.Millisecond},
				{Vibrate: 50 * time.Millisecond},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromFields(tt.fields)
			if err != nil {
				t.Fatalf("FromFields error: %v", err)
			}
			if got := p.TotalDuration(); got != tt.total {
				t.Fatalf("TotalDuration = %v, want %v", got, tt.total)
			}
			segs := p.Segments()
			if len(segs) != len(tt.segs) {
				t.Fatalf("Segments len = %d, want %d", len(segs), len(tt.segs))
			}
			var sum time.Duration
			for i := range segs {
				if segs[i] != tt.segs[i] {
					t.Fatalf("segment %d = %+v, want %+v", i, segs[i], tt.segs[i])
				}
				sum += segs[i].Vibrate + segs[i].Pause
			}
			if sum != p.TotalDuration() {
				t.Fatalf("segment sum %v != total %v", sum, p.TotalDuration())
			}
		})
	}
}

func TestFromFieldsRejectsHoles(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fields Fields
		field  string
	}{
		{name: "missing vib1", fields: Fields{}, field: "vib1"},
		{name: "vib2 without pause1", fields: Fields{Vib1: intp(100), Vib2: intp(100)}, field: "vib2"},
		{name: "pause1 without vib1", fields: Fields{Pause1: intp(100)}, field: "pause1"},
		{name: "vib3 after gap", fields: Fields{Vib1: intp(100), Pause1: intp(100), Vib2: intp(100), Vib3: intp(100)}, field: "vib3"},
		{name: "duration not allowed", fields: Fields{Vib1: intp(120)}, field: "vib1"},
		{name: "negative pause", fields: Fields{Vib1: intp(100), Pause1: intp(-50)}, field: "pause1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromFields(tt.fields)
			var ipe *InvalidPatternError
			if !errors.As(err, &ipe) {
				t.Fatalf("expected InvalidPatternError, got %v", err)
			}
			if ipe.Field != tt.field {
				t.Fatalf("Field = %q, want %q", ipe.Field, tt.field)
			}
		})
	}
}

func TestFieldsRoundTripKeepsPrefix(t *testing.T) {
	t.Parallel()
	p, err := Millis(100, 50, 300)
	if err != nil {
		t.Fatalf("Millis error: %v", err)
	}
	f := p.Fields()
	if f.Pause2 != nil || f.Vib3 != nil {
		t.Fatalf("expected trailing fields nil, got %+v", f)
	}
	back, err := FromFields(f)
	if err != nil {
		t.Fatalf("FromFields error: %v", err)
	}
	if !back.Equal(p) {
		t.Fatalf("round trip = %v, want %v", back, p)
	}
}

func TestZeroPatternIsInvalid(t *testing.T) {
	t.Parallel()
	var p Pattern
	if err := p.Validate(); err == nil {
		t.Fatal("expected zero pattern to be invalid")
	}
	if _, err := New(100*time.Millisecond, 100*time.Millisecond, 100*time.Millisecond, 100*time.Millisecond, 100*time.Millisecond, 100*time.Millisecond); err == nil {
		t.Fatal("expected six steps to be rejected")
	}
}

func TestTruncateClearsLaterFields(t *testing.T) {
	t.Parallel()
	p := MustNew(100*time.Millisecond, 50*time.Millisecond, 300*time.Millisecond, 50*time.Millisecond, 100*time.Millisecond)
	got, err := p.Truncate(1)
	if err != nil {
		t.Fatalf("Truncate error: %v", err)
	}
	if got.Len() != 1 || got.TotalDuration() != 100*time.Millisecond {
		t.Fatalf("Truncate(1) = %v", got)
	}
	if _, err := p.Truncate(0); err == nil {
		t.Fatal("expected truncating vib1 to fail")
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()
	for _, id := range PresetIDs() {
		p, ok := Preset(id)
		if !ok {
			t.Fatalf("preset %q missing", id)
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("preset %q invalid: %v", id, err)
		}
	}
	if !MigratePreset("no-such-preset").Equal(Default()) {
		t.Fatal("unknown preset should migrate to default")
	}
	if !MigratePreset("DOUBLE").Equal(presets["double"]) {
		t.Fatal("preset lookup should be case-insensitive")
	}
}
