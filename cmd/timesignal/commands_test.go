package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timesignal/internal/pattern"
	"timesignal/internal/quarter"
	"timesignal/internal/trigger"
)

func testGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := `
logging: { level: error, console: true }
timezone: UTC
settings: { driver: file, path: ` + filepath.Join(dir, "settings.json") + ` }
vibrator: { driver: none }
wake: { driver: none }
`
	p := filepath.Join(dir, "timesignal.yaml")
	if err := os.WriteFile(p, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out := &bytes.Buffer{}
	return &Globals{ConfigPath: p, Out: out}, out
}

func TestSlotPatternThenTruncate(t *testing.T) {
	g, out := testGlobals(t)

	if err := (SlotPatternCmd{Slot: "15", Millis: []int{100, 50, 300}}).Run(g); err != nil {
		t.Fatalf("pattern: %v", err)
	}
	if !strings.Contains(out.String(), "FIFTEEN off custom [100ms on, 50ms off, 300ms on]") {
		t.Fatalf("output = %q", out.String())
	}

	out.Reset()
	if err := (SlotTruncateCmd{Slot: "fifteen", Field: "pause1"}).Run(g); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if !strings.Contains(out.String(), "custom [100ms on]") {
		t.Fatalf("output = %q", out.String())
	}

	if err := (SlotTruncateCmd{Slot: "15", Field: "vib1"}).Run(g); err == nil {
		t.Fatalf("clearing vib1 should fail")
	}
}

func TestSlotPatternRejectsBadDuration(t *testing.T) {
	g, _ := testGlobals(t)
	err := (SlotPatternCmd{Slot: "30", Millis: []int{150}}).Run(g)
	if err == nil || !strings.Contains(err.Error(), "vib1") {
		t.Fatalf("err = %v", err)
	}
}

func TestQuietAndStatus(t *testing.T) {
	g, out := testGlobals(t)
	if err := (QuietCmd{Enable: true, Start: "22:30", End: "06:00"}).Run(g); err != nil {
		t.Fatalf("quiet: %v", err)
	}
	if got := out.String(); got != "quiet hours on: 22:30-06:00\n" {
		t.Fatalf("output = %q", got)
	}
	if err := (QuietCmd{Start: "7:61"}).Run(g); err == nil {
		t.Fatalf("expected invalid time error")
	}

	out.Reset()
	if err := (SlotPresetCmd{Slot: "45", Preset: "Heartbeat"}).Run(g); err != nil {
		t.Fatalf("preset: %v", err)
	}
	out.Reset()
	if err := (StatusCmd{}).Run(g); err != nil {
		t.Fatalf("status: %v", err)
	}
	s := out.String()
	for _, want := range []string{"FORTY_FIVE", "preset heartbeat", "quiet hours: 22:30-06:00"} {
		if !strings.Contains(s, want) {
			t.Fatalf("status missing %q:\n%s", want, s)
		}
	}
}

func TestPrintStatusAdvisory(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 20, 0, 0, time.UTC)
	st := quarter.DefaultState()
	st.CanScheduleExact = false
	st = st.With(quarter.Thirty, quarter.Settings{Enabled: true})

	var buf bytes.Buffer
	printStatus(&buf, now, st, false, trigger.Preview(st, now))
	s := buf.String()
	if !strings.Contains(s, "exact alarms are not permitted") {
		t.Fatalf("missing advisory:\n%s", s)
	}
	if !strings.Contains(s, "next THIRTY     10:30:00 (in 10m0s)") {
		t.Fatalf("missing next line:\n%s", s)
	}
}

func TestPresetsListsDefault(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := (PresetsCmd{}).Run(&Globals{Out: &buf}); err != nil {
		t.Fatalf("presets: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(pattern.PresetIDs()) {
		t.Fatalf("lines = %d", len(lines))
	}
	if !strings.Contains(buf.String(), pattern.DefaultPresetID) || !strings.Contains(buf.String(), "(default)") {
		t.Fatalf("default preset not marked:\n%s", buf.String())
	}
}
