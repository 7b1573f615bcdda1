package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timesignal/internal/config"
	"timesignal/internal/haptics"
	"timesignal/internal/quarter"
	"timesignal/internal/settings"
	logx "timesignal/pkg/logx"
)

func writeConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	body := `
logging:
  level: error
  console: true
timezone: UTC
settings:
  driver: file
  path: ` + filepath.Join(dir, "settings.json") + `
vibrator:
  driver: none
wake:
  driver: none
events:
  watch_zoneinfo: false
` + extra
	p := filepath.Join(dir, "timesignal.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestMapPolicyDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	p, err := mapPolicy(cfg)
	if err != nil {
		t.Fatalf("mapPolicy: %v", err)
	}
	if p.SafetyMargin != haptics.DefaultSafetyMargin || p.LeadIn != 0 {
		t.Fatalf("policy = %+v", p)
	}

	cfg.Vibrator.LeadIn = "40ms"
	cfg.Vibrator.Amplitude = 128
	cfg.Wake.SafetyMargin = "1s"
	p, err = mapPolicy(cfg)
	if err != nil {
		t.Fatalf("mapPolicy: %v", err)
	}
	if p.LeadIn != 40*time.Millisecond || p.Amplitude != 128 || p.SafetyMargin != time.Second {
		t.Fatalf("policy = %+v", p)
	}
}

func TestMapEventsConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Events.ClockCheckInterval = "20s"
	off := false
	cfg.Events.WatchZoneinfo = &off
	ec, err := mapEventsConfig(cfg)
	if err != nil {
		t.Fatalf("mapEventsConfig: %v", err)
	}
	if ec.ClockCheckInterval != 20*time.Second || ec.MinGap != time.Minute {
		t.Fatalf("events = %+v", ec)
	}
	if ec.WatchZoneinfo || ec.ZoneinfoPath != "/etc/localtime" {
		t.Fatalf("zoneinfo settings = %+v", ec)
	}
}

func TestMapEventsConfigRejectsBadDuration(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Events.ClockJumpThreshold = "soon"
	if _, err := mapEventsConfig(cfg); err == nil || !strings.HasPrefix(err.Error(), "events.clock_jump_threshold:") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRejectsBadEventsConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "  clock_check_interval: soon\n")
	a, err := New(cfgPath)
	if err == nil {
		_ = a.Stop(context.Background(), StopUnknown)
		t.Fatalf("New accepted a bad events.clock_check_interval")
	}
	if !strings.Contains(err.Error(), "events.clock_check_interval") {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "settings.json")); !os.IsNotExist(err) {
		t.Fatalf("settings store opened despite bad config: %v", err)
	}
}

func TestValidateMappingsRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Timezone = "Nowhere/Special"
	if err := validateMappings(cfg); err == nil {
		t.Fatalf("expected error")
	}
	cfg.Timezone = "UTC"
	if err := validateMappings(cfg); err != nil {
		t.Fatalf("validateMappings: %v", err)
	}
}

func TestDaemonRegistersEnabledSlotsOnBoot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")

	st, err := settings.Open(settings.Config{Path: filepath.Join(dir, "settings.json")}, logx.Logger{})
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	if _, err := st.SetQuarterEnabled(context.Background(), quarter.Thirty, true); err != nil {
		t.Fatalf("SetQuarterEnabled: %v", err)
	}
	_ = st.Close()

	a, err := New(cfgPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = a.Stop(stopCtx, StopSignal)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for {
		pending := a.alarms.Pending()
		if len(pending) == 1 {
			if pending[0].Slot != quarter.Thirty || pending[0].At.Minute() != 30 {
				t.Fatalf("pending = %+v", pending)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("boot reschedule never registered the slot (pending=%v)", pending)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := a.comp.store.SetQuarterEnabled(ctx, quarter.Zero, true); err != nil {
		t.Fatalf("SetQuarterEnabled: %v", err)
	}
	regs, err := a.Orchestrator().Reschedule(ctx, "test")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("regs = %v, want 2", regs)
	}
	// The settings watch may reschedule concurrently; wait for it to settle.
	deadline = time.Now().Add(3 * time.Second)
	for len(a.alarms.Pending()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("pending = %v, want 2 registrations", a.alarms.Pending())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestApplyConfigFlipsExactPermission(t *testing.T) {
	dir := t.TempDir()
	a, err := New(writeConfig(t, dir, ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.comp.close()

	if _, err := a.comp.store.SetQuarterEnabled(context.Background(), quarter.FortyFive, true); err != nil {
		t.Fatalf("SetQuarterEnabled: %v", err)
	}
	prev := a.cfgm.Get()
	next := *prev
	off := false
	next.Alarm.ExactAllowed = &off

	a.applyConfig(context.Background(), prev, &next)
	if a.alarms.CanScheduleExact() {
		t.Fatalf("permission not revoked")
	}
	if n := len(a.alarms.Pending()); n != 0 {
		t.Fatalf("pending = %d, want 0 while denied", n)
	}

	a.applyConfig(context.Background(), &next, prev)
	if !a.alarms.CanScheduleExact() || len(a.alarms.Pending()) != 1 {
		t.Fatalf("permission restore did not reschedule: pending=%v", a.alarms.Pending())
	}
}

func TestEditorReportsConfiguredPermission(t *testing.T) {
	dir := t.TempDir()
	ed, err := OpenEditor(writeConfig(t, dir, "alarm:\n  exact_allowed: false\n"), false)
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	defer ed.Close()

	ctx := context.Background()
	if _, err := ed.SetPreset(ctx, quarter.Fifteen, "double"); err != nil {
		t.Fatalf("SetPreset: %v", err)
	}
	status, err := ed.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.CanScheduleExact {
		t.Fatalf("editor should report exact alarms denied")
	}
	if got := status.State.Slot(quarter.Fifteen).PresetID; !strings.EqualFold(got, "double") {
		t.Fatalf("preset = %q", got)
	}
}
