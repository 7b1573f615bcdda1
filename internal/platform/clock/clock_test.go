package clock

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestNowUsesLocation(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	z := New(time.UTC)
	z.now = func() time.Time { return fixed }

	tokyo := time.FixedZone("JST", 9*3600)
	if !z.SetLocation(tokyo) {
		t.Fatalf("SetLocation reported no change")
	}
	got := z.Now()
	if got.Hour() != 21 || got.Location() != tokyo {
		t.Fatalf("Now() = %v", got)
	}
	if z.SetLocation(time.FixedZone("JST", 9*3600)) {
		t.Fatalf("same-named location reported as change")
	}
	if z.SetLocation(nil) {
		t.Fatalf("nil location accepted")
	}
}

func TestLoadNamedZone(t *testing.T) {
	t.Parallel()
	loc, err := Load("UTC", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loc.String() != "UTC" {
		t.Fatalf("loc = %v", loc)
	}
	if _, err := Load("Mars/Olympus_Mons", ""); err == nil {
		t.Fatalf("bogus zone accepted")
	}
}

func TestLoadMissingZoneinfoFallsBackToLocal(t *testing.T) {
	if os.Getenv("TZ") != "" {
		t.Skip("TZ set in environment")
	}
	loc, err := Load("", filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loc != time.Local {
		t.Fatalf("loc = %v, want time.Local", loc)
	}
}

func TestLoadRejectsCorruptZoneinfo(t *testing.T) {
	if os.Getenv("TZ") != "" {
		t.Skip("TZ set in environment")
	}
	if runtime.GOOS == "windows" {
		t.Skip("zoneinfo files are unix-only")
	}
	path := filepath.Join(t.TempDir(), "localtime")
	if err := os.WriteFile(path, []byte("not a tzfile"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load("local", path); err == nil {
		t.Fatalf("corrupt zoneinfo accepted")
	}
}
