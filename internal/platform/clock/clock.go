// Package clock provides the zoned wall clock used for trigger computation.
//
// The location can be reloaded at runtime: the process-wide time.Local is
// fixed at startup, so following a host timezone change means re-reading the
// zoneinfo file ourselves.
package clock

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

const DefaultZoneinfoPath = "/etc/localtime"

// Zoned is a clock whose location can be swapped atomically.
type Zoned struct {
	loc atomic.Pointer[time.Location]
	now func() time.Time
}

func New(loc *time.Location) *Zoned {
	if loc == nil {
		loc = time.Local
	}
	z := &Zoned{now: time.Now}
	z.loc.Store(loc)
	return z
}

// Now returns the current instant in the clock's location.
func (z *Zoned) Now() time.Time { return z.now().In(z.Location()) }

func (z *Zoned) Location() *time.Location { return z.loc.Load() }

// SetLocation swaps the location and reports whether it changed by name.
func (z *Zoned) SetLocation(loc *time.Location) bool {
	if loc == nil {
		return false
	}
	prev := z.loc.Swap(loc)
	return prev == nil || prev.String() != loc.String()
}

// Load resolves a location name.
//
// An empty name or "Local" means the host zone: $TZ when set, otherwise the
// zoneinfo file at zoneinfoPath (default /etc/localtime), re-read from disk on
// every call.
func Load(name, zoneinfoPath string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name != "" && !strings.EqualFold(name, "local") {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", name, err)
		}
		return loc, nil
	}
	if tz := strings.TrimSpace(os.Getenv("TZ")); tz != "" {
		if loc, err := time.LoadLocation(strings.TrimPrefix(tz, ":")); err == nil {
			return loc, nil
		}
	}
	if zoneinfoPath == "" {
		zoneinfoPath = DefaultZoneinfoPath
	}
	data, err := os.ReadFile(zoneinfoPath)
	if err != nil {
		return time.Local, nil
	}
	loc, err := time.LoadLocationFromTZData(zoneName(zoneinfoPath), data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", zoneinfoPath, err)
	}
	return loc, nil
}

// zoneName derives "Europe/Berlin" from a /etc/localtime symlink when possible.
func zoneName(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		return "Local"
	}
	if i := strings.Index(target, "zoneinfo/"); i >= 0 {
		return target[i+len("zoneinfo/"):]
	}
	return "Local"
}
