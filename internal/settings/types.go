package settings

import (
	"context"
	"errors"
	"time"

	"timesignal/internal/pattern"
	"timesignal/internal/quarter"
)

var (
	ErrClosed      = errors.New("settings store closed")
	ErrUnknownSlot = errors.New("unknown slot")
)

// Config selects and configures the driver.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the settings API used by the orchestrator and the CLI.
type Store interface {
	Latest(ctx context.Context) (quarter.State, error)

	SetQuarterEnabled(ctx context.Context, slot quarter.Slot, enabled bool) (quarter.State, error)
	// SetPreset selects a legacy preset and drops any custom chain.
	SetPreset(ctx context.Context, slot quarter.Slot, presetID string) (quarter.State, error)
	// SetCustomPattern stores p as the slot's authoritative chain.
	SetCustomPattern(ctx context.Context, slot quarter.Slot, p pattern.Pattern) (quarter.State, error)
	SetQuietHours(ctx context.Context, qh quarter.QuietHours) (quarter.State, error)

	Close() error
}

// backend is what a driver implements; store adds locking and validation.
type backend interface {
	load(ctx context.Context) (quarter.State, error)
	save(ctx context.Context, st quarter.State) error
	close() error
}
