package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"timesignal/internal/pattern"
	"timesignal/internal/quarter"
	logx "timesignal/pkg/logx"
)

type store struct {
	mu     sync.Mutex
	b      backend
	log    logx.Logger
	closed bool
}

func (s *store) Latest(ctx context.Context) (quarter.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return quarter.State{}, ErrClosed
	}
	return s.b.load(ctx)
}

// update runs a read-modify-write under the store lock.
func (s *store) update(ctx context.Context, op string, fn func(*quarter.State) error) (quarter.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return quarter.State{}, ErrClosed
	}
	st, err := s.b.load(ctx)
	if err != nil {
		return quarter.State{}, fmt.Errorf("%s: load: %w", op, err)
	}
	if err := fn(&st); err != nil {
		return quarter.State{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.b.save(ctx, st); err != nil {
		return quarter.State{}, fmt.Errorf("%s: save: %w", op, err)
	}
	s.log.Debug("settings updated", logx.String("op", op))
	return st, nil
}

func checkSlot(slot quarter.Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, int(slot))
	}
	return nil
}

func (s *store) SetQuarterEnabled(ctx context.Context, slot quarter.Slot, enabled bool) (quarter.State, error) {
	return s.update(ctx, "set enabled", func(st *quarter.State) error {
		if err := checkSlot(slot); err != nil {
			return err
		}
		st.Quarters[slot].Enabled = enabled
		return nil
	})
}

func (s *store) SetPreset(ctx context.Context, slot quarter.Slot, presetID string) (quarter.State, error) {
	return s.update(ctx, "set preset", func(st *quarter.State) error {
		if err := checkSlot(slot); err != nil {
			return err
		}
		id := strings.ToLower(strings.TrimSpace(presetID))
		if _, ok := pattern.Preset(id); !ok {
			return fmt.Errorf("unknown preset %q", presetID)
		}
		st.Quarters[slot].PresetID = id
		st.Quarters[slot].Custom = nil
		return nil
	})
}

func (s *store) SetCustomPattern(ctx context.Context, slot quarter.Slot, p pattern.Pattern) (quarter.State, error) {
	return s.update(ctx, "set pattern", func(st *quarter.State) error {
		if err := checkSlot(slot); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		f := p.Fields()
		st.Quarters[slot].Custom = &f
		st.Quarters[slot].PresetID = ""
		return nil
	})
}

func (s *store) SetQuietHours(ctx context.Context, qh quarter.QuietHours) (quarter.State, error) {
	return s.update(ctx, "set quiet hours", func(st *quarter.State) error {
		if !qh.Start.Valid() || !qh.End.Valid() {
			return fmt.Errorf("invalid quiet hours %s-%s", qh.Start, qh.End)
		}
		st.QuietHours = qh
		return nil
	})
}

func (s *store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.b.close()
}

func baseName(path string) string { return filepath.Base(path) }
