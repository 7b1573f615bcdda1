package orchestrator

import (
	"context"
	"fmt"
	"time"

	"timesignal/internal/pattern"
	"timesignal/internal/quarter"
	"timesignal/internal/quiethours"
	"timesignal/internal/trigger"
	logx "timesignal/pkg/logx"
)

// SetQuarterEnabled toggles a slot and reschedules. A slot that goes from
// disabled to enabled plays its pattern once so the user feels the result.
func (o *Orchestrator) SetQuarterEnabled(ctx context.Context, slot quarter.Slot, enabled bool) (quarter.State, error) {
	prev, err := o.Latest(ctx)
	if err != nil {
		return quarter.State{}, err
	}
	st, err := o.store.SetQuarterEnabled(ctx, slot, enabled)
	if err != nil {
		return quarter.State{}, err
	}
	if _, err := o.rescheduleState(o.withPermission(st), "slot "+slot.Name()); err != nil {
		return st, err
	}
	if enabled && !prev.Slot(slot).Enabled {
		if err := o.TestSlot(ctx, slot); err != nil {
			o.log.Warn("test playback failed", logx.String("slot", slot.Name()), logx.Err(err))
		}
	}
	return st, nil
}

func (o *Orchestrator) SetPreset(ctx context.Context, slot quarter.Slot, presetID string) (quarter.State, error) {
	st, err := o.store.SetPreset(ctx, slot, presetID)
	if err != nil {
		return quarter.State{}, err
	}
	_, err = o.rescheduleState(o.withPermission(st), "preset "+slot.Name())
	return st, err
}

func (o *Orchestrator) SetCustomPattern(ctx context.Context, slot quarter.Slot, p pattern.Pattern) (quarter.State, error) {
	st, err := o.store.SetCustomPattern(ctx, slot, p)
	if err != nil {
		return quarter.State{}, err
	}
	_, err = o.rescheduleState(o.withPermission(st), "pattern "+slot.Name())
	return st, err
}

func (o *Orchestrator) SetQuietHours(ctx context.Context, qh quarter.QuietHours) (quarter.State, error) {
	st, err := o.store.SetQuietHours(ctx, qh)
	if err != nil {
		return quarter.State{}, err
	}
	_, err = o.rescheduleState(o.withPermission(st), "quiet hours")
	return st, err
}

// TestSlot plays the slot's pattern now, ignoring quiet hours and the enabled flag.
func (o *Orchestrator) TestSlot(ctx context.Context, slot quarter.Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("test: invalid slot %d", int(slot))
	}
	st, err := o.Latest(ctx)
	if err != nil {
		return err
	}
	p, err := st.Slot(slot).Pattern()
	if err != nil {
		return err
	}
	return o.play(ctx, p)
}

// Status is a read-only summary for the CLI.
type Status struct {
	State            quarter.State
	Now              time.Time
	QuietNow         bool
	CanScheduleExact bool
	Next             []trigger.Registration
}

func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	st, err := o.Latest(ctx)
	if err != nil {
		return Status{}, err
	}
	now := o.clock.Now()
	return Status{
		State:            st,
		Now:              now,
		QuietNow:         quiethours.IsWithin(st.QuietHours, now),
		CanScheduleExact: st.CanScheduleExact,
		Next:             trigger.Preview(st, now),
	}, nil
}

func (o *Orchestrator) withPermission(st quarter.State) quarter.State {
	if o.sched != nil {
		st.CanScheduleExact = o.sched.CanScheduleExact()
	}
	return st
}
