package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"timesignal/internal/app"
	"timesignal/internal/pattern"
	"timesignal/internal/platform/clock"
	"timesignal/internal/quarter"
	"timesignal/internal/trigger"
)

// Globals is passed to every command's Run.
type Globals struct {
	ConfigPath string
	Verbose    bool
	Out        io.Writer
}

func (g *Globals) editor() (*app.Editor, error) {
	return app.OpenEditor(g.ConfigPath, g.Verbose)
}

type RunCmd struct{}

func (RunCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(g.ConfigPath)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	return a.Err()
}

type StatusCmd struct{}

func (StatusCmd) Run(g *Globals) error {
	ed, err := g.editor()
	if err != nil {
		return err
	}
	defer ed.Close()

	st, err := ed.Status(context.Background())
	if err != nil {
		return err
	}
	printStatus(g.Out, st.Now, st.State, st.QuietNow, st.Next)
	return nil
}

func printStatus(w io.Writer, now time.Time, st quarter.State, quietNow bool, next []trigger.Registration) {
	fmt.Fprintf(w, "now: %s\n", now.Format("2006-01-02 15:04:05 MST"))
	for _, slot := range quarter.All() {
		set := st.Slot(slot)
		state := "off"
		if set.Enabled {
			state = "on"
		}
		desc := describePattern(set)
		fmt.Fprintf(w, "  %-4s %-10s %-3s %s\n", slot.Label(), slot.Name(), state, desc)
	}

	qh := st.QuietHours
	switch {
	case !qh.Enabled:
		fmt.Fprintf(w, "quiet hours: off (%s-%s)\n", qh.Start, qh.End)
	case quietNow:
		fmt.Fprintf(w, "quiet hours: %s-%s (active now)\n", qh.Start, qh.End)
	default:
		fmt.Fprintf(w, "quiet hours: %s-%s\n", qh.Start, qh.End)
	}

	if !st.CanScheduleExact {
		fmt.Fprintln(w, "exact alarms are not permitted: enabled slots will not fire (alarm.exact_allowed)")
	}
	for _, r := range next {
		fmt.Fprintf(w, "next %-10s %s (in %s)\n", r.Slot.Name(), r.At.Format("15:04:05"), r.At.Sub(now).Round(time.Second))
	}
}

func describePattern(set quarter.Settings) string {
	p, err := set.Pattern()
	if err != nil {
		return "invalid: " + err.Error()
	}
	switch {
	case set.Custom != nil && !set.Custom.IsEmpty():
		return "custom [" + p.String() + "]"
	case strings.TrimSpace(set.PresetID) != "":
		return "preset " + set.PresetID + " [" + p.String() + "]"
	default:
		return "default [" + p.String() + "]"
	}
}

type NextCmd struct {
	Slot     string `arg:"" optional:"" help:"Slot (0, 15, 30, 45 or its name). All slots when omitted."`
	Timezone string `help:"Compute in this zone instead of the configured one."`
}

func (c NextCmd) Run(g *Globals) error {
	ed, err := g.editor()
	if err != nil {
		return err
	}
	defer ed.Close()

	tz := ed.Config().Timezone
	if c.Timezone != "" {
		tz = c.Timezone
	}
	loc, err := clock.Load(tz, ed.Config().Events.ZoneinfoPath)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)

	slots := quarter.All()
	if c.Slot != "" {
		s, err := quarter.ParseSlot(c.Slot)
		if err != nil {
			return err
		}
		slots = []quarter.Slot{s}
	}
	for _, s := range slots {
		at := trigger.NextTrigger(s, now)
		fmt.Fprintf(g.Out, "%-10s %s (in %s)\n", s.Name(), at.Format("2006-01-02 15:04:05 MST"), at.Sub(now).Round(time.Second))
	}
	return nil
}

type PlayCmd struct {
	Slot string `arg:"" help:"Slot to preview."`
}

func (c PlayCmd) Run(g *Globals) error {
	slot, err := quarter.ParseSlot(c.Slot)
	if err != nil {
		return err
	}
	ed, err := g.editor()
	if err != nil {
		return err
	}
	defer ed.Close()
	return ed.TestSlot(context.Background(), slot)
}

type PresetsCmd struct{}

func (PresetsCmd) Run(g *Globals) error {
	for _, id := range pattern.PresetIDs() {
		p, _ := pattern.Preset(id)
		marker := ""
		if id == pattern.DefaultPresetID {
			marker = " (default)"
		}
		fmt.Fprintf(g.Out, "%-10s %s%s\n", id, p, marker)
	}
	return nil
}

type SlotEnableCmd struct {
	Slot string `arg:""`
}

func (c SlotEnableCmd) Run(g *Globals) error { return setEnabled(g, c.Slot, true) }

type SlotDisableCmd struct {
	Slot string `arg:""`
}

func (c SlotDisableCmd) Run(g *Globals) error { return setEnabled(g, c.Slot, false) }

func setEnabled(g *Globals, raw string, enabled bool) error {
	return editSlot(g, raw, func(ctx context.Context, ed *app.Editor, slot quarter.Slot) (quarter.State, error) {
		return ed.SetQuarterEnabled(ctx, slot, enabled)
	})
}

type SlotPresetCmd struct {
	Slot   string `arg:""`
	Preset string `arg:"" help:"Preset id (see 'timesignal presets')."`
}

func (c SlotPresetCmd) Run(g *Globals) error {
	return editSlot(g, c.Slot, func(ctx context.Context, ed *app.Editor, slot quarter.Slot) (quarter.State, error) {
		return ed.SetPreset(ctx, slot, c.Preset)
	})
}

type SlotPatternCmd struct {
	Slot   string `arg:""`
	Millis []int  `arg:"" help:"Durations in ms, each one of 50, 100, 200, 300, 500."`
}

func (c SlotPatternCmd) Run(g *Globals) error {
	p, err := pattern.Millis(c.Millis...)
	if err != nil {
		return err
	}
	return editSlot(g, c.Slot, func(ctx context.Context, ed *app.Editor, slot quarter.Slot) (quarter.State, error) {
		return ed.SetCustomPattern(ctx, slot, p)
	})
}

type SlotTruncateCmd struct {
	Slot  string `arg:""`
	Field string `arg:"" enum:"vib1,pause1,vib2,pause2,vib3" help:"First field to clear."`
}

func (c SlotTruncateCmd) Run(g *Globals) error {
	idx, _ := pattern.FieldIndex(c.Field)
	return editSlot(g, c.Slot, func(ctx context.Context, ed *app.Editor, slot quarter.Slot) (quarter.State, error) {
		st, err := ed.Latest(ctx)
		if err != nil {
			return quarter.State{}, err
		}
		cur, err := st.Slot(slot).Pattern()
		if err != nil {
			return quarter.State{}, err
		}
		p, err := cur.Truncate(idx)
		if err != nil {
			return quarter.State{}, fmt.Errorf("clearing %s leaves an empty chain: %w", c.Field, err)
		}
		return ed.SetCustomPattern(ctx, slot, p)
	})
}

func editSlot(g *Globals, raw string, fn func(context.Context, *app.Editor, quarter.Slot) (quarter.State, error)) error {
	slot, err := quarter.ParseSlot(raw)
	if err != nil {
		return err
	}
	ed, err := g.editor()
	if err != nil {
		return err
	}
	defer ed.Close()

	st, err := fn(context.Background(), ed, slot)
	if err != nil {
		var perr *pattern.InvalidPatternError
		if errors.As(err, &perr) {
			return fmt.Errorf("%s: %w", slot.Name(), perr)
		}
		return err
	}
	set := st.Slot(slot)
	state := "off"
	if set.Enabled {
		state = "on"
	}
	fmt.Fprintf(g.Out, "%s %s %s\n", slot.Name(), state, describePattern(set))
	return nil
}

type QuietCmd struct {
	Enable  bool   `help:"Turn quiet hours on." xor:"toggle"`
	Disable bool   `help:"Turn quiet hours off." xor:"toggle"`
	Start   string `help:"Window start, HH:MM (inclusive)."`
	End     string `help:"Window end, HH:MM (exclusive). Earlier than start wraps past midnight."`
}

func (c QuietCmd) Run(g *Globals) error {
	ed, err := g.editor()
	if err != nil {
		return err
	}
	defer ed.Close()

	ctx := context.Background()
	st, err := ed.Latest(ctx)
	if err != nil {
		return err
	}
	qh := st.QuietHours
	switch {
	case c.Enable:
		qh.Enabled = true
	case c.Disable:
		qh.Enabled = false
	}
	if c.Start != "" {
		if qh.Start, err = quarter.ParseTimeOfDay(c.Start); err != nil {
			return err
		}
	}
	if c.End != "" {
		if qh.End, err = quarter.ParseTimeOfDay(c.End); err != nil {
			return err
		}
	}
	if st, err = ed.SetQuietHours(ctx, qh); err != nil {
		return err
	}
	state := "off"
	if st.QuietHours.Enabled {
		state = "on"
	}
	fmt.Fprintf(g.Out, "quiet hours %s: %s-%s\n", state, st.QuietHours.Start, st.QuietHours.End)
	return nil
}
