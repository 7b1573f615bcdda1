// Package orchestrator reacts to fired alarms and system events, and offers
// the settings-editor flows that must reschedule after a change.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"timesignal/internal/eventbus"
	"timesignal/internal/pattern"
	"timesignal/internal/platform/sysevents"
	"timesignal/internal/quarter"
	"timesignal/internal/quiethours"
	"timesignal/internal/settings"
	"timesignal/internal/trigger"
	logx "timesignal/pkg/logx"
)

// Event types published on the bus.
const (
	EventFired       = "alarm.fired"
	EventSuppressed  = "alarm.suppressed"
	EventRescheduled = "alarm.rescheduled"
)

// Scheduler is the part of *trigger.Scheduler the orchestrator drives.
type Scheduler interface {
	ScheduleNext(slot quarter.Slot) (time.Time, error)
	Reschedule(state quarter.State) ([]trigger.Registration, error)
	CanScheduleExact() bool
}

// Player plays a pattern; *haptics.Engine implements it.
type Player interface {
	Play(ctx context.Context, p pattern.Pattern) error
}

type Deps struct {
	Store settings.Store
	// Scheduler may be nil for editor-only use (the CLI): the daemon picks up
	// the change through its settings watch and reschedules itself.
	Scheduler Scheduler
	Player    Player
	Clock     trigger.Clock
	Log       logx.Logger
	Bus       eventbus.Bus
}

type Orchestrator struct {
	store  settings.Store
	sched  Scheduler
	player Player
	clock  trigger.Clock
	log    logx.Logger
	bus    eventbus.Bus
}

func New(d Deps) *Orchestrator {
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Clock == nil {
		d.Clock = trigger.ClockFunc(time.Now)
	}
	return &Orchestrator{
		store:  d.Store,
		sched:  d.Scheduler,
		player: d.Player,
		clock:  d.Clock,
		log:    d.Log,
		bus:    d.Bus,
	}
}

// Latest reads the current snapshot and fills in the permission flag.
func (o *Orchestrator) Latest(ctx context.Context) (quarter.State, error) {
	st, err := o.store.Latest(ctx)
	if err != nil {
		return quarter.State{}, err
	}
	if o.sched != nil {
		st.CanScheduleExact = o.sched.CanScheduleExact()
	}
	return st, nil
}

// HandleAlarm processes one fired alarm. The next occurrence of the slot is
// registered on every exit path, including a panic during playback.
func (o *Orchestrator) HandleAlarm(ctx context.Context, p trigger.Payload) (err error) {
	slot := p.Slot
	now := o.clock.Now()
	log := o.log.With(logx.String("slot", slot.Name()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("alarm handler panic", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			err = fmt.Errorf("alarm %s: panic: %v", slot.Name(), r)
		}
		if o.sched == nil {
			return
		}
		if _, serr := o.sched.ScheduleNext(slot); serr != nil {
			err = errors.Join(err, serr)
		}
	}()

	fields := []logx.Field{logx.Time("scheduled_at", p.ScheduledAt)}
	if !p.ScheduledAt.IsZero() {
		fields = append(fields, logx.Duration("delay", now.Sub(p.ScheduledAt)))
	}
	log.Info("alarm fired", fields...)
	o.publish(EventFired, map[string]any{"slot": slot.Name(), "scheduled_at": p.ScheduledAt})

	st, err := o.Latest(ctx)
	if err != nil {
		return fmt.Errorf("alarm %s: read settings: %w", slot.Name(), err)
	}
	if quiethours.IsWithin(st.QuietHours, now) {
		log.Info("inside quiet hours; signal suppressed",
			logx.String("start", st.QuietHours.Start.String()),
			logx.String("end", st.QuietHours.End.String()),
		)
		o.publish(EventSuppressed, map[string]any{"slot": slot.Name(), "reason": "quiet_hours"})
		return nil
	}
	set := st.Slot(slot)
	if !set.Enabled {
		log.Debug("slot disabled; not playing")
		return nil
	}
	pat, err := set.Pattern()
	if err != nil {
		return fmt.Errorf("alarm %s: %w", slot.Name(), err)
	}
	if err := o.play(ctx, pat); err != nil {
		return fmt.Errorf("alarm %s: play: %w", slot.Name(), err)
	}
	return nil
}

// HandleSystemEvent reschedules every slot from the latest settings.
func (o *Orchestrator) HandleSystemEvent(ctx context.Context, ev sysevents.Event) error {
	o.log.Info("system event", logx.String("kind", string(ev.Kind)), logx.String("detail", ev.Detail))
	_, err := o.reschedule(ctx, string(ev.Kind))
	return err
}

// Reschedule re-reads settings and re-registers every enabled slot.
func (o *Orchestrator) Reschedule(ctx context.Context, reason string) ([]trigger.Registration, error) {
	return o.reschedule(ctx, reason)
}

func (o *Orchestrator) reschedule(ctx context.Context, reason string) ([]trigger.Registration, error) {
	if o.sched == nil {
		return nil, nil
	}
	st, err := o.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("reschedule (%s): read settings: %w", reason, err)
	}
	return o.rescheduleState(st, reason)
}

func (o *Orchestrator) rescheduleState(st quarter.State, reason string) ([]trigger.Registration, error) {
	if o.sched == nil {
		return nil, nil
	}
	regs, err := o.sched.Reschedule(st)
	if !o.sched.CanScheduleExact() && len(st.EnabledSlots()) > 0 {
		o.log.Warn("exact alarms not permitted; enabled slots stay silent", logx.String("reason", reason))
	}
	o.publish(EventRescheduled, map[string]any{"reason": reason, "registered": len(regs)})
	if err != nil {
		return regs, fmt.Errorf("reschedule (%s): %w", reason, err)
	}
	return regs, nil
}

// play treats being superseded by a newer playback as success.
func (o *Orchestrator) play(ctx context.Context, p pattern.Pattern) error {
	if o.player == nil {
		return errors.New("no player configured")
	}
	err := o.player.Play(ctx, p)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		o.log.Debug("playback superseded")
		return nil
	}
	return err
}

func (o *Orchestrator) publish(typ string, data map[string]any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
