package trigger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"timesignal/internal/eventbus"
	"timesignal/internal/quarter"
	logx "timesignal/pkg/logx"
)

// Event types published on the bus.
const (
	EventScheduled = "trigger.scheduled"
	EventDeferred  = "trigger.deferred"
	EventCanceled  = "trigger.canceled"
)

// Scheduler registers one alarm per enabled slot through an AlarmCapability.
// It keeps no state between calls besides a mutex that serializes
// cancel/register sequences.
type Scheduler struct {
	mu sync.Mutex

	alarms AlarmCapability
	clock  Clock
	log    logx.Logger
	bus    eventbus.Bus
}

func New(alarms AlarmCapability, clock Clock, log logx.Logger, bus eventbus.Bus) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &Scheduler{alarms: alarms, clock: clock, log: log, bus: bus}
}

// CanScheduleExact reports the host permission gate.
func (s *Scheduler) CanScheduleExact() bool {
	return s.alarms != nil && s.alarms.CanScheduleExact()
}

// ScheduleNext registers the next occurrence of slot after the current time.
func (s *Scheduler) ScheduleNext(slot quarter.Slot) (time.Time, error) {
	return s.ScheduleNextFrom(slot, s.clock.Now())
}

// ScheduleNextFrom registers the next occurrence of slot after from.
//
// It returns the zero time without error when exact alarms are denied: the
// slot stays silent until a later Reschedule runs with permission granted.
func (s *Scheduler) ScheduleNextFrom(slot quarter.Slot, from time.Time) (time.Time, error) {
	if !slot.Valid() {
		return time.Time{}, fmt.Errorf("schedule next: invalid slot %d", int(slot))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(slot, from)
}

func (s *Scheduler) scheduleLocked(slot quarter.Slot, from time.Time) (time.Time, error) {
	if s.alarms == nil || !s.alarms.CanScheduleExact() {
		s.log.Debug("exact alarms denied; slot deferred", logx.String("slot", slot.Name()))
		s.publish(EventDeferred, map[string]any{"slot": slot.Name()})
		return time.Time{}, nil
	}

	next := NextTrigger(slot, from)
	if err := s.alarms.ScheduleExactWake(slot.Ordinal(), next, Payload{Slot: slot, ScheduledAt: next}); err != nil {
		s.log.Error("alarm register failed", logx.String("slot", slot.Name()), logx.Time("at", next), logx.Err(err))
		return time.Time{}, fmt.Errorf("schedule %s: %w", slot.Name(), err)
	}
	s.log.Debug("alarm scheduled",
		logx.String("slot", slot.Name()),
		logx.Int("minute", slot.Minute()),
		logx.String("at", next.Format(time.RFC3339)),
		logx.Duration("in", next.Sub(from)),
	)
	s.publish(EventScheduled, map[string]any{"slot": slot.Name(), "at": next})
	return next, nil
}

// Reschedule cancels every slot and registers the enabled ones. Calling it
// twice with the same state leaves the same single alarm per enabled slot.
func (s *Scheduler) Reschedule(state quarter.State) ([]Registration, error) {
	return s.RescheduleFrom(state, s.clock.Now())
}

// RescheduleFrom is Reschedule with an explicit reference instant.
func (s *Scheduler) RescheduleFrom(state quarter.State, from time.Time) ([]Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		regs []Registration
		errs []error
	)
	for _, slot := range quarter.All() {
		if err := s.cancelLocked(slot); err != nil {
			errs = append(errs, err)
		}
		if !state.Slot(slot).Enabled {
			continue
		}
		at, err := s.scheduleLocked(slot, from)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !at.IsZero() {
			regs = append(regs, Registration{Slot: slot, At: at})
		}
	}
	s.log.Info("slots rescheduled", logx.Int("registered", len(regs)), logx.Int("enabled", len(state.EnabledSlots())))
	return regs, errors.Join(errs...)
}

// Cancel removes the registration for one slot.
func (s *Scheduler) Cancel(slot quarter.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(slot)
}

// CancelAll removes every slot's registration.
func (s *Scheduler) CancelAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, slot := range quarter.All() {
		if err := s.cancelLocked(slot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) cancelLocked(slot quarter.Slot) error {
	if s.alarms == nil {
		return nil
	}
	if err := s.alarms.Cancel(slot.Ordinal()); err != nil {
		return fmt.Errorf("cancel %s: %w", slot.Name(), err)
	}
	s.publish(EventCanceled, map[string]any{"slot": slot.Name()})
	return nil
}

// Preview is the package-level Preview at the scheduler's current time.
func (s *Scheduler) Preview(state quarter.State) []Registration {
	return Preview(state, s.clock.Now())
}

// Preview computes (without registering) the next trigger for every enabled slot.
func Preview(state quarter.State, from time.Time) []Registration {
	out := make([]Registration, 0, quarter.Count)
	for _, slot := range state.EnabledSlots() {
		out = append(out, Registration{Slot: slot, At: NextTrigger(slot, from)})
	}
	return out
}

func (s *Scheduler) publish(typ string, data map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
