package alarm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"timesignal/internal/trigger"
	logx "timesignal/pkg/logx"
)

// Handler receives a fired alarm.
type Handler func(ctx context.Context, payload trigger.Payload)

type entry struct {
	id      cron.EntryID
	gen     uint64
	at      time.Time
	payload trigger.Payload
}

// Facility is the in-process AlarmCapability.
type Facility struct {
	log  logx.Logger
	cron *cron.Cron

	exact atomic.Bool

	mu      sync.Mutex
	ctx     context.Context
	handler Handler
	entries map[int]entry
	gen     uint64
	started bool
}

var _ trigger.AlarmCapability = (*Facility)(nil)

// New creates a stopped facility. exactAllowed is the initial permission gate.
func New(loc *time.Location, exactAllowed bool, log logx.Logger) *Facility {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	f := &Facility{
		log:     log,
		ctx:     context.Background(),
		entries: map[int]entry{},
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
	}
	f.exact.Store(exactAllowed)
	return f
}

// SetHandler installs the callback for fired alarms.
func (f *Facility) SetHandler(h Handler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

// SetExactAllowed flips the permission gate (config reload).
func (f *Facility) SetExactAllowed(v bool) { f.exact.Store(v) }

func (f *Facility) CanScheduleExact() bool { return f.exact.Load() }

// Start runs the cron loop. Handlers receive ctx.
func (f *Facility) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return
	}
	f.ctx = ctx
	f.started = true
	f.cron.Start()
	f.log.Info("alarm facility started", logx.Int("pending", len(f.entries)))
}

// Stop halts the cron loop and waits for running handlers until ctx is done.
func (f *Facility) Stop(ctx context.Context) error {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = false
	f.mu.Unlock()

	select {
	case <-f.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScheduleExactWake registers (or replaces) the alarm for key.
func (f *Facility) ScheduleExactWake(key int, at time.Time, payload trigger.Payload) error {
	if !f.CanScheduleExact() {
		return errors.New("exact alarms not permitted")
	}
	if at.IsZero() {
		return errors.New("alarm time is zero")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.entries[key]; ok {
		f.cron.Remove(prev.id)
		delete(f.entries, key)
	}

	f.gen++
	gen := f.gen
	id := f.cron.Schedule(onceSchedule{at: at}, cron.FuncJob(func() { f.fire(key, gen) }))
	f.entries[key] = entry{id: id, gen: gen, at: at, payload: payload}
	return nil
}

// Cancel removes the alarm for key. Unknown keys are ignored.
func (f *Facility) Cancel(key int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.entries[key]; ok {
		f.cron.Remove(prev.id)
		delete(f.entries, key)
	}
	return nil
}

// Pending lists registered alarms ordered by fire time.
func (f *Facility) Pending() []trigger.Registration {
	f.mu.Lock()
	out := make([]trigger.Registration, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, trigger.Registration{Slot: e.payload.Slot, At: e.at})
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func (f *Facility) fire(key int, gen uint64) {
	f.mu.Lock()
	e, ok := f.entries[key]
	if !ok || e.gen != gen {
		// Replaced or canceled after cron picked it up.
		f.mu.Unlock()
		return
	}
	delete(f.entries, key)
	f.cron.Remove(e.id)
	h, ctx := f.handler, f.ctx
	f.mu.Unlock()

	if h == nil {
		f.log.Warn("alarm fired without handler", logx.Int("key", key))
		return
	}
	h(ctx, e.payload)
}
