package haptics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"timesignal/internal/eventbus"
	"timesignal/internal/pattern"
	logx "timesignal/pkg/logx"
)

// Event types published on the bus.
const (
	EventStarted  = "haptics.started"
	EventFinished = "haptics.finished"
	EventCanceled = "haptics.canceled"
)

type playback struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

type Engine struct {
	vib    VibrationCapability
	wake   WakeResource
	policy Policy
	log    logx.Logger
	bus    eventbus.Bus

	mu  sync.Mutex
	cur *playback
}

func NewEngine(vib VibrationCapability, wake WakeResource, policy Policy, log logx.Logger, bus eventbus.Bus) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	if wake == nil {
		wake = NoWake
	}
	return &Engine{vib: vib, wake: wake, policy: policy.withDefaults(), log: log, bus: bus}
}

// Duration is how long Play runs for p: the lead-in plus every step.
func (e *Engine) Duration(p pattern.Pattern) time.Duration {
	return e.policy.LeadIn + p.TotalDuration()
}

// Playing reports whether a playback is in flight.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil
}

// Play cancels any in-flight playback, then plays p to completion.
//
// It returns *pattern.InvalidPatternError without touching the hardware when p
// is malformed, and ctx.Err() when the playback is canceled (by ctx, by
// Cancel, or by a newer Play).
func (e *Engine) Play(ctx context.Context, p pattern.Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if e.vib == nil {
		return errors.New("haptics: no vibration capability")
	}

	ctx, cancel := context.WithCancel(ctx)
	pb := &playback{id: uuid.NewString(), cancel: cancel, done: make(chan struct{})}
	e.begin(pb)
	defer e.end(pb)

	if err := ctx.Err(); err != nil {
		return err
	}

	budget := e.Duration(p) + e.policy.SafetyMargin
	h, err := e.wake.Acquire(budget)
	if err != nil {
		e.log.Warn("wake resource unavailable; playing without it", logx.String("playback", pb.id), logx.Err(err))
		h = noHandle{}
	}
	defer func() {
		if rerr := h.Release(); rerr != nil {
			e.log.Warn("wake release failed", logx.String("playback", pb.id), logx.Err(rerr))
		}
	}()

	e.log.Debug("playback started",
		logx.String("playback", pb.id),
		logx.String("pattern", p.String()),
		logx.Duration("budget", budget),
	)
	e.publish(EventStarted, pb.id, p)

	err = e.run(ctx, p)
	switch {
	case err == nil:
		e.publish(EventFinished, pb.id, p)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		e.log.Debug("playback canceled", logx.String("playback", pb.id))
		e.publish(EventCanceled, pb.id, p)
	default:
		e.log.Error("playback failed", logx.String("playback", pb.id), logx.Err(err))
	}
	return err
}

func (e *Engine) run(ctx context.Context, p pattern.Pattern) error {
	if e.policy.Amplitude > 0 {
		if a, ok := e.vib.(AmplitudeSetter); ok {
			if err := a.SetAmplitude(e.policy.Amplitude); err != nil {
				e.log.Warn("set amplitude failed", logx.Int("amplitude", e.policy.Amplitude), logx.Err(err))
			}
		}
	}
	if err := sleep(ctx, e.policy.LeadIn); err != nil {
		return err
	}
	for i, seg := range p.Segments() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.vib.Pulse(seg.Vibrate); err != nil {
			return fmt.Errorf("pulse %d: %w", i+1, err)
		}
		if err := sleep(ctx, seg.Vibrate+seg.Pause); err != nil {
			return err
		}
	}
	return nil
}

// Cancel stops the in-flight playback, if any, and waits for it to release
// its wake resource.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cur := e.cur
	e.mu.Unlock()
	if cur == nil {
		return
	}
	cur.cancel()
	<-cur.done
}

func (e *Engine) begin(pb *playback) {
	e.mu.Lock()
	prev := e.cur
	e.cur = pb
	e.mu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}
}

func (e *Engine) end(pb *playback) {
	e.mu.Lock()
	if e.cur == pb {
		e.cur = nil
	}
	e.mu.Unlock()
	pb.cancel()
	close(pb.done)
}

func (e *Engine) publish(typ, id string, p pattern.Pattern) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(eventbus.Event{Type: typ, Data: map[string]any{
		"playback": id,
		"pattern":  p.String(),
	}})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
