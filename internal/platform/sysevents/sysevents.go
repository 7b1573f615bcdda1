// Package sysevents turns host-level changes into reschedule triggers: process
// start (Boot), wall clock jumps (TimeChanged) and timezone changes
// (TimezoneChanged).
//
// Clock jumps are found by comparing how far the wall clock and the monotonic
// clock advanced between two samples. A manual clock change, an NTP step and a
// resume from suspend all show up as a difference.
package sysevents

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"timesignal/internal/fswatch"
	logx "timesignal/pkg/logx"
)

type Kind string

const (
	Boot            Kind = "boot"
	TimeChanged     Kind = "time_changed"
	TimezoneChanged Kind = "timezone_changed"
)

type Event struct {
	Kind   Kind
	At     time.Time
	Detail string
}

type Config struct {
	ClockCheckInterval time.Duration
	ClockJumpThreshold time.Duration
	ZoneinfoPath       string
	WatchZoneinfo      bool
	// MinGap bounds how often TimeChanged can be emitted; jumps inside the gap
	// are coalesced into one event.
	MinGap time.Duration
}

const (
	DefaultClockCheckInterval = 10 * time.Second
	DefaultClockJumpThreshold = 2 * time.Second
	DefaultMinGap             = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.ClockCheckInterval <= 0 {
		c.ClockCheckInterval = DefaultClockCheckInterval
	}
	if c.ClockJumpThreshold <= 0 {
		c.ClockJumpThreshold = DefaultClockJumpThreshold
	}
	if c.MinGap <= 0 {
		c.MinGap = DefaultMinGap
	}
	if c.ZoneinfoPath == "" {
		c.ZoneinfoPath = "/etc/localtime"
	}
	return c
}

// sampler returns the wall clock (without monotonic reading) and the monotonic
// time elapsed since some fixed origin.
type sampler func() (wall time.Time, mono time.Duration)

func systemSampler() sampler {
	origin := time.Now()
	return func() (time.Time, time.Duration) {
		now := time.Now()
		return now.Round(0), now.Sub(origin)
	}
}

type Watcher struct {
	cfg     Config
	log     logx.Logger
	sample  sampler
	limiter *rate.Limiter

	tz chan string
}

func New(cfg Config, log logx.Logger) *Watcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	return &Watcher{
		cfg:     cfg,
		log:     log,
		sample:  systemSampler(),
		limiter: rate.NewLimiter(rate.Every(cfg.MinGap), 1),
		tz:      make(chan string, 1),
	}
}

// NotifyTimezoneChanged reports a timezone change detected elsewhere (for
// example a config reload). Bursts collapse into a single pending event.
func (w *Watcher) NotifyTimezoneChanged(detail string) {
	select {
	case w.tz <- detail:
	default:
	}
}

// Run emits Boot immediately, then TimeChanged/TimezoneChanged until ctx is
// done. emit is called from Run's goroutine only.
func (w *Watcher) Run(ctx context.Context, emit func(Event)) error {
	prevWall, prevMono := w.sample()
	emit(Event{Kind: Boot, At: prevWall})

	if w.cfg.WatchZoneinfo {
		go func() {
			_ = fswatch.File{
				Path: w.cfg.ZoneinfoPath,
				Log:  w.log,
			}.Run(ctx, func() { w.NotifyTimezoneChanged(w.cfg.ZoneinfoPath) })
		}()
	}

	t := time.NewTicker(w.cfg.ClockCheckInterval)
	defer t.Stop()

	pending := false
	var lastDrift time.Duration
	for {
		select {
		case <-ctx.Done():
			return nil
		case detail := <-w.tz:
			wall, _ := w.sample()
			w.log.Info("timezone change detected", logx.String("source", detail))
			emit(Event{Kind: TimezoneChanged, At: wall, Detail: detail})
		case <-t.C:
			wall, mono := w.sample()
			drift := jump(prevWall, prevMono, wall, mono)
			prevWall, prevMono = wall, mono
			if abs(drift) >= w.cfg.ClockJumpThreshold {
				w.log.Info("wall clock jump detected", logx.Duration("drift", drift))
				pending = true
				lastDrift = drift
			}
			if pending && w.limiter.Allow() {
				pending = false
				emit(Event{Kind: TimeChanged, At: wall, Detail: lastDrift.String()})
			}
		}
	}
}

// jump is how much further the wall clock moved than the monotonic clock.
func jump(prevWall time.Time, prevMono time.Duration, wall time.Time, mono time.Duration) time.Duration {
	return wall.Sub(prevWall) - (mono - prevMono)
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
