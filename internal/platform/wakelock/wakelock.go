// Package wakelock keeps the host out of suspend while a pattern plays.
//
// The "logind" driver takes a systemd-logind "sleep:idle" inhibitor lock in
// block mode. Every lock is bounded: it is dropped when its budget runs out
// even if the holder never releases it.
package wakelock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/login1"

	"timesignal/internal/haptics"
	logx "timesignal/pkg/logx"
)

var ErrUnavailable = errors.New("wake lock unavailable")

const (
	inhibitWhat = "sleep:idle"
	inhibitWho  = "timesignal"
	inhibitWhy  = "playing time signal"
	inhibitMode = "block"
)

type Config struct {
	Driver string
}

// inhibitor is the subset of *login1.Conn we use.
type inhibitor interface {
	Inhibit(what, who, why, mode string) (*os.File, error)
}

// Open returns the configured wake resource and a closer for its connection.
func Open(cfg Config, log logx.Logger) (haptics.WakeResource, io.Closer, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "none":
		return haptics.NoWake, closerFunc(func() error { return nil }), nil
	case "logind":
		conn, err := login1.New()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: logind: %v", ErrUnavailable, err)
		}
		return &Logind{conn: conn, log: log}, closerFunc(func() error { conn.Close(); return nil }), nil
	default:
		return nil, nil, errors.New("unknown wake driver: " + driver)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Logind takes logind inhibitor locks.
type Logind struct {
	conn inhibitor
	log  logx.Logger
}

func (l *Logind) Acquire(budget time.Duration) (haptics.WakeHandle, error) {
	f, err := l.conn.Inhibit(inhibitWhat, inhibitWho, inhibitWhy, inhibitMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return newHandle(f, budget, l.log), nil
}

// handle owns one inhibitor fd. Closing the fd releases the lock. The budget
// timer only ever runs release, never Release, so it never reads h.timer.
type handle struct {
	c     io.Closer
	once  sync.Once
	err   error
	timer *time.Timer
}

func newHandle(c io.Closer, budget time.Duration, log logx.Logger) *handle {
	h := &handle{c: c}
	if budget > 0 {
		h.timer = time.AfterFunc(budget, func() {
			log.Warn("wake budget exhausted; releasing", logx.Duration("budget", budget))
			h.release()
		})
	}
	return h
}

func (h *handle) release() {
	h.once.Do(func() { h.err = h.c.Close() })
}

func (h *handle) Release() error {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.release()
	return h.err
}
