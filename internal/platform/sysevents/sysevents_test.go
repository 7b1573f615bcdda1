package sysevents

import (
	"context"
	"sync"
	"testing"
	"time"

	logx "timesignal/pkg/logx"
)

func TestJump(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		wall     time.Duration
		mono     time.Duration
		wantJump time.Duration
	}{
		{"steady", 10 * time.Second, 10 * time.Second, 0},
		{"forward", 70 * time.Second, 10 * time.Second, time.Minute},
		{"backward", -50 * time.Second, 10 * time.Second, -time.Minute},
		{"suspend", time.Hour, 10 * time.Second, time.Hour - 10*time.Second},
	}
	for _, tc := range cases {
		if got := jump(base, 0, base.Add(tc.wall), tc.mono); got != tc.wantJump {
			t.Fatalf("%s: jump = %v, want %v", tc.name, got, tc.wantJump)
		}
	}
}

type fakeSampler struct {
	mu   sync.Mutex
	wall time.Time
	mono time.Duration
}

func (f *fakeSampler) sample() (time.Time, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// every sample advances both clocks by 10ms
	f.wall = f.wall.Add(10 * time.Millisecond)
	f.mono += 10 * time.Millisecond
	return f.wall, f.mono
}

func (f *fakeSampler) shift(d time.Duration) {
	f.mu.Lock()
	f.wall = f.wall.Add(d)
	f.mu.Unlock()
}

type recorder struct {
	mu  sync.Mutex
	evs []Event
	ch  chan Event
}

func newRecorder() *recorder { return &recorder{ch: make(chan Event, 32)} }

func (r *recorder) emit(e Event) {
	r.mu.Lock()
	r.evs = append(r.evs, e)
	r.mu.Unlock()
	r.ch <- e
}

func (r *recorder) next(t *testing.T, want Kind) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e := <-r.ch:
			if e.Kind == want {
				return e
			}
		case <-deadline:
			t.Fatalf("no %s event", want)
		}
	}
}

func TestRunEmitsBootJumpsAndZoneChanges(t *testing.T) {
	t.Parallel()
	fs := &fakeSampler{wall: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	w := New(Config{ClockCheckInterval: 10 * time.Millisecond, ClockJumpThreshold: time.Second, MinGap: time.Millisecond}, logx.Logger{})
	w.sample = fs.sample

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := newRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, rec.emit)
	}()

	rec.next(t, Boot)
	fs.shift(5 * time.Minute)
	ev := rec.next(t, TimeChanged)
	if ev.Detail == "" {
		t.Fatalf("TimeChanged without drift detail")
	}

	w.NotifyTimezoneChanged("config")
	if ev := rec.next(t, TimezoneChanged); ev.Detail != "config" {
		t.Fatalf("detail = %q", ev.Detail)
	}
	cancel()
	<-done
}

func TestJumpsAreCoalesced(t *testing.T) {
	t.Parallel()
	fs := &fakeSampler{wall: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	w := New(Config{ClockCheckInterval: 5 * time.Millisecond, ClockJumpThreshold: time.Second, MinGap: time.Hour}, logx.Logger{})
	w.sample = fs.sample

	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, rec.emit)
	}()
	rec.next(t, Boot)
	fs.shift(time.Minute)
	rec.next(t, TimeChanged)
	for i := 0; i < 5; i++ {
		fs.shift(time.Minute)
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	<-done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := 0
	for _, e := range rec.evs {
		if e.Kind == TimeChanged {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("TimeChanged events = %d, want 1 inside MinGap", n)
	}
}
