// Package fswatch watches a single file through its parent directory and
// calls back after writes settle.
//
// Watching the directory instead of the file survives editors and tools that
// replace the file by rename. The underlying fsnotify watcher is recreated with
// jittered exponential backoff when it breaks.
package fswatch

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "timesignal/pkg/logx"
)

const (
	DefaultDebounce = 250 * time.Millisecond

	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// File watches Path. Companions lists extra basenames in the same directory
// whose changes count as changes to Path (e.g. a sqlite "-wal" file).
type File struct {
	Path       string
	Companions []string
	Debounce   time.Duration
	Log        logx.Logger
}

func (f File) matches(name string) bool {
	base := filepath.Base(name)
	if strings.EqualFold(base, filepath.Base(f.Path)) {
		return true
	}
	for _, c := range f.Companions {
		if strings.EqualFold(base, c) {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, calling onChange (from a timer goroutine) once
// per burst of events. It never returns an error: watcher failures are logged
// and retried.
func (f File) Run(ctx context.Context, onChange func()) error {
	log := f.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	wait := f.Debounce
	if wait <= 0 {
		wait = DefaultDebounce
	}
	dir := filepath.Dir(f.Path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(wait, func() {
			if ctx.Err() != nil {
				return
			}
			onChange()
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sleep := func() bool {
		d := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff *= 2
			if backoff > restartBackoffMax {
				backoff = restartBackoffMax
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		w, err := fsnotify.NewWatcher()
		if err != nil {
			log.Warn("watch init failed", logx.String("dir", dir), logx.Err(err))
			if !sleep() {
				return nil
			}
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			log.Warn("watch add failed", logx.String("dir", dir), logx.Err(err))
			if !sleep() {
				return nil
			}
			continue
		}
		backoff = restartBackoffBase
		log.Debug("watcher started", logx.String("dir", dir), logx.String("file", filepath.Base(f.Path)))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if f.matches(ev.Name) && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				// Overflow means events were lost; treat it as a change.
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					log.Warn("watch overflow; forcing reload", logx.String("dir", dir), logx.Err(err))
					debounce()
					continue
				}
				log.Warn("watch error", logx.String("dir", dir), logx.Err(err))
				if strings.Contains(strings.ToLower(err.Error()), "closed") {
					broken = true
				}
			}
		}

		_ = w.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("watcher stopped; restarting", logx.String("dir", dir), logx.Duration("backoff", backoff))
		if !sleep() {
			return nil
		}
	}
}
