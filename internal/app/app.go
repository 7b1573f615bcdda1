package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"timesignal/internal/config"
	"timesignal/internal/eventbus"
	"timesignal/internal/orchestrator"
	"timesignal/internal/platform/alarm"
	"timesignal/internal/platform/sysevents"
	"timesignal/internal/runtime/supervisor"
	"timesignal/internal/settings"
	"timesignal/internal/trigger"
	logx "timesignal/pkg/logx"
)

// App is the daemon: it owns the alarm facility and keeps one registration
// per enabled slot in sync with the settings store.
type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	comp   *components
	alarms *alarm.Facility
	sched  *trigger.Scheduler
	events *sysevents.Watcher
	orch   *orchestrator.Orchestrator

	settingsCfg settings.Config

	stopOnce sync.Once
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	sc, err := mapSettingsConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	evCfg, err := mapEventsConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	comp, err := openComponents(cfg, log, bus)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	alarms := alarm.New(comp.clock.Location(), cfg.ExactAllowed(), log.With(logx.String("comp", "alarm")))
	sched := trigger.New(alarms, comp.clock, log.With(logx.String("comp", "trigger")), bus)
	orch := orchestrator.New(orchestrator.Deps{
		Store:     comp.store,
		Scheduler: sched,
		Player:    comp.engine,
		Clock:     comp.clock,
		Log:       log.With(logx.String("comp", "orchestrator")),
		Bus:       bus,
	})
	alarms.SetHandler(func(ctx context.Context, p trigger.Payload) {
		if err := orch.HandleAlarm(ctx, p); err != nil {
			log.Warn("alarm handling failed", logx.String("slot", p.Slot.Name()), logx.Err(err))
		}
	})

	log.Info("timesignal configured",
		logx.String("config", cfgPath),
		logx.String("timezone", comp.clock.Location().String()),
		logx.String("settings", sc.Driver+":"+sc.Path),
		logx.String("vibrator", cfg.Vibrator.Driver),
		logx.String("wake", cfg.Wake.Driver),
		logx.Bool("exact_allowed", cfg.ExactAllowed()),
	)

	return &App{
		cfgm:        cfgm,
		log:         log,
		logs:        logSvc,
		bus:         bus,
		comp:        comp,
		alarms:      alarms,
		sched:       sched,
		events:      sysevents.New(evCfg, log.With(logx.String("comp", "sysevents"))),
		orch:        orch,
		settingsCfg: sc,
	}, nil
}

func (a *App) Orchestrator() *orchestrator.Orchestrator { return a.orch }

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateMappings(cfg)
	})

	a.alarms.Start(a.sup.Context())

	a.sup.Go0("eventbus.log", func(c context.Context) {
		eventbus.Log(c, a.bus, a.log.With(logx.String("comp", "events")))
	})

	// Boot is the first event and performs the initial reschedule.
	a.sup.GoRestart("sysevents", time.Second, 30*time.Second, func(c context.Context) error {
		return a.events.Run(c, func(ev sysevents.Event) { a.handleSystemEvent(c, ev) })
	})

	a.sup.Go("settings.watch", func(c context.Context) error {
		return settings.Watch(c, a.settingsCfg, a.log, func() {
			if _, err := a.orch.Reschedule(c, "settings changed"); err != nil {
				a.log.Warn("reschedule after settings change failed", logx.Err(err))
			}
		})
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.startWatchdog()
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}

	a.log.Info("app started")
	return nil
}

// startWatchdog pings systemd at half the configured WatchdogSec.
func (a *App) startWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		a.log.Warn("watchdog check failed", logx.Err(err))
		return
	}
	if interval <= 0 {
		return
	}
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
}

func (a *App) handleSystemEvent(ctx context.Context, ev sysevents.Event) {
	if ev.Kind == sysevents.TimezoneChanged {
		a.reloadLocation()
	}
	if err := a.orch.HandleSystemEvent(ctx, ev); err != nil {
		a.log.Warn("reschedule failed", logx.String("kind", string(ev.Kind)), logx.Err(err))
	}
}

func (a *App) reloadLocation() {
	loc, err := loadLocation(a.cfgm.Get())
	if err != nil {
		a.log.Warn("timezone reload failed; keeping previous", logx.Err(err))
		return
	}
	if a.comp.clock.SetLocation(loc) {
		a.log.Info("timezone changed", logx.String("timezone", loc.String()))
	}
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.applyConfig(ctx, lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	a.logs.Apply(mapLoggingConfig(next))

	for _, s := range sections {
		switch {
		case s == "timezone":
			a.events.NotifyTimezoneChanged("config")
		case s == "alarm":
			a.alarms.SetExactAllowed(next.ExactAllowed())
			if _, err := a.orch.Reschedule(ctx, "alarm permission changed"); err != nil {
				a.log.Warn("reschedule after permission change failed", logx.Err(err))
			}
		case config.RequiresRestart(s):
			a.log.Warn(fmt.Sprintf("%s config changed; restart required for changes to take effect", s))
		}
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.stopOnce.Do(func() { a.stop(ctx, reason) })
	return nil
}

func (a *App) stop(ctx context.Context, reason StopReason) {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// First, cancel the app run context so background loops start unwinding immediately.
	a.sup.Cancel()

	a.step(ctx, "haptics", time.Second, func(context.Context) error { a.comp.engine.Cancel(); return nil })
	a.step(ctx, "alarms", 2*time.Second, a.alarms.Stop)
	a.step(ctx, "supervisor", 2*time.Second, a.sup.Wait)
	a.step(ctx, "components", time.Second, func(context.Context) error { return a.comp.close() })

	a.log.Info("stopped")
	_ = a.logs.Close()
}

// step runs one shutdown step bounded by limit (and never past ctx's deadline)
// so one component can't stall the whole stop.
func (a *App) step(ctx context.Context, name string, limit time.Duration, fn func(context.Context) error) {
	start := time.Now()
	a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", limit))

	stepCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Err(stepCtx.Err()),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}
