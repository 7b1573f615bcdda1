package app

import (
	"context"
	"strings"

	"timesignal/internal/config"
	"timesignal/internal/orchestrator"
	logx "timesignal/pkg/logx"
)

// Editor is the settings surface used by the CLI. It shares the store with a
// running daemon, which reschedules through its settings watch; the editor
// itself never registers alarms.
type Editor struct {
	*orchestrator.Orchestrator

	cfg  *config.Config
	comp *components
}

// OpenEditor loads the config at cfgPath and opens the settings store and the
// local vibrator. verbose lowers the log level to the configured one.
func OpenEditor(cfgPath string, verbose bool) (*Editor, error) {
	cfg, err := config.NewConfigManager(cfgPath).Load()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if verbose && strings.TrimSpace(cfg.Logging.Level) != "" {
		level = cfg.Logging.Level
	}
	log := logx.NewConsole(level).With(logx.String("comp", "editor"))

	comp, err := openComponents(cfg, log, nil)
	if err != nil {
		return nil, err
	}
	return &Editor{
		Orchestrator: orchestrator.New(orchestrator.Deps{
			Store:  comp.store,
			Player: comp.engine,
			Clock:  comp.clock,
			Log:    log,
		}),
		cfg:  cfg,
		comp: comp,
	}, nil
}

// Status reports the exact-alarm permission from config, since the editor
// has no alarm facility of its own.
func (e *Editor) Status(ctx context.Context) (orchestrator.Status, error) {
	st, err := e.Orchestrator.Status(ctx)
	if err != nil {
		return st, err
	}
	st.CanScheduleExact = e.cfg.ExactAllowed()
	st.State.CanScheduleExact = st.CanScheduleExact
	return st, nil
}

func (e *Editor) Config() *config.Config { return e.cfg }

func (e *Editor) Close() error { return e.comp.close() }
