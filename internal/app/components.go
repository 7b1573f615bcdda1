package app

import (
	"errors"
	"io"

	"timesignal/internal/config"
	"timesignal/internal/eventbus"
	"timesignal/internal/haptics"
	"timesignal/internal/platform/clock"
	"timesignal/internal/platform/vibrator"
	"timesignal/internal/platform/wakelock"
	"timesignal/internal/settings"
	logx "timesignal/pkg/logx"
)

// components are shared by the daemon and the editor.
type components struct {
	clock  *clock.Zoned
	store  settings.Store
	engine *haptics.Engine
	wake   io.Closer
}

func openComponents(cfg *config.Config, log logx.Logger, bus eventbus.Bus) (*components, error) {
	loc, err := loadLocation(cfg)
	if err != nil {
		return nil, err
	}
	sc, err := mapSettingsConfig(cfg)
	if err != nil {
		return nil, err
	}
	policy, err := mapPolicy(cfg)
	if err != nil {
		return nil, err
	}

	store, err := settings.Open(sc, log.With(logx.String("comp", "settings")))
	if err != nil {
		return nil, err
	}

	vib, err := vibrator.Open(mapVibratorConfig(cfg), log.With(logx.String("comp", "vibrator")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	wake, closer, err := wakelock.Open(mapWakeConfig(cfg), log.With(logx.String("comp", "wakelock")))
	switch {
	case errors.Is(err, wakelock.ErrUnavailable):
		log.Warn("wake lock unavailable; playing without it", logx.Err(err))
		wake, closer = haptics.NoWake, nil
	case err != nil:
		_ = store.Close()
		return nil, err
	}

	return &components{
		clock:  clock.New(loc),
		store:  store,
		engine: haptics.NewEngine(vib, wake, policy, log.With(logx.String("comp", "haptics")), bus),
		wake:   closer,
	}, nil
}

func (c *components) close() error {
	c.engine.Cancel()
	var errs []error
	if c.wake != nil {
		errs = append(errs, c.wake.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}
