package settings

import (
	"errors"
	"strings"

	logx "timesignal/pkg/logx"
)

// Open initializes the configured store. An empty driver means "file".
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("settings.path is required")
	}

	var (
		b   backend
		err error
	)
	switch driver {
	case "", "file", "json":
		b, err = openFile(cfg, log)
	case "sqlite", "sqlite3":
		b, err = openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown settings driver: " + driver)
	}
	if err != nil {
		return nil, err
	}
	return &store{b: b, log: log}, nil
}

// WatchedFiles lists the basenames whose changes indicate a settings change
// made by another process.
func WatchedFiles(cfg Config) (path string, companions []string) {
	path = cfg.Path
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite", "sqlite3":
		base := baseName(path)
		companions = []string{base + "-wal"}
	}
	return path, companions
}
