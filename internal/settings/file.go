package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"timesignal/internal/quarter"
	logx "timesignal/pkg/logx"
)

const documentVersion = 1

// document is the on-disk JSON layout. Quarters is keyed by slot name so the
// file stays readable and independent of slot ordering.
type document struct {
	Version    int                         `json:"version"`
	Quarters   map[string]quarter.Settings `json:"quarters"`
	QuietHours quarter.QuietHours          `json:"quiet_hours"`
}

// fileStore keeps no cache: every load reads the file so edits made by another
// process (the CLI) are seen by the daemon.
type fileStore struct {
	path string
	log  logx.Logger
}

func openFile(cfg Config, log logx.Logger) (backend, error) {
	path := filepath.Clean(cfg.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &fileStore{path: path, log: log}
	// Fail early on a corrupt file rather than on the first alarm.
	if _, err := s.load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileStore) load(ctx context.Context) (quarter.State, error) {
	_ = ctx
	st := quarter.DefaultState()
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return quarter.State{}, err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return quarter.State{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	for name, set := range doc.Quarters {
		slot, err := quarter.ParseSlot(name)
		if err != nil {
			return quarter.State{}, fmt.Errorf("decode %s: %w: %q", s.path, ErrUnknownSlot, name)
		}
		st.Quarters[slot] = set
	}
	if doc.Version > 0 {
		st.QuietHours = doc.QuietHours
	}
	return st, nil
}

func (s *fileStore) save(ctx context.Context, st quarter.State) error {
	_ = ctx
	doc := document{
		Version:    documentVersion,
		Quarters:   make(map[string]quarter.Settings, quarter.Count),
		QuietHours: st.QuietHours,
	}
	for _, slot := range quarter.All() {
		doc.Quarters[slot.Name()] = st.Quarters[slot]
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) close() error { return nil }
