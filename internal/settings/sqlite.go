package settings

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"timesignal/internal/pattern"
	"timesignal/internal/quarter"
	logx "timesignal/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (backend, error) {
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) load(ctx context.Context) (quarter.State, error) {
	st := quarter.DefaultState()

	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, enabled, preset_id, vib1, pause1, vib2, pause2, vib3 FROM quarters`)
	if err != nil {
		return quarter.State{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name    string
			enabled bool
			preset  sql.NullString
			vals    [pattern.MaxSteps]sql.NullInt64
		)
		if err := rows.Scan(&name, &enabled, &preset, &vals[0], &vals[1], &vals[2], &vals[3], &vals[4]); err != nil {
			return quarter.State{}, err
		}
		slot, err := quarter.ParseSlot(name)
		if err != nil {
			return quarter.State{}, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
		}
		set := quarter.Settings{Enabled: enabled, PresetID: preset.String}
		if f := fieldsFromColumns(vals); !f.IsEmpty() {
			set.Custom = &f
		}
		st.Quarters[slot] = set
	}
	if err := rows.Err(); err != nil {
		return quarter.State{}, err
	}

	var qh quarter.QuietHours
	var start, end int
	err = s.db.QueryRowContext(ctx, `SELECT enabled, start_min, end_min FROM quiet_hours WHERE id = 1`).
		Scan(&qh.Enabled, &start, &end)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return quarter.State{}, err
	default:
		qh.Start, qh.End = quarter.TimeOfDay(start), quarter.TimeOfDay(end)
		st.QuietHours = qh
	}
	return st, nil
}

func (s *sqliteStore) save(ctx context.Context, st quarter.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, slot := range quarter.All() {
		set := st.Quarters[slot]
		var f pattern.Fields
		if set.Custom != nil {
			f = *set.Custom
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quarters(slot, enabled, preset_id, vib1, pause1, vib2, pause2, vib3, updated_at)
			 VALUES(?,?,?,?,?,?,?,?,?)
			 ON CONFLICT(slot) DO UPDATE SET
			   enabled=excluded.enabled, preset_id=excluded.preset_id,
			   vib1=excluded.vib1, pause1=excluded.pause1, vib2=excluded.vib2,
			   pause2=excluded.pause2, vib3=excluded.vib3, updated_at=excluded.updated_at`,
			slot.Name(), set.Enabled, nullStr(set.PresetID),
			nullInt(f.Vib1), nullInt(f.Pause1), nullInt(f.Vib2), nullInt(f.Pause2), nullInt(f.Vib3),
			now,
		)
		if err != nil {
			return fmt.Errorf("save %s: %w", slot.Name(), err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO quiet_hours(id, enabled, start_min, end_min, updated_at) VALUES(1,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET enabled=excluded.enabled, start_min=excluded.start_min,
		   end_min=excluded.end_min, updated_at=excluded.updated_at`,
		st.QuietHours.Enabled, int(st.QuietHours.Start), int(st.QuietHours.End), now,
	)
	if err != nil {
		return fmt.Errorf("save quiet hours: %w", err)
	}
	return tx.Commit()
}

func (s *sqliteStore) close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func fieldsFromColumns(vals [pattern.MaxSteps]sql.NullInt64) pattern.Fields {
	var out [pattern.MaxSteps]*int
	for i, v := range vals {
		if v.Valid {
			n := int(v.Int64)
			out[i] = &n
		}
	}
	return pattern.Fields{Vib1: out[0], Pause1: out[1], Vib2: out[2], Pause2: out[3], Vib3: out[4]}
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
