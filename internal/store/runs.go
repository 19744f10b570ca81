package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/timeutil"
)

var (
	// ErrRunNotFound is returned for an unknown run ID.
	ErrRunNotFound = errors.New("store: run not found")
	// ErrGrainNotFound is returned when a run holds no trajectory for a grain.
	ErrGrainNotFound = errors.New("store: grain not found")
)

// timeLayout keeps fixed-width fractional seconds so created_at sorts as
// text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one persisted analysis run.
type Run struct {
	ID         string          `json:"run_id"`
	Label      string          `json:"label"`
	Config     json.RawMessage `json:"config,omitempty"`
	GrainCount int             `json:"grain_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Family is a named set of grains recorded against a run.
type Family struct {
	Name     string `json:"name"`
	GrainIDs []int  `json:"grain_ids"`
}

// RunStore provides persistence for analysis runs.
type RunStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore. A nil clock uses the wall clock.
func NewRunStore(db *DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// InsertRun records a new run and returns it with a fresh ID.
func (s *RunStore) InsertRun(ctx context.Context, label string, config json.RawMessage) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Label:     label,
		Config:    config,
		CreatedAt: s.clock.Now().UTC(),
	}
	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (run_id, label, config_json, created_at) VALUES (?, ?, ?, ?)`,
			run.ID, run.Label, nullJSON(config), run.CreatedAt.Format(timeLayout),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, label, config_json, grain_count, created_at FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, label, config_json, grain_count, created_at FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var config sql.NullString
	var createdAt string
	if err := row.Scan(&run.ID, &run.Label, &config, &run.GrainCount, &createdAt); err != nil {
		return nil, err
	}
	if config.Valid {
		run.Config = json.RawMessage(config.String)
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at for run %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return &run, nil
}

// InsertTrajectories stores the trajectory of every grain under runID in a
// single transaction, replacing any earlier trajectory of the same grain.
func (s *RunStore) InsertTrajectories(ctx context.Context, runID string, trajectories map[int][]rotation.EulerAngle) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	ids := make([]int, 0, len(trajectories))
	for id := range trajectories {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	err := retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		del, err := tx.PrepareContext(ctx, `DELETE FROM trajectory_points WHERE run_id = ? AND grain_id = ?`)
		if err != nil {
			return err
		}
		defer del.Close()
		ins, err := tx.PrepareContext(ctx,
			`INSERT INTO trajectory_points (run_id, grain_id, step, phi1, phi, phi2) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer ins.Close()

		for _, id := range ids {
			if _, err := del.ExecContext(ctx, runID, id); err != nil {
				return err
			}
			for step, e := range trajectories[id] {
				if _, err := ins.ExecContext(ctx, runID, id, step, e.Phi1, e.Phi, e.Phi2); err != nil {
					return err
				}
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE runs SET grain_count = (SELECT COUNT(DISTINCT grain_id) FROM trajectory_points WHERE run_id = ?) WHERE run_id = ?`,
			runID, runID); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("inserting trajectories for run %s: %w", runID, err)
	}
	return nil
}

// GetTrajectory returns the stored trajectory of one grain, in step order.
func (s *RunStore) GetTrajectory(ctx context.Context, runID string, grainID int) ([]rotation.EulerAngle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phi1, phi, phi2 FROM trajectory_points WHERE run_id = ? AND grain_id = ? ORDER BY step`,
		runID, grainID)
	if err != nil {
		return nil, fmt.Errorf("querying trajectory of grain %d: %w", grainID, err)
	}
	defer rows.Close()

	var out []rotation.EulerAngle
	for rows.Next() {
		var e rotation.EulerAngle
		if err := rows.Scan(&e.Phi1, &e.Phi, &e.Phi2); err != nil {
			return nil, fmt.Errorf("scanning trajectory of grain %d: %w", grainID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying trajectory of grain %d: %w", grainID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: run %s grain %d", ErrGrainNotFound, runID, grainID)
	}
	return out, nil
}

// GrainIDs returns the grains with a stored trajectory under runID, sorted.
func (s *RunStore) GrainIDs(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT grain_id FROM trajectory_points WHERE run_id = ? ORDER BY grain_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing grains of run %s: %w", runID, err)
	}
	defer rows.Close()
	return scanInts(rows)
}

// InsertFamily records the members of a named family under runID,
// replacing an earlier family of the same name.
func (s *RunStore) InsertFamily(ctx context.Context, runID, name string, grainIDs []int) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	err := retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM families WHERE run_id = ? AND name = ?`, runID, name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO families (run_id, name) VALUES (?, ?)`, runID, name); err != nil {
			return err
		}
		for _, id := range grainIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO family_members (run_id, name, grain_id) VALUES (?, ?, ?)`,
				runID, name, id); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("inserting family %q for run %s: %w", name, runID, err)
	}
	return nil
}

// ListFamilies returns the families of runID by name, members sorted.
func (s *RunStore) ListFamilies(ctx context.Context, runID string) ([]Family, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.name, m.grain_id
		 FROM families f LEFT JOIN family_members m ON m.run_id = f.run_id AND m.name = f.name
		 WHERE f.run_id = ?
		 ORDER BY f.name, m.grain_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing families of run %s: %w", runID, err)
	}
	defer rows.Close()

	var families []Family
	for rows.Next() {
		var name string
		var grainID sql.NullInt64
		if err := rows.Scan(&name, &grainID); err != nil {
			return nil, fmt.Errorf("scanning family: %w", err)
		}
		if len(families) == 0 || families[len(families)-1].Name != name {
			families = append(families, Family{Name: name, GrainIDs: []int{}})
		}
		if grainID.Valid {
			last := &families[len(families)-1]
			last.GrainIDs = append(last.GrainIDs, int(grainID.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing families of run %s: %w", runID, err)
	}
	return families, nil
}

func scanInts(rows *sql.Rows) ([]int, error) {
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
