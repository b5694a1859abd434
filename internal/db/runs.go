package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/srukf/internal/ukf"
)

// Trajectory kinds stored per run.
const (
	KindFiltered = "filtered"
	KindSmoothed = "smoothed"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// Run describes one filter run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Model     string
	NState    int
	NOutputs  int
	Adaptive  bool
	// Source names the measurement input, e.g. a CSV path or serial device.
	Source string
	// ConfigJSON is the tuning file the run used.
	ConfigJSON string
}

// TrajectoryPoint is one stored state: mean and row-major square root.
type TrajectoryPoint struct {
	Index   int
	Time    float64
	Mean    []float64
	SqrtCov []float64
}

// MeanVec returns the mean as a vector.
func (p TrajectoryPoint) MeanVec() *mat.VecDense {
	return mat.NewVecDense(len(p.Mean), append([]float64(nil), p.Mean...))
}

// SqrtCovTri returns the stored lower-triangular square root.
func (p TrajectoryPoint) SqrtCovTri() *mat.TriDense {
	n := len(p.Mean)
	return mat.NewTriDense(n, mat.Lower, append([]float64(nil), p.SqrtCov...))
}

func pointFrom(i int, t float64, x *mat.VecDense, s *mat.TriDense) TrajectoryPoint {
	n := x.Len()
	p := TrajectoryPoint{
		Index:   i,
		Time:    t,
		Mean:    make([]float64, 0, n),
		SqrtCov: make([]float64, n*n),
	}
	for r := 0; r < n; r++ {
		p.Mean = append(p.Mean, x.AtVec(r))
		for c := 0; c <= r; c++ {
			p.SqrtCov[r*n+c] = s.At(r, c)
		}
	}
	return p
}

// FilteredPoints flattens a filtered trajectory for storage.
func FilteredPoints(traj *ukf.Trajectory) []TrajectoryPoint {
	out := make([]TrajectoryPoint, traj.Len())
	for i, st := range traj.States {
		out[i] = pointFrom(i, traj.Times[i], st.X, st.S)
	}
	return out
}

// SmoothedPoints flattens a smoothed trajectory for storage.
func SmoothedPoints(sm *ukf.Smoothed) []TrajectoryPoint {
	out := make([]TrajectoryPoint, sm.Len())
	for i := range sm.X {
		out[i] = pointFrom(i, sm.Times[i], sm.X[i], sm.S[i])
	}
	return out
}

// CreateRun inserts run and returns its generated id.
func (db *DB) CreateRun(run Run) (string, error) {
	id := uuid.NewString()
	adaptive := 0
	if run.Adaptive {
		adaptive = 1
	}
	_, err := db.Exec(`
		INSERT INTO runs (run_id, model, n_state, n_outputs, adaptive, source, config_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, run.Model, run.NState, run.NOutputs, adaptive, run.Source, run.ConfigJSON)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// GetRun returns a single run.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT run_id, created_at, model, n_state, n_outputs, adaptive, COALESCE(source, ''), COALESCE(config_json, '')
		FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, created_at, model, n_state, n_outputs, adaptive, COALESCE(source, ''), COALESCE(config_json, '')
		FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its trajectories.
func (db *DB) DeleteRun(id string) error {
	res, err := db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var adaptive int
	if err := s.Scan(&r.ID, &r.CreatedAt, &r.Model, &r.NState, &r.NOutputs, &adaptive, &r.Source, &r.ConfigJSON); err != nil {
		return nil, err
	}
	r.Adaptive = adaptive != 0
	return &r, nil
}

// RecordTrajectory replaces the stored trajectory of the given kind for a run.
func (db *DB) RecordTrajectory(runID, kind string, points []TrajectoryPoint) error {
	if kind != KindFiltered && kind != KindSmoothed {
		return fmt.Errorf("unknown trajectory kind %q", kind)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trajectory_points WHERE run_id = ? AND kind = ?`, runID, kind); err != nil {
		return fmt.Errorf("clear trajectory: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO trajectory_points (run_id, kind, idx, t, mean_json, sqrt_cov_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		mean, err := json.Marshal(p.Mean)
		if err != nil {
			return fmt.Errorf("encode mean %d: %w", p.Index, err)
		}
		sqrtCov, err := json.Marshal(p.SqrtCov)
		if err != nil {
			return fmt.Errorf("encode sqrt cov %d: %w", p.Index, err)
		}
		if _, err := stmt.Exec(runID, kind, p.Index, p.Time, string(mean), string(sqrtCov)); err != nil {
			return fmt.Errorf("insert point %d: %w", p.Index, err)
		}
	}
	return tx.Commit()
}

// LoadTrajectory returns the stored points of a run in index order.
func (db *DB) LoadTrajectory(runID, kind string) ([]TrajectoryPoint, error) {
	rows, err := db.Query(`
		SELECT idx, t, mean_json, sqrt_cov_json FROM trajectory_points
		WHERE run_id = ? AND kind = ? ORDER BY idx`, runID, kind)
	if err != nil {
		return nil, fmt.Errorf("query trajectory: %w", err)
	}
	defer rows.Close()

	var out []TrajectoryPoint
	for rows.Next() {
		var p TrajectoryPoint
		var mean, sqrtCov string
		if err := rows.Scan(&p.Index, &p.Time, &mean, &sqrtCov); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(mean), &p.Mean); err != nil {
			return nil, fmt.Errorf("decode mean %d: %w", p.Index, err)
		}
		if err := json.Unmarshal([]byte(sqrtCov), &p.SqrtCov); err != nil {
			return nil, fmt.Errorf("decode sqrt cov %d: %w", p.Index, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
