package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/posterior"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	_ "modernc.org/sqlite"
)

// SQLStore implements Store on a SQLite database
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// Open opens or creates the SQLite database at path, creating parent directories as
// needed
func Open(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create store directory, %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite, %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping sqlite, %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("unable to create schema, %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("unable to set schema version, %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("unable to read schema version, %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SaveEnsemble stores the dataset and every posterior draw under a new run and returns
// its id
func (s *SQLStore) SaveEnsemble(ctx context.Context, name string, ds *dataset.Dataset, ens *posterior.Ensemble) (int64, error) {
	if ens == nil || ens.Len() == 0 {
		return 0, ErrNoEnsemble
	}
	if ds == nil {
		return 0, ErrNoDataset
	}
	labels, err := json.Marshal(ens.Labels())
	if err != nil {
		return 0, err
	}
	dsJSON, err := json.Marshal(ds)
	if err != nil {
		return 0, fmt.Errorf("unable to encode dataset, %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to begin transaction, %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs(name, created_at, chains, iterations, labels, horizon, observations, dataset)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339Nano), ens.NumChains(), ens.NumIterations(),
		string(labels), ds.Horizon(), ds.Len(), string(dsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("unable to insert run, %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO draws(run_id, chain, iteration, vals) VALUES(?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i := 0; i < ens.Len(); i++ {
		draw, err := ens.Draw(i)
		if err != nil {
			return 0, err
		}
		vals, err := json.Marshal(draw)
		if err != nil {
			return 0, err
		}
		chain, iter := i/ens.NumIterations(), i%ens.NumIterations()
		if _, err := stmt.ExecContext(ctx, runID, chain, iter, string(vals)); err != nil {
			return 0, fmt.Errorf("unable to insert draw %d, %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("unable to commit run, %w", err)
	}
	return runID, nil
}

// LoadEnsemble rebuilds the posterior ensemble of a run
func (s *SQLStore) LoadEnsemble(ctx context.Context, runID int64) (*posterior.Ensemble, error) {
	run, err := s.run(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT chain, vals FROM draws WHERE run_id = ? ORDER BY chain, iteration", runID)
	if err != nil {
		return nil, fmt.Errorf("unable to query draws, %w", err)
	}
	defer rows.Close()

	dim := len(run.Labels)
	chains := make([]*mat.Dense, run.Chains)
	for c := range chains {
		chains[c] = mat.NewDense(run.Iterations, dim, nil)
	}
	counts := make([]int, run.Chains)
	for rows.Next() {
		var (
			chain int
			vals  string
		)
		if err := rows.Scan(&chain, &vals); err != nil {
			return nil, err
		}
		var draw []float64
		if err := json.Unmarshal([]byte(vals), &draw); err != nil {
			return nil, fmt.Errorf("unable to decode draw, %w", err)
		}
		if chain < 0 || chain >= run.Chains || counts[chain] >= run.Iterations || len(draw) != dim {
			return nil, fmt.Errorf("run %d has malformed draw in chain %d, %w", runID, chain, posterior.ErrChainDimMismatch)
		}
		chains[chain].SetRow(counts[chain], draw)
		counts[chain]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for c, n := range counts {
		if n != run.Iterations {
			return nil, fmt.Errorf("run %d chain %d has %d of %d draws, %w", runID, c, n, run.Iterations, posterior.ErrChainDimMismatch)
		}
	}
	return posterior.New(run.Labels, chains)
}

// LoadDataset returns the dataset a run was fit on
func (s *SQLStore) LoadDataset(ctx context.Context, runID int64) (*dataset.Dataset, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT dataset FROM runs WHERE id = ?", runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d, %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return dataset.ReadJSON(bytes.NewReader([]byte(raw)))
}

// SavePredictive stores predictive samples for a run replacing any earlier samples drawn
// with the same method
func (s *SQLStore) SavePredictive(ctx context.Context, runID int64, samples *predictive.Samples) error {
	if samples == nil || samples.NumDraws() == 0 {
		return ErrNoSamples
	}
	if _, err := s.run(ctx, runID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction, %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	method := string(samples.Method())
	if _, err := tx.ExecContext(ctx, "DELETE FROM predictive WHERE run_id = ? AND method = ?", runID, method); err != nil {
		return fmt.Errorf("unable to clear predictive samples, %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO predictive(run_id, method, horizon, draw, vals) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for d := 0; d < samples.NumDraws(); d++ {
		row, err := samples.Draw(d)
		if err != nil {
			return err
		}
		vals, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, method, samples.Horizon(), d, string(vals)); err != nil {
			return fmt.Errorf("unable to insert predictive draw %d, %w", d, err)
		}
	}
	return tx.Commit()
}

// LoadPredictive returns the predictive samples of a run drawn with method
func (s *SQLStore) LoadPredictive(ctx context.Context, runID int64, method predictive.Method) (*predictive.Samples, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT horizon, vals FROM predictive WHERE run_id = ? AND method = ? ORDER BY draw", runID, string(method))
	if err != nil {
		return nil, fmt.Errorf("unable to query predictive samples, %w", err)
	}
	defer rows.Close()

	var (
		horizon float64
		data    []float64
		cols    int
		nrows   int
	)
	for rows.Next() {
		var vals string
		if err := rows.Scan(&horizon, &vals); err != nil {
			return nil, err
		}
		var row []float64
		if err := json.Unmarshal([]byte(vals), &row); err != nil {
			return nil, fmt.Errorf("unable to decode predictive draw, %w", err)
		}
		if nrows == 0 {
			cols = len(row)
		}
		if len(row) != cols || cols == 0 {
			return nil, fmt.Errorf("run %d predictive draw %d has %d individuals, expected %d", runID, nrows, len(row), cols)
		}
		data = append(data, row...)
		nrows++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if nrows == 0 {
		return nil, fmt.Errorf("run %d method %s, %w", runID, method, ErrPredictiveNotFound)
	}
	return predictive.NewSamples(method, horizon, mat.NewDense(nrows, cols, data))
}

// ListRuns returns every stored run ordered by id
func (s *SQLStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, chains, iterations, labels, horizon, observations FROM runs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("unable to query runs, %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run with its draws and predictive samples
func (s *SQLStore) DeleteRun(ctx context.Context, runID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction, %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM predictive WHERE run_id = ?",
		"DELETE FROM draws WHERE run_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d, %w", runID, ErrRunNotFound)
	}
	return tx.Commit()
}

func (s *SQLStore) run(ctx context.Context, runID int64) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, chains, iterations, labels, horizon, observations FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d, %w", runID, ErrRunNotFound)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		createdAt string
		labels    string
	)
	if err := sc.Scan(&run.ID, &run.Name, &createdAt, &run.Chains, &run.Iterations, &labels, &run.Horizon, &run.Observations); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("unable to parse run creation time, %w", err)
	}
	run.CreatedAt = t
	if err := json.Unmarshal([]byte(labels), &run.Labels); err != nil {
		return Run{}, fmt.Errorf("unable to decode labels, %w", err)
	}
	return run, nil
}
