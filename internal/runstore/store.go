// Package runstore records training runs and their predictions in SQLite.
package runstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

// fixed width so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Prediction is the label assigned to one passenger of a run.
type Prediction struct {
	PassengerID int
	Label       int
	Proba       float64
}

// Run is one training run.
type Run struct {
	ID             string
	CreatedAt      time.Time
	TrainPath      string
	ValidationPath string
	MaxDepth       int
	Features       []string
	TrainSamples   int
	Depth          int
	Leaves         int
	Nodes          int
	Tree           string // rendered text form

	// Accuracy is nil when the validation set had no labels.
	Accuracy *float64

	Predictions []Prediction
}

// Store is a SQLite-backed run log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if path != Memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "failed to create directory %s", dir)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if path == Memory {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to run %q", pragma)
		}
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts r and its predictions in one transaction. An empty ID is
// replaced with a new UUID and a zero CreatedAt with the current time; the
// stored values are written back to r.
func (s *Store) SaveRun(ctx context.Context, r *Run) (err error) {
	if r == nil {
		return errors.NewValidationError("run", "must not be nil", nil)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var accuracy interface{}
	if r.Accuracy != nil {
		accuracy = *r.Accuracy
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, created_at, train_path, validation_path, max_depth, features,
		 train_samples, depth, leaves, nodes, tree, accuracy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(timeLayout), r.TrainPath, r.ValidationPath,
		r.MaxDepth, strings.Join(r.Features, ","), r.TrainSamples,
		r.Depth, r.Leaves, r.Nodes, r.Tree, accuracy)
	if err != nil {
		return errors.Wrapf(err, "failed to insert run %s", r.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO predictions (run_id, seq, passenger_id, label, proba) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare prediction insert")
	}
	defer stmt.Close()
	for i, p := range r.Predictions {
		if _, err = stmt.ExecContext(ctx, r.ID, i, p.PassengerID, p.Label, p.Proba); err != nil {
			return errors.Wrapf(err, "failed to insert prediction for passenger %d", p.PassengerID)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit run")
	}
	return nil
}

const runColumns = `id, created_at, train_path, validation_path, max_depth, features,
	train_samples, depth, leaves, nodes, tree, accuracy`

// ListRuns returns every run, newest first, without predictions.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	return runs, nil
}

// GetRun returns the run with id including its predictions in stored order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.Wrapf(ErrRunNotFound, "run %s", id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT passenger_id, label, proba FROM predictions WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return Run{}, errors.Wrapf(err, "failed to load predictions of run %s", id)
	}
	defer rows.Close()
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.PassengerID, &p.Label, &p.Proba); err != nil {
			return Run{}, errors.Wrap(err, "failed to scan prediction")
		}
		r.Predictions = append(r.Predictions, p)
	}
	if err := rows.Err(); err != nil {
		return Run{}, errors.Wrapf(err, "failed to load predictions of run %s", id)
	}
	return r, nil
}

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r         Run
		createdAt string
		features  string
		accuracy  sql.NullFloat64
	)
	err := sc.Scan(&r.ID, &createdAt, &r.TrainPath, &r.ValidationPath, &r.MaxDepth,
		&features, &r.TrainSamples, &r.Depth, &r.Leaves, &r.Nodes, &r.Tree, &accuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, errors.Wrap(err, "failed to scan run")
	}
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Run{}, errors.Wrapf(err, "run %s has a bad timestamp", r.ID)
	}
	if features != "" {
		r.Features = strings.Split(features, ",")
	}
	if accuracy.Valid {
		v := accuracy.Float64
		r.Accuracy = &v
	}
	return r, nil
}
