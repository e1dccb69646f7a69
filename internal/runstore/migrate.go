package runstore

import (
	"database/sql"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id               TEXT PRIMARY KEY,
		created_at       TEXT NOT NULL,
		train_path       TEXT NOT NULL DEFAULT '',
		validation_path  TEXT NOT NULL DEFAULT '',
		max_depth        INTEGER NOT NULL,
		features         TEXT NOT NULL,
		train_samples    INTEGER NOT NULL,
		depth            INTEGER NOT NULL,
		leaves           INTEGER NOT NULL,
		nodes            INTEGER NOT NULL,
		tree             TEXT NOT NULL DEFAULT '',
		accuracy         REAL
	)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		passenger_id  INTEGER NOT NULL,
		label         INTEGER NOT NULL CHECK(label IN (0, 1)),
		proba         REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
}

// migrate applies every statement in order. Statements are idempotent.
func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "migration %d", i)
		}
	}
	return nil
}
