// Package sqlite stores bundles and their evaluation reports in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/ulasan/pkg/ulasan/bundle"
	"github.com/cognicore/ulasan/pkg/ulasan/eval"
	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// Store implements bundle.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ bundle.Store = (*Store)(nil)

// RunInfo summarises one stored run.
type RunInfo struct {
	RunID     string
	CreatedAt time.Time
	Dimension int
	Accuracy  float64
	HasReport bool
}

// Open opens a SQLite database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS bundles (
	run_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	dimension INTEGER NOT NULL,
	vectorizer BLOB NOT NULL,
	classifier BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	run_id TEXT PRIMARY KEY,
	accuracy REAL NOT NULL,
	report_json TEXT NOT NULL,
	params_json TEXT,
	FOREIGN KEY(run_id) REFERENCES bundles(run_id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save inserts a bundle. Run ids are never overwritten.
func (s *Store) Save(ctx context.Context, b *bundle.Bundle) error {
	vec, clf, err := bundle.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO bundles (run_id, created_at, dimension, vectorizer, classifier)
VALUES (?, ?, ?, ?, ?)`,
		b.RunID,
		b.CreatedAt.UTC().Format(time.RFC3339Nano),
		b.Vectorizer.Dimension(),
		vec,
		clf,
	)
	if err != nil {
		return fmt.Errorf("save bundle %s: %w", b.RunID, err)
	}
	return nil
}

// Load returns the bundle for runID, or the newest one when runID is empty.
// Run ids are ULIDs, so lexical order is creation order.
func (s *Store) Load(ctx context.Context, runID string) (*bundle.Bundle, error) {
	var row *sql.Row
	if runID == "" {
		row = s.db.QueryRowContext(ctx,
			`SELECT run_id, vectorizer, classifier FROM bundles ORDER BY run_id DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT run_id, vectorizer, classifier FROM bundles WHERE run_id = ?`, runID)
	}

	var id string
	var vec, clf []byte
	err := row.Scan(&id, &vec, &clf)
	if errors.Is(err, sql.ErrNoRows) {
		if runID == "" {
			return nil, fmt.Errorf("%w: database holds no bundles", internalerr.ErrBundleLoad)
		}
		return nil, fmt.Errorf("%w: run %s not found", internalerr.ErrBundleLoad, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read run %q: %v", internalerr.ErrBundleLoad, runID, err)
	}

	b, err := bundle.Unmarshal(vec, clf)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	if b.RunID != id {
		return nil, fmt.Errorf("%w: row %s holds run %s", internalerr.ErrBundleLoad, id, b.RunID)
	}
	return b, nil
}

// SaveReport stores the evaluation report of a saved run along with the
// parameters that produced it.
func (s *Store) SaveReport(ctx context.Context, runID string, r eval.Report, params any) error {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	var paramsJSON sql.NullString
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		paramsJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO reports (run_id, accuracy, report_json, params_json)
VALUES (?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	accuracy=excluded.accuracy,
	report_json=excluded.report_json,
	params_json=excluded.params_json`,
		runID, r.Accuracy, string(reportJSON), paramsJSON,
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", runID, err)
	}
	return nil
}

// LoadReport returns the report stored for runID.
func (s *Store) LoadReport(ctx context.Context, runID string) (eval.Report, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM reports WHERE run_id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return eval.Report{}, false, nil
	}
	if err != nil {
		return eval.Report{}, false, err
	}

	var r eval.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return eval.Report{}, false, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return r, true, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT b.run_id, b.created_at, b.dimension, r.accuracy
FROM bundles b
LEFT JOIN reports r ON r.run_id = b.run_id
ORDER BY b.run_id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var created string
		var acc sql.NullFloat64
		if err := rows.Scan(&info.RunID, &created, &info.Dimension, &acc); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			info.CreatedAt = t
		}
		info.Accuracy = acc.Float64
		info.HasReport = acc.Valid
		out = append(out, info)
	}
	return out, rows.Err()
}
