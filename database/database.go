package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"imagevariants/logging"
	"imagevariants/types"

	_ "github.com/mattn/go-sqlite3"
)

// Run status values stored in the runs table
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// InitDatabase opens the manifest database and creates its schema
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		codec TEXT,
		source_dir TEXT,
		sources INTEGER DEFAULT 0,
		derivatives INTEGER DEFAULT 0,
		status TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS derivatives (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		source_path TEXT NOT NULL,
		path TEXT NOT NULL,
		size_name TEXT NOT NULL,
		format TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		bytes INTEGER,
		created_at TEXT,
		UNIQUE(run_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_derivatives_source ON derivatives(source_path);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create manifest schema in %s: %w", dbPath, err)
	}

	return db, nil
}

// BeginRun inserts a new run row and returns its id
func BeginRun(db *sql.DB, codec, sourceDir string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO runs (started_at, codec, source_dir, status) VALUES (?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), codec, sourceDir, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("cannot start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cannot start run: %w", err)
	}
	logging.DebugLog("Manifest run %d started", id)
	return id, nil
}

// StoreDerivative records one generated file. A file written twice in the
// same run (output collision) keeps the last writer.
func StoreDerivative(db *sql.DB, runID int64, info types.DerivativeInfo) error {
	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO derivatives (
			run_id, source_path, path, size_name, format, width, height, bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", info.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		runID,
		info.SourcePath,
		info.Path,
		info.Size,
		info.Format,
		info.Width,
		info.Height,
		info.Bytes,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %w", info.Path, err)
	}
	return nil
}

// FinishRun stamps the end time, totals and final status of a run
func FinishRun(db *sql.DB, runID int64, sources, derivatives int, status string) error {
	_, err := db.Exec(
		`UPDATE runs SET finished_at = ?, sources = ?, derivatives = ?, status = ? WHERE id = ?`,
		time.Now().Format(time.RFC3339), sources, derivatives, status, runID,
	)
	if err != nil {
		return fmt.Errorf("cannot finish run %d: %w", runID, err)
	}
	return nil
}

// RunStats contains statistics for one run
type RunStats struct {
	Status       string
	Sources      int
	Derivatives  int
	DistinctSrcs int
	TotalBytes   int64
}

// GetRunStats retrieves the recorded totals for a run
func GetRunStats(db *sql.DB, runID int64) (*RunStats, error) {
	var stats RunStats

	err := db.QueryRow(`SELECT status, sources, derivatives FROM runs WHERE id = ?`, runID).
		Scan(&stats.Status, &stats.Sources, &stats.Derivatives)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", runID, err)
	}

	err = db.QueryRow(
		`SELECT COUNT(DISTINCT source_path), COALESCE(SUM(bytes), 0) FROM derivatives WHERE run_id = ?`, runID,
	).Scan(&stats.DistinctSrcs, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to get derivative totals for run %d: %w", runID, err)
	}

	return &stats, nil
}

// QueryDerivatives lists the derivatives recorded for a run, ordered by path
func QueryDerivatives(db *sql.DB, runID int64) ([]types.DerivativeInfo, error) {
	rows, err := db.Query(`
		SELECT source_path, path, size_name, format, width, height, bytes
		FROM derivatives WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query derivatives for run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []types.DerivativeInfo
	for rows.Next() {
		var d types.DerivativeInfo
		if err := rows.Scan(&d.SourcePath, &d.Path, &d.Size, &d.Format, &d.Width, &d.Height, &d.Bytes); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Manifest binds a database to one run so the generator can record into it
type Manifest struct {
	db    *sql.DB
	runID int64
}

// OpenManifest initializes the database and begins a run
func OpenManifest(dbPath, codec, sourceDir string) (*Manifest, error) {
	db, err := InitDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	runID, err := BeginRun(db, codec, sourceDir)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Manifest{db: db, runID: runID}, nil
}

// RunID returns the id of the run being recorded
func (m *Manifest) RunID() int64 { return m.runID }

// DB exposes the underlying handle for queries
func (m *Manifest) DB() *sql.DB { return m.db }

// RecordDerivative stores one derivative under the current run
func (m *Manifest) RecordDerivative(info types.DerivativeInfo) error {
	return StoreDerivative(m.db, m.runID, info)
}

// Finish closes the run with its totals and status
func (m *Manifest) Finish(sources, derivatives int, status string) error {
	return FinishRun(m.db, m.runID, sources, derivatives, status)
}

// Close closes the database
func (m *Manifest) Close() error {
	return m.db.Close()
}
