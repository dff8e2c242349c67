// Package history records coverage report runs in a local SQLite database
// so trends can be inspected or published later.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/covmark/covmark/pkg/summary"
)

// Run is one recorded report-generation run.
type Run struct {
	ID         int64
	Label      string
	RecordedAt time.Time
	Statements summary.Stat
	Branches   summary.Stat
	Functions  summary.Stat
	Lines      summary.Stat
}

// FileRecord is the per-file detail stored alongside a run.
type FileRecord struct {
	RunID      int64
	Path       string
	Statements summary.Stat
	Branches   summary.Stat
	Functions  summary.Stat
	Lines      summary.Stat
	Uncovered  []string
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing history database without write access.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			stmts_total INTEGER NOT NULL, stmts_covered INTEGER NOT NULL, stmts_skipped INTEGER NOT NULL, stmts_pct REAL NOT NULL,
			branches_total INTEGER NOT NULL, branches_covered INTEGER NOT NULL, branches_skipped INTEGER NOT NULL, branches_pct REAL NOT NULL,
			funcs_total INTEGER NOT NULL, funcs_covered INTEGER NOT NULL, funcs_skipped INTEGER NOT NULL, funcs_pct REAL NOT NULL,
			lines_total INTEGER NOT NULL, lines_covered INTEGER NOT NULL, lines_skipped INTEGER NOT NULL, lines_pct REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			stmts_total INTEGER NOT NULL, stmts_covered INTEGER NOT NULL, stmts_skipped INTEGER NOT NULL, stmts_pct REAL NOT NULL,
			branches_total INTEGER NOT NULL, branches_covered INTEGER NOT NULL, branches_skipped INTEGER NOT NULL, branches_pct REAL NOT NULL,
			funcs_total INTEGER NOT NULL, funcs_covered INTEGER NOT NULL, funcs_skipped INTEGER NOT NULL, funcs_pct REAL NOT NULL,
			lines_total INTEGER NOT NULL, lines_covered INTEGER NOT NULL, lines_skipped INTEGER NOT NULL, lines_pct REAL NOT NULL,
			uncovered TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// RecordRun stores the run total and every file entry of the summary,
// returning the new run id. The whole run is written in one transaction.
func (s *Store) RecordRun(label string, sum *summary.ProjectSummary, total *summary.FileSummary) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if total == nil {
		total = &summary.FileSummary{}
	}
	res, err := tx.Exec(`INSERT INTO runs (
			label, recorded_at,
			stmts_total, stmts_covered, stmts_skipped, stmts_pct,
			branches_total, branches_covered, branches_skipped, branches_pct,
			funcs_total, funcs_covered, funcs_skipped, funcs_pct,
			lines_total, lines_covered, lines_skipped, lines_pct
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		label, time.Now().UTC().Format(time.RFC3339),
		total.Statements.Total, total.Statements.Covered, total.Statements.Skipped, total.Statements.Pct,
		total.Branches.Total, total.Branches.Covered, total.Branches.Skipped, total.Branches.Pct,
		total.Functions.Total, total.Functions.Covered, total.Functions.Skipped, total.Functions.Pct,
		total.Lines.Total, total.Lines.Covered, total.Lines.Skipped, total.Lines.Pct,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_files (
			run_id, path,
			stmts_total, stmts_covered, stmts_skipped, stmts_pct,
			branches_total, branches_covered, branches_skipped, branches_pct,
			funcs_total, funcs_covered, funcs_skipped, funcs_pct,
			lines_total, lines_covered, lines_skipped, lines_pct,
			uncovered
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, path := range sum.Paths() {
		fs, _ := sum.Get(path)
		if _, err := stmt.Exec(
			runID, path,
			fs.Statements.Total, fs.Statements.Covered, fs.Statements.Skipped, fs.Statements.Pct,
			fs.Branches.Total, fs.Branches.Covered, fs.Branches.Skipped, fs.Branches.Pct,
			fs.Functions.Total, fs.Functions.Covered, fs.Functions.Skipped, fs.Functions.Pct,
			fs.Lines.Total, fs.Lines.Covered, fs.Lines.Skipped, fs.Lines.Pct,
			strings.Join(fs.Uncovered, ","),
		); err != nil {
			return 0, fmt.Errorf("insert file %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// Runs returns recorded runs, newest first. A non-positive limit returns
// everything.
func (s *Store) Runs(limit int) ([]Run, error) {
	query := `SELECT id, label, recorded_at,
			stmts_total, stmts_covered, stmts_skipped, stmts_pct,
			branches_total, branches_covered, branches_skipped, branches_pct,
			funcs_total, funcs_covered, funcs_skipped, funcs_pct,
			lines_total, lines_covered, lines_skipped, lines_pct
		FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var recordedAt string
		if err := rows.Scan(
			&r.ID, &r.Label, &recordedAt,
			&r.Statements.Total, &r.Statements.Covered, &r.Statements.Skipped, &r.Statements.Pct,
			&r.Branches.Total, &r.Branches.Covered, &r.Branches.Skipped, &r.Branches.Pct,
			&r.Functions.Total, &r.Functions.Covered, &r.Functions.Skipped, &r.Functions.Pct,
			&r.Lines.Total, &r.Lines.Covered, &r.Lines.Skipped, &r.Lines.Pct,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Files returns the per-file records of one run in stored order.
func (s *Store) Files(runID int64) ([]FileRecord, error) {
	rows, err := s.db.Query(`SELECT run_id, path,
			stmts_total, stmts_covered, stmts_skipped, stmts_pct,
			branches_total, branches_covered, branches_skipped, branches_pct,
			funcs_total, funcs_covered, funcs_skipped, funcs_pct,
			lines_total, lines_covered, lines_skipped, lines_pct,
			uncovered
		FROM run_files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		var uncovered string
		if err := rows.Scan(
			&f.RunID, &f.Path,
			&f.Statements.Total, &f.Statements.Covered, &f.Statements.Skipped, &f.Statements.Pct,
			&f.Branches.Total, &f.Branches.Covered, &f.Branches.Skipped, &f.Branches.Pct,
			&f.Functions.Total, &f.Functions.Covered, &f.Functions.Skipped, &f.Functions.Pct,
			&f.Lines.Total, &f.Lines.Covered, &f.Lines.Skipped, &f.Lines.Pct,
			&uncovered,
		); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		if uncovered != "" {
			f.Uncovered = strings.Split(uncovered, ",")
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
