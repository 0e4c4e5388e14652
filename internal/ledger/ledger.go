package ledger

import (
	"database/sql"
	"fmt"
)

// Run statuses recorded in the ledger.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusPartial = "partial"
)

// Run is one invocation of the release pipeline.
type Run struct {
	ID         int64
	Tag        string
	StartedAt  string
	FinishedAt sql.NullString
	Status     string
}

// TargetResult is the outcome of one target's packaging job within a run.
type TargetResult struct {
	ID         int64
	RunID      int64
	Triple     string
	Status     string
	Error      sql.NullString
	FinishedAt string
}

// Artifact is a produced archive or checksum file.
type Artifact struct {
	ID        int64
	RunID     int64
	Triple    string
	Name      string
	SHA256    string
	SizeBytes int64
	Uploaded  bool
}

// Repository provides ledger operations over an open database.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository using db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StartRun records a new pipeline invocation for tag and returns its ID.
func (r *Repository) StartRun(tag string) (int64, error) {
	res, err := r.db.Exec("INSERT INTO runs (tag, status) VALUES (?, ?)", tag, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun closes a run with its final status.
func (r *Repository) FinishRun(runID int64, status string) error {
	_, err := r.db.Exec("UPDATE runs SET status = ?, finished_at = datetime('now') WHERE id = ?", status, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordTargetResult stores one target's outcome. resultErr may be nil.
func (r *Repository) RecordTargetResult(runID int64, triple, status string, resultErr error) error {
	var msg sql.NullString
	if resultErr != nil {
		msg = sql.NullString{String: resultErr.Error(), Valid: true}
	}
	_, err := r.db.Exec("INSERT INTO target_results (run_id, triple, status, error) VALUES (?, ?, ?, ?)",
		runID, triple, status, msg)
	if err != nil {
		return fmt.Errorf("insert target result: %w", err)
	}
	return nil
}

// RecordArtifact stores a produced artifact and its digest.
func (r *Repository) RecordArtifact(runID int64, triple, name, sha256 string, size int64, uploaded bool) error {
	up := 0
	if uploaded {
		up = 1
	}
	_, err := r.db.Exec("INSERT INTO artifacts (run_id, triple, name, sha256, size_bytes, uploaded) VALUES (?, ?, ?, ?, ?, ?)",
		runID, triple, name, sha256, size, up)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// ListRuns returns runs newest-first, optionally filtered by tag.
func (r *Repository) ListRuns(tag string) ([]Run, error) {
	query := "SELECT id, tag, started_at, finished_at, status FROM runs ORDER BY id DESC"
	args := []interface{}{}
	if tag != "" {
		query = "SELECT id, tag, started_at, finished_at, status FROM runs WHERE tag = ? ORDER BY id DESC"
		args = append(args, tag)
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Tag, &run.StartedAt, &run.FinishedAt, &run.Status); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TargetResults returns the per-target outcomes for a run.
func (r *Repository) TargetResults(runID int64) ([]TargetResult, error) {
	rows, err := r.db.Query("SELECT id, run_id, triple, status, error, finished_at FROM target_results WHERE run_id = ? ORDER BY id",
		runID)
	if err != nil {
		return nil, fmt.Errorf("list target results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []TargetResult
	for rows.Next() {
		var tr TargetResult
		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Triple, &tr.Status, &tr.Error, &tr.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

// Artifacts returns the artifacts recorded for a run.
func (r *Repository) Artifacts(runID int64) ([]Artifact, error) {
	rows, err := r.db.Query("SELECT id, run_id, triple, name, sha256, size_bytes, uploaded FROM artifacts WHERE run_id = ? ORDER BY name",
		runID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		var up int
		if err := rows.Scan(&a.ID, &a.RunID, &a.Triple, &a.Name, &a.SHA256, &a.SizeBytes, &up); err != nil {
			return nil, err
		}
		a.Uploaded = up != 0
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
