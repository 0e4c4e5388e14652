package ledger

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenAt(filepath.Join(t.TempDir(), "tvrel.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func TestRunLifecycle(t *testing.T) {
	r := openTestDB(t)

	runID, err := r.StartRun("1.2.3")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	runs, err := r.ListRuns("")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != StatusRunning {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	if err := r.FinishRun(runID, StatusOK); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	runs, _ = r.ListRuns("1.2.3")
	if len(runs) != 1 || runs[0].Status != StatusOK || !runs[0].FinishedAt.Valid {
		t.Fatalf("run not closed: %+v", runs)
	}

	if runs, _ := r.ListRuns("9.9.9"); len(runs) != 0 {
		t.Fatal("tag filter should exclude other runs")
	}
}

func TestTargetResultsAndArtifacts(t *testing.T) {
	r := openTestDB(t)
	runID, err := r.StartRun("1.2.3")
	if err != nil {
		t.Fatal(err)
	}

	if err := r.RecordTargetResult(runID, "x86_64-unknown-linux-gnu", StatusOK, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordTargetResult(runID, "aarch64-unknown-linux-gnu", StatusFailed, errors.New("strip tool not found")); err != nil {
		t.Fatal(err)
	}

	results, err := r.TargetResults(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Status != StatusFailed || !results[1].Error.Valid {
		t.Fatalf("failure not recorded: %+v", results[1])
	}

	if err := r.RecordArtifact(runID, "x86_64-unknown-linux-gnu",
		"tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz", "deadbeef", 12345, true); err != nil {
		t.Fatal(err)
	}
	arts, err := r.Artifacts(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(arts) != 1 || !arts[0].Uploaded || arts[0].SizeBytes != 12345 {
		t.Fatalf("unexpected artifacts: %+v", arts)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tvrel.db")
	db, err := OpenAt(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	// Reopening applies migrations again; must not error.
	db, err = OpenAt(path)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	_ = db.Close()
}
