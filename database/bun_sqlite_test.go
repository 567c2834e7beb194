package database

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/drummonds/gobrewer/config"
	"github.com/oklog/ulid/v2"
)

func newTestRepository(t *testing.T) *BunDB {
	t.Helper()
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	db, err := NewRepository(config.ViewerConfig{DatabaseType: "sqlite", DatabaseDbname: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open sqlite repository: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBunSQLitePreferences(t *testing.T) {
	db := newTestRepository(t)

	t.Run("Missing preference", func(t *testing.T) {
		if _, err := db.GetPreference(PrefLastOpenDirectory); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Set and overwrite", func(t *testing.T) {
		if err := db.SetPreference(PrefLastOpenDirectory, "/home/a"); err != nil {
			t.Fatalf("Failed to set preference: %v", err)
		}
		if err := db.SetPreference(PrefLastOpenDirectory, "/home/b"); err != nil {
			t.Fatalf("Failed to overwrite preference: %v", err)
		}
		got, err := db.GetPreference(PrefLastOpenDirectory)
		if err != nil {
			t.Fatalf("Failed to get preference: %v", err)
		}
		if got != "/home/b" {
			t.Errorf("Expected /home/b, got %q", got)
		}
	})

	t.Run("List", func(t *testing.T) {
		if err := db.SetPreference(PrefLastSaveFolder, "/tmp/out"); err != nil {
			t.Fatal(err)
		}
		prefs, err := db.GetPreferences()
		if err != nil {
			t.Fatalf("Failed to list preferences: %v", err)
		}
		if prefs[PrefLastOpenDirectory] != "/home/b" || prefs[PrefLastSaveFolder] != "/tmp/out" {
			t.Errorf("Unexpected preferences: %v", prefs)
		}
	})
}

func TestBunSQLiteRecentDocuments(t *testing.T) {
	db := newTestRepository(t)
	base := time.Now().Add(-time.Hour)

	docs := []RecentDocument{
		{Path: "/docs/a.pdf", Title: "A", PageCount: 1, OpenedAt: base},
		{Path: "/docs/b.md", Title: "B", PageCount: 2, OpenedAt: base.Add(time.Minute)},
		{Path: "/docs/a.pdf", Title: "A2", PageCount: 3, OpenedAt: base.Add(2 * time.Minute)},
	}
	for _, d := range docs {
		if err := db.AddRecentDocument(d); err != nil {
			t.Fatalf("Failed to add recent document: %v", err)
		}
	}

	recent, err := db.GetRecentDocuments(10)
	if err != nil {
		t.Fatalf("Failed to list recent documents: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent documents, got %d", len(recent))
	}
	if recent[0].Path != "/docs/a.pdf" || recent[0].Title != "A2" || recent[0].PageCount != 3 {
		t.Errorf("Reopened document not refreshed: %+v", recent[0])
	}
	if recent[1].Path != "/docs/b.md" {
		t.Errorf("Unexpected second entry: %+v", recent[1])
	}

	limited, err := db.GetRecentDocuments(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}

func TestBunSQLiteJobs(t *testing.T) {
	db := newTestRepository(t)

	job, err := db.CreateJob(JobTypeLoad, "Opening /docs/a.pdf")
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	if job.Status != JobStatusPending {
		t.Errorf("Expected pending, got %s", job.Status)
	}

	t.Run("Lifecycle", func(t *testing.T) {
		if err := db.UpdateJobStatus(job.ID, JobStatusRunning, "Compiling"); err != nil {
			t.Fatal(err)
		}
		if err := db.UpdateJobProgress(job.ID, 50, "Warming up"); err != nil {
			t.Fatal(err)
		}
		active, err := db.GetActiveJobs()
		if err != nil {
			t.Fatal(err)
		}
		if len(active) != 1 || active[0].ID != job.ID {
			t.Errorf("Expected one active job, got %+v", active)
		}

		if err := db.CompleteJob(job.ID, `{"pages": 3}`); err != nil {
			t.Fatal(err)
		}
		got, err := db.GetJob(job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != JobStatusCompleted || got.Progress != 100 || !got.Finished() {
			t.Errorf("Unexpected completed job: %+v", got)
		}
		if got.StartedAt == nil || got.CompletedAt == nil {
			t.Error("Expected start and completion times")
		}
	})

	t.Run("Failure", func(t *testing.T) {
		failed, err := db.CreateJob(JobTypeLoad, "Opening /docs/broken.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if err := db.UpdateJobError(failed.ID, "not a PDF"); err != nil {
			t.Fatal(err)
		}
		got, err := db.GetJob(failed.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != JobStatusFailed || got.Error != "not a PDF" {
			t.Errorf("Unexpected failed job: %+v", got)
		}
	})

	t.Run("Recent and cleanup", func(t *testing.T) {
		jobs, err := db.GetRecentJobs(10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 2 {
			t.Fatalf("Expected 2 jobs, got %d", len(jobs))
		}
		deleted, err := db.DeleteOldJobs(-time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if deleted != 2 {
			t.Errorf("Expected 2 deleted jobs, got %d", deleted)
		}
	})

	t.Run("Unknown job", func(t *testing.T) {
		if _, err := db.GetJob(ulid.Make()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewRepositoryUnknownType(t *testing.T) {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	if _, err := NewRepository(config.ViewerConfig{DatabaseType: "oracle"}); err == nil {
		t.Error("Expected error for unknown database type")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestRepository(t)
	if err := db.runMigrations(t.Context()); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}
