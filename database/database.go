package database

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Preference keys.
const (
	PrefLastOpenDirectory = "lastOpenDirectory"
	PrefLastSaveFolder    = "lastSaveFolder"
)

// RecentDocument is a source that was successfully opened.
type RecentDocument struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	PageCount int       `json:"pageCount"`
	OpenedAt  time.Time `json:"openedAt"`
}

// Repository defines database operations
type Repository interface {
	Close() error
	// Preferences
	GetPreference(key string) (string, error)
	SetPreference(key, value string) error
	GetPreferences() (map[string]string, error)
	// Recent documents
	AddRecentDocument(doc RecentDocument) error
	GetRecentDocuments(limit int) ([]RecentDocument, error)
	// Job tracking methods
	CreateJob(jobType JobType, message string) (*Job, error)
	UpdateJobProgress(jobID ulid.ULID, progress int, currentStep string) error
	UpdateJobStatus(jobID ulid.ULID, status JobStatus, message string) error
	UpdateJobError(jobID ulid.ULID, errorMsg string) error
	CompleteJob(jobID ulid.ULID, result string) error
	GetJob(jobID ulid.ULID) (*Job, error)
	GetRecentJobs(limit, offset int) ([]Job, error)
	GetActiveJobs() ([]Job, error)
	DeleteOldJobs(olderThan time.Duration) (int, error)
}

// CalculateUUID returns a ULID for the given time
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
