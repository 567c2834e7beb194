package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunJob represents the jobs table for Bun ORM
type BunJob struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          string     `bun:"id,pk"` // ULID as string
	Type        string     `bun:"type,notnull"`
	Status      string     `bun:"status,default:'pending'"`
	Progress    int        `bun:"progress,default:0"`
	CurrentStep string     `bun:"current_step,default:''"`
	Message     string     `bun:"message,default:''"`
	Error       string     `bun:"error,nullzero"`
	Result      string     `bun:"result,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
}

// ToJob converts BunJob to Job
func (bj *BunJob) ToJob() (*Job, error) {
	parsedULID, err := ulid.Parse(bj.ID)
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:          parsedULID,
		Type:        JobType(bj.Type),
		Status:      JobStatus(bj.Status),
		Progress:    bj.Progress,
		CurrentStep: bj.CurrentStep,
		Message:     bj.Message,
		Error:       bj.Error,
		Result:      bj.Result,
		CreatedAt:   bj.CreatedAt,
		UpdatedAt:   bj.UpdatedAt,
		StartedAt:   bj.StartedAt,
		CompletedAt: bj.CompletedAt,
	}, nil
}

// FromJob converts Job to BunJob
func FromJob(job *Job) *BunJob {
	return &BunJob{
		ID:          job.ID.String(),
		Type:        string(job.Type),
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Message:     job.Message,
		Error:       job.Error,
		Result:      job.Result,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}

// BunPreference represents the preferences table for Bun ORM
type BunPreference struct {
	bun.BaseModel `bun:"table:preferences,alias:p"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull,default:''"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// BunRecentDocument represents the recent_documents table for Bun ORM.
// One row per path; reopening a path refreshes it.
type BunRecentDocument struct {
	bun.BaseModel `bun:"table:recent_documents,alias:rd"`

	Path      string    `bun:"path,pk"`
	Title     string    `bun:"title,notnull,default:''"`
	PageCount int       `bun:"page_count,notnull,default:0"`
	OpenedAt  time.Time `bun:"opened_at,notnull,default:current_timestamp"`
}

// ToRecentDocument converts BunRecentDocument to RecentDocument
func (br *BunRecentDocument) ToRecentDocument() RecentDocument {
	return RecentDocument{
		Path:      br.Path,
		Title:     br.Title,
		PageCount: br.PageCount,
		OpenedAt:  br.OpenedAt,
	}
}
