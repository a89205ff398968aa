package jobs

import (
	"context"
	"time"
)

// LifecycleTx is the set of writes the engine issues while it holds the job
// row lock. Implementations run every call inside one transaction.
type LifecycleTx interface {
	// LockJob loads the job row with SELECT ... FOR UPDATE. It returns an
	// apperr NotFound when no row exists; deleted rows are returned as is.
	LockJob(ctx context.Context, jobID int64) (JobState, error)
	SetJobStatus(ctx context.Context, jobID int64, status JobStatus) error
	MarkDeleted(ctx context.Context, jobID int64, at time.Time) error
	// CascadeJobDeleted moves the job's cascading applications to
	// job_deleted and returns how many rows changed.
	CascadeJobDeleted(ctx context.Context, jobID int64) (int64, error)
	CountActiveAssignments(ctx context.Context, jobID int64) (int, error)
	UpsertAssignment(ctx context.Context, jobID int64, d AssignmentDetails, at time.Time) (Assignment, error)
	// DeleteAssignment removes the worker's assigned application and
	// reports whether one existed.
	DeleteAssignment(ctx context.Context, jobID, workerID int64) (bool, error)
}

// LifecycleStore persists the lifecycle engine's state.
type LifecycleStore interface {
	InTx(ctx context.Context, fn func(tx LifecycleTx) error) error

	// JobState reads the job row without locking it.
	JobState(ctx context.Context, jobID int64) (JobState, error)
	InterestExists(ctx context.Context, jobID, userID int64) (bool, error)
	// InsertInterest returns an apperr Conflict when the pair already exists.
	InsertInterest(ctx context.Context, jobID, userID int64) error
	DeleteInterest(ctx context.Context, jobID, userID int64) (bool, error)
	CountInterests(ctx context.Context, jobID int64) (int64, error)
}

// CatalogStore serves job postings and listings.
type CatalogStore interface {
	JobState(ctx context.Context, jobID int64) (JobState, error)
	CreateJob(ctx context.Context, posterID int64, j NewJob) (Job, error)
	ListJobs(ctx context.Context, viewerID int64, f Filter) ([]Listing, error)
	// GetJob returns the live job with poster card and counters. Deleted
	// jobs are reported as NotFound.
	GetJob(ctx context.Context, jobID, viewerID int64) (Listing, error)
	// ActiveAssignment returns the viewer's assigned application on the
	// job, or nil.
	ActiveAssignment(ctx context.Context, jobID, userID int64) (*Assignment, error)
	InterestedUsers(ctx context.Context, jobID int64) ([]InterestedUser, error)
	PostedJobs(ctx context.Context, userID int64) ([]Listing, error)
	AssignedJobs(ctx context.Context, userID int64) ([]Listing, error)
	DeletedJobs(ctx context.Context, userID int64) ([]Listing, error)
}

// AuditStore reads what the drift audit compares.
type AuditStore interface {
	// LiveJobAssignments returns every non-deleted job with its count of
	// active assignments.
	LiveJobAssignments(ctx context.Context) ([]JobAssignments, error)
}

// JobAssignments pairs a job's stored status with its active assignments.
type JobAssignments struct {
	JobID  int64
	Status JobStatus
	Active int
}

// Store is everything the jobs package needs from persistence.
type Store interface {
	LifecycleStore
	CatalogStore
	AuditStore
}
