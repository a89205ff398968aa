// Package jobs implements the job lifecycle for the Hirely marketplace:
// interest bookkeeping, assignment and the status a job carries.
//
// Job status graph:
//
//	open ◄──► assigned        (derived from active assignments)
//	  │           │
//	  └─────┬─────┘
//	        ▼
//	      filled ──► open | assigned   (undo recomputes)
//
// Soft deletion is orthogonal to status: a deleted job keeps its status,
// leaves every listing and accepts no further transitions.
package jobs

import "fmt"

// JobStatus values mirror jobs.status in PostgreSQL.
type JobStatus string

const (
	StatusOpen     JobStatus = "open"
	StatusAssigned JobStatus = "assigned"
	StatusFilled   JobStatus = "filled"
)

// ApplicationStatus values mirror job_applications.status.
type ApplicationStatus string

const (
	ApplicationAssigned   ApplicationStatus = "assigned"
	ApplicationJobDeleted ApplicationStatus = "job_deleted"
	ApplicationInterested ApplicationStatus = "interested"
	ApplicationPending    ApplicationStatus = "pending"
)

// applicationStatuses lists every ApplicationStatus.
var applicationStatuses = []ApplicationStatus{
	ApplicationAssigned,
	ApplicationJobDeleted,
	ApplicationInterested,
	ApplicationPending,
}

// ParseStatus converts a raw string to a JobStatus, returning an error for
// unknown values.
func ParseStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusOpen, StatusAssigned, StatusFilled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Scan implements sql.Scanner so every status read from the database goes
// through ParseStatus.
func (s *JobStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan job status: unsupported type %T", src)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// RecomputeStatus is the only place a job's status is derived from its
// assignments. filled is sticky until explicitly undone; otherwise a job
// with at least one active assignment is assigned and any other job is open.
func RecomputeStatus(current JobStatus, activeAssignments int) JobStatus {
	if current == StatusFilled {
		return StatusFilled
	}
	if activeAssignments > 0 {
		return StatusAssigned
	}
	return StatusOpen
}

// CanAssign reports whether new workers may be assigned in status s.
func CanAssign(s JobStatus) bool { return s != StatusFilled }

// CanDelete reports whether a job in status s may be soft-deleted.
func CanDelete(s JobStatus) bool { return s != StatusFilled }

// CascadesOnDelete reports whether an application in status s is moved to
// job_deleted when its job is soft-deleted.
func CascadesOnDelete(s ApplicationStatus) bool {
	switch s {
	case ApplicationAssigned, ApplicationInterested, ApplicationPending:
		return true
	}
	return false
}

// CascadeStatuses returns the statuses CascadesOnDelete accepts.
func CascadeStatuses() []string {
	var out []string
	for _, s := range applicationStatuses {
		if CascadesOnDelete(s) {
			out = append(out, string(s))
		}
	}
	return out
}
