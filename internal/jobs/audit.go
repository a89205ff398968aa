package jobs

import (
	"context"
	"fmt"
)

// Drift is a live job whose stored status disagrees with RecomputeStatus.
type Drift struct {
	JobID    int64
	Stored   JobStatus
	Expected JobStatus
	Active   int
}

// Audit compares every live job's stored status with the status its active
// assignments imply. It only reports; nothing is written.
func Audit(ctx context.Context, store AuditStore) ([]Drift, error) {
	rows, err := store.LiveJobAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	var out []Drift
	for _, r := range rows {
		if want := RecomputeStatus(r.Status, r.Active); want != r.Status {
			out = append(out, Drift{JobID: r.JobID, Stored: r.Status, Expected: want, Active: r.Active})
		}
	}
	return out, nil
}
