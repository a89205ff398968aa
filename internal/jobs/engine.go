package jobs

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/events"
	"hirely/api-service/internal/logging"
	"hirely/api-service/internal/metrics"
)

// User-facing messages shared by the engine and its stores.
const (
	msgAuthRequired       = "Authentication required to access this resource."
	msgJobNotFound        = "Job not found."
	msgAlreadyInterested  = "User already expressed interest in this job."
	msgInterestNotFound   = "Interest not found for this user and job."
	msgNotFilled          = "Job is not currently marked as filled."
	msgAlreadyFilled      = "Job is already filled and cannot be assigned."
	msgDeleteFilled       = "Cannot delete a job that is already marked as filled."
	msgAssignmentNotFound = "Assignment not found for this user and job, or job not in assigned status."
	msgAssignMissing      = "Missing required assignment details: jobId, assigned_user_id, location, details."
)

var validate = validator.New()

// ─── Engine ──────────────────────────────────────────────────────────────────

// Engine enforces the job lifecycle rules. It holds no state between calls;
// everything lives in the store. It has no dependency on net/http.
type Engine struct {
	store LifecycleStore
	pub   events.Publisher
	log   *logrus.Entry
	now   func() time.Time
}

// NewEngine returns an Engine. A nil publisher disables events.
func NewEngine(store LifecycleStore, pub events.Publisher, log logrus.FieldLogger) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Engine{
		store: store,
		pub:   pub,
		log:   logging.Component(log, "jobs.engine"),
		now:   time.Now,
	}
}

// ─── Interest ────────────────────────────────────────────────────────────────

// ExpressInterest records userID's interest in the job. Interest does not
// change the job's status and is accepted on filled jobs.
func (e *Engine) ExpressInterest(ctx context.Context, jobID, userID int64) (res InterestResult, err error) {
	defer e.observe("express_interest", &err)
	if userID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}
	if _, err = e.liveJob(ctx, jobID); err != nil {
		return res, err
	}

	// The unique constraint settles a race between this check and the
	// insert; InsertInterest reports it as the same Conflict.
	exists, err := e.store.InterestExists(ctx, jobID, userID)
	if err != nil {
		return res, err
	}
	if exists {
		return res, apperr.Conflict(msgAlreadyInterested)
	}
	if err = e.store.InsertInterest(ctx, jobID, userID); err != nil {
		return res, err
	}

	n, err := e.store.CountInterests(ctx, jobID)
	if err != nil {
		return res, err
	}
	e.publish(ctx, events.Event{Type: events.TypeInterestExpressed, JobID: jobID, ActorID: userID, UserID: userID})
	return InterestResult{JobID: jobID, InterestedCount: n, IsInterested: true}, nil
}

// WithdrawInterest removes userID's interest in the job.
func (e *Engine) WithdrawInterest(ctx context.Context, jobID, userID int64) (res InterestResult, err error) {
	defer e.observe("withdraw_interest", &err)
	if userID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}
	if _, err = e.liveJob(ctx, jobID); err != nil {
		return res, err
	}

	removed, err := e.store.DeleteInterest(ctx, jobID, userID)
	if err != nil {
		return res, err
	}
	if !removed {
		return res, apperr.NotFound(msgInterestNotFound)
	}

	n, err := e.store.CountInterests(ctx, jobID)
	if err != nil {
		return res, err
	}
	e.publish(ctx, events.Event{Type: events.TypeInterestWithdrawn, JobID: jobID, ActorID: userID, UserID: userID})
	return InterestResult{JobID: jobID, InterestedCount: n, IsInterested: false}, nil
}

// ─── Status ──────────────────────────────────────────────────────────────────

// MarkFilled sets the job to filled. Existing assignments are kept.
func (e *Engine) MarkFilled(ctx context.Context, jobID, callerID int64) (res StatusChange, err error) {
	defer e.observe("mark_filled", &err)
	if callerID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}

	err = e.store.InTx(ctx, func(tx LifecycleTx) error {
		if _, err := lockOwned(ctx, tx, jobID, callerID,
			"Unauthorized: You can only mark your own jobs as filled."); err != nil {
			return err
		}
		return tx.SetJobStatus(ctx, jobID, StatusFilled)
	})
	if err != nil {
		return res, err
	}

	e.publish(ctx, events.Event{Type: events.TypeJobFilled, JobID: jobID, ActorID: callerID, Status: string(StatusFilled)})
	return StatusChange{ID: jobID, Status: StatusFilled}, nil
}

// UndoMarkFilled reverts a filled job to the status its active assignments
// imply.
func (e *Engine) UndoMarkFilled(ctx context.Context, jobID, callerID int64) (res StatusChange, err error) {
	defer e.observe("undo_mark_filled", &err)
	if callerID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}

	var next JobStatus
	err = e.store.InTx(ctx, func(tx LifecycleTx) error {
		st, err := lockOwned(ctx, tx, jobID, callerID,
			"Unauthorized: You can only undo mark as filled for your own jobs.")
		if err != nil {
			return err
		}
		if st.Status != StatusFilled {
			return apperr.Validation(msgNotFilled)
		}
		n, err := tx.CountActiveAssignments(ctx, jobID)
		if err != nil {
			return err
		}
		// Clear filled first so the recompute sees an unfilled job.
		next = RecomputeStatus(StatusOpen, n)
		return tx.SetJobStatus(ctx, jobID, next)
	})
	if err != nil {
		return res, err
	}

	e.publish(ctx, events.Event{Type: events.TypeJobFilledUndone, JobID: jobID, ActorID: callerID, Status: string(next)})
	return StatusChange{ID: jobID, Status: next}, nil
}

// ─── Assignment ──────────────────────────────────────────────────────────────

// Assign allocates the job to a worker with the given logistics. Assigning
// the same worker again replaces the details on the existing record.
func (e *Engine) Assign(ctx context.Context, jobID, employerID int64, d AssignmentDetails) (res AssignResult, err error) {
	defer e.observe("assign", &err)
	if employerID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}
	if err = validate.Struct(d); err != nil {
		return res, apperr.Wrap(apperr.KindValidation, msgAssignMissing, err)
	}

	err = e.store.InTx(ctx, func(tx LifecycleTx) error {
		st, err := lockOwned(ctx, tx, jobID, employerID,
			"Unauthorized: You can only assign your own jobs.")
		if err != nil {
			return err
		}
		if !CanAssign(st.Status) {
			return apperr.Validation(msgAlreadyFilled)
		}
		a, err := tx.UpsertAssignment(ctx, jobID, d, e.now().UTC())
		if err != nil {
			return err
		}
		next, err := recompute(ctx, tx, st)
		if err != nil {
			return err
		}
		res = AssignResult{Assignment: a, JobStatus: next}
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}

	e.publish(ctx, events.Event{
		Type: events.TypeWorkerAssigned, JobID: jobID, ActorID: employerID,
		UserID: d.WorkerID, Status: string(res.JobStatus),
	})
	return res, nil
}

// Unassign removes a worker's active assignment. The poster may remove any
// worker; a worker may remove themselves.
func (e *Engine) Unassign(ctx context.Context, jobID, actingID, workerID int64) (res UnassignResult, err error) {
	defer e.observe("unassign", &err)
	if actingID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}

	err = e.store.InTx(ctx, func(tx LifecycleTx) error {
		st, err := lockLive(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if st.PostedBy != actingID && workerID != actingID {
			return apperr.Forbidden("Unauthorized: You can only unassign your own jobs or cancel your own assignment.")
		}
		removed, err := tx.DeleteAssignment(ctx, jobID, workerID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.NotFound(msgAssignmentNotFound)
		}
		next, err := recompute(ctx, tx, st)
		if err != nil {
			return err
		}
		res = UnassignResult{JobID: jobID, UnassignedUserID: workerID, JobStatus: next}
		return nil
	})
	if err != nil {
		return UnassignResult{}, err
	}

	e.publish(ctx, events.Event{
		Type: events.TypeWorkerUnassigned, JobID: jobID, ActorID: actingID,
		UserID: workerID, Status: string(res.JobStatus),
	})
	return res, nil
}

// ─── Deletion ────────────────────────────────────────────────────────────────

// SoftDelete stamps deleted_at and moves the job's open applications to
// job_deleted in the same transaction. There is no undelete.
func (e *Engine) SoftDelete(ctx context.Context, jobID, callerID int64) (res Deletion, err error) {
	defer e.observe("soft_delete", &err)
	if callerID == 0 {
		return res, apperr.Unauthenticated(msgAuthRequired)
	}

	at := e.now().UTC()
	var cascaded int64
	err = e.store.InTx(ctx, func(tx LifecycleTx) error {
		st, err := lockOwned(ctx, tx, jobID, callerID,
			"Unauthorized: You can only delete your own jobs.")
		if err != nil {
			return err
		}
		if !CanDelete(st.Status) {
			return apperr.Validation(msgDeleteFilled)
		}
		if err := tx.MarkDeleted(ctx, jobID, at); err != nil {
			return err
		}
		cascaded, err = tx.CascadeJobDeleted(ctx, jobID)
		return err
	})
	if err != nil {
		return res, err
	}

	e.log.WithFields(logrus.Fields{"job_id": jobID, "applications": cascaded}).Info("job soft-deleted")
	e.publish(ctx, events.Event{Type: events.TypeJobDeleted, JobID: jobID, ActorID: callerID})
	return Deletion{ID: jobID, DeletedAt: at}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// liveJob reads the job without a lock and hides deleted jobs.
func (e *Engine) liveJob(ctx context.Context, jobID int64) (JobState, error) {
	st, err := e.store.JobState(ctx, jobID)
	if err != nil {
		return JobState{}, err
	}
	if st.Deleted() {
		return JobState{}, apperr.NotFound(msgJobNotFound)
	}
	return st, nil
}

func lockLive(ctx context.Context, tx LifecycleTx, jobID int64) (JobState, error) {
	st, err := tx.LockJob(ctx, jobID)
	if err != nil {
		return JobState{}, err
	}
	if st.Deleted() {
		return JobState{}, apperr.NotFound(msgJobNotFound)
	}
	return st, nil
}

// lockOwned locks a live job and checks that callerID posted it.
func lockOwned(ctx context.Context, tx LifecycleTx, jobID, callerID int64, forbidden string) (JobState, error) {
	st, err := lockLive(ctx, tx, jobID)
	if err != nil {
		return JobState{}, err
	}
	if st.PostedBy != callerID {
		return JobState{}, apperr.Forbidden(forbidden)
	}
	return st, nil
}

// recompute derives the job's status from its active assignments and
// stores it when it changed.
func recompute(ctx context.Context, tx LifecycleTx, st JobState) (JobStatus, error) {
	n, err := tx.CountActiveAssignments(ctx, st.ID)
	if err != nil {
		return "", err
	}
	next := RecomputeStatus(st.Status, n)
	if next == st.Status {
		return next, nil
	}
	if err := tx.SetJobStatus(ctx, st.ID, next); err != nil {
		return "", err
	}
	return next, nil
}

func (e *Engine) observe(op string, errp *error) {
	result := "ok"
	if *errp != nil {
		result = apperr.KindOf(*errp).String()
	}
	metrics.RecordLifecycle(op, result)
}

// publish is best effort: the change is already committed.
func (e *Engine) publish(ctx context.Context, ev events.Event) {
	ev.Occurred = e.now().UTC()
	if err := e.pub.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx, e.log).WithError(err).
			WithFields(logrus.Fields{"event": ev.Type, "job_id": ev.JobID}).
			Warn("publish lifecycle event failed")
	}
}
