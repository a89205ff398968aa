package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/db"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	pgQueries
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, pgQueries: pgQueries{q: pool}}
}

// InTx runs fn in a transaction. fn's error rolls the transaction back.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx LifecycleTx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgQueries{q: tx})
	})
}

// pgQueries holds the SQL. It runs on the pool or inside a transaction.
type pgQueries struct {
	q querier
}

// ─── SQL fragments ───────────────────────────────────────────────────────────

// hasAnyAssignmentSQL is the single definition of has_any_assignment.
const hasAnyAssignmentSQL = `EXISTS(SELECT 1 FROM job_applications ja_any
	        WHERE ja_any.job_id = j.id AND ja_any.status = 'assigned')`

const jobColumns = `j.id, j.posted_by_user_id, j.title, j.description, j.pay::float8,
	j.pay_type, j.category, j.start_time, j.end_time, j.total_hours::float8,
	j.location, j.status, j.private_details, j.private_image_urls,
	j.deleted_at, j.created_at, j.updated_at`

const posterColumns = `u.name, u.avatar_url, u.email, u.phone`

// listingColumns expects $1 to be the viewer id (0 for anonymous).
const listingColumns = jobColumns + `, ` + posterColumns + `,
	(SELECT COUNT(*) FROM job_interests WHERE job_id = j.id),
	EXISTS(SELECT 1 FROM job_interests WHERE job_id = j.id AND user_id = $1),
	` + hasAnyAssignmentSQL

const assignmentColumns = `id, job_id, applicant_user_id, status,
	COALESCE(assigned_location, ''), COALESCE(assigned_details, ''),
	assigned_image_urls, assigned_at, created_at, updated_at`

func jobDest(j *Job) []any {
	return []any{
		&j.ID, &j.PostedByUserID, &j.Title, &j.Description, &j.Pay,
		&j.PayType, &j.Category, &j.StartTime, &j.EndTime, &j.TotalHours,
		&j.Location, &j.Status, &j.PrivateDetails, &j.PrivateImageURLs,
		&j.DeletedAt, &j.CreatedAt, &j.UpdatedAt,
	}
}

func listingDest(l *Listing) []any {
	return append(jobDest(&l.Job),
		&l.PostedByName, &l.PostedByAvatar, &l.PostedByEmail, &l.PostedByPhone,
		&l.InterestedCount, &l.IsInterestedByCurrentUser, &l.HasAnyAssignment,
	)
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.JobID, &a.ApplicantUserID, &a.Status,
		&a.AssignedLocation, &a.AssignedDetails,
		&a.AssignedImageURLs, &a.AssignedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

func (p *pgQueries) loadState(ctx context.Context, sql string, jobID int64) (JobState, error) {
	var st JobState
	err := p.q.QueryRow(ctx, sql, jobID).Scan(&st.ID, &st.PostedBy, &st.Status, &st.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobState{}, apperr.NotFound("Job not found.")
	}
	if err != nil {
		return JobState{}, fmt.Errorf("load job %d: %w", jobID, err)
	}
	return st, nil
}

func (p *pgQueries) JobState(ctx context.Context, jobID int64) (JobState, error) {
	return p.loadState(ctx,
		`SELECT id, posted_by_user_id, status, deleted_at FROM jobs WHERE id = $1`, jobID)
}

func (p *pgQueries) LockJob(ctx context.Context, jobID int64) (JobState, error) {
	return p.loadState(ctx,
		`SELECT id, posted_by_user_id, status, deleted_at FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
}

func (p *pgQueries) SetJobStatus(ctx context.Context, jobID int64, status JobStatus) error {
	_, err := p.q.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, jobID, status)
	if err != nil {
		return fmt.Errorf("set job %d status: %w", jobID, err)
	}
	return nil
}

func (p *pgQueries) MarkDeleted(ctx context.Context, jobID int64, at time.Time) error {
	_, err := p.q.Exec(ctx,
		`UPDATE jobs SET deleted_at = $2, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, jobID, at)
	if err != nil {
		return fmt.Errorf("soft delete job %d: %w", jobID, err)
	}
	return nil
}

func (p *pgQueries) CascadeJobDeleted(ctx context.Context, jobID int64) (int64, error) {
	tag, err := p.q.Exec(ctx,
		`UPDATE job_applications SET status = $2, updated_at = NOW()
		 WHERE job_id = $1 AND status = ANY($3)`,
		jobID, ApplicationJobDeleted, CascadeStatuses())
	if err != nil {
		return 0, fmt.Errorf("cascade job %d applications: %w", jobID, err)
	}
	return tag.RowsAffected(), nil
}

func (p *pgQueries) CountActiveAssignments(ctx context.Context, jobID int64) (int, error) {
	var n int
	err := p.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_applications WHERE job_id = $1 AND status = 'assigned'`,
		jobID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assignments for job %d: %w", jobID, err)
	}
	return n, nil
}

func (p *pgQueries) UpsertAssignment(ctx context.Context, jobID int64, d AssignmentDetails, at time.Time) (Assignment, error) {
	a, err := scanAssignment(p.q.QueryRow(ctx,
		`INSERT INTO job_applications
		   (job_id, applicant_user_id, status, assigned_location, assigned_details, assigned_image_urls, assigned_at)
		 VALUES ($1, $2, 'assigned', $3, $4, $5, $6)
		 ON CONFLICT (job_id, applicant_user_id) DO UPDATE
		 SET status              = EXCLUDED.status,
		     assigned_location   = EXCLUDED.assigned_location,
		     assigned_details    = EXCLUDED.assigned_details,
		     assigned_image_urls = EXCLUDED.assigned_image_urls,
		     assigned_at         = EXCLUDED.assigned_at,
		     updated_at          = NOW()
		 RETURNING `+assignmentColumns,
		jobID, d.WorkerID, d.Location, d.Details, d.ImageURLs, at,
	))
	if db.IsForeignKeyViolation(err) {
		return Assignment{}, apperr.Wrap(apperr.KindNotFound, "User not found.", err)
	}
	if err != nil {
		return Assignment{}, fmt.Errorf("upsert assignment job %d worker %d: %w", jobID, d.WorkerID, err)
	}
	return a, nil
}

func (p *pgQueries) DeleteAssignment(ctx context.Context, jobID, workerID int64) (bool, error) {
	tag, err := p.q.Exec(ctx,
		`DELETE FROM job_applications
		 WHERE job_id = $1 AND applicant_user_id = $2 AND status = 'assigned'`,
		jobID, workerID)
	if err != nil {
		return false, fmt.Errorf("delete assignment job %d worker %d: %w", jobID, workerID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ─── Interest ────────────────────────────────────────────────────────────────

func (p *pgQueries) InterestExists(ctx context.Context, jobID, userID int64) (bool, error) {
	var ok bool
	err := p.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM job_interests WHERE job_id = $1 AND user_id = $2)`,
		jobID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("interest exists: %w", err)
	}
	return ok, nil
}

func (p *pgQueries) InsertInterest(ctx context.Context, jobID, userID int64) error {
	_, err := p.q.Exec(ctx,
		`INSERT INTO job_interests (job_id, user_id) VALUES ($1, $2)`, jobID, userID)
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Wrap(apperr.KindConflict, msgAlreadyInterested, err)
	case db.IsForeignKeyViolation(err):
		return apperr.Wrap(apperr.KindNotFound, "Job not found.", err)
	case err != nil:
		return fmt.Errorf("insert interest: %w", err)
	}
	return nil
}

func (p *pgQueries) DeleteInterest(ctx context.Context, jobID, userID int64) (bool, error) {
	tag, err := p.q.Exec(ctx,
		`DELETE FROM job_interests WHERE job_id = $1 AND user_id = $2`, jobID, userID)
	if err != nil {
		return false, fmt.Errorf("delete interest: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *pgQueries) CountInterests(ctx context.Context, jobID int64) (int64, error) {
	var n int64
	err := p.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_interests WHERE job_id = $1`, jobID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count interests: %w", err)
	}
	return n, nil
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

func (p *pgQueries) CreateJob(ctx context.Context, posterID int64, nj NewJob) (Job, error) {
	var j Job
	err := p.q.QueryRow(ctx,
		`INSERT INTO jobs AS j
		   (title, description, pay, pay_type, category, start_time, end_time,
		    total_hours, location, posted_by_user_id, private_details, private_image_urls)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+jobColumns,
		nj.Title, nj.Description, nj.Pay, nj.PayType, nj.Category, nj.StartTime, nj.EndTime,
		nj.TotalHours, nj.Location, posterID, nj.PrivateDetails, nj.PrivateImageURLs,
	).Scan(jobDest(&j)...)
	if db.IsForeignKeyViolation(err) {
		return Job{}, apperr.Wrap(apperr.KindNotFound, "User not found.", err)
	}
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

func (p *pgQueries) queryListings(ctx context.Context, op, sql string, args ...any) ([]Listing, error) {
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	out := make([]Listing, 0)
	for rows.Next() {
		var l Listing
		if err := rows.Scan(listingDest(&l)...); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

func (p *pgQueries) ListJobs(ctx context.Context, viewerID int64, f Filter) ([]Listing, error) {
	var (
		sb   strings.Builder
		args = []any{viewerID}
	)
	sb.WriteString(`SELECT ` + listingColumns + `
		FROM jobs j
		JOIN users u ON u.id = j.posted_by_user_id
		WHERE j.deleted_at IS NULL`)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Category != "" {
		sb.WriteString(` AND j.category ILIKE ` + arg("%"+f.Category+"%"))
	}
	if f.Location != "" {
		sb.WriteString(` AND j.location ILIKE ` + arg("%"+f.Location+"%"))
	}
	if f.MinPay != nil {
		sb.WriteString(` AND j.pay >= ` + arg(*f.MinPay))
	}
	if f.MaxPay != nil {
		sb.WriteString(` AND j.pay <= ` + arg(*f.MaxPay))
	}
	if f.Keywords != "" {
		ph := arg("%" + f.Keywords + "%")
		sb.WriteString(` AND (j.title ILIKE ` + ph + ` OR j.description ILIKE ` + ph + `)`)
	}
	sb.WriteString(` ORDER BY j.created_at DESC, j.id DESC`)

	return p.queryListings(ctx, "listJobs", sb.String(), args...)
}

func (p *pgQueries) GetJob(ctx context.Context, jobID, viewerID int64) (Listing, error) {
	var l Listing
	err := p.q.QueryRow(ctx,
		`SELECT `+listingColumns+`
		 FROM jobs j
		 JOIN users u ON u.id = j.posted_by_user_id
		 WHERE j.id = $2 AND j.deleted_at IS NULL`,
		viewerID, jobID,
	).Scan(listingDest(&l)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, apperr.NotFound("Job not found or deleted.")
	}
	if err != nil {
		return Listing{}, fmt.Errorf("get job %d: %w", jobID, err)
	}
	return l, nil
}

func (p *pgQueries) ActiveAssignment(ctx context.Context, jobID, userID int64) (*Assignment, error) {
	a, err := scanAssignment(p.q.QueryRow(ctx,
		`SELECT `+assignmentColumns+`
		 FROM job_applications
		 WHERE job_id = $1 AND applicant_user_id = $2 AND status = 'assigned'`,
		jobID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active assignment: %w", err)
	}
	return &a, nil
}

func (p *pgQueries) InterestedUsers(ctx context.Context, jobID int64) ([]InterestedUser, error) {
	rows, err := p.q.Query(ctx,
		`SELECT u.id, u.name, u.email, u.avatar_url, u.phone, u.location,
		        (SELECT AVG(rating)::float8 FROM user_ratings WHERE rated_user_id = u.id),
		        (SELECT COUNT(*) FROM user_ratings WHERE rated_user_id = u.id),
		        u.total_jobs_worked, u.total_hours_worked::float8,
		        ja.status
		 FROM job_interests ji
		 JOIN users u ON u.id = ji.user_id
		 LEFT JOIN job_applications ja
		        ON ja.job_id = ji.job_id AND ja.applicant_user_id = ji.user_id
		 WHERE ji.job_id = $1
		 ORDER BY ji.created_at DESC, ji.id DESC`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("interestedUsers query: %w", err)
	}
	defer rows.Close()

	out := make([]InterestedUser, 0)
	for rows.Next() {
		var u InterestedUser
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.Phone, &u.Location,
			&u.AverageRating, &u.TotalRatingsCount,
			&u.TotalJobsWorked, &u.TotalHoursWorked,
			&u.ApplicationStatus,
		); err != nil {
			return nil, fmt.Errorf("interestedUsers scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (p *pgQueries) PostedJobs(ctx context.Context, userID int64) ([]Listing, error) {
	return p.queryListings(ctx, "postedJobs",
		`SELECT `+listingColumns+`
		 FROM jobs j
		 JOIN users u ON u.id = j.posted_by_user_id
		 WHERE j.posted_by_user_id = $1 AND j.deleted_at IS NULL
		 ORDER BY j.created_at DESC, j.id DESC`,
		userID)
}

func (p *pgQueries) AssignedJobs(ctx context.Context, userID int64) ([]Listing, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+listingColumns+`,
		        ja.status, ja.assigned_location, ja.assigned_details,
		        ja.assigned_image_urls, ja.assigned_at
		 FROM jobs j
		 JOIN job_applications ja ON ja.job_id = j.id
		 JOIN users u ON u.id = j.posted_by_user_id
		 WHERE ja.applicant_user_id = $1 AND ja.status = 'assigned' AND j.deleted_at IS NULL
		 ORDER BY j.created_at DESC, j.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("assignedJobs query: %w", err)
	}
	defer rows.Close()

	out := make([]Listing, 0)
	for rows.Next() {
		var l Listing
		dest := append(listingDest(&l),
			&l.ApplicationStatus, &l.AssignedLocation, &l.AssignedDetails,
			&l.AssignedImageURLs, &l.AssignedAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("assignedJobs scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *pgQueries) DeletedJobs(ctx context.Context, userID int64) ([]Listing, error) {
	return p.queryListings(ctx, "deletedJobs",
		`SELECT `+listingColumns+`
		 FROM jobs j
		 JOIN users u ON u.id = j.posted_by_user_id
		 WHERE j.posted_by_user_id = $1 AND j.deleted_at IS NOT NULL
		 ORDER BY j.deleted_at DESC, j.id DESC`,
		userID)
}

// ─── Audit ───────────────────────────────────────────────────────────────────

func (p *pgQueries) LiveJobAssignments(ctx context.Context) ([]JobAssignments, error) {
	rows, err := p.q.Query(ctx,
		`SELECT j.id, j.status,
		        (SELECT COUNT(*) FROM job_applications
		          WHERE job_id = j.id AND status = 'assigned')
		 FROM jobs j
		 WHERE j.deleted_at IS NULL
		 ORDER BY j.id`)
	if err != nil {
		return nil, fmt.Errorf("liveJobAssignments query: %w", err)
	}
	defer rows.Close()

	out := make([]JobAssignments, 0)
	for rows.Next() {
		var ja JobAssignments
		if err := rows.Scan(&ja.JobID, &ja.Status, &ja.Active); err != nil {
			return nil, fmt.Errorf("liveJobAssignments scan: %w", err)
		}
		out = append(out, ja)
	}
	return out, rows.Err()
}
