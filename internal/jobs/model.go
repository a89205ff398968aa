package jobs

import (
	"encoding/json"
	"time"

	"hirely/api-service/internal/apperr"
)

// ─── Stored rows ─────────────────────────────────────────────────────────────

// JobState is the slice of a job row the lifecycle rules look at.
type JobState struct {
	ID        int64
	PostedBy  int64
	Status    JobStatus
	DeletedAt *time.Time
}

// Deleted reports whether the job has been soft-deleted.
func (s JobState) Deleted() bool { return s.DeletedAt != nil }

// Job is the JSON shape of a job posting. Private fields are only populated
// for the poster.
type Job struct {
	ID               int64      `json:"id"`
	PostedByUserID   int64      `json:"posted_by_user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Pay              float64    `json:"pay"`
	PayType          string     `json:"pay_type"`
	Category         string     `json:"category"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	TotalHours       float64    `json:"total_hours"`
	Location         string     `json:"location"`
	Status           JobStatus  `json:"status"`
	PrivateDetails   *string    `json:"private_details,omitempty"`
	PrivateImageURLs []string   `json:"private_image_urls,omitempty"`
	DeletedAt        *time.Time `json:"deleted_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// redact drops the poster-only fields unless viewer posted the job.
func (j *Job) redact(viewer int64) {
	if viewer != 0 && viewer == j.PostedByUserID {
		return
	}
	j.PrivateDetails = nil
	j.PrivateImageURLs = nil
}

// Poster is the public contact card of the user who posted a job.
type Poster struct {
	PostedByName   string  `json:"posted_by_name"`
	PostedByAvatar *string `json:"posted_by_avatar"`
	PostedByEmail  string  `json:"posted_by_email"`
	PostedByPhone  *string `json:"posted_by_phone"`
}

// Listing is a job as it appears in listings.
type Listing struct {
	Job
	Poster
	InterestedCount           int64  `json:"interested_count"`
	IsInterestedByCurrentUser bool   `json:"is_interested_by_current_user"`
	HasAnyAssignment          bool   `json:"has_any_assignment"`
	JobType                   string `json:"job_type,omitempty"`

	// Set on my-jobs rows of type assigned_to_me.
	ApplicationStatus ApplicationStatus `json:"application_status,omitempty"`
	AssignedLocation  *string           `json:"assigned_location,omitempty"`
	AssignedDetails   *string           `json:"assigned_details,omitempty"`
	AssignedImageURLs []string          `json:"assigned_image_urls,omitempty"`
	AssignedAt        *time.Time        `json:"assigned_at,omitempty"`
}

// Listing job types.
const (
	JobTypePosted       = "posted"
	JobTypeAssignedToMe = "assigned_to_me"
	JobTypeDeleted      = "deleted"
)

// Detail is a single job as returned by GET /jobs/{id}.
type Detail struct {
	Listing
	AssignedLocationForUser  *string  `json:"assigned_location_for_user,omitempty"`
	AssignedDetailsForUser   *string  `json:"assigned_details_for_user,omitempty"`
	AssignedImageURLsForUser []string `json:"assigned_image_urls_for_user,omitempty"`
}

// Assignment is a job_applications row.
type Assignment struct {
	ID                int64             `json:"id"`
	JobID             int64             `json:"job_id"`
	ApplicantUserID   int64             `json:"applicant_user_id"`
	Status            ApplicationStatus `json:"status"`
	AssignedLocation  string            `json:"assigned_location"`
	AssignedDetails   string            `json:"assigned_details"`
	AssignedImageURLs []string          `json:"assigned_image_urls"`
	AssignedAt        *time.Time        `json:"assigned_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// InterestedUser is one row of GET /jobs/{id}/interested-users.
type InterestedUser struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	AvatarURL         *string            `json:"avatar_url"`
	Phone             *string            `json:"phone"`
	Location          string             `json:"location"`
	AverageRating     *float64           `json:"average_rating"`
	TotalRatingsCount int64              `json:"total_ratings_count"`
	TotalJobsWorked   int                `json:"total_jobs_worked"`
	TotalHoursWorked  float64            `json:"total_hours_worked"`
	ApplicationStatus *ApplicationStatus `json:"application_status"`
}

// ─── Inputs ──────────────────────────────────────────────────────────────────

// NewJob holds the fields of a job posting.
type NewJob struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description" validate:"required"`
	Pay              float64   `json:"pay" validate:"required,gt=0"`
	PayType          string    `json:"pay_type" validate:"required"`
	Category         string    `json:"category" validate:"required"`
	StartTime        time.Time `json:"startTime" validate:"required"`
	EndTime          time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	TotalHours       float64   `json:"totalHours" validate:"gt=0"`
	Location         string    `json:"location" validate:"required"`
	PrivateDetails   *string   `json:"private_details"`
	PrivateImageURLs []string  `json:"private_image_urls"`
}

// timeLayouts are accepted for startTime/endTime. The zoneless forms are what
// an HTML datetime-local input produces and are read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// UnmarshalJSON decodes a posting, accepting any of timeLayouts for the two
// time fields. Missing times stay zero and fail validation as required fields.
func (nj *NewJob) UnmarshalJSON(b []byte) error {
	type plain NewJob
	aux := struct {
		*plain
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}{plain: (*plain)(nj)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var err error
	if nj.StartTime, err = parseJobTime(aux.StartTime); err != nil {
		return err
	}
	nj.EndTime, err = parseJobTime(aux.EndTime)
	return err
}

func parseJobTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation("Start and end time must be valid dates.")
}

// AssignmentDetails is the logistics payload handed to an assigned worker.
type AssignmentDetails struct {
	WorkerID  int64    `json:"assigned_user_id" validate:"required,gt=0"`
	Location  string   `json:"assigned_location" validate:"required"`
	Details   string   `json:"assigned_details" validate:"required"`
	ImageURLs []string `json:"assigned_image_urls"`
}

// Filter narrows a job listing. Zero values are ignored.
type Filter struct {
	Category string
	Location string
	MinPay   *float64
	MaxPay   *float64
	Keywords string
}

// ─── Results ─────────────────────────────────────────────────────────────────

// InterestResult reports the interest state after express/withdraw.
type InterestResult struct {
	JobID           int64 `json:"jobId"`
	InterestedCount int64 `json:"interestedCount"`
	IsInterested    bool  `json:"isInterested"`
}

// StatusChange is the {id, status} pair returned by fill and undo.
type StatusChange struct {
	ID     int64     `json:"id"`
	Status JobStatus `json:"status"`
}

// AssignResult is the outcome of an assignment.
type AssignResult struct {
	Assignment Assignment `json:"assignment"`
	JobStatus  JobStatus  `json:"jobStatus"`
}

// UnassignResult is the outcome of removing an assignment.
type UnassignResult struct {
	JobID            int64     `json:"jobId"`
	UnassignedUserID int64     `json:"unassignedUserId"`
	JobStatus        JobStatus `json:"jobStatus"`
}

// Deletion is the {id, deleted_at} pair returned by a soft delete.
type Deletion struct {
	ID        int64     `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}
