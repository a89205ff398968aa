package jobs

import (
	"context"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"

	"hirely/api-service/internal/apperr"
)

// Catalog serves job postings and the read side of the marketplace.
type Catalog struct {
	store CatalogStore
}

// NewCatalog returns a Catalog backed by store.
func NewCatalog(store CatalogStore) *Catalog {
	return &Catalog{store: store}
}

// CreateJob posts a new job on behalf of posterID. New jobs are open.
func (c *Catalog) CreateJob(ctx context.Context, posterID int64, nj NewJob) (Job, error) {
	if posterID == 0 {
		return Job{}, apperr.Unauthenticated(msgAuthRequired)
	}
	if err := checkNewJob(nj); err != nil {
		return Job{}, err
	}
	return c.store.CreateJob(ctx, posterID, nj)
}

// checkNewJob maps the first failed constraint to its user-facing message.
func checkNewJob(nj NewJob) error {
	err := validate.Struct(nj)
	if err == nil {
		return nil
	}
	msg := "Missing required job fields."
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 && ves[0].Tag() != "required" {
		switch ves[0].Field() {
		case "Pay":
			msg = "Pay must be a positive number."
		case "EndTime":
			msg = "End time must be after start time."
		case "TotalHours":
			msg = "Total hours must be a positive number."
		}
	}
	return apperr.Wrap(apperr.KindValidation, msg, err)
}

// ListJobs returns live jobs matching f, newest first. viewerID may be 0.
func (c *Catalog) ListJobs(ctx context.Context, viewerID int64, f Filter) ([]Listing, error) {
	out, err := c.store.ListJobs(ctx, viewerID, f)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].redact(viewerID)
	}
	return out, nil
}

// GetJob returns one live job. Private fields are shown to the poster and
// assignment logistics to a worker holding an active assignment.
func (c *Catalog) GetJob(ctx context.Context, viewerID, jobID int64) (Detail, error) {
	l, err := c.store.GetJob(ctx, jobID, viewerID)
	if err != nil {
		return Detail{}, err
	}
	l.redact(viewerID)
	d := Detail{Listing: l}
	if viewerID == 0 {
		return d, nil
	}

	a, err := c.store.ActiveAssignment(ctx, jobID, viewerID)
	if err != nil {
		return Detail{}, err
	}
	if a != nil {
		loc, details := a.AssignedLocation, a.AssignedDetails
		d.AssignedLocationForUser = &loc
		d.AssignedDetailsForUser = &details
		d.AssignedImageURLsForUser = a.AssignedImageURLs
	}
	return d, nil
}

// InterestedUsers lists who expressed interest in the job. Poster only.
func (c *Catalog) InterestedUsers(ctx context.Context, callerID, jobID int64) ([]InterestedUser, error) {
	if callerID == 0 {
		return nil, apperr.Unauthenticated(msgAuthRequired)
	}
	st, err := c.store.JobState(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if st.Deleted() {
		return nil, apperr.NotFound(msgJobNotFound)
	}
	if st.PostedBy != callerID {
		return nil, apperr.Forbidden("Unauthorized: You can only view interested users for your own jobs.")
	}
	return c.store.InterestedUsers(ctx, jobID)
}

// MyJobs merges the jobs userID posted with the jobs assigned to them,
// newest first. Callers may only read their own.
func (c *Catalog) MyJobs(ctx context.Context, callerID, userID int64) ([]Listing, error) {
	if err := selfOnly(callerID, userID, "Unauthorized: You can only view your own jobs."); err != nil {
		return nil, err
	}
	posted, err := c.store.PostedJobs(ctx, userID)
	if err != nil {
		return nil, err
	}
	assigned, err := c.store.AssignedJobs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(posted)+len(assigned))
	for _, l := range posted {
		l.JobType = JobTypePosted
		out = append(out, l)
	}
	for _, l := range assigned {
		l.JobType = JobTypeAssignedToMe
		l.redact(userID)
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeletedJobs lists userID's soft-deleted postings, most recently deleted
// first. Callers may only read their own.
func (c *Catalog) DeletedJobs(ctx context.Context, callerID, userID int64) ([]Listing, error) {
	if err := selfOnly(callerID, userID, "Unauthorized: You can only view your own deleted jobs."); err != nil {
		return nil, err
	}
	out, err := c.store.DeletedJobs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].JobType = JobTypeDeleted
	}
	return out, nil
}

func selfOnly(callerID, userID int64, forbidden string) error {
	if callerID == 0 {
		return apperr.Unauthenticated(msgAuthRequired)
	}
	if callerID != userID {
		return apperr.Forbidden(forbidden)
	}
	return nil
}
