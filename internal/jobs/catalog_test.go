package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/jobs"
)

func validJob() jobs.NewJob {
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	secret := "gate code 4411"
	return jobs.NewJob{
		Title: "Garden cleanup", Description: "Rake and bag leaves",
		Pay: 25, PayType: "hourly", Category: "Gardening",
		StartTime: start, EndTime: start.Add(3 * time.Hour), TotalHours: 3,
		Location: "Shelbyville", PrivateDetails: &secret,
	}
}

func TestCreateJob(t *testing.T) {
	f := newFixture(t)
	job, err := f.catalog.CreateJob(context.Background(), employer, validJob())
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusOpen, job.Status)
	assert.Equal(t, employer, job.PostedByUserID)
	assert.Nil(t, job.DeletedAt)
}

func TestCreateJob_Validation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*jobs.NewJob)
		msg    string
	}{
		"missing title":    {func(j *jobs.NewJob) { j.Title = "" }, "Missing required job fields."},
		"missing location": {func(j *jobs.NewJob) { j.Location = "" }, "Missing required job fields."},
		"zero pay":         {func(j *jobs.NewJob) { j.Pay = 0 }, "Missing required job fields."},
		"negative pay":     {func(j *jobs.NewJob) { j.Pay = -5 }, "Pay must be a positive number."},
		"end before start": {func(j *jobs.NewJob) { j.EndTime = j.StartTime.Add(-time.Hour) }, "End time must be after start time."},
		"end equals start": {func(j *jobs.NewJob) { j.EndTime = j.StartTime }, "End time must be after start time."},
		"zero hours":       {func(j *jobs.NewJob) { j.TotalHours = 0 }, "Total hours must be a positive number."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			nj := validJob()
			tc.mutate(&nj)
			_, err := f.catalog.CreateJob(context.Background(), employer, nj)
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.EqualError(t, err, tc.msg)
		})
	}
}

func TestCreateJob_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.CreateJob(context.Background(), 0, validJob())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestListJobs_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := validJob()
	a.Title, a.Pay, a.Category = "Dog walking", 15, "Pets"
	b := validJob()
	b.Title, b.Pay, b.Location = "Lawn mowing", 30, "Springfield"
	c := validJob()
	c.Title, c.Pay = "Hedge trimming", 45

	var ids []int64
	for _, nj := range []jobs.NewJob{a, b, c} {
		j, err := f.catalog.CreateJob(ctx, employer, nj)
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}

	all, err := f.catalog.ListJobs(ctx, 0, jobs.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	minPay, maxPay := 20.0, 40.0
	mid, err := f.catalog.ListJobs(ctx, 0, jobs.Filter{MinPay: &minPay, MaxPay: &maxPay})
	require.NoError(t, err)
	require.Len(t, mid, 1)
	assert.Equal(t, ids[1], mid[0].ID)

	pets, err := f.catalog.ListJobs(ctx, 0, jobs.Filter{Category: "pet"})
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, ids[0], pets[0].ID)

	spring, err := f.catalog.ListJobs(ctx, 0, jobs.Filter{Location: "SPRING"})
	require.NoError(t, err)
	require.Len(t, spring, 1)

	kw, err := f.catalog.ListJobs(ctx, 0, jobs.Filter{Keywords: "bag leaves"})
	require.NoError(t, err)
	assert.Len(t, kw, 3, "keywords match description")
}

func TestListJobs_ViewerFlagsAndRedaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job, err := f.catalog.CreateJob(ctx, employer, validJob())
	require.NoError(t, err)
	_, err = f.engine.ExpressInterest(ctx, job.ID, worker)
	require.NoError(t, err)

	asWorker, err := f.catalog.ListJobs(ctx, worker, jobs.Filter{})
	require.NoError(t, err)
	require.Len(t, asWorker, 1)
	assert.True(t, asWorker[0].IsInterestedByCurrentUser)
	assert.Equal(t, int64(1), asWorker[0].InterestedCount)
	assert.False(t, asWorker[0].HasAnyAssignment)
	assert.Nil(t, asWorker[0].PrivateDetails)
	assert.Equal(t, "Erin", asWorker[0].PostedByName)

	asPoster, err := f.catalog.ListJobs(ctx, employer, jobs.Filter{})
	require.NoError(t, err)
	assert.False(t, asPoster[0].IsInterestedByCurrentUser)
	require.NotNil(t, asPoster[0].PrivateDetails)
}

func TestGetJob_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job, err := f.catalog.CreateJob(ctx, employer, validJob())
	require.NoError(t, err)
	_, err = f.engine.Assign(ctx, job.ID, employer, details(worker, "Back gate"))
	require.NoError(t, err)

	anon, err := f.catalog.GetJob(ctx, 0, job.ID)
	require.NoError(t, err)
	assert.Nil(t, anon.PrivateDetails)
	assert.Nil(t, anon.AssignedLocationForUser)
	assert.True(t, anon.HasAnyAssignment)

	poster, err := f.catalog.GetJob(ctx, employer, job.ID)
	require.NoError(t, err)
	require.NotNil(t, poster.PrivateDetails)
	assert.Equal(t, "gate code 4411", *poster.PrivateDetails)
	assert.Nil(t, poster.AssignedLocationForUser)

	assigned, err := f.catalog.GetJob(ctx, worker, job.ID)
	require.NoError(t, err)
	assert.Nil(t, assigned.PrivateDetails)
	require.NotNil(t, assigned.AssignedLocationForUser)
	assert.Equal(t, "Back gate", *assigned.AssignedLocationForUser)

	other, err := f.catalog.GetJob(ctx, stranger, job.ID)
	require.NoError(t, err)
	assert.Nil(t, other.AssignedLocationForUser)

	_, err = f.catalog.GetJob(ctx, 0, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInterestedUsers_PosterOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jobID := f.store.seedJob(employer, jobs.StatusOpen, "Paint fence")
	_, err := f.engine.ExpressInterest(ctx, jobID, worker)
	require.NoError(t, err)
	_, err = f.engine.ExpressInterest(ctx, jobID, worker2)
	require.NoError(t, err)
	_, err = f.engine.Assign(ctx, jobID, employer, details(worker, "x"))
	require.NoError(t, err)

	_, err = f.catalog.InterestedUsers(ctx, worker, jobID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	users, err := f.catalog.InterestedUsers(ctx, employer, jobID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, worker2, users[0].ID, "most recent interest first")
	assert.Nil(t, users[0].ApplicationStatus)
	require.NotNil(t, users[1].ApplicationStatus)
	assert.Equal(t, jobs.ApplicationAssigned, *users[1].ApplicationStatus)

	_, err = f.catalog.InterestedUsers(ctx, employer, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMyJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	posted := f.store.seedJob(worker, jobs.StatusOpen, "Walt's own job")
	other := f.store.seedJob(employer, jobs.StatusOpen, "Erin's job")
	_, err := f.engine.Assign(ctx, other, employer, details(worker, "Dock 3"))
	require.NoError(t, err)

	_, err = f.catalog.MyJobs(ctx, employer, worker)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	mine, err := f.catalog.MyJobs(ctx, worker, worker)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, other, mine[0].ID)
	assert.Equal(t, jobs.JobTypeAssignedToMe, mine[0].JobType)
	require.NotNil(t, mine[0].AssignedLocation)
	assert.Equal(t, "Dock 3", *mine[0].AssignedLocation)
	assert.Equal(t, posted, mine[1].ID)
	assert.Equal(t, jobs.JobTypePosted, mine[1].JobType)
}

func TestDeletedJobs_SelfOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.DeletedJobs(context.Background(), worker, employer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.catalog.DeletedJobs(context.Background(), 0, employer)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
