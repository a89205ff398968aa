package jobs_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/events"
	"hirely/api-service/internal/jobs"
)

// memStore is an in-memory jobs.Store. Transactions hold the mutex and
// restore a snapshot when fn fails.
type memStore struct {
	mu sync.Mutex

	clock     time.Time
	nextID    int64
	users     map[int64]jobs.Poster
	jobs      map[int64]jobs.Job
	interests map[pair]int64 // value orders interests by creation
	apps      map[pair]jobs.Assignment

	// hideInterests makes InterestExists report false, to exercise the
	// unique-constraint path.
	hideInterests bool
	// failCascade makes CascadeJobDeleted fail.
	failCascade error
	txCount     int
}

type pair struct{ job, user int64 }

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		users:     make(map[int64]jobs.Poster),
		jobs:      make(map[int64]jobs.Job),
		interests: make(map[pair]int64),
		apps:      make(map[pair]jobs.Assignment),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	m.nextID++
	return m.clock
}

func (m *memStore) addUser(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = jobs.Poster{PostedByName: name, PostedByEmail: strings.ToLower(name) + "@hirely.test"}
}

// seedJob inserts a job posted by poster with the given status.
func (m *memStore) seedJob(poster int64, status jobs.JobStatus, title string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	id := m.nextID
	m.jobs[id] = jobs.Job{
		ID: id, PostedByUserID: poster, Title: title, Description: title + " description",
		Pay: 20, PayType: "hourly", Category: "general", Location: "Springfield",
		StartTime: now, EndTime: now.Add(4 * time.Hour), TotalHours: 4,
		Status: status, CreatedAt: now, UpdatedAt: now,
	}
	return id
}

func (m *memStore) job(id int64) jobs.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *memStore) assignment(jobID, userID int64) (jobs.Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[pair{jobID, userID}]
	return a, ok
}

func (m *memStore) countApps(jobID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.apps {
		if k.job == jobID {
			n++
		}
	}
	return n
}

func (m *memStore) setApplicationStatus(jobID, userID int64, s jobs.ApplicationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{jobID, userID}
	a := m.apps[k]
	a.JobID, a.ApplicantUserID, a.Status = jobID, userID, s
	m.apps[k] = a
}

func (m *memStore) setStatus(jobID int64, s jobs.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[jobID]
	j.Status = s
	m.jobs[jobID] = j
}

// ─── Transactions ────────────────────────────────────────────────────────────

type memTx struct{ m *memStore }

func (m *memStore) InTx(_ context.Context, fn func(tx jobs.LifecycleTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	jobsSnap := make(map[int64]jobs.Job, len(m.jobs))
	for k, v := range m.jobs {
		jobsSnap[k] = v
	}
	appsSnap := make(map[pair]jobs.Assignment, len(m.apps))
	for k, v := range m.apps {
		appsSnap[k] = v
	}

	if err := fn(memTx{m}); err != nil {
		m.jobs, m.apps = jobsSnap, appsSnap
		return err
	}
	return nil
}

func (t memTx) LockJob(_ context.Context, jobID int64) (jobs.JobState, error) {
	return t.m.state(jobID)
}

func (t memTx) SetJobStatus(_ context.Context, jobID int64, s jobs.JobStatus) error {
	j := t.m.jobs[jobID]
	j.Status = s
	t.m.jobs[jobID] = j
	return nil
}

func (t memTx) MarkDeleted(_ context.Context, jobID int64, at time.Time) error {
	j := t.m.jobs[jobID]
	if j.DeletedAt == nil {
		j.DeletedAt = &at
	}
	t.m.jobs[jobID] = j
	return nil
}

func (t memTx) CascadeJobDeleted(_ context.Context, jobID int64) (int64, error) {
	if t.m.failCascade != nil {
		return 0, t.m.failCascade
	}
	var n int64
	for k, a := range t.m.apps {
		if k.job == jobID && jobs.CascadesOnDelete(a.Status) {
			a.Status = jobs.ApplicationJobDeleted
			t.m.apps[k] = a
			n++
		}
	}
	return n, nil
}

func (t memTx) CountActiveAssignments(_ context.Context, jobID int64) (int, error) {
	return t.m.activeAssignments(jobID), nil
}

func (t memTx) UpsertAssignment(_ context.Context, jobID int64, d jobs.AssignmentDetails, at time.Time) (jobs.Assignment, error) {
	k := pair{jobID, d.WorkerID}
	a, ok := t.m.apps[k]
	if !ok {
		t.m.nextID++
		a = jobs.Assignment{ID: t.m.nextID, JobID: jobID, ApplicantUserID: d.WorkerID, CreatedAt: at}
	}
	a.Status = jobs.ApplicationAssigned
	a.AssignedLocation = d.Location
	a.AssignedDetails = d.Details
	a.AssignedImageURLs = d.ImageURLs
	a.AssignedAt = &at
	a.UpdatedAt = at
	t.m.apps[k] = a
	return a, nil
}

func (t memTx) DeleteAssignment(_ context.Context, jobID, workerID int64) (bool, error) {
	k := pair{jobID, workerID}
	a, ok := t.m.apps[k]
	if !ok || a.Status != jobs.ApplicationAssigned {
		return false, nil
	}
	delete(t.m.apps, k)
	return true, nil
}

func (m *memStore) state(jobID int64) (jobs.JobState, error) {
	j, ok := m.jobs[jobID]
	if !ok {
		return jobs.JobState{}, apperr.NotFound("Job not found.")
	}
	return jobs.JobState{ID: j.ID, PostedBy: j.PostedByUserID, Status: j.Status, DeletedAt: j.DeletedAt}, nil
}

func (m *memStore) activeAssignments(jobID int64) int {
	n := 0
	for k, a := range m.apps {
		if k.job == jobID && a.Status == jobs.ApplicationAssigned {
			n++
		}
	}
	return n
}

func (m *memStore) interestCount(jobID int64) int64 {
	var n int64
	for k := range m.interests {
		if k.job == jobID {
			n++
		}
	}
	return n
}

// ─── Lifecycle reads and interest ────────────────────────────────────────────

func (m *memStore) JobState(_ context.Context, jobID int64) (jobs.JobState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state(jobID)
}

func (m *memStore) InterestExists(_ context.Context, jobID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideInterests {
		return false, nil
	}
	_, ok := m.interests[pair{jobID, userID}]
	return ok, nil
}

func (m *memStore) InsertInterest(_ context.Context, jobID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{jobID, userID}
	if _, ok := m.interests[k]; ok {
		return apperr.Wrap(apperr.KindConflict, "User already expressed interest in this job.",
			errors.New("duplicate key value violates unique constraint"))
	}
	m.tick()
	m.interests[k] = m.nextID
	return nil
}

func (m *memStore) DeleteInterest(_ context.Context, jobID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{jobID, userID}
	if _, ok := m.interests[k]; !ok {
		return false, nil
	}
	delete(m.interests, k)
	return true, nil
}

func (m *memStore) CountInterests(_ context.Context, jobID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interestCount(jobID), nil
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

func (m *memStore) CreateJob(_ context.Context, posterID int64, nj jobs.NewJob) (jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[posterID]; !ok {
		return jobs.Job{}, apperr.NotFound("User not found.")
	}
	now := m.tick()
	j := jobs.Job{
		ID: m.nextID, PostedByUserID: posterID, Title: nj.Title, Description: nj.Description,
		Pay: nj.Pay, PayType: nj.PayType, Category: nj.Category,
		StartTime: nj.StartTime, EndTime: nj.EndTime, TotalHours: nj.TotalHours,
		Location: nj.Location, Status: jobs.StatusOpen,
		PrivateDetails: nj.PrivateDetails, PrivateImageURLs: nj.PrivateImageURLs,
		CreatedAt: now, UpdatedAt: now,
	}
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memStore) listing(j jobs.Job, viewerID int64) jobs.Listing {
	_, interested := m.interests[pair{j.ID, viewerID}]
	return jobs.Listing{
		Job:                       j,
		Poster:                    m.users[j.PostedByUserID],
		InterestedCount:           m.interestCount(j.ID),
		IsInterestedByCurrentUser: interested,
		HasAnyAssignment:          m.activeAssignments(j.ID) > 0,
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func newestFirst(out []jobs.Listing) {
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
}

func (m *memStore) ListJobs(_ context.Context, viewerID int64, f jobs.Filter) ([]jobs.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobs.Listing, 0)
	for _, j := range m.jobs {
		switch {
		case j.DeletedAt != nil:
			continue
		case f.Category != "" && !containsFold(j.Category, f.Category):
			continue
		case f.Location != "" && !containsFold(j.Location, f.Location):
			continue
		case f.MinPay != nil && j.Pay < *f.MinPay:
			continue
		case f.MaxPay != nil && j.Pay > *f.MaxPay:
			continue
		case f.Keywords != "" && !containsFold(j.Title, f.Keywords) && !containsFold(j.Description, f.Keywords):
			continue
		}
		out = append(out, m.listing(j, viewerID))
	}
	newestFirst(out)
	return out, nil
}

func (m *memStore) GetJob(_ context.Context, jobID, viewerID int64) (jobs.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.DeletedAt != nil {
		return jobs.Listing{}, apperr.NotFound("Job not found or deleted.")
	}
	return m.listing(j, viewerID), nil
}

func (m *memStore) ActiveAssignment(_ context.Context, jobID, userID int64) (*jobs.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[pair{jobID, userID}]
	if !ok || a.Status != jobs.ApplicationAssigned {
		return nil, nil
	}
	return &a, nil
}

func (m *memStore) InterestedUsers(_ context.Context, jobID int64) ([]jobs.InterestedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type row struct {
		seq int64
		u   jobs.InterestedUser
	}
	var rows []row
	for k, seq := range m.interests {
		if k.job != jobID {
			continue
		}
		p := m.users[k.user]
		u := jobs.InterestedUser{ID: k.user, Name: p.PostedByName, Email: p.PostedByEmail}
		if a, ok := m.apps[k]; ok {
			s := a.Status
			u.ApplicationStatus = &s
		}
		rows = append(rows, row{seq, u})
	}
	sort.Slice(rows, func(i, k int) bool { return rows[i].seq > rows[k].seq })
	out := make([]jobs.InterestedUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.u)
	}
	return out, nil
}

func (m *memStore) PostedJobs(_ context.Context, userID int64) ([]jobs.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobs.Listing, 0)
	for _, j := range m.jobs {
		if j.PostedByUserID == userID && j.DeletedAt == nil {
			out = append(out, m.listing(j, userID))
		}
	}
	newestFirst(out)
	return out, nil
}

func (m *memStore) AssignedJobs(_ context.Context, userID int64) ([]jobs.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobs.Listing, 0)
	for k, a := range m.apps {
		j := m.jobs[k.job]
		if k.user != userID || a.Status != jobs.ApplicationAssigned || j.DeletedAt != nil {
			continue
		}
		l := m.listing(j, userID)
		loc, details := a.AssignedLocation, a.AssignedDetails
		l.ApplicationStatus = a.Status
		l.AssignedLocation = &loc
		l.AssignedDetails = &details
		l.AssignedAt = a.AssignedAt
		out = append(out, l)
	}
	newestFirst(out)
	return out, nil
}

func (m *memStore) DeletedJobs(_ context.Context, userID int64) ([]jobs.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobs.Listing, 0)
	for _, j := range m.jobs {
		if j.PostedByUserID == userID && j.DeletedAt != nil {
			out = append(out, m.listing(j, userID))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].DeletedAt.After(*out[k].DeletedAt) })
	return out, nil
}

// ─── Audit ───────────────────────────────────────────────────────────────────

func (m *memStore) LiveJobAssignments(_ context.Context) ([]jobs.JobAssignments, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobs.JobAssignments, 0)
	for id, j := range m.jobs {
		if j.DeletedAt != nil {
			continue
		}
		out = append(out, jobs.JobAssignments{JobID: id, Status: j.Status, Active: m.activeAssignments(id)})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].JobID < out[k].JobID })
	return out, nil
}

var _ jobs.Store = (*memStore)(nil)

// ─── Events ──────────────────────────────────────────────────────────────────

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev.Type)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
