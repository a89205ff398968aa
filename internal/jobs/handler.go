package jobs

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/httpx"
)

const (
	msgInvalidJobID  = "Invalid Job ID."
	msgInvalidUserID = "Invalid User ID."
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler adapts the Engine and Catalog to HTTP.
type Handler struct {
	engine  *Engine
	catalog *Catalog
}

// NewHandler returns a configured Handler.
func NewHandler(engine *Engine, catalog *Catalog) *Handler {
	return &Handler{engine: engine, catalog: catalog}
}

// RegisterRoutes mounts the job routes on r, which is expected to be the
// /api subrouter:
//
//	POST   /jobs                          → create a job posting
//	GET    /jobs                          → list live jobs (filters in query)
//	GET    /jobs/{id}                     → one job
//	POST   /jobs/{id}/interest            → express interest
//	DELETE /jobs/{id}/interest            → withdraw interest
//	GET    /jobs/{id}/interested-users    → interested users (poster)
//	PUT    /jobs/{id}/mark-filled         → mark filled (poster)
//	PUT    /jobs/{id}/undo-filled         → undo filled (poster)
//	POST   /jobs/{id}/assign              → assign a worker (poster)
//	DELETE /jobs/{id}/assign/{workerId}   → unassign (poster or the worker)
//	DELETE /jobs/{id}                     → soft delete (poster)
//	GET    /users/{id}/my-jobs            → posted and assigned jobs (self)
//	GET    /users/{id}/deleted-jobs       → soft-deleted postings (self)
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/jobs", auth.Require(h.createJob)).Methods(http.MethodPost)
	r.HandleFunc("/jobs", h.listJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", h.getJob).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", auth.Require(h.softDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/jobs/{id}/interest", auth.Require(h.expressInterest)).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}/interest", auth.Require(h.withdrawInterest)).Methods(http.MethodDelete)
	r.HandleFunc("/jobs/{id}/interested-users", auth.Require(h.interestedUsers)).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}/mark-filled", auth.Require(h.markFilled)).Methods(http.MethodPut)
	r.HandleFunc("/jobs/{id}/undo-filled", auth.Require(h.undoMarkFilled)).Methods(http.MethodPut)
	r.HandleFunc("/jobs/{id}/assign", auth.Require(h.assign)).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}/assign/{workerId}", auth.Require(h.unassign)).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id}/my-jobs", auth.Require(h.myJobs)).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/deleted-jobs", auth.Require(h.deletedJobs)).Methods(http.MethodGet)
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var req NewJob
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	job, err := h.catalog.CreateJob(r.Context(), auth.CallerID(r.Context()), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, map[string]any{"message": "Job posted successfully!", "job": job})
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Category: q.Get("category"),
		Location: q.Get("location"),
		MinPay:   parsePay(q.Get("minPay")),
		MaxPay:   parsePay(q.Get("maxPay")),
		Keywords: q.Get("keywords"),
	}
	out, err := h.catalog.ListJobs(r.Context(), auth.CallerID(r.Context()), f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

// parsePay ignores values that are not numbers.
func parsePay(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	job, err := h.catalog.GetJob(r.Context(), auth.CallerID(r.Context()), jobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, job)
}

func (h *Handler) interestedUsers(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.catalog.InterestedUsers(r.Context(), auth.CallerID(r.Context()), jobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) myJobs(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "id", msgInvalidUserID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.catalog.MyJobs(r.Context(), auth.CallerID(r.Context()), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) deletedJobs(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "id", msgInvalidUserID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.catalog.DeletedJobs(r.Context(), auth.CallerID(r.Context()), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

type interestResponse struct {
	Message string `json:"message"`
	InterestResult
	// Mirrors IsInterested under the name the job listing uses.
	IsInterestedByCurrentUser bool `json:"isInterestedByCurrentUser"`
}

func (h *Handler) expressInterest(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.ExpressInterest(r.Context(), jobID, auth.CallerID(r.Context()))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, interestResponse{Message: "Interest recorded successfully!", InterestResult: res, IsInterestedByCurrentUser: res.IsInterested})
}

func (h *Handler) withdrawInterest(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.WithdrawInterest(r.Context(), jobID, auth.CallerID(r.Context()))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, interestResponse{Message: "Interest removed successfully!", InterestResult: res, IsInterestedByCurrentUser: res.IsInterested})
}

func (h *Handler) markFilled(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.MarkFilled(r.Context(), jobID, auth.CallerID(r.Context()))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "Job marked as filled successfully!", "job": res})
}

func (h *Handler) undoMarkFilled(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.UndoMarkFilled(r.Context(), jobID, auth.CallerID(r.Context()))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{
		"message": fmt.Sprintf("Job status reverted to '%s' successfully!", res.Status),
		"job":     res,
	})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgAssignMissing)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req AssignmentDetails
	if err := httpx.Bind(r, &req, msgAssignMissing); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.Assign(r.Context(), jobID, auth.CallerID(r.Context()), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{
		"message":    "Job assigned successfully!",
		"assignment": res.Assignment,
		"jobStatus":  res.JobStatus,
	})
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	const msg = "Invalid Job ID or Assigned User ID."
	jobID, err := httpx.PathID(r, "id", msg)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	workerID, err := httpx.PathID(r, "workerId", msg)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.Unassign(r.Context(), jobID, auth.CallerID(r.Context()), workerID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{
		"message":          "Job unassigned successfully!",
		"jobId":            res.JobID,
		"unassignedUserId": res.UnassignedUserID,
		"jobStatus":        res.JobStatus,
	})
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	jobID, err := httpx.PathID(r, "id", msgInvalidJobID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.SoftDelete(r.Context(), jobID, auth.CallerID(r.Context()))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "Job successfully deleted (moved to trash).", "job": res})
}
