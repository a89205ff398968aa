package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/httpx"
)

const msgInvalidUserID = "Invalid User ID."

// Handler adapts the Service to HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the account routes on the /api subrouter:
//
//	POST /register              → create account, returns token
//	POST /login                 → returns token
//	GET  /users                 → search (keywords, location, role)
//	GET  /users/id/{id}         → profile by id
//	GET  /users/{email}         → profile by email
//	PUT  /users/{id}            → update own profile
//	POST /users/{id}/rate       → rate a user
//	POST /users/{id}/report     → report a user
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/users", h.search).Methods(http.MethodGet)
	r.HandleFunc("/users/id/{id}", h.byID).Methods(http.MethodGet)
	r.HandleFunc("/users/{email}", h.byEmail).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", auth.Require(h.update)).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}/rate", auth.Require(h.rate)).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/report", auth.Require(h.report)).Methods(http.MethodPost)
}

type sessionResponse struct {
	Message string `json:"message"`
	Session
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req Registration
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	sess, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, sessionResponse{Message: "User registered successfully", Session: sess})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, sessionResponse{Message: "Logged in successfully", Session: sess})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.Search(r.Context(), SearchFilter{
		Keywords: q.Get("keywords"),
		Location: q.Get("location"),
		Role:     q.Get("role"),
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id", msgInvalidUserID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.ByID(r.Context(), auth.CallerID(r.Context()), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) byEmail(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.ByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id", msgInvalidUserID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req ProfileUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	acct, err := h.svc.UpdateProfile(r.Context(), auth.CallerID(r.Context()), id, req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, acct)
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	const msg = "Invalid user ID or rating (must be 1-5)."
	id, err := httpx.PathID(r, "id", msg)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req Rating
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	sum, err := h.svc.Rate(r.Context(), auth.CallerID(r.Context()), id, req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, map[string]any{
		"message":             "Rating submitted successfully!",
		"average_rating":      sum.AverageRating,
		"total_ratings_count": sum.TotalRatingsCount,
	})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id", "Invalid user ID or missing report reason.")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req Report
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.svc.Report(r.Context(), auth.CallerID(r.Context()), id, req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, map[string]string{"message": "Report submitted successfully. Thank you for your feedback."})
}
