package messages

import (
	"net/http"

	"github.com/gorilla/mux"

	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/httpx"
)

// Handler adapts the Service to HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the messaging routes on the /api subrouter. All of
// them require authentication.
//
//	POST /messages                            → send
//	GET  /messages/conversations              → latest message per counterpart
//	GET  /messages/conversation/user/{id}     → history with one user, marks read
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/messages", auth.Require(h.send)).Methods(http.MethodPost)
	r.HandleFunc("/messages/conversations", auth.Require(h.conversations)).Methods(http.MethodGet)
	r.HandleFunc("/messages/conversation/user/{id}", auth.Require(h.history)).Methods(http.MethodGet)
}

type sendResponse struct {
	Message string  `json:"message"`
	Data    Message `json:"data"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req Outgoing
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	msg, err := h.svc.Send(r.Context(), auth.CallerID(r.Context()), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, sendResponse{Message: "Message sent successfully!", Data: msg})
}

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Conversations(r.Context(), auth.CallerID(r.Context()))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if out == nil {
		out = []Conversation{}
	}
	httpx.OK(w, out)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	other, err := httpx.PathID(r, "id", msgInvalidUserID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.svc.History(r.Context(), auth.CallerID(r.Context()), other)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if out == nil {
		out = []HistoryEntry{}
	}
	httpx.OK(w, out)
}
