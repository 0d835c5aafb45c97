package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"commutesurvey/internal/model"
	"commutesurvey/internal/service"
	"commutesurvey/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// SessionHandler handles survey session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.sessionSvc.Start(r.Context(), strings.TrimSpace(req.TokenOrSlug))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Get(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Answer handles PATCH /v1/sessions/{id}/answers. The body is a partial
// record data object; top-level fields it names replace the stored ones.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "answers must be a JSON object")
		return
	}

	view, err := h.sessionSvc.Answer(r.Context(), sessionID(r), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Next handles POST /v1/sessions/{id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Next(r.Context(), sessionID(r), requestLocale(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Previous handles POST /v1/sessions/{id}/previous
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Previous(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CommentsRequest is the request body for saving comments
type CommentsRequest struct {
	Comments string `json:"comments"`
}

// Comments handles PUT /v1/sessions/{id}/comments
func (h *SessionHandler) Comments(w http.ResponseWriter, r *http.Request) {
	var req CommentsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.Comments(r.Context(), sessionID(r), req.Comments)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Finish handles POST /v1/sessions/{id}/finish
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Finish(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Reset handles POST /v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Reset(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// sessionID is the authenticated session, or the route {id} when the route is public
func sessionID(r *http.Request) string {
	if id := middleware.GetSessionID(r.Context()); id != "" {
		return id
	}
	return mux.Vars(r)["id"]
}

// requestLocale reads ?locale= or the primary language of Accept-Language
func requestLocale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	lang := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.Index(lang, "-"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(strings.TrimSpace(lang))
}
