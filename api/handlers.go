package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/vrchatbot/bot"
	"github.com/jmcleod/vrchatbot/storage"
)

// Health reports that the server is up.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// PostMessage feeds one chat message to the bot and returns its replies.
func (a *API) PostMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if err := storage.ValidateKey(req.SessionID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	replies, err := a.bot.Handle(r.Context(), bot.Message{SessionID: req.SessionID, Text: req.Text})
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	if replies == nil {
		replies = []string{}
	}
	writeJSON(w, http.StatusOK, MessageResponse{Replies: replies})
}

// ListSessions returns the sessions with a stored login, sorted.
func (a *API) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := a.sessions.Sessions()
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	slices.Sort(ids)

	limit, offset := parsePagination(r)
	start, end, meta := paginateSlice(len(ids), limit, offset)
	page := ids[start:end]
	if page == nil {
		page = []string{}
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: page, PaginationMeta: meta})
}

// DeleteSession forgets a session's stored login. Deleting an unknown
// session succeeds.
func (a *API) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := storage.ValidateKey(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := a.sessions.RemoveLoginInfo(id); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.logger.InfoContext(r.Context(), "session removed",
		"session", id, "request_id", requestIDFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
