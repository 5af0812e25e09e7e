package handlers

import (
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

type sessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   int       `json:"entries"`
	Enabled   bool      `json:"enabled"`
}

type sessionDetail struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Entries   []session.EntryView `json:"entries"`
	Enabled   bool                `json:"enabled"`
	Zoom      int                 `json:"zoom"`
	Width     int                 `json:"width,omitempty"`
	Height    int                 `json:"height,omitempty"`
}

func detailOf(sess *session.Session) sessionDetail {
	d := sessionDetail{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Entries:   sess.Entries(),
		Zoom:      sess.Zoom(),
	}
	if res := sess.Result(); res != nil {
		d.Enabled = true
		d.Width, d.Height = res.DisplaySize(d.Zoom)
	}
	return d
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.List()
	sessionList := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		sessionList = append(sessionList, sessionSummary{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			Entries:   len(sess.OrderedIDs()),
			Enabled:   sess.Enabled(),
		})
	}
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.newSession()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, detailOf(sess))
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	h.writeJSON(w, detailOf(sess))
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessionStore.Delete(r.PathValue("id")) {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	sess.Clear()
	h.writeJSON(w, detailOf(sess))
}
