package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/edits"
	"github.com/lehigh-university-libraries/stitcher/internal/entries"
	"github.com/lehigh-university-libraries/stitcher/internal/prefs"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
	"github.com/lehigh-university-libraries/stitcher/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	prefs        *prefs.Store
	uploadsDir   string
	staticDir    string
}

func New(p *prefs.Store, uploadsDir, staticDir string) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		prefs:        p,
		uploadsDir:   uploadsDir,
		staticDir:    staticDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeSessionError maps session and domain errors to status codes.
func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, entries.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, entries.ErrInvalidMove),
		errors.Is(err, edits.ErrInvalidDimension),
		errors.Is(err, session.ErrInvalidZoom):
		code = http.StatusBadRequest
	case errors.Is(err, reorder.ErrGestureActive),
		errors.Is(err, session.ErrSuperseded):
		code = http.StatusConflict
	case errors.Is(err, compositor.ErrEmptyComposite),
		errors.Is(err, compositor.ErrCanvasTooLarge):
		code = http.StatusUnprocessableEntity
	}
	h.writeError(w, err.Error(), code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) newSession() *session.Session {
	// Generations are per loader, so each session gets its own.
	sess := session.New(nil)
	h.sessionStore.Set(sess)
	slog.Info("Session created", "session_id", sess.ID)
	return sess
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}
