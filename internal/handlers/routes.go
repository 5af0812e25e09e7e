package handlers

import (
	"log/slog"
	"net/http"
)

// Register installs every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.HandleSessions)
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/clear", h.HandleClear)
	mux.HandleFunc("POST /api/sessions/{id}/drag", h.HandleDrag)
	mux.HandleFunc("POST /api/sessions/{id}/stitch", h.HandleStitch)
	mux.HandleFunc("GET /api/sessions/{id}/result.png", h.HandleResultImage)
	mux.HandleFunc("GET /api/sessions/{id}/placements", h.HandlePlacements)
	mux.HandleFunc("POST /api/sessions/{id}/entries/{entry}/move", h.HandleMove)
	mux.HandleFunc("DELETE /api/sessions/{id}/entries/{entry}", h.HandleRemove)
	mux.HandleFunc("POST /api/sessions/{id}/entries/{entry}/rotate", h.HandleRotate)
	mux.HandleFunc("POST /api/sessions/{id}/entries/{entry}/resize", h.HandleResize)
	mux.HandleFunc("POST /api/sessions/{id}/entries/{entry}/undo", h.HandleUndo)
	mux.HandleFunc("POST /api/upload", h.HandleUpload)
	mux.HandleFunc("GET /api/preferences", h.HandleGetPreferences)
	mux.HandleFunc("PUT /api/preferences", h.HandlePutPreferences)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleStatic)
}
