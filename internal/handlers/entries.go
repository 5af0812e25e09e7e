package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/stitcher/internal/edits"
)

// decodeBody decodes an optional JSON body into v. An empty body is fine.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	var request struct {
		BeforeID string `json:"before_id"`
	}
	if !h.decodeBody(w, r, &request) {
		return
	}
	if err := sess.Move(r.PathValue("entry"), request.BeforeID); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"order": sess.OrderedIDs()})
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if err := sess.Remove(r.PathValue("entry")); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"order": sess.OrderedIDs()})
}

func (h *Handler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	var request struct {
		Direction string `json:"direction"`
	}
	if !h.decodeBody(w, r, &request) {
		return
	}
	if request.Direction == "" {
		request.Direction = "right"
	}
	dir, err := edits.ParseDirection(request.Direction)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.PathValue("entry")
	if _, err := sess.Rotate(id, dir); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, sess.Edit(id))
}

func (h *Handler) HandleResize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	var request struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if !h.decodeBody(w, r, &request) {
		return
	}

	id := r.PathValue("entry")
	if err := sess.Resize(id, request.Width, request.Height); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, sess.Edit(id))
}

func (h *Handler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	id := r.PathValue("entry")
	changed, err := sess.Undo(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"changed": changed, "edit": sess.Edit(id)})
}
