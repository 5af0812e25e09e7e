package handlers

import (
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/prefs"
	"github.com/lehigh-university-libraries/stitcher/internal/report"
)

// stitchRequest carries the layout controls. A missing border falls back
// to the saved preferences.
type stitchRequest struct {
	Direction  string        `json:"direction"`
	Stretch    bool          `json:"stretch"`
	Background string        `json:"background,omitempty"`
	Border     *prefs.Border `json:"border,omitempty"`
}

type stitchFailure struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type stitchResponse struct {
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	Zoom       int                    `json:"zoom"`
	Placements []compositor.Placement `json:"placements"`
	Failures   []stitchFailure        `json:"failures,omitempty"`
}

func (h *Handler) layoutFrom(req stitchRequest) (compositor.Layout, error) {
	var layout compositor.Layout
	if req.Direction != "" {
		dir, err := compositor.ParseDirection(req.Direction)
		if err != nil {
			return layout, err
		}
		layout.Direction = dir
	}
	if req.Stretch {
		layout.Aspect = compositor.AspectStretch
	}
	if req.Background != "" {
		c, err := compositor.ParseColor(req.Background)
		if err != nil {
			return layout, err
		}
		layout.Background = c
	}

	values := h.prefs.Values()
	if req.Border != nil {
		values.Border = *req.Border
	}
	layout.Border = values.LayoutBorder()
	return layout, nil
}

func (h *Handler) HandleStitch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	var request stitchRequest
	if !h.decodeBody(w, r, &request) {
		return
	}
	layout, err := h.layoutFrom(request)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, failures, err := sess.Stitch(r.Context(), layout)
	resp := stitchResponse{Zoom: sess.Zoom(), Placements: []compositor.Placement{}}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, stitchFailure{Name: f.Name, Message: f.Error()})
	}
	if err != nil {
		if errors.Is(err, compositor.ErrEmptyComposite) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			h.writeJSON(w, resp)
			return
		}
		h.writeSessionError(w, err)
		return
	}

	resp.Width = res.Width()
	resp.Height = res.Height()
	resp.Placements = res.Placements
	h.writeJSON(w, resp)
}

// HandleResultImage serves the composite as PNG. With ?zoom=N the preview
// is scaled and the session zoom updated; ?download=1 always serves the
// full-size composite as an attachment.
func (h *Handler) HandleResultImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	res := sess.Result()
	if res == nil {
		h.writeError(w, "No composite to export", http.StatusConflict)
		return
	}

	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="stitched.png"`)
		if err := res.EncodePNG(w); err != nil {
			slog.Error("Unable to encode composite", "session_id", sess.ID, "err", err)
		}
		return
	}

	if z := r.URL.Query().Get("zoom"); z != "" {
		percent, err := strconv.Atoi(z)
		if err != nil {
			h.writeError(w, "Invalid zoom: "+z, http.StatusBadRequest)
			return
		}
		if err := sess.SetZoom(percent); err != nil {
			h.writeSessionError(w, err)
			return
		}
	}

	preview := res.Preview(sess.Zoom())
	if preview.Bounds().Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, preview); err != nil {
		slog.Error("Unable to encode preview", "session_id", sess.ID, "err", err)
	}
}

func (h *Handler) HandlePlacements(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := sess.Result()
	if res == nil {
		h.writeError(w, "No composite to export", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if err := report.Write(w, format, report.New(res, sess.Layout())); err != nil {
		slog.Error("Unable to write placement report", "session_id", sess.ID, "err", err)
	}
}
