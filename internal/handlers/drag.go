package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
)

type dragRect struct {
	ID string `json:"id,omitempty"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

func (r dragRect) rect() reorder.Rect {
	return reorder.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// dragRequest is one gesture event. Rows and Remove carry the client's
// current layout and are optional after the first event.
type dragRequest struct {
	Event  string     `json:"event"`
	ID     string     `json:"id,omitempty"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Mode   string     `json:"mode,omitempty"`
	Rows   []dragRect `json:"rows,omitempty"`
	Remove *dragRect  `json:"remove,omitempty"`
}

func (d dragRequest) hitTester() reorder.HitTester {
	if len(d.Rows) == 0 && d.Remove == nil {
		return nil
	}
	hits := make(reorder.RectHitTester, 0, len(d.Rows)+1)
	if d.Remove != nil {
		hits = append(hits, reorder.Target{Kind: reorder.TargetRemove, Bounds: d.Remove.rect()})
	}
	for _, row := range d.Rows {
		hits = append(hits, reorder.Target{Kind: reorder.TargetEntry, ID: row.ID, Bounds: row.rect()})
	}
	return hits
}

type dragResponse struct {
	Event   string   `json:"event"`
	Outcome string   `json:"outcome,omitempty"`
	Source  string   `json:"source,omitempty"`
	Marker  *string  `json:"marker_before,omitempty"`
	Order   []string `json:"order"`
}

func (h *Handler) HandleDrag(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	var request dragRequest
	if !h.decodeBody(w, r, &request) {
		return
	}

	hits := request.hitTester()
	p := reorder.Point{X: request.X, Y: request.Y}
	resp := dragResponse{Event: request.Event}

	switch request.Event {
	case "press":
		switch request.Mode {
		case "live":
			sess.SetDragMode(reorder.ModeLive)
		case "", "marker":
			sess.SetDragMode(reorder.ModeMarker)
		default:
			h.writeError(w, "Invalid drag mode. Must be 'marker' or 'live'", http.StatusBadRequest)
			return
		}
		if err := sess.DragPress(request.ID, hits); err != nil {
			h.writeSessionError(w, err)
			return
		}
	case "move":
		if err := sess.DragMove(p, hits); err != nil {
			h.writeSessionError(w, err)
			return
		}
	case "release":
		out, err := sess.DragRelease(p, hits)
		if err != nil {
			h.writeSessionError(w, err)
			return
		}
		resp.Outcome = out.Kind.String()
	case "cancel":
		sess.DragCancel()
	default:
		h.writeError(w, "Invalid event. Must be 'press', 'move', 'release' or 'cancel'", http.StatusBadRequest)
		return
	}

	source, marker, pending := sess.DragState()
	resp.Source = source
	if pending {
		before := marker.BeforeID
		resp.Marker = &before
	}
	resp.Order = sess.OrderedIDs()
	h.writeJSON(w, resp)
}
