package session

import (
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
)

// SetDragMode switches between marker and live reordering. It has no
// effect on a gesture already in progress.
func (s *Session) SetDragMode(mode reorder.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drag.Dragging() {
		s.drag.Mode = mode
	}
}

// SetMarkerHook installs the callback that draws the insertion marker.
func (s *Session) SetMarkerHook(fn func(m reorder.Marker, shown bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.OnMarker = fn
}

// The UI may supply fresh hit-test geometry with every gesture event;
// a nil HitTester keeps the previous one.
func (s *Session) useHits(hits reorder.HitTester) {
	if hits != nil {
		s.drag.Hits = hits
	}
}

func (s *Session) DragPress(id string, hits reorder.HitTester) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useHits(hits)
	return s.drag.Press(id)
}

func (s *Session) DragMove(p reorder.Point, hits reorder.HitTester) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useHits(hits)
	return s.drag.Move(p)
}

func (s *Session) DragRelease(p reorder.Point, hits reorder.HitTester) (reorder.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useHits(hits)
	out, err := s.drag.Release(p)
	if err == nil && out.Kind == reorder.OutcomeRemoved {
		s.edits.Drop(out.ID)
	}
	return out, err
}

func (s *Session) DragCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
}

// DragState reports the active source and pending marker, if any.
func (s *Session) DragState() (source string, marker reorder.Marker, pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.drag.Marker()
	return s.drag.Source(), m, ok
}
