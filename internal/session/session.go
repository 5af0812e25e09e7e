// Package session binds one user's entry list, edits, drag gestures and
// composite result. All mutations are serialized by the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/edits"
	"github.com/lehigh-university-libraries/stitcher/internal/entries"
	"github.com/lehigh-university-libraries/stitcher/internal/loader"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
)

var (
	ErrInvalidFileType = errors.New("invalid file type, only image files are allowed")
	ErrSuperseded      = errors.New("stitch superseded by a newer request")
	ErrInvalidZoom     = fmt.Errorf("zoom must be between 0 and %d", compositor.MaxZoom)
)

var imageMIMEPattern = regexp.MustCompile(`^image/`)

// File is one file offered at the import boundary.
type File struct {
	Name        string
	ContentType string
	Source      entries.SourceRef
}

// EntryView is a read-only copy of an entry and its edits.
type EntryView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Rotation       int    `json:"rotation"`
	OverrideWidth  int    `json:"override_width,omitempty"`
	OverrideHeight int    `json:"override_height,omitempty"`
	UndoDepth      int    `json:"undo_depth"`
}

type Session struct {
	ID        string
	CreatedAt time.Time

	// OnNotice receives user-facing failures. Set it before use.
	OnNotice func(Notice)

	mu     sync.Mutex
	list   *entries.List
	edits  *edits.Store
	drag   *reorder.Controller
	loader *loader.Loader
	result *compositor.Result
	layout compositor.Layout
	zoom   int
	gen    uint64
}

// New creates an empty session. A nil loader gets the default one.
func New(l *loader.Loader) *Session {
	if l == nil {
		l = loader.New()
	}
	list := entries.NewList()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		list:      list,
		edits:     edits.NewStore(),
		drag:      reorder.NewController(list, nil, reorder.ModeMarker),
		loader:    l,
		zoom:      100,
	}
}

func (s *Session) notify(notices []Notice) {
	for _, n := range notices {
		slog.Warn(n.Message, "session_id", s.ID, "kind", n.Kind.String(), "name", n.Name)
		if s.OnNotice != nil {
			s.OnNotice(n)
		}
	}
}

// Import appends every file whose MIME type is an image type, in order,
// and reports a notice for every rejected file.
func (s *Session) Import(files []File) ([]string, []error) {
	var accepted []string
	var rejected []error
	var notices []Notice

	s.mu.Lock()
	for _, f := range files {
		if !imageMIMEPattern.MatchString(f.ContentType) {
			err := fmt.Errorf("%w: %s", ErrInvalidFileType, f.Name)
			rejected = append(rejected, err)
			notices = append(notices, Notice{Kind: NoticeInvalidFileType, Name: f.Name, Message: err.Error(), Err: err})
			if f.Source != nil {
				if err := f.Source.Release(); err != nil {
					slog.Warn("Failed to release source", "session_id", s.ID, "name", f.Name, "error", err)
				}
			}
			continue
		}
		e := entries.New(f.Name, f.ContentType, f.Source)
		if err := s.list.Append(e); err != nil {
			rejected = append(rejected, err)
			continue
		}
		accepted = append(accepted, e.ID)
	}
	s.mu.Unlock()

	if len(accepted) > 0 {
		slog.Info("Images imported", "session_id", s.ID, "accepted", len(accepted), "rejected", len(rejected))
	}
	s.notify(notices)
	return accepted, rejected
}

// Entries returns the entries in composite order.
func (s *Session) Entries() []EntryView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EntryView, 0, s.list.Len())
	for _, e := range s.list.Entries() {
		st := s.edits.Get(e.ID)
		out = append(out, EntryView{
			ID:             e.ID,
			Name:           e.Name,
			Width:          e.Width,
			Height:         e.Height,
			Rotation:       st.Rotation,
			OverrideWidth:  st.Width,
			OverrideHeight: st.Height,
			UndoDepth:      s.edits.Depth(e.ID),
		})
	}
	return out
}

func (s *Session) OrderedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.OrderedIDs()
}

// Remove removes an entry, releasing its source and edits.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.list.RemoveByID(id); err != nil {
		return err
	}
	s.edits.Drop(id)
	return nil
}

// Move places id before beforeID, or at the tail when beforeID is empty.
func (s *Session) Move(id, beforeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.MoveBefore(id, beforeID)
}

// Clear removes every entry and the composite, and resets the zoom.
// A stitch in flight is superseded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
	s.list.Clear()
	s.edits.Reset()
	s.result = nil
	s.zoom = 100
	s.gen++
	slog.Info("Session cleared", "session_id", s.ID)
}

func (s *Session) Rotate(id string, dir edits.Direction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.list.Get(id); !ok {
		return 0, fmt.Errorf("%w: %s", entries.ErrNotFound, id)
	}
	return s.edits.Rotate(id, dir), nil
}

func (s *Session) Resize(id string, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.list.Get(id); !ok {
		return fmt.Errorf("%w: %s", entries.ErrNotFound, id)
	}
	return s.edits.Resize(id, width, height)
}

// Undo reverts the last edit of id and reports whether anything changed.
func (s *Session) Undo(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.list.Get(id); !ok {
		return false, fmt.Errorf("%w: %s", entries.ErrNotFound, id)
	}
	return s.edits.Undo(id), nil
}

func (s *Session) Edit(id string) edits.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits.Get(id)
}

// Result returns the current composite, or nil.
func (s *Session) Result() *compositor.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Layout returns the layout of the current composite.
func (s *Session) Layout() compositor.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Enabled reports whether a composite exists for export.
func (s *Session) Enabled() bool {
	return s.Result() != nil
}

func (s *Session) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *Session) SetZoom(percent int) error {
	if percent < 0 || percent > compositor.MaxZoom {
		return ErrInvalidZoom
	}
	s.mu.Lock()
	s.zoom = percent
	s.mu.Unlock()
	return nil
}

// Stitch resolves every entry and composites the decoded ones with layout.
// Entries that fail to decode are reported and left out. A stitch that is
// overtaken by a newer stitch or a clear returns ErrSuperseded.
func (s *Session) Stitch(ctx context.Context, layout compositor.Layout) (*compositor.Result, []*loader.DecodeError, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.zoom = 100
	ids := s.list.OrderedIDs()
	names := make(map[string]string, len(ids))
	reqs := make([]loader.Request, 0, len(ids))
	for _, e := range s.list.Entries() {
		names[e.ID] = e.Name
		reqs = append(reqs, loader.Request{ID: e.ID, Name: e.Name, Source: e.Source})
	}
	snap := s.edits.Snapshot(ids)
	s.mu.Unlock()

	slog.Info("Stitching", "session_id", s.ID, "entries", len(reqs), "direction", layout.Direction.String())
	batch := s.loader.Resolve(ctx, reqs)
	defer batch.Release()

	failures := batch.Errors()
	var notices []Notice
	defer func() { s.notify(notices) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.Stale || gen != s.gen {
		slog.Info("Stitch superseded", "session_id", s.ID, "generation", batch.Generation)
		return nil, nil, ErrSuperseded
	}

	for _, f := range failures {
		notices = append(notices, Notice{Kind: NoticeDecodeFailure, Name: f.Name, Message: f.Error(), Err: f})
	}

	items := make([]compositor.Item, 0, len(batch.Bitmaps))
	for _, bm := range batch.Ordered() {
		_ = s.list.SetSize(bm.ID, bm.Width(), bm.Height())
		items = append(items, compositor.Item{
			ID:    bm.ID,
			Name:  names[bm.ID],
			Image: bm.Image,
			Edit:  snap[bm.ID],
		})
	}

	res, err := compositor.Render(items, layout)
	if err != nil {
		s.result = nil
		if errors.Is(err, compositor.ErrEmptyComposite) {
			notices = append(notices, Notice{Kind: NoticeEmptyComposite, Message: "No images to stitch", Err: err})
		}
		return nil, failures, err
	}

	s.result = res
	s.layout = layout
	slog.Info("Stitch complete", "session_id", s.ID, "width", res.Width(), "height", res.Height(), "failed", len(failures))
	return res, failures, nil
}
