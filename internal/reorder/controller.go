// Package reorder turns drag gestures over the entry list into list moves.
package reorder

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lehigh-university-libraries/stitcher/internal/entries"
)

var ErrGestureActive = errors.New("a drag gesture is already active")

// Mode selects how movement is reflected.
type Mode int

const (
	// ModeMarker only moves a visual insertion marker; the list changes on release.
	ModeMarker Mode = iota
	// ModeLive moves the entry within the list as the pointer moves.
	ModeLive
)

// List is the part of the entry list the controller mutates.
type List interface {
	MoveBefore(id, beforeID string) error
	RemoveByID(id string) (*entries.Entry, error)
	OrderedIDs() []string
	Successor(id string) string
	Index(id string) int
}

// Marker is a pending insertion point: before BeforeID, or the tail when empty.
type Marker struct {
	BeforeID string `json:"before_id"`
}

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeMoved
	OutcomeRemoved
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMoved:
		return "moved"
	case OutcomeRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Outcome is the result of a finished gesture.
type Outcome struct {
	Kind     OutcomeKind
	ID       string
	BeforeID string
}

// Controller is the Idle/Dragging state machine of one gesture stream.
type Controller struct {
	Hits HitTester
	Mode Mode

	// OnMarker is called when the marker changes; shown is false when it is cleared.
	OnMarker func(m Marker, shown bool)

	list      List
	dragging  bool
	source    string
	marker    Marker
	hasMarker bool
	original  []string
}

func NewController(list List, hits HitTester, mode Mode) *Controller {
	return &Controller{
		Hits: hits,
		Mode: mode,
		list: list,
	}
}

func (c *Controller) Dragging() bool {
	return c.dragging
}

// Source returns the id being dragged, or "".
func (c *Controller) Source() string {
	return c.source
}

// Marker returns the pending marker, if any.
func (c *Controller) Marker() (Marker, bool) {
	return c.marker, c.hasMarker
}

// Press starts dragging id.
func (c *Controller) Press(id string) error {
	if c.dragging {
		return ErrGestureActive
	}
	if c.list.Index(id) < 0 {
		return fmt.Errorf("%w: %s", entries.ErrNotFound, id)
	}
	c.dragging = true
	c.source = id
	c.original = c.list.OrderedIDs()
	slog.Debug("Drag started", "id", id, "mode", c.Mode)
	return nil
}

// Move recomputes the insertion point under p. Repeating the same
// insertion point changes nothing.
func (c *Controller) Move(p Point) error {
	if !c.dragging || c.Hits == nil {
		return nil
	}
	t, ok := c.Hits.HitTest(p)
	if !ok || t.Kind != TargetEntry || c.list.Index(t.ID) < 0 {
		return nil
	}

	before := t.ID
	if !t.Bounds.UpperHalf(p) {
		before = c.list.Successor(t.ID)
	}
	if before == c.source {
		before = c.list.Successor(c.source)
	}

	m := Marker{BeforeID: before}
	if c.hasMarker && c.marker == m {
		return nil
	}
	c.marker = m
	c.hasMarker = true

	if c.Mode == ModeLive {
		if err := c.list.MoveBefore(c.source, before); err != nil {
			return err
		}
	}
	if c.OnMarker != nil {
		c.OnMarker(m, true)
	}
	return nil
}

// Release ends the gesture at p, either removing the source over the
// remove target or committing the pending marker.
func (c *Controller) Release(p Point) (Outcome, error) {
	if !c.dragging {
		return Outcome{}, nil
	}
	defer c.reset()

	if c.Hits != nil {
		if t, ok := c.Hits.HitTest(p); ok && t.Kind == TargetRemove {
			if _, err := c.list.RemoveByID(c.source); err != nil {
				return Outcome{}, err
			}
			slog.Debug("Drag removed entry", "id", c.source)
			return Outcome{Kind: OutcomeRemoved, ID: c.source}, nil
		}
	}

	if c.Mode == ModeLive {
		if slices.Equal(c.list.OrderedIDs(), c.original) {
			return Outcome{}, nil
		}
		return Outcome{Kind: OutcomeMoved, ID: c.source, BeforeID: c.list.Successor(c.source)}, nil
	}

	if !c.hasMarker {
		return Outcome{}, nil
	}
	before := c.marker.BeforeID
	if before == c.source || c.list.Successor(c.source) == before {
		return Outcome{}, nil
	}
	if err := c.list.MoveBefore(c.source, before); err != nil {
		return Outcome{}, err
	}
	slog.Debug("Drag moved entry", "id", c.source, "before", before)
	return Outcome{Kind: OutcomeMoved, ID: c.source, BeforeID: before}, nil
}

// Cancel abandons the gesture without a net change to the list.
func (c *Controller) Cancel() {
	if !c.dragging {
		return
	}
	if c.Mode == ModeLive && !slices.Equal(c.list.OrderedIDs(), c.original) {
		for _, id := range c.original {
			if c.list.Index(id) >= 0 {
				_ = c.list.MoveBefore(id, "")
			}
		}
	}
	c.reset()
}

func (c *Controller) reset() {
	if c.hasMarker && c.OnMarker != nil {
		c.OnMarker(c.marker, false)
	}
	c.dragging = false
	c.source = ""
	c.marker = Marker{}
	c.hasMarker = false
	c.original = nil
}
