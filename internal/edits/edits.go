// Package edits tracks per-entry rotation and resize edits with undo.
package edits

import (
	"errors"
	"fmt"
)

var ErrInvalidDimension = errors.New("invalid dimension")

// MaxDimension bounds either side of a resized entry.
const MaxDimension = 1 << 16

// Direction is a quarter-turn rotation direction. Right is clockwise.
type Direction int

const (
	Left Direction = iota
	Right
)

// ParseDirection accepts "left"/"ccw" and "right"/"cw".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left", "ccw":
		return Left, nil
	case "right", "cw":
		return Right, nil
	default:
		return Left, fmt.Errorf("unknown rotation direction %q", s)
	}
}

// State is the edit state of one entry. The zero value means no edits.
type State struct {
	Rotation int `json:"rotation" yaml:"rotation"`
	// Override render size before rotation, zero when unset.
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// HasOverride reports whether an explicit render size is set.
func (s State) HasOverride() bool {
	return s.Width > 0 && s.Height > 0
}

// EffectiveSize applies the override and the rotation axis swap to a
// natural size.
func EffectiveSize(naturalW, naturalH int, s State) (int, int) {
	w, h := naturalW, naturalH
	if s.HasOverride() {
		w, h = s.Width, s.Height
	}
	if s.Rotation == 90 || s.Rotation == 270 {
		return h, w
	}
	return w, h
}

type field int

const (
	fieldRotation field = iota
	fieldSize
)

type snapshot struct {
	field    field
	rotation int
	width    int
	height   int
}

type record struct {
	state State
	undo  []snapshot
}

// Store holds edit states keyed by entry id. Records are created on the
// first edit. Not safe for concurrent use.
type Store struct {
	records map[string]*record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

func (s *Store) record(id string) *record {
	r, ok := s.records[id]
	if !ok {
		r = &record{}
		s.records[id] = r
	}
	return r
}

// Get returns the state for id, or the zero state.
func (s *Store) Get(id string) State {
	if r, ok := s.records[id]; ok {
		return r.state
	}
	return State{}
}

// Rotate turns the entry a quarter turn and returns the new rotation.
func (s *Store) Rotate(id string, dir Direction) int {
	r := s.record(id)
	r.undo = append(r.undo, snapshot{field: fieldRotation, rotation: r.state.Rotation})

	delta := 90
	if dir == Left {
		delta = -90
	}
	r.state.Rotation = (r.state.Rotation + delta + 360) % 360
	return r.state.Rotation
}

// Resize sets the override render size. Both dimensions must be positive.
func (s *Store) Resize(id string, width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	r := s.record(id)
	r.undo = append(r.undo, snapshot{field: fieldSize, width: r.state.Width, height: r.state.Height})
	r.state.Width = width
	r.state.Height = height
	return nil
}

// Undo restores the field recorded by the last edit of id. It reports
// false when there was nothing to undo.
func (s *Store) Undo(id string) bool {
	r, ok := s.records[id]
	if !ok || len(r.undo) == 0 {
		return false
	}
	last := r.undo[len(r.undo)-1]
	r.undo = r.undo[:len(r.undo)-1]

	switch last.field {
	case fieldRotation:
		r.state.Rotation = last.rotation
	case fieldSize:
		r.state.Width = last.width
		r.state.Height = last.height
	}
	return true
}

// Depth returns the number of undoable edits for id.
func (s *Store) Depth(id string) int {
	if r, ok := s.records[id]; ok {
		return len(r.undo)
	}
	return 0
}

// Drop forgets the edits of a removed entry.
func (s *Store) Drop(id string) {
	delete(s.records, id)
}

// Reset forgets every edit.
func (s *Store) Reset() {
	s.records = make(map[string]*record)
}

// Snapshot copies the current states of ids.
func (s *Store) Snapshot(ids []string) map[string]State {
	out := make(map[string]State, len(ids))
	for _, id := range ids {
		out[id] = s.Get(id)
	}
	return out
}
