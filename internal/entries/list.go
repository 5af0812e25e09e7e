package entries

import (
	"fmt"
	"slices"
)

// List is an ordered set of entries with no duplicate ids.
// It is not safe for concurrent use; the owning session serializes access.
type List struct {
	order []string
	byID  map[string]*Entry
}

func NewList() *List {
	return &List{
		byID: make(map[string]*Entry),
	}
}

// Append adds e at the tail.
func (l *List) Append(e *Entry) error {
	if _, ok := l.byID[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.ID)
	}
	l.byID[e.ID] = e
	l.order = append(l.order, e.ID)
	return nil
}

// RemoveByID removes the entry and releases its source.
func (l *List) RemoveByID(id string) (*Entry, error) {
	e, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(l.byID, id)
	l.order = slices.DeleteFunc(l.order, func(v string) bool { return v == id })
	e.release()
	return e, nil
}

// MoveBefore moves id to immediately before beforeID, or to the tail when
// beforeID is empty.
func (l *List) MoveBefore(id, beforeID string) error {
	if id == beforeID {
		return fmt.Errorf("%w: %s before itself", ErrInvalidMove, id)
	}
	from := l.Index(id)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if beforeID != "" && l.Index(beforeID) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, beforeID)
	}
	if l.Successor(id) == beforeID {
		return nil
	}

	l.order = slices.Delete(l.order, from, from+1)
	if beforeID == "" {
		l.order = append(l.order, id)
		return nil
	}
	to := slices.Index(l.order, beforeID)
	l.order = slices.Insert(l.order, to, id)
	return nil
}

// Clear removes every entry and releases every source.
func (l *List) Clear() {
	for _, id := range l.order {
		l.byID[id].release()
	}
	l.order = nil
	l.byID = make(map[string]*Entry)
}

// OrderedIDs returns a copy of the current order.
func (l *List) OrderedIDs() []string {
	return slices.Clone(l.order)
}

// Entries returns the entries in order.
func (l *List) Entries() []*Entry {
	out := make([]*Entry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

func (l *List) Get(id string) (*Entry, bool) {
	e, ok := l.byID[id]
	return e, ok
}

func (l *List) Len() int {
	return len(l.order)
}

// Index returns the position of id, or -1.
func (l *List) Index(id string) int {
	return slices.Index(l.order, id)
}

// Successor returns the id following id, or "" when id is last or unknown.
func (l *List) Successor(id string) string {
	i := l.Index(id)
	if i < 0 || i+1 >= len(l.order) {
		return ""
	}
	return l.order[i+1]
}

// SetSize records the natural size once decoding succeeded.
func (l *List) SetSize(id string, width, height int) error {
	e, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.Width = width
	e.Height = height
	return nil
}
