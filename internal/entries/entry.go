// Package entries holds the ordered list of images waiting to be stitched.
package entries

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

var (
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotFound       = errors.New("entry not found")
	ErrInvalidMove    = errors.New("invalid move")
)

// Entry is one pending image. Its position in a List is its order.
type Entry struct {
	ID          string
	Name        string
	ContentType string
	Source      SourceRef

	// Natural size, zero until a decode succeeds.
	Width  int
	Height int
}

// New creates an entry with a fresh id.
func New(name, contentType string, src SourceRef) *Entry {
	return &Entry{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Source:      src,
	}
}

// HasSize reports whether the natural size is known.
func (e *Entry) HasSize() bool {
	return e.Width > 0 && e.Height > 0
}

func (e *Entry) release() {
	if e.Source == nil {
		return
	}
	if err := e.Source.Release(); err != nil {
		slog.Warn("Failed to release source", "id", e.ID, "name", e.Name, "error", err)
	}
}
