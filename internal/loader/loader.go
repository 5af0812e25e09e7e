// Package loader decodes entry sources into bitmaps, one batch per stitch.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/stitcher/internal/entries"
)

// DefaultMaxBytes caps a single source at 50MB.
const DefaultMaxBytes = 50 * 1024 * 1024

var (
	ErrDecodeFailure  = errors.New("decode failure")
	ErrInvalidContent = errors.New("content is not an image")
	ErrTooLarge       = errors.New("image too large")
)

// DecodeError reports a failed entry. It matches ErrDecodeFailure.
type DecodeError struct {
	ID   string
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error loading image %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecodeFailure, e.Err}
}

// Request asks for one entry to be decoded.
type Request struct {
	ID     string
	Name   string
	Source entries.SourceRef
}

// Bitmap is a decoded surface owned by whoever holds it last.
type Bitmap struct {
	ID     string
	Format string
	Image  image.Image
}

func (b *Bitmap) Width() int {
	if b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dx()
}

func (b *Bitmap) Height() int {
	if b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dy()
}

// Release drops the pixels.
func (b *Bitmap) Release() {
	b.Image = nil
}

func (b *Bitmap) Released() bool {
	return b.Image == nil
}

// Loader resolves batches of requests concurrently.
type Loader struct {
	// Concurrency bounds simultaneous decodes; zero means no bound.
	Concurrency int
	MaxBytes    int64

	gen atomic.Uint64
}

func New() *Loader {
	return &Loader{MaxBytes: DefaultMaxBytes}
}

// Current returns the generation of the most recent batch.
func (l *Loader) Current() uint64 {
	return l.gen.Load()
}

// ResolveAll starts one decode per request and returns the batch
// generation. onSettled runs exactly once, after every request settled.
// Starting another batch makes this one stale: its bitmaps are released
// before onSettled sees it.
func (l *Loader) ResolveAll(ctx context.Context, reqs []Request, onSettled func(*Batch)) uint64 {
	gen := l.gen.Add(1)
	reqs = append([]Request(nil), reqs...)

	go func() {
		batch := newBatch(gen, reqs)
		var mu sync.Mutex

		g := new(errgroup.Group)
		if l.Concurrency > 0 {
			g.SetLimit(l.Concurrency)
		}
		for _, r := range reqs {
			g.Go(func() error {
				bm, err := l.decode(ctx, r)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					derr := &DecodeError{ID: r.ID, Name: r.Name, Err: err}
					batch.Failures[r.ID] = derr
					slog.Warn("Failed to load image", "id", r.ID, "name", r.Name, "error", err)
					return nil
				}
				batch.Bitmaps[r.ID] = bm
				return nil
			})
		}
		_ = g.Wait()

		if l.gen.Load() != gen {
			batch.Stale = true
			batch.Release()
			slog.Debug("Discarding superseded batch", "generation", gen)
		}
		if onSettled != nil {
			onSettled(batch)
		}
	}()

	return gen
}

// Resolve runs ResolveAll and waits for the batch to settle.
func (l *Loader) Resolve(ctx context.Context, reqs []Request) *Batch {
	done := make(chan *Batch, 1)
	l.ResolveAll(ctx, reqs, func(b *Batch) { done <- b })
	return <-done
}

func (l *Loader) decode(ctx context.Context, r Request) (*Bitmap, error) {
	if r.Source == nil {
		return nil, errors.New("no source")
	}
	rc, err := r.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, limit)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidContent, mt.String())
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Bitmap{ID: r.ID, Format: format, Image: img}, nil
}
