package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/edits"
	"github.com/lehigh-university-libraries/stitcher/internal/entries"
	"github.com/lehigh-university-libraries/stitcher/internal/loader"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
)

func pngFile(t *testing.T, name string, w, h int) File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return File{Name: name, ContentType: "image/png", Source: entries.NewBlobRef(buf.Bytes())}
}

func importAll(t *testing.T, s *Session, files ...File) []string {
	t.Helper()
	ids, rejected := s.Import(files)
	if len(rejected) > 0 {
		t.Fatalf("Unexpected rejections: %v", rejected)
	}
	return ids
}

func TestImportRejectsNonImages(t *testing.T) {
	s := New(nil)
	var notices []Notice
	s.OnNotice = func(n Notice) { notices = append(notices, n) }

	ids, rejected := s.Import([]File{
		pngFile(t, "a.png", 2, 2),
		{Name: "notes.txt", ContentType: "text/plain", Source: entries.NewBlobRef([]byte("hi"))},
		pngFile(t, "b.png", 2, 2),
	})
	if len(ids) != 2 {
		t.Fatalf("Expected 2 accepted, got %d", len(ids))
	}
	if len(rejected) != 1 || !errors.Is(rejected[0], ErrInvalidFileType) {
		t.Fatalf("Expected one invalid file type, got %v", rejected)
	}
	if !strings.Contains(rejected[0].Error(), "notes.txt") {
		t.Errorf("Expected rejection to name the file, got %q", rejected[0])
	}
	if len(notices) != 1 || notices[0].Kind != NoticeInvalidFileType || notices[0].Name != "notes.txt" {
		t.Errorf("Unexpected notices %+v", notices)
	}

	views := s.Entries()
	if views[0].Name != "a.png" || views[1].Name != "b.png" {
		t.Errorf("Expected import order preserved, got %+v", views)
	}
}

func TestStitchHorizontal(t *testing.T) {
	s := New(nil)
	importAll(t, s, pngFile(t, "a.png", 100, 50), pngFile(t, "b.png", 200, 80), pngFile(t, "c.png", 50, 50))
	_ = s.SetZoom(250)

	res, failures, err := s.Stitch(context.Background(), compositor.Layout{Direction: compositor.Horizontal})
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Errorf("Unexpected failures %v", failures)
	}
	if res.Width() != 350 || res.Height() != 80 {
		t.Errorf("Expected 350x80, got %dx%d", res.Width(), res.Height())
	}
	if !s.Enabled() {
		t.Errorf("Expected export enabled")
	}
	if s.Zoom() != 100 {
		t.Errorf("Expected zoom reset to 100, got %d", s.Zoom())
	}
	if v := s.Entries()[1]; v.Width != 200 || v.Height != 80 {
		t.Errorf("Expected natural size recorded, got %+v", v)
	}
}

func TestStitchAppliesEdits(t *testing.T) {
	s := New(nil)
	ids := importAll(t, s, pngFile(t, "a.png", 100, 50), pngFile(t, "b.png", 20, 20))
	if _, err := s.Rotate(ids[0], edits.Right); err != nil {
		t.Fatal(err)
	}
	if err := s.Resize(ids[1], 10, 40); err != nil {
		t.Fatal(err)
	}

	res, _, err := s.Stitch(context.Background(), compositor.Layout{Direction: compositor.Horizontal})
	if err != nil {
		t.Fatal(err)
	}
	if res.Width() != 60 || res.Height() != 100 {
		t.Errorf("Expected 60x100, got %dx%d", res.Width(), res.Height())
	}
}

func TestStitchPartialFailure(t *testing.T) {
	s := New(nil)
	var notices []Notice
	s.OnNotice = func(n Notice) { notices = append(notices, n) }
	importAll(t, s,
		pngFile(t, "a.png", 10, 10),
		File{Name: "broken.png", ContentType: "image/png", Source: entries.NewBlobRef([]byte("not really a png"))},
		pngFile(t, "c.png", 10, 10),
	)

	res, failures, err := s.Stitch(context.Background(), compositor.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Width() != 20 {
		t.Errorf("Expected two images composited, got width %d", res.Width())
	}
	if len(failures) != 1 || failures[0].Name != "broken.png" {
		t.Fatalf("Expected broken.png to fail, got %v", failures)
	}
	if !errors.Is(failures[0], loader.ErrDecodeFailure) {
		t.Errorf("Expected decode failure, got %v", failures[0])
	}
	if len(notices) != 1 || notices[0].Kind != NoticeDecodeFailure {
		t.Errorf("Unexpected notices %+v", notices)
	}
}

func TestStitchEmptyKeepsExportDisabled(t *testing.T) {
	s := New(nil)
	importAll(t, s, File{Name: "bad.gif", ContentType: "image/gif", Source: entries.NewBlobRef([]byte("nope"))})

	_, failures, err := s.Stitch(context.Background(), compositor.Layout{})
	if !errors.Is(err, compositor.ErrEmptyComposite) {
		t.Fatalf("Expected ErrEmptyComposite, got %v", err)
	}
	if len(failures) != 1 {
		t.Errorf("Expected one failure, got %d", len(failures))
	}
	if s.Enabled() {
		t.Errorf("Expected export disabled")
	}

	if _, _, err := New(nil).Stitch(context.Background(), compositor.Layout{}); !errors.Is(err, compositor.ErrEmptyComposite) {
		t.Errorf("Expected ErrEmptyComposite for an empty session, got %v", err)
	}
}

// signalRef announces Open and then blocks until released by gate.
type signalRef struct {
	opened chan struct{}
	gate   chan struct{}
	data   []byte
}

func (r *signalRef) Open(ctx context.Context) (io.ReadCloser, error) {
	close(r.opened)
	select {
	case <-r.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

func (r *signalRef) Release() error { return nil }

func TestStitchSupersededByClear(t *testing.T) {
	s := New(nil)
	f := pngFile(t, "a.png", 4, 4)
	blob, err := f.Source.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(blob)
	ref := &signalRef{opened: make(chan struct{}), gate: make(chan struct{}), data: data}
	importAll(t, s, File{Name: "slow.png", ContentType: "image/png", Source: ref})

	errc := make(chan error, 1)
	go func() {
		_, _, err := s.Stitch(context.Background(), compositor.Layout{})
		errc <- err
	}()

	select {
	case <-ref.opened:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for decode to start")
	}
	s.Clear()
	close(ref.gate)

	select {
	case err := <-errc:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for stitch")
	}
	if s.Enabled() {
		t.Errorf("Expected no composite after clear")
	}
}

func TestStitchSupersededByNewerStitch(t *testing.T) {
	s := New(nil)
	f := pngFile(t, "a.png", 4, 4)
	blob, err := f.Source.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(blob)
	ref := &signalRef{opened: make(chan struct{}), gate: make(chan struct{}), data: data}
	slow := importAll(t, s, File{Name: "slow.png", ContentType: "image/png", Source: ref})

	errc := make(chan error, 1)
	go func() {
		_, _, err := s.Stitch(context.Background(), compositor.Layout{})
		errc <- err
	}()

	select {
	case <-ref.opened:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for decode to start")
	}

	// The second stitch must not touch the gated source.
	if err := s.Remove(slow[0]); err != nil {
		t.Fatal(err)
	}
	importAll(t, s, pngFile(t, "b.png", 6, 3))
	second, _, err := s.Stitch(context.Background(), compositor.Layout{})
	if err != nil {
		t.Fatalf("Second stitch failed: %v", err)
	}
	close(ref.gate)

	select {
	case err := <-errc:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for first stitch")
	}

	got := s.Result()
	if got != second {
		t.Fatalf("Expected the newer composite to remain current")
	}
	if got.Width() != 6 || got.Height() != 3 {
		t.Errorf("Expected 6x3 composite, got %dx%d", got.Width(), got.Height())
	}
}

func TestStitchRejectsOversizedCanvas(t *testing.T) {
	s := New(nil)
	ids := importAll(t, s, pngFile(t, "a.png", 2, 2), pngFile(t, "b.png", 2, 2))

	if err := s.Resize(ids[0], 1<<40, 1<<40); !errors.Is(err, edits.ErrInvalidDimension) {
		t.Fatalf("Expected ErrInvalidDimension, got %v", err)
	}
	for _, id := range ids {
		if err := s.Resize(id, edits.MaxDimension, edits.MaxDimension); err != nil {
			t.Fatal(err)
		}
	}

	_, _, err := s.Stitch(context.Background(), compositor.Layout{})
	if !errors.Is(err, compositor.ErrCanvasTooLarge) {
		t.Fatalf("Expected ErrCanvasTooLarge, got %v", err)
	}
	if s.Enabled() {
		t.Errorf("Expected export disabled")
	}
}

func TestSetZoomBounds(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		wantErr bool
	}{
		{"zero", 0, false},
		{"max", compositor.MaxZoom, false},
		{"negative", -1, true},
		{"above max", compositor.MaxZoom + 1, true},
		{"huge", 1 << 62, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil)
			err := s.SetZoom(tt.percent)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidZoom) {
					t.Errorf("Expected ErrInvalidZoom, got %v", err)
				}
				if s.Zoom() != 100 {
					t.Errorf("Expected zoom unchanged, got %d", s.Zoom())
				}
				return
			}
			if err != nil || s.Zoom() != tt.percent {
				t.Errorf("Expected zoom %d, got %d (%v)", tt.percent, s.Zoom(), err)
			}
		})
	}
}

func TestClearResetsSession(t *testing.T) {
	s := New(nil)
	importAll(t, s, pngFile(t, "a.png", 4, 4))
	if _, _, err := s.Stitch(context.Background(), compositor.Layout{}); err != nil {
		t.Fatal(err)
	}
	_ = s.SetZoom(40)

	s.Clear()
	if len(s.Entries()) != 0 {
		t.Errorf("Expected no entries")
	}
	if s.Enabled() {
		t.Errorf("Expected export disabled")
	}
	if s.Zoom() != 100 {
		t.Errorf("Expected zoom 100, got %d", s.Zoom())
	}
	if err := s.SetZoom(-1); !errors.Is(err, ErrInvalidZoom) {
		t.Errorf("Expected ErrInvalidZoom, got %v", err)
	}
}

func TestRemoveDropsEdits(t *testing.T) {
	s := New(nil)
	ids := importAll(t, s, pngFile(t, "a.png", 4, 4), pngFile(t, "b.png", 4, 4))
	if _, err := s.Rotate(ids[0], edits.Left); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ids[0]); err != nil {
		t.Fatal(err)
	}
	if s.Edit(ids[0]) != (edits.State{}) {
		t.Errorf("Expected edits dropped")
	}
	if err := s.Remove(ids[0]); !errors.Is(err, entries.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.Rotate("missing", edits.Left); !errors.Is(err, entries.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for rotate, got %v", err)
	}
	if _, err := s.Undo("missing"); !errors.Is(err, entries.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for undo, got %v", err)
	}
}

func TestMoveAndUndo(t *testing.T) {
	s := New(nil)
	ids := importAll(t, s, pngFile(t, "a.png", 4, 4), pngFile(t, "b.png", 4, 4), pngFile(t, "c.png", 4, 4))
	if err := s.Move(ids[2], ids[0]); err != nil {
		t.Fatal(err)
	}
	got := s.OrderedIDs()
	if got[0] != ids[2] || got[1] != ids[0] || got[2] != ids[1] {
		t.Errorf("Unexpected order %v", got)
	}

	if err := s.Resize(ids[1], 0, 5); !errors.Is(err, edits.ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
	if err := s.Resize(ids[1], 8, 5); err != nil {
		t.Fatal(err)
	}
	changed, err := s.Undo(ids[1])
	if err != nil || !changed {
		t.Fatalf("Expected undo to change state, got %v %v", changed, err)
	}
	if s.Edit(ids[1]).HasOverride() {
		t.Errorf("Expected override undone")
	}
}

func TestDragRemoveDropsEdits(t *testing.T) {
	s := New(nil)
	ids := importAll(t, s, pngFile(t, "a.png", 4, 4), pngFile(t, "b.png", 4, 4))
	if _, err := s.Rotate(ids[1], edits.Right); err != nil {
		t.Fatal(err)
	}
	hits := reorder.RectHitTester{
		{Kind: reorder.TargetEntry, ID: ids[0], Bounds: reorder.Rect{X: 0, Y: 0, W: 100, H: 20}},
		{Kind: reorder.TargetEntry, ID: ids[1], Bounds: reorder.Rect{X: 0, Y: 20, W: 100, H: 20}},
		{Kind: reorder.TargetRemove, Bounds: reorder.Rect{X: 0, Y: 100, W: 100, H: 20}},
	}

	if err := s.DragPress(ids[1], hits); err != nil {
		t.Fatal(err)
	}
	if err := s.DragMove(reorder.Point{X: 10, Y: 105}, nil); err != nil {
		t.Fatal(err)
	}
	out, err := s.DragRelease(reorder.Point{X: 10, Y: 105}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != reorder.OutcomeRemoved || out.ID != ids[1] {
		t.Fatalf("Expected removal, got %+v", out)
	}
	if len(s.OrderedIDs()) != 1 {
		t.Errorf("Expected one entry left")
	}
	if s.Edit(ids[1]) != (edits.State{}) {
		t.Errorf("Expected edits dropped")
	}
	if src, _, _ := s.DragState(); src != "" {
		t.Errorf("Expected gesture finished, got source %q", src)
	}
}

func TestDragMarkerMove(t *testing.T) {
	s := New(nil)
	ids := importAll(t, s, pngFile(t, "a.png", 4, 4), pngFile(t, "b.png", 4, 4), pngFile(t, "c.png", 4, 4))
	hits := reorder.RectHitTester{
		{Kind: reorder.TargetEntry, ID: ids[0], Bounds: reorder.Rect{X: 0, Y: 0, W: 100, H: 20}},
		{Kind: reorder.TargetEntry, ID: ids[1], Bounds: reorder.Rect{X: 0, Y: 20, W: 100, H: 20}},
		{Kind: reorder.TargetEntry, ID: ids[2], Bounds: reorder.Rect{X: 0, Y: 40, W: 100, H: 20}},
	}
	var shown int
	s.SetMarkerHook(func(m reorder.Marker, on bool) {
		if on {
			shown++
		}
	})

	if err := s.DragPress(ids[2], hits); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.DragMove(reorder.Point{X: 5, Y: 2}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, m, ok := s.DragState(); !ok || m.BeforeID != ids[0] {
		t.Fatalf("Expected marker before first entry, got %+v %v", m, ok)
	}
	if _, err := s.DragRelease(reorder.Point{X: 5, Y: 2}, nil); err != nil {
		t.Fatal(err)
	}
	if shown != 1 {
		t.Errorf("Expected marker drawn once, got %d", shown)
	}
	got := s.OrderedIDs()
	if got[0] != ids[2] {
		t.Errorf("Expected %s first, got %v", ids[2], got)
	}
}
