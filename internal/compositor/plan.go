package compositor

import (
	"errors"
	"fmt"
	"image"

	"github.com/lehigh-university-libraries/stitcher/internal/edits"
)

var (
	ErrEmptyComposite = errors.New("nothing to composite")
	ErrCanvasTooLarge = errors.New("composite canvas too large")
)

const (
	// MaxDimension bounds either side of the canvas.
	MaxDimension = 1 << 16
	// MaxPixels bounds the canvas area, 512 MiB of RGBA.
	MaxPixels = 1 << 27
)

// Item is one resolved entry in composite order.
type Item struct {
	ID    string
	Name  string
	Image image.Image
	Edit  edits.State
}

// Placement is where an entry's pixels land on the canvas.
type Placement struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Rotation int    `json:"rotation"`
}

func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Plan is the computed geometry of one composite.
type Plan struct {
	Width      int
	Height     int
	Placements []Placement
	// Frames are the outer rectangles of per-entry borders.
	Frames []image.Rectangle
	// Separators are the bars between adjacent entries.
	Separators []image.Rectangle
}

// axisRect builds a rectangle from main/cross coordinates.
func axisRect(dir Direction, main, cross, mainLen, crossLen int) image.Rectangle {
	if dir == Vertical {
		return image.Rect(cross, main, cross+crossLen, main+mainLen)
	}
	return image.Rect(main, cross, main+mainLen, cross+crossLen)
}

// NewPlan computes canvas size and destination rectangles.
func NewPlan(items []Item, layout Layout) (*Plan, error) {
	if len(items) == 0 {
		return nil, ErrEmptyComposite
	}

	mains := make([]int, len(items))
	crosses := make([]int, len(items))
	sumMain, maxCross := 0, 0
	for i, it := range items {
		if it.Image == nil {
			return nil, fmt.Errorf("entry %s has no bitmap", it.Name)
		}
		b := it.Image.Bounds()
		w, h := edits.EffectiveSize(b.Dx(), b.Dy(), it.Edit)
		if w > MaxDimension || h > MaxDimension {
			return nil, fmt.Errorf("%w: entry %s is %dx%d", ErrCanvasTooLarge, it.Name, w, h)
		}
		if layout.Direction == Vertical {
			mains[i], crosses[i] = h, w
		} else {
			mains[i], crosses[i] = w, h
		}
		sumMain += mains[i]
		if sumMain > MaxDimension {
			return nil, fmt.Errorf("%w: more than %d pixels along the stitch direction", ErrCanvasTooLarge, MaxDimension)
		}
		maxCross = max(maxCross, crosses[i])
	}

	t := 0
	if layout.Border.active() {
		t = layout.Border.Thickness
	}
	if t > MaxDimension {
		return nil, fmt.Errorf("%w: border thickness %d", ErrCanvasTooLarge, t)
	}
	borderMain, borderCross := 0, 0
	switch {
	case t == 0:
	case layout.Border.Kind == BorderAround:
		borderMain = 2 * t * len(items)
		borderCross = 2 * t
	case layout.Border.Kind == BorderSeparator:
		borderMain = (len(items) - 1) * t
	}

	canvasMain := sumMain + borderMain
	canvasCross := maxCross + borderCross
	if canvasMain > MaxDimension || canvasCross > MaxDimension || canvasMain*canvasCross > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, canvasMain, canvasCross)
	}
	p := &Plan{}
	if layout.Direction == Vertical {
		p.Width, p.Height = canvasCross, canvasMain
	} else {
		p.Width, p.Height = canvasMain, canvasCross
	}

	cursor := 0
	for i, it := range items {
		placedMain, placedCross := mains[i], crosses[i]
		if layout.Aspect == AspectStretch {
			placedCross = maxCross
		}

		var r image.Rectangle
		switch {
		case t > 0 && layout.Border.Kind == BorderAround:
			r = axisRect(layout.Direction, cursor+t, t, placedMain, placedCross)
			p.Frames = append(p.Frames, axisRect(layout.Direction, cursor, 0, placedMain+2*t, placedCross+2*t))
			cursor += placedMain + 2*t
		case t > 0 && layout.Border.Kind == BorderSeparator:
			r = axisRect(layout.Direction, cursor, 0, placedMain, placedCross)
			cursor += placedMain
			if i < len(items)-1 {
				p.Separators = append(p.Separators, axisRect(layout.Direction, cursor, 0, t, canvasCross))
				cursor += t
			}
		default:
			r = axisRect(layout.Direction, cursor, 0, placedMain, placedCross)
			cursor += placedMain
		}

		p.Placements = append(p.Placements, Placement{
			ID:       it.ID,
			Name:     it.Name,
			X:        r.Min.X,
			Y:        r.Min.Y,
			Width:    r.Dx(),
			Height:   r.Dy(),
			Rotation: it.Edit.Rotation,
		})
	}

	return p, nil
}
