package compositor

import (
	"image"
	"math"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// Result is a finished composite.
type Result struct {
	Canvas     *image.RGBA
	Placements []Placement
	Separators []image.Rectangle
	Frames     []image.Rectangle
}

func (r *Result) Width() int {
	return r.Canvas.Bounds().Dx()
}

func (r *Result) Height() int {
	return r.Canvas.Bounds().Dy()
}

// EncodePNG writes the canvas losslessly.
func (r *Result) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, r.Canvas)
}

// MaxZoom is the largest zoom percentage.
const MaxZoom = 1000

// DisplaySize is the on-screen size at a zoom percentage clamped to
// [0, MaxZoom].
func (r *Result) DisplaySize(percent int) (int, int) {
	percent = min(max(percent, 0), MaxZoom)
	return r.Width() * percent / 100, r.Height() * percent / 100
}

// Preview returns the canvas scaled to a zoom percentage.
func (r *Result) Preview(percent int) image.Image {
	if percent == 100 {
		return r.Canvas
	}
	w, h := r.DisplaySize(percent)
	if w*h > MaxPixels {
		f := math.Sqrt(float64(MaxPixels) / (float64(w) * float64(h)))
		w, h = int(float64(w)*f), int(float64(h)*f)
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), r.Canvas, r.Canvas.Bounds(), xdraw.Src, nil)
	return out
}
