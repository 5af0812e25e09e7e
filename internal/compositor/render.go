package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	xdraw "golang.org/x/image/draw"
)

// Render draws items into a new canvas following layout. The caller keeps
// ownership of the item bitmaps.
func Render(items []Item, layout Layout) (*Result, error) {
	plan, err := NewPlan(items, layout)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, plan.Width, plan.Height))
	if layout.Background != nil {
		draw.Draw(canvas, canvas.Bounds(), &image.Uniform{layout.Background}, image.Point{}, draw.Src)
	}

	for i, it := range items {
		dst := plan.Placements[i].Rect()
		src := rotate(it.Image, it.Edit.Rotation)
		sb := src.Bounds()
		if sb.Dx() == dst.Dx() && sb.Dy() == dst.Dy() {
			draw.Draw(canvas, dst, src, sb.Min, draw.Over)
		} else {
			xdraw.CatmullRom.Scale(canvas, dst, src, sb, xdraw.Over, nil)
		}
	}

	if layout.Border.active() {
		fill := &image.Uniform{borderColor(layout.Border.Color)}
		t := layout.Border.Thickness
		for _, f := range plan.Frames {
			strokeRect(canvas, f, t, fill)
		}
		for _, s := range plan.Separators {
			draw.Draw(canvas, s, fill, image.Point{}, draw.Src)
		}
	}

	slog.Debug("Composite rendered",
		"entries", len(items),
		"width", plan.Width,
		"height", plan.Height,
		"direction", layout.Direction.String(),
		"border", layout.Border.Kind.String())

	return &Result{
		Canvas:     canvas,
		Placements: plan.Placements,
		Separators: plan.Separators,
		Frames:     plan.Frames,
	}, nil
}

func borderColor(c color.Color) color.Color {
	if c == nil {
		return color.Black
	}
	return c
}

// strokeRect paints a frame of thickness t just inside r.
func strokeRect(dst draw.Image, r image.Rectangle, t int, src image.Image) {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+t, r.Min.X+t, r.Max.Y-t),
		image.Rect(r.Max.X-t, r.Min.Y+t, r.Max.X, r.Max.Y-t),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// rotate returns src turned clockwise by a multiple of 90 degrees into a
// new surface anchored at the origin.
func rotate(src image.Image, degrees int) image.Image {
	degrees = ((degrees % 360) + 360) % 360
	if degrees == 0 {
		return src
	}

	in := toRGBA(src)
	w, h := in.Bounds().Dx(), in.Bounds().Dy()
	var out *image.RGBA
	if degrees == 180 {
		out = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch degrees {
			case 90:
				dx, dy = h-1-y, x
			case 180:
				dx, dy = w-1-x, h-1-y
			case 270:
				dx, dy = y, w-1-x
			}
			si := in.PixOffset(x, y)
			di := out.PixOffset(dx, dy)
			copy(out.Pix[di:di+4], in.Pix[si:si+4])
		}
	}
	return out
}

// toRGBA returns src as an origin-anchored *image.RGBA, converting when needed.
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}
