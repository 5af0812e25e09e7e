// Package compositor lays out and draws ordered bitmaps into one canvas.
package compositor

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Direction is the main axis of the stitch.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	default:
		return Horizontal, fmt.Errorf("unknown direction %q", s)
	}
}

// Aspect controls the cross-axis extent of each placed image.
type Aspect int

const (
	// AspectNone keeps each image at its effective size.
	AspectNone Aspect = iota
	// AspectStretch stretches every image across the full cross extent.
	AspectStretch
)

type BorderKind int

const (
	BorderNone BorderKind = iota
	// BorderAround frames every entry individually.
	BorderAround
	// BorderSeparator draws one bar between adjacent entries.
	BorderSeparator
)

func (k BorderKind) String() string {
	switch k {
	case BorderAround:
		return "around"
	case BorderSeparator:
		return "separator"
	default:
		return "none"
	}
}

func ParseBorderKind(s string) (BorderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BorderNone, nil
	case "around":
		return BorderAround, nil
	case "separator":
		return BorderSeparator, nil
	default:
		return BorderNone, fmt.Errorf("unknown border type %q", s)
	}
}

type Border struct {
	Kind      BorderKind
	Thickness int
	Color     color.Color
}

func (b Border) active() bool {
	return b.Kind != BorderNone && b.Thickness > 0
}

// Layout is read once per stitch.
type Layout struct {
	Direction Direction
	Aspect    Aspect
	Border    Border
	// Background fills the canvas first; nil leaves it transparent.
	Background color.Color
}

// ParseColor parses a hex color such as "#ff8800".
func ParseColor(s string) (color.Color, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// FormatColor renders c as a "#rrggbb" string.
func FormatColor(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
