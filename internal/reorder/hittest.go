package reorder

// Point is a pointer or touch position in screen coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a screen rectangle.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// UpperHalf reports whether p lies above the vertical midpoint of r.
func (r Rect) UpperHalf(p Point) bool {
	return 2*(p.Y-r.Y) < r.H
}

type TargetKind int

const (
	TargetEntry TargetKind = iota
	TargetRemove
)

// Target is whatever lies under the pointer.
type Target struct {
	Kind   TargetKind
	ID     string
	Bounds Rect
}

// HitTester resolves a screen point to a target. It is supplied by the UI.
type HitTester interface {
	HitTest(p Point) (Target, bool)
}

// HitTestFunc adapts a function to HitTester.
type HitTestFunc func(p Point) (Target, bool)

func (f HitTestFunc) HitTest(p Point) (Target, bool) {
	return f(p)
}

// RectHitTester hit-tests against a fixed set of rectangles, first match wins.
type RectHitTester []Target

func (r RectHitTester) HitTest(p Point) (Target, bool) {
	for _, t := range r {
		if t.Bounds.Contains(p) {
			return t, true
		}
	}
	return Target{}, false
}
