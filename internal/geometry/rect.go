// Package geometry provides the rectangle primitives shared by the
// detection pipeline and identity matching.
package geometry

// Rect is an axis-aligned rectangle in pixel coordinates.
// Width and height are expected to be positive.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the rectangle's area in pixels.
func (r Rect) Area() int {
	return r.W * r.H
}

// Intersects reports whether r and other share at least one pixel.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// Overlap computes Intersection over Union between two rectangles.
// Returns 0 when the rectangles do not intersect or the union area is zero.
// Symmetric: Overlap(a, b) == Overlap(b, a).
func Overlap(a, b Rect) float64 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.W, b.X+b.W)
	y2 := min(a.Y+a.H, b.Y+b.H)

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection

	if union <= 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// Scale returns r with every coordinate multiplied by factor.
// Width and height never drop below 1.
func (r Rect) Scale(factor float64) Rect {
	return Rect{
		X: int(float64(r.X) * factor),
		Y: int(float64(r.Y) * factor),
		W: max(1, int(float64(r.W)*factor)),
		H: max(1, int(float64(r.H)*factor)),
	}
}

// Clamp returns r constrained to lie fully inside a width×height frame:
// x,y >= 0, w,h >= 1, x+w <= width, y+h <= height.
func (r Rect) Clamp(width, height int) Rect {
	w := max(1, min(r.W, width))
	h := max(1, min(r.H, height))
	x := max(0, min(r.X, width-w))
	y := max(0, min(r.Y, height-h))
	return Rect{X: x, Y: y, W: w, H: h}
}

// FromCorners builds a Rect from [x1, y1, x2, y2] corner coordinates.
// Degenerate corners still produce a rectangle of at least 1x1.
func FromCorners(x1, y1, x2, y2 int) Rect {
	return Rect{
		X: x1,
		Y: y1,
		W: max(1, x2-x1),
		H: max(1, y2-y1),
	}
}
