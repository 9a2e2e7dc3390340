package domain

import "fmt"

type Point struct {
	X int
	Y int
}

func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Size holds image dimensions. Zero means unknown.
type Size struct {
	Width  int
	Height int
}

func NewSize(width, height int) Size {
	return Size{Width: max(width, 0), Height: max(height, 0)}
}

func (s Size) IsEmpty() bool {
	return s.Width == 0 || s.Height == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

func NewRectangle(x, y, width, height int) Rectangle {
	return Rectangle{X: x, Y: y, Width: max(width, 0), Height: max(height, 0)}
}

func RectangleAt(p Point, s Size) Rectangle {
	return NewRectangle(p.X, p.Y, s.Width, s.Height)
}

func (r Rectangle) Point() Point {
	return Point{X: r.X, Y: r.Y}
}

func (r Rectangle) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Within reports whether r lies fully inside an area of the given size.
func (r Rectangle) Within(s Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= s.Width && r.Y+r.Height <= s.Height
}

// Clamp moves and shrinks r so that it lies inside an area of the given size.
func (r Rectangle) Clamp(s Size) Rectangle {
	w := min(r.Width, s.Width)
	h := min(r.Height, s.Height)
	x := min(max(r.X, 0), s.Width-w)
	y := min(max(r.Y, 0), s.Height-h)
	return NewRectangle(x, y, w, h)
}

func (r Rectangle) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
