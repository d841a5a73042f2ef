// Package shape defines the closed set of drawable primitives shared by the
// server and the client, their wire encoding, and eraser hit-testing.
package shape

// Kind is the wire discriminator of a Shape.
type Kind string

const (
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindPencil Kind = "pencil"
	KindArrow  Kind = "arrow"
)

// Shape is one immutable drawable primitive. The variant set is fixed:
// *Rect, *Circle, *Pencil and *Arrow are the only implementations.
type Shape interface {
	Kind() Kind
	// HitBy reports whether an eraser of radius r centered at p touches the shape.
	HitBy(p Point, r float64) bool
	isShape()
}

// Point is a position in canvas pixel space, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is anchored at (X, Y). Width and Height are signed drag deltas.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Circle radius is treated as its absolute value when drawn or hit-tested.
type Circle struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Radius  float64 `json:"radius"`
}

// Pencil is a freehand stroke through Points, in drawing order.
type Pencil struct {
	Points []Point `json:"points"`
}

type Arrow struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

func (*Rect) Kind() Kind   { return KindRect }
func (*Circle) Kind() Kind { return KindCircle }
func (*Pencil) Kind() Kind { return KindPencil }
func (*Arrow) Kind() Kind  { return KindArrow }

func (*Rect) isShape()   {}
func (*Circle) isShape() {}
func (*Pencil) isShape() {}
func (*Arrow) isShape()  {}

// Equal reports whether a and b are the same variant with the same values.
func Equal(a, b Shape) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ka, errA := Key(a)
	kb, errB := Key(b)
	return errA == nil && errB == nil && ka == kb
}
