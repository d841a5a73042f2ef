// Package scene holds the ordered shape collection of a single room.
package scene

import (
	"github.com/a-essam23/syncboard/pkg/shape"
)

// Scene is an ordered sequence of shapes. Order only matters for replay;
// erase treats the scene as a set. Scene is not safe for concurrent use,
// its owner serializes access.
type Scene struct {
	shapes []shape.Shape
}

func New(shapes ...shape.Shape) *Scene {
	s := &Scene{}
	s.Replace(shapes)
	return s
}

func (s *Scene) Append(sh shape.Shape) {
	s.shapes = append(s.shapes, sh)
}

// Replace discards the current content and installs a copy of shapes.
func (s *Scene) Replace(shapes []shape.Shape) {
	s.shapes = append(make([]shape.Shape, 0, len(shapes)), shapes...)
}

// Shapes returns a copy of the current sequence.
func (s *Scene) Shapes() shape.List {
	return append(make(shape.List, 0, len(s.shapes)), s.shapes...)
}

func (s *Scene) Len() int { return len(s.shapes) }

// Contains reports whether an equal shape is already present.
func (s *Scene) Contains(sh shape.Shape) bool {
	for _, existing := range s.shapes {
		if shape.Equal(existing, sh) {
			return true
		}
	}
	return false
}

// EraseAt removes every shape the eraser at p with radius r touches and
// returns how many were removed.
func (s *Scene) EraseAt(p shape.Point, r float64) int {
	kept, removed := shape.Partition(s.shapes, p, r)
	if len(removed) > 0 {
		s.shapes = kept
	}
	return len(removed)
}

// Equal reports whether both scenes hold equal shapes in the same order.
func Equal(a, b *Scene) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.shapes {
		if !shape.Equal(a.shapes[i], b.shapes[i]) {
			return false
		}
	}
	return true
}
