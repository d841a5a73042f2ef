package shape

import "math"

// DefaultEraserRadius is half of the 20px eraser used by the drawing client.
const DefaultEraserRadius = 10.0

func dist(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

// HitBy overlaps the eraser's square (p ± r) with the rectangle's
// normalized bounding box, so negative drag deltas hit the same area.
func (s *Rect) HitBy(p Point, r float64) bool {
	minX, maxX := s.X, s.X+s.Width
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := s.Y, s.Y+s.Height
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return !(p.X+r < minX || p.X-r > maxX || p.Y+r < minY || p.Y-r > maxY)
}

func (s *Circle) HitBy(p Point, r float64) bool {
	return dist(p.X, p.Y, s.CenterX, s.CenterY) < math.Abs(s.Radius)+r
}

// HitBy tests the stroke's vertices only; segments between them are not sampled.
func (s *Pencil) HitBy(p Point, r float64) bool {
	for _, v := range s.Points {
		if dist(p.X, p.Y, v.X, v.Y) < r {
			return true
		}
	}
	return false
}

func (s *Arrow) HitBy(p Point, r float64) bool {
	if dist(p.X, p.Y, s.StartX, s.StartY) < r || dist(p.X, p.Y, s.EndX, s.EndY) < r {
		return true
	}
	dx, dy := s.EndX-s.StartX, s.EndY-s.StartY
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return false
	}
	t := ((p.X-s.StartX)*dx + (p.Y-s.StartY)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return dist(p.X, p.Y, s.StartX+t*dx, s.StartY+t*dy) < r
}

// Partition splits shapes into those the eraser at p misses (kept) and
// those it touches (removed). Order within each result follows the input.
func Partition(shapes []Shape, p Point, r float64) (kept, removed []Shape) {
	kept = make([]Shape, 0, len(shapes))
	for _, s := range shapes {
		if s.HitBy(p, r) {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, removed
}
