// Package canvas draws a scene onto a 2D surface: a raster image for PNG
// output or a PDF page. Every render is a full repaint from the shape list.
package canvas

import (
	"math"

	"github.com/a-essam23/syncboard/pkg/shape"
)

const (
	LineWidth       = 2.0
	ArrowHeadLength = 15.0
	ArrowHeadAngle  = math.Pi / 6
)

// Surface is a drawing target. Implementations paint with a white stroke
// of LineWidth on a black background.
type Surface interface {
	// Clear fills the whole surface with the background.
	Clear()
	StrokeRect(x, y, w, h float64)
	StrokeCircle(cx, cy, r float64)
	StrokeLine(x1, y1, x2, y2 float64)
	// StrokePolyline draws an open path through pts.
	StrokePolyline(pts []shape.Point)
}

// Render clears s and paints shapes in order. The same input always yields
// the same drawing calls.
func Render(s Surface, shapes []shape.Shape) {
	s.Clear()
	for _, sh := range shapes {
		Draw(s, sh)
	}
}

// Draw paints one shape without clearing.
func Draw(s Surface, sh shape.Shape) {
	switch v := sh.(type) {
	case *shape.Rect:
		x, y, w, h := v.X, v.Y, v.Width, v.Height
		if w < 0 {
			x, w = x+w, -w
		}
		if h < 0 {
			y, h = y+h, -h
		}
		s.StrokeRect(x, y, w, h)
	case *shape.Circle:
		s.StrokeCircle(v.CenterX, v.CenterY, math.Abs(v.Radius))
	case *shape.Pencil:
		// a single point has no visible segment
		if len(v.Points) > 1 {
			s.StrokePolyline(v.Points)
		}
	case *shape.Arrow:
		s.StrokeLine(v.StartX, v.StartY, v.EndX, v.EndY)
		left, right := ArrowHead(v)
		s.StrokeLine(v.EndX, v.EndY, left.X, left.Y)
		s.StrokeLine(v.EndX, v.EndY, right.X, right.Y)
	}
}

// ArrowHead returns the two barb ends of a's head, each ArrowHeadLength
// back from the tip at ±ArrowHeadAngle to the shaft.
func ArrowHead(a *shape.Arrow) (left, right shape.Point) {
	angle := math.Atan2(a.EndY-a.StartY, a.EndX-a.StartX)
	left = shape.Point{
		X: a.EndX - ArrowHeadLength*math.Cos(angle-ArrowHeadAngle),
		Y: a.EndY - ArrowHeadLength*math.Sin(angle-ArrowHeadAngle),
	}
	right = shape.Point{
		X: a.EndX - ArrowHeadLength*math.Cos(angle+ArrowHeadAngle),
		Y: a.EndY - ArrowHeadLength*math.Sin(angle+ArrowHeadAngle),
	}
	return left, right
}
