package canvas

import (
	"image"
	"io"

	"github.com/fogleman/gg"

	"github.com/a-essam23/syncboard/pkg/shape"
)

// Raster is an in-memory bitmap surface.
type Raster struct {
	dc *gg.Context
}

var _ Surface = (*Raster)(nil)

func NewRaster(width, height int) *Raster {
	dc := gg.NewContext(width, height)
	dc.SetLineWidth(LineWidth)
	return &Raster{dc: dc}
}

func (r *Raster) Clear() {
	r.dc.SetRGB(0, 0, 0)
	r.dc.Clear()
	r.dc.SetRGB(1, 1, 1)
}

func (r *Raster) StrokeRect(x, y, w, h float64) {
	r.dc.DrawRectangle(x, y, w, h)
	r.dc.Stroke()
}

func (r *Raster) StrokeCircle(cx, cy, radius float64) {
	r.dc.DrawCircle(cx, cy, radius)
	r.dc.Stroke()
}

func (r *Raster) StrokeLine(x1, y1, x2, y2 float64) {
	r.dc.DrawLine(x1, y1, x2, y2)
	r.dc.Stroke()
}

func (r *Raster) StrokePolyline(pts []shape.Point) {
	r.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
	r.dc.Stroke()
}

// Image is the current bitmap. It aliases the surface's pixels.
func (r *Raster) Image() image.Image { return r.dc.Image() }

func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

func (r *Raster) SavePNG(path string) error { return r.dc.SavePNG(path) }
