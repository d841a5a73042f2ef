package canvas

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/a-essam23/syncboard/pkg/shape"
)

// PDF is a single-page document surface measured in points, one point per
// canvas pixel.
type PDF struct {
	doc           *gofpdf.Fpdf
	width, height float64
}

var _ Surface = (*PDF)(nil)

func NewPDF(width, height float64) *PDF {
	// "P" keeps Size as given; "L" would swap width and height.
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	doc.SetLineWidth(LineWidth)
	doc.SetDrawColor(255, 255, 255)
	doc.SetLineCapStyle("round")
	doc.SetLineJoinStyle("round")
	return &PDF{doc: doc, width: width, height: height}
}

func (p *PDF) Clear() {
	p.doc.SetFillColor(0, 0, 0)
	p.doc.Rect(0, 0, p.width, p.height, "F")
}

func (p *PDF) StrokeRect(x, y, w, h float64) { p.doc.Rect(x, y, w, h, "D") }

func (p *PDF) StrokeCircle(cx, cy, r float64) { p.doc.Circle(cx, cy, r, "D") }

func (p *PDF) StrokeLine(x1, y1, x2, y2 float64) { p.doc.Line(x1, y1, x2, y2) }

func (p *PDF) StrokePolyline(pts []shape.Point) {
	p.doc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.doc.LineTo(pt.X, pt.Y)
	}
	p.doc.DrawPath("D")
}

// Output writes the document to w and closes it.
func (p *PDF) Output(w io.Writer) error { return p.doc.Output(w) }

func (p *PDF) SaveFile(path string) error { return p.doc.OutputFileAndClose(path) }

// Err reports the first error the document accumulated.
func (p *PDF) Err() error { return p.doc.Error() }
