package sink

import (
	"bytes"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/evsingleline/singleline/pkg/diagram"
)

// RenderPDF draws l on a single page sized to the layout.
func RenderPDF(l diagram.Layout) ([]byte, error) {
	if l.Empty() {
		return nil, diagram.ErrEmptyLayout
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: l.Width, Ht: l.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	DrawPDF(pdf, l, 0, 0, l.Width)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DrawPDF draws l onto the current page of pdf with its top-left corner at
// (x, y), scaled down to fit maxW. It returns the drawn height. Coordinates
// are in the document's unit.
func DrawPDF(pdf *gofpdf.Fpdf, l diagram.Layout, x, y, maxW float64) float64 {
	if l.Empty() {
		return 0
	}
	scale := 1.0
	if maxW > 0 && l.Width > maxW {
		scale = maxW / l.Width
	}
	d := pdfDrawer{
		pdf: pdf,
		x:   x,
		y:   y,
		k:   scale,
		fk:  scale * pdf.GetConversionRatio(),
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}

	d.fill(ColorBackground)
	pdf.Rect(x, y, l.Width*scale, l.Height*scale, "F")

	for _, e := range l.Edges {
		d.edge(e)
	}
	for _, n := range l.Nodes {
		d.node(n)
	}
	pdf.SetDashPattern(nil, 0)
	return l.Height * scale
}

// pdfDrawer maps layout units to document units by k and to font points
// by fk.
type pdfDrawer struct {
	pdf  *gofpdf.Fpdf
	x, y float64
	k    float64
	fk   float64
	tr   func(string) string
}

func (d pdfDrawer) pt(x, y float64) (float64, float64) { return d.x + x*d.k, d.y + y*d.k }

func (d pdfDrawer) draw(hex string) {
	r, g, b := rgb(hex)
	d.pdf.SetDrawColor(r, g, b)
}

func (d pdfDrawer) fill(hex string) {
	r, g, b := rgb(hex)
	d.pdf.SetFillColor(r, g, b)
}

func (d pdfDrawer) text(hex string) {
	r, g, b := rgb(hex)
	d.pdf.SetTextColor(r, g, b)
}

func (d pdfDrawer) edge(e diagram.Edge) {
	d.pdf.SetDashPattern(nil, 0)
	width := 1.5
	switch e.Kind {
	case diagram.EdgeBus:
		d.draw(ColorBus)
		width = 3
	case diagram.EdgeCoupling:
		d.draw(ColorTransform)
		d.pdf.SetDashPattern([]float64{2 * d.k, 2 * d.k}, 0)
	default:
		d.draw(ColorWire)
	}
	d.pdf.SetLineWidth(width * d.k)
	for i := 1; i < len(e.Points); i++ {
		x1, y1 := d.pt(e.Points[i-1].X, e.Points[i-1].Y)
		x2, y2 := d.pt(e.Points[i].X, e.Points[i].Y)
		d.pdf.Line(x1, y1, x2, y2)
	}
}

func (d pdfDrawer) node(n diagram.Node) {
	color := NodeColor(n)
	x, y := d.pt(n.X, n.Y)
	w, h := n.W*d.k, n.H*d.k
	cx := x + w/2
	maxLabel, maxSub := labelLimit(n)

	d.pdf.SetDashPattern(nil, 0)
	d.draw(color)
	d.pdf.SetLineWidth(1.5 * d.k)

	if n.Kind == diagram.KindPrimary || n.Kind == diagram.KindSecondary {
		r := h / 2
		d.fill("#ffffff")
		d.pdf.Circle(cx, y+r, r, "FD")
		d.text(ColorText)
		d.pdf.SetFont("Helvetica", "B", 8*d.fk)
		d.pdf.Text(cx+r+4*d.k, y+r-1*d.k, d.tr(truncate(n.Label, maxLabel)))
		d.text(ColorSubtext)
		d.pdf.SetFont("Helvetica", "", 7*d.fk)
		d.pdf.Text(cx+r+4*d.k, y+r+8*d.k, d.tr(truncate(n.Sublabel, maxSub)))
		return
	}

	if n.Kind == diagram.KindMDP || n.Kind == diagram.KindService {
		d.pdf.SetLineWidth(2.5 * d.k)
	}
	if n.New {
		d.pdf.SetDashPattern([]float64{6 * d.k, 3 * d.k}, 0)
	}
	d.fill("#ffffff")
	d.pdf.Rect(x, y, w, h, "FD")
	d.pdf.SetDashPattern(nil, 0)
	d.fill(color)
	d.pdf.Rect(x, y, w, math.Min(4*d.k, h), "F")

	labelSize, subSize := 10.0, 8.0
	labelY, subY := 24.0, 42.0
	if n.Kind == diagram.KindBreaker || n.Kind == diagram.KindFeeder {
		labelSize, subSize = 8, 7
		labelY, subY = 18, 32
	}
	d.centered(truncate(n.Label, maxLabel), cx, y+labelY*d.k, "B", labelSize*d.fk, ColorText)
	if n.Sublabel != "" {
		d.centered(truncate(n.Sublabel, maxSub), cx, y+subY*d.k, "", subSize*d.fk, ColorSubtext)
	}
}

func (d pdfDrawer) centered(s string, cx, baseline float64, style string, size float64, color string) {
	s = d.tr(s)
	d.pdf.SetFont("Helvetica", style, size)
	d.text(color)
	d.pdf.Text(cx-d.pdf.GetStringWidth(s)/2, baseline, s)
}
