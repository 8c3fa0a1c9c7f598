package sink

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/evsingleline/singleline/pkg/diagram"
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title  string
	legend bool
}

// WithTitle sets the document title element.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithLegend draws the color legend in the bottom-right corner.
func WithLegend() SVGOption { return func(r *svgRenderer) { r.legend = true } }

// RenderSVG draws l as a standalone SVG document.
func RenderSVG(l diagram.Layout, opts ...SVGOption) ([]byte, error) {
	if l.Empty() {
		return nil, diagram.ErrEmptyLayout
	}
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	w, h := px(l.Width), px(l.Height)
	if r.legend {
		h += legendH + 10
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(w, h, 0, 0, w, h)
	if r.title != "" {
		canvas.Title(r.title)
	}
	canvas.Roundrect(0, 0, w, h, 8, 8, "fill:"+ColorBackground)

	canvas.Gid("edges")
	for _, e := range l.Edges {
		drawSVGEdge(canvas, e)
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range l.Nodes {
		drawSVGNode(canvas, n)
	}
	canvas.Gend()

	if r.legend {
		drawSVGLegend(canvas, w-legendW-10, h-legendH-10)
	}
	canvas.End()
	return buf.Bytes(), nil
}

func drawSVGEdge(c *svg.SVG, e diagram.Edge) {
	xs := make([]int, len(e.Points))
	ys := make([]int, len(e.Points))
	for i, p := range e.Points {
		xs[i], ys[i] = px(p.X), px(p.Y)
	}
	style := "fill:none;stroke:" + ColorWire + ";stroke-width:1.5"
	switch e.Kind {
	case diagram.EdgeBus:
		style = "fill:none;stroke:" + ColorBus + ";stroke-width:3"
	case diagram.EdgeCoupling:
		style = "fill:none;stroke:" + ColorTransform + ";stroke-width:1.5;stroke-dasharray:2,2"
	}
	c.Polyline(xs, ys, `id="`+e.ID+`"`, `style="`+style+`"`)
}

func drawSVGNode(c *svg.SVG, n diagram.Node) {
	color := NodeColor(n)
	x, y, w, h := px(n.X), px(n.Y), px(n.W), px(n.H)
	cx := px(n.CenterX())
	maxLabel, maxSub := labelLimit(n)

	c.Gid(n.ID)
	defer c.Gend()

	if n.Kind == diagram.KindPrimary || n.Kind == diagram.KindSecondary {
		r := h / 2
		c.Circle(cx, y+r, r, fmt.Sprintf("fill:white;stroke:%s;stroke-width:1.5", color))
		c.Text(cx+r+6, y+r-2, truncate(n.Label, maxLabel), "font-size:10px;font-weight:600;fill:"+ColorText)
		c.Text(cx+r+6, y+r+10, truncate(n.Sublabel, maxSub), "font-size:9px;fill:"+ColorSubtext)
		return
	}

	rx := 4
	if n.Kind == diagram.KindCharger {
		rx = 8
	}
	stroke := 1.5
	if n.Kind == diagram.KindMDP || n.Kind == diagram.KindService {
		stroke = 2.5
	}
	style := fmt.Sprintf("fill:white;stroke:%s;stroke-width:%g", color, stroke)
	if n.New {
		style += ";stroke-dasharray:6,3"
	}
	c.Roundrect(x, y, w, h, rx, rx, style)
	c.Roundrect(x, y, w, 4, rx, rx, "fill:"+color)

	labelSize, subSize := 12, 10
	labelY, subY := y+24, y+42
	switch n.Kind {
	case diagram.KindCharger:
		labelSize = 11
	case diagram.KindBreaker, diagram.KindFeeder:
		labelSize, subSize = 10, 9
		labelY, subY = y+18, y+32
	}
	c.Text(cx, labelY, truncate(n.Label, maxLabel),
		fmt.Sprintf("text-anchor:middle;font-size:%dpx;font-weight:600;fill:%s", labelSize, ColorText))
	if n.Sublabel != "" {
		c.Text(cx, subY, truncate(n.Sublabel, maxSub),
			fmt.Sprintf("text-anchor:middle;font-size:%dpx;fill:%s", subSize, ColorSubtext))
	}

	switch n.Kind {
	case diagram.KindService, diagram.KindMDP, diagram.KindPanel, diagram.KindFeeder:
		mark := fmt.Sprintf("stroke:%s;stroke-width:1.5", color)
		c.Line(cx-4, y-6, cx+4, y+2, mark)
		c.Line(cx+4, y-6, cx-4, y+2, mark)
	}
}

const (
	legendW = 170
	legendH = 104
)

func drawSVGLegend(c *svg.SVG, x, y int) {
	c.Gid("legend")
	defer c.Gend()
	c.Roundrect(x, y, legendW, legendH, 4, 4, "fill:white;stroke:#e2e8f0")
	c.Text(x+8, y+16, "LEGEND", "font-size:9px;font-weight:600;fill:#475569")
	for i, item := range legendItems {
		col, row := i%2, i/2
		ix, iy := x+8+col*80, y+22+row*12
		c.Roundrect(ix, iy, 12, 8, 2, 2, "fill:"+item.color)
		c.Text(ix+16, iy+8, item.label, "font-size:9px;fill:"+ColorSubtext)
	}
}
