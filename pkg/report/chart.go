package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/evsingleline/singleline/pkg/compliance"
)

// ErrNoPanels is returned by [LoadChart] for a report without panels.
var ErrNoPanels = errors.New("report: no panels to chart")

// Chart formats accepted by [LoadChart].
const (
	ChartPNG = "png"
	ChartSVG = "svg"
)

var (
	loadColor   = color.RGBA{R: 0xd9, G: 0x77, B: 0x06, A: 0xff}
	demandColor = color.RGBA{R: 0x7c, G: 0x3a, B: 0xed, A: 0xff}
	mainColor   = color.RGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}
)

// LoadChart draws a grouped bar chart of connected load and NEC demand per
// panel, with each panel's main breaker rating as a marker.
func LoadChart(r compliance.Report, format string) ([]byte, error) {
	if len(r.Panels) == 0 {
		return nil, ErrNoPanels
	}
	if format != ChartPNG && format != ChartSVG {
		return nil, fmt.Errorf("report: unsupported chart format %q", format)
	}

	names := make([]string, len(r.Panels))
	loads := make(plotter.Values, len(r.Panels))
	demand := make(plotter.Values, len(r.Panels))
	mains := make(plotter.XYs, 0, len(r.Panels))
	for i, p := range r.Panels {
		names[i] = p.Name
		loads[i] = p.Load.LoadAmps
		demand[i] = p.Demand.Total
	}

	p := plot.New()
	p.Title.Text = "Panel load vs NEC demand"
	p.Y.Label.Text = "Amps"
	p.Y.Min = 0

	w := vg.Points(14)
	loadBars, err := plotter.NewBarChart(loads, w)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	loadBars.Color = loadColor
	loadBars.LineStyle.Width = 0
	loadBars.Offset = -w / 2

	demandBars, err := plotter.NewBarChart(demand, w)
	if err != nil {
		return nil, fmt.Errorf("demand bars: %w", err)
	}
	demandBars.Color = demandColor
	demandBars.LineStyle.Width = 0
	demandBars.Offset = w / 2

	p.Add(loadBars, demandBars)
	p.Legend.Add("Connected load", loadBars)
	p.Legend.Add("NEC demand", demandBars)
	p.Legend.Top = true

	for i, pr := range r.Panels {
		if m := panelMain(r, pr.PanelID); m > 0 {
			mains = append(mains, plotter.XY{X: float64(i), Y: m})
		}
	}
	if len(mains) > 0 {
		marks, err := plotter.NewScatter(mains)
		if err != nil {
			return nil, fmt.Errorf("main markers: %w", err)
		}
		marks.GlyphStyle.Color = mainColor
		marks.GlyphStyle.Radius = vg.Points(4)
		p.Add(marks)
		p.Legend.Add("Main breaker", marks)
	}
	p.NominalX(names...)

	width := vg.Length(len(r.Panels))*vg.Points(60) + vg.Inch
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	wt, err := p.WriterTo(width, 4*vg.Inch, format)
	if err != nil {
		return nil, fmt.Errorf("chart writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return buf.Bytes(), nil
}

func panelMain(r compliance.Report, panelID string) float64 {
	p, ok := r.Panel(panelID)
	if !ok {
		return 0
	}
	return p.MainBreakerAmps
}
