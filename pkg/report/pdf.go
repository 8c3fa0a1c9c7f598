package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/diagram/sink"
	"github.com/evsingleline/singleline/pkg/survey"
)

// PDFOption configures [RenderPDF].
type PDFOption func(*pdfOptions)

type pdfOptions struct {
	diagram bool
	chart   bool
}

// WithDiagram appends the one-line diagram on its own landscape page.
func WithDiagram() PDFOption { return func(o *pdfOptions) { o.diagram = true } }

// WithChart appends the per-panel load chart after the load calculation.
func WithChart() PDFOption { return func(o *pdfOptions) { o.chart = true } }

const (
	pageW   = 190.0
	rowH    = 6.0
	chartID = "load-chart"
)

// Schedule column widths in mm, in [ScheduleHeader] order.
var scheduleWidths = []float64{14, 38, 16, 16, 8, 22, 14, 16, 46}

// RenderPDF produces the itemized survey report.
func RenderPDF(doc Document, opts ...PDFOption) ([]byte, error) {
	var o pdfOptions
	for _, opt := range opts {
		opt(&o)
	}

	w := pdfWriter{pdf: gofpdf.New("P", "mm", "A4", "")}
	w.tr = w.pdf.UnicodeTranslatorFromDescriptor("")
	w.pdf.SetTitle(doc.Title(), false)
	w.pdf.SetCreator("singleline", false)
	w.pdf.AliasNbPages("")
	w.pdf.SetFooterFunc(func() {
		w.pdf.SetY(-12)
		w.pdf.SetFont("Arial", "I", 8)
		w.pdf.SetTextColor(120, 120, 120)
		w.pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", w.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	w.pdf.AddPage()

	w.header(doc)
	w.siteInfo(doc.Survey.SiteInfo)
	w.services(doc)
	for _, pr := range doc.Compliance.Panels {
		p, ok := doc.Survey.Panel(pr.PanelID)
		if !ok {
			continue
		}
		w.panel(doc.Survey, p, pr)
	}
	w.loadCalc(doc.Compliance)
	if o.chart {
		if err := w.chart(doc.Compliance); err != nil {
			return nil, err
		}
	}
	w.findings(doc.Compliance.Findings)
	if o.diagram && !doc.Layout.Empty() {
		w.pdf.AddPageFormat("L", gofpdf.SizeType{Wd: 210, Ht: 297})
		w.band("One-Line Diagram")
		sink.DrawPDF(w.pdf, doc.Layout, 10, w.pdf.GetY()+2, 277)
	}

	if err := w.pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (w pdfWriter) header(doc Document) {
	w.pdf.SetFillColor(15, 23, 42)
	w.pdf.SetTextColor(255, 255, 255)
	w.pdf.SetFont("Arial", "B", 16)
	w.pdf.CellFormat(pageW, 12, w.tr(doc.Title()), "", 1, "C", true, 0, "")
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.SetFont("Arial", "", 9)
	w.pdf.CellFormat(pageW, 6, "Generated "+doc.Generated.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
	w.pdf.Ln(2)
}

func (w pdfWriter) band(title string) {
	w.pdf.SetFillColor(226, 232, 240)
	w.pdf.SetFont("Arial", "B", 11)
	w.pdf.CellFormat(0, 8, w.tr(title), "", 1, "L", true, 0, "")
	w.pdf.Ln(1)
}

// pairs writes label/value lines two per row, skipping empty values.
func (w pdfWriter) pairs(kv [][2]string) {
	col := 0
	for _, p := range kv {
		if p[1] == "" {
			continue
		}
		w.pdf.SetFont("Arial", "B", 9)
		w.pdf.CellFormat(30, rowH, w.tr(p[0]), "", 0, "L", false, 0, "")
		w.pdf.SetFont("Arial", "", 9)
		ln := 0
		if col == 1 {
			ln = 1
		}
		w.pdf.CellFormat(65, rowH, w.tr(p[1]), "", ln, "L", false, 0, "")
		col ^= 1
	}
	if col == 1 {
		w.pdf.Ln(rowH)
	}
	w.pdf.Ln(2)
}

func (w pdfWriter) siteInfo(si survey.SiteInfo) {
	w.band("Site Information")
	w.pairs([][2]string{
		{"Customer", si.CustomerName},
		{"Survey date", si.SurveyDate},
		{"Address", si.Address},
		{"Technician", si.TechnicianName},
		{"City", joinNonEmpty(", ", si.City, joinNonEmpty(" ", si.State, si.Zip))},
	})
	if si.Notes != "" {
		w.pdf.SetFont("Arial", "", 9)
		w.pdf.MultiCell(pageW, 5, w.tr(si.Notes), "", "L", false)
		w.pdf.Ln(2)
	}
}

func (w pdfWriter) services(doc Document) {
	for _, svc := range doc.Survey.Services {
		title := "Service Entrance"
		if svc.Name != "" {
			title += ": " + svc.Name
		}
		w.band(title)
		kv := [][2]string{
			{"Utility", svc.UtilityProvider},
			{"Voltage", string(svc.Voltage)},
			{"Rated amps", amps(svc.Amps)},
			{"Meter", svc.MeterNumber},
			{"Condition", titleCase(string(svc.Condition))},
		}
		if sr, ok := doc.Compliance.Service(svc.ID); ok {
			kv = append(kv,
				[2]string{"Rating used", amps(sr.RatingAmps)},
				[2]string{"Capacity used", strconv.Itoa(sr.CapacityUsedPct) + "%"},
			)
		}
		w.pairs(kv)
	}
}

func (w pdfWriter) panel(s survey.Survey, p survey.Panel, pr compliance.PanelReport) {
	if w.pdf.GetY() > 230 {
		w.pdf.AddPage()
	}
	title := p.Name
	if title == "" {
		title = p.ID
	}
	if pr.Depth == 0 {
		title += " (MDP)"
	}
	w.band(title)
	w.pairs([][2]string{
		{"Voltage", string(pr.Voltage)},
		{"Main breaker", amps(p.MainBreakerAmps)},
		{"Location", p.Location},
		{"Bus rating", amps(p.BusRatingAmps)},
		{"Make/model", joinNonEmpty(" ", p.Make, p.Model)},
		{"Spaces", fmt.Sprintf("%d used, %d spare, %d total", pr.Spaces.Used, pr.Spaces.Spare, pr.Spaces.Total)},
	})
	if line := TransformerLine(p); line != "" {
		w.pdf.SetFont("Arial", "I", 9)
		w.pdf.SetTextColor(15, 118, 110)
		w.pdf.CellFormat(pageW, rowH, w.tr(line), "", 1, "L", false, 0, "")
		w.pdf.SetTextColor(0, 0, 0)
	}

	rows := Schedule(s, p)
	if len(rows) == 0 {
		w.pdf.SetFont("Arial", "I", 9)
		w.pdf.CellFormat(pageW, rowH, "No breakers", "", 1, "L", false, 0, "")
		w.pdf.Ln(3)
		return
	}
	w.tableHeader(ScheduleHeader, scheduleWidths)
	w.pdf.SetFont("Arial", "", 8)
	for i, r := range rows {
		if w.pdf.GetY() > 270 {
			w.pdf.AddPage()
			w.tableHeader(ScheduleHeader, scheduleWidths)
			w.pdf.SetFont("Arial", "", 8)
		}
		fill := i%2 == 1
		w.pdf.SetFillColor(248, 250, 252)
		for j, cell := range r.Strings() {
			align := "L"
			if j != 1 && j != 8 {
				align = "C"
			}
			w.pdf.CellFormat(scheduleWidths[j], rowH, w.tr(clip(w.pdf, cell, scheduleWidths[j])), "1", 0, align, fill, 0, "")
		}
		w.pdf.Ln(-1)
	}
	w.pdf.SetFont("Arial", "B", 8)
	w.pdf.CellFormat(pageW, rowH, fmt.Sprintf("Load %s | EV %s | Feed-through %s | Demand %s | Peak %.1f kW",
		amps(pr.Load.LoadAmps), amps(pr.Load.EVAmps), amps(pr.Load.FeedThroughAmps),
		amps(pr.Demand.Total), pr.Peak.Total()), "", 1, "R", false, 0, "")
	w.pdf.Ln(3)
}

func (w pdfWriter) tableHeader(cols []string, widths []float64) {
	w.pdf.SetFillColor(51, 65, 85)
	w.pdf.SetTextColor(255, 255, 255)
	w.pdf.SetFont("Arial", "B", 8)
	for i, c := range cols {
		w.pdf.CellFormat(widths[i], 7, c, "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)
	w.pdf.SetTextColor(0, 0, 0)
}

func (w pdfWriter) loadCalc(r compliance.Report) {
	if w.pdf.GetY() > 220 {
		w.pdf.AddPage()
	}
	w.band("Load Calculation (NEC 210.20(A) / 215.3)")
	widths := []float64{70, 40, 40, 40}
	w.tableHeader([]string{"", "Continuous", "Non-continuous", "Total demand"}, widths)
	w.pdf.SetFont("Arial", "", 9)
	row := func(name string, d compliance.Demand) {
		w.pdf.CellFormat(widths[0], rowH, w.tr(name), "1", 0, "L", false, 0, "")
		w.pdf.CellFormat(widths[1], rowH, fmt.Sprintf("%s (x1.25 = %s)", amps(d.Continuous), amps(d.ContinuousAdjusted())), "1", 0, "C", false, 0, "")
		w.pdf.CellFormat(widths[2], rowH, amps(d.NonContinuous), "1", 0, "C", false, 0, "")
		w.pdf.CellFormat(widths[3], rowH, amps(d.Total), "1", 1, "C", false, 0, "")
	}
	for _, sr := range r.Services {
		name := sr.Name
		if name == "" {
			name = sr.ServiceID
		}
		row("Service "+name, sr.Demand)
	}
	w.pdf.SetFont("Arial", "B", 9)
	row("System", r.Demand)
	w.pdf.SetFont("Arial", "", 9)
	w.pdf.CellFormat(pageW, rowH, fmt.Sprintf("Peak demand: %.1f kW (loads %.1f kW, EV %.1f kW)",
		r.Peak.Total(), r.Peak.LoadsKW, r.Peak.EVKW), "", 1, "L", false, 0, "")
	w.pdf.Ln(3)
}

func (w pdfWriter) chart(r compliance.Report) error {
	png, err := LoadChart(r, ChartPNG)
	if err != nil {
		return err
	}
	if w.pdf.GetY() > 180 {
		w.pdf.AddPage()
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	info := w.pdf.RegisterImageOptionsReader(chartID, opts, bytes.NewReader(png))
	if info == nil {
		return fmt.Errorf("embed chart: %w", w.pdf.Error())
	}
	h := pageW * info.Height() / info.Width()
	w.pdf.ImageOptions(chartID, 10, w.pdf.GetY(), pageW, h, false, opts, 0, "")
	w.pdf.SetY(w.pdf.GetY() + h + 3)
	return nil
}

func (w pdfWriter) findings(fs []compliance.Finding) {
	if w.pdf.GetY() > 240 {
		w.pdf.AddPage()
	}
	w.band("Findings")
	if len(fs) == 0 {
		w.pdf.SetFont("Arial", "", 9)
		w.pdf.CellFormat(pageW, rowH, "No findings.", "", 1, "L", false, 0, "")
		return
	}
	for _, f := range fs {
		r, g, b := severityRGB(f.Severity)
		w.pdf.SetTextColor(r, g, b)
		w.pdf.SetFont("Arial", "B", 9)
		w.pdf.CellFormat(20, 5, severityTag(f.Severity), "", 0, "L", false, 0, "")
		w.pdf.SetTextColor(0, 0, 0)
		w.pdf.SetFont("Arial", "", 9)
		w.pdf.MultiCell(pageW-20, 5, w.tr(f.Message), "", "L", false)
	}
	w.pdf.Ln(2)
	w.pdf.SetFont("Arial", "I", 8)
	w.pdf.MultiCell(pageW, 4, "Findings are advisory and do not certify NEC compliance.", "", "L", false)
}

func severityTag(s compliance.Severity) string {
	switch s {
	case compliance.SeverityError:
		return "ERROR"
	case compliance.SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

func severityRGB(s compliance.Severity) (int, int, int) {
	switch s {
	case compliance.SeverityError:
		return 220, 38, 38
	case compliance.SeverityWarning:
		return 217, 119, 6
	default:
		return 37, 99, 235
	}
}

// clip shortens s with "..." until it fits width at the current font.
func clip(pdf *gofpdf.Fpdf, s string, width float64) string {
	width -= 2
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
