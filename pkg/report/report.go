// Package report produces survey deliverables: an itemized PDF report, a
// panel schedule workbook and a load chart.
//
// Every renderer takes a [Document], which bundles a snapshot with its
// compliance results and one-line layout so they are computed once:
//
//	doc := report.NewDocument(s, time.Now())
//	pdf, err := report.RenderPDF(doc, report.WithDiagram(), report.WithChart())
//	xlsx, err := report.RenderXLSX(doc)
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/diagram"
	"github.com/evsingleline/singleline/pkg/survey"
)

// Document is the input to every renderer.
type Document struct {
	Survey     survey.Survey
	Compliance compliance.Report
	Layout     diagram.Layout
	Generated  time.Time
}

// NewDocument analyzes and lays out s.
func NewDocument(s survey.Survey, generated time.Time) Document {
	return Document{
		Survey:     s,
		Compliance: compliance.Analyze(s),
		Layout:     diagram.Build(s),
		Generated:  generated,
	}
}

// Title returns the report title: the customer name when set.
func (d Document) Title() string {
	if n := d.Survey.SiteInfo.CustomerName; n != "" {
		return n + " - EV Single-Line Survey"
	}
	return "EV Single-Line Survey"
}

// ScheduleRow is one breaker line in a panel schedule.
type ScheduleRow struct {
	Circuit string
	Label   string
	Breaker string
	Voltage string
	Spaces  int
	Type    string
	Load    string
	Status  string
	Notes   string
}

// ScheduleHeader names the [ScheduleRow] columns.
var ScheduleHeader = []string{"Ckt", "Label", "Breaker", "Voltage", "Sp", "Type", "Load", "Status", "Notes"}

// Strings returns the row in [ScheduleHeader] order.
func (r ScheduleRow) Strings() []string {
	return []string{r.Circuit, r.Label, r.Breaker, r.Voltage, strconv.Itoa(r.Spaces), r.Type, r.Load, r.Status, r.Notes}
}

// Schedule returns the breaker schedule of p in breaker-list order.
func Schedule(s survey.Survey, p survey.Panel) []ScheduleRow {
	rows := make([]ScheduleRow, 0, len(p.Breakers))
	for _, b := range p.Breakers {
		row := ScheduleRow{
			Circuit: b.CircuitNumber,
			Label:   b.Label,
			Breaker: amps(b.Amps),
			Spaces:  b.Poles(),
			Type:    b.Kind.Label(),
			Status:  titleCase(string(b.Condition)),
		}
		if b.Voltage > 0 {
			row.Voltage = strconv.Itoa(b.Voltage) + "V"
		}
		switch b.Kind {
		case survey.KindEVCharger:
			if lvl := b.ChargerLevel(); lvl != "" {
				row.Type = "EV " + lvl.Label()
			}
			row.Load = amps(b.ChargerAmps())
			row.Notes = chargerNotes(b)
		case survey.KindSubpanel:
			if child, ok := s.Panel(b.SubPanelID); ok {
				row.Notes = "Feeds " + child.Name
				if xf := child.Transformer; xf != nil {
					row.Notes += fmt.Sprintf(" via %g kVA", xf.KVA)
				}
			}
		default:
			row.Load = amps(b.Amps)
			row.Notes = titleCase(strings.ReplaceAll(string(b.LoadType), "noncontinuous", "non-continuous"))
		}
		rows = append(rows, row)
	}
	return rows
}

// TransformerLine describes a panel's transformer, or "" when it has none.
func TransformerLine(p survey.Panel) string {
	xf := p.Transformer
	if xf == nil {
		return ""
	}
	return fmt.Sprintf("Transformer: %g kVA | %s -> %s | Primary: %.1fA | Secondary: %.1fA",
		xf.KVA, xf.Primary, xf.Secondary, xf.PrimaryFLA(), xf.SecondaryFLA())
}

func chargerNotes(b survey.Breaker) string {
	c := b.Charger
	if c == nil {
		return ""
	}
	var parts []string
	if c.ProfileID != "" {
		parts = append(parts, c.ProfileID)
	}
	if c.Ports > 1 {
		parts = append(parts, fmt.Sprintf("%d ports", c.Ports))
	}
	if c.WireSize != "" {
		parts = append(parts, c.WireSize)
	}
	if c.WireRunFeet > 0 {
		parts = append(parts, fmt.Sprintf("%g ft", c.WireRunFeet))
	}
	if c.InstallLocation != "" {
		parts = append(parts, c.InstallLocation)
	}
	return strings.Join(parts, ", ")
}

func amps(a float64) string {
	if a <= 0 {
		return "-"
	}
	return strconv.FormatFloat(a, 'f', -1, 64) + "A"
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
