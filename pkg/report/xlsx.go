package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/evsingleline/singleline/pkg/compliance"
)

// SummarySheet is the name of the first workbook sheet.
const SummarySheet = "Summary"

const maxSheetName = 31

var summaryHeader = []string{"Panel", "Parent", "Voltage", "Main", "Spaces", "Load", "EV", "Feed-through", "Demand", "Peak kW", "Findings"}

// RenderXLSX produces a panel schedule workbook: a Summary sheet listing
// every panel followed by one schedule sheet per panel in report order.
func RenderXLSX(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, st, doc); err != nil {
		return nil, err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for _, pr := range doc.Compliance.Panels {
		p, ok := doc.Survey.Panel(pr.PanelID)
		if !ok {
			continue
		}
		name := SheetName(p.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}

		title := p.Name
		if v := string(pr.Voltage); v != "" {
			title += " - " + v
		}
		if err := setCell(f, name, 1, 1, title, st.title); err != nil {
			return nil, err
		}
		row := 2
		if line := TransformerLine(p); line != "" {
			if err := setCell(f, name, 1, row, line, 0); err != nil {
				return nil, err
			}
			row++
		}
		row++
		if err := writeRow(f, name, row, ScheduleHeader, st.header); err != nil {
			return nil, err
		}
		for _, r := range Schedule(doc.Survey, p) {
			row++
			cells := make([]any, len(ScheduleHeader))
			for i, s := range r.Strings() {
				cells[i] = s
			}
			cells[4] = r.Spaces
			if err := writeRow(f, name, row, cells, 0); err != nil {
				return nil, err
			}
		}
		_ = f.SetColWidth(name, "B", "B", 28)
		_ = f.SetColWidth(name, "I", "I", 40)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SummarySheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, st xlsxStyles, doc Document) error {
	if err := setCell(f, SummarySheet, 1, 1, doc.Title(), st.title); err != nil {
		return err
	}
	if err := setCell(f, SummarySheet, 1, 2, "Generated "+doc.Generated.Format("2006-01-02 15:04"), 0); err != nil {
		return err
	}

	row := 4
	if err := writeRow(f, SummarySheet, row, summaryHeader, st.header); err != nil {
		return err
	}
	r := doc.Compliance
	for _, pr := range r.Panels {
		row++
		parent := ""
		if p, ok := r.Panel(pr.ParentID); ok {
			parent = p.Name
		}
		cells := []any{
			strings.Repeat("  ", pr.Depth) + pr.Name,
			parent,
			string(pr.Voltage),
			pr.MainBreakerAmps,
			fmt.Sprintf("%d/%d", pr.Spaces.Accounted, pr.Spaces.Total),
			pr.Load.LoadAmps,
			pr.Load.EVAmps,
			pr.Load.FeedThroughAmps,
			pr.Demand.Total,
			round1(pr.Peak.Total()),
			len(pr.Findings),
		}
		style := 0
		if compliance.Worst(pr.Findings) >= compliance.SeverityWarning {
			style = st.warn
		}
		if err := writeRow(f, SummarySheet, row, cells, style); err != nil {
			return err
		}
	}

	row += 2
	for _, sr := range r.Services {
		name := sr.Name
		if name == "" {
			name = sr.ServiceID
		}
		line := fmt.Sprintf("Service %s: rating %s, load %s (%d%%), demand %s",
			name, amps(sr.RatingAmps), amps(sr.LoadAmps), sr.CapacityUsedPct, amps(sr.Demand.Total))
		if err := setCell(f, SummarySheet, 1, row, line, 0); err != nil {
			return err
		}
		row++
	}
	line := fmt.Sprintf("System demand %s, peak %.1f kW", amps(r.Demand.Total), r.Peak.Total())
	if err := setCell(f, SummarySheet, 1, row, line, st.bold); err != nil {
		return err
	}

	row += 2
	for _, fd := range r.Findings {
		if err := writeRow(f, SummarySheet, row, []any{fd.Severity.String(), fd.Message}, 0); err != nil {
			return err
		}
		row++
	}
	return f.SetColWidth(SummarySheet, "A", "A", 30)
}

type xlsxStyles struct {
	title, header, warn, bold int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var st xlsxStyles
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return st, fmt.Errorf("title style: %w", err)
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"334155"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.warn, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FEF3C7"}, Pattern: 1},
	}); err != nil {
		return st, fmt.Errorf("warning style: %w", err)
	}
	if st.bold, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	}); err != nil {
		return st, fmt.Errorf("bold style: %w", err)
	}
	return st, nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	if style != 0 {
		return f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, cells []T, style int) error {
	for i, v := range cells {
		if err := setCell(f, sheet, i+1, row, v, style); err != nil {
			return err
		}
	}
	return nil
}

// SheetName turns a panel name into a unique worksheet name. Characters
// Excel rejects are replaced, names are cut to 31 characters and clashes
// get a numeric suffix. used is updated.
func SheetName(name string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Panel"
	}
	base = cut(base, maxSheetName)

	out := base
	for i := 2; used[strings.ToLower(out)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		out = cut(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(out)] = true
	return out
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}
