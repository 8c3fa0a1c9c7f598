package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

var generated = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func site(t *testing.T) survey.Survey {
	t.Helper()
	ed := survey.NewEditor(survey.NewCounter())
	s := ed.New(survey.ServiceEntrance{Voltage: electrical.System277480, Amps: 800, UtilityProvider: "PG&E"})
	s = ed.UpdateSiteInfo(s, survey.SiteInfo{CustomerName: "Acme Logistics", City: "Fresno", State: "CA"})

	mdp := s.Panels[0]
	mdp.MainBreakerAmps = 800
	mdp.TotalSpaces = 42
	s, err := ed.UpdatePanel(s, mdp)
	if err != nil {
		t.Fatal(err)
	}

	s, ev, err := ed.AddEVCharger(s, mdp.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev.Amps = 100
	ev.Charger.Amps = 81
	if s, err = ed.UpdateBreaker(s, mdp.ID, ev); err != nil {
		t.Fatal(err)
	}

	s, sub, err := ed.AddPanel(s, mdp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s, err = ed.SetTransformer(s, sub.ID, &survey.Transformer{KVA: 45, Secondary: electrical.System120208}); err != nil {
		t.Fatal(err)
	}
	s, l, err := ed.AddLoad(s, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	l.Label = "Lighting"
	l.Amps = 20
	if s, err = ed.UpdateBreaker(s, sub.ID, l); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDocumentTitle(t *testing.T) {
	doc := NewDocument(site(t), generated)
	if got := doc.Title(); got != "Acme Logistics - EV Single-Line Survey" {
		t.Errorf("Title = %q", got)
	}
	if got := (Document{}).Title(); got != "EV Single-Line Survey" {
		t.Errorf("empty Title = %q", got)
	}
	if len(doc.Compliance.Panels) != 2 || doc.Layout.Empty() {
		t.Errorf("document not derived: %d panels, empty layout %v", len(doc.Compliance.Panels), doc.Layout.Empty())
	}
}

func TestSchedule(t *testing.T) {
	s := site(t)
	mdp := s.Panels[0]
	rows := Schedule(s, mdp)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	ev := rows[0]
	if ev.Type != "EV DCFC" || ev.Load != "81A" || ev.Breaker != "100A" || ev.Spaces != 3 || ev.Voltage != "480V" {
		t.Errorf("EV row = %+v", ev)
	}
	if ev.Circuit != "1,3,5" {
		t.Errorf("EV circuit = %q, want 1,3,5", ev.Circuit)
	}
	if ev.Status != "New" {
		t.Errorf("EV status = %q", ev.Status)
	}

	feed := rows[1]
	if feed.Type != "Sub Panel" || !strings.HasPrefix(feed.Notes, "Feeds ") || !strings.HasSuffix(feed.Notes, "via 45 kVA") {
		t.Errorf("feeder row = %+v", feed)
	}
	if feed.Load != "" {
		t.Errorf("feeder load = %q, want empty", feed.Load)
	}
	if got := len(feed.Strings()); got != len(ScheduleHeader) {
		t.Errorf("Strings() has %d cells, header has %d", got, len(ScheduleHeader))
	}
}

func TestTransformerLine(t *testing.T) {
	s := site(t)
	if got := TransformerLine(s.Panels[0]); got != "" {
		t.Errorf("MDP line = %q", got)
	}
	got := TransformerLine(s.Panels[1])
	want := "Transformer: 45 kVA | 277/480V -> 120/208V | Primary: 54.1A | Secondary: 124.9A"
	if got != want {
		t.Errorf("TransformerLine = %q\nwant %q", got, want)
	}
}

func TestRenderPDF(t *testing.T) {
	doc := NewDocument(site(t), generated)
	out, err := RenderPDF(doc, WithDiagram())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("not a PDF: %.8q", out)
	}

	plain, err := RenderPDF(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(plain) >= len(out) {
		t.Errorf("diagram page added no content: %d >= %d", len(plain), len(out))
	}
}

func TestRenderXLSX(t *testing.T) {
	doc := NewDocument(site(t), generated)
	out, err := RenderXLSX(doc)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SummarySheet {
		t.Fatalf("sheets = %v", sheets)
	}
	if v, _ := f.GetCellValue(SummarySheet, "A1"); v != doc.Title() {
		t.Errorf("summary title = %q", v)
	}
	if v, _ := f.GetCellValue(SummarySheet, "A5"); v != "MDP" {
		t.Errorf("first panel = %q", v)
	}
	if v, _ := f.GetCellValue(sheets[1], "A4"); v != "1,3,5" {
		t.Errorf("MDP first circuit = %q", v)
	}
	if v, _ := f.GetCellValue(sheets[2], "A2"); !strings.HasPrefix(v, "Transformer: 45 kVA") {
		t.Errorf("sub-panel transformer line = %q", v)
	}
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"summary": true}
	tests := []struct {
		in, want string
	}{
		{"MDP", "MDP"},
		{"mdp", "mdp (2)"},
		{"Panel A/B: [East]", "Panel A-B- -East-"},
		{"", "Panel"},
		{"Summary", "Summary (2)"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{strings.Repeat("x", 40), strings.Repeat("x", 27) + " (2)"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.in, used); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if len([]rune(tt.want)) > maxSheetName {
			t.Errorf("%q longer than %d", tt.want, maxSheetName)
		}
	}
}

func TestLoadChart(t *testing.T) {
	doc := NewDocument(site(t), generated)
	svg, err := LoadChart(doc.Compliance, ChartSVG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("not SVG: %.40q", svg)
	}
	png, err := LoadChart(doc.Compliance, ChartPNG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("not PNG: %.8q", png)
	}

	if _, err := LoadChart(compliance.Report{}, ChartPNG); err != ErrNoPanels {
		t.Errorf("empty report err = %v, want ErrNoPanels", err)
	}
	if _, err := LoadChart(doc.Compliance, "gif"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
