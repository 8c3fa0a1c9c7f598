package sink

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/evsingleline/singleline/pkg/diagram"
	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

func layout(t *testing.T) (diagram.Layout, survey.Survey) {
	t.Helper()
	ed := survey.NewEditor(survey.NewCounter())
	s := ed.New(survey.ServiceEntrance{Voltage: electrical.System277480, Amps: 400})
	mdp := s.Panels[0].ID
	s, _, _ = ed.AddLoad(s, mdp)
	s, _, _ = ed.AddEVCharger(s, mdp, nil)
	s, sub, _ := ed.AddPanel(s, mdp)
	s, _ = ed.SetTransformer(s, sub.ID, &survey.Transformer{KVA: 45, Secondary: electrical.System120208})
	return diagram.Build(s), s
}

func TestRenderSVG(t *testing.T) {
	l, s := layout(t)
	out, err := RenderSVG(l, WithTitle("Site <A>"), WithLegend())
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	if !strings.HasPrefix(strings.TrimSpace(doc), "<?xml") || !strings.Contains(doc, "</svg>") {
		t.Fatalf("not an SVG document: %.80s", doc)
	}
	for _, want := range []string{
		`id="utility"`,
		`id="panel-` + s.Panels[0].ID + `"`,
		`id="legend"`,
		"DCFC",
		"Site &lt;A&gt;",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("SVG missing %q", want)
		}
	}

	again, _ := RenderSVG(l, WithTitle("Site <A>"), WithLegend())
	if !bytes.Equal(out, again) {
		t.Error("SVG output not deterministic")
	}
}

func TestRenderEmpty(t *testing.T) {
	var l diagram.Layout
	if _, err := RenderSVG(l); !errors.Is(err, diagram.ErrEmptyLayout) {
		t.Errorf("RenderSVG = %v", err)
	}
	if _, err := RenderJSON(l); !errors.Is(err, diagram.ErrEmptyLayout) {
		t.Errorf("RenderJSON = %v", err)
	}
	if _, err := RenderPDF(l); !errors.Is(err, diagram.ErrEmptyLayout) {
		t.Errorf("RenderPDF = %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	l, _ := layout(t)
	data, err := RenderJSON(l, WithJSONTitle("site"), WithJSONColors())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"color": "`+ColorUtility+`"`) {
		t.Error("colors not included")
	}
	got, err := ReadJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != len(l.Nodes) || len(got.Edges) != len(l.Edges) || got.Width != l.Width {
		t.Errorf("round trip lost data: %d/%d nodes, %d/%d edges", len(got.Nodes), len(l.Nodes), len(got.Edges), len(l.Edges))
	}
}

func TestRenderPDF(t *testing.T) {
	l, _ := layout(t)
	out, err := RenderPDF(l)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("not a PDF: %q", out[:8])
	}
}

func TestNodeColor(t *testing.T) {
	tests := []struct {
		n    diagram.Node
		want string
	}{
		{diagram.Node{Kind: diagram.KindMDP}, ColorMDP},
		{diagram.Node{Kind: diagram.KindCharger, Level: electrical.Level3}, ColorDCFC},
		{diagram.Node{Kind: diagram.KindCharger, Level: electrical.Level2}, ColorCharger},
		{diagram.Node{Kind: diagram.KindBreaker}, ColorBreaker},
	}
	for _, tt := range tests {
		if got := NodeColor(tt.n); got != tt.want {
			t.Errorf("NodeColor(%s) = %s, want %s", tt.n.Kind, got, tt.want)
		}
	}
	if r, g, b := rgb("#dc2626"); r != 0xdc || g != 0x26 || b != 0x26 {
		t.Errorf("rgb = %d,%d,%d", r, g, b)
	}
	if got := truncate("Main Distribution Panel North", 20); got != "Main Distribution ..." {
		t.Errorf("truncate = %q", got)
	}
}
