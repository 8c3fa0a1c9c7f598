package survey

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/evsingleline/singleline/pkg/electrical"
)

// fixture builds mdp -> {a -> {c}, b} with a load and an EV charger on mdp.
func fixture(t *testing.T) (Survey, map[string]string) {
	t.Helper()
	ed := NewEditor(NewCounter())
	s := ed.New(ServiceEntrance{Voltage: electrical.System120208, Amps: 400})
	mdp := s.Panels[0].ID
	s, _, _ = ed.AddLoad(s, mdp)
	s, a, _ := ed.AddPanel(s, mdp)
	s, b, _ := ed.AddPanel(s, mdp)
	s, c, _ := ed.AddPanel(s, a.ID)
	s, _, _ = ed.AddEVCharger(s, mdp, nil)
	return s, map[string]string{"mdp": mdp, "a": a.ID, "b": b.ID, "c": c.ID}
}

func TestChildrenOrderedByFeeder(t *testing.T) {
	s, ids := fixture(t)
	kids := s.Children(ids["mdp"])
	if len(kids) != 2 || kids[0].ID != ids["a"] || kids[1].ID != ids["b"] {
		t.Fatalf("Children = %v", kids)
	}

	// Swap feeder order in the parent; children follow.
	mdp := &s.Panels[0]
	var fa, fb int
	for i, br := range mdp.Breakers {
		switch br.SubPanelID {
		case ids["a"]:
			fa = i
		case ids["b"]:
			fb = i
		}
	}
	mdp.Breakers[fa], mdp.Breakers[fb] = mdp.Breakers[fb], mdp.Breakers[fa]
	kids = s.Children(ids["mdp"])
	if kids[0].ID != ids["b"] {
		t.Errorf("Children after swap = %s first, want %s", kids[0].ID, ids["b"])
	}
}

func TestDescendantsAndDepth(t *testing.T) {
	s, ids := fixture(t)
	d := s.Descendants(ids["mdp"])
	if len(d) != 3 {
		t.Errorf("Descendants = %v, want 3 ids", d)
	}
	if got := s.Depth(ids["c"]); got != 2 {
		t.Errorf("Depth(c) = %d, want 2", got)
	}
	if got := s.Depth("nope"); got != -1 {
		t.Errorf("Depth(nope) = %d, want -1", got)
	}
	root, ok := s.Root(ids["c"])
	if !ok || root.ID != ids["mdp"] {
		t.Errorf("Root(c) = %v", root.ID)
	}
}

func TestWalkOrder(t *testing.T) {
	s, ids := fixture(t)
	var order []string
	var depths []int
	s.Walk(func(p Panel, depth int) {
		order = append(order, p.ID)
		depths = append(depths, depth)
	})
	want := []string{ids["mdp"], ids["a"], ids["c"], ids["b"]}
	if len(order) != len(want) {
		t.Fatalf("Walk visited %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Walk[%d] = %s, want %s", i, order[i], want[i])
		}
	}
	if depths[2] != 2 {
		t.Errorf("depth of c = %d, want 2", depths[2])
	}
}

func TestSpacesUsed(t *testing.T) {
	s, ids := fixture(t)
	mdp, _ := s.Panel(ids["mdp"])
	// 1 (120V load) + 2 + 2 (208V feeders) + 2 (208V L2 charger)
	if got := mdp.SpacesUsed(); got != 7 {
		t.Errorf("SpacesUsed = %d, want 7", got)
	}
}

func TestBreakerPowerKW(t *testing.T) {
	tests := []struct {
		name string
		b    Breaker
		want float64
	}{
		{"load", Breaker{Kind: KindLoad, Voltage: 240, Amps: 50}, 12},
		{"feeder", Breaker{Kind: KindSubpanel, Voltage: 240, Amps: 100}, 0},
		{"ev single phase", Breaker{Kind: KindEVCharger, Voltage: 240, Amps: 50, Charger: &Charger{Amps: 40}}, 9.6},
		{"ev without charger", Breaker{Kind: KindEVCharger, Voltage: 240, Amps: 50}, 0},
	}
	for _, tt := range tests {
		if got := tt.b.PowerKW(); got != tt.want {
			t.Errorf("%s: PowerKW = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, ids := fixture(t)
	c := s.Clone()
	c.Panels[0].Breakers[0].Label = "changed"
	for i := range c.Panels[0].Breakers {
		if c.Panels[0].Breakers[i].Charger != nil {
			c.Panels[0].Breakers[i].Charger.Amps = 99
		}
	}
	mdp, _ := s.Panel(ids["mdp"])
	if mdp.Breakers[0].Label == "changed" {
		t.Error("Clone shares breaker slice")
	}
	for _, b := range mdp.Breakers {
		if b.Charger != nil && b.Charger.Amps == 99 {
			t.Error("Clone shares charger pointer")
		}
	}
}

func TestValidate(t *testing.T) {
	good, ids := fixture(t)
	if err := good.Validate(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s *Survey)
	}{
		{"duplicate panel id", func(s *Survey) { s.Panels[1].ID = s.Panels[0].ID }},
		{"empty breaker id", func(s *Survey) { s.Panels[0].Breakers[0].ID = "" }},
		{"dangling parent", func(s *Survey) {
			i := s.panelIndex(ids["c"])
			s.Panels[i].ParentPanelID = "ghost"
		}},
		{"feeder missing", func(s *Survey) {
			i := s.panelIndex(ids["b"])
			s.Panels[i].FeedBreakerID = "ghost"
		}},
		{"subpanel breaker dangling", func(s *Survey) {
			s.Panels[0].Breakers = append(s.Panels[0].Breakers, Breaker{ID: "x", Kind: KindSubpanel, SubPanelID: "ghost"})
		}},
		{"unknown service voltage", func(s *Survey) { s.Services[0].Voltage = "600V" }},
		{"root with unknown service", func(s *Survey) { s.Panels[0].ServiceID = "ghost" }},
		{"bad kind", func(s *Survey) { s.Panels[0].Breakers[0].Kind = "motor" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good.Clone()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Validate = %v, want ErrInvalidSnapshot", err)
			}
		})
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	s := Survey{
		Services: []ServiceEntrance{{ID: "svc", Voltage: electrical.System120240}},
		Panels: []Panel{
			{ID: "root", ServiceID: "svc"},
			{ID: "a", ParentPanelID: "b", FeedBreakerID: "fa", Breakers: []Breaker{{ID: "fb", Kind: KindSubpanel, SubPanelID: "b"}}},
			{ID: "b", ParentPanelID: "a", FeedBreakerID: "fb", Breakers: []Breaker{{ID: "fa", Kind: KindSubpanel, SubPanelID: "a"}}},
		},
	}
	if err := s.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("Validate = %v, want cycle error", err)
	}
	if got := s.EffectiveVoltage("a"); got != "" {
		t.Errorf("EffectiveVoltage on cycle = %q, want empty", got)
	}
}

func TestKindJSON(t *testing.T) {
	var b Breaker
	if err := json.Unmarshal([]byte(`{"id":"x","kind":""}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.Kind != KindLoad {
		t.Errorf("empty kind decoded as %q, want load", b.Kind)
	}
	if err := json.Unmarshal([]byte(`{"id":"x","kind":"motor"}`), &b); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNextCircuitNumber(t *testing.T) {
	var breakers []Breaker
	for _, want := range []string{"1,3", "2,4", "5,7"} {
		got := NextCircuitNumber(breakers, 2)
		if got != want {
			t.Fatalf("after %d breakers: NextCircuitNumber = %q, want %q", len(breakers), got, want)
		}
		breakers = append(breakers, Breaker{CircuitNumber: got})
	}
	if got := NextCircuitNumber(nil, 1); got != "1" {
		t.Errorf("empty single pole = %q, want 1", got)
	}
	if got := NextCircuitNumber([]Breaker{{CircuitNumber: "1"}, {CircuitNumber: "3,5"}}, 1); got != "2" {
		t.Errorf("single pole = %q, want 2", got)
	}
}

func TestPanelNextCircuitWithinSpaces(t *testing.T) {
	p := Panel{TotalSpaces: 4, Breakers: []Breaker{{CircuitNumber: "1,3"}, {CircuitNumber: "2,4"}}}
	if got := p.NextCircuit(2); got != "5,7" {
		t.Errorf("full panel = %q, want 5,7", got)
	}
	p.Breakers = p.Breakers[:1]
	if got := p.NextCircuit(2); got != "2,4" {
		t.Errorf("even side = %q, want 2,4", got)
	}
}
