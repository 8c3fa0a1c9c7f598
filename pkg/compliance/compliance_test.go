package compliance

import (
	"math"
	"strings"
	"testing"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

func load(id string, amps float64, volts int, lt survey.LoadType) survey.Breaker {
	return survey.Breaker{ID: id, Kind: survey.KindLoad, Amps: amps, Voltage: volts, LoadType: lt}
}

func ev(id string, breaker, charger float64) survey.Breaker {
	return survey.Breaker{
		ID: id, Kind: survey.KindEVCharger, Amps: breaker, Voltage: 240,
		LoadType: survey.LoadContinuous,
		Charger:  &survey.Charger{Level: electrical.Level2, Amps: charger},
	}
}

func TestNECDemand(t *testing.T) {
	tests := []struct {
		name     string
		breakers []survey.Breaker
		want     float64
	}{
		{"mixed", []survey.Breaker{
			load("a", 80, 240, survey.LoadContinuous),
			load("b", 20, 120, survey.LoadNonContinuous),
		}, 120},
		{"ceil continuous", []survey.Breaker{load("a", 15, 120, survey.LoadContinuous)}, 19},
		{"feeder skipped", []survey.Breaker{
			load("a", 20, 120, survey.LoadNonContinuous),
			{ID: "f", Kind: survey.KindSubpanel, Amps: 100, LoadType: survey.LoadContinuous},
		}, 20},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		if got := NECDemand(tt.breakers).Total; got != tt.want {
			t.Errorf("%s: NECDemand = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCheckEVBreaker(t *testing.T) {
	p := survey.Panel{ID: "p", Name: "MDP"}
	tests := []struct {
		name      string
		b         survey.Breaker
		code      Code
		severity  Severity
		suggested int
	}{
		{"undersized", ev("b", 45, 40), CodeEVBreakerUndersized, SeverityWarning, 50},
		{"exact", ev("b", 50, 40), "", 0, 0},
		{"oversized", ev("b", 60, 40), "", 0, 0},
		{"unset", ev("b", 0, 40), CodeEVBreakerUnset, SeverityInfo, 50},
		{"dcfc", ev("b", 100, 81), CodeEVBreakerUndersized, SeverityWarning, 110},
		{"no charger amps", ev("b", 20, 0), "", 0, 0},
		{"not ev", load("b", 10, 120, survey.LoadContinuous), "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := CheckEVBreaker(p, tt.b)
			if tt.code == "" {
				if len(fs) != 0 {
					t.Fatalf("unexpected findings: %v", fs)
				}
				return
			}
			if len(fs) != 1 {
				t.Fatalf("got %d findings, want 1", len(fs))
			}
			f := fs[0]
			if f.Code != tt.code || f.Severity != tt.severity || f.Suggested != tt.suggested {
				t.Errorf("finding = %+v", f)
			}
			if f.BreakerID != "b" || f.PanelID != "p" {
				t.Errorf("finding ids = %s/%s", f.PanelID, f.BreakerID)
			}
			if !strings.Contains(f.Message, "NEC 625.40") {
				t.Errorf("message %q does not cite NEC 625.40", f.Message)
			}
		})
	}

	fs := CheckEVBreaker(p, ev("b", 45, 40))
	if fs[0].Shortfall != 5 {
		t.Errorf("shortfall = %v, want 5", fs[0].Shortfall)
	}
}

func TestCheckSpaces(t *testing.T) {
	two := func(id string) survey.Breaker { return load(id, 30, 240, survey.LoadNonContinuous) }
	tests := []struct {
		name  string
		p     survey.Panel
		code  Code
		short float64
	}{
		{"over", survey.Panel{TotalSpaces: 4, SpareSpaces: 1, Breakers: []survey.Breaker{two("a"), two("b")}}, CodeSpaceOver, 1},
		{"under", survey.Panel{TotalSpaces: 10, Breakers: []survey.Breaker{two("a"), two("b")}}, CodeSpaceUnaccounted, 6},
		{"exact", survey.Panel{TotalSpaces: 6, SpareSpaces: 2, Breakers: []survey.Breaker{two("a"), two("b")}}, "", 0},
		{"unknown total", survey.Panel{Breakers: []survey.Breaker{two("a")}}, "", 0},
	}
	for _, tt := range tests {
		fs := CheckSpaces(tt.p)
		if tt.code == "" {
			if len(fs) != 0 {
				t.Errorf("%s: unexpected %v", tt.name, fs)
			}
			continue
		}
		if len(fs) != 1 || fs[0].Code != tt.code || fs[0].Shortfall != tt.short {
			t.Errorf("%s: findings = %+v", tt.name, fs)
		}
	}

	sp := SpaceAccounting(survey.Panel{TotalSpaces: 4, SpareSpaces: 1, Breakers: []survey.Breaker{two("a"), two("b")}})
	if sp.Used != 4 || sp.Accounted != 5 || sp.Available() != 0 {
		t.Errorf("SpaceAccounting = %+v", sp)
	}
}

func TestCheckPanelLoad(t *testing.T) {
	over := survey.Panel{MainBreakerAmps: 100, Breakers: []survey.Breaker{
		load("a", 60, 240, survey.LoadNonContinuous),
		ev("b", 50, 40),
	}}
	fs := CheckPanelLoad(over)
	if len(fs) != 1 || fs[0].Code != CodePanelOverload || fs[0].Shortfall != 10 {
		t.Errorf("overload findings = %+v", fs)
	}

	feed := survey.Panel{MainBreakerAmps: 100, Breakers: []survey.Breaker{
		load("a", 60, 240, survey.LoadNonContinuous),
		{ID: "f", Kind: survey.KindSubpanel, Amps: 60, Voltage: 240},
	}}
	fs = CheckPanelLoad(feed)
	if len(fs) != 1 || fs[0].Code != CodePanelFeedThrough || fs[0].Severity != SeverityInfo {
		t.Errorf("feed-through findings = %+v", fs)
	}

	if fs := CheckPanelLoad(survey.Panel{Breakers: over.Breakers}); fs != nil {
		t.Errorf("no main: %v", fs)
	}
}

func TestCheckFeeder(t *testing.T) {
	parent := survey.Panel{ID: "mdp", Name: "MDP"}

	child := survey.Panel{ID: "sub", Name: "Sub", MainBreakerAmps: 100, Breakers: []survey.Breaker{
		load("a", 70, 240, survey.LoadNonContinuous),
	}}
	fs := CheckFeeder(parent, child, survey.Breaker{ID: "f", Kind: survey.KindSubpanel, Amps: 60})
	codes := map[Code]bool{}
	for _, f := range fs {
		codes[f.Code] = true
	}
	if !codes[CodeFeederBelowMain] || !codes[CodeFeederBelowLoad] || len(fs) != 2 {
		t.Errorf("findings = %+v", fs)
	}

	xfmr := survey.Panel{ID: "x", Name: "Xfmr", Transformer: &survey.Transformer{
		KVA: 45, Primary: electrical.System277480, Secondary: electrical.System120208,
	}}
	fs = CheckFeeder(parent, xfmr, survey.Breaker{ID: "f", Kind: survey.KindSubpanel, Amps: 50})
	if len(fs) != 1 || fs[0].Code != CodeFeederBelowTransformer {
		t.Fatalf("findings = %+v", fs)
	}
	if fs[0].Suggested != 60 {
		t.Errorf("suggested = %d, want 60", fs[0].Suggested)
	}

	if fs := CheckFeeder(parent, xfmr, survey.Breaker{ID: "f", Amps: 60}); len(fs) != 0 {
		t.Errorf("60A feeder: %v", fs)
	}
}

func TestCheckFeederUnset(t *testing.T) {
	parent := survey.Panel{ID: "mdp", Name: "MDP"}
	feeder := survey.Breaker{ID: "f", Kind: survey.KindSubpanel}

	tests := []struct {
		name      string
		child     survey.Panel
		suggested int
	}{
		{"main only", survey.Panel{ID: "sub", MainBreakerAmps: 100}, 100},
		{"load above main", survey.Panel{ID: "sub", MainBreakerAmps: 100, Breakers: []survey.Breaker{
			load("a", 105, 240, survey.LoadNonContinuous),
		}}, 110},
		{"transformer primary", survey.Panel{ID: "x", Transformer: &survey.Transformer{
			KVA: 45, Primary: electrical.System277480, Secondary: electrical.System120208,
		}}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := CheckFeeder(parent, tt.child, feeder)
			if len(fs) != 1 || fs[0].Code != CodeFeederUnset || fs[0].Severity != SeverityInfo {
				t.Fatalf("findings = %+v", fs)
			}
			if fs[0].Suggested != tt.suggested || fs[0].BreakerID != "f" {
				t.Errorf("suggested = %d, want %d", fs[0].Suggested, tt.suggested)
			}
		})
	}

	if fs := CheckFeeder(parent, survey.Panel{ID: "empty"}, feeder); len(fs) != 0 {
		t.Errorf("empty child with unset feeder: %v", fs)
	}
}

func TestCheckTransformer(t *testing.T) {
	xf := &survey.Transformer{KVA: 45, Primary: electrical.System277480, Secondary: electrical.System120208}

	p := survey.Panel{ID: "x", MainBreakerAmps: 125, Transformer: xf, Breakers: []survey.Breaker{
		load("a", 130, 208, survey.LoadNonContinuous),
	}}
	fs := CheckTransformer(p)
	if len(fs) != 1 || fs[0].Code != CodeTransformerOverload {
		t.Errorf("overload findings = %+v", fs)
	}

	p = survey.Panel{ID: "x", MainBreakerAmps: 150, Transformer: xf}
	fs = CheckTransformer(p)
	if len(fs) != 1 || fs[0].Code != CodeTransformerMain {
		t.Errorf("main findings = %+v", fs)
	}

	if fs := CheckTransformer(survey.Panel{MainBreakerAmps: 400}); fs != nil {
		t.Errorf("no transformer: %v", fs)
	}
}

func TestServiceRating(t *testing.T) {
	tests := []struct{ svc, mdp, want float64 }{
		{400, 200, 200},
		{200, 400, 200},
		{400, 0, 400},
		{0, 225, 225},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := ServiceRating(tt.svc, tt.mdp); got != tt.want {
			t.Errorf("ServiceRating(%v, %v) = %v, want %v", tt.svc, tt.mdp, got, tt.want)
		}
	}
	if got := CapacityUsed(85, 100); got != 85 {
		t.Errorf("CapacityUsed = %d", got)
	}
}

func TestPeakKW(t *testing.T) {
	bs := []survey.Breaker{
		load("a", 20, 120, survey.LoadNonContinuous),
		{ID: "f", Kind: survey.KindSubpanel, Amps: 100, Voltage: 480},
		{ID: "d", Kind: survey.KindEVCharger, Amps: 125, Voltage: 480, Charger: &survey.Charger{Level: electrical.Level3, Amps: 81}},
	}
	p := PeakKW(bs)
	if p.LoadsKW != 2.4 {
		t.Errorf("LoadsKW = %v, want 2.4", p.LoadsKW)
	}
	want := 480 * 81 * math.Sqrt(3) / 1000
	if math.Abs(p.EVKW-want) > 0.01 {
		t.Errorf("EVKW = %v, want %v", p.EVKW, want)
	}
}

func TestAnalyze(t *testing.T) {
	ed := survey.NewEditor(survey.NewCounter())
	s := ed.New(survey.ServiceEntrance{Voltage: electrical.System120240, Amps: 100})
	mdp := s.Panels[0].ID
	s, _, _ = ed.AddBreaker(s, mdp, survey.Breaker{Amps: 20})
	s, _, _ = ed.AddBreaker(s, mdp, survey.Breaker{
		Kind: survey.KindEVCharger, Amps: 45, LoadType: survey.LoadContinuous,
		Charger: &survey.Charger{Level: electrical.Level2, Amps: 40},
	})
	s, sub, _ := ed.AddPanel(s, mdp)
	s.Panels[0].MainBreakerAmps = 200
	s.Panels[0].TotalSpaces = 4

	r := Analyze(s)
	if len(r.Panels) != 2 || r.Panels[0].PanelID != mdp || r.Panels[1].PanelID != sub.ID {
		t.Fatalf("panels = %+v", r.Panels)
	}
	if r.Panels[1].Depth != 1 || r.Panels[1].Voltage != electrical.System120240 {
		t.Errorf("sub report = %+v", r.Panels[1])
	}

	svc, ok := r.Service(s.Services[0].ID)
	if !ok {
		t.Fatal("missing service report")
	}
	if svc.RatingAmps != 100 {
		t.Errorf("rating = %v, want 100", svc.RatingAmps)
	}
	// ceil(45 × 1.25) + 20
	if svc.Demand.Total != 77 {
		t.Errorf("demand = %v, want 77", svc.Demand.Total)
	}
	if svc.LoadAmps != 65 || svc.CapacityUsedPct != 65 {
		t.Errorf("load = %v (%d%%)", svc.LoadAmps, svc.CapacityUsedPct)
	}
	if len(svc.PanelIDs) != 2 {
		t.Errorf("service panels = %v", svc.PanelIDs)
	}

	codes := map[Code]int{}
	for _, f := range r.Findings {
		codes[f.Code]++
	}
	// 1 + 2 (ev) + 2 (feeder) = 5 poles in 4 spaces
	if codes[CodeSpaceOver] != 1 {
		t.Errorf("expected space-over finding, got %v", codes)
	}
	if codes[CodeEVBreakerUndersized] != 1 {
		t.Errorf("expected ev finding, got %v", codes)
	}
	if r.OK() {
		t.Error("report with warnings is OK")
	}
	if r.Count(SeverityError) != 1 {
		t.Errorf("errors = %d, want 1", r.Count(SeverityError))
	}
}

func TestAnalyzeServiceWithSeveralMDPs(t *testing.T) {
	ed := survey.NewEditor(survey.NewCounter())
	s := ed.New(survey.ServiceEntrance{Voltage: electrical.System277480, Amps: 800})
	svc := s.Services[0].ID
	s, second, err := ed.AddRootPanel(s, svc)
	if err != nil {
		t.Fatal(err)
	}

	rating := func(s survey.Survey) float64 {
		t.Helper()
		sr, ok := Analyze(s).Service(svc)
		if !ok {
			t.Fatal("missing service report")
		}
		return sr.RatingAmps
	}

	s.Panels[0].MainBreakerAmps = 400
	if got := rating(s); got != 800 {
		t.Errorf("one main unset: rating = %v, want service 800", got)
	}
	for i := range s.Panels {
		if s.Panels[i].ID == second.ID {
			s.Panels[i].MainBreakerAmps = 300
		}
	}
	if got := rating(s); got != 700 {
		t.Errorf("400 + 300 mains: rating = %v, want 700", got)
	}
	s.Panels[0].MainBreakerAmps = 600
	if got := rating(s); got != 800 {
		t.Errorf("600 + 300 mains: rating = %v, want service 800", got)
	}
}

func TestAnalyzeServiceDemandExceeded(t *testing.T) {
	ed := survey.NewEditor(survey.NewCounter())
	s := ed.New(survey.ServiceEntrance{Voltage: electrical.System120240, Amps: 100})
	mdp := s.Panels[0].ID
	s, _, _ = ed.AddBreaker(s, mdp, survey.Breaker{Amps: 80, LoadType: survey.LoadContinuous})
	s, _, _ = ed.AddBreaker(s, mdp, survey.Breaker{Amps: 20})

	r := Analyze(s)
	svc := r.Services[0]
	if svc.Demand.Total != 120 {
		t.Fatalf("demand = %v, want 120", svc.Demand.Total)
	}
	var demand, capacity *Finding
	for i, f := range svc.Findings {
		switch f.Code {
		case CodeServiceDemand:
			demand = &svc.Findings[i]
		case CodeServiceCapacity:
			capacity = &svc.Findings[i]
		}
	}
	if demand == nil || demand.Shortfall != 20 {
		t.Errorf("demand finding = %+v", demand)
	}
	if capacity == nil || capacity.Severity != SeverityInfo {
		t.Errorf("capacity finding = %+v", capacity)
	}
	if r.Demand.Total != 120 {
		t.Errorf("system demand = %v", r.Demand.Total)
	}
}

func TestSeverityText(t *testing.T) {
	var s Severity
	if err := s.UnmarshalText([]byte("warning")); err != nil || s != SeverityWarning {
		t.Errorf("UnmarshalText = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("fatal")); err == nil {
		t.Error("expected error")
	}
	if Worst(nil) >= SeverityInfo {
		t.Error("Worst(nil) should be below info")
	}
}
