package compliance

import (
	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

// PanelReport holds the derived values and findings for one panel.
type PanelReport struct {
	PanelID         string            `json:"panelId"`
	Name            string            `json:"name"`
	ParentID        string            `json:"parentId,omitempty"`
	Depth           int               `json:"depth"`
	Voltage         electrical.System `json:"voltage"`
	MainBreakerAmps float64           `json:"mainBreakerAmps,omitempty"`

	Spaces      Spaces             `json:"spaces"`
	Load        Load               `json:"load"`
	Demand      Demand             `json:"demand"`
	Peak        Peak               `json:"peak"`
	Transformer *TransformerReport `json:"transformer,omitempty"`
	Findings    []Finding          `json:"findings,omitempty"`
}

// TransformerReport summarizes a step-down transformer feeding a panel.
type TransformerReport struct {
	KVA          float64           `json:"kva"`
	Primary      electrical.System `json:"primary"`
	Secondary    electrical.System `json:"secondary"`
	PrimaryFLA   float64           `json:"primaryFla"`
	SecondaryFLA float64           `json:"secondaryFla"`
}

// ServiceReport compares a service's panels against its rating.
type ServiceReport struct {
	ServiceID       string            `json:"serviceId"`
	Name            string            `json:"name"`
	Voltage         electrical.System `json:"voltage"`
	RatingAmps      float64           `json:"ratingAmps"`
	LoadAmps        float64           `json:"loadAmps"`
	EVAmps          float64           `json:"evAmps"`
	CapacityUsedPct int               `json:"capacityUsedPct"`
	Demand          Demand            `json:"demand"`
	Peak            Peak              `json:"peak"`
	PanelIDs        []string          `json:"panelIds"`
	Findings        []Finding         `json:"findings,omitempty"`
}

// Report is the full compliance result for a snapshot. Panels are in
// [survey.Survey.Walk] order; Findings holds every panel finding in that
// order followed by the service findings.
type Report struct {
	Panels   []PanelReport   `json:"panels"`
	Services []ServiceReport `json:"services"`
	Demand   Demand          `json:"demand"`
	Peak     Peak            `json:"peak"`
	Findings []Finding       `json:"findings"`
}

// Panel returns the report for panelID.
func (r Report) Panel(panelID string) (PanelReport, bool) {
	for _, p := range r.Panels {
		if p.PanelID == panelID {
			return p, true
		}
	}
	return PanelReport{}, false
}

// Service returns the report for serviceID.
func (r Report) Service(serviceID string) (ServiceReport, bool) {
	for _, s := range r.Services {
		if s.ServiceID == serviceID {
			return s, true
		}
	}
	return ServiceReport{}, false
}

// Count returns the number of findings at sev.
func (r Report) Count(sev Severity) int { return Count(r.Findings, sev) }

// OK reports whether the snapshot produced no warnings or errors.
func (r Report) OK() bool { return Worst(r.Findings) < SeverityWarning }

// Analyze runs every check against s.
func Analyze(s survey.Survey) Report {
	r := Report{
		Demand: NECDemand(s.Breakers()),
		Peak:   PeakKW(s.Breakers()),
	}

	s.Walk(func(p survey.Panel, depth int) {
		pr := analyzePanel(s, p, depth)
		r.Panels = append(r.Panels, pr)
		r.Findings = append(r.Findings, pr.Findings...)
	})

	for _, svc := range s.Services {
		sr := analyzeService(s, svc)
		r.Services = append(r.Services, sr)
		r.Findings = append(r.Findings, sr.Findings...)
	}
	return r
}

func analyzePanel(s survey.Survey, p survey.Panel, depth int) PanelReport {
	pr := PanelReport{
		PanelID:  p.ID,
		Name:     p.Name,
		ParentID: p.ParentPanelID,
		Depth:    depth,
		Voltage:  s.EffectiveVoltage(p.ID),
		Spaces:   SpaceAccounting(p),
		Load:     PanelLoad(p),
		Demand:   NECDemand(p.Breakers),
		Peak:     PeakKW(p.Breakers),
	}
	pr.MainBreakerAmps = p.MainBreakerAmps
	if xf := p.Transformer; xf != nil {
		pr.Transformer = &TransformerReport{
			KVA:          xf.KVA,
			Primary:      xf.Primary,
			Secondary:    xf.Secondary,
			PrimaryFLA:   xf.PrimaryFLA(),
			SecondaryFLA: xf.SecondaryFLA(),
		}
	}

	var fs []Finding
	fs = append(fs, CheckSpaces(p)...)
	fs = append(fs, CheckPanelLoad(p)...)
	if !p.IsRoot() {
		parent, ok := s.Panel(p.ParentPanelID)
		feeder, fok := s.FeederOf(p.ID)
		if ok && fok {
			fs = append(fs, CheckFeeder(parent, p, feeder)...)
		}
	}
	fs = append(fs, CheckTransformer(p)...)
	for _, b := range p.Breakers {
		fs = append(fs, CheckEVBreaker(p, b)...)
	}
	pr.Findings = fs
	return pr
}

func analyzeService(s survey.Survey, svc survey.ServiceEntrance) ServiceReport {
	sr := ServiceReport{
		ServiceID: svc.ID,
		Name:      svc.Name,
		Voltage:   svc.Voltage,
	}

	var breakers []survey.Breaker
	roots := s.Roots(svc.ID)
	for _, root := range roots {
		ids := append([]string{root.ID}, s.Descendants(root.ID)...)
		for _, id := range ids {
			p, ok := s.Panel(id)
			if !ok {
				continue
			}
			sr.PanelIDs = append(sr.PanelIDs, id)
			l := PanelLoad(p)
			sr.LoadAmps += l.LoadAmps
			sr.EVAmps += l.EVAmps
			breakers = append(breakers, p.Breakers...)
		}
	}

	sr.RatingAmps = ServiceRating(svc.Amps, rootMains(roots))
	sr.Demand = NECDemand(breakers)
	sr.Peak = PeakKW(breakers)
	sr.CapacityUsedPct = CapacityUsed(sr.LoadAmps, sr.RatingAmps)
	sr.Findings = CheckService(svc, sr.RatingAmps, sr.Demand, sr.LoadAmps)
	return sr
}

// rootMains returns the combined main breaker amps of a service's MDPs, or 0
// when any of them has no main set.
func rootMains(roots []survey.Panel) float64 {
	var total float64
	for _, r := range roots {
		if r.MainBreakerAmps <= 0 {
			return 0
		}
		total += r.MainBreakerAmps
	}
	return total
}
