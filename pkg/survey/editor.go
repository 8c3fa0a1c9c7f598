package survey

import (
	"fmt"
	"slices"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/profile"
)

// Editor applies mutations to survey snapshots. Every method returns a new
// snapshot and leaves its input untouched. Links between a sub-panel and its
// feeder breaker are always created and removed together.
//
// An Editor is safe for concurrent use if its IDGenerator is.
type Editor struct {
	ids IDGenerator
}

// NewEditor returns an editor minting ids from ids. A nil generator uses
// random UUIDs.
func NewEditor(ids IDGenerator) *Editor {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Editor{ids: ids}
}

// newID mints an id that does not collide with any id in used.
func (e *Editor) newID(used map[string]bool, kind string) string {
	for {
		id := e.ids.NewID(kind)
		if id != "" && !used[id] {
			used[id] = true
			return id
		}
	}
}

// =============================================================================
// Services
// =============================================================================

// New returns a snapshot holding svc and its MDP.
func (e *Editor) New(svc ServiceEntrance) Survey {
	s, _, _ := e.AddService(Survey{}, svc)
	return s
}

// AddService appends svc with a fresh id and creates its root panel.
func (e *Editor) AddService(s Survey, svc ServiceEntrance) (Survey, ServiceEntrance, Panel) {
	out := s.Clone()
	used := out.usedIDs()

	svc.ID = e.newID(used, "service")
	if svc.Voltage == "" {
		svc.Voltage = electrical.System120240
	}
	if svc.Phase == "" {
		svc.Phase = electrical.PhaseOf(svc.Voltage)
	}
	if svc.Condition == "" {
		svc.Condition = ConditionExisting
	}
	if svc.Name == "" {
		svc.Name = fmt.Sprintf("Service %d", len(out.Services)+1)
	}
	out.Services = append(out.Services, svc)

	mdp := Panel{
		ID:        e.newID(used, "panel"),
		ServiceID: svc.ID,
		Name:      "MDP",
		Condition: ConditionExisting,
		Breakers:  []Breaker{},
	}
	if len(out.Services) > 1 {
		mdp.Name = fmt.Sprintf("MDP %d", len(out.Services))
	}
	out.Panels = append(out.Panels, mdp)
	return out, svc, mdp
}

// UpdateService replaces the service with svc.ID. Its voltage change
// cascades to every panel that inherits from it.
func (e *Editor) UpdateService(s Survey, svc ServiceEntrance) (Survey, error) {
	i := s.serviceIndex(svc.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrServiceNotFound, svc.ID)
	}
	out := s.Clone()
	if svc.Phase == "" || svc.Voltage != s.Services[i].Voltage {
		svc.Phase = electrical.PhaseOf(svc.Voltage)
	}
	out.Services[i] = svc
	return out, nil
}

// RemoveService removes a service and every panel it owns. The last
// service is never removed.
func (e *Editor) RemoveService(s Survey, serviceID string) Survey {
	i := s.serviceIndex(serviceID)
	if i < 0 || len(s.Services) <= 1 {
		return s
	}
	doomed := make(map[string]bool)
	for _, r := range s.Roots(serviceID) {
		doomed[r.ID] = true
		for _, id := range s.Descendants(r.ID) {
			doomed[id] = true
		}
	}
	out := s.Clone()
	out.Services = append(out.Services[:i:i], out.Services[i+1:]...)
	out.Panels = dropPanels(out.Panels, doomed)
	return out
}

// UpdateSiteInfo replaces the site information.
func (e *Editor) UpdateSiteInfo(s Survey, info SiteInfo) Survey {
	out := s.Clone()
	out.SiteInfo = info
	return out
}

// =============================================================================
// Panels
// =============================================================================

// AddPanel creates a panel. With a parentID it creates a sub-panel together
// with the feeder breaker in the parent, numbered at the next free position
// and rated at the parent's line-to-line voltage. With an empty parentID it
// adds a root panel to the first service.
func (e *Editor) AddPanel(s Survey, parentID string) (Survey, Panel, error) {
	if parentID == "" {
		if len(s.Services) == 0 {
			return s, Panel{}, fmt.Errorf("%w: survey has no service", ErrServiceNotFound)
		}
		return e.AddRootPanel(s, s.Services[0].ID)
	}

	pi := s.panelIndex(parentID)
	if pi < 0 {
		return s, Panel{}, fmt.Errorf("%w: %s", ErrPanelNotFound, parentID)
	}

	out := s.Clone()
	used := out.usedIDs()
	parent := &out.Panels[pi]

	child := Panel{
		ID:            e.newID(used, "panel"),
		ParentPanelID: parent.ID,
		Name:          fmt.Sprintf("Panel %d", len(out.Panels)+1),
		Condition:     ConditionExisting,
		Breakers:      []Breaker{},
	}

	volts := electrical.LineToLineVoltage(s.EffectiveVoltage(parent.ID))
	feeder := Breaker{
		ID:            e.newID(used, "breaker"),
		CircuitNumber: parent.NextCircuit(PolesFor(volts, KindSubpanel)),
		Label:         child.Name,
		Voltage:       volts,
		Kind:          KindSubpanel,
		Condition:     ConditionExisting,
		LoadType:      LoadNonContinuous,
		SubPanelID:    child.ID,
	}
	child.FeedBreakerID = feeder.ID

	parent.Breakers = append(parent.Breakers, feeder)
	out.Panels = append(out.Panels, child)
	return out, child, nil
}

// AddRootPanel adds another MDP to the given service.
func (e *Editor) AddRootPanel(s Survey, serviceID string) (Survey, Panel, error) {
	if s.serviceIndex(serviceID) < 0 {
		return s, Panel{}, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}
	out := s.Clone()
	p := Panel{
		ID:        e.newID(out.usedIDs(), "panel"),
		ServiceID: serviceID,
		Name:      fmt.Sprintf("Panel %d", len(out.Panels)+1),
		Condition: ConditionExisting,
		Breakers:  []Breaker{},
	}
	out.Panels = append(out.Panels, p)
	return out, p, nil
}

// RemovePanel removes a panel, every panel below it, and the feeder breaker
// that fed it. Removing the last root of a service, or an unknown panel, is
// a no-op.
func (e *Editor) RemovePanel(s Survey, id string) Survey {
	p, ok := s.Panel(id)
	if !ok {
		return s
	}
	if p.IsRoot() && len(s.Roots(s.rootServiceID(p))) <= 1 {
		return s
	}

	doomed := map[string]bool{id: true}
	for _, d := range s.Descendants(id) {
		doomed[d] = true
	}

	out := s.Clone()
	out.Panels = dropPanels(out.Panels, doomed)
	return out
}

// dropPanels removes doomed panels and any feeder breaker left pointing at
// one of them.
func dropPanels(panels []Panel, doomed map[string]bool) []Panel {
	kept := panels[:0]
	for _, p := range panels {
		if doomed[p.ID] {
			continue
		}
		bs := p.Breakers[:0]
		for _, b := range p.Breakers {
			if b.Kind == KindSubpanel && doomed[b.SubPanelID] {
				continue
			}
			bs = append(bs, b)
		}
		p.Breakers = bs
		kept = append(kept, p)
	}
	return kept
}

// UpdatePanel replaces the descriptive fields of the panel with p.ID: name,
// location, make, model, ratings, spaces and condition. Structural fields
// (links, breakers, transformer) are kept. A renamed sub-panel relabels its
// feeder breaker.
func (e *Editor) UpdatePanel(s Survey, p Panel) (Survey, error) {
	i := s.panelIndex(p.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrPanelNotFound, p.ID)
	}
	out := s.Clone()
	cur := &out.Panels[i]
	renamed := cur.Name != p.Name

	cur.Name = p.Name
	cur.Location = p.Location
	cur.Make = p.Make
	cur.Model = p.Model
	cur.MainBreakerAmps = p.MainBreakerAmps
	cur.BusRatingAmps = p.BusRatingAmps
	cur.TotalSpaces = p.TotalSpaces
	cur.SpareSpaces = p.SpareSpaces
	cur.Condition = p.Condition

	if renamed && cur.FeedBreakerID != "" {
		if pi := out.panelIndex(cur.ParentPanelID); pi >= 0 {
			parent := &out.Panels[pi]
			if bi := parent.breakerIndex(cur.FeedBreakerID); bi >= 0 {
				parent.Breakers[bi].Label = p.Name
			}
		}
	}
	return out, nil
}

// SetTransformer attaches t to a panel and overrides the panel's voltage
// with the transformer secondary. An empty primary is filled with the
// voltage supplying the panel. A nil t removes the transformer and the
// override, so the panel inherits from its parent again.
func (e *Editor) SetTransformer(s Survey, panelID string, t *Transformer) (Survey, error) {
	i := s.panelIndex(panelID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrPanelNotFound, panelID)
	}
	out := s.Clone()
	p := &out.Panels[i]

	if t == nil {
		p.Transformer = nil
		p.PanelVoltage = ""
		return out, nil
	}

	xf := *t
	if !xf.Secondary.Valid() {
		return s, fmt.Errorf("%w: secondary %q", ErrInvalidTransformer, xf.Secondary)
	}
	if xf.KVA < 0 {
		return s, fmt.Errorf("%w: kva %v", ErrInvalidTransformer, xf.KVA)
	}
	if xf.Primary == "" {
		xf.Primary = s.SupplyVoltage(panelID)
	}
	if xf.Primary == electrical.System277480 && !slices.Contains(electrical.StepDownOptions(xf.Primary), xf.Secondary) {
		return s, fmt.Errorf("%w: %s cannot be stepped down to %s", ErrInvalidTransformer, xf.Primary, xf.Secondary)
	}
	p.Transformer = &xf
	p.PanelVoltage = xf.Secondary
	return out, nil
}

// =============================================================================
// Breakers
// =============================================================================

// AddBreaker appends b to a panel with a fresh id. An empty circuit number is
// allocated; an empty kind is a load; an EV breaker without charger fields
// gets the panel's default level. Feeder breakers are rejected, as are
// charger levels and voltages the panel's system cannot serve.
func (e *Editor) AddBreaker(s Survey, panelID string, b Breaker) (Survey, Breaker, error) {
	i := s.panelIndex(panelID)
	if i < 0 {
		return s, Breaker{}, fmt.Errorf("%w: %s", ErrPanelNotFound, panelID)
	}
	switch b.Kind {
	case "":
		b.Kind = KindLoad
	case KindSubpanel:
		return s, Breaker{}, ErrFeederBreaker
	case KindLoad, KindEVCharger:
	default:
		return s, Breaker{}, fmt.Errorf("unknown breaker kind %q", b.Kind)
	}

	out := s.Clone()
	p := &out.Panels[i]
	sys := s.EffectiveVoltage(panelID)

	b.ID = e.newID(out.usedIDs(), "breaker")
	b.SubPanelID = ""
	if b.Kind == KindEVCharger {
		if b.Charger == nil {
			b.Charger = &Charger{Level: electrical.DefaultChargerLevel(sys), Ports: 1}
		} else {
			c := *b.Charger
			if c.Level == "" {
				c.Level = electrical.DefaultChargerLevel(sys)
			}
			b.Charger = &c
		}
		if b.Voltage == 0 {
			b.Voltage = electrical.ChargerVoltage(b.Charger.Level, sys)
		}
	} else {
		b.Charger = nil
		if b.Voltage == 0 {
			b.Voltage = electrical.PhaseVoltage(sys)
		}
	}
	if err := servable(b, sys); err != nil {
		return s, Breaker{}, err
	}
	if b.Condition == "" {
		b.Condition = ConditionExisting
	}
	if b.LoadType == "" {
		b.LoadType = LoadNonContinuous
	}
	if b.CircuitNumber == "" {
		b.CircuitNumber = p.NextCircuit(b.Poles())
	}

	p.Breakers = append(p.Breakers, b)
	return out, b, nil
}

// AddLoad appends a load breaker at the panel's phase-to-neutral voltage.
func (e *Editor) AddLoad(s Survey, panelID string) (Survey, Breaker, error) {
	return e.AddBreaker(s, panelID, Breaker{Kind: KindLoad})
}

// AddEVCharger appends a new EV charger breaker. When prof is non-nil the
// charger level, amps, ports, conductor and breaker rating come from it;
// otherwise the panel's default level is used and ratings are left unset.
// EV chargers are continuous loads.
func (e *Editor) AddEVCharger(s Survey, panelID string, prof *profile.Profile) (Survey, Breaker, error) {
	i := s.panelIndex(panelID)
	if i < 0 {
		return s, Breaker{}, fmt.Errorf("%w: %s", ErrPanelNotFound, panelID)
	}
	sys := s.EffectiveVoltage(panelID)
	b := Breaker{
		Kind:      KindEVCharger,
		Label:     "EV Charger",
		Condition: ConditionNew,
		LoadType:  LoadContinuous,
		Charger:   &Charger{Level: electrical.DefaultChargerLevel(sys), Ports: 1},
	}
	if prof != nil {
		b.Label = prof.Name
		b.Amps = float64(prof.BreakerAmps())
		b.Charger.Level = prof.Level
		b.Charger.Amps = prof.ChargerAmps
		b.Charger.Ports = prof.Ports
		b.Charger.ProfileID = prof.ID
		b.Charger.WireSize = prof.RecommendedConductor
		if b.Charger.WireSize == "" {
			b.Charger.WireSize = prof.MinConductor
		}
	}
	b.Voltage = electrical.ChargerVoltage(b.Charger.Level, sys)
	return e.AddBreaker(s, panelID, b)
}

// UpdateBreaker replaces the breaker with b.ID in panelID. The breaker's
// kind and sub-panel link are kept. Circuit numbers are taken as given.
// Load and EV breakers must stay servable by the panel's system.
func (e *Editor) UpdateBreaker(s Survey, panelID string, b Breaker) (Survey, error) {
	pi := s.panelIndex(panelID)
	if pi < 0 {
		return s, fmt.Errorf("%w: %s", ErrPanelNotFound, panelID)
	}
	bi := s.Panels[pi].breakerIndex(b.ID)
	if bi < 0 {
		return s, fmt.Errorf("%w: %s in panel %s", ErrBreakerNotFound, b.ID, panelID)
	}
	out := s.Clone()
	cur := out.Panels[pi].Breakers[bi]

	b.Kind = cur.Kind
	b.SubPanelID = cur.SubPanelID
	switch b.Kind {
	case KindEVCharger:
		if b.Charger == nil {
			b.Charger = cur.Charger
		} else {
			c := *b.Charger
			b.Charger = &c
		}
	default:
		b.Charger = nil
	}
	if b.Kind != KindSubpanel {
		if err := servable(b, s.EffectiveVoltage(panelID)); err != nil {
			return s, err
		}
	}
	out.Panels[pi].Breakers[bi] = b
	return out, nil
}

// servable reports whether a panel on sys can feed b.
func servable(b Breaker, sys electrical.System) error {
	if b.Kind == KindEVCharger && b.Charger != nil && !slices.Contains(electrical.ChargerLevels(sys), b.Charger.Level) {
		return fmt.Errorf("%w: %s charger on a %s panel", ErrInvalidBreaker, b.Charger.Level, sys)
	}
	if !slices.Contains(electrical.LoadVoltages(sys), b.Voltage) {
		return fmt.Errorf("%w: %d V on a %s panel", ErrInvalidBreaker, b.Voltage, sys)
	}
	return nil
}

// RemoveBreaker removes a breaker. Removing a feeder breaker removes the
// sub-panel it feeds, with everything below it.
func (e *Editor) RemoveBreaker(s Survey, panelID, breakerID string) (Survey, error) {
	pi := s.panelIndex(panelID)
	if pi < 0 {
		return s, fmt.Errorf("%w: %s", ErrPanelNotFound, panelID)
	}
	bi := s.Panels[pi].breakerIndex(breakerID)
	if bi < 0 {
		return s, fmt.Errorf("%w: %s in panel %s", ErrBreakerNotFound, breakerID, panelID)
	}

	b := s.Panels[pi].Breakers[bi]
	if b.Kind == KindSubpanel && b.SubPanelID != "" {
		if _, ok := s.Panel(b.SubPanelID); ok {
			return e.RemovePanel(s, b.SubPanelID), nil
		}
	}

	out := s.Clone()
	bs := out.Panels[pi].Breakers
	out.Panels[pi].Breakers = append(bs[:bi:bi], bs[bi+1:]...)
	return out, nil
}
