package survey

import (
	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/numbering"
)

// Panel returns the panel with the given id.
func (s Survey) Panel(id string) (Panel, bool) {
	if i := s.panelIndex(id); i >= 0 {
		return s.Panels[i], true
	}
	return Panel{}, false
}

func (s Survey) panelIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Panels {
		if s.Panels[i].ID == id {
			return i
		}
	}
	return -1
}

// Service returns the service with the given id.
func (s Survey) Service(id string) (ServiceEntrance, bool) {
	if i := s.serviceIndex(id); i >= 0 {
		return s.Services[i], true
	}
	return ServiceEntrance{}, false
}

func (s Survey) serviceIndex(id string) int {
	for i := range s.Services {
		if s.Services[i].ID == id {
			return i
		}
	}
	return -1
}

// Roots returns the root panels owned by serviceID in snapshot order. A root
// without a ServiceID belongs to the only service when there is exactly one.
// An empty serviceID returns every root.
func (s Survey) Roots(serviceID string) []Panel {
	var out []Panel
	for _, p := range s.Panels {
		if !p.IsRoot() {
			continue
		}
		if serviceID == "" || s.rootServiceID(p) == serviceID {
			out = append(out, p)
		}
	}
	return out
}

func (s Survey) rootServiceID(root Panel) string {
	if root.ServiceID != "" {
		return root.ServiceID
	}
	if len(s.Services) == 1 {
		return s.Services[0].ID
	}
	return ""
}

// Children returns the direct sub-panels of panelID. Children are ordered by
// the position of their feeder breaker in the parent, then by snapshot order
// for any child whose feeder is missing.
func (s Survey) Children(panelID string) []Panel {
	parent, ok := s.Panel(panelID)
	if !ok {
		return nil
	}
	var out []Panel
	seen := make(map[string]bool)
	for _, b := range parent.Breakers {
		if b.Kind != KindSubpanel || b.SubPanelID == "" {
			continue
		}
		child, ok := s.Panel(b.SubPanelID)
		if !ok || child.ParentPanelID != panelID || seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		out = append(out, child)
	}
	for _, p := range s.Panels {
		if p.ParentPanelID == panelID && !seen[p.ID] {
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out
}

// Descendants returns the ids of every panel below panelID, breadth first.
// Ids seen twice are reported once.
func (s Survey) Descendants(panelID string) []string {
	var out []string
	seen := map[string]bool{panelID: true}
	queue := []string{panelID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, p := range s.Panels {
			if p.ParentPanelID == id && !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p.ID)
				queue = append(queue, p.ID)
			}
		}
	}
	return out
}

// Root returns the MDP at the top of panelID's parent chain.
func (s Survey) Root(panelID string) (Panel, bool) {
	p, ok := s.Panel(panelID)
	for steps := 0; ok && !p.IsRoot(); steps++ {
		if steps > len(s.Panels) {
			return Panel{}, false
		}
		p, ok = s.Panel(p.ParentPanelID)
	}
	return p, ok
}

// ServiceOf returns the service that owns panelID's tree.
func (s Survey) ServiceOf(panelID string) (ServiceEntrance, bool) {
	root, ok := s.Root(panelID)
	if !ok {
		return ServiceEntrance{}, false
	}
	return s.Service(s.rootServiceID(root))
}

// Depth returns the number of ancestors of panelID, or -1 if the panel is
// unknown or its chain does not reach a root.
func (s Survey) Depth(panelID string) int {
	p, ok := s.Panel(panelID)
	depth := 0
	for ok && !p.IsRoot() {
		depth++
		if depth > len(s.Panels) {
			return -1
		}
		p, ok = s.Panel(p.ParentPanelID)
	}
	if !ok {
		return -1
	}
	return depth
}

// EffectiveVoltage returns the voltage system panelID operates at: its own
// override, else its parent's effective voltage, else its service voltage.
// It returns "" when the chain reaches neither an override nor a service.
func (s Survey) EffectiveVoltage(panelID string) electrical.System {
	p, ok := s.Panel(panelID)
	for steps := 0; ok; steps++ {
		if p.PanelVoltage != "" {
			return p.PanelVoltage
		}
		if p.IsRoot() {
			svc, found := s.Service(s.rootServiceID(p))
			if !found {
				return ""
			}
			return svc.Voltage
		}
		if steps > len(s.Panels) {
			return ""
		}
		p, ok = s.Panel(p.ParentPanelID)
	}
	return ""
}

// SupplyVoltage returns the effective voltage feeding panelID from above:
// the parent's effective voltage, or the service voltage for a root.
func (s Survey) SupplyVoltage(panelID string) electrical.System {
	p, ok := s.Panel(panelID)
	if !ok {
		return ""
	}
	if p.IsRoot() {
		svc, _ := s.Service(s.rootServiceID(p))
		return svc.Voltage
	}
	return s.EffectiveVoltage(p.ParentPanelID)
}

// FeederOf returns the breaker in the parent panel that feeds panelID.
func (s Survey) FeederOf(panelID string) (Breaker, bool) {
	p, ok := s.Panel(panelID)
	if !ok || p.IsRoot() {
		return Breaker{}, false
	}
	parent, ok := s.Panel(p.ParentPanelID)
	if !ok {
		return Breaker{}, false
	}
	return parent.Breaker(p.FeedBreakerID)
}

// FindBreaker locates a breaker anywhere in the snapshot.
func (s Survey) FindBreaker(breakerID string) (Panel, Breaker, bool) {
	for _, p := range s.Panels {
		if b, ok := p.Breaker(breakerID); ok {
			return p, b, true
		}
	}
	return Panel{}, Breaker{}, false
}

// Walk visits every reachable panel depth first: services in snapshot order,
// their roots in snapshot order, then children in feeder order. Roots not
// owned by any service are visited last. Each panel is visited once.
func (s Survey) Walk(fn func(p Panel, depth int)) {
	seen := make(map[string]bool)
	var visit func(p Panel, depth int)
	visit = func(p Panel, depth int) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		fn(p, depth)
		for _, c := range s.Children(p.ID) {
			visit(c, depth+1)
		}
	}
	for _, svc := range s.Services {
		for _, r := range s.Roots(svc.ID) {
			visit(r, 0)
		}
	}
	for _, r := range s.Roots("") {
		visit(r, 0)
	}
}

// Breakers returns every breaker in the snapshot, panel by panel.
func (s Survey) Breakers() []Breaker {
	var out []Breaker
	for _, p := range s.Panels {
		out = append(out, p.Breakers...)
	}
	return out
}

// NextCircuitNumber proposes the circuit number for a new breaker with the
// given pole count in a panel holding breakers.
func NextCircuitNumber(breakers []Breaker, poles int) string {
	circuits := make([]string, len(breakers))
	for i, b := range breakers {
		circuits[i] = b.CircuitNumber
	}
	return numbering.Next(circuits, poles)
}

// NextCircuit proposes the circuit number for a new breaker in p, using the
// panel's total spaces when known.
func (p Panel) NextCircuit(poles int) string {
	circuits := make([]string, len(p.Breakers))
	for i, b := range p.Breakers {
		circuits[i] = b.CircuitNumber
	}
	return numbering.NextWithin(circuits, poles, p.TotalSpaces)
}

// SpacesUsed returns the total poles of p's breakers.
func (p Panel) SpacesUsed() int {
	n := 0
	for _, b := range p.Breakers {
		n += b.Poles()
	}
	return n
}
