package survey

import "fmt"

// Validate checks the structural invariants of a snapshot loaded from
// outside the [Editor]:
//
//   - service, panel and breaker ids are non-empty and unique
//   - every root panel belongs to a known service, and every service owns a root
//   - every sub-panel's parent exists and its feeder breaker is a subpanel
//     breaker in that parent pointing back at it
//   - every subpanel breaker points at a panel that names it as feeder
//   - parent chains are acyclic
//
// Advisory problems (undersized breakers, overfull panels) are not checked
// here; see the compliance package. Every error wraps [ErrInvalidSnapshot].
func (s Survey) Validate() error {
	seen := make(map[string]string)
	claim := func(id, what string) error {
		if id == "" {
			return invalid("%s with empty id", what)
		}
		if prev, dup := seen[id]; dup {
			return invalid("duplicate id %q (%s and %s)", id, prev, what)
		}
		seen[id] = what
		return nil
	}

	for _, svc := range s.Services {
		if err := claim(svc.ID, "service"); err != nil {
			return err
		}
		if !svc.Voltage.Valid() {
			return invalid("service %s: unknown voltage %q", svc.ID, svc.Voltage)
		}
	}
	for _, p := range s.Panels {
		if err := claim(p.ID, "panel"); err != nil {
			return err
		}
		for _, b := range p.Breakers {
			if err := claim(b.ID, "breaker in panel "+p.ID); err != nil {
				return err
			}
			if b.Kind != "" && !b.Kind.Valid() {
				return invalid("breaker %s: unknown kind %q", b.ID, b.Kind)
			}
		}
		if p.PanelVoltage != "" && !p.PanelVoltage.Valid() {
			return invalid("panel %s: unknown voltage %q", p.ID, p.PanelVoltage)
		}
		if p.Transformer != nil && !p.Transformer.Secondary.Valid() {
			return invalid("panel %s: transformer secondary %q", p.ID, p.Transformer.Secondary)
		}
	}

	for _, p := range s.Panels {
		if err := s.validateLinks(p); err != nil {
			return err
		}
	}

	for _, svc := range s.Services {
		if len(s.Roots(svc.ID)) == 0 {
			return invalid("service %s has no root panel", svc.ID)
		}
	}
	return nil
}

func (s Survey) validateLinks(p Panel) error {
	if p.IsRoot() {
		if len(s.Services) > 0 {
			if _, ok := s.Service(s.rootServiceID(p)); !ok {
				return invalid("root panel %s: unknown service %q", p.ID, p.ServiceID)
			}
		}
	} else {
		parent, ok := s.Panel(p.ParentPanelID)
		if !ok {
			return invalid("panel %s: parent %s not found", p.ID, p.ParentPanelID)
		}
		feeder, ok := parent.Breaker(p.FeedBreakerID)
		if !ok {
			return invalid("panel %s: feeder breaker %q not in parent %s", p.ID, p.FeedBreakerID, parent.ID)
		}
		if feeder.Kind != KindSubpanel || feeder.SubPanelID != p.ID {
			return invalid("panel %s: feeder breaker %s does not link back", p.ID, feeder.ID)
		}
		if s.Depth(p.ID) < 0 {
			return invalid("panel %s: parent chain contains a cycle", p.ID)
		}
	}

	for _, b := range p.Breakers {
		if b.Kind != KindSubpanel {
			continue
		}
		child, ok := s.Panel(b.SubPanelID)
		if !ok {
			return invalid("breaker %s in panel %s: sub-panel %q not found", b.ID, p.ID, b.SubPanelID)
		}
		if child.ParentPanelID != p.ID || child.FeedBreakerID != b.ID {
			return invalid("breaker %s in panel %s: sub-panel %s does not link back", b.ID, p.ID, child.ID)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}
