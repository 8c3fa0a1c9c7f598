package compliance

import (
	"fmt"
	"math"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

// CheckSpaces reports over- and under-accounted spaces in p. Panels without
// a total are not checked.
func CheckSpaces(p survey.Panel) []Finding {
	sp := SpaceAccounting(p)
	detail := fmt.Sprintf("%d of %d accounted: %d breakers + %d spare", sp.Accounted, sp.Total, sp.Used, sp.Spare)
	switch {
	case sp.Over() > 0:
		return []Finding{{
			Severity:  SeverityError,
			Code:      CodeSpaceOver,
			PanelID:   p.ID,
			Shortfall: float64(sp.Over()),
			Message:   fmt.Sprintf("%s exceeds available spaces by %d (%s).", panelName(p.Name), sp.Over(), detail),
		}}
	case sp.Unaccounted() > 0:
		return []Finding{{
			Severity:  SeverityInfo,
			Code:      CodeSpaceUnaccounted,
			PanelID:   p.ID,
			Shortfall: float64(sp.Unaccounted()),
			Message:   fmt.Sprintf("%s: %d spaces unaccounted for (%s).", panelName(p.Name), sp.Unaccounted(), detail),
		}}
	}
	return nil
}

// CheckPanelLoad compares p's load against its main breaker. Own load above
// the main is a warning; own load plus feed-through above it is info.
func CheckPanelLoad(p survey.Panel) []Finding {
	main := p.MainBreakerAmps
	if main <= 0 {
		return nil
	}
	l := PanelLoad(p)
	switch {
	case l.LoadAmps > main:
		return []Finding{{
			Severity:  SeverityWarning,
			Code:      CodePanelOverload,
			PanelID:   p.ID,
			Shortfall: l.LoadAmps - main,
			Message: fmt.Sprintf("%s breaker load (%s) exceeds its main breaker (%s) by %s.",
				panelName(p.Name), amps(l.LoadAmps), amps(main), amps(l.LoadAmps-main)),
		}}
	case l.Total() > main:
		return []Finding{{
			Severity:  SeverityInfo,
			Code:      CodePanelFeedThrough,
			PanelID:   p.ID,
			Shortfall: l.Total() - main,
			Message: fmt.Sprintf("%s load plus sub-panel feeds (%s + %s = %s) exceeds its main breaker (%s).",
				panelName(p.Name), amps(l.LoadAmps), amps(l.FeedThroughAmps), amps(l.Total()), amps(main)),
		}}
	}
	return nil
}

// CheckFeeder checks the breaker feeding child from parent: it must be at
// least the child's main breaker, the child's connected load, and the
// primary FLA of the child's transformer. An unset feeder rating is
// reported as info with the largest of those minimums.
func CheckFeeder(parent, child survey.Panel, feeder survey.Breaker) []Finding {
	name, pname := panelName(child.Name), panelName(parent.Name)
	if feeder.Amps <= 0 {
		req := max(child.MainBreakerAmps, PanelLoad(child).Total())
		if xf := child.Transformer; xf != nil && xf.KVA > 0 {
			req = max(req, xf.PrimaryFLA())
		}
		if req <= 0 {
			return nil
		}
		size, _ := electrical.NextBreakerSize(req)
		return []Finding{{
			Severity:  SeverityInfo,
			Code:      CodeFeederUnset,
			PanelID:   child.ID,
			BreakerID: feeder.ID,
			Suggested: size,
			Message: fmt.Sprintf("Feeder breaker for %s in %s has no rating; it needs at least %s. Use %dA breaker.",
				name, pname, amps(req), size),
		}}
	}
	var out []Finding

	if main := child.MainBreakerAmps; main > 0 && feeder.Amps < main {
		out = append(out, Finding{
			Severity:  SeverityWarning,
			Code:      CodeFeederBelowMain,
			PanelID:   child.ID,
			BreakerID: feeder.ID,
			Shortfall: main - feeder.Amps,
			Message: fmt.Sprintf("Feeder breaker for %s in %s (%s) is smaller than the panel's main breaker (%s).",
				name, pname, amps(feeder.Amps), amps(main)),
		})
	}
	if total := PanelLoad(child).Total(); total > 0 && feeder.Amps < total {
		out = append(out, Finding{
			Severity:  SeverityWarning,
			Code:      CodeFeederBelowLoad,
			PanelID:   child.ID,
			BreakerID: feeder.ID,
			Shortfall: total - feeder.Amps,
			Message: fmt.Sprintf("Feeder breaker for %s in %s (%s) is below the panel's connected load (%s).",
				name, pname, amps(feeder.Amps), amps(total)),
		})
	}
	if xf := child.Transformer; xf != nil && xf.KVA > 0 {
		fla := xf.PrimaryFLA()
		if fla > 0 && feeder.Amps < fla {
			size, _ := electrical.NextBreakerSize(fla)
			out = append(out, Finding{
				Severity:  SeverityWarning,
				Code:      CodeFeederBelowTransformer,
				PanelID:   child.ID,
				BreakerID: feeder.ID,
				Shortfall: fla - feeder.Amps,
				Suggested: size,
				Message: fmt.Sprintf("Feeder breaker for %s in %s (%s) is below the %g kVA transformer primary FLA (%.1fA at %s). Use %dA breaker.",
					name, pname, amps(feeder.Amps), xf.KVA, fla, xf.Primary, size),
			})
		}
	}
	return out
}

// CheckTransformer checks p's load and main breaker against its
// transformer's secondary FLA.
func CheckTransformer(p survey.Panel) []Finding {
	xf := p.Transformer
	if xf == nil || xf.KVA <= 0 {
		return nil
	}
	sec := xf.SecondaryFLA()
	if sec <= 0 {
		return nil
	}
	var out []Finding
	name := panelName(p.Name)
	if load := PanelLoad(p).LoadAmps; load > sec {
		out = append(out, Finding{
			Severity:  SeverityWarning,
			Code:      CodeTransformerOverload,
			PanelID:   p.ID,
			Shortfall: load - sec,
			Message: fmt.Sprintf("%s breaker load (%s) exceeds the %g kVA transformer secondary FLA (%.1fA).",
				name, amps(load), xf.KVA, sec),
		})
	}
	if main := p.MainBreakerAmps; main > math.Ceil(sec) {
		out = append(out, Finding{
			Severity:  SeverityWarning,
			Code:      CodeTransformerMain,
			PanelID:   p.ID,
			Shortfall: main - sec,
			Message: fmt.Sprintf("%s main breaker (%s) exceeds the %g kVA transformer secondary FLA (%.1fA).",
				name, amps(main), xf.KVA, sec),
		})
	}
	return out
}

// CheckEVBreaker applies NEC 625.40 to an EV breaker in panel p: the breaker
// must be at least ceil(charger amps × 1.25). An unset breaker rating is
// reported as info with the required minimum.
func CheckEVBreaker(p survey.Panel, b survey.Breaker) []Finding {
	if b.Kind != survey.KindEVCharger {
		return nil
	}
	ca := b.ChargerAmps()
	if ca <= 0 {
		return nil
	}
	req := electrical.MinBreakerAmpsForEV(ca)
	size, _ := electrical.NextBreakerSize(float64(req))
	label, name := breakerName(b.Label), panelName(p.Name)

	if b.Amps <= 0 {
		return []Finding{{
			Severity:  SeverityInfo,
			Code:      CodeEVBreakerUnset,
			PanelID:   p.ID,
			BreakerID: b.ID,
			Suggested: size,
			Message: fmt.Sprintf("NEC 625.40: %s on %s has no breaker rating; %s charger needs at least %dA. Use %dA breaker.",
				label, name, amps(ca), req, size),
		}}
	}
	if b.Amps >= float64(req) {
		return nil
	}
	return []Finding{{
		Severity:  SeverityWarning,
		Code:      CodeEVBreakerUndersized,
		PanelID:   p.ID,
		BreakerID: b.ID,
		Shortfall: float64(req) - b.Amps,
		Suggested: size,
		Message: fmt.Sprintf("NEC 625.40: %s on %s: breaker (%s) must be >= 125%% of charger amps (%s = %dA min), short by %s. Use %dA breaker.",
			label, name, amps(b.Amps), amps(ca), req, amps(float64(req)-b.Amps), size),
	}}
}

// CheckService compares a service's NEC demand and connected load against
// its rating.
func CheckService(svc survey.ServiceEntrance, rating float64, demand Demand, loadAmps float64) []Finding {
	if rating <= 0 {
		return nil
	}
	var out []Finding
	name := svc.Name
	if name == "" {
		name = "Service"
	}
	if demand.Total > rating {
		out = append(out, Finding{
			Severity:  SeverityWarning,
			Code:      CodeServiceDemand,
			ServiceID: svc.ID,
			Shortfall: demand.Total - rating,
			Message: fmt.Sprintf("%s: NEC demand (%s) exceeds the service/MDP rating (%s) by %s.",
				name, amps(demand.Total), amps(rating), amps(demand.Total-rating)),
		})
	}
	pct := CapacityUsed(loadAmps, rating)
	switch {
	case pct > 100:
		out = append(out, Finding{
			Severity:  SeverityWarning,
			Code:      CodeServiceCapacity,
			ServiceID: svc.ID,
			Shortfall: loadAmps - rating,
			Message:   fmt.Sprintf("%s: total breaker load (%s) is %d%% of the service/MDP rating (%s).", name, amps(loadAmps), pct, amps(rating)),
		})
	case pct > 80:
		out = append(out, Finding{
			Severity:  SeverityInfo,
			Code:      CodeServiceCapacity,
			ServiceID: svc.ID,
			Message:   fmt.Sprintf("%s: total breaker load (%s) is %d%% of the service/MDP rating (%s).", name, amps(loadAmps), pct, amps(rating)),
		})
	}
	return out
}
