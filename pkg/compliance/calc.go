package compliance

import (
	"math"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

// =============================================================================
// Spaces
// =============================================================================

// Spaces is a panel's space accounting. A child panel's main lugs take no
// space; its feeder breaker's poles count in the parent only.
type Spaces struct {
	Used      int `json:"used"`
	Spare     int `json:"spare"`
	Accounted int `json:"accounted"`
	Total     int `json:"total"`
}

// SpaceAccounting sums breaker poles and spare spaces for p.
func SpaceAccounting(p survey.Panel) Spaces {
	used := p.SpacesUsed()
	return Spaces{
		Used:      used,
		Spare:     p.SpareSpaces,
		Accounted: used + p.SpareSpaces,
		Total:     p.TotalSpaces,
	}
}

// Over returns how many spaces the accounting exceeds the total by.
func (s Spaces) Over() int {
	if s.Total <= 0 || s.Accounted <= s.Total {
		return 0
	}
	return s.Accounted - s.Total
}

// Unaccounted returns how many spaces are neither breakers nor spares.
func (s Spaces) Unaccounted() int {
	if s.Total <= 0 || s.Accounted >= s.Total {
		return 0
	}
	return s.Total - s.Accounted
}

// Available returns total minus used, or 0 when the total is unknown.
func (s Spaces) Available() int {
	if s.Total <= 0 {
		return 0
	}
	return s.Total - s.Used
}

// =============================================================================
// Load
// =============================================================================

// Load is a panel's connected breaker load in amps. LoadAmps covers load
// and EV breakers; EVAmps is the EV share of it. FeedThroughAmps sums the
// sub-panel feeder ratings.
type Load struct {
	LoadAmps        float64 `json:"loadAmps"`
	EVAmps          float64 `json:"evAmps"`
	FeedThroughAmps float64 `json:"feedThroughAmps"`
}

// Total returns own load plus feed-through.
func (l Load) Total() float64 { return l.LoadAmps + l.FeedThroughAmps }

// PanelLoad sums p's breaker amps by kind.
func PanelLoad(p survey.Panel) Load {
	var l Load
	for _, b := range p.Breakers {
		switch b.Kind {
		case survey.KindSubpanel:
			l.FeedThroughAmps += b.Amps
		case survey.KindEVCharger:
			l.LoadAmps += b.Amps
			l.EVAmps += b.Amps
		default:
			l.LoadAmps += b.Amps
		}
	}
	return l
}

// =============================================================================
// Demand
// =============================================================================

// Demand is the NEC 210.20(A)/215.3 demand of a breaker set.
type Demand struct {
	Continuous    float64 `json:"continuous"`
	NonContinuous float64 `json:"nonContinuous"`
	Total         float64 `json:"total"`
}

// ContinuousAdjusted returns ceil(continuous × 1.25).
func (d Demand) ContinuousAdjusted() float64 {
	return math.Ceil(d.Continuous * electrical.ContinuousFactor)
}

// NECDemand splits breaker amps into continuous and non-continuous and
// totals them as ceil(continuous × 1.25) + non-continuous. Feeder breakers
// are skipped so downstream load is not counted twice.
func NECDemand(breakers []survey.Breaker) Demand {
	var d Demand
	for _, b := range breakers {
		if b.Kind == survey.KindSubpanel {
			continue
		}
		if b.LoadType.IsContinuous() {
			d.Continuous += b.Amps
		} else {
			d.NonContinuous += b.Amps
		}
	}
	d.Total = d.ContinuousAdjusted() + d.NonContinuous
	return d
}

// =============================================================================
// Peak kW
// =============================================================================

// Peak is the advisory peak kW demand of a breaker set.
type Peak struct {
	LoadsKW float64 `json:"loadsKw"`
	EVKW    float64 `json:"evKw"`
}

// Total returns LoadsKW + EVKW.
func (p Peak) Total() float64 { return p.LoadsKW + p.EVKW }

// PeakKW sums V×A/1000 for loads and the charger input power for EV
// breakers. Feeder breakers contribute nothing.
func PeakKW(breakers []survey.Breaker) Peak {
	var p Peak
	for _, b := range breakers {
		switch b.Kind {
		case survey.KindSubpanel:
		case survey.KindEVCharger:
			p.EVKW += b.PowerKW()
		default:
			p.LoadsKW += b.PowerKW()
		}
	}
	return p
}

// =============================================================================
// Service rating
// =============================================================================

// ServiceRating returns the smaller of the service amperage and the MDP main
// breaker, or whichever one is set.
func ServiceRating(serviceAmps, mdpMainAmps float64) float64 {
	switch {
	case serviceAmps > 0 && mdpMainAmps > 0:
		return math.Min(serviceAmps, mdpMainAmps)
	case serviceAmps > 0:
		return serviceAmps
	default:
		return math.Max(mdpMainAmps, 0)
	}
}

// CapacityUsed returns load as a whole percentage of rating, or 0 when the
// rating is unknown.
func CapacityUsed(loadAmps, rating float64) int {
	if rating <= 0 {
		return 0
	}
	return int(math.Round(loadAmps / rating * 100))
}
