// Package survey models the electrical distribution of a site as an arena of
// panels and breakers.
//
// A [Survey] is an immutable snapshot: one or more service entrances, each
// owning one or more root panels (MDPs), and a flat list of panels linked by
// id. A sub-panel names its parent through ParentPanelID and the breaker in
// the parent that feeds it through FeedBreakerID; that breaker is of kind
// [KindSubpanel] and names the child back through SubPanelID. Both sides of
// the link are always written together by the [Editor].
//
// # Snapshots
//
// Every [Editor] mutation takes a snapshot and returns a new one. The input
// is never modified, so readers such as the compliance calculator or the
// diagram layout can hold a snapshot without locking.
//
//	ed := survey.NewEditor(survey.NewCounter())
//	s := ed.New(survey.ServiceEntrance{Voltage: electrical.System277480, Amps: 800})
//	mdp := s.Panels[0]
//	s, sub, _ := ed.AddPanel(s, mdp.ID)
//	s, _ = ed.SetTransformer(s, sub.ID, &survey.Transformer{KVA: 45, Secondary: electrical.System120208})
//	s.EffectiveVoltage(sub.ID) // "120/208V"
//
// # Voltage
//
// A panel's effective voltage system is its PanelVoltage override when set
// (written by [Editor.SetTransformer]), else its parent's effective voltage,
// else the voltage of its owning service.
package survey

import (
	"errors"

	"github.com/evsingleline/singleline/pkg/electrical"
)

var (
	// ErrPanelNotFound is returned when an operation names a panel id that
	// is not in the snapshot.
	ErrPanelNotFound = errors.New("panel not found")

	// ErrBreakerNotFound is returned when an operation names a breaker id
	// that is not in the given panel.
	ErrBreakerNotFound = errors.New("breaker not found")

	// ErrServiceNotFound is returned when an operation names an unknown
	// service id.
	ErrServiceNotFound = errors.New("service not found")

	// ErrFeederBreaker is returned by [Editor.AddBreaker] for a breaker of
	// kind subpanel. Feeder breakers are only created by [Editor.AddPanel].
	ErrFeederBreaker = errors.New("feeder breakers are created with their sub-panel")

	// ErrInvalidTransformer is returned by [Editor.SetTransformer] when the
	// secondary system is unknown, is not a step-down option for a
	// 277/480V supply, or the kVA rating is negative.
	ErrInvalidTransformer = errors.New("invalid transformer")

	// ErrInvalidBreaker is returned by [Editor.AddBreaker] when a charger
	// level or breaker voltage cannot be served by the panel's system.
	ErrInvalidBreaker = errors.New("invalid breaker")

	// ErrInvalidSnapshot is wrapped by every [Survey.Validate] failure.
	ErrInvalidSnapshot = errors.New("invalid survey snapshot")
)

// Survey is a complete site snapshot.
type Survey struct {
	SiteInfo SiteInfo          `json:"siteInfo"`
	Services []ServiceEntrance `json:"services"`
	Panels   []Panel           `json:"panels"`
}

// SiteInfo describes where and when the survey was taken.
type SiteInfo struct {
	CustomerName   string `json:"customerName,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zip            string `json:"zip,omitempty"`
	SurveyDate     string `json:"surveyDate,omitempty"`
	TechnicianName string `json:"technicianName,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// ServiceEntrance is a utility service feeding one or more root panels.
type ServiceEntrance struct {
	ID              string            `json:"id"`
	Name            string            `json:"name,omitempty"`
	UtilityProvider string            `json:"utilityProvider,omitempty"`
	Voltage         electrical.System `json:"voltage"`
	Phase           electrical.Phase  `json:"phase,omitempty"`
	Amps            float64           `json:"amps,omitempty"`
	MeterNumber     string            `json:"meterNumber,omitempty"`
	Condition       Condition         `json:"condition,omitempty"`
}

// Panel is a panelboard. Root panels have no ParentPanelID and carry the
// ServiceID of the service that owns them.
type Panel struct {
	ID            string `json:"id"`
	ServiceID     string `json:"serviceId,omitempty"`
	ParentPanelID string `json:"parentPanelId,omitempty"`
	FeedBreakerID string `json:"feedBreakerId,omitempty"`

	Name            string    `json:"name,omitempty"`
	Location        string    `json:"location,omitempty"`
	Make            string    `json:"make,omitempty"`
	Model           string    `json:"model,omitempty"`
	MainBreakerAmps float64   `json:"mainBreakerAmps,omitempty"`
	BusRatingAmps   float64   `json:"busRatingAmps,omitempty"`
	TotalSpaces     int       `json:"totalSpaces,omitempty"`
	SpareSpaces     int       `json:"spareSpaces,omitempty"`
	Condition       Condition `json:"condition,omitempty"`

	Transformer  *Transformer      `json:"transformer,omitempty"`
	PanelVoltage electrical.System `json:"panelVoltage,omitempty"`

	// Breakers are in circuit layout order.
	Breakers []Breaker `json:"breakers"`
}

// IsRoot reports whether p is an MDP.
func (p Panel) IsRoot() bool { return p.ParentPanelID == "" }

// Breaker returns the breaker with the given id.
func (p Panel) Breaker(id string) (Breaker, bool) {
	if i := p.breakerIndex(id); i >= 0 {
		return p.Breakers[i], true
	}
	return Breaker{}, false
}

func (p Panel) breakerIndex(id string) int {
	for i := range p.Breakers {
		if p.Breakers[i].ID == id {
			return i
		}
	}
	return -1
}

// Transformer steps a sub-panel's voltage down from its feeder.
type Transformer struct {
	KVA       float64           `json:"kva"`
	Primary   electrical.System `json:"primary,omitempty"`
	Secondary electrical.System `json:"secondary"`
}

// PrimaryFLA returns the primary winding full-load amps.
func (t Transformer) PrimaryFLA() float64 { return electrical.TransformerFLA(t.KVA, t.Primary) }

// SecondaryFLA returns the secondary winding full-load amps.
func (t Transformer) SecondaryFLA() float64 { return electrical.TransformerFLA(t.KVA, t.Secondary) }

// Breaker is one overcurrent device in a panel. Kind selects which of the
// kind-specific fields apply: SubPanelID for [KindSubpanel], Charger for
// [KindEVCharger].
type Breaker struct {
	ID            string      `json:"id"`
	CircuitNumber string      `json:"circuitNumber,omitempty"`
	Label         string      `json:"label,omitempty"`
	Amps          float64     `json:"amps,omitempty"`
	Voltage       int         `json:"voltage,omitempty"`
	Kind          BreakerKind `json:"kind"`
	Condition     Condition   `json:"condition,omitempty"`
	LoadType      LoadType    `json:"loadType,omitempty"`

	SubPanelID string   `json:"subPanelId,omitempty"`
	Charger    *Charger `json:"charger,omitempty"`
}

// Charger holds the EV-specific fields of a [KindEVCharger] breaker.
type Charger struct {
	Level           electrical.Level `json:"level,omitempty"`
	Amps            float64          `json:"amps,omitempty"`
	Ports           int              `json:"ports,omitempty"`
	ProfileID       string           `json:"profileId,omitempty"`
	WireRunFeet     float64          `json:"wireRunFeet,omitempty"`
	WireSize        string           `json:"wireSize,omitempty"`
	ConduitType     string           `json:"conduitType,omitempty"`
	InstallLocation string           `json:"installLocation,omitempty"`
}

// Poles returns the number of spaces the breaker occupies.
func (b Breaker) Poles() int {
	return PolesFor(b.Voltage, b.Kind)
}

// ChargerAmps returns the charger's continuous draw, or 0 for non-EV breakers.
func (b Breaker) ChargerAmps() float64 {
	if b.Kind != KindEVCharger || b.Charger == nil {
		return 0
	}
	return b.Charger.Amps
}

// ChargerLevel returns the charger level, or "" for non-EV breakers.
func (b Breaker) ChargerLevel() electrical.Level {
	if b.Kind != KindEVCharger || b.Charger == nil {
		return ""
	}
	return b.Charger.Level
}

// PowerKW returns the breaker's peak demand contribution in kW. EV breakers
// use the charger's input power; feeders contribute nothing.
func (b Breaker) PowerKW() float64 {
	switch b.Kind {
	case KindEVCharger:
		return electrical.ChargerPowerKW(b.Voltage, b.ChargerAmps())
	case KindSubpanel:
		return 0
	default:
		return electrical.KVA(b.Voltage, b.Amps)
	}
}

// PolesFor returns the space count for a breaker of kind at volts.
func PolesFor(volts int, kind BreakerKind) int {
	return electrical.PolesFor(volts, kind == KindEVCharger)
}

// Clone returns a deep copy of s.
func (s Survey) Clone() Survey {
	out := Survey{SiteInfo: s.SiteInfo}
	if s.Services != nil {
		out.Services = append([]ServiceEntrance(nil), s.Services...)
	}
	if s.Panels != nil {
		out.Panels = make([]Panel, len(s.Panels))
		for i, p := range s.Panels {
			out.Panels[i] = p.clone()
		}
	}
	return out
}

func (p Panel) clone() Panel {
	if p.Transformer != nil {
		t := *p.Transformer
		p.Transformer = &t
	}
	if p.Breakers != nil {
		bs := make([]Breaker, len(p.Breakers))
		for i, b := range p.Breakers {
			bs[i] = b.clone()
		}
		p.Breakers = bs
	}
	return p
}

func (b Breaker) clone() Breaker {
	if b.Charger != nil {
		c := *b.Charger
		b.Charger = &c
	}
	return b
}
