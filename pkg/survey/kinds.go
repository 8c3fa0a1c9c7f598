package survey

import "fmt"

// BreakerKind distinguishes terminal loads, sub-panel feeders and EV
// charger circuits.
type BreakerKind string

const (
	// KindLoad is a branch circuit feeding a terminal load.
	KindLoad BreakerKind = "load"
	// KindSubpanel feeds a child panel. Its amps are a feeder rating, not a load.
	KindSubpanel BreakerKind = "subpanel"
	// KindEVCharger feeds an EV charger.
	KindEVCharger BreakerKind = "evcharger"
)

// Valid reports whether k is a known kind.
func (k BreakerKind) Valid() bool {
	switch k {
	case KindLoad, KindSubpanel, KindEVCharger:
		return true
	}
	return false
}

// Label returns a display name for the kind.
func (k BreakerKind) Label() string {
	switch k {
	case KindSubpanel:
		return "Sub Panel"
	case KindEVCharger:
		return "EV Charger"
	default:
		return "Load"
	}
}

// UnmarshalText accepts the known kinds. An empty kind decodes as load.
func (k *BreakerKind) UnmarshalText(text []byte) error {
	v := BreakerKind(text)
	if v == "" {
		v = KindLoad
	}
	if !v.Valid() {
		return fmt.Errorf("unknown breaker kind %q", text)
	}
	*k = v
	return nil
}

// Condition records whether equipment exists on site or is proposed.
type Condition string

// Condition values.
const (
	ConditionExisting Condition = "existing"
	ConditionNew      Condition = "new"
)

// IsNew reports whether c marks proposed equipment.
func (c Condition) IsNew() bool { return c == ConditionNew }

// LoadType is the NEC 210.2 classification of a load.
type LoadType string

// Load types.
const (
	LoadContinuous    LoadType = "continuous"
	LoadNonContinuous LoadType = "noncontinuous"
)

// IsContinuous reports whether t is a continuous load.
func (t LoadType) IsContinuous() bool { return t == LoadContinuous }
