// Package electrical provides the unit conversions used throughout a
// single-line survey: voltage systems, phase counts, breaker poles,
// transformer full-load amps, kVA and kW.
//
// Every function in this package is pure. Zero or negative inputs never
// panic; they produce zero results so that half-filled survey data can be
// evaluated safely.
//
// # Voltage Systems
//
// A [System] names the service voltage configuration. Three are supported:
//
//	120/240V  single-phase, split-phase residential and small commercial
//	120/208V  three-phase wye
//	277/480V  three-phase wye
//
// Breakers carry a single voltage in volts (120, 208, 240, 277 or 480),
// which is one of the legs offered by the enclosing system.
package electrical

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sqrt3 is the three-phase line factor.
var Sqrt3 = math.Sqrt(3)

// ErrUnknownSystem is returned by [ParseSystem] for an unrecognised tag.
var ErrUnknownSystem = errors.New("unknown voltage system")

// System is a voltage-system tag such as "120/208V".
type System string

// Supported voltage systems.
const (
	System120240 System = "120/240V"
	System120208 System = "120/208V"
	System277480 System = "277/480V"
)

// Systems lists every supported system in ascending line-to-line order.
var Systems = []System{System120208, System120240, System277480}

// Phase is the phase count of a service.
type Phase string

// Phase values.
const (
	PhaseSingle Phase = "single"
	PhaseThree  Phase = "three"
)

// ParseSystem normalises s to a known [System]. Bare line-to-line values
// ("208", "240V", "480") are accepted.
func ParseSystem(s string) (System, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "V")
	switch v {
	case "120/240", "240":
		return System120240, nil
	case "120/208", "208":
		return System120208, nil
	case "277/480", "480":
		return System277480, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSystem, s)
}

// Valid reports whether s is one of the supported systems.
func (s System) Valid() bool {
	switch s {
	case System120240, System120208, System277480:
		return true
	}
	return false
}

// String returns the tag.
func (s System) String() string { return string(s) }

// LineToLineVoltage returns the line-to-line voltage of a system
// (240, 208 or 480), or 0 for an unknown system.
func LineToLineVoltage(s System) int {
	switch s {
	case System120240:
		return 240
	case System120208:
		return 208
	case System277480:
		return 480
	}
	return 0
}

// PhaseVoltage returns the line-to-neutral voltage of a system.
func PhaseVoltage(s System) int {
	switch s {
	case System120240, System120208:
		return 120
	case System277480:
		return 277
	}
	return 0
}

// IsThreePhase reports whether s is a three-phase system.
func IsThreePhase(s System) bool {
	return s == System120208 || s == System277480
}

// PhaseOf returns the phase count of s.
func PhaseOf(s System) Phase {
	if IsThreePhase(s) {
		return PhaseThree
	}
	return PhaseSingle
}

// LoadVoltages returns the breaker voltages a panel on system s can serve,
// phase-to-neutral first.
func LoadVoltages(s System) []int {
	switch s {
	case System277480:
		return []int{277, 480}
	case System120208:
		return []int{120, 208}
	case System120240:
		return []int{120, 240}
	}
	return []int{120, 240}
}

// StepDownOptions returns the secondary systems a transformer fed from s
// may produce. Only 277/480V distribution is stepped down.
func StepDownOptions(s System) []System {
	if s == System277480 {
		return []System{System120208, System120240}
	}
	return nil
}
