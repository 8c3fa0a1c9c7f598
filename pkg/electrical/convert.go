package electrical

import "math"

// TransformerFLA returns the full-load amps of a transformer winding rated
// kva on system s. Single-phase: kVA×1000/V. Three-phase: kVA×1000/(V×√3).
// Returns 0 when kva or the system voltage is not positive.
func TransformerFLA(kva float64, s System) float64 {
	v := float64(LineToLineVoltage(s))
	if kva <= 0 || v <= 0 {
		return 0
	}
	if IsThreePhase(s) {
		return kva * 1000 / (v * Sqrt3)
	}
	return kva * 1000 / v
}

// PolesFor returns the number of panel spaces a breaker at volts occupies.
// 120 and 277V breakers take one pole, 208, 240 and 480V take two, and an
// EV charger breaker at 480V is a three-pole DCFC feed. Unknown voltages
// take one pole.
func PolesFor(volts int, evCharger bool) int {
	switch volts {
	case 208, 240:
		return 2
	case 480:
		if evCharger {
			return 3
		}
		return 2
	}
	return 1
}

// ChargerPowerKW returns the AC input power of a charger drawing amps at
// volts. A 480V charger is three-phase and includes the √3 factor.
func ChargerPowerKW(volts int, amps float64) float64 {
	if volts <= 0 || amps <= 0 {
		return 0
	}
	kw := float64(volts) * amps / 1000
	if volts == 480 {
		kw *= Sqrt3
	}
	return kw
}

// KVA returns volts×amps/1000.
func KVA(volts int, amps float64) float64 {
	if volts <= 0 || amps <= 0 {
		return 0
	}
	return float64(volts) * amps / 1000
}

// ContinuousFactor is the NEC multiplier applied to continuous loads.
const ContinuousFactor = 1.25

// MinBreakerAmpsForEV returns the smallest breaker rating permitted for a
// charger with the given continuous draw: ceil(amps × 1.25) (NEC 625.40).
func MinBreakerAmpsForEV(chargerAmps float64) int {
	if chargerAmps <= 0 {
		return 0
	}
	return int(math.Ceil(chargerAmps * ContinuousFactor))
}
