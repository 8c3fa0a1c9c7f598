// Package compliance derives code-compliance results from a survey snapshot.
//
// Everything here is a pure function of a [survey.Survey]. Results are
// advisory: findings describe NEC, space and capacity problems for display
// and never block an edit, save or export.
//
// # Checks
//
//   - Space accounting: poles used plus spare spaces against total spaces
//   - Panel load: load and EV breaker amps against the main breaker
//   - Feeder alignment: feeder breaker against the child's main breaker,
//     connected load and transformer primary FLA
//   - Transformer capacity: panel load and main breaker against secondary FLA
//   - EV breaker sizing (NEC 625.40): breaker >= ceil(charger amps × 1.25)
//   - NEC demand (210.20(A)/215.3): continuous × 1.25 + non-continuous,
//     per panel and per service against the service/MDP rating
//   - Peak kW: V×A/1000 for loads, charger input power for EV breakers
//
// [Analyze] runs every check and assembles a [Report].
package compliance

import (
	"fmt"
	"strconv"
)

// Severity ranks a finding.
type Severity int

const (
	// SeverityInfo is informational: unaccounted spaces, unset ratings.
	SeverityInfo Severity = iota
	// SeverityWarning flags a likely code or capacity problem.
	SeverityWarning
	// SeverityError flags data that cannot be physically correct.
	SeverityError
)

var severityNames = [...]string{"info", "warning", "error"}

// String returns "info", "warning" or "error".
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// MarshalText encodes the severity name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	for i, n := range severityNames {
		if n == string(text) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Code identifies the rule behind a finding.
type Code string

// Finding codes.
const (
	CodeSpaceOver              Code = "space-over"
	CodeSpaceUnaccounted       Code = "space-unaccounted"
	CodePanelOverload          Code = "panel-overload"
	CodePanelFeedThrough       Code = "panel-feed-through"
	CodeFeederBelowMain        Code = "feeder-below-main"
	CodeFeederBelowLoad        Code = "feeder-below-load"
	CodeFeederBelowTransformer Code = "feeder-below-transformer"
	CodeFeederUnset            Code = "feeder-unset"
	CodeTransformerOverload    Code = "transformer-overload"
	CodeTransformerMain        Code = "transformer-main"
	CodeEVBreakerUndersized    Code = "ev-breaker-undersized"
	CodeEVBreakerUnset         Code = "ev-breaker-unset"
	CodeServiceDemand          Code = "service-demand"
	CodeServiceCapacity        Code = "service-capacity"
)

// Finding is one advisory result. Shortfall is the numeric gap in amps or
// spaces where one applies; Suggested is a recommended standard breaker size.
type Finding struct {
	Severity  Severity `json:"severity"`
	Code      Code     `json:"code"`
	ServiceID string   `json:"serviceId,omitempty"`
	PanelID   string   `json:"panelId,omitempty"`
	BreakerID string   `json:"breakerId,omitempty"`
	Message   string   `json:"message"`
	Shortfall float64  `json:"shortfall,omitempty"`
	Suggested int      `json:"suggested,omitempty"`
}

func (f Finding) String() string {
	return f.Severity.String() + ": " + f.Message
}

// Count returns the number of findings at severity sev.
func Count(fs []Finding, sev Severity) int {
	n := 0
	for _, f := range fs {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// Worst returns the highest severity in fs, or -1 for none.
func Worst(fs []Finding) Severity {
	worst := Severity(-1)
	for _, f := range fs {
		if f.Severity > worst {
			worst = f.Severity
		}
	}
	return worst
}

// amps formats a current without trailing zeros.
func amps(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "A"
}

func panelName(name string) string {
	if name == "" {
		return "Panel"
	}
	return name
}

func breakerName(label string) string {
	if label == "" {
		return "EV charger"
	}
	return label
}
