// Package sink renders a [diagram.Layout] to output formats.
//
// # Formats
//
//   - [RenderSVG]: standalone SVG document (ajstarks/svgo)
//   - [RenderJSON]: the positioned layout as JSON for browser renderers
//   - [RenderPDF] and [DrawPDF]: vector drawing on a gofpdf page, used by
//     the survey report
//
// Every renderer returns [diagram.ErrEmptyLayout] for a layout with no
// nodes. Renderers draw nodes and edges in layout order, so identical
// layouts produce identical bytes.
package sink

import (
	"strconv"

	"github.com/evsingleline/singleline/pkg/diagram"
	"github.com/evsingleline/singleline/pkg/electrical"
)

// Palette colors by element.
const (
	ColorUtility    = "#6366f1"
	ColorService    = "#0891b2"
	ColorMDP        = "#dc2626"
	ColorPanel      = "#d97706"
	ColorBreaker    = "#475569"
	ColorCharger    = "#059669"
	ColorDCFC       = "#7c3aed"
	ColorFeeder     = "#d97706"
	ColorTransform  = "#0f766e"
	ColorWire       = "#94a3b8"
	ColorBus        = "#334155"
	ColorText       = "#1e293b"
	ColorSubtext    = "#64748b"
	ColorBackground = "#f8fafc"
)

// NodeColor returns the accent color for n.
func NodeColor(n diagram.Node) string {
	switch n.Kind {
	case diagram.KindUtility:
		return ColorUtility
	case diagram.KindService:
		return ColorService
	case diagram.KindMDP:
		return ColorMDP
	case diagram.KindPanel:
		return ColorPanel
	case diagram.KindCharger:
		if n.Level == electrical.Level3 {
			return ColorDCFC
		}
		return ColorCharger
	case diagram.KindFeeder:
		return ColorFeeder
	case diagram.KindPrimary, diagram.KindSecondary:
		return ColorTransform
	default:
		return ColorBreaker
	}
}

// legendItems lists the legend swatches in display order.
var legendItems = []struct {
	label string
	color string
}{
	{"Utility", ColorUtility},
	{"Service", ColorService},
	{"MDP", ColorMDP},
	{"Sub-Panel", ColorPanel},
	{"L1/L2 Charger", ColorCharger},
	{"L3 DCFC", ColorDCFC},
	{"Transformer", ColorTransform},
}

// truncate shortens s to max runes, ending in "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-2]) + "..."
}

func labelLimit(n diagram.Node) (label, sub int) {
	switch n.Kind {
	case diagram.KindBreaker, diagram.KindFeeder:
		return 16, 22
	case diagram.KindPrimary, diagram.KindSecondary:
		return 10, 12
	default:
		return 20, 26
	}
}

// rgb converts "#rrggbb" to components. Malformed input yields black.
func rgb(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func px(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
