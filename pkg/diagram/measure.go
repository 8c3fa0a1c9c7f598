package diagram

import (
	"math"

	"github.com/evsingleline/singleline/pkg/survey"
)

// Measure returns the subtree width of panelID: one column per non-feeder
// breaker plus the width of every child subtree, and at least one column.
// Unknown panels measure one column.
func Measure(s survey.Survey, panelID string) float64 {
	p, ok := s.Panel(panelID)
	if !ok {
		return ColumnWidth
	}
	return newMeasurer(s).width(p)
}

type measurer struct {
	s      survey.Survey
	widths map[string]float64
	active map[string]bool
}

func newMeasurer(s survey.Survey) *measurer {
	return &measurer{
		s:      s,
		widths: make(map[string]float64, len(s.Panels)),
		active: make(map[string]bool),
	}
}

func (m *measurer) width(p survey.Panel) float64 {
	if w, ok := m.widths[p.ID]; ok {
		return w
	}
	// A panel reached again while measuring its own subtree is a cycle.
	if m.active[p.ID] {
		return ColumnWidth
	}
	m.active[p.ID] = true
	cols := float64(len(loadBreakers(p)))
	for _, c := range m.s.Children(p.ID) {
		cols += m.width(c) / ColumnWidth
	}
	delete(m.active, p.ID)

	w := math.Max(1, cols) * ColumnWidth
	m.widths[p.ID] = w
	return w
}

// loadBreakers returns p's non-feeder breakers in breaker-list order.
func loadBreakers(p survey.Panel) []survey.Breaker {
	var out []survey.Breaker
	for _, b := range p.Breakers {
		if b.Kind != survey.KindSubpanel {
			out = append(out, b)
		}
	}
	return out
}
