package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

// Build lays out s. A snapshot without panels yields an empty layout.
func Build(s survey.Survey) Layout {
	if len(s.Panels) == 0 {
		return Layout{}
	}
	b := &builder{
		s:      s,
		m:      newMeasurer(s),
		placed: make(map[string]bool, len(s.Panels)),
	}
	return b.build()
}

type builder struct {
	s      survey.Survey
	m      *measurer
	placed map[string]bool
	nodes  []Node
	edges  []Edge
	maxY   float64
}

// group is one service column: its service (nil for orphan roots) and the
// roots placed side by side beneath it.
type group struct {
	svc   *survey.ServiceEntrance
	roots []survey.Panel
	width float64
}

func (b *builder) build() Layout {
	groups := b.groups()

	var total float64
	for _, g := range groups {
		total += g.width
	}

	utilityY := PadY
	serviceY := utilityY + BoxH + RowGap
	rootY := serviceY + BoxH + RowGap

	utility := b.add(Node{
		ID:       "utility",
		Kind:     KindUtility,
		Label:    "UTILITY",
		Sublabel: utilityLabel(b.s.Services),
		X:        PadX + total/2 - BoxW/2,
		Y:        utilityY,
		W:        BoxW,
		H:        BoxH,
	})

	x := PadX
	for gi, g := range groups {
		above := utility
		if g.svc != nil {
			above = b.add(Node{
				ID:        "service-" + g.svc.ID,
				Kind:      KindService,
				Label:     serviceName(*g.svc, gi),
				Sublabel:  serviceLabel(*g.svc),
				X:         x + g.width/2 - BoxW/2,
				Y:         serviceY,
				W:         BoxW,
				H:         BoxH,
				ServiceID: g.svc.ID,
				New:       g.svc.Condition.IsNew(),
			})
			b.connect(utility, above, EdgeService)
		}

		cursor := x
		for _, r := range g.roots {
			w := b.m.width(r)
			top := rootY
			if g.svc == nil {
				top = serviceY
			}
			node := b.place(r, cursor+w/2, top)
			b.connect(above, node, EdgeService)
			cursor += w
		}
		x += g.width
	}

	width := math.Max(2*PadX+total, 2*PadX+BoxW)
	return Layout{
		Width:  width,
		Height: b.maxY + PadY,
		Nodes:  b.nodes,
		Edges:  b.edges,
	}
}

// groups returns one group per service in snapshot order, followed by a
// group of roots owned by no service.
func (b *builder) groups() []group {
	var out []group
	for i := range b.s.Services {
		svc := &b.s.Services[i]
		out = append(out, b.group(svc, b.s.Roots(svc.ID)))
	}
	var orphans []survey.Panel
	for _, r := range b.s.Roots("") {
		if _, ok := b.s.ServiceOf(r.ID); !ok {
			orphans = append(orphans, r)
		}
	}
	if len(orphans) > 0 {
		out = append(out, b.group(nil, orphans))
	}
	return out
}

func (b *builder) group(svc *survey.ServiceEntrance, roots []survey.Panel) group {
	g := group{svc: svc, roots: roots}
	for _, r := range roots {
		g.width += b.m.width(r)
	}
	g.width = math.Max(g.width, ColumnWidth)
	return g
}

// place draws p centered at cx with its top edge at top, then everything
// hanging from its bus. It returns p's node.
func (b *builder) place(p survey.Panel, cx, top float64) Node {
	b.placed[p.ID] = true
	kind := KindPanel
	if p.IsRoot() {
		kind = KindMDP
	}
	panel := b.add(Node{
		ID:       "panel-" + p.ID,
		Kind:     kind,
		Label:    panelName(p),
		Sublabel: panelLabel(b.s, p),
		X:        cx - BoxW/2,
		Y:        top,
		W:        BoxW,
		H:        BoxH,
		PanelID:  p.ID,
		New:      p.Condition.IsNew(),
	})

	loads := loadBreakers(p)
	var kids []survey.Panel
	for _, c := range b.s.Children(p.ID) {
		if !b.placed[c.ID] {
			kids = append(kids, c)
		}
	}
	if len(loads) == 0 && len(kids) == 0 {
		return panel
	}

	left := cx - b.m.width(p)/2
	busY := panel.Bottom() + BusGap

	// Column centers: loads first, then child subtrees.
	centers := make([]float64, 0, len(loads)+len(kids))
	for i := range loads {
		centers = append(centers, left+(float64(i)+0.5)*ColumnWidth)
	}
	cursor := left + float64(len(loads))*ColumnWidth
	kidWidths := make([]float64, len(kids))
	for i, c := range kids {
		kidWidths[i] = b.m.width(c)
		centers = append(centers, cursor+kidWidths[i]/2)
		cursor += kidWidths[i]
	}

	b.edges = append(b.edges,
		Edge{
			ID: "riser-" + p.ID, Kind: EdgeRiser, From: panel.ID, To: panel.ID,
			Points: []Point{{cx, panel.Bottom()}, {cx, busY}},
		},
		Edge{
			ID: "bus-" + p.ID, Kind: EdgeBus, From: panel.ID, To: panel.ID,
			Points: []Point{
				{math.Min(centers[0], cx), busY},
				{math.Max(centers[len(centers)-1], cx), busY},
			},
		},
	)

	for i, br := range loads {
		b.placeBreaker(p, br, centers[i], busY)
	}
	for i, c := range kids {
		b.placeChild(p, c, centers[len(loads)+i], busY)
	}
	return panel
}

func (b *builder) placeBreaker(p survey.Panel, br survey.Breaker, cx, busY float64) {
	node := b.add(Node{
		ID:        "breaker-" + br.ID,
		Kind:      KindBreaker,
		Label:     breakerName(br),
		Sublabel:  breakerLabel(br),
		X:         cx - BreakerW/2,
		Y:         busY + DropGap,
		W:         BreakerW,
		H:         BreakerH,
		PanelID:   p.ID,
		BreakerID: br.ID,
		New:       br.Condition.IsNew(),
	})
	b.drop(node, "panel-"+p.ID, busY)

	if br.Kind != survey.KindEVCharger {
		return
	}
	level := br.ChargerLevel()
	charger := b.add(Node{
		ID:        "charger-" + br.ID,
		Kind:      KindCharger,
		Label:     chargerName(level),
		Sublabel:  fmt.Sprintf("%.1f kW", br.PowerKW()),
		X:         cx - ChargerW/2,
		Y:         node.Bottom() + LeadGap,
		W:         ChargerW,
		H:         ChargerH,
		PanelID:   p.ID,
		BreakerID: br.ID,
		Level:     level,
		New:       br.Condition.IsNew(),
	})
	b.connect(node, charger, EdgeLead)
}

func (b *builder) placeChild(parent, child survey.Panel, cx, busY float64) {
	above := Node{ID: "panel-" + parent.ID, X: cx, Y: busY}
	next := busY + DropGap

	if feeder, ok := parent.Breaker(child.FeedBreakerID); ok {
		f := b.add(Node{
			ID:        "feeder-" + feeder.ID,
			Kind:      KindFeeder,
			Label:     feederName(feeder),
			Sublabel:  breakerLabel(feeder),
			X:         cx - BreakerW/2,
			Y:         next,
			W:         BreakerW,
			H:         BreakerH,
			PanelID:   parent.ID,
			BreakerID: feeder.ID,
			New:       feeder.Condition.IsNew(),
		})
		b.drop(f, above.ID, busY)
		above = f
		next = f.Bottom() + LeadGap
	}

	if xf := child.Transformer; xf != nil {
		primary := xf.Primary
		if primary == "" {
			primary = b.s.SupplyVoltage(child.ID)
		}
		pri := b.add(Node{
			ID:       "xfmr-pri-" + child.ID,
			Kind:     KindPrimary,
			Label:    systemName(primary),
			Sublabel: fmt.Sprintf("%g kVA", xf.KVA),
			X:        cx - CoilW/2,
			Y:        next,
			W:        CoilW,
			H:        CoilH,
			PanelID:  child.ID,
		})
		sec := b.add(Node{
			ID:       "xfmr-sec-" + child.ID,
			Kind:     KindSecondary,
			Label:    systemName(xf.Secondary),
			Sublabel: fmt.Sprintf("%.1fA FLA", xf.SecondaryFLA()),
			X:        cx - CoilW/2,
			Y:        pri.Bottom() + LeadGap/2,
			W:        CoilW,
			H:        CoilH,
			PanelID:  child.ID,
		})
		b.link(above, pri, EdgeLead)
		b.connect(pri, sec, EdgeCoupling)
		above = sec
		next = sec.Bottom() + LeadGap
	}

	node := b.place(child, cx, next)
	b.link(above, node, EdgeLead)
}

// add appends n and tracks the drawing's lowest edge.
func (b *builder) add(n Node) Node {
	b.nodes = append(b.nodes, n)
	b.maxY = math.Max(b.maxY, n.Bottom())
	return n
}

// drop connects a bus at busY straight down to n.
func (b *builder) drop(n Node, from string, busY float64) {
	b.edges = append(b.edges, Edge{
		ID:     "drop-" + n.ID,
		Kind:   EdgeDrop,
		From:   from,
		To:     n.ID,
		Points: []Point{{n.CenterX(), busY}, {n.CenterX(), n.Y}},
	})
}

// link joins from to to. A from node with zero size is a bus tap.
func (b *builder) link(from, to Node, kind EdgeKind) {
	if from.W == 0 {
		b.drop(to, from.ID, from.Y)
		return
	}
	b.connect(from, to, kind)
}

// connect draws an orthogonal elbow from the bottom center of from to the
// top center of to.
func (b *builder) connect(from, to Node, kind EdgeKind) {
	x1, y1 := from.CenterX(), from.Bottom()
	x2, y2 := to.CenterX(), to.Y
	pts := []Point{{x1, y1}, {x2, y2}}
	if x1 != x2 {
		mid := (y1 + y2) / 2
		pts = []Point{{x1, y1}, {x1, mid}, {x2, mid}, {x2, y2}}
	}
	b.edges = append(b.edges, Edge{
		ID:     kind.prefix() + to.ID,
		Kind:   kind,
		From:   from.ID,
		To:     to.ID,
		Points: pts,
	})
}

func (k EdgeKind) prefix() string { return string(k) + "-" }

// =============================================================================
// Labels
// =============================================================================

func utilityLabel(svcs []survey.ServiceEntrance) string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range svcs {
		if s.UtilityProvider != "" && !seen[s.UtilityProvider] {
			seen[s.UtilityProvider] = true
			names = append(names, s.UtilityProvider)
		}
	}
	if len(names) == 0 {
		return "Power Company"
	}
	return strings.Join(names, ", ")
}

func serviceName(s survey.ServiceEntrance, i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Service %d", i+1)
}

func serviceLabel(s survey.ServiceEntrance) string {
	return join(systemName(s.Voltage), phaseName(s.Voltage), ampsLabel(s.Amps))
}

func panelName(p survey.Panel) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.IsRoot():
		return "MDP"
	default:
		return "Sub-Panel"
	}
}

func panelLabel(s survey.Survey, p survey.Panel) string {
	sys := s.EffectiveVoltage(p.ID)
	return join(systemName(sys), phaseName(sys), ampsLabel(p.MainBreakerAmps))
}

func breakerName(b survey.Breaker) string {
	if b.Label != "" {
		return b.Label
	}
	return b.Kind.Label()
}

func feederName(b survey.Breaker) string {
	if b.CircuitNumber == "" {
		return "Feeder"
	}
	return "Feeder " + b.CircuitNumber
}

func breakerLabel(b survey.Breaker) string {
	var ckt, poles, volts string
	if b.CircuitNumber != "" && b.Kind != survey.KindSubpanel {
		ckt = "Ckt " + b.CircuitNumber
	}
	if b.Voltage > 0 {
		poles = fmt.Sprintf("%dP", b.Poles())
		volts = fmt.Sprintf("%dV", b.Voltage)
	}
	return join(ckt, ampsLabel(b.Amps), poles, volts)
}

func chargerName(l electrical.Level) string {
	if l == "" {
		return "EV"
	}
	return l.Label()
}

func systemName(s electrical.System) string {
	if s == "" {
		return "?"
	}
	return s.String()
}

func phaseName(s electrical.System) string {
	switch {
	case s == "":
		return ""
	case electrical.IsThreePhase(s):
		return "3PH"
	default:
		return "1PH"
	}
}

func ampsLabel(a float64) string {
	if a <= 0 {
		return ""
	}
	return fmt.Sprintf("%gA", a)
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
