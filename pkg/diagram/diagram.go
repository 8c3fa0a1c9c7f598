// Package diagram lays out a survey as a one-line electrical diagram.
//
// The layout is computed in two recursive passes over the panel tree:
//
//  1. [Measure] computes each panel's subtree width bottom-up. A panel needs
//     one column of [ColumnWidth] per non-feeder breaker plus the full width
//     of every child subtree, and never less than one column.
//  2. [Build] places boxes top-down. Each panel is centered over its subtree,
//     a bus spans its columns, load and EV breakers drop to breaker boxes in
//     breaker-list order, then each child panel is placed under a feeder
//     glyph (and a transformer pair, when the child has one) in feeder order.
//
// The result is a [Layout]: positioned [Node] boxes and [Edge] connectors,
// each with a stable id derived from the survey ids. Building the same
// snapshot twice yields identical layouts, so rendered diagrams can be
// cached and snapshotted.
//
// # Element ids
//
//	utility                 utility source
//	service-<serviceID>     service entrance
//	panel-<panelID>         MDP or sub-panel box
//	breaker-<breakerID>     load or EV breaker box
//	charger-<breakerID>     EV charger glyph under its breaker
//	feeder-<breakerID>      feeder breaker glyph above a sub-panel
//	xfmr-pri-<panelID>      transformer primary coil feeding a panel
//	xfmr-sec-<panelID>      transformer secondary coil feeding a panel
//
// Renderers live in [github.com/evsingleline/singleline/pkg/diagram/sink].
package diagram

import (
	"errors"

	"github.com/evsingleline/singleline/pkg/electrical"
)

// ErrEmptyLayout is returned by renderers given a layout with no panels.
var ErrEmptyLayout = errors.New("diagram: nothing to draw")

// Geometry in user units.
const (
	ColumnWidth = 180.0
	PadX        = 40.0
	PadY        = 30.0

	BoxW = 160.0
	BoxH = 70.0

	BreakerW = 120.0
	BreakerH = 40.0

	ChargerW = 140.0
	ChargerH = 60.0

	CoilW = 60.0
	CoilH = 30.0

	// RowGap separates the utility, service and MDP rows.
	RowGap = 30.0
	// BusGap is the distance from a panel's bottom edge to its bus.
	BusGap = 25.0
	// DropGap is the distance from a bus to the boxes hanging from it.
	DropGap = 20.0
	// LeadGap separates stacked glyphs within a column.
	LeadGap = 20.0
)

// Kind classifies a node.
type Kind string

const (
	KindUtility   Kind = "utility"
	KindService   Kind = "service"
	KindMDP       Kind = "mdp"
	KindPanel     Kind = "panel"
	KindBreaker   Kind = "breaker"
	KindCharger   Kind = "charger"
	KindFeeder    Kind = "feeder"
	KindPrimary   Kind = "xfmr-primary"
	KindSecondary Kind = "xfmr-secondary"
)

// EdgeKind classifies a connector.
type EdgeKind string

const (
	// EdgeService connects the utility, services and MDPs.
	EdgeService EdgeKind = "service"
	// EdgeRiser runs from a panel's bottom edge down to its bus.
	EdgeRiser EdgeKind = "riser"
	// EdgeBus is the horizontal bus under a panel.
	EdgeBus EdgeKind = "bus"
	// EdgeDrop runs from a bus down to a breaker or feeder glyph.
	EdgeDrop EdgeKind = "drop"
	// EdgeLead connects a glyph to the one stacked beneath it.
	EdgeLead EdgeKind = "lead"
	// EdgeCoupling joins the two transformer coils.
	EdgeCoupling EdgeKind = "coupling"
)

// Node is a positioned box. X and Y are its top-left corner.
type Node struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Label    string  `json:"label"`
	Sublabel string  `json:"sublabel,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`

	ServiceID string           `json:"serviceId,omitempty"`
	PanelID   string           `json:"panelId,omitempty"`
	BreakerID string           `json:"breakerId,omitempty"`
	Level     electrical.Level `json:"level,omitempty"`
	New       bool             `json:"new,omitempty"`
}

// CenterX returns the horizontal center of n.
func (n Node) CenterX() float64 { return n.X + n.W/2 }

// Bottom returns the y coordinate of n's bottom edge.
func (n Node) Bottom() float64 { return n.Y + n.H }

// Overlaps reports whether n and o share any interior area.
func (n Node) Overlaps(o Node) bool {
	return n.X < o.X+o.W && o.X < n.X+n.W && n.Y < o.Y+o.H && o.Y < n.Y+n.H
}

// Point is a connector vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a connector polyline. From and To name the nodes it joins; a bus
// names its panel on both ends.
type Edge struct {
	ID     string   `json:"id"`
	Kind   EdgeKind `json:"kind"`
	From   string   `json:"from"`
	To     string   `json:"to"`
	Points []Point  `json:"points"`
}

// Layout is a positioned one-line diagram.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
}

// Empty reports whether the layout has nothing to draw.
func (l Layout) Empty() bool { return len(l.Nodes) == 0 }

// Node returns the node with id.
func (l Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge with id.
func (l Layout) Edge(id string) (Edge, bool) {
	for _, e := range l.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// Count returns the number of nodes of kind k.
func (l Layout) Count(k Kind) int {
	n := 0
	for _, node := range l.Nodes {
		if node.Kind == k {
			n++
		}
	}
	return n
}
