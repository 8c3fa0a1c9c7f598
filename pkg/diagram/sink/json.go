package sink

import (
	"encoding/json"

	"github.com/evsingleline/singleline/pkg/diagram"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	title   string
	palette bool
}

// WithJSONTitle records a title in the output.
func WithJSONTitle(t string) JSONOption { return func(r *jsonRenderer) { r.title = t } }

// WithJSONColors adds each node's accent color so clients can draw without
// their own palette.
func WithJSONColors() JSONOption { return func(r *jsonRenderer) { r.palette = true } }

type jsonOutput struct {
	Title  string         `json:"title,omitempty"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Nodes  []jsonNode     `json:"nodes"`
	Edges  []diagram.Edge `json:"edges"`
}

type jsonNode struct {
	diagram.Node
	Color string `json:"color,omitempty"`
}

// RenderJSON encodes l with two-space indentation.
func RenderJSON(l diagram.Layout, opts ...JSONOption) ([]byte, error) {
	if l.Empty() {
		return nil, diagram.ErrEmptyLayout
	}
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Title:  r.title,
		Width:  l.Width,
		Height: l.Height,
		Nodes:  make([]jsonNode, len(l.Nodes)),
		Edges:  l.Edges,
	}
	for i, n := range l.Nodes {
		out.Nodes[i] = jsonNode{Node: n}
		if r.palette {
			out.Nodes[i].Color = NodeColor(n)
		}
	}
	if out.Edges == nil {
		out.Edges = []diagram.Edge{}
	}
	return json.MarshalIndent(out, "", "  ")
}

// ReadJSON decodes a layout written by [RenderJSON].
func ReadJSON(data []byte) (diagram.Layout, error) {
	var in jsonOutput
	if err := json.Unmarshal(data, &in); err != nil {
		return diagram.Layout{}, err
	}
	l := diagram.Layout{Width: in.Width, Height: in.Height, Edges: in.Edges}
	for _, n := range in.Nodes {
		l.Nodes = append(l.Nodes, n.Node)
	}
	return l, nil
}
