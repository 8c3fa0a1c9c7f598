// Package blocks renders a survey as a nested block diagram with Graphviz.
//
// Where the one-line diagram in package diagram positions every element
// itself, the block diagram leaves placement to Graphviz: each service and
// panel becomes a cluster, breakers become nodes inside their panel's
// cluster, and feeders link to the sub-panel cluster they supply.
//
//	dot := blocks.ToDOT(s, blocks.Options{Breakers: true})
//	svg, err := blocks.RenderSVG(ctx, dot)
package blocks

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

// Options configures DOT generation.
type Options struct {
	// Breakers draws a node per load and EV breaker. Feeders are always
	// drawn as edges between panels.
	Breakers bool
	// Direction is the Graphviz rankdir. The default is "TB".
	Direction string
}

// ToDOT converts s to Graphviz DOT. Output order follows the snapshot:
// services, then panels depth first in feeder order, then breakers in
// breaker-list order.
func ToDOT(s survey.Survey, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph survey {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  fontname=\"Helvetica\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  edge [color=\"#94a3b8\"];\n")
	buf.WriteString("\n")

	buf.WriteString("  \"utility\" [label=\"UTILITY\", color=\"#6366f1\", penwidth=2];\n")
	for _, svc := range s.Services {
		fmt.Fprintf(&buf, "  %q [label=%q, color=\"#0891b2\", penwidth=2];\n",
			"service-"+svc.ID, strings.TrimSpace(svc.Name+"\n"+string(svc.Voltage)))
		fmt.Fprintf(&buf, "  \"utility\" -> %q;\n", "service-"+svc.ID)
		for _, r := range s.Roots(svc.ID) {
			writePanel(&buf, s, r, opts, "  ")
			fmt.Fprintf(&buf, "  %q -> %q [lhead=%q];\n", "service-"+svc.ID, anchor(r.ID), cluster(r.ID))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writePanel(buf *bytes.Buffer, s survey.Survey, p survey.Panel, opts Options, indent string) {
	color := "#d97706"
	if p.IsRoot() {
		color = "#dc2626"
	}
	label := p.Name
	if v := s.EffectiveVoltage(p.ID); v != "" {
		label += "\n" + string(v)
	}
	if p.MainBreakerAmps > 0 {
		label += " " + strconv.FormatFloat(p.MainBreakerAmps, 'f', -1, 64) + "A"
	}

	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, cluster(p.ID))
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, label)
	fmt.Fprintf(buf, "%s  color=%q;\n", indent, color)
	fmt.Fprintf(buf, "%s  style=\"rounded\";\n", indent)
	fmt.Fprintf(buf, "%s  %q [shape=point, width=0.05, label=\"\"];\n", indent, anchor(p.ID))

	if opts.Breakers {
		for _, b := range p.Breakers {
			if b.Kind == survey.KindSubpanel {
				continue
			}
			fmt.Fprintf(buf, "%s  %q [%s];\n", indent, "breaker-"+b.ID, strings.Join(breakerAttrs(b), ", "))
			fmt.Fprintf(buf, "%s  %q -> %q [arrowhead=none];\n", indent, anchor(p.ID), "breaker-"+b.ID)
		}
	}

	kids := s.Children(p.ID)
	for _, c := range kids {
		writePanel(buf, s, c, opts, indent+"  ")
	}
	fmt.Fprintf(buf, "%s}\n", indent)

	for _, c := range kids {
		attrs := []string{fmt.Sprintf("lhead=%q", cluster(c.ID))}
		if f, ok := p.Breaker(c.FeedBreakerID); ok {
			attrs = append(attrs, fmt.Sprintf("label=%q", feederLabel(f, c)))
		}
		fmt.Fprintf(buf, "%s%q -> %q [%s];\n", indent, anchor(p.ID), anchor(c.ID), strings.Join(attrs, ", "))
	}
}

func breakerAttrs(b survey.Breaker) []string {
	label := b.Label
	if label == "" {
		label = b.Kind.Label()
	}
	if b.Amps > 0 {
		label += "\n" + strconv.FormatFloat(b.Amps, 'f', -1, 64) + "A"
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if b.Kind == survey.KindEVCharger {
		color := "#059669"
		if b.ChargerLevel() == electrical.Level3 {
			color = "#7c3aed"
		}
		attrs = append(attrs, fmt.Sprintf("color=%q", color), "penwidth=1.5")
	}
	if b.Condition.IsNew() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func feederLabel(f survey.Breaker, child survey.Panel) string {
	var parts []string
	if f.Amps > 0 {
		parts = append(parts, strconv.FormatFloat(f.Amps, 'f', -1, 64)+"A")
	}
	if xf := child.Transformer; xf != nil {
		parts = append(parts, fmt.Sprintf("%g kVA %s -> %s", xf.KVA, xf.Primary, xf.Secondary))
	}
	return strings.Join(parts, "\n")
}

func cluster(panelID string) string { return "cluster_" + panelID }

func anchor(panelID string) string { return "panel-" + panelID }

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg element with one
// sized in user units so the drawing scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
