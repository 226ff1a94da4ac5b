package render

import (
	"fmt"
	"strings"
)

// Format specifies an output format for a scene.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// DOT produces a Graphviz representation of the scene. Node positions are
// pinned so neato reproduces the ring layout.
func DOT(scene Scene) string {
	var b strings.Builder
	b.WriteString("graph snowball {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=10];\n")
	b.WriteString("  edge [color=\"#999999\"];\n\n")

	for _, n := range scene.Nodes {
		b.WriteString(fmt.Sprintf("  %q [label=%q, fillcolor=%q, class=%q, pos=\"%.1f,%.1f!\", width=%.2f];\n",
			n.ID, n.Label, n.Fill, string(n.Class), n.X, -n.Y, 2*n.Radius/72))
	}
	if len(scene.Edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range scene.Edges {
		b.WriteString(fmt.Sprintf("  %q -- %q [weight=\"%.1f\"];\n", e.Source, e.Target, e.Strength))
	}

	b.WriteString("}\n")
	return b.String()
}

// JSON produces a node/edge model of the scene.
func JSON(scene Scene) map[string]interface{} {
	nodes := scene.Nodes
	if nodes == nil {
		nodes = []NodeView{}
	}
	edges := scene.Edges
	if edges == nil {
		edges = []EdgeView{}
	}
	return map[string]interface{}{
		"width":      scene.Width,
		"height":     scene.Height,
		"epoch":      scene.Epoch,
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}
