package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/router"
)

// ToDOT describes the netlist as an undirected Graphviz graph: one node per
// lead (filled with its net colour, pinned at its board position) and one
// edge per connection. Routed edges are solid and labelled with their segment
// count; queued edges are dashed.
func ToDOT(snap *router.Snapshot) string {
	var buf bytes.Buffer
	buf.WriteString("graph nets {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontcolor=white];\n")
	buf.WriteString("  edge [penwidth=2];\n\n")

	for _, l := range snap.Leads {
		fill := hex(netColor(netlist.NetOf(snap.Nets, l.ID)))
		// Graphviz y grows upwards.
		fmt.Fprintf(&buf, "  %q [fillcolor=%q, pos=\"%d,%d!\"];\n",
			l.Name, fill, l.Origin.X, snap.Height-1-l.Origin.Y)
	}
	buf.WriteString("\n")

	for _, c := range snap.Connections {
		a, b := snap.Lead(c.Start), snap.Lead(c.End)
		if a == nil || b == nil {
			continue
		}
		if !c.Routed() {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed, color=\"#2ca02c\"];\n", a.Name, b.Name)
			continue
		}
		segments := 0
		if int(c.Trace) < len(snap.Traces) {
			segments = len(snap.Traces[c.Trace].Lines)
		}
		fmt.Fprintf(&buf, "  %q -- %q [label=\"%d\"];\n", a.Name, b.Name, segments)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderNetSVG lays out a DOT graph with Graphviz (neato, so pinned lead
// positions are kept) and returns SVG.
func RenderNetSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render net graph")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// viewBox so the graph scales with its container.
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
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
