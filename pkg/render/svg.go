package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/router"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	cell      float64
	obstacles bool
	gridLines bool
	pending   bool
	labels    bool
}

// WithCellSize sets the size of one grid cell in SVG units (default 4).
func WithCellSize(px float64) SVGOption { return func(r *svgRenderer) { r.cell = px } }

// WithObstacles shades every cell a trace marked as an obstacle.
func WithObstacles() SVGOption { return func(r *svgRenderer) { r.obstacles = true } }

// WithGridLines draws block boundaries every grid.BlockSize cells.
func WithGridLines() SVGOption { return func(r *svgRenderer) { r.gridLines = true } }

// WithoutPending hides the rubber bands of queued connections.
func WithoutPending() SVGOption { return func(r *svgRenderer) { r.pending = false } }

// WithoutLabels hides lead names.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// RenderSVG draws the board.
func RenderSVG(snap *router.Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{cell: 4, pending: true, labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	w := float64(snap.Width) * r.cell
	h := float64(snap.Height) * r.cell
	nets := snap.Nets

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="#fbfaf5"/>`+"\n", w, h)

	if r.gridLines {
		r.renderGridLines(&buf, snap)
	}
	if r.obstacles {
		r.renderObstacles(&buf, snap)
	}
	for _, v := range snap.Vias {
		fmt.Fprintf(&buf, `  <rect class="via" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#555"/>`+"\n",
			float64(v.X)*r.cell, float64(v.Y)*r.cell, r.cell, r.cell)
	}

	for _, t := range snap.Routed() {
		c, _ := connOf(snap, t)
		r.renderTrace(&buf, t, hex(netColor(netlist.NetOf(nets, c.Start))))
	}

	if r.pending {
		for _, id := range snap.Pending {
			c := snap.Connections[id]
			a, b := snap.Lead(c.Start), snap.Lead(c.End)
			fmt.Fprintf(&buf, `  <line class="pending" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#2ca02c" stroke-width="%.1f" stroke-dasharray="%.1f"/>`+"\n",
				r.center(a.Origin.X), r.center(a.Origin.Y), r.center(b.Origin.X), r.center(b.Origin.Y),
				r.cell/2, r.cell*2)
		}
	}

	for _, l := range snap.Leads {
		r.renderLead(&buf, l, hex(netColor(netlist.NetOf(nets, l.ID))))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func connOf(snap *router.Snapshot, t netlist.Trace) (netlist.Connection, bool) {
	if t.Conn < 0 || int(t.Conn) >= len(snap.Connections) {
		return netlist.Connection{}, false
	}
	return snap.Connections[t.Conn], true
}

func (r *svgRenderer) center(v int) float64 { return (float64(v) + 0.5) * r.cell }

func (r *svgRenderer) renderGridLines(buf *bytes.Buffer, snap *router.Snapshot) {
	buf.WriteString(`  <g stroke="#e4e2d8" stroke-width="0.5">` + "\n")
	for x := grid.BlockSize; x < snap.Width; x += grid.BlockSize {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n",
			float64(x)*r.cell, float64(x)*r.cell, float64(snap.Height)*r.cell)
	}
	for y := grid.BlockSize; y < snap.Height; y += grid.BlockSize {
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			float64(y)*r.cell, float64(snap.Width)*r.cell, float64(y)*r.cell)
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) renderObstacles(buf *bytes.Buffer, snap *router.Snapshot) {
	buf.WriteString(`  <g class="obstacles" fill="#d8d4c4">` + "\n")
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			if snap.At(x, y) != grid.Line {
				continue
			}
			fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
				float64(x)*r.cell, float64(y)*r.cell, r.cell, r.cell)
		}
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) renderTrace(buf *bytes.Buffer, t netlist.Trace, stroke string) {
	if len(t.Lines) == 0 {
		return
	}
	fmt.Fprintf(buf, `  <polyline class="trace" id="trace-%d" fill="none" stroke="%s" stroke-width="%.1f" stroke-linejoin="round" stroke-linecap="round" points="`,
		t.ID, stroke, r.cell)
	fmt.Fprintf(buf, "%.1f,%.1f", r.center(t.Lines[0].Start.X), r.center(t.Lines[0].Start.Y))
	for _, l := range t.Lines {
		fmt.Fprintf(buf, " %.1f,%.1f", r.center(l.End.X), r.center(l.End.Y))
	}
	buf.WriteString(`"/>` + "\n")
}

func (r *svgRenderer) renderLead(buf *bytes.Buffer, l netlist.Lead, fill string) {
	size := float64(2*l.HalfExtent+1) * r.cell
	x := float64(l.Origin.X-l.HalfExtent) * r.cell
	y := float64(l.Origin.Y-l.HalfExtent) * r.cell
	fmt.Fprintf(buf, `  <rect class="lead" id="lead-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#222" stroke-width="0.5"/>`+"\n",
		html.EscapeString(l.Name), x, y, size, size, fill)
	if r.labels {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="monospace" font-size="%.1f" fill="#222">%s</text>`+"\n",
			x+size+r.cell/2, y, r.cell*2.5, html.EscapeString(l.Name))
	}
}
