// Package render turns routed boards into images and reports.
//
// Every renderer is a pure consumer of a [router.Snapshot]: nothing here
// touches a live session or the search. Formats:
//
//   - SVG board: leads, routed traces (coloured by net), vias, pending
//     connections as dashed rubber bands ([RenderSVG])
//   - PNG occupancy raster, one colour per obstacle kind, scaled up with
//     nearest-neighbour sampling ([RenderPNG])
//   - Net graph: leads as nodes, connections as edges, laid out by Graphviz
//     ([ToDOT], [RenderNetSVG])
//   - JSON report of the board and per-connection outcomes ([RenderJSON])
//   - ASCII viewport for terminals ([ASCII])
package render

import (
	"fmt"
	"image/color"
)

// Format names accepted by Render.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatDOT   = "dot"
	FormatNets  = "nets"
	FormatJSON  = "json"
	FormatASCII = "txt"
)

// Formats lists every supported format.
var Formats = []string{FormatSVG, FormatPNG, FormatDOT, FormatNets, FormatJSON, FormatASCII}

// netPalette colours traces and leads by net index.
var netPalette = []color.RGBA{
	{0xe6, 0x39, 0x46, 0xff},
	{0x1d, 0x35, 0x57, 0xff},
	{0x2a, 0x9d, 0x8f, 0xff},
	{0xf4, 0xa2, 0x61, 0xff},
	{0x6a, 0x4c, 0x93, 0xff},
	{0x45, 0x7b, 0x9d, 0xff},
	{0xe7, 0x6f, 0x51, 0xff},
	{0x26, 0x46, 0x53, 0xff},
}

func netColor(i int) color.RGBA {
	if i < 0 {
		return color.RGBA{0x88, 0x88, 0x88, 0xff}
	}
	return netPalette[i%len(netPalette)]
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
