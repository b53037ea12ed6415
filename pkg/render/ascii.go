package render

import (
	"strings"

	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/router"
)

// Glyphs used by ASCII.
const (
	GlyphFree = '.'
	GlyphLine = '#'
	GlyphLead = '@'
	GlyphVia  = 'o'
)

// Glyph returns the character for an obstacle kind.
func Glyph(o grid.Obstacle) rune {
	switch o {
	case grid.Line:
		return GlyphLine
	case grid.Lead:
		return GlyphLead
	case grid.Via:
		return GlyphVia
	}
	return GlyphFree
}

// ASCII renders the w×h viewport whose top-left cell is (x0, y0), one rune
// per cell. The viewport is clipped to the board.
func ASCII(snap *router.Snapshot, x0, y0, w, h int) []string {
	x0, y0 = max(0, x0), max(0, y0)
	x1, y1 := min(snap.Width, x0+w), min(snap.Height, y0+h)

	rows := make([]string, 0, max(0, y1-y0))
	var sb strings.Builder
	for y := y0; y < y1; y++ {
		sb.Reset()
		for x := x0; x < x1; x++ {
			sb.WriteRune(Glyph(snap.At(x, y)))
		}
		rows = append(rows, sb.String())
	}
	return rows
}
