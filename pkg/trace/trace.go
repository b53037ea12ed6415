// Package trace turns a searched cell path into a routed trace.
//
// [Materialize] walks the path from the destination back to the source,
// stamps the clamped 3×3 neighbourhood of every step as Line obstacles on the
// committed board, and compresses the walk into straight lines. Each line
// remembers exactly the cells it changed from Free, so lifting a trace later
// restores the board to what it was before.
package trace

import (
	"slices"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/search"
)

// Result is a materialized trace.
type Result struct {
	// Path is the routed cell path, source first.
	Path []grid.Point

	// Lines are the compressed segments, source to destination.
	Lines []netlist.Line

	// Marked lists every cell that became an obstacle on the board.
	Marked []grid.Point

	// Length is the summed edge cost of Path.
	Length float64
}

// Materialize recovers the path of res from the distance field in field and
// stamps it onto board. Cells that are obstacles in field are never touched;
// cells that are already obstacles on board are left alone and not recorded.
// field and board must have the same dimensions.
func Materialize(field *grid.Grid, res search.Result, board *grid.Grid) (Result, error) {
	if field.Width() != board.Width() || field.Height() != board.Height() {
		return Result{}, errors.New(errors.ErrCodeInternal, "field %dx%d does not match board %dx%d",
			field.Width(), field.Height(), board.Width(), board.Height())
	}

	path, err := res.Path(field)
	if err != nil {
		return Result{}, err
	}

	out := Result{Length: search.PathLength(path)}

	if len(path) == 1 {
		out.Path = path
		out.Lines = []netlist.Line{{Start: path[0], End: path[0]}}
		return out, nil
	}

	// Walk destination to source; a run closes at every vertex.
	var lines []netlist.Line
	start := path[0]
	var marked []grid.Point
	for i := 0; i < len(path)-1; i++ {
		marked = stamp(field, board, path[i], marked)

		if i+1 == len(path)-1 || isVertex(path, i+1) {
			lines = append(lines, netlist.Line{Start: start, End: path[i+1], Obstacles: marked})
			out.Marked = append(out.Marked, marked...)
			start = path[i+1]
			marked = nil
		}
	}

	slices.Reverse(lines)
	for i := range lines {
		lines[i].Start, lines[i].End = lines[i].End, lines[i].Start
	}
	slices.Reverse(path)

	out.Path = path
	out.Lines = lines
	return out, nil
}

// stamp marks the free neighbourhood of p as Line on board and appends the
// changed cells to marked.
func stamp(field, board *grid.Grid, p grid.Point, marked []grid.Point) []grid.Point {
	x0, y0, x1, y1 := field.Window(p)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if field.At(x, y).Blocked() {
				continue
			}
			c := board.At(x, y)
			if c.Obstacle != grid.Free {
				continue
			}
			c.Obstacle = grid.Line
			marked = append(marked, c.P)
		}
	}
	return marked
}

// isVertex reports whether the walk changes direction at path[i].
func isVertex(path []grid.Point, i int) bool {
	return path[i].Sub(path[i-1]) != path[i+1].Sub(path[i])
}

// Compress reduces an 8-connected walk to its vertices: both ends plus every
// cell where the step direction changes.
func Compress(path []grid.Point) []grid.Point {
	if len(path) <= 2 {
		return slices.Clone(path)
	}
	out := []grid.Point{path[0]}
	for i := 1; i < len(path)-1; i++ {
		if isVertex(path, i) {
			out = append(out, path[i])
		}
	}
	return append(out, path[len(path)-1])
}

// Lift clears every obstacle recorded by lines from g.
func Lift(g *grid.Grid, lines []netlist.Line) {
	for _, l := range lines {
		g.Lift(l.Obstacles)
	}
}
