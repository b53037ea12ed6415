package search

import (
	"math"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
)

// Backtrack walks the distance field of g from `from` down to the seed of the
// field (distance 0), each step moving to the visited, unblocked neighbour
// with the smallest distance strictly below the current one. It returns the
// walk including both ends and false if the walk got stuck before reaching a
// seed.
func Backtrack(g *grid.Grid, from grid.Point) ([]grid.Point, bool) {
	cur := g.Get(from)
	if math.IsInf(cur.Distance, 1) {
		return nil, false
	}

	path := []grid.Point{from}
	for cur.Distance > 0 {
		var next *grid.Cell

		x0, y0, x1, y1 := g.Window(cur.P)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				n := g.At(x, y)
				if n == cur || n.Blocked() || !n.Visited {
					continue
				}
				if n.Distance < cur.Distance && (next == nil || n.Distance < next.Distance) {
					next = n
				}
			}
		}

		if next == nil {
			return path, false
		}
		path = append(path, next.P)
		cur = next
	}
	return path, true
}

// Path returns the searched cell path from Dest back to Source by walking the
// final distance field in g and appending the legs saved before each restart.
// Loops introduced by restarts are cut out.
func (r Result) Path(g *grid.Grid) ([]grid.Point, error) {
	path, ok := Backtrack(g, r.Dest)
	if !ok || path[len(path)-1] != r.Origin {
		return nil, errors.New(errors.ErrCodeInternal, "no walk from %v back to %v", r.Dest, r.Origin)
	}

	for i := len(r.Legs) - 1; i >= 0; i-- {
		leg := r.Legs[i]
		if leg[0] != path[len(path)-1] {
			return nil, errors.New(errors.ErrCodeInternal, "leg %d starts at %v, path ends at %v",
				i, leg[0], path[len(path)-1])
		}
		path = append(path, leg[1:]...)
	}

	if path[len(path)-1] != r.Source {
		return nil, errors.New(errors.ErrCodeInternal, "path ends at %v, want %v", path[len(path)-1], r.Source)
	}
	return elideLoops(path), nil
}

// elideLoops removes every closed loop from an 8-connected walk, keeping the
// walk connected.
func elideLoops(path []grid.Point) []grid.Point {
	seen := make(map[grid.Point]int, len(path))
	out := make([]grid.Point, 0, len(path))
	for _, p := range path {
		if i, ok := seen[p]; ok {
			for _, q := range out[i+1:] {
				delete(seen, q)
			}
			out = out[:i+1]
			continue
		}
		seen[p] = len(out)
		out = append(out, p)
	}
	return out
}

// PathLength returns the summed edge cost along path.
func PathLength(path []grid.Point) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += EdgeCost(path[i-1], path[i])
	}
	return total
}
