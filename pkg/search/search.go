// Package search implements the obstacle-aware grid search used by the router.
//
// The search is a greedy, A*-flavoured Dijkstra walk: from the current cell it
// relaxes the up-to-8 neighbours with Euclidean edge costs and steps to the
// unvisited neighbour with the smallest distance+heuristic. Candidates that
// lose to a better neighbour are remembered in a FIFO ring of cell indices;
// when a step finds no free neighbour the walk resumes from the oldest
// remembered candidate that is still open.
//
// When even the ring is empty the search is stuck. In definite mode that is a
// DEAD_END failure. In indefinite mode the walk so far is saved as a leg, the
// whole distance field is reset and re-seeded at the stuck cell, and the walk
// continues from there. Restarts trade optimality for progress on contrived
// layouts; the stitched result is a valid obstacle-free path but not
// necessarily the shortest one.
//
// The result of a search is the distance field left in the grid. [Backtrack]
// and [Result.Path] recover the cell path from it.
package search

import (
	"context"
	"math"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
)

const (
	// DefaultMaxRestarts bounds indefinite-mode restarts.
	DefaultMaxRestarts = 8

	// cancelCheckInterval is how many relaxation steps run between
	// context checks.
	cancelCheckInterval = 1024
)

// Options configures a single search.
type Options struct {
	// Indefinite restarts the distance field at the stuck cell instead of
	// failing when the walk dead-ends.
	Indefinite bool `json:"indefinite,omitempty"`

	// Heuristic weights. The zero value selects DefaultHeuristic.
	Heuristic Heuristic `json:"heuristic"`

	// MaxRestarts bounds indefinite-mode restarts. Zero selects
	// DefaultMaxRestarts; a negative value leaves only ctx as the bound.
	MaxRestarts int `json:"max_restarts"`
}

func (o Options) withDefaults() Options {
	if o.Heuristic == (Heuristic{}) {
		o.Heuristic = DefaultHeuristic()
	}
	if o.MaxRestarts == 0 {
		o.MaxRestarts = DefaultMaxRestarts
	}
	return o
}

// Result describes a finished search. The distance field itself stays in the
// grid the search ran on.
type Result struct {
	Source grid.Point
	Dest   grid.Point

	// Origin is the seed (distance 0) of the final distance field. It equals
	// Source unless the search restarted.
	Origin grid.Point

	// Legs holds the walks saved before each restart, oldest first. Each leg
	// runs from the restart cell back to the previous origin.
	Legs [][]grid.Point

	Visits   int
	Restarts int

	// Distance is the destination's distance in the final field.
	Distance float64
}

// Search resets the distance field of g and searches from src to dst. On
// success the destination is visited and the field can be walked back with
// Result.Path.
//
// Errors: INVALID_INPUT for out-of-range endpoints, DEAD_END when a definite
// search runs out of candidates, SEARCH_EXHAUSTED when every cell was visited
// (or the restart budget ran out) without reaching dst, CANCELED when ctx is
// done.
func Search(ctx context.Context, g *grid.Grid, src, dst grid.Point, opts Options) (Result, error) {
	if !g.Contains(src) || !g.Contains(dst) {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "search %v -> %v outside %dx%d grid",
			src, dst, g.Width(), g.Height())
	}
	opts = opts.withDefaults()

	g.ResetSearch()

	res := Result{Source: src, Dest: dst, Origin: src}
	current := g.Get(src)
	dest := g.Get(dst)
	current.Distance = 0

	if current == dest {
		current.Visited = true
		return res, nil
	}

	area := g.Area()
	remaining := area
	fallback := newRing(64)
	steps := 0

	for remaining > 0 {
		steps++
		if steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, errors.Wrap(errors.ErrCodeCanceled, err, "search %v -> %v", src, dst)
			}
		}

		next := relax(g, current, dst, opts.Heuristic, fallback)

		current.Visited = true
		remaining--
		res.Visits++

		if next == nil {
			next = drain(g, fallback)
		}

		if next == nil {
			if !opts.Indefinite {
				return res, errors.New(errors.ErrCodeDeadEnd, "search %v -> %v stuck at %v after %d visits",
					src, dst, current.P, res.Visits)
			}
			if opts.MaxRestarts > 0 && res.Restarts >= opts.MaxRestarts {
				return res, errors.New(errors.ErrCodeSearchExhausted, "search %v -> %v gave up after %d restarts",
					src, dst, res.Restarts)
			}

			leg, ok := Backtrack(g, current.P)
			if !ok {
				return res, errors.New(errors.ErrCodeInternal, "distance field broken at %v", current.P)
			}
			if len(leg) > 1 {
				res.Legs = append(res.Legs, leg)
			}

			g.ResetSearch()
			fallback.Reset()
			remaining = area
			current.Distance = 0
			current.Visited = true
			res.Origin = current.P
			res.Restarts++
			continue
		}

		current = next
		if current == dest {
			current.Visited = true
			res.Distance = current.Distance
			return res, nil
		}
	}

	return res, errors.New(errors.ErrCodeSearchExhausted, "search %v -> %v visited all %d cells", src, dst, area)
}

// relax updates the tentative distances around current and returns the open
// neighbour with the smallest f = distance + heuristic. Each open neighbour
// examined after the first pushes the best-so-far onto fallback, whether or
// not the new neighbour displaces it.
func relax(g *grid.Grid, current *grid.Cell, dst grid.Point, h Heuristic, fallback *ring) *grid.Cell {
	var next *grid.Cell
	nextF := math.Inf(1)

	x0, y0, x1, y1 := g.Window(current.P)
	for y := y1; y >= y0; y-- {
		for x := x0; x <= x1; x++ {
			n := g.At(x, y)
			if n == current || n.Visited || n.Blocked() {
				continue
			}

			if d := EdgeCost(n.P, current.P) + current.Distance; n.Distance > d {
				n.Distance = d
			}

			f := n.Distance + h.Estimate(n.P, dst)
			if next != nil {
				fallback.Push(g.Index(next.P.X, next.P.Y))
			}
			if f < nextF {
				nextF = f
				next = n
			}
		}
	}
	return next
}

// drain pops remembered candidates until one is still open.
func drain(g *grid.Grid, fallback *ring) *grid.Cell {
	for {
		idx, ok := fallback.Pop()
		if !ok {
			return nil
		}
		if c := g.CellAt(idx); !c.Visited && !c.Blocked() {
			return c
		}
	}
}
