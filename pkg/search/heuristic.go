package search

import (
	"math"

	"github.com/matzehuels/autoroute/pkg/grid"
)

// Default octile heuristic weights. They are empirical: small enough that the
// estimate stays well under the true residual cost on open boards, which keeps
// the greedy walk close to Dijkstra order. They are not a proven admissible
// bound for every obstacle layout.
const (
	DefaultD1 = 0.15
	DefaultD2 = 0.106
)

// Heuristic is an octile distance estimate with tunable weights:
//
//	D1*(dx+dy) + (D2-2*D1)*min(dx, dy)
//
// D1 weighs orthogonal steps and D2 diagonal steps.
type Heuristic struct {
	D1 float64 `json:"d1" toml:"d1"`
	D2 float64 `json:"d2" toml:"d2"`
}

// DefaultHeuristic returns the default weights.
func DefaultHeuristic() Heuristic {
	return Heuristic{D1: DefaultD1, D2: DefaultD2}
}

// Estimate returns the estimated residual cost from a to b.
func (h Heuristic) Estimate(a, b grid.Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return h.D1*(dx+dy) + (h.D2-2*h.D1)*math.Min(dx, dy)
}

// EdgeCost returns the Euclidean distance between two cells. Axis-aligned and
// unit diagonal steps avoid the square root.
func EdgeCost(a, b grid.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	switch {
	case dx == 0:
		return math.Abs(float64(dy))
	case dy == 0:
		return math.Abs(float64(dx))
	case (dx == 1 || dx == -1) && (dy == 1 || dy == -1):
		return math.Sqrt2
	}
	return math.Hypot(float64(dx), float64(dy))
}
