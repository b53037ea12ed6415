package grid

import "fmt"

// Obstacle classifies what occupies a cell.
type Obstacle uint8

const (
	// Free cells may be entered by the search.
	Free Obstacle = iota
	// Line cells belong to a routed trace corridor.
	Line
	// Lead cells belong to a lead pad footprint.
	Lead
	// Via cells are pre-placed via obstacles.
	Via
)

var obstacleNames = [...]string{"free", "line", "lead", "via"}

// String returns the lower-case name of the obstacle kind.
func (o Obstacle) String() string {
	if int(o) < len(obstacleNames) {
		return obstacleNames[o]
	}
	return fmt.Sprintf("obstacle(%d)", o)
}

// MarshalText implements encoding.TextMarshaler.
func (o Obstacle) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ParseObstacle returns the obstacle kind with the given name.
func ParseObstacle(s string) (Obstacle, error) {
	for i, n := range obstacleNames {
		if n == s {
			return Obstacle(i), nil
		}
	}
	return Free, fmt.Errorf("unknown obstacle kind %q", s)
}

// Stamp sets every point to kind. Points must be in bounds.
func (g *Grid) Stamp(pts []Point, kind Obstacle) {
	for _, p := range pts {
		g.At(p.X, p.Y).Obstacle = kind
	}
}

// Lift clears every point back to Free.
func (g *Grid) Lift(pts []Point) {
	g.Stamp(pts, Free)
}

// AnyBlocked reports whether any of the points is an obstacle.
func (g *Grid) AnyBlocked(pts []Point) bool {
	for _, p := range pts {
		if g.At(p.X, p.Y).Blocked() {
			return true
		}
	}
	return false
}

// Count returns the number of logical cells of the given kind.
func (g *Grid) Count(kind Obstacle) int {
	n := 0
	g.Each(func(c *Cell) {
		if c.Obstacle == kind {
			n++
		}
	})
	return n
}

// Occupancy returns the obstacle kind of every logical cell in row-major
// order (index y*Width()+x).
func (g *Grid) Occupancy() []Obstacle {
	out := make([]Obstacle, 0, g.Area())
	g.Each(func(c *Cell) {
		out = append(out, c.Obstacle)
	})
	return out
}
