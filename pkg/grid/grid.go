package grid

import (
	"math"

	"github.com/matzehuels/autoroute/pkg/errors"
)

const (
	// BlockSize is the side length of a storage block in cells.
	BlockSize = 16

	// blockCells is the number of cells stored per block.
	blockCells = BlockSize * BlockSize

	// MaxCells caps the number of logical cells a grid may hold. Larger
	// requests fail with GRID_ALLOCATION instead of exhausting memory.
	MaxCells = 1 << 24
)

// Point is an integer grid position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx := float64(q.X - p.X)
	dy := float64(q.Y - p.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Cell is a single grid node.
type Cell struct {
	P        Point
	Obstacle Obstacle
	Distance float64
	Visited  bool
}

// Blocked reports whether the search may not enter the cell.
func (c *Cell) Blocked() bool { return c.Obstacle != Free }

type block struct {
	cells [blockCells]Cell
}

// Grid is a fixed-size field of cells stored in square blocks.
//
// The zero value is not usable - use New to create a grid.
// Grid is not safe for concurrent use; clone it per goroutine.
type Grid struct {
	width, height int
	blocksWide    int
	blocksHigh    int
	blocks        []block
}

// alignDiv divides x by div, rounding up.
func alignDiv(x, div int) int {
	return (x + div - 1) / div
}

// New allocates a width×height grid with every cell free, unvisited and at
// infinite distance. Dimensions are rounded up to whole blocks internally.
func New(width, height int) (*Grid, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGridAllocation, err, "create %dx%d grid", width, height)
	}
	if width*height > MaxCells || width > MaxCells || height > MaxCells {
		return nil, errors.New(errors.ErrCodeGridAllocation, "grid %dx%d exceeds %d cells", width, height, MaxCells)
	}

	g := &Grid{
		width:      width,
		height:     height,
		blocksWide: alignDiv(width, BlockSize),
		blocksHigh: alignDiv(height, BlockSize),
	}
	g.blocks = make([]block, g.blocksWide*g.blocksHigh)

	for z := range g.blocks {
		bx := (z % g.blocksWide) * BlockSize
		by := (z / g.blocksWide) * BlockSize
		for i := range g.blocks[z].cells {
			g.blocks[z].cells[i] = Cell{
				P:        Point{X: bx + i%BlockSize, Y: by + i/BlockSize},
				Obstacle: Free,
				Distance: math.Inf(1),
			}
		}
	}
	return g, nil
}

// Width returns the logical width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the logical height in cells.
func (g *Grid) Height() int { return g.height }

// Area returns the number of logical cells.
func (g *Grid) Area() int { return g.width * g.height }

// Contains reports whether p lies inside the logical bounds.
func (g *Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Clamp moves p onto the nearest in-bounds position.
func (g *Grid) Clamp(p Point) Point {
	p.X = min(max(p.X, 0), g.width-1)
	p.Y = min(max(p.Y, 0), g.height-1)
	return p
}

// Index returns the flat storage index of logical position (x, y).
func (g *Grid) Index(x, y int) int {
	z := x/BlockSize + (y/BlockSize)*g.blocksWide
	return z*blockCells + x%BlockSize + (y%BlockSize)*BlockSize
}

// CellAt returns the cell stored at flat index i.
func (g *Grid) CellAt(i int) *Cell {
	return &g.blocks[i/blockCells].cells[i%blockCells]
}

// At returns the cell at logical position (x, y). Coordinates must be in
// bounds; use Contains or Clamp first for untrusted input.
func (g *Grid) At(x, y int) *Cell {
	b := &g.blocks[x/BlockSize+(y/BlockSize)*g.blocksWide]
	return &b.cells[x%BlockSize+(y%BlockSize)*BlockSize]
}

// Get is At for a Point.
func (g *Grid) Get(p Point) *Cell { return g.At(p.X, p.Y) }

// Window returns the inclusive bounds of the 3×3 neighbourhood of p, clamped
// to the grid edges.
func (g *Grid) Window(p Point) (x0, y0, x1, y1 int) {
	x0, y0, x1, y1 = p.X-1, p.Y-1, p.X+1, p.Y+1
	if p.X == 0 {
		x0 = 0
	}
	if p.Y == 0 {
		y0 = 0
	}
	if p.X >= g.width-1 {
		x1 = g.width - 1
	}
	if p.Y >= g.height-1 {
		y1 = g.height - 1
	}
	return x0, y0, x1, y1
}

// Rect returns the cells of the square of half extent r around p, clamped to
// the grid, in row-major order.
func (g *Grid) Rect(p Point, r int) []Point {
	lo := g.Clamp(Point{X: p.X - r, Y: p.Y - r})
	hi := g.Clamp(Point{X: p.X + r, Y: p.Y + r})
	pts := make([]Point, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for y := lo.Y; y <= hi.Y; y++ {
		for x := lo.X; x <= hi.X; x++ {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

// ResetSearch clears the distance field and visited flags of every cell,
// padding included. Obstacles are untouched.
func (g *Grid) ResetSearch() {
	inf := math.Inf(1)
	for z := range g.blocks {
		cells := &g.blocks[z].cells
		for i := range cells {
			cells[i].Distance = inf
			cells[i].Visited = false
		}
	}
}

// Clone returns an independent deep copy of g.
func (g *Grid) Clone() (*Grid, error) {
	if g == nil || len(g.blocks) == 0 {
		return nil, errors.New(errors.ErrCodeGridAllocation, "clone of unallocated grid")
	}
	c := *g
	c.blocks = make([]block, len(g.blocks))
	copy(c.blocks, g.blocks)
	return &c, nil
}

// CopyFrom overwrites every cell of g with the cells of src. Both grids must
// have the same dimensions.
func (g *Grid) CopyFrom(src *Grid) error {
	if src.width != g.width || src.height != g.height {
		return errors.New(errors.ErrCodeInvalidInput, "copy %dx%d grid into %dx%d grid",
			src.width, src.height, g.width, g.height)
	}
	copy(g.blocks, src.blocks)
	return nil
}

// Each calls fn for every logical cell in row-major order.
func (g *Grid) Each(fn func(c *Cell)) {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			fn(g.At(x, y))
		}
	}
}
