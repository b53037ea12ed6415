package grid

import (
	"math"
	"testing"

	"github.com/matzehuels/autoroute/pkg/errors"
)

func TestNew(t *testing.T) {
	g, err := New(40, 20)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if g.Width() != 40 || g.Height() != 20 {
		t.Errorf("size = %dx%d, want 40x20", g.Width(), g.Height())
	}
	if g.blocksWide != 3 || g.blocksHigh != 2 {
		t.Errorf("blocks = %dx%d, want 3x2", g.blocksWide, g.blocksHigh)
	}

	g.Each(func(c *Cell) {
		if c.Obstacle != Free || c.Visited || !math.IsInf(c.Distance, 1) {
			t.Fatalf("cell %v not initialised: %+v", c.P, *c)
		}
	})
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -4, 4},
		{"too large", MaxCells, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.width, tt.height)
			if !errors.Is(err, errors.ErrCodeGridAllocation) {
				t.Errorf("New(%d, %d) error = %v, want GRID_ALLOCATION", tt.width, tt.height, err)
			}
		})
	}
}

func TestAtMapsEveryPointOnce(t *testing.T) {
	g, err := New(37, 19)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]Point)
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			c := g.At(x, y)
			if c.P != Pt(x, y) {
				t.Fatalf("At(%d, %d).P = %v", x, y, c.P)
			}
			idx := g.Index(x, y)
			if prev, ok := seen[idx]; ok {
				t.Fatalf("index %d shared by %v and %v", idx, prev, c.P)
			}
			seen[idx] = c.P
			if g.CellAt(idx) != c {
				t.Fatalf("CellAt(Index(%d, %d)) differs from At", x, y)
			}
		}
	}
}

func TestWindow(t *testing.T) {
	g, _ := New(10, 8)

	tests := []struct {
		p              Point
		x0, y0, x1, y1 int
	}{
		{Pt(5, 5), 4, 4, 6, 6},
		{Pt(0, 0), 0, 0, 1, 1},
		{Pt(9, 7), 8, 6, 9, 7},
		{Pt(0, 7), 0, 6, 1, 7},
	}

	for _, tt := range tests {
		x0, y0, x1, y1 := g.Window(tt.p)
		if x0 != tt.x0 || y0 != tt.y0 || x1 != tt.x1 || y1 != tt.y1 {
			t.Errorf("Window(%v) = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
				tt.p, x0, y0, x1, y1, tt.x0, tt.y0, tt.x1, tt.y1)
		}
	}
}

func TestClamp(t *testing.T) {
	g, _ := New(10, 8)
	if got := g.Clamp(Pt(-3, 20)); got != Pt(0, 7) {
		t.Errorf("Clamp = %v, want (0,7)", got)
	}
	if got := g.Clamp(Pt(4, 4)); got != Pt(4, 4) {
		t.Errorf("Clamp = %v, want (4,4)", got)
	}
}

func TestRect(t *testing.T) {
	g, _ := New(10, 10)

	if got := len(g.Rect(Pt(5, 5), 1)); got != 9 {
		t.Errorf("interior rect has %d cells, want 9", got)
	}
	if got := len(g.Rect(Pt(0, 0), 1)); got != 4 {
		t.Errorf("corner rect has %d cells, want 4", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g, _ := New(20, 20)
	g.At(3, 3).Obstacle = Lead

	c, err := g.Clone()
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if c.At(3, 3).Obstacle != Lead {
		t.Error("clone lost obstacle")
	}

	c.At(3, 3).Obstacle = Free
	c.At(4, 4).Distance = 2
	if g.At(3, 3).Obstacle != Lead {
		t.Error("mutating clone changed source obstacle")
	}
	if !math.IsInf(g.At(4, 4).Distance, 1) {
		t.Error("mutating clone changed source distance")
	}
}

func TestCopyFrom(t *testing.T) {
	a, _ := New(16, 16)
	b, _ := New(16, 16)
	a.At(1, 2).Obstacle = Via

	if err := b.CopyFrom(a); err != nil {
		t.Fatalf("CopyFrom error: %v", err)
	}
	if b.At(1, 2).Obstacle != Via {
		t.Error("CopyFrom did not copy obstacle")
	}

	other, _ := New(8, 8)
	if err := other.CopyFrom(a); err == nil {
		t.Error("CopyFrom accepted mismatched size")
	}
}

func TestResetSearch(t *testing.T) {
	g, _ := New(18, 18)
	g.At(17, 17).Distance = 1
	g.At(17, 17).Visited = true
	g.At(17, 17).Obstacle = Line

	g.ResetSearch()

	c := g.At(17, 17)
	if c.Visited || !math.IsInf(c.Distance, 1) {
		t.Error("ResetSearch did not clear search state")
	}
	if c.Obstacle != Line {
		t.Error("ResetSearch must keep obstacles")
	}
}

func TestStampLiftRoundTrip(t *testing.T) {
	g, _ := New(12, 12)
	pts := g.Rect(Pt(6, 6), 1)

	g.Stamp(pts, Line)
	if got := g.Count(Line); got != len(pts) {
		t.Errorf("Count(Line) = %d, want %d", got, len(pts))
	}
	if !g.AnyBlocked(pts) {
		t.Error("AnyBlocked = false after Stamp")
	}

	g.Lift(pts)
	if got := g.Count(Free); got != g.Area() {
		t.Errorf("Count(Free) = %d, want %d", got, g.Area())
	}
}

func TestObstacleString(t *testing.T) {
	for _, kind := range []Obstacle{Free, Line, Lead, Via} {
		parsed, err := ParseObstacle(kind.String())
		if err != nil || parsed != kind {
			t.Errorf("ParseObstacle(%q) = %v, %v", kind.String(), parsed, err)
		}
	}
	if _, err := ParseObstacle("copper"); err == nil {
		t.Error("ParseObstacle accepted unknown kind")
	}
}
