package trace

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/search"
)

func route(t *testing.T, board *grid.Grid, src, dst grid.Point) Result {
	t.Helper()
	field, err := board.Clone()
	if err != nil {
		t.Fatal(err)
	}
	res, err := search.Search(context.Background(), field, src, dst, search.Options{Indefinite: true})
	if err != nil {
		t.Fatalf("Search(%v, %v): %v", src, dst, err)
	}
	out, err := Materialize(field, res, board)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	return out
}

func TestMaterializeStraight(t *testing.T) {
	board, _ := grid.New(20, 10)
	out := route(t, board, grid.Pt(2, 5), grid.Pt(12, 5))

	if len(out.Lines) != 1 {
		t.Fatalf("got %d lines, want 1: %+v", len(out.Lines), out.Lines)
	}
	if l := out.Lines[0]; l.Start != grid.Pt(2, 5) || l.End != grid.Pt(12, 5) {
		t.Errorf("line = %v -> %v, want (2,5) -> (12,5)", l.Start, l.End)
	}
	if out.Path[0] != grid.Pt(2, 5) || out.Path[len(out.Path)-1] != grid.Pt(12, 5) {
		t.Errorf("path not ordered source first: %v", out.Path)
	}
	if out.Length != 10 {
		t.Errorf("Length = %v, want 10", out.Length)
	}

	// Windows of (3,5)..(12,5): x 2..13, y 4..6.
	if got := len(out.Marked); got != 36 {
		t.Errorf("marked %d cells, want 36", got)
	}
	if got := board.Count(grid.Line); got != len(out.Marked) {
		t.Errorf("board has %d line cells, trace recorded %d", got, len(out.Marked))
	}
}

func TestMaterializeLiftRoundTrip(t *testing.T) {
	board, _ := grid.New(32, 32)
	board.At(16, 15).Obstacle = grid.Via
	board.At(16, 16).Obstacle = grid.Via
	board.At(16, 17).Obstacle = grid.Via
	before := board.Occupancy()

	out := route(t, board, grid.Pt(4, 16), grid.Pt(28, 16))
	if board.Count(grid.Via) != 3 {
		t.Fatal("materialize overwrote existing obstacles")
	}

	Lift(board, out.Lines)
	if !slices.Equal(board.Occupancy(), before) {
		t.Error("lifting the trace did not restore the board")
	}
}

func TestMaterializeSkipsExistingObstacles(t *testing.T) {
	board, _ := grid.New(20, 10)
	board.At(7, 6).Obstacle = grid.Via

	out := route(t, board, grid.Pt(2, 5), grid.Pt(12, 5))
	if got := len(out.Marked); got != 35 {
		t.Errorf("marked %d cells, want 35", got)
	}
	for _, p := range out.Marked {
		if p == grid.Pt(7, 6) {
			t.Error("via cell recorded as trace obstacle")
		}
	}
	if board.At(7, 6).Obstacle != grid.Via {
		t.Error("via overwritten")
	}
}

func TestMaterializeLinesAreContiguous(t *testing.T) {
	board, _ := grid.New(40, 30)
	for y := 5; y < 25; y++ {
		board.At(20, y).Obstacle = grid.Via
	}
	src, dst := grid.Pt(5, 15), grid.Pt(35, 12)
	out := route(t, board, src, dst)

	if len(out.Lines) < 2 {
		t.Fatalf("detour produced %d lines", len(out.Lines))
	}
	if out.Lines[0].Start != src || out.Lines[len(out.Lines)-1].End != dst {
		t.Errorf("lines run %v -> %v, want %v -> %v",
			out.Lines[0].Start, out.Lines[len(out.Lines)-1].End, src, dst)
	}
	for i := 1; i < len(out.Lines); i++ {
		if out.Lines[i].Start != out.Lines[i-1].End {
			t.Errorf("line %d starts at %v, previous ends at %v", i, out.Lines[i].Start, out.Lines[i-1].End)
		}
	}

	var recorded int
	for _, l := range out.Lines {
		recorded += len(l.Obstacles)
	}
	if recorded != len(out.Marked) {
		t.Errorf("lines record %d cells, Marked has %d", recorded, len(out.Marked))
	}
	if !slices.Equal(Compress(out.Path), vertices(out)) {
		t.Errorf("Compress(path) = %v, lines give %v", Compress(out.Path), vertices(out))
	}
}

func vertices(r Result) []grid.Point {
	pts := []grid.Point{r.Lines[0].Start}
	for _, l := range r.Lines {
		pts = append(pts, l.End)
	}
	return pts
}

func TestMaterializeSizeMismatch(t *testing.T) {
	a, _ := grid.New(10, 10)
	b, _ := grid.New(12, 10)
	if _, err := Materialize(a, search.Result{}, b); err == nil {
		t.Error("Materialize accepted grids of different size")
	}
}

func TestCompress(t *testing.T) {
	p := grid.Pt
	tests := []struct {
		name string
		path []grid.Point
		want []grid.Point
	}{
		{"single", []grid.Point{p(1, 1)}, []grid.Point{p(1, 1)}},
		{"pair", []grid.Point{p(1, 1), p(2, 2)}, []grid.Point{p(1, 1), p(2, 2)}},
		{"straight", []grid.Point{p(0, 0), p(1, 0), p(2, 0), p(3, 0)}, []grid.Point{p(0, 0), p(3, 0)}},
		{
			"elbow",
			[]grid.Point{p(0, 0), p(1, 0), p(2, 0), p(3, 1), p(4, 2), p(4, 3)},
			[]grid.Point{p(0, 0), p(2, 0), p(4, 2), p(4, 3)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compress(tt.path); !slices.Equal(got, tt.want) {
				t.Errorf("Compress = %v, want %v", got, tt.want)
			}
		})
	}
}
