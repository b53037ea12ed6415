package render

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/router"
)

// fixture routes one connection and queues another on a small board.
func fixture(t *testing.T) (*router.Snapshot, []router.Outcome) {
	t.Helper()
	cfg := router.DefaultConfig()
	cfg.Width, cfg.Height = 48, 32
	s, err := router.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	a, _ := s.PlaceNamedLead("A", grid.Pt(5, 5))
	b, _ := s.PlaceNamedLead("B", grid.Pt(40, 5))
	c, _ := s.PlaceNamedLead("C", grid.Pt(20, 25))
	if err := s.PlaceVia(grid.Pt(30, 20)); err != nil {
		t.Fatal(err)
	}

	out, err := s.RequestConnection(context.Background(), a, b)
	if err != nil || out.Status != router.StatusRouted {
		t.Fatalf("route A-B: %s %v %v", out.Status, out.Err, err)
	}
	if _, err := s.Connect(b, c); err != nil {
		t.Fatal(err)
	}
	return s.Snapshot(), []router.Outcome{out}
}

func TestRenderSVG(t *testing.T) {
	snap, _ := fixture(t)
	svg := string(RenderSVG(snap))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("output is not an svg document")
	}
	counts := map[string]int{
		`class="lead"`:    3,
		`class="trace"`:   1,
		`class="pending"`: 1,
		`class="via"`:     1,
		`>A</text>`:       1,
	}
	for needle, want := range counts {
		if got := strings.Count(svg, needle); got != want {
			t.Errorf("%s appears %d times, want %d", needle, got, want)
		}
	}
	if strings.Contains(svg, `class="obstacles"`) {
		t.Error("obstacles drawn without WithObstacles")
	}

	svg = string(RenderSVG(snap, WithoutPending(), WithoutLabels(), WithObstacles(), WithGridLines(), WithCellSize(2)))
	if strings.Contains(svg, `class="pending"`) || strings.Contains(svg, "<text") {
		t.Error("options did not hide pending connections and labels")
	}
	if !strings.Contains(svg, `class="obstacles"`) || !strings.Contains(svg, `width="96"`) {
		t.Error("options did not apply obstacles and cell size")
	}
}

func TestRenderPNG(t *testing.T) {
	snap, _ := fixture(t)
	data, err := RenderPNG(snap, WithScale(3), WithPNGLabels())
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48*3 || b.Dy() != 32*3 {
		t.Fatalf("bounds = %v, want 144x96", b)
	}

	r, g, b, _ := img.At(30*3+1, 20*3+1).RGBA()
	if uint8(r>>8) != colorVia.R || uint8(g>>8) != colorVia.G || uint8(b>>8) != colorVia.B {
		t.Error("via pixel has wrong colour")
	}
	r, g, b, _ = img.At(0, 31*3).RGBA()
	if uint8(r>>8) != colorFree.R || uint8(g>>8) != colorFree.G || uint8(b>>8) != colorFree.B {
		t.Error("free pixel has wrong colour")
	}

	if _, err := RenderPNG(snap, WithScale(0)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("scale 0 error = %v, want INVALID_INPUT", err)
	}
}

func TestToDOT(t *testing.T) {
	snap, _ := fixture(t)
	dot := ToDOT(snap)

	for _, want := range []string{`graph nets {`, `"A" [fillcolor=`, `"A" -- "B" [label=`, `"B" -- "C" [style=dashed`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderNetSVG(t *testing.T) {
	snap, _ := fixture(t)
	svg, err := RenderNetSVG(context.Background(), ToDOT(snap))
	if err != nil {
		t.Fatalf("RenderNetSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output missing <svg> tag")
	}

	if _, err := RenderNetSVG(context.Background(), "graph {"); err == nil {
		t.Error("invalid DOT accepted")
	}
}

func TestRenderJSON(t *testing.T) {
	snap, outcomes := fixture(t)
	outcomes = append(outcomes, router.Outcome{
		Status: router.StatusFailed,
		Err:    errors.New(errors.ErrCodeNoPath, "walled in"),
	})

	data, err := RenderJSON(NewReport(snap, outcomes))
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var rep struct {
		Board struct {
			Width int `json:"width"`
			Leads []struct {
				Name string `json:"name"`
			} `json:"leads"`
		} `json:"board"`
		Outcomes []struct {
			Status string `json:"status"`
			Code   string `json:"code"`
			Error  string `json:"error"`
		} `json:"outcomes"`
		Summary Summary `json:"summary"`
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if rep.Board.Width != 48 || len(rep.Board.Leads) != 3 {
		t.Errorf("board = %+v", rep.Board)
	}
	if rep.Summary.Routed != 1 || rep.Summary.Failed != 1 || rep.Summary.TotalLength <= 0 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if rep.Summary.Nets != 2 {
		t.Errorf("nets = %d, want 2", rep.Summary.Nets)
	}
	if got := rep.Outcomes[1]; got.Code != "NO_PATH" || got.Error != "walled in" {
		t.Errorf("failed outcome = %+v", got)
	}
}

func TestASCII(t *testing.T) {
	snap, _ := fixture(t)

	rows := ASCII(snap, 3, 3, 5, 5)
	if len(rows) != 5 || rows[2][2] != GlyphLead {
		t.Errorf("viewport around A = %q", rows)
	}

	clipped := ASCII(snap, 45, 30, 10, 10)
	if len(clipped) != 2 || len(clipped[0]) != 3 {
		t.Errorf("clipped viewport = %q", clipped)
	}

	if Glyph(grid.Via) != GlyphVia || Glyph(grid.Free) != GlyphFree {
		t.Error("glyph mapping wrong")
	}
}

func TestRender(t *testing.T) {
	snap, outcomes := fixture(t)
	for _, f := range []string{FormatSVG, FormatPNG, FormatDOT, FormatJSON, FormatASCII} {
		data, err := Render(context.Background(), f, snap, outcomes, Options{})
		if err != nil || len(data) == 0 {
			t.Errorf("Render(%s) = %d bytes, %v", f, len(data), err)
		}
	}
	if _, err := Render(context.Background(), "gif", snap, nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown format error = %v", err)
	}
	if Extension(FormatNets) != "nets.svg" || Extension(FormatPNG) != "png" {
		t.Error("Extension mapping wrong")
	}
}

func TestWalkLine(t *testing.T) {
	var got []grid.Point
	walkLine(grid.Pt(2, 2), grid.Pt(5, 5), func(p grid.Point) { got = append(got, p) })
	if len(got) != 4 || got[3] != grid.Pt(5, 5) {
		t.Errorf("walkLine = %v", got)
	}
}
