package board

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/router"
	"github.com/matzehuels/autoroute/pkg/search"
)

const scenario = `
[grid]
width = 64
height = 48

[search]
parallelism = 2

[[lead]]
name = "A"
x = 10
y = 10

[[lead]]
name = "B"
x = 50
y = 30

[[via]]
x = 30
y = 20

[[connection]]
from = "A"
to = "B"
`

func TestDecode(t *testing.T) {
	b, err := Decode(strings.NewReader(scenario))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if b.Grid.Width != 64 || b.Grid.Height != 48 {
		t.Errorf("grid = %dx%d, want 64x48", b.Grid.Width, b.Grid.Height)
	}
	if b.Grid.LeadHalfExtent != router.DefaultLeadHalfExtent {
		t.Errorf("half extent = %d, want default", b.Grid.LeadHalfExtent)
	}
	if b.Search.D1 != search.DefaultD1 || b.Search.D2 != search.DefaultD2 {
		t.Errorf("weights = %v/%v, want defaults", b.Search.D1, b.Search.D2)
	}
	if b.Search.MaxRestarts != search.DefaultMaxRestarts || b.Search.Parallelism != 2 {
		t.Errorf("search = %+v", b.Search)
	}
	if len(b.Leads) != 2 || len(b.Vias) != 1 || len(b.Connections) != 1 {
		t.Errorf("decoded %d leads, %d vias, %d connections", len(b.Leads), len(b.Vias), len(b.Connections))
	}
}

func TestDecodeDefaultsEmpty(t *testing.T) {
	b, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if b.Grid.Width != 320 || b.Grid.Height != 180 {
		t.Errorf("grid = %dx%d, want 320x180", b.Grid.Width, b.Grid.Height)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code errors.Code
	}{
		{"syntax", "[grid\nwidth = 3", errors.ErrCodeInvalidFormat},
		{"unknown key", "[grid]\ndepth = 3", errors.ErrCodeInvalidFormat},
		{"negative size", "[grid]\nwidth = -5", errors.ErrCodeInvalidConfig},
		{"duplicate lead", "[[lead]]\nname = \"A\"\nx = 5\ny = 5\n[[lead]]\nname = \"A\"\nx = 50\ny = 50", errors.ErrCodeInvalidConfig},
		{"bad name", "[[lead]]\nname = \"a b\"\nx = 5\ny = 5", errors.ErrCodeInvalidConfig},
		{"lead outside", "[grid]\nwidth = 20\nheight = 20\n[[lead]]\nname = \"A\"\nx = 25\ny = 5", errors.ErrCodeInvalidConfig},
		{"via outside", "[[via]]\nx = -1\ny = 0", errors.ErrCodeInvalidConfig},
		{"unknown lead", "[[lead]]\nname = \"A\"\nx = 5\ny = 5\n[[connection]]\nfrom = \"A\"\nto = \"Z\"", errors.ErrCodeInvalidConfig},
		{"self connection", "[[lead]]\nname = \"A\"\nx = 5\ny = 5\n[[connection]]\nfrom = \"A\"\nto = \"A\"", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.toml))
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	doc := `{"grid":{"width":40,"height":30},"leads":[{"name":"A","x":5,"y":5},{"name":"B","x":30,"y":20}],
"connections":[{"from":"A","to":"B"}]}`
	b, err := DecodeJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeJSON() error: %v", err)
	}
	if b.Grid.Width != 40 || len(b.Leads) != 2 {
		t.Errorf("decoded %+v", b)
	}

	if _, err := DecodeJSON(strings.NewReader(`{"grid":{"wide":4}}`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown field error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.toml")
	if err := os.WriteFile(path, []byte(scenario), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load(toml) error: %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Example().Encode(&buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	b, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode(Encode(Example())) error: %v", err)
	}
	if !bytes.Equal(b.Canonical(), Example().Canonical()) {
		t.Error("example scenario changed through TOML")
	}
}

func TestBuild(t *testing.T) {
	b, err := Decode(strings.NewReader(scenario))
	if err != nil {
		t.Fatal(err)
	}
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if got := len(s.Netlist().Leads()); got != 2 {
		t.Errorf("leads = %d, want 2", got)
	}
	if got := len(s.Pending()); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}
	if cfg := s.Config(); cfg.Parallelism != 2 || cfg.Width != 64 {
		t.Errorf("config = %+v", cfg)
	}

	out := s.Route(context.Background())
	if out[0].Status != router.StatusRouted {
		t.Errorf("route status = %s (%v)", out[0].Status, out[0].Err)
	}
}

func TestBuildOverlap(t *testing.T) {
	b := &Board{
		Grid:  GridSection{Width: 32, Height: 32},
		Leads: []LeadSpec{{Name: "A", X: 5, Y: 5}, {Name: "B", X: 6, Y: 6}},
	}
	b.ApplyDefaults()
	if _, err := b.Build(); !errors.Is(err, errors.ErrCodeOverlap) {
		t.Errorf("Build() error = %v, want OVERLAP", err)
	}
}

func TestExampleIsValid(t *testing.T) {
	if err := Example().Validate(); err != nil {
		t.Errorf("Example() invalid: %v", err)
	}
	if _, err := Example().Build(); err != nil {
		t.Errorf("Example().Build() error: %v", err)
	}
}
