// Package board reads routing scenarios: grid size, search tuning, leads,
// pre-placed vias, and the connections to route.
//
// Scenarios are TOML files for the CLI and JSON documents for the HTTP API:
//
//	[grid]
//	width = 96
//	height = 64
//	lead_half_extent = 1
//
//	[search]
//	d1 = 0.15
//	d2 = 0.106
//	max_restarts = 8
//	parallelism = 4
//
//	[[lead]]
//	name = "U1"
//	x = 10
//	y = 10
//
//	[[via]]
//	x = 40
//	y = 20
//
//	[[connection]]
//	from = "U1"
//	to = "J1"
//
// A scenario is input only; routed results are never written back.
package board

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/router"
	"github.com/matzehuels/autoroute/pkg/search"
)

// Board is a parsed scenario.
type Board struct {
	Grid        GridSection   `toml:"grid" json:"grid"`
	Search      SearchSection `toml:"search" json:"search"`
	Leads       []LeadSpec    `toml:"lead" json:"leads"`
	Vias        []ViaSpec     `toml:"via" json:"vias,omitempty"`
	Connections []ConnSpec    `toml:"connection" json:"connections"`
}

// GridSection sizes the board.
type GridSection struct {
	Width          int `toml:"width" json:"width"`
	Height         int `toml:"height" json:"height"`
	LeadHalfExtent int `toml:"lead_half_extent" json:"lead_half_extent"`
}

// SearchSection tunes the router. Zero values select defaults.
type SearchSection struct {
	D1          float64 `toml:"d1" json:"d1"`
	D2          float64 `toml:"d2" json:"d2"`
	MaxRestarts int     `toml:"max_restarts" json:"max_restarts"`
	Parallelism int     `toml:"parallelism" json:"parallelism"`
}

// LeadSpec places a named lead.
type LeadSpec struct {
	Name string `toml:"name" json:"name"`
	X    int    `toml:"x" json:"x"`
	Y    int    `toml:"y" json:"y"`
}

// Point returns the lead origin.
func (l LeadSpec) Point() grid.Point { return grid.Pt(l.X, l.Y) }

// ViaSpec places a single via obstacle.
type ViaSpec struct {
	X int `toml:"x" json:"x"`
	Y int `toml:"y" json:"y"`
}

// ConnSpec requests a connection between two leads by name.
type ConnSpec struct {
	From string `toml:"from" json:"from"`
	To   string `toml:"to" json:"to"`
}

// =============================================================================
// Decoding
// =============================================================================

// Decode parses a TOML scenario, applies defaults and validates it. Unknown
// keys are rejected.
func Decode(r io.Reader) (*Board, error) {
	var b Board
	md, err := toml.NewDecoder(r).Decode(&b)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse scenario")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown scenario keys: %s", strings.Join(keys, ", "))
	}
	return finish(&b)
}

// DecodeJSON parses a JSON scenario, applies defaults and validates it.
// Unknown fields are rejected.
func DecodeJSON(r io.Reader) (*Board, error) {
	var b Board
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse scenario")
	}
	return finish(&b)
}

// Load reads a scenario file. Files ending in .json are parsed as JSON,
// everything else as TOML.
func Load(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open scenario %s", path)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(f)
	}
	return Decode(f)
}

func finish(b *Board) (*Board, error) {
	b.ApplyDefaults()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Encode writes b as TOML.
func (b *Board) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(b)
}

// Canonical returns a stable JSON encoding of b, suitable for hashing.
func (b *Board) Canonical() []byte {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(b)
	return buf.Bytes()
}

// =============================================================================
// Defaults and validation
// =============================================================================

// ApplyDefaults fills zero values with the router defaults.
func (b *Board) ApplyDefaults() {
	if b.Grid.Width == 0 {
		b.Grid.Width = router.DefaultWidth
	}
	if b.Grid.Height == 0 {
		b.Grid.Height = router.DefaultHeight
	}
	if b.Grid.LeadHalfExtent == 0 {
		b.Grid.LeadHalfExtent = router.DefaultLeadHalfExtent
	}
	if b.Search.D1 == 0 && b.Search.D2 == 0 {
		b.Search.D1 = search.DefaultD1
		b.Search.D2 = search.DefaultD2
	}
	if b.Search.MaxRestarts == 0 {
		b.Search.MaxRestarts = search.DefaultMaxRestarts
	}
	if b.Search.Parallelism == 0 {
		b.Search.Parallelism = 1
	}
}

// Validate checks names, references and coordinates.
func (b *Board) Validate() error {
	if err := b.Config().Validate(); err != nil {
		return err
	}

	inside := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < b.Grid.Width && y < b.Grid.Height
	}

	names := make(map[string]bool, len(b.Leads))
	for i, l := range b.Leads {
		if err := errors.ValidateLeadName(l.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "lead %d", i)
		}
		if names[l.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate lead %q", l.Name)
		}
		if !inside(l.X, l.Y) {
			return errors.New(errors.ErrCodeInvalidConfig, "lead %q at (%d,%d) outside %dx%d grid",
				l.Name, l.X, l.Y, b.Grid.Width, b.Grid.Height)
		}
		names[l.Name] = true
	}

	for _, v := range b.Vias {
		if !inside(v.X, v.Y) {
			return errors.New(errors.ErrCodeInvalidConfig, "via at (%d,%d) outside %dx%d grid",
				v.X, v.Y, b.Grid.Width, b.Grid.Height)
		}
	}

	for i, c := range b.Connections {
		if !names[c.From] {
			return errors.New(errors.ErrCodeInvalidConfig, "connection %d: unknown lead %q", i, c.From)
		}
		if !names[c.To] {
			return errors.New(errors.ErrCodeInvalidConfig, "connection %d: unknown lead %q", i, c.To)
		}
		if c.From == c.To {
			return errors.New(errors.ErrCodeInvalidConfig, "connection %d connects %q to itself", i, c.From)
		}
	}
	return nil
}

// Config returns the router configuration described by b.
func (b *Board) Config() router.Config {
	return router.Config{
		Width:          b.Grid.Width,
		Height:         b.Grid.Height,
		LeadHalfExtent: b.Grid.LeadHalfExtent,
		Search: search.Options{
			Heuristic:   search.Heuristic{D1: b.Search.D1, D2: b.Search.D2},
			MaxRestarts: b.Search.MaxRestarts,
		},
		Parallelism: b.Search.Parallelism,
	}
}

// Build creates a session, places vias then leads in file order, and queues
// every connection. Placement conflicts fail with OVERLAP naming the lead.
func (b *Board) Build(opts ...router.Option) (*router.Session, error) {
	s, err := router.New(b.Config(), opts...)
	if err != nil {
		return nil, err
	}

	for _, v := range b.Vias {
		if err := s.PlaceVia(grid.Pt(v.X, v.Y)); err != nil {
			return nil, err
		}
	}
	for _, l := range b.Leads {
		if _, err := s.PlaceNamedLead(l.Name, l.Point()); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "place lead %q", l.Name)
		}
	}

	nets := s.Netlist()
	for _, c := range b.Connections {
		from, _ := nets.LeadByName(c.From)
		to, _ := nets.LeadByName(c.To)
		if _, err := s.Connect(from.ID, to.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Example returns a small scenario used by `autoroute init`.
func Example() *Board {
	b := &Board{
		Grid: GridSection{Width: 96, Height: 64},
		Leads: []LeadSpec{
			{Name: "U1", X: 10, Y: 10},
			{Name: "U2", X: 80, Y: 12},
			{Name: "J1", X: 45, Y: 55},
			{Name: "J2", X: 12, Y: 50},
		},
		Vias: []ViaSpec{{X: 45, Y: 30}, {X: 46, Y: 30}, {X: 47, Y: 30}},
		Connections: []ConnSpec{
			{From: "U1", To: "U2"},
			{From: "U2", To: "J1"},
			{From: "J2", To: "U1"},
			{From: "J1", To: "U1"},
		},
	}
	b.ApplyDefaults()
	return b
}
