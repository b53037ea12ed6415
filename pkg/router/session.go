// Package router ties the grid, search, tracer and netlist together into an
// incremental routing session.
//
// A [Session] owns the committed grid and the netlist. Leads are placed onto
// it, connections between leads are queued, and [Session.Route] routes every
// queued connection in request order. Each routed trace becomes a permanent
// obstacle, so later connections route around earlier ones; connections whose
// leads are already electrically joined are skipped.
//
// Routing one connection works on a scratch copy of the committed grid in
// which both leads (and every trace already attached to them) are lifted.
// Every pair of candidate endpoints is searched and the shortest path wins;
// the winner is re-searched in indefinite mode and materialized onto the
// committed grid.
//
// A Session is not safe for concurrent use. Candidate evaluation may fan out
// across goroutines (Config.Parallelism), each with its own grid copy.
package router

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/search"
)

// Defaults match the board size and pad size of the reference board.
const (
	DefaultWidth          = 320
	DefaultHeight         = 180
	DefaultLeadHalfExtent = 1

	// MaxParallelism bounds Config.Parallelism. Every worker holds its own
	// copy of the grid.
	MaxParallelism = 64
)

// Config configures a Session.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// LeadHalfExtent is the pad radius: a lead covers the
	// (2*LeadHalfExtent+1)² square around its origin, clamped to the grid.
	LeadHalfExtent int `json:"lead_half_extent"`

	// Search tunes candidate and final searches. Indefinite is ignored;
	// the router chooses the mode per phase.
	Search search.Options `json:"search"`

	// Parallelism is the number of goroutines evaluating candidate pairs.
	// Values below 2 evaluate sequentially.
	Parallelism int `json:"parallelism"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		LeadHalfExtent: DefaultLeadHalfExtent,
		Search: search.Options{
			Heuristic:   search.DefaultHeuristic(),
			MaxRestarts: search.DefaultMaxRestarts,
		},
		Parallelism: 1,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := errors.ValidateDimensions(c.Width, c.Height); err != nil {
		return err
	}
	if cells := int64(c.Width) * int64(c.Height); cells > grid.MaxCells {
		return errors.New(errors.ErrCodeInvalidConfig, "%dx%d grid has %d cells, limit is %d",
			c.Width, c.Height, cells, grid.MaxCells)
	}
	if c.LeadHalfExtent < 0 || 2*c.LeadHalfExtent+1 > min(c.Width, c.Height) {
		return errors.New(errors.ErrCodeInvalidConfig, "lead half extent %d does not fit a %dx%d grid",
			c.LeadHalfExtent, c.Width, c.Height)
	}
	if c.Search.Heuristic.D1 < 0 || c.Search.Heuristic.D2 < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "heuristic weights must not be negative")
	}
	if c.Parallelism < 0 || c.Parallelism > MaxParallelism {
		return errors.New(errors.ErrCodeInvalidConfig, "parallelism %d outside 0..%d", c.Parallelism, MaxParallelism)
	}
	return nil
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for routing progress.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// Session is one routing board: the committed grid, its netlist, and the
// queue of connections waiting to be routed.
type Session struct {
	ID string

	cfg    Config
	grid   *grid.Grid
	nets   *netlist.Netlist
	vias   []grid.Point
	queue  []netlist.ConnID
	logger *log.Logger
}

// New allocates the committed grid and returns an empty session.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 1
	}

	g, err := grid.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:     uuid.NewString(),
		cfg:    cfg,
		grid:   g,
		nets:   netlist.New(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Grid returns the committed grid. Callers must not modify it.
func (s *Session) Grid() *grid.Grid { return s.grid }

// Netlist returns the session's netlist. Callers must not modify it.
func (s *Session) Netlist() *netlist.Netlist { return s.nets }

// Pending returns the queued connections in request order.
func (s *Session) Pending() []netlist.ConnID {
	return append([]netlist.ConnID(nil), s.queue...)
}

// PlaceLead places an auto-named lead at p.
func (s *Session) PlaceLead(p grid.Point) (netlist.LeadID, error) {
	return s.PlaceNamedLead("", p)
}

// PlaceNamedLead places a lead called name at p. The pad footprint is the
// square of radius LeadHalfExtent around p, clamped to the grid. It fails with
// OVERLAP, without changing anything, if any footprint cell is already an
// obstacle.
func (s *Session) PlaceNamedLead(name string, p grid.Point) (netlist.LeadID, error) {
	if !s.grid.Contains(p) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "lead origin %v outside %dx%d grid",
			p, s.grid.Width(), s.grid.Height())
	}

	footprint := s.grid.Rect(p, s.cfg.LeadHalfExtent)
	if s.grid.AnyBlocked(footprint) {
		return 0, errors.New(errors.ErrCodeOverlap, "lead at %v overlaps an existing obstacle", p)
	}

	id, err := s.nets.AddLead(name, p, s.cfg.LeadHalfExtent, footprint)
	if err != nil {
		return 0, err
	}
	s.grid.Stamp(footprint, grid.Lead)

	l, _ := s.nets.Lead(id)
	s.logger.Debug("placed lead", "lead", l.Name, "x", p.X, "y", p.Y)
	return id, nil
}

// PlaceVia marks a single cell as a via obstacle.
func (s *Session) PlaceVia(p grid.Point) error {
	if !s.grid.Contains(p) {
		return errors.New(errors.ErrCodeInvalidInput, "via %v outside %dx%d grid",
			p, s.grid.Width(), s.grid.Height())
	}
	c := s.grid.Get(p)
	if c.Blocked() {
		return errors.New(errors.ErrCodeOverlap, "via at %v overlaps %s", p, c.Obstacle)
	}
	c.Obstacle = grid.Via
	s.vias = append(s.vias, p)
	return nil
}

// Connect queues a connection between leads a and b.
func (s *Session) Connect(a, b netlist.LeadID) (netlist.ConnID, error) {
	id, err := s.nets.AddConnection(a, b)
	if err != nil {
		return 0, err
	}
	s.queue = append(s.queue, id)
	return id, nil
}
