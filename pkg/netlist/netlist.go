// Package netlist holds the lead, trace and connection bookkeeping of a board.
//
// Leads, traces and connections live in arenas owned by a [Netlist] and refer
// to each other by integer IDs. A lead owns an append-only list of trace IDs:
// its self-trace (created on placement, covering the lead footprint) followed
// by every routed trace that touches it. A routed trace is appended to both of
// its connection's leads, which is what lets later routes start from any point
// already wired to a lead.
package netlist

import (
	"fmt"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
)

// LeadID identifies a lead within a Netlist.
type LeadID int

// TraceID identifies a trace within a Netlist.
type TraceID int

// ConnID identifies a connection within a Netlist.
type ConnID int

const (
	// NoConnection marks a lead's self-trace.
	NoConnection ConnID = -1

	// NoTrace marks a connection that has not been routed.
	NoTrace TraceID = -1
)

// Line is one straight segment of a trace together with the cells it set as
// obstacles on the board.
type Line struct {
	Start     grid.Point   `json:"start"`
	End       grid.Point   `json:"end"`
	Obstacles []grid.Point `json:"obstacles,omitempty"`
}

// Trace is an ordered polyline. Traces are immutable once added.
type Trace struct {
	ID    TraceID `json:"id"`
	Conn  ConnID  `json:"conn"`
	Lines []Line  `json:"lines"`
}

// IsSelf reports whether t is a lead's self-trace.
func (t *Trace) IsSelf() bool { return t.Conn == NoConnection }

// Obstacles returns every obstacle cell of every line of t.
func (t *Trace) Obstacles() []grid.Point {
	var pts []grid.Point
	for _, l := range t.Lines {
		pts = append(pts, l.Obstacles...)
	}
	return pts
}

// Lead is a terminal pad.
type Lead struct {
	ID         LeadID     `json:"id"`
	Name       string     `json:"name"`
	Origin     grid.Point `json:"origin"`
	HalfExtent int        `json:"half_extent"`
	Traces     []TraceID  `json:"traces"`
}

// Connection is a requested link between two leads.
type Connection struct {
	ID    ConnID  `json:"id"`
	Start LeadID  `json:"start"`
	End   LeadID  `json:"end"`
	Trace TraceID `json:"trace"`
}

// Routed reports whether a trace has been recorded for c.
func (c *Connection) Routed() bool { return c.Trace != NoTrace }

// Netlist owns the lead, trace and connection arenas.
//
// The zero value is an empty netlist ready for use.
// Netlist is not safe for concurrent use.
type Netlist struct {
	leads  []*Lead
	traces []*Trace
	conns  []*Connection
	names  map[string]LeadID
}

// New returns an empty netlist.
func New() *Netlist {
	return &Netlist{}
}

// AddLead registers a lead at origin whose pad covers footprint. The lead gets
// a self-trace holding a single zero-length line at origin with footprint as
// its obstacle set. An empty name is replaced by "L<id>".
func (n *Netlist) AddLead(name string, origin grid.Point, halfExtent int, footprint []grid.Point) (LeadID, error) {
	id := LeadID(len(n.leads))
	if name == "" {
		name = fmt.Sprintf("L%d", id)
	}
	if err := errors.ValidateLeadName(name); err != nil {
		return 0, err
	}
	if _, dup := n.names[name]; dup {
		return 0, errors.New(errors.ErrCodeInvalidInput, "lead %q already exists", name)
	}

	self := &Trace{
		ID:   TraceID(len(n.traces)),
		Conn: NoConnection,
		Lines: []Line{{
			Start:     origin,
			End:       origin,
			Obstacles: append([]grid.Point(nil), footprint...),
		}},
	}
	n.traces = append(n.traces, self)

	n.leads = append(n.leads, &Lead{
		ID:         id,
		Name:       name,
		Origin:     origin,
		HalfExtent: halfExtent,
		Traces:     []TraceID{self.ID},
	})
	if n.names == nil {
		n.names = make(map[string]LeadID)
	}
	n.names[name] = id
	return id, nil
}

// AddConnection records a connection request between two distinct leads.
func (n *Netlist) AddConnection(a, b LeadID) (ConnID, error) {
	if _, err := n.Lead(a); err != nil {
		return 0, err
	}
	if _, err := n.Lead(b); err != nil {
		return 0, err
	}
	if a == b {
		return 0, errors.New(errors.ErrCodeInvalidInput, "cannot connect lead %d to itself", a)
	}

	id := ConnID(len(n.conns))
	n.conns = append(n.conns, &Connection{ID: id, Start: a, End: b, Trace: NoTrace})
	return id, nil
}

// AddTrace records the routed lines of conn and appends the new trace to both
// of its leads.
func (n *Netlist) AddTrace(conn ConnID, lines []Line) (TraceID, error) {
	c, err := n.Connection(conn)
	if err != nil {
		return 0, err
	}
	if c.Routed() {
		return 0, errors.New(errors.ErrCodeInvalidInput, "connection %d already has trace %d", conn, c.Trace)
	}

	t := &Trace{ID: TraceID(len(n.traces)), Conn: conn, Lines: lines}
	n.traces = append(n.traces, t)
	c.Trace = t.ID

	n.leads[c.Start].Traces = append(n.leads[c.Start].Traces, t.ID)
	n.leads[c.End].Traces = append(n.leads[c.End].Traces, t.ID)
	return t.ID, nil
}

// Lead returns the lead with the given ID.
func (n *Netlist) Lead(id LeadID) (*Lead, error) {
	if id < 0 || int(id) >= len(n.leads) {
		return nil, errors.New(errors.ErrCodeNotFound, "lead %d not found", id)
	}
	return n.leads[id], nil
}

// LeadByName returns the lead registered under name.
func (n *Netlist) LeadByName(name string) (*Lead, error) {
	id, ok := n.names[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "lead %q not found", name)
	}
	return n.leads[id], nil
}

// Trace returns the trace with the given ID.
func (n *Netlist) Trace(id TraceID) (*Trace, error) {
	if id < 0 || int(id) >= len(n.traces) {
		return nil, errors.New(errors.ErrCodeNotFound, "trace %d not found", id)
	}
	return n.traces[id], nil
}

// Connection returns the connection with the given ID.
func (n *Netlist) Connection(id ConnID) (*Connection, error) {
	if id < 0 || int(id) >= len(n.conns) {
		return nil, errors.New(errors.ErrCodeNotFound, "connection %d not found", id)
	}
	return n.conns[id], nil
}

// Leads returns all leads in placement order.
func (n *Netlist) Leads() []*Lead { return n.leads }

// Traces returns all traces in creation order.
func (n *Netlist) Traces() []*Trace { return n.traces }

// Connections returns all connections in request order.
func (n *Netlist) Connections() []*Connection { return n.conns }

// Endpoints returns the de-duplicated start and end points of every line of
// every trace of the lead, in trace order. These are the candidate points a
// new route to or from the lead may start at.
func (n *Netlist) Endpoints(id LeadID) []grid.Point {
	l, err := n.Lead(id)
	if err != nil {
		return nil
	}

	seen := make(map[grid.Point]struct{})
	var pts []grid.Point
	add := func(p grid.Point) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		pts = append(pts, p)
	}
	for _, tid := range l.Traces {
		for _, line := range n.traces[tid].Lines {
			add(line.Start)
			add(line.End)
		}
	}
	return pts
}

// Obstacles returns every obstacle cell of every trace of the lead, including
// the pad itself.
func (n *Netlist) Obstacles(id LeadID) []grid.Point {
	l, err := n.Lead(id)
	if err != nil {
		return nil
	}
	var pts []grid.Point
	for _, tid := range l.Traces {
		pts = append(pts, n.traces[tid].Obstacles()...)
	}
	return pts
}
