package router

import (
	"slices"

	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
)

// Snapshot is a self-contained, read-only copy of a session's state for
// renderers and reports. It shares no memory with the session.
type Snapshot struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// Occupancy holds the obstacle kind of every cell, row-major.
	Occupancy []grid.Obstacle `json:"-"`

	Leads       []netlist.Lead       `json:"leads"`
	Traces      []netlist.Trace      `json:"traces"`
	Connections []netlist.Connection `json:"connections"`
	Vias        []grid.Point         `json:"vias,omitempty"`
	Pending     []netlist.ConnID     `json:"pending,omitempty"`
	Nets        []netlist.Net        `json:"nets"`
}

// At returns the obstacle kind at (x, y).
func (s *Snapshot) At(x, y int) grid.Obstacle {
	return s.Occupancy[y*s.Width+x]
}

// Lead returns the lead with the given ID, or nil.
func (s *Snapshot) Lead(id netlist.LeadID) *netlist.Lead {
	if id < 0 || int(id) >= len(s.Leads) {
		return nil
	}
	return &s.Leads[id]
}

// Routed returns the traces that belong to a connection.
func (s *Snapshot) Routed() []netlist.Trace {
	var out []netlist.Trace
	for _, t := range s.Traces {
		if !t.IsSelf() {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		ID:        s.ID,
		Width:     s.grid.Width(),
		Height:    s.grid.Height(),
		Occupancy: s.grid.Occupancy(),
		Vias:      slices.Clone(s.vias),
		Pending:   slices.Clone(s.queue),
		Nets:      s.nets.Nets(),
	}

	for _, l := range s.nets.Leads() {
		lead := *l
		lead.Traces = slices.Clone(l.Traces)
		snap.Leads = append(snap.Leads, lead)
	}
	for _, t := range s.nets.Traces() {
		tr := *t
		tr.Lines = make([]netlist.Line, len(t.Lines))
		for i, line := range t.Lines {
			line.Obstacles = slices.Clone(line.Obstacles)
			tr.Lines[i] = line
		}
		snap.Traces = append(snap.Traces, tr)
	}
	for _, c := range s.nets.Connections() {
		snap.Connections = append(snap.Connections, *c)
	}
	return snap
}
