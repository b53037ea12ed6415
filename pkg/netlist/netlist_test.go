package netlist

import (
	"slices"
	"testing"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
)

func footprint(p grid.Point) []grid.Point {
	var pts []grid.Point
	for y := p.Y - 1; y <= p.Y+1; y++ {
		for x := p.X - 1; x <= p.X+1; x++ {
			pts = append(pts, grid.Pt(x, y))
		}
	}
	return pts
}

func addLeads(t *testing.T, n *Netlist, pts ...grid.Point) []LeadID {
	t.Helper()
	ids := make([]LeadID, len(pts))
	for i, p := range pts {
		id, err := n.AddLead("", p, 1, footprint(p))
		if err != nil {
			t.Fatalf("AddLead(%v): %v", p, err)
		}
		ids[i] = id
	}
	return ids
}

// link adds and routes a connection with a single straight line.
func link(t *testing.T, n *Netlist, a, b LeadID) ConnID {
	t.Helper()
	c, err := n.AddConnection(a, b)
	if err != nil {
		t.Fatalf("AddConnection(%d, %d): %v", a, b, err)
	}
	la, _ := n.Lead(a)
	lb, _ := n.Lead(b)
	if _, err := n.AddTrace(c, []Line{{Start: la.Origin, End: lb.Origin}}); err != nil {
		t.Fatalf("AddTrace(%d): %v", c, err)
	}
	return c
}

func TestAddLeadSelfTrace(t *testing.T) {
	n := New()
	origin := grid.Pt(5, 5)
	id, err := n.AddLead("VCC", origin, 1, footprint(origin))
	if err != nil {
		t.Fatalf("AddLead() error: %v", err)
	}

	l, _ := n.Lead(id)
	if len(l.Traces) != 1 {
		t.Fatalf("lead has %d traces, want 1", len(l.Traces))
	}
	self, _ := n.Trace(l.Traces[0])
	if !self.IsSelf() {
		t.Error("first trace is not a self-trace")
	}
	if len(self.Lines) != 1 || self.Lines[0].Start != origin || self.Lines[0].End != origin {
		t.Errorf("self-trace lines = %+v, want one zero-length line at %v", self.Lines, origin)
	}
	if got := len(self.Obstacles()); got != 9 {
		t.Errorf("self-trace covers %d cells, want 9", got)
	}

	if got, err := n.LeadByName("VCC"); err != nil || got.ID != id {
		t.Errorf("LeadByName = %v, %v", got, err)
	}
}

func TestAddLeadNames(t *testing.T) {
	n := New()
	a, _ := n.AddLead("", grid.Pt(1, 1), 1, nil)
	if l, _ := n.Lead(a); l.Name != "L0" {
		t.Errorf("default name = %q, want L0", l.Name)
	}

	if _, err := n.AddLead("L0", grid.Pt(9, 9), 1, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate name error = %v, want INVALID_INPUT", err)
	}
	if _, err := n.AddLead("bad name", grid.Pt(9, 9), 1, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("invalid name error = %v, want INVALID_INPUT", err)
	}
}

func TestAddConnectionErrors(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 10))

	if _, err := n.AddConnection(ids[0], ids[0]); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("self connection error = %v, want INVALID_INPUT", err)
	}
	if _, err := n.AddConnection(ids[0], 7); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown lead error = %v, want NOT_FOUND", err)
	}

	c := link(t, n, ids[0], ids[1])
	if _, err := n.AddTrace(c, nil); err == nil {
		t.Error("AddTrace accepted a second trace for the same connection")
	}
}

func TestAddTraceAppendsToBothLeads(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 10))
	c := link(t, n, ids[0], ids[1])

	conn, _ := n.Connection(c)
	for _, id := range ids {
		l, _ := n.Lead(id)
		if len(l.Traces) != 2 || l.Traces[1] != conn.Trace {
			t.Errorf("lead %d traces = %v, want [self %d]", id, l.Traces, conn.Trace)
		}
	}
}

func TestConnected(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 2), grid.Pt(20, 2), grid.Pt(30, 2))
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]

	if n.Connected(a, b) {
		t.Fatal("fresh leads reported connected")
	}
	if !n.Connected(a, a) {
		t.Error("lead not connected to itself")
	}

	link(t, n, a, b)
	link(t, n, b, c)

	tests := []struct {
		x, y LeadID
		want bool
	}{
		{a, b, true},
		{b, a, true},
		{a, c, true},
		{c, a, true},
		{a, d, false},
		{d, c, false},
	}
	for _, tt := range tests {
		if got := n.Connected(tt.x, tt.y); got != tt.want {
			t.Errorf("Connected(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	// The verdict is a pure function of the netlist.
	for i := 0; i < 3; i++ {
		if !n.Connected(a, c) {
			t.Fatal("Connected(a, c) changed between calls")
		}
	}
}

func TestConnectedCycleTerminates(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 2), grid.Pt(20, 2), grid.Pt(30, 2))
	link(t, n, ids[0], ids[1])
	link(t, n, ids[1], ids[2])
	link(t, n, ids[2], ids[0])

	if n.Connected(ids[0], ids[3]) {
		t.Error("isolated lead reported connected to a cycle")
	}
	if !n.Connected(ids[3], ids[3]) {
		t.Error("lead not connected to itself")
	}
}

func TestUnroutedConnectionIsNotAnEdge(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 2))
	if _, err := n.AddConnection(ids[0], ids[1]); err != nil {
		t.Fatal(err)
	}
	if n.Connected(ids[0], ids[1]) {
		t.Error("queued connection counted as connectivity")
	}
}

func TestEndpoints(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 10))
	c, _ := n.AddConnection(ids[0], ids[1])
	_, err := n.AddTrace(c, []Line{
		{Start: grid.Pt(2, 2), End: grid.Pt(6, 2)},
		{Start: grid.Pt(6, 2), End: grid.Pt(10, 6)},
		{Start: grid.Pt(10, 6), End: grid.Pt(10, 10)},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := n.Endpoints(ids[0])
	want := []grid.Point{grid.Pt(2, 2), grid.Pt(6, 2), grid.Pt(10, 6), grid.Pt(10, 10)}
	if !slices.Equal(got, want) {
		t.Errorf("Endpoints = %v, want %v", got, want)
	}

	if got := len(n.Obstacles(ids[1])); got != 9 {
		t.Errorf("Obstacles = %d cells, want 9", got)
	}
}

func TestNets(t *testing.T) {
	n := New()
	ids := addLeads(t, n, grid.Pt(2, 2), grid.Pt(10, 2), grid.Pt(20, 2), grid.Pt(30, 2), grid.Pt(40, 2))
	link(t, n, ids[3], ids[1])
	link(t, n, ids[1], ids[0])
	if _, err := n.AddConnection(ids[2], ids[4]); err != nil {
		t.Fatal(err)
	}

	nets := n.Nets()
	want := [][]LeadID{{0, 1, 3}, {2}, {4}}
	if len(nets) != len(want) {
		t.Fatalf("Nets = %+v, want %v", nets, want)
	}
	for i, net := range nets {
		if net.ID != i || !slices.Equal(net.Leads, want[i]) {
			t.Errorf("net %d = %+v, want %v", i, net, want[i])
		}
	}

	if got := NetOf(nets, 3); got != 0 {
		t.Errorf("NetOf(3) = %d, want 0", got)
	}
	if got := NetOf(nets, 9); got != -1 {
		t.Errorf("NetOf(9) = %d, want -1", got)
	}
}
