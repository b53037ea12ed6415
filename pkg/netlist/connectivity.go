package netlist

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Connected reports whether a and b are electrically joined by routed traces,
// directly or through intermediate leads. Self-traces are not edges. The walk
// carries a visited set so cyclic trace topologies terminate.
func (n *Netlist) Connected(a, b LeadID) bool {
	if _, err := n.Lead(a); err != nil {
		return false
	}
	if _, err := n.Lead(b); err != nil {
		return false
	}
	if a == b {
		return true
	}
	visited := make([]bool, len(n.leads))
	return n.reach(a, b, visited)
}

func (n *Netlist) reach(cur, target LeadID, visited []bool) bool {
	visited[cur] = true
	for _, tid := range n.leads[cur].Traces {
		t := n.traces[tid]
		if t.IsSelf() {
			continue
		}
		c := n.conns[t.Conn]
		other := c.Start
		if other == cur {
			other = c.End
		}
		if visited[other] {
			continue
		}
		if other == target || n.reach(other, target, visited) {
			return true
		}
	}
	return false
}

// Net is one electrically connected group of leads.
type Net struct {
	ID    int      `json:"id"`
	Leads []LeadID `json:"leads"`
}

// Nets partitions the leads into electrical nets: the connected components of
// the graph whose nodes are leads and whose edges are routed connections.
// Nets are ordered by their lowest lead ID; lead IDs within a net ascend.
func (n *Netlist) Nets() []Net {
	g := simple.NewUndirectedGraph()
	for _, l := range n.leads {
		g.AddNode(simple.Node(l.ID))
	}
	for _, c := range n.conns {
		if !c.Routed() {
			continue
		}
		from, to := simple.Node(c.Start), simple.Node(c.End)
		if g.HasEdgeBetween(from.ID(), to.ID()) {
			continue
		}
		g.SetEdge(g.NewEdge(from, to))
	}

	var nets []Net
	for _, comp := range topo.ConnectedComponents(g) {
		ids := make([]LeadID, 0, len(comp))
		for _, node := range comp {
			ids = append(ids, LeadID(node.ID()))
		}
		slices.Sort(ids)
		nets = append(nets, Net{Leads: ids})
	}
	slices.SortFunc(nets, func(a, b Net) int { return int(a.Leads[0] - b.Leads[0]) })
	for i := range nets {
		nets[i].ID = i
	}
	return nets
}

// NetOf returns the index of the net containing id in nets, or -1.
func NetOf(nets []Net, id LeadID) int {
	for i, net := range nets {
		if slices.Contains(net.Leads, id) {
			return i
		}
	}
	return -1
}
