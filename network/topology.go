package network

import (
	"fmt"
	"sort"
)

// A Topology lists the nodes of a network and which pairs are in radio
// range. Node 1 is the root.
type Topology struct {
	NodeIDs []uint16
	Edges   [][2]uint16
}

// RootID is the id of the node that roots the routing tree.
const RootID uint16 = 1

// Line places n nodes in a chain.
func Line(n int) Topology {
	t := Topology{}

	for i := 1; i <= n; i++ {
		t.NodeIDs = append(t.NodeIDs, uint16(i))
		if i > 1 {
			t.Edges = append(t.Edges, [2]uint16{uint16(i - 1), uint16(i)})
		}
	}

	return t
}

// Grid places width x height nodes in rows. Each node hears its horizontal
// and vertical neighbors. Node 1 sits in a corner.
func Grid(width, height int) Topology {
	t := Topology{}

	id := func(x, y int) uint16 {
		return uint16(y*width + x + 1)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t.NodeIDs = append(t.NodeIDs, id(x, y))

			if x > 0 {
				t.Edges = append(t.Edges, [2]uint16{id(x-1, y), id(x, y)})
			}

			if y > 0 {
				t.Edges = append(t.Edges, [2]uint16{id(x, y-1), id(x, y)})
			}
		}
	}

	return t
}

// ParseTopology builds a topology from a name such as "line:5" or
// "grid:3x4".
func ParseTopology(s string) (Topology, error) {
	var w, h int

	if _, err := fmt.Sscanf(s, "grid:%dx%d", &w, &h); err == nil {
		if w <= 0 || h <= 0 {
			return Topology{}, fmt.Errorf("invalid grid size in %q", s)
		}

		return Grid(w, h), nil
	}

	if _, err := fmt.Sscanf(s, "line:%d", &w); err == nil {
		if w <= 0 {
			return Topology{}, fmt.Errorf("invalid line length in %q", s)
		}

		return Line(w), nil
	}

	return Topology{}, fmt.Errorf("unknown topology %q", s)
}

// adjacency returns the sorted neighbor ids of every node.
func (t Topology) adjacency() map[uint16][]uint16 {
	adj := make(map[uint16][]uint16, len(t.NodeIDs))
	for _, id := range t.NodeIDs {
		adj[id] = nil
	}

	for _, e := range t.Edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}

	for id := range adj {
		sort.Slice(adj[id], func(i, j int) bool { return adj[id][i] < adj[id][j] })
	}

	return adj
}

// bfsParents returns, in breadth-first order, every node reachable from the
// root together with its parent on a minimum-hop tree. Ties go to the lower
// id.
func (t Topology) bfsParents() [][2]uint16 {
	adj := t.adjacency()
	if _, ok := adj[RootID]; !ok {
		return nil
	}

	visited := map[uint16]bool{RootID: true}
	queue := []uint16{RootID}

	var order [][2]uint16

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		for _, nbr := range adj[n] {
			if visited[nbr] {
				continue
			}

			visited[nbr] = true
			order = append(order, [2]uint16{nbr, n})
			queue = append(queue, nbr)
		}
	}

	return order
}
