package network

import (
	"fmt"

	"github.com/sarchlab/orchestra/routing"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// Reparent makes the child select the parent. Both nodes must be in radio
// range.
func (n *Network) Reparent(child, parent uint16) error {
	c := n.Node(child)
	p := n.Node(parent)

	if c == nil || p == nil {
		return fmt.Errorf("unknown node in reparent %d -> %d", child, parent)
	}

	if !n.medium.InRange(c.Addr, p.Addr) {
		return fmt.Errorf("node %d cannot hear node %d", child, parent)
	}

	return n.attach(c.Addr, p.Addr)
}

func (n *Network) attach(child, parent tsch.LinkAddr) error {
	old := n.tree.Parent(child)
	if old == parent {
		return nil
	}

	if err := n.tree.Attach(child, parent); err != nil {
		return err
	}

	n.reparents++

	n.InvokeHook(sim.HookCtx{
		Domain: n,
		Pos:    HookPosReparent,
		Item:   n.byAddr[child],
		Detail: Reparent{Child: child, OldParent: old, NewParent: parent},
	})

	return nil
}

// churn moves one random node to another parent it can hear. Candidates in
// the node's own subtree are rejected by the tree.
func (n *Network) churn() {
	if len(n.nodes) < 3 {
		return
	}

	node := n.nodes[n.rand.Intn(len(n.nodes))]
	if node.ID == RootID {
		return
	}

	current := n.tree.Parent(node.Addr)
	candidates := n.medium.Neighbors(node.Addr)

	n.rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, c := range candidates {
		if c == current || n.tree.Rank(c) == routing.InfiniteRank {
			continue
		}

		if n.attach(node.Addr, c) == nil {
			return
		}
	}
}
