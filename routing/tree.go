// Package routing provides the routing-topology service a scheduling rule
// consumes: a storing-mode routing tree that knows each node's parent,
// children (next hops), descendants (routes) and rank.
package routing

import (
	"fmt"
	"sync"

	"github.com/sarchlab/orchestra/tsch"
)

// MinHopRankIncrease is the rank step of one hop. The root advertises
// exactly this rank.
const MinHopRankIncrease uint16 = 256

// InfiniteRank is the rank of a node that is not attached to the tree.
const InfiniteRank uint16 = 0xffff

// An Observer is notified about topology changes, in the order they happen.
type Observer interface {
	// ParentChanged is called on the child when its preferred parent
	// changes. Either address may be the null address.
	ParentChanged(child, oldParent, newParent tsch.LinkAddr)

	// ChildAdded is called on the parent when a node selects it as next hop.
	ChildAdded(parent, child tsch.LinkAddr)

	// ChildRemoved is called on the parent when a child leaves.
	ChildRemoved(parent, child tsch.LinkAddr)

	// RoutesChanged is called on every node whose set of routes changed.
	RoutesChanged(node tsch.LinkAddr)
}

type treeNode struct {
	addr     tsch.LinkAddr
	parent   tsch.LinkAddr
	children []tsch.LinkAddr
	isRoot   bool
}

// A Tree is a routing tree rooted at one node.
type Tree struct {
	lock      sync.RWMutex
	nodes     map[tsch.LinkAddr]*treeNode
	order     []tsch.LinkAddr
	observers []Observer
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: make(map[tsch.LinkAddr]*treeNode)}
}

// AddObserver registers an observer of topology changes.
func (t *Tree) AddObserver(o Observer) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.observers = append(t.observers, o)
}

// AddNode registers a node. The node starts detached.
func (t *Tree) AddNode(addr tsch.LinkAddr, isRoot bool) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if addr.IsNull() || addr.IsBroadcast() {
		return fmt.Errorf("cannot add reserved address %s", addr)
	}

	if _, ok := t.nodes[addr]; ok {
		return fmt.Errorf("node %s already exists", addr)
	}

	t.nodes[addr] = &treeNode{addr: addr, isRoot: isRoot}
	t.order = append(t.order, addr)

	return nil
}

// Nodes returns the registered nodes in registration order.
func (t *Tree) Nodes() []tsch.LinkAddr {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return append([]tsch.LinkAddr(nil), t.order...)
}

// Attach makes parent the preferred parent of child. A previous parent is
// left first.
func (t *Tree) Attach(child, parent tsch.LinkAddr) error {
	t.lock.Lock()

	c, ok := t.nodes[child]
	if !ok {
		t.lock.Unlock()
		return fmt.Errorf("unknown node %s", child)
	}

	p, ok := t.nodes[parent]
	if !ok {
		t.lock.Unlock()
		return fmt.Errorf("unknown parent %s", parent)
	}

	if c.isRoot {
		t.lock.Unlock()
		return fmt.Errorf("root %s cannot have a parent", child)
	}

	if c.parent == parent {
		t.lock.Unlock()
		return nil
	}

	if t.isInSubtree(p.addr, child) {
		t.lock.Unlock()
		return fmt.Errorf("attaching %s to %s creates a loop", child, parent)
	}

	oldParent := c.parent
	oldAncestors := t.ancestors(child)
	if !oldParent.IsNull() {
		t.removeChild(oldParent, child)
	}

	c.parent = parent
	p.children = append(p.children, child)
	newAncestors := t.ancestors(child)
	observers := append([]Observer(nil), t.observers...)

	t.lock.Unlock()

	for _, o := range observers {
		if !oldParent.IsNull() {
			o.ChildRemoved(oldParent, child)
		}

		o.ParentChanged(child, oldParent, parent)
		o.ChildAdded(parent, child)

		notifyRoutes(o, oldAncestors, newAncestors)
	}

	return nil
}

// Detach removes child from its parent. The subtree of the child moves with
// it.
func (t *Tree) Detach(child tsch.LinkAddr) error {
	t.lock.Lock()

	c, ok := t.nodes[child]
	if !ok {
		t.lock.Unlock()
		return fmt.Errorf("unknown node %s", child)
	}

	if c.parent.IsNull() {
		t.lock.Unlock()
		return nil
	}

	oldParent := c.parent
	oldAncestors := t.ancestors(child)
	t.removeChild(oldParent, child)
	c.parent = tsch.NullAddr
	observers := append([]Observer(nil), t.observers...)

	t.lock.Unlock()

	for _, o := range observers {
		o.ChildRemoved(oldParent, child)
		o.ParentChanged(child, oldParent, tsch.NullAddr)

		notifyRoutes(o, oldAncestors, nil)
	}

	return nil
}

func notifyRoutes(o Observer, oldAncestors, newAncestors []tsch.LinkAddr) {
	seen := make(map[tsch.LinkAddr]bool)

	for _, list := range [][]tsch.LinkAddr{oldAncestors, newAncestors} {
		for _, a := range list {
			if seen[a] {
				continue
			}

			seen[a] = true
			o.RoutesChanged(a)
		}
	}
}

func (t *Tree) removeChild(parent, child tsch.LinkAddr) {
	p := t.nodes[parent]
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}

// ancestors lists the nodes above addr, nearest first.
func (t *Tree) ancestors(addr tsch.LinkAddr) []tsch.LinkAddr {
	var list []tsch.LinkAddr

	cur := t.nodes[addr].parent
	for !cur.IsNull() {
		list = append(list, cur)
		cur = t.nodes[cur].parent
	}

	return list
}

func (t *Tree) isInSubtree(addr, root tsch.LinkAddr) bool {
	cur := addr
	for !cur.IsNull() {
		if cur == root {
			return true
		}

		cur = t.nodes[cur].parent
	}

	return false
}

func (t *Tree) countDescendants(addr tsch.LinkAddr) int {
	n := 0
	for _, c := range t.nodes[addr].children {
		n += 1 + t.countDescendants(c)
	}

	return n
}

// Parent returns the preferred parent of the node, or the null address.
func (t *Tree) Parent(addr tsch.LinkAddr) tsch.LinkAddr {
	t.lock.RLock()
	defer t.lock.RUnlock()

	n, ok := t.nodes[addr]
	if !ok {
		return tsch.NullAddr
	}

	return n.parent
}

// Rank returns the rank of the node: MinHopRankIncrease at the root, one
// increment per hop below, InfiniteRank when detached.
func (t *Tree) Rank(addr tsch.LinkAddr) uint16 {
	t.lock.RLock()
	defer t.lock.RUnlock()

	n, ok := t.nodes[addr]
	if !ok {
		return InfiniteRank
	}

	hops := uint16(1)
	for !n.isRoot {
		if n.parent.IsNull() {
			return InfiniteRank
		}

		n = t.nodes[n.parent]
		hops++
	}

	return hops * MinHopRankIncrease
}

// View returns the routing state as seen by one node.
func (t *Tree) View(addr tsch.LinkAddr) *View {
	return &View{tree: t, addr: addr}
}

// A View is the routing state of one node.
type View struct {
	tree *Tree
	addr tsch.LinkAddr
}

// Addr returns the address of the node the view belongs to.
func (v *View) Addr() tsch.LinkAddr {
	return v.addr
}

// NumRoutes returns the number of downward routes the node stores, which is
// the size of its subtree.
func (v *View) NumRoutes() int {
	v.tree.lock.RLock()
	defer v.tree.lock.RUnlock()

	if _, ok := v.tree.nodes[v.addr]; !ok {
		return 0
	}

	return v.tree.countDescendants(v.addr)
}

// IsRoot tells if the node's rank equals the minimum hop rank increase.
func (v *View) IsRoot() bool {
	return v.tree.Rank(v.addr) == MinHopRankIncrease
}

// Parent returns the node's preferred parent.
func (v *View) Parent() tsch.LinkAddr {
	return v.tree.Parent(v.addr)
}

// HasNextHop tells if addr is a next hop of one of the node's routes.
func (v *View) HasNextHop(addr tsch.LinkAddr) bool {
	v.tree.lock.RLock()
	defer v.tree.lock.RUnlock()

	n, ok := v.tree.nodes[v.addr]
	if !ok {
		return false
	}

	for _, c := range n.children {
		if c == addr {
			return true
		}
	}

	return false
}

// NextHops returns the distinct next hops of the node's routes.
func (v *View) NextHops() []tsch.LinkAddr {
	v.tree.lock.RLock()
	defer v.tree.lock.RUnlock()

	n, ok := v.tree.nodes[v.addr]
	if !ok {
		return nil
	}

	return append([]tsch.LinkAddr(nil), n.children...)
}
