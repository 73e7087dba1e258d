// Package network simulates a TSCH network of many nodes. It carries frames
// over a shared medium, keeps the routing tree in sync with the MAC of every
// node, generates convergecast traffic and changes parents to create churn.
package network

import (
	"math/rand"

	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/routing"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// A Network advances all nodes one timeslot per tick.
type Network struct {
	*sim.TickingComponent
	*sim.HookableBase

	engine  sim.Engine
	medium  *Medium
	tree    *routing.Tree
	tasks   *sim.TaskScheduler
	traffic TrafficConfig
	rand    *rand.Rand

	nodes   []*Node
	engines []*mac.Engine
	byAddr  map[tsch.LinkAddr]*Node
	byName  map[string]*Node

	air        SlotOutcome
	deliveries []Delivery
	reparents  int
}

// Start schedules the first slot.
func (n *Network) Start() {
	n.TickNow()
}

// Engine returns the event engine the network runs on.
func (n *Network) Engine() sim.Engine {
	return n.engine
}

// Tree returns the routing tree.
func (n *Network) Tree() *routing.Tree {
	return n.tree
}

// Medium returns the radio medium.
func (n *Network) Medium() *Medium {
	return n.medium
}

// Nodes returns the nodes ordered by id.
func (n *Network) Nodes() []*Node {
	return n.nodes
}

// Node returns the node with the id, or nil.
func (n *Network) Node(id uint16) *Node {
	return n.byAddr[tsch.NodeAddr(id)]
}

// NodeByName returns the node with the name, or nil.
func (n *Network) NodeByName(name string) *Node {
	return n.byName[name]
}

// Root returns the root node.
func (n *Network) Root() *Node {
	return n.Node(RootID)
}

// Air returns what happened on the medium so far.
func (n *Network) Air() SlotOutcome {
	return n.air
}

// Deliveries returns the messages the root received.
func (n *Network) Deliveries() []Delivery {
	return n.deliveries
}

// NumReparents returns how many parent switches happened after the tree was
// first built.
func (n *Network) NumReparents() int {
	return n.reparents
}

// Tick runs one timeslot on every node.
func (n *Network) Tick() bool {
	asn := n.CurrentTime()

	for _, e := range n.engines {
		e.PlanSlot(asn)
	}

	outcome := n.medium.Resolve(asn, n.engines)

	n.air.Transmissions += outcome.Transmissions
	n.air.Deliveries += outcome.Deliveries
	n.air.Collisions += outcome.Collisions

	return true
}

// ParentChanged switches the time source of the child.
func (n *Network) ParentChanged(child, _, newParent tsch.LinkAddr) {
	if node := n.byAddr[child]; node != nil {
		node.MAC.NewTimeSource(newParent)
	}
}

// ChildAdded tells the parent about its new child.
func (n *Network) ChildAdded(parent, child tsch.LinkAddr) {
	if node := n.byAddr[parent]; node != nil {
		node.MAC.ChildAdded(child)
	}
}

// ChildRemoved tells the parent that a child left.
func (n *Network) ChildRemoved(parent, child tsch.LinkAddr) {
	if node := n.byAddr[parent]; node != nil {
		node.MAC.ChildRemoved(child)
	}
}

// RoutesChanged lets the node re-evaluate its rules.
func (n *Network) RoutesChanged(addr tsch.LinkAddr) {
	if node := n.byAddr[addr]; node != nil {
		node.MAC.RoutesChanged()
	}
}

// ReportEnergy publishes the energy counters of every node.
func (n *Network) ReportEnergy() {
	for _, node := range n.nodes {
		n.InvokeHook(sim.HookCtx{
			Domain: n,
			Pos:    HookPosEnergyReport,
			Item:   node,
			Detail: node.MAC.Energy(),
		})
	}
}

// energyReporter reports energy when the simulation ends.
type energyReporter struct {
	network *Network
}

func (r energyReporter) Handle(_ sim.VTimeInSlot) {
	r.network.ReportEnergy()
}
