package network

import (
	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/tsch"
)

// A Node is one simulated mote: a MAC engine running the unicast rule and
// the common shared rule.
type Node struct {
	ID      uint16
	Addr    tsch.LinkAddr
	MAC     *mac.Engine
	Unicast *orchestra.Rule
	Common  *orchestra.DefaultCommonRule

	name      string
	generated int
	noRoute   int
	seqno     uint32
}

// Name returns the name of the node.
func (n *Node) Name() string {
	return n.name
}

// Generated returns the number of messages the node originated.
func (n *Node) Generated() int {
	return n.generated
}

// NoRoute returns the number of messages the node could not forward because
// it had no parent.
func (n *Node) NoRoute() int {
	return n.noRoute
}
