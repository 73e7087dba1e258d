package network

import (
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// TrafficConfig shapes the convergecast traffic. Every node other than the
// root sends Messages messages to the root, one per SendInterval, starting
// after StartDelay.
type TrafficConfig struct {
	SendInterval sim.VTimeInSlot
	Messages     int
	StartDelay   sim.VTimeInSlot
}

// DefaultTrafficConfig sends 50 messages every 6 seconds after a 240-second
// formation period.
func DefaultTrafficConfig() TrafficConfig {
	return TrafficConfig{
		SendInterval: 6 * orchestra.SlotsPerSecond,
		Messages:     50,
		StartDelay:   240 * orchestra.SlotsPerSecond,
	}
}

func (n *Network) generateTraffic() {
	if n.CurrentTime() < n.traffic.StartDelay {
		return
	}

	for _, node := range n.nodes {
		if node.ID == RootID || node.generated >= n.traffic.Messages {
			continue
		}

		node.generated++
		node.seqno++

		n.forward(node, node.Addr, node.seqno, 0, n.CurrentTime())
	}
}

// forward sends a message one hop up the tree.
func (n *Network) forward(
	node *Node,
	origin tsch.LinkAddr,
	seqno uint32,
	hops uint8,
	createdAt sim.VTimeInSlot,
) {
	parent := n.tree.Parent(node.Addr)
	if parent.IsNull() {
		node.noRoute++
		return
	}

	p := tsch.NewDataPacket(node.Addr, parent, n.CurrentTime())
	p.Origin = origin
	p.Seqno = seqno
	p.Hops = hops
	p.CreatedAt = createdAt

	node.MAC.Send(p)
}

// deliver takes a frame that reached a node. The root records it; other
// nodes pass it on to their parent.
func (n *Network) deliver(node *Node, p *tsch.Packet) {
	if p.FrameType != tsch.FrameData || p.Dest != node.Addr {
		return
	}

	hops := p.Hops + 1

	if node.ID != RootID {
		n.forward(node, p.Origin, p.Seqno, hops, p.CreatedAt)
		return
	}

	d := Delivery{
		Time:    n.CurrentTime(),
		Origin:  p.Origin.NodeID(),
		Seqno:   p.Seqno,
		Hops:    hops,
		Latency: n.CurrentTime() - p.CreatedAt,
	}
	n.deliveries = append(n.deliveries, d)

	n.InvokeHook(sim.HookCtx{
		Domain: n,
		Pos:    HookPosDelivered,
		Item:   node,
		Detail: d,
	})
}
