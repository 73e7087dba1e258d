package network

import (
	"sort"

	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// DefaultHoppingSequence is the 4-channel sequence of the 2.4 GHz band used
// with three channel offsets.
var DefaultHoppingSequence = []uint16{15, 25, 26, 20}

// A Medium is the radio channel shared by all nodes. Two nodes hear each
// other if they are connected and tuned to the same physical channel.
type Medium struct {
	hopping   []uint16
	adjacency map[tsch.LinkAddr]map[tsch.LinkAddr]bool
}

// NewMedium creates a medium that hops over the given channels.
func NewMedium(hopping []uint16) *Medium {
	if len(hopping) == 0 {
		hopping = DefaultHoppingSequence
	}

	return &Medium{
		hopping:   append([]uint16(nil), hopping...),
		adjacency: make(map[tsch.LinkAddr]map[tsch.LinkAddr]bool),
	}
}

// Connect puts two nodes in radio range of each other.
func (m *Medium) Connect(a, b tsch.LinkAddr) {
	if a == b {
		return
	}

	m.edge(a)[b] = true
	m.edge(b)[a] = true
}

// Disconnect takes two nodes out of radio range.
func (m *Medium) Disconnect(a, b tsch.LinkAddr) {
	delete(m.adjacency[a], b)
	delete(m.adjacency[b], a)
}

func (m *Medium) edge(a tsch.LinkAddr) map[tsch.LinkAddr]bool {
	nbrs, ok := m.adjacency[a]
	if !ok {
		nbrs = make(map[tsch.LinkAddr]bool)
		m.adjacency[a] = nbrs
	}

	return nbrs
}

// InRange tells if two nodes hear each other.
func (m *Medium) InRange(a, b tsch.LinkAddr) bool {
	return m.adjacency[a][b]
}

// Neighbors returns the nodes in range of a, ordered by node id.
func (m *Medium) Neighbors(a tsch.LinkAddr) []tsch.LinkAddr {
	nbrs := make([]tsch.LinkAddr, 0, len(m.adjacency[a]))
	for n := range m.adjacency[a] {
		nbrs = append(nbrs, n)
	}

	sort.Slice(nbrs, func(i, j int) bool {
		return nbrs[i].NodeID() < nbrs[j].NodeID()
	})

	return nbrs
}

// Channel maps a channel offset to the physical channel at the slot.
func (m *Medium) Channel(asn sim.VTimeInSlot, channelOffset uint16) uint16 {
	n := uint64(len(m.hopping))
	return m.hopping[(uint64(asn)+uint64(channelOffset))%n]
}

// SlotOutcome counts what happened on the air in one slot.
type SlotOutcome struct {
	Transmissions int
	Deliveries    int
	Collisions    int
}

type transmission struct {
	node    *mac.Engine
	packet  *tsch.Packet
	channel uint16
	acked   bool
}

// Resolve carries the frames planned by the engines for the slot. Each
// listener hears the single in-range transmitter on its channel; two or more
// collide and the listener hears nothing. Every transmitter then learns if
// its frame was acknowledged.
func (m *Medium) Resolve(asn sim.VTimeInSlot, engines []*mac.Engine) SlotOutcome {
	var (
		outcome SlotOutcome
		txs     []*transmission
	)

	for _, e := range engines {
		action := e.CurrentAction()
		if action.Kind != mac.SlotTransmit {
			continue
		}

		txs = append(txs, &transmission{
			node:    e,
			packet:  action.Packet,
			channel: m.Channel(asn, action.ChannelOffset),
		})
	}

	outcome.Transmissions = len(txs)

	for _, e := range engines {
		action := e.CurrentAction()
		if action.Kind != mac.SlotListen {
			continue
		}

		heard := m.audible(e.Addr(), m.Channel(asn, action.ChannelOffset), txs)

		switch len(heard) {
		case 0:
			e.RecordIdleListen()
		case 1:
			tx := heard[0]
			if e.Receive(tx.packet) {
				tx.acked = true
				outcome.Deliveries++
			}
		default:
			e.RecordIdleListen()

			for _, tx := range heard {
				if tx.packet.Dest == e.Addr() {
					tx.node.RecordCollision()
					outcome.Collisions++
				}
			}
		}
	}

	for _, tx := range txs {
		tx.node.TxDone(tx.acked)
	}

	return outcome
}

func (m *Medium) audible(
	listener tsch.LinkAddr,
	channel uint16,
	txs []*transmission,
) []*transmission {
	var heard []*transmission

	for _, tx := range txs {
		if tx.channel == channel && m.InRange(listener, tx.node.Addr()) {
			heard = append(heard, tx)
		}
	}

	return heard
}
