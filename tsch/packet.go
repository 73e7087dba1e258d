package tsch

import "github.com/sarchlab/orchestra/sim"

// FrameType is the 802.15.4 frame type.
type FrameType uint8

// Frame types.
const (
	FrameBeacon FrameType = iota
	FrameData
	FrameAck
	FrameCommand
)

// UnassignedOffset marks a packet attribute that no scheduling rule set.
const UnassignedOffset uint16 = 0xffff

// A Packet is an outgoing or incoming frame.
type Packet struct {
	ID        string
	FrameType FrameType
	Src       LinkAddr
	Dest      LinkAddr

	// Origin and Seqno identify the end-to-end message carried by the frame.
	Origin LinkAddr
	Seqno  uint32
	Hops   uint8

	CreatedAt sim.VTimeInSlot
	Retries   uint8

	// Backoff is the number of shared-cell opportunities to skip before the
	// next attempt.
	Backoff uint8

	// Cell attributes set by the scheduling rule that selected the packet.
	Slotframe     uint16
	Timeslot      uint16
	ChannelOffset uint16
}

// NewDataPacket creates a data frame from src to dest.
func NewDataPacket(src, dest LinkAddr, now sim.VTimeInSlot) *Packet {
	return &Packet{
		ID:            sim.GetIDGenerator().Generate(),
		FrameType:     FrameData,
		Src:           src,
		Dest:          dest,
		Origin:        src,
		CreatedAt:     now,
		Slotframe:     UnassignedOffset,
		Timeslot:      UnassignedOffset,
		ChannelOffset: UnassignedOffset,
	}
}

// A Selection is the cell a scheduling rule picked for an outgoing packet.
type Selection struct {
	Slotframe     uint16
	Timeslot      uint16
	ChannelOffset uint16
}

// Apply stores the selection in the packet attributes.
func (s Selection) Apply(p *Packet) {
	p.Slotframe = s.Slotframe
	p.Timeslot = s.Timeslot
	p.ChannelOffset = s.ChannelOffset
}

// ClearSelection resets the cell attributes of the packet.
func (p *Packet) ClearSelection() {
	p.Slotframe = UnassignedOffset
	p.Timeslot = UnassignedOffset
	p.ChannelOffset = UnassignedOffset
}
