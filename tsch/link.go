package tsch

import (
	"fmt"
	"strings"
)

// LinkOption is a bit set describing what a cell may be used for.
type LinkOption uint8

// Link options, as carried in 802.15.4e link information elements.
const (
	LinkOptionTX          LinkOption = 1 << 0
	LinkOptionRX          LinkOption = 1 << 1
	LinkOptionShared      LinkOption = 1 << 2
	LinkOptionTimeKeeping LinkOption = 1 << 3
)

// Has tells if all the bits of o are set.
func (l LinkOption) Has(o LinkOption) bool {
	return l&o == o
}

// CanTransmit tells if the cell may be used for transmission.
func (l LinkOption) CanTransmit() bool {
	return l.Has(LinkOptionTX)
}

// CanReceive tells if the cell may be used for reception.
func (l LinkOption) CanReceive() bool {
	return l.Has(LinkOptionRX)
}

func (l LinkOption) String() string {
	parts := make([]string, 0, 4)
	if l.Has(LinkOptionTX) {
		parts = append(parts, "Tx")
	}
	if l.Has(LinkOptionRX) {
		parts = append(parts, "Rx")
	}
	if l.Has(LinkOptionShared) {
		parts = append(parts, "Sh")
	}
	if l.Has(LinkOptionTimeKeeping) {
		parts = append(parts, "Tk")
	}

	if len(parts) == 0 {
		return "-"
	}

	return strings.Join(parts, "|")
}

// LinkType distinguishes ordinary cells from advertising cells.
type LinkType uint8

// Link types.
const (
	LinkTypeNormal LinkType = iota
	LinkTypeAdvertising
	LinkTypeAdvertisingOnly
)

// A Link is one cell of a slotframe: a (timeslot, channel offset) reservation
// with a direction and a peer.
type Link struct {
	// ID identifies the link. Links are matched by ID, never by pointer.
	ID string

	SlotframeHandle uint16
	Timeslot        uint16
	ChannelOffset   uint16
	Options         LinkOption
	Type            LinkType
	Addr            LinkAddr

	// ExtraUnit is non-zero for cells that belong to the n-th extra TX/RX
	// pair a node allocates on top of its neighbor cells.
	ExtraUnit uint8
}

func (l Link) String() string {
	s := fmt.Sprintf("[sf %d ts %d ch %d %s -> %s]",
		l.SlotframeHandle, l.Timeslot, l.ChannelOffset, l.Options, l.Addr)
	if l.ExtraUnit > 0 {
		s += fmt.Sprintf(" extra#%d", l.ExtraUnit)
	}

	return s
}
