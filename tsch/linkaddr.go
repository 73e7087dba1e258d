// Package tsch provides the link-layer model of a TSCH network: link-layer
// addresses, cells (links), slotframes with their link tables, and the
// per-neighbor outgoing packet queue.
package tsch

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// LinkAddrSize is the length of a link-layer address in bytes.
const LinkAddrSize = 8

// LinkAddr is a link-layer address.
type LinkAddr [LinkAddrSize]byte

// NullAddr is the all-zero address. It stands for "no neighbor".
var NullAddr = LinkAddr{}

// BroadcastAddr is the reserved broadcast address.
var BroadcastAddr = LinkAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// NodeAddr returns the address of the node with the given id. The id is
// stored big-endian in the last two bytes, the way simulated motes derive
// their addresses.
func NodeAddr(id uint16) LinkAddr {
	addr := LinkAddr{0x00, 0x12, 0x74, 0x00, 0x00, 0x00}
	addr[LinkAddrSize-2] = byte(id >> 8)
	addr[LinkAddrSize-1] = byte(id)

	return addr
}

// ParseLinkAddr parses an address written as colon- or dot-separated hex
// bytes, for example "0012:7400:0000:0001" or "00.12.74.00.00.00.00.01".
func ParseLinkAddr(s string) (LinkAddr, error) {
	var addr LinkAddr

	clean := strings.NewReplacer(":", "", ".", "", "-", "").Replace(s)
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return addr, fmt.Errorf("invalid link address %q: %w", s, err)
	}

	if len(raw) != LinkAddrSize {
		return addr, fmt.Errorf(
			"invalid link address %q: want %d bytes, got %d",
			s, LinkAddrSize, len(raw))
	}

	copy(addr[:], raw)

	return addr, nil
}

// IsNull tells if the address is the null address.
func (a LinkAddr) IsNull() bool {
	return a == NullAddr
}

// IsBroadcast tells if the address is the broadcast address.
func (a LinkAddr) IsBroadcast() bool {
	return a == BroadcastAddr
}

// NodeID returns the id encoded in the last two bytes.
func (a LinkAddr) NodeID() uint16 {
	return uint16(a[LinkAddrSize-2])<<8 | uint16(a[LinkAddrSize-1])
}

// String prints the address in the Contiki log format.
func (a LinkAddr) String() string {
	switch {
	case a.IsNull():
		return "null"
	case a.IsBroadcast():
		return "bcast"
	}

	return fmt.Sprintf("%02x%02x.%02x%02x.%02x%02x.%02x%02x",
		a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7])
}
