package orchestra

import "github.com/sarchlab/orchestra/tsch"

// InvalidOffset is returned when no timeslot or channel offset can be
// derived.
const InvalidOffset uint16 = 0xffff

// Hash mixes a 32-bit value and reduces it modulo mod. Every node uses the
// same function, so two nodes hashing the same input always agree.
func Hash(value uint32, mod uint16) uint16 {
	if mod == 0 {
		return InvalidOffset
	}

	a := value
	a = (a ^ 61) ^ (a >> 16)
	a += a << 3
	a ^= a >> 4
	a *= 0x27d4eb2d
	a ^= a >> 15

	return uint16(a) % mod
}

// AddrKey is the hash key of an address: its last two bytes, big-endian.
func AddrKey(addr tsch.LinkAddr) uint16 {
	return addr.NodeID()
}

// Timeslot returns the timeslot the address owns in the given epoch.
func Timeslot(addr tsch.LinkAddr, epoch, period uint16) uint16 {
	if period == 0 || addr.IsNull() {
		return InvalidOffset
	}

	return Hash(uint32(AddrKey(addr))+uint32(epoch), period)
}

// ChannelOffset returns the channel offset the address owns in the given
// epoch. Offset 0 is never returned.
func ChannelOffset(addr tsch.LinkAddr, epoch, numChannels uint16) uint16 {
	if numChannels == 0 || addr.IsNull() {
		return InvalidOffset
	}

	return 1 + Hash(uint32(AddrKey(addr))+uint32(epoch), numChannels)
}
