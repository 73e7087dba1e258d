package orchestra

import (
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// Routing is the routing-topology view of one node.
type Routing interface {
	// NumRoutes returns the number of descendants the node routes for.
	NumRoutes() int

	// IsRoot tells if the node's rank equals the minimum hop rank increase.
	IsRoot() bool

	// HasNextHop tells if the address is the next hop of a route.
	HasNextHop(addr tsch.LinkAddr) bool

	// NextHops lists the distinct next hops of the routes.
	NextHops() []tsch.LinkAddr
}

// PacketQueue is the outgoing queue of the node.
type PacketQueue interface {
	FlushPacketsTo(addr tsch.LinkAddr) int
	GlobalPacketCount() int
}

// TrafficCounter counts incoming packets.
type TrafficCounter interface {
	// TakeRxPacketCount returns the packets received since the last call
	// and resets the counter.
	TakeRxPacketCount() int
}

// TaskScheduler runs periodic callbacks.
type TaskScheduler interface {
	SchedulePeriodic(name string, period sim.VTimeInSlot, fn func())
}

// SlotframeClock tells the absolute slotframe number of a slotframe.
type SlotframeClock interface {
	CurrentASFN(sf *tsch.Slotframe) uint16
}

// RootSchedule tells if a destination is served by a root-specific
// schedule.
type RootSchedule interface {
	IsRootScheduleActive(dest tsch.LinkAddr) bool
}
