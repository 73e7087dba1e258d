package network

import (
	"fmt"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// HookPosDelivered marks a message that reached the root.
var HookPosDelivered = &sim.HookPos{Name: "Delivered"}

// HookPosReparent marks a node that switched to another parent.
var HookPosReparent = &sim.HookPos{Name: "Reparent"}

// HookPosEnergyReport marks the energy report of a node at the end of the
// simulation.
var HookPosEnergyReport = &sim.HookPos{Name: "EnergyReport"}

// A Delivery is a message received by the root.
type Delivery struct {
	Time    sim.VTimeInSlot
	Origin  uint16
	Seqno   uint32
	Hops    uint8
	Latency sim.VTimeInSlot
}

// Record formats the delivery as an input record.
func (d Delivery) Record() string {
	return fmt.Sprintf("IN;%d;%d;%d", d.Origin, d.Seqno, d.Hops)
}

// A Reparent describes a parent switch.
type Reparent struct {
	Child     tsch.LinkAddr
	OldParent tsch.LinkAddr
	NewParent tsch.LinkAddr
}
