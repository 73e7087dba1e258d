// Package mac runs the time-slotted channel-hopping MAC of one node. It hosts
// a chain of scheduling rules, asks them where outgoing packets go, and
// decides every timeslot whether the node transmits, listens or sleeps.
package mac

import "github.com/sarchlab/orchestra/tsch"

// A Rule is a scheduling rule. Each rule owns one slotframe, identified by
// the handle given at Init. Rules earlier in the chain get the first pick of
// outgoing packets.
type Rule interface {
	Name() string
	Init(handle uint16)
	NewTimeSource(oldAddr, newAddr tsch.LinkAddr)
	SelectPacket(p *tsch.Packet) (tsch.Selection, bool)
	ChildAdded(addr tsch.LinkAddr)
	ChildRemoved(addr tsch.LinkAddr)
}

// SlotframeStartListener is a rule that wants to know when its slotframe
// starts over.
type SlotframeStartListener interface {
	SlotframeStart(asfn, size uint16)
}

// EpochTeller is a rule whose cells depend on a slotframe number.
type EpochTeller interface {
	Epoch() uint16
}

// ClassEvaluator is a rule that re-evaluates itself when routes change.
type ClassEvaluator interface {
	SetNodeClass()
}

// ParentAcknowledger is a rule that needs to know when the time source has
// acknowledged the node.
type ParentAcknowledger interface {
	SetParentKnowsUs(knows bool)
}
