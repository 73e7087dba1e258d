// Package orchestra implements an autonomous TSCH scheduling rule that
// varies its cells with the slotframe number and sizes its capacity by the
// class of the node.
//
// Cells are derived from addresses by a hash that every node shares, so the
// two ends of a link agree on a cell without talking to each other. The
// class of a node follows from its position in the routing tree and from the
// traffic it receives; busier classes own more extra cells.
package orchestra

import (
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// classUnset is the class before the first evaluation.
const classUnset uint16 = 0

// cellRecord is what the epoch patch keeps of an installed cell.
type cellRecord struct {
	link tsch.Link
}

// A Rule is the scheduling rule of one node. It owns all the state of the
// scheduler.
type Rule struct {
	*sim.HookableBase

	name string
	cfg  Config
	addr tsch.LinkAddr

	schedule     *tsch.Schedule
	routing      Routing
	queue        PacketQueue
	traffic      TrafficCounter
	tasks        TaskScheduler
	clock        SlotframeClock
	rootSchedule RootSchedule

	handle uint16
	table  *LinkTable

	class             uint16
	extraSlots        int
	packetCount       int
	epoch             uint16
	parent            tsch.LinkAddr
	parentKnowsUs     bool
	partialReductions int

	scratch []cellRecord
}

// Name returns the name of the rule.
func (r *Rule) Name() string {
	return r.name
}

// Addr returns the address of the node that runs the rule.
func (r *Rule) Addr() tsch.LinkAddr {
	return r.addr
}

// Config returns the configuration of the rule.
func (r *Rule) Config() Config {
	return r.cfg
}

// Init creates the unicast slotframe under the handle, installs the default
// cell and runs the first class evaluation.
func (r *Rule) Init(handle uint16) {
	r.handle = handle

	sf := r.schedule.AddSlotframe(handle, r.cfg.UnicastPeriod)
	r.table = NewLinkTable(sf)

	if r.clock != nil {
		r.epoch = r.clock.CurrentASFN(sf)
	}

	r.ensureOwnDefault(r.table)

	if r.tasks != nil && r.traffic != nil {
		r.tasks.SchedulePeriodic(
			r.name+".TrafficSampler", r.cfg.SampleInterval, r.sampleTraffic)
	}

	r.SetNodeClass()
}

// Handle returns the slotframe handle given at Init.
func (r *Rule) Handle() uint16 {
	return r.handle
}

// Table returns the link table of the unicast slotframe. It is nil before
// Init.
func (r *Rule) Table() *LinkTable {
	return r.table
}

// Class returns the current class.
func (r *Rule) Class() uint16 {
	return r.class
}

// ExtraSlots returns the number of extra pairs the node believes it owns.
func (r *Rule) ExtraSlots() int {
	return r.extraSlots
}

// PartialReductions counts releases of extra units that missed a cell.
func (r *Rule) PartialReductions() int {
	return r.partialReductions
}

// Epoch returns the slotframe number the current cells are derived from.
func (r *Rule) Epoch() uint16 {
	return r.epoch
}

// Parent returns the cached time-source address.
func (r *Rule) Parent() tsch.LinkAddr {
	return r.parent
}

// PacketCount returns the last traffic sample.
func (r *Rule) PacketCount() int {
	return r.packetCount
}

// NodeTimeslot returns the timeslot of the address in the current epoch.
func (r *Rule) NodeTimeslot(addr tsch.LinkAddr) uint16 {
	return Timeslot(addr, r.epoch, r.cfg.UnicastPeriod)
}

// NodeChannelOffset returns the channel offset of the address in the current
// epoch.
func (r *Rule) NodeChannelOffset(addr tsch.LinkAddr) uint16 {
	if r.cfg.MaxChannelOffset < r.cfg.MinChannelOffset {
		return InvalidOffset
	}

	return ChannelOffset(addr, r.epoch, r.cfg.numChannels())
}

func (r *Rule) ownTimeslot() uint16 {
	return r.NodeTimeslot(r.addr)
}

func (r *Rule) localChannelOffset() uint16 {
	return r.NodeChannelOffset(r.addr)
}
