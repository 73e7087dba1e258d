package orchestra

import (
	"log"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// A Builder can build scheduling rules.
type Builder struct {
	cfg          Config
	addr         tsch.LinkAddr
	schedule     *tsch.Schedule
	routing      Routing
	queue        PacketQueue
	traffic      TrafficCounter
	tasks        TaskScheduler
	clock        SlotframeClock
	rootSchedule RootSchedule
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{cfg: DefaultConfig()}
}

// WithConfig sets the configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithAddr sets the address of the node.
func (b Builder) WithAddr(addr tsch.LinkAddr) Builder {
	b.addr = addr
	return b
}

// WithSchedule sets the schedule the rule installs its slotframe in.
func (b Builder) WithSchedule(s *tsch.Schedule) Builder {
	b.schedule = s
	return b
}

// WithRouting sets the routing view of the node.
func (b Builder) WithRouting(r Routing) Builder {
	b.routing = r
	return b
}

// WithPacketQueue sets the outgoing queue of the node.
func (b Builder) WithPacketQueue(q PacketQueue) Builder {
	b.queue = q
	return b
}

// WithTrafficCounter sets the incoming packet counter. Without it, the
// traffic sampler does not run.
func (b Builder) WithTrafficCounter(c TrafficCounter) Builder {
	b.traffic = c
	return b
}

// WithTaskScheduler sets the scheduler that runs the traffic sampler.
func (b Builder) WithTaskScheduler(s TaskScheduler) Builder {
	b.tasks = s
	return b
}

// WithSlotframeClock sets the clock the initial epoch is read from.
func (b Builder) WithSlotframeClock(c SlotframeClock) Builder {
	b.clock = c
	return b
}

// WithRootSchedule sets the root-specific schedule, if any.
func (b Builder) WithRootSchedule(s RootSchedule) Builder {
	b.rootSchedule = s
	return b
}

// Build creates a rule.
func (b Builder) Build(name string) *Rule {
	switch {
	case b.addr.IsNull() || b.addr.IsBroadcast():
		log.Panicf("rule %s: node address %s is reserved", name, b.addr)
	case b.schedule == nil:
		log.Panicf("rule %s: schedule is not set", name)
	case b.routing == nil:
		log.Panicf("rule %s: routing is not set", name)
	case b.queue == nil:
		log.Panicf("rule %s: packet queue is not set", name)
	}

	r := &Rule{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		cfg:          b.cfg,
		addr:         b.addr,
		schedule:     b.schedule,
		routing:      b.routing,
		queue:        b.queue,
		traffic:      b.traffic,
		tasks:        b.tasks,
		clock:        b.clock,
		rootSchedule: b.rootSchedule,
		class:        classUnset,
		parent:       tsch.NullAddr,
	}

	r.scratch = make([]cellRecord, 0,
		max(b.cfg.MaxNeighbors, 0)+1+2*TargetExtraSlots(1))

	return r
}
