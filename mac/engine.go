package mac

import (
	"log"
	"math/rand"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// An Engine is the MAC layer of one node.
type Engine struct {
	*sim.HookableBase

	name       string
	addr       tsch.LinkAddr
	timeTeller sim.TimeTeller
	schedule   *tsch.Schedule
	queue      *tsch.Queue
	rules      []Rule
	maxRetries uint8
	maxBackoff uint8
	rand       *rand.Rand

	initialized     bool
	timeSource      tsch.LinkAddr
	timeSourceAcked bool
	rxCount         int

	energy  Energy
	stats   Stats
	current SlotAction
	deliver func(p *tsch.Packet)
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Addr returns the link-layer address of the node.
func (e *Engine) Addr() tsch.LinkAddr {
	return e.addr
}

// Schedule returns the slotframes of the node.
func (e *Engine) Schedule() *tsch.Schedule {
	return e.schedule
}

// Queue returns the outgoing queue.
func (e *Engine) Queue() *tsch.Queue {
	return e.queue
}

// Rules returns the rule chain.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// AddRule appends a rule to the chain. Rules must be added before Init.
func (e *Engine) AddRule(r Rule) {
	if e.initialized {
		log.Panicf("%s: cannot add rule %s after init", e.name, r.Name())
	}

	e.rules = append(e.rules, r)
}

// Init initializes the rules. The n-th rule gets slotframe handle n.
func (e *Engine) Init() {
	if e.initialized {
		return
	}

	e.initialized = true

	for i, r := range e.rules {
		r.Init(uint16(i))
	}
}

// OnDeliver sets the function that takes packets addressed to the node.
func (e *Engine) OnDeliver(fn func(p *tsch.Packet)) {
	e.deliver = fn
}

// CurrentTime returns the current absolute slot number.
func (e *Engine) CurrentTime() sim.VTimeInSlot {
	return e.timeTeller.CurrentTime()
}

// CurrentASFN returns the absolute slotframe number of the slotframe.
func (e *Engine) CurrentASFN(sf *tsch.Slotframe) uint16 {
	return sf.ASFN(e.CurrentTime())
}

// TakeRxPacketCount returns the number of data packets received since the
// last call and resets the counter.
func (e *Engine) TakeRxPacketCount() int {
	n := e.rxCount
	e.rxCount = 0

	return n
}

// TimeSource returns the current time source.
func (e *Engine) TimeSource() tsch.LinkAddr {
	return e.timeSource
}

// TimeSourceAcked tells if the time source has acknowledged a frame since it
// was selected.
func (e *Engine) TimeSourceAcked() bool {
	return e.timeSourceAcked
}

// Energy returns the radio state counters.
func (e *Engine) Energy() Energy {
	return e.energy
}

// Stats returns the packet counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Send asks the rules for a cell and queues the packet. It returns false if
// the packet was dropped.
func (e *Engine) Send(p *tsch.Packet) bool {
	p.ClearSelection()

	if !e.selectPacket(p) {
		e.drop(p, DropNoCell)
		return false
	}

	if !e.queue.Add(p) {
		e.drop(p, DropQueueFull)
		return false
	}

	e.stats.Enqueued++

	return true
}

func (e *Engine) selectPacket(p *tsch.Packet) bool {
	for _, r := range e.rules {
		if sel, ok := r.SelectPacket(p); ok {
			sel.Apply(p)
			return true
		}
	}

	return false
}

// reselectQueued runs the selection again for every queued packet, so that
// packets follow cells that moved.
func (e *Engine) reselectQueued() {
	e.queue.ForEach(func(p *tsch.Packet) {
		p.ClearSelection()
		e.selectPacket(p)
	})
}

// NewTimeSource switches the time source and tells the rules.
func (e *Engine) NewTimeSource(addr tsch.LinkAddr) {
	old := e.timeSource
	if old == addr {
		return
	}

	e.timeSource = addr
	e.timeSourceAcked = false

	for _, r := range e.rules {
		r.NewTimeSource(old, addr)
	}
}

// ChildAdded tells the rules about a new child.
func (e *Engine) ChildAdded(addr tsch.LinkAddr) {
	for _, r := range e.rules {
		r.ChildAdded(addr)
	}
}

// ChildRemoved tells the rules about a child that left.
func (e *Engine) ChildRemoved(addr tsch.LinkAddr) {
	for _, r := range e.rules {
		r.ChildRemoved(addr)
	}
}

// RoutesChanged lets the rules re-evaluate after the routes changed.
func (e *Engine) RoutesChanged() {
	for _, r := range e.rules {
		if c, ok := r.(ClassEvaluator); ok {
			c.SetNodeClass()
		}
	}
}

func (e *Engine) drop(p *tsch.Packet, reason DropReason) {
	e.stats.Dropped++

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    HookPosPacketDropped,
		Item:   p,
		Detail: reason,
	})
}
