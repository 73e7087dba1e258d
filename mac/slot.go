package mac

import (
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// SlotKind is what the radio does in a timeslot.
type SlotKind int

// Slot kinds.
const (
	SlotSleep SlotKind = iota
	SlotTransmit
	SlotListen
)

func (k SlotKind) String() string {
	switch k {
	case SlotTransmit:
		return "tx"
	case SlotListen:
		return "rx"
	default:
		return "sleep"
	}
}

// A SlotAction is the plan of a node for one timeslot.
type SlotAction struct {
	Kind          SlotKind
	Link          tsch.Link
	Packet        *tsch.Packet
	ChannelOffset uint16
}

// PlanSlot decides what the node does at the absolute slot number. Slotframe
// start callbacks run first, so a rule that moves its cells at a slotframe
// boundary already serves the first timeslot of the new repetition.
func (e *Engine) PlanSlot(asn sim.VTimeInSlot) SlotAction {
	e.runSlotframeStarts(asn)

	action, ok := e.planTransmit(asn)
	if !ok {
		action = e.planListen(asn)
	}

	switch action.Kind {
	case SlotTransmit:
		e.energy.TxSlots++
		e.stats.Attempted++
	case SlotListen:
		e.energy.ListenSlots++
	default:
		e.energy.SleepSlots++
	}

	e.current = action

	return action
}

func (e *Engine) runSlotframeStarts(asn sim.VTimeInSlot) {
	moved := false

	for i, r := range e.rules {
		listener, ok := r.(SlotframeStartListener)
		if !ok {
			continue
		}

		sf := e.schedule.Slotframe(uint16(i))
		if sf == nil || sf.TimeslotAt(asn) != 0 {
			continue
		}

		teller, hasEpoch := r.(EpochTeller)

		var before uint16
		if hasEpoch {
			before = teller.Epoch()
		}

		listener.SlotframeStart(sf.ASFN(asn), sf.Size)

		if hasEpoch && teller.Epoch() != before {
			moved = true
		}
	}

	if moved {
		e.reselectQueued()
	}
}

func (e *Engine) planTransmit(asn sim.VTimeInSlot) (SlotAction, bool) {
	for _, sf := range e.schedule.Slotframes() {
		ts := sf.TimeslotAt(asn)

		for _, l := range sf.LinksAt(ts) {
			if !l.Options.CanTransmit() {
				continue
			}

			p := e.packetFor(sf.Handle, l)
			if p == nil {
				continue
			}

			ch := p.ChannelOffset
			if ch == tsch.UnassignedOffset {
				ch = l.ChannelOffset
			}

			return SlotAction{
				Kind:          SlotTransmit,
				Link:          l,
				Packet:        p,
				ChannelOffset: ch,
			}, true
		}
	}

	return SlotAction{}, false
}

// packetFor finds the first queued packet selected for the cell. In a shared
// cell, packets that are backing off skip the opportunity and count down.
func (e *Engine) packetFor(handle uint16, l tsch.Link) *tsch.Packet {
	shared := l.Options.Has(tsch.LinkOptionShared)

	var chosen *tsch.Packet

	e.queue.ForEach(func(p *tsch.Packet) {
		if p.Slotframe != handle || p.Timeslot != l.Timeslot {
			return
		}

		if shared && p.Backoff > 0 {
			p.Backoff--
			return
		}

		if chosen == nil {
			chosen = p
		}
	})

	return chosen
}

func (e *Engine) planListen(asn sim.VTimeInSlot) SlotAction {
	for _, sf := range e.schedule.Slotframes() {
		for _, l := range sf.LinksAt(sf.TimeslotAt(asn)) {
			if l.Options.CanReceive() {
				return SlotAction{
					Kind:          SlotListen,
					Link:          l,
					ChannelOffset: l.ChannelOffset,
				}
			}
		}
	}

	return SlotAction{Kind: SlotSleep}
}

// CurrentAction returns the plan of the slot in progress.
func (e *Engine) CurrentAction() SlotAction {
	return e.current
}

// TxDone reports the outcome of the transmission planned for this slot.
func (e *Engine) TxDone(acked bool) {
	action := e.current
	if action.Kind != SlotTransmit || action.Packet == nil {
		return
	}

	p := action.Packet

	if p.Dest.IsBroadcast() || acked {
		e.queue.Remove(p)
		e.stats.Sent++

		e.InvokeHook(sim.HookCtx{
			Domain: e,
			Pos:    HookPosPacketSent,
			Item:   p,
		})

		if acked {
			e.timeSourceAckReceived(p.Dest)
		}

		return
	}

	p.Retries++
	if p.Retries > e.maxRetries {
		e.queue.Remove(p)
		e.drop(p, DropMaxRetries)

		return
	}

	if action.Link.Options.Has(tsch.LinkOptionShared) {
		exp := min(p.Retries, e.maxBackoff)
		p.Backoff = uint8(e.rand.Intn(1 << exp))
	}
}

func (e *Engine) timeSourceAckReceived(from tsch.LinkAddr) {
	if from != e.timeSource || e.timeSourceAcked {
		return
	}

	e.timeSourceAcked = true

	for _, r := range e.rules {
		if a, ok := r.(ParentAcknowledger); ok {
			a.SetParentKnowsUs(true)
		}
	}

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    HookPosTimeSourceAcked,
		Item:   from,
	})
}

// RecordCollision counts a transmission that collided with another one.
func (e *Engine) RecordCollision() {
	e.stats.Collided++
}

// RecordIdleListen counts a listening slot in which nothing was heard.
func (e *Engine) RecordIdleListen() {
	e.energy.IdleSlots++
}

// Receive takes a frame heard in the current slot. It returns true if the
// frame is addressed to the node and should be acknowledged.
func (e *Engine) Receive(p *tsch.Packet) bool {
	if p.Dest != e.addr && !p.Dest.IsBroadcast() {
		return false
	}

	if p.FrameType == tsch.FrameData {
		e.rxCount++
	}

	e.stats.Received++

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    HookPosPacketReceived,
		Item:   p,
	})

	if e.deliver != nil {
		e.deliver(p)
	}

	return p.Dest == e.addr
}
