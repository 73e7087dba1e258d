package orchestra

import (
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// SlotframeStart is called by the slot engine when the unicast slotframe
// starts a new repetition. asfn is the absolute slotframe number.
func (r *Rule) SlotframeStart(asfn, _ uint16) {
	if !r.cfg.EpochCallbackEnabled || r.table == nil || asfn == r.epoch {
		return
	}

	switch r.cfg.EpochPolicy {
	case EpochPolicyConditionalPatch:
		if r.queue.GlobalPacketCount() == 0 {
			return
		}

		r.epoch = asfn
		r.patchUnicastSlotframe()
	default:
		r.epoch = asfn
		r.RescheduleUnicastSlotframe()
	}
}

// RescheduleUnicastSlotframe derives the complete cell set from the current
// neighbors and epoch and swaps it into the slotframe in one step.
func (r *Rule) RescheduleUnicastSlotframe() {
	if r.table == nil {
		return
	}

	sf := r.table.Slotframe()
	staging := NewLinkTable(tsch.NewSlotframe(sf.Handle, sf.Size))

	r.ensureOwnDefault(staging)

	for unit := 1; unit <= r.extraSlots; unit++ {
		r.installExtraPair(staging, uint8(unit))
	}

	r.addUnicastLink(staging, r.parent)

	for _, nbr := range r.routing.NextHops() {
		r.addUnicastLink(staging, nbr)
	}

	sf.ReplaceLinks(staging.Links())

	r.invokeReschedule(EpochPolicyFullRebuild)
}

// patchUnicastSlotframe re-derives the installed cells one at a time with
// the new epoch. Every cell is removed and reinserted before the next one is
// touched, so the table is a valid schedule at all times.
func (r *Rule) patchUnicastSlotframe() {
	r.scratch = r.scratch[:0]
	for _, l := range r.table.Links() {
		r.scratch = append(r.scratch, cellRecord{link: l})
	}

	for i := range r.scratch {
		l := &r.scratch[i].link

		r.table.Remove(l)

		switch {
		case l.ExtraUnit > 0:
			r.table.AddExtra(l.ExtraUnit, l.Options,
				r.ownTimeslot(), r.localChannelOffset())
		case l.Addr.IsBroadcast():
			r.ensureOwnDefault(r.table)
		default:
			r.addUnicastLink(r.table, l.Addr)
		}
	}

	r.restoreMissingCells()

	r.invokeReschedule(EpochPolicyConditionalPatch)
}

// restoreMissingCells installs the cells of neighbors that shared a cell in
// the old epoch and no longer do.
func (r *Rule) restoreMissingCells() {
	ch := r.localChannelOffset()

	restore := func(nbr tsch.LinkAddr) {
		if nbr.IsNull() {
			return
		}

		if r.table.FindByTimeslot(r.NodeTimeslot(nbr), ch) == nil {
			r.addUnicastLink(r.table, nbr)
		}
	}

	restore(r.parent)

	for _, nbr := range r.routing.NextHops() {
		restore(nbr)
	}

	r.ensureOwnDefault(r.table)
}

func (r *Rule) invokeReschedule(policy EpochPolicy) {
	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Pos:    HookPosReschedule,
		Item:   r,
		Detail: Reschedule{
			Epoch:    r.epoch,
			Policy:   policy,
			NumLinks: r.table.Slotframe().NumLinks(),
		},
	})
}
