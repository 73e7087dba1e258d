package orchestra

import "github.com/sarchlab/orchestra/tsch"

// ChildAdded installs the cell of a new child and re-evaluates the class.
func (r *Rule) ChildAdded(addr tsch.LinkAddr) {
	r.addUnicastLink(r.table, addr)
	r.SetNodeClass()
}

// ChildRemoved flushes the packets queued for a child that left, releases
// its cell and re-evaluates the class. A child without a cell keeps the
// schedule as it is.
func (r *Rule) ChildRemoved(addr tsch.LinkAddr) {
	r.removeUnicastLink(addr)
	r.SetNodeClass()
}

// NewTimeSource moves the parent cell from the old time source to the new
// one.
func (r *Rule) NewTimeSource(oldAddr, newAddr tsch.LinkAddr) {
	if oldAddr == newAddr {
		return
	}

	r.parent = newAddr
	r.parentKnowsUs = false

	r.removeUnicastLink(oldAddr)
	r.addUnicastLink(r.table, newAddr)
}

// SetParentKnowsUs records whether the time source has registered the node
// as a child. In sender-based mode the parent cell carries data only after
// that.
func (r *Rule) SetParentKnowsUs(knows bool) {
	r.parentKnowsUs = knows
}

// ParentKnowsUs tells if the time source has registered the node.
func (r *Rule) ParentKnowsUs() bool {
	return r.parentKnowsUs
}

// SelectPacket picks the cell of a data frame sent to a neighbor with a
// unicast cell. It returns false to let another rule take the packet.
func (r *Rule) SelectPacket(p *tsch.Packet) (tsch.Selection, bool) {
	if r.table == nil || p.FrameType != tsch.FrameData {
		return tsch.Selection{}, false
	}

	if r.rootSchedule != nil && r.rootSchedule.IsRootScheduleActive(p.Dest) {
		return tsch.Selection{}, false
	}

	if !r.neighborHasUnicastLink(p.Dest) {
		return tsch.Selection{}, false
	}

	ts := r.NodeTimeslot(p.Dest)
	if r.cfg.SenderBased {
		ts = r.ownTimeslot()
	}

	ch := r.NodeChannelOffset(p.Dest)

	if ts == InvalidOffset || ch == InvalidOffset {
		return tsch.Selection{}, false
	}

	return tsch.Selection{
		Slotframe:     r.handle,
		Timeslot:      ts,
		ChannelOffset: ch,
	}, true
}

func (r *Rule) neighborHasUnicastLink(addr tsch.LinkAddr) bool {
	if addr.IsNull() || addr.IsBroadcast() {
		return false
	}

	if (r.parentKnowsUs || !r.cfg.SenderBased) && addr == r.parent {
		return true
	}

	return r.routing.HasNextHop(addr)
}

// peerCellOptions returns the options of a neighbor cell at the timeslot.
// A neighbor that shares the node's own timeslot gets a merged cell.
func (r *Rule) peerCellOptions(timeslot uint16) tsch.LinkOption {
	opts := r.cfg.peerOptions()
	if timeslot == r.ownTimeslot() {
		opts |= r.cfg.ownOptions()
	}

	return opts
}

// addUnicastLink installs the cell of a neighbor. The cell always uses the
// local channel offset; a transmitted packet overrides it.
func (r *Rule) addUnicastLink(t *LinkTable, addr tsch.LinkAddr) {
	if t == nil || addr.IsNull() || addr.IsBroadcast() {
		return
	}

	ts := r.NodeTimeslot(addr)
	t.AddOrReplace(r.peerCellOptions(ts), addr, ts, r.localChannelOffset())
}

// ensureOwnDefault installs the default cell at the node's own timeslot,
// unless a merged neighbor cell already serves it.
func (r *Rule) ensureOwnDefault(t *LinkTable) {
	ts := r.ownTimeslot()
	ch := r.localChannelOffset()

	if ts == InvalidOffset || ch == InvalidOffset {
		return
	}

	for _, l := range t.Links() {
		if l.ExtraUnit == 0 && l.Timeslot == ts {
			return
		}
	}

	t.AddOrReplace(r.cfg.ownOptions(), tsch.BroadcastAddr, ts, ch)
}

func (r *Rule) removeUnicastLink(addr tsch.LinkAddr) {
	if r.table == nil || addr.IsNull() || addr.IsBroadcast() {
		return
	}

	r.queue.FlushPacketsTo(addr)

	l := r.table.FindByPeer(addr)
	if l == nil {
		return
	}

	if owner, ok := r.timeslotOwner(l.Timeslot, addr); ok {
		r.table.AddOrReplace(
			r.peerCellOptions(l.Timeslot), owner, l.Timeslot, l.ChannelOffset)
		return
	}

	if l.Timeslot == r.ownTimeslot() {
		r.table.AddOrReplace(
			r.cfg.ownOptions(), tsch.BroadcastAddr, l.Timeslot, l.ChannelOffset)
		return
	}

	r.table.Remove(l)
}

// timeslotOwner finds a neighbor that still needs the timeslot: the current
// parent first, then the other next hops.
func (r *Rule) timeslotOwner(
	timeslot uint16,
	leaving tsch.LinkAddr,
) (tsch.LinkAddr, bool) {
	if !r.parent.IsNull() && r.NodeTimeslot(r.parent) == timeslot {
		return r.parent, true
	}

	for _, nbr := range r.routing.NextHops() {
		if nbr != leaving && r.NodeTimeslot(nbr) == timeslot {
			return nbr, true
		}
	}

	return tsch.NullAddr, false
}
