package orchestra

import "github.com/sarchlab/orchestra/tsch"

// A LinkTable is the view of the rule on its slotframe.
//
// It keeps at most one neighbor-or-default cell per timeslot and at most one
// cell per extra unit and role. Adding a cell whose key is taken replaces the
// installed cell in place. The table assumes a single writer.
type LinkTable struct {
	sf *tsch.Slotframe
}

// NewLinkTable wraps a slotframe.
func NewLinkTable(sf *tsch.Slotframe) *LinkTable {
	return &LinkTable{sf: sf}
}

// Slotframe returns the wrapped slotframe.
func (t *LinkTable) Slotframe() *tsch.Slotframe {
	return t.sf
}

// AddOrReplace installs a neighbor cell, or the default cell when peer is the
// broadcast address. Invalid coordinates leave the table untouched and
// return nil.
func (t *LinkTable) AddOrReplace(
	opts tsch.LinkOption,
	peer tsch.LinkAddr,
	timeslot, channelOffset uint16,
) *tsch.Link {
	if timeslot == InvalidOffset || channelOffset == InvalidOffset {
		return nil
	}

	l := tsch.Link{
		Timeslot:      timeslot,
		ChannelOffset: channelOffset,
		Options:       opts,
		Type:          tsch.LinkTypeNormal,
		Addr:          peer,
	}

	for _, existing := range t.sf.Links() {
		if existing.ExtraUnit == 0 && existing.Timeslot == timeslot {
			l.ID = existing.ID
			t.sf.UpdateLink(l)

			return t.find(l.ID)
		}
	}

	return t.sf.AddLink(l)
}

// AddExtra installs one cell of an extra pair. The role of the cell follows
// from the options: a cell that can transmit is the TX-role cell.
func (t *LinkTable) AddExtra(
	unit uint8,
	opts tsch.LinkOption,
	timeslot, channelOffset uint16,
) *tsch.Link {
	if unit == 0 ||
		timeslot == InvalidOffset || channelOffset == InvalidOffset {
		return nil
	}

	l := tsch.Link{
		Timeslot:      timeslot,
		ChannelOffset: channelOffset,
		Options:       opts,
		Type:          tsch.LinkTypeNormal,
		Addr:          tsch.BroadcastAddr,
		ExtraUnit:     unit,
	}

	if existing := t.FindExtra(unit, opts.CanTransmit()); existing != nil {
		l.ID = existing.ID
		t.sf.UpdateLink(l)

		return t.find(l.ID)
	}

	return t.sf.AddLink(l)
}

// FindExtra returns the TX-role or the RX-role cell of an extra unit.
func (t *LinkTable) FindExtra(unit uint8, txRole bool) *tsch.Link {
	for _, l := range t.sf.Links() {
		if l.ExtraUnit == unit && l.Options.CanTransmit() == txRole {
			return &l
		}
	}

	return nil
}

// Remove uninstalls the link if a link with exactly the same value is still
// installed. Otherwise it does nothing.
func (t *LinkTable) Remove(l *tsch.Link) bool {
	if l == nil {
		return false
	}

	installed := t.find(l.ID)
	if installed == nil || *installed != *l {
		return false
	}

	return t.sf.RemoveLink(l.ID)
}

// FindByPeer returns the neighbor cell keyed to the address.
func (t *LinkTable) FindByPeer(peer tsch.LinkAddr) *tsch.Link {
	for _, l := range t.sf.Links() {
		if l.ExtraUnit == 0 && l.Addr == peer {
			return &l
		}
	}

	return nil
}

// FindByTimeslot returns the neighbor-or-default cell at the coordinate.
func (t *LinkTable) FindByTimeslot(timeslot, channelOffset uint16) *tsch.Link {
	for _, l := range t.sf.Links() {
		if l.ExtraUnit == 0 &&
			l.Timeslot == timeslot &&
			l.ChannelOffset == channelOffset {
			return &l
		}
	}

	return nil
}

// Links returns a snapshot of all the cells.
func (t *LinkTable) Links() []tsch.Link {
	return t.sf.Links()
}

// NumExtraCells counts the cells that belong to extra pairs.
func (t *LinkTable) NumExtraCells() int {
	n := 0
	for _, l := range t.sf.Links() {
		if l.ExtraUnit > 0 {
			n++
		}
	}

	return n
}

func (t *LinkTable) find(id string) *tsch.Link {
	for _, l := range t.sf.Links() {
		if l.ID == id {
			return &l
		}
	}

	return nil
}
