package tsch

import (
	"sort"
	"sync"

	"github.com/sarchlab/orchestra/sim"
)

// A Slotframe is a repeating sequence of Size timeslots and owns the links
// installed in it.
//
// All mutations are serialized by the slotframe lock. The slot engine and
// other readers take snapshots, so they only ever see the table between two
// mutations.
type Slotframe struct {
	Handle uint16
	Size   uint16

	lock  sync.RWMutex
	links []*Link
}

// NewSlotframe creates an empty slotframe.
func NewSlotframe(handle, size uint16) *Slotframe {
	return &Slotframe{Handle: handle, Size: size}
}

// ASFN returns the absolute slotframe number of the given absolute slot
// number. It wraps at 2^16.
func (sf *Slotframe) ASFN(asn sim.VTimeInSlot) uint16 {
	if sf.Size == 0 {
		return 0
	}

	return uint16(uint64(asn) / uint64(sf.Size))
}

// TimeslotAt returns the timeslot of the slotframe that is active at the
// given absolute slot number.
func (sf *Slotframe) TimeslotAt(asn sim.VTimeInSlot) uint16 {
	if sf.Size == 0 {
		return 0
	}

	return uint16(uint64(asn) % uint64(sf.Size))
}

// AddLink installs a copy of the link and returns the installed link. The
// link gets a fresh ID and the slotframe handle.
func (sf *Slotframe) AddLink(l Link) *Link {
	sf.lock.Lock()
	defer sf.lock.Unlock()

	installed := l
	installed.ID = sim.GetIDGenerator().Generate()
	installed.SlotframeHandle = sf.Handle
	sf.links = append(sf.links, &installed)

	return &installed
}

// UpdateLink overwrites the fields of the link that has the same ID. It
// returns false if the link is no longer installed.
func (sf *Slotframe) UpdateLink(l Link) bool {
	sf.lock.Lock()
	defer sf.lock.Unlock()

	for _, existing := range sf.links {
		if existing.ID == l.ID {
			*existing = l
			existing.SlotframeHandle = sf.Handle

			return true
		}
	}

	return false
}

// RemoveLink removes the link with the given ID. It returns false if the
// link is not installed.
func (sf *Slotframe) RemoveLink(id string) bool {
	sf.lock.Lock()
	defer sf.lock.Unlock()

	for i, existing := range sf.links {
		if existing.ID == id {
			sf.links = append(sf.links[:i], sf.links[i+1:]...)
			return true
		}
	}

	return false
}

// ReplaceLinks swaps the whole link table in one step.
func (sf *Slotframe) ReplaceLinks(links []Link) {
	installed := make([]*Link, 0, len(links))
	for _, l := range links {
		nl := l
		nl.ID = sim.GetIDGenerator().Generate()
		nl.SlotframeHandle = sf.Handle
		installed = append(installed, &nl)
	}

	sf.lock.Lock()
	sf.links = installed
	sf.lock.Unlock()
}

// Links returns a snapshot of the installed links, in installation order.
func (sf *Slotframe) Links() []Link {
	sf.lock.RLock()
	defer sf.lock.RUnlock()

	snapshot := make([]Link, 0, len(sf.links))
	for _, l := range sf.links {
		snapshot = append(snapshot, *l)
	}

	return snapshot
}

// LinksAt returns a snapshot of the links installed at a timeslot.
func (sf *Slotframe) LinksAt(timeslot uint16) []Link {
	sf.lock.RLock()
	defer sf.lock.RUnlock()

	var links []Link
	for _, l := range sf.links {
		if l.Timeslot == timeslot {
			links = append(links, *l)
		}
	}

	return links
}

// NumLinks returns the number of installed links.
func (sf *Slotframe) NumLinks() int {
	sf.lock.RLock()
	defer sf.lock.RUnlock()

	return len(sf.links)
}

// Schedule is the set of slotframes of one node.
type Schedule struct {
	lock       sync.RWMutex
	slotframes map[uint16]*Slotframe
}

// NewSchedule creates an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{slotframes: make(map[uint16]*Slotframe)}
}

// AddSlotframe creates a slotframe. If a slotframe with the handle already
// exists, it is returned unchanged.
func (s *Schedule) AddSlotframe(handle, size uint16) *Slotframe {
	s.lock.Lock()
	defer s.lock.Unlock()

	if sf, ok := s.slotframes[handle]; ok {
		return sf
	}

	sf := NewSlotframe(handle, size)
	s.slotframes[handle] = sf

	return sf
}

// Slotframe returns the slotframe with the handle, or nil.
func (s *Schedule) Slotframe(handle uint16) *Slotframe {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.slotframes[handle]
}

// Slotframes returns the slotframes ordered by handle. Lower handles have
// higher priority when cells of several slotframes overlap.
func (s *Schedule) Slotframes() []*Slotframe {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sfs := make([]*Slotframe, 0, len(s.slotframes))
	for _, sf := range s.slotframes {
		sfs = append(sfs, sf)
	}

	sort.Slice(sfs, func(i, j int) bool {
		return sfs[i].Handle < sfs[j].Handle
	})

	return sfs
}
