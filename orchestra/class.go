package orchestra

import "github.com/sarchlab/orchestra/sim"

// TargetExtraSlots returns how many extra pairs a node of the class owns.
func TargetExtraSlots(class uint16) int {
	switch class {
	case 1:
		return 3
	case 2:
		return 2
	case 3:
		return 1
	default:
		return 0
	}
}

// SetNodeClass re-evaluates the class of the node from its routes, its rank
// and its last traffic sample, and grows or shrinks the extra pairs to the
// target of the new class.
func (r *Rule) SetNodeClass() {
	newClass := r.computeClass()

	r.rescheduleTimeslots(newClass)
	r.setClass(newClass)
}

func (r *Rule) computeClass() uint16 {
	routes := r.routing.NumRoutes()

	switch {
	case routes == 0:
		return r.cfg.MaxClass
	case r.routing.IsRoot():
		return 1
	case routes >= r.cfg.SubtreeThreshold ||
		r.packetCount > r.cfg.TrafficLoadThreshold:
		return 2
	default:
		return 3
	}
}

func (r *Rule) setClass(newClass uint16) {
	oldClass := r.class
	r.class = newClass

	if oldClass == newClass {
		return
	}

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Pos:    HookPosClassChange,
		Item:   r,
		Detail: ClassChange{
			OldClass:   oldClass,
			NewClass:   newClass,
			ExtraSlots: r.extraSlots,
		},
	})
}

func (r *Rule) rescheduleTimeslots(newClass uint16) {
	switch {
	case newClass == r.class:
		return
	case r.class == classUnset || newClass < r.class:
		r.allocateMoreSlots(newClass)
	default:
		r.reduceAllocatedSlots(newClass)
	}
}

// allocateMoreSlots adds extra pairs, one at a time, until the node owns the
// target of the class.
func (r *Rule) allocateMoreSlots(newClass uint16) {
	target := TargetExtraSlots(newClass)

	for r.extraSlots < target {
		unit := uint8(r.extraSlots + 1)
		if !r.installExtraPair(r.table, unit) {
			return
		}

		r.extraSlots++
	}
}

// reduceAllocatedSlots releases extra pairs, newest first, until the node
// owns the target of the class. A unit with a missing cell is still
// released; the mismatch is counted.
func (r *Rule) reduceAllocatedSlots(newClass uint16) {
	target := TargetExtraSlots(newClass)

	for r.extraSlots > target {
		unit := uint8(r.extraSlots)
		r.extraSlots--

		tx := r.table.FindExtra(unit, true)
		rx := r.table.FindExtra(unit, false)

		r.table.Remove(tx)
		r.table.Remove(rx)

		if tx == nil || rx == nil {
			r.partialReductions++
			r.InvokeHook(sim.HookCtx{
				Domain: r,
				Pos:    HookPosPartialReduction,
				Item:   r,
				Detail: PartialReduction{
					Unit:      unit,
					MissingTX: tx == nil,
					MissingRX: rx == nil,
				},
			})
		}
	}
}

// installExtraPair adds both cells of an extra unit at the node's own
// coordinate. It returns false if the coordinate is invalid.
func (r *Rule) installExtraPair(t *LinkTable, unit uint8) bool {
	ts := r.ownTimeslot()
	ch := r.localChannelOffset()

	if ts == InvalidOffset || ch == InvalidOffset {
		return false
	}

	t.AddExtra(unit, r.cfg.peerOptions(), ts, ch)
	t.AddExtra(unit, r.cfg.ownOptions(), ts, ch)

	return true
}
