package orchestra

import "github.com/sarchlab/orchestra/sim"

// HookPosClassChange marks that a node moved to another class.
var HookPosClassChange = &sim.HookPos{Name: "ClassChange"}

// HookPosReschedule marks that the unicast slotframe followed a new epoch.
var HookPosReschedule = &sim.HookPos{Name: "Reschedule"}

// HookPosPartialReduction marks that an extra unit was released while one of
// its cells was missing.
var HookPosPartialReduction = &sim.HookPos{Name: "PartialReduction"}

// ClassChange is the detail of a HookPosClassChange hook.
type ClassChange struct {
	OldClass   uint16
	NewClass   uint16
	ExtraSlots int
}

// Reschedule is the detail of a HookPosReschedule hook.
type Reschedule struct {
	Epoch    uint16
	Policy   EpochPolicy
	NumLinks int
}

// PartialReduction is the detail of a HookPosPartialReduction hook.
type PartialReduction struct {
	Unit      uint8
	MissingTX bool
	MissingRX bool
}
