package mac

import "fmt"

// Energy counts how many timeslots the radio spent in each state.
type Energy struct {
	TxSlots     uint64
	ListenSlots uint64
	IdleSlots   uint64
	SleepSlots  uint64
}

// CPUSlots is the number of slots the node was awake.
func (e Energy) CPUSlots() uint64 {
	return e.TxSlots + e.ListenSlots
}

// DutyCycle is the fraction of slots the radio was on.
func (e Energy) DutyCycle() float64 {
	total := e.CPUSlots() + e.SleepSlots
	if total == 0 {
		return 0
	}

	return float64(e.CPUSlots()) / float64(total)
}

// Report formats the counters as an energy report line.
func (e Energy) Report() string {
	return fmt.Sprintf("EG;%d;%d;%d;%d",
		e.CPUSlots(), e.SleepSlots, e.ListenSlots, e.TxSlots)
}

// Stats counts the packets a node handled.
type Stats struct {
	Enqueued  uint64
	Sent      uint64
	Received  uint64
	Dropped   uint64
	Collided  uint64
	Attempted uint64
}
