package orchestra

import "github.com/sarchlab/orchestra/tsch"

// Defaults of the common shared slotframe.
const (
	DefaultCommonPeriod        uint16 = 31
	DefaultCommonChannelOffset uint16 = 1
)

// DefaultCommonRule installs one shared cell that every node uses for both
// broadcast and unicast. It takes every packet other rules decline.
type DefaultCommonRule struct {
	name          string
	schedule      *tsch.Schedule
	period        uint16
	channelOffset uint16
	handle        uint16
}

// NewDefaultCommonRule creates a common rule with the default period.
func NewDefaultCommonRule(name string, schedule *tsch.Schedule) *DefaultCommonRule {
	return &DefaultCommonRule{
		name:          name,
		schedule:      schedule,
		period:        DefaultCommonPeriod,
		channelOffset: DefaultCommonChannelOffset,
	}
}

// WithPeriod changes the length of the common slotframe.
func (r *DefaultCommonRule) WithPeriod(period uint16) *DefaultCommonRule {
	r.period = period
	return r
}

// Name returns the name of the rule.
func (r *DefaultCommonRule) Name() string {
	return r.name
}

// Init creates the common slotframe with its shared cell at timeslot 0.
func (r *DefaultCommonRule) Init(handle uint16) {
	r.handle = handle

	sf := r.schedule.AddSlotframe(handle, r.period)
	sf.AddLink(tsch.Link{
		Timeslot:      0,
		ChannelOffset: r.channelOffset,
		Options: tsch.LinkOptionTX | tsch.LinkOptionRX |
			tsch.LinkOptionShared | tsch.LinkOptionTimeKeeping,
		Type: tsch.LinkTypeAdvertising,
		Addr: tsch.BroadcastAddr,
	})
}

// SelectPacket places any packet in the shared cell.
func (r *DefaultCommonRule) SelectPacket(_ *tsch.Packet) (tsch.Selection, bool) {
	return tsch.Selection{
		Slotframe:     r.handle,
		Timeslot:      0,
		ChannelOffset: r.channelOffset,
	}, true
}

// NewTimeSource does nothing; the shared cell serves every neighbor.
func (r *DefaultCommonRule) NewTimeSource(_, _ tsch.LinkAddr) {}

// ChildAdded does nothing.
func (r *DefaultCommonRule) ChildAdded(_ tsch.LinkAddr) {}

// ChildRemoved does nothing.
func (r *DefaultCommonRule) ChildRemoved(_ tsch.LinkAddr) {}
