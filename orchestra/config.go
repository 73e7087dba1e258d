package orchestra

import (
	"fmt"
	"strings"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// EpochPolicy selects how the unicast slotframe follows the epoch.
type EpochPolicy int

const (
	// EpochPolicyFullRebuild re-derives the whole slotframe at every epoch
	// boundary.
	EpochPolicyFullRebuild EpochPolicy = iota

	// EpochPolicyConditionalPatch re-derives the installed cells one by one,
	// and only when the epoch changed while packets are waiting.
	EpochPolicyConditionalPatch
)

func (p EpochPolicy) String() string {
	switch p {
	case EpochPolicyFullRebuild:
		return "full-rebuild"
	case EpochPolicyConditionalPatch:
		return "conditional-patch"
	}

	return fmt.Sprintf("EpochPolicy(%d)", int(p))
}

// ParseEpochPolicy converts the textual name of a policy.
func ParseEpochPolicy(s string) (EpochPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full-rebuild", "full", "rebuild":
		return EpochPolicyFullRebuild, nil
	case "conditional-patch", "patch", "conditional":
		return EpochPolicyConditionalPatch, nil
	}

	return 0, fmt.Errorf("unknown epoch policy %q", s)
}

// Config is the configuration surface of the rule.
type Config struct {
	// UnicastPeriod is the length of the unicast slotframe in timeslots.
	UnicastPeriod uint16

	// SenderBased selects sender-based cells. Otherwise the receiver's
	// address decides where a unicast pair lives.
	SenderBased bool

	// CollisionFreeHash declares that the address hash never collides
	// within MaxHash.
	CollisionFreeHash bool
	MaxHash           uint16

	MinChannelOffset uint16
	MaxChannelOffset uint16

	// HoppingSequenceLength is the number of channels in the hopping
	// sequence. Channel offsets are taken from all channels but one.
	HoppingSequenceLength uint16

	SubtreeThreshold     int
	TrafficLoadThreshold int
	MaxClass             uint16

	EpochCallbackEnabled bool
	EpochPolicy          EpochPolicy

	// SampleInterval is the period of the traffic sampler, in slots.
	SampleInterval sim.VTimeInSlot

	// MaxNeighbors bounds the number of neighbors with a unicast cell. It
	// sizes the scratch buffer used by the epoch patch.
	MaxNeighbors int
}

// SlotsPerSecond is the number of 10 ms timeslots in one second.
const SlotsPerSecond = 100

// DefaultConfig returns the configuration the rule ships with.
func DefaultConfig() Config {
	return Config{
		UnicastPeriod:         17,
		SenderBased:           false,
		CollisionFreeHash:     false,
		MaxHash:               0x7fff,
		MinChannelOffset:      1,
		MaxChannelOffset:      3,
		HoppingSequenceLength: 4,
		SubtreeThreshold:      4,
		TrafficLoadThreshold:  10,
		MaxClass:              4,
		EpochCallbackEnabled:  true,
		EpochPolicy:           EpochPolicyFullRebuild,
		SampleInterval:        30 * SlotsPerSecond,
		MaxNeighbors:          16,
	}
}

// Validate reports the first setting that makes the rule unusable.
func (c Config) Validate() error {
	switch {
	case c.UnicastPeriod == 0:
		return fmt.Errorf("unicast period must be positive")
	case c.MaxChannelOffset < c.MinChannelOffset:
		return fmt.Errorf("channel offset range %d..%d is empty",
			c.MinChannelOffset, c.MaxChannelOffset)
	case c.HoppingSequenceLength < 2:
		return fmt.Errorf("hopping sequence needs at least 2 channels, got %d",
			c.HoppingSequenceLength)
	case c.MaxClass < 3:
		return fmt.Errorf("max class must be at least 3, got %d", c.MaxClass)
	case c.SubtreeThreshold <= 0:
		return fmt.Errorf("subtree threshold must be positive")
	case c.TrafficLoadThreshold < 0:
		return fmt.Errorf("traffic load threshold must not be negative")
	case c.SampleInterval == 0:
		return fmt.Errorf("sample interval must be positive")
	case c.MaxNeighbors <= 0:
		return fmt.Errorf("max neighbors must be positive")
	case c.EpochPolicy != EpochPolicyFullRebuild &&
		c.EpochPolicy != EpochPolicyConditionalPatch:
		return fmt.Errorf("unknown epoch policy %d", c.EpochPolicy)
	}

	return nil
}

func (c Config) numChannels() uint16 {
	if c.HoppingSequenceLength == 0 {
		return 0
	}

	return c.HoppingSequenceLength - 1
}

func (c Config) sharedFlag() tsch.LinkOption {
	if c.SenderBased && c.CollisionFreeHash {
		if uint32(c.UnicastPeriod) < uint32(c.MaxHash)+1 {
			return tsch.LinkOptionShared
		}

		return 0
	}

	return tsch.LinkOptionShared
}

// ownOptions are the options of the node's own default cell.
func (c Config) ownOptions() tsch.LinkOption {
	if c.SenderBased {
		return tsch.LinkOptionTX | c.sharedFlag()
	}

	return tsch.LinkOptionRX
}

// peerOptions are the options of a cell dedicated to a neighbor.
func (c Config) peerOptions() tsch.LinkOption {
	if c.SenderBased {
		return tsch.LinkOptionRX
	}

	return tsch.LinkOptionTX | c.sharedFlag()
}
