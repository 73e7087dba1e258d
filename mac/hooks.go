package mac

import "github.com/sarchlab/orchestra/sim"

// HookPosPacketSent marks a packet that left the queue after a successful
// transmission.
var HookPosPacketSent = &sim.HookPos{Name: "PacketSent"}

// HookPosPacketReceived marks a packet addressed to the node.
var HookPosPacketReceived = &sim.HookPos{Name: "PacketReceived"}

// HookPosPacketDropped marks a packet that was given up.
var HookPosPacketDropped = &sim.HookPos{Name: "PacketDropped"}

// HookPosTimeSourceAcked marks the first acknowledgement of a new time
// source.
var HookPosTimeSourceAcked = &sim.HookPos{Name: "TimeSourceAcked"}

// DropReason tells why a packet was dropped.
type DropReason string

// Drop reasons.
const (
	DropQueueFull  DropReason = "queue-full"
	DropNoCell     DropReason = "no-cell"
	DropMaxRetries DropReason = "max-retries"
)
