package mac

import (
	"log"
	"math/rand"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// A Builder can build MAC engines.
type Builder struct {
	addr          tsch.LinkAddr
	timeTeller    sim.TimeTeller
	queueCapacity int
	maxRetries    uint8
	maxBackoff    uint8
	seed          int64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		queueCapacity: 8,
		maxRetries:    7,
		maxBackoff:    4,
		seed:          1,
	}
}

// WithAddr sets the address of the node.
func (b Builder) WithAddr(addr tsch.LinkAddr) Builder {
	b.addr = addr
	return b
}

// WithTimeTeller sets where the engine reads the absolute slot number.
func (b Builder) WithTimeTeller(t sim.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithQueueCapacity sets how many packets each neighbor queue holds.
func (b Builder) WithQueueCapacity(n int) Builder {
	b.queueCapacity = n
	return b
}

// WithMaxRetries sets how many times a unicast frame is retransmitted.
func (b Builder) WithMaxRetries(n uint8) Builder {
	b.maxRetries = n
	return b
}

// WithMaxBackoffExponent caps the backoff window in shared cells at 2^n.
func (b Builder) WithMaxBackoffExponent(n uint8) Builder {
	b.maxBackoff = n
	return b
}

// WithSeed sets the seed of the backoff generator.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// Build creates an engine.
func (b Builder) Build(name string) *Engine {
	if b.timeTeller == nil {
		log.Panicf("mac %s: time teller is not set", name)
	}

	if b.addr.IsNull() || b.addr.IsBroadcast() {
		log.Panicf("mac %s: address %s is reserved", name, b.addr)
	}

	return &Engine{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		addr:         b.addr,
		timeTeller:   b.timeTeller,
		schedule:     tsch.NewSchedule(),
		queue:        tsch.NewQueue(b.queueCapacity),
		maxRetries:   b.maxRetries,
		maxBackoff:   b.maxBackoff,
		rand:         rand.New(rand.NewSource(b.seed)),
		timeSource:   tsch.NullAddr,
	}
}
