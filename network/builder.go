package network

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/routing"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// A Builder can build networks.
type Builder struct {
	engine        sim.Engine
	cfg           orchestra.Config
	topology      Topology
	traffic       TrafficConfig
	churnInterval sim.VTimeInSlot
	hopping       []uint16
	commonPeriod  uint16
	queueCapacity int
	maxRetries    uint8
	seed          int64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		cfg:           orchestra.DefaultConfig(),
		topology:      Line(3),
		traffic:       DefaultTrafficConfig(),
		hopping:       DefaultHoppingSequence,
		commonPeriod:  orchestra.DefaultCommonPeriod,
		queueCapacity: 8,
		maxRetries:    7,
		seed:          1,
	}
}

// WithEngine sets the event engine.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithConfig sets the configuration of the unicast rule of every node.
func (b Builder) WithConfig(cfg orchestra.Config) Builder {
	b.cfg = cfg
	return b
}

// WithTopology sets the nodes and radio links.
func (b Builder) WithTopology(t Topology) Builder {
	b.topology = t
	return b
}

// WithTraffic sets the convergecast traffic.
func (b Builder) WithTraffic(t TrafficConfig) Builder {
	b.traffic = t
	return b
}

// WithChurnInterval makes a random node switch parents every interval
// slots. Zero disables churn.
func (b Builder) WithChurnInterval(interval sim.VTimeInSlot) Builder {
	b.churnInterval = interval
	return b
}

// WithHoppingSequence sets the physical channels the medium hops over.
func (b Builder) WithHoppingSequence(seq []uint16) Builder {
	b.hopping = seq
	return b
}

// WithCommonPeriod sets the length of the common shared slotframe.
func (b Builder) WithCommonPeriod(period uint16) Builder {
	b.commonPeriod = period
	return b
}

// WithQueueCapacity sets the per-neighbor queue capacity of every node.
func (b Builder) WithQueueCapacity(n int) Builder {
	b.queueCapacity = n
	return b
}

// WithMaxRetries sets how many times a unicast frame is retransmitted.
func (b Builder) WithMaxRetries(n uint8) Builder {
	b.maxRetries = n
	return b
}

// WithSeed sets the seed of all random choices.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// Build creates the network, attaches every node to a minimum-hop tree and
// registers the periodic tasks. Call Start to run the first slot.
func (b Builder) Build(name string) *Network {
	if b.engine == nil {
		log.Panicf("network %s: engine is not set", name)
	}

	n := &Network{
		HookableBase: sim.NewHookableBase(),
		engine:       b.engine,
		medium:       NewMedium(b.hopping),
		tree:         routing.NewTree(),
		tasks:        sim.NewTaskScheduler(b.engine),
		traffic:      b.traffic,
		rand:         rand.New(rand.NewSource(b.seed)),
		byAddr:       make(map[tsch.LinkAddr]*Node),
		byName:       make(map[string]*Node),
	}
	n.TickingComponent = sim.NewTickingComponent(name, b.engine, n)

	for _, id := range b.topology.NodeIDs {
		b.buildNode(n, name, id)
	}

	for _, e := range b.topology.Edges {
		n.medium.Connect(tsch.NodeAddr(e[0]), tsch.NodeAddr(e[1]))
	}

	n.tree.AddObserver(n)

	for _, pair := range b.topology.bfsParents() {
		err := n.tree.Attach(tsch.NodeAddr(pair[0]), tsch.NodeAddr(pair[1]))
		if err != nil {
			log.Panicf("network %s: %v", name, err)
		}
	}

	if b.traffic.Messages > 0 && b.traffic.SendInterval > 0 {
		n.tasks.SchedulePeriodic(name+".Traffic",
			b.traffic.SendInterval, n.generateTraffic)
	}

	if b.churnInterval > 0 {
		n.tasks.SchedulePeriodic(name+".Churn", b.churnInterval, n.churn)
	}

	b.engine.RegisterSimulationEndHandler(energyReporter{network: n})

	return n
}

func (b Builder) buildNode(n *Network, networkName string, id uint16) {
	addr := tsch.NodeAddr(id)
	name := fmt.Sprintf("%s.Node%d", networkName, id)

	if err := n.tree.AddNode(addr, id == RootID); err != nil {
		log.Panicf("network %s: %v", networkName, err)
	}

	engine := mac.MakeBuilder().
		WithAddr(addr).
		WithTimeTeller(b.engine).
		WithQueueCapacity(b.queueCapacity).
		WithMaxRetries(b.maxRetries).
		WithSeed(b.seed + int64(id)).
		Build(name + ".MAC")

	unicast := orchestra.MakeBuilder().
		WithConfig(b.cfg).
		WithAddr(addr).
		WithSchedule(engine.Schedule()).
		WithRouting(n.tree.View(addr)).
		WithPacketQueue(engine.Queue()).
		WithTrafficCounter(engine).
		WithTaskScheduler(n.tasks).
		WithSlotframeClock(engine).
		Build(name + ".Unicast")

	common := orchestra.NewDefaultCommonRule(name+".Common", engine.Schedule()).
		WithPeriod(b.commonPeriod)

	engine.AddRule(unicast)
	engine.AddRule(common)
	engine.Init()

	node := &Node{
		ID:      id,
		Addr:    addr,
		MAC:     engine,
		Unicast: unicast,
		Common:  common,
		name:    name,
	}

	engine.OnDeliver(func(p *tsch.Packet) {
		n.deliver(node, p)
	})

	n.nodes = append(n.nodes, node)
	n.engines = append(n.engines, engine)
	n.byAddr[addr] = node
	n.byName[name] = node
}
