package orchestra

import (
	"fmt"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// ruleFixture wires a rule to mocks that read their answers from plain
// fields, so a test can change the topology between calls.
type ruleFixture struct {
	mockCtrl *gomock.Controller
	routing  *MockRouting
	queue    *MockPacketQueue
	traffic  *MockTrafficCounter
	tasks    *MockTaskScheduler
	schedule *tsch.Schedule

	self     tsch.LinkAddr
	routes   int
	isRoot   bool
	nextHops []tsch.LinkAddr
	pending  int
	rxCount  int
	flushed  []tsch.LinkAddr
	sampler  func()
	interval sim.VTimeInSlot
}

func newRuleFixture() *ruleFixture {
	f := &ruleFixture{
		self:     tsch.NodeAddr(1),
		schedule: tsch.NewSchedule(),
	}

	f.mockCtrl = gomock.NewController(GinkgoT())
	f.routing = NewMockRouting(f.mockCtrl)
	f.queue = NewMockPacketQueue(f.mockCtrl)
	f.traffic = NewMockTrafficCounter(f.mockCtrl)
	f.tasks = NewMockTaskScheduler(f.mockCtrl)

	f.routing.EXPECT().NumRoutes().
		DoAndReturn(func() int { return f.routes }).AnyTimes()
	f.routing.EXPECT().IsRoot().
		DoAndReturn(func() bool { return f.isRoot }).AnyTimes()
	f.routing.EXPECT().NextHops().
		DoAndReturn(func() []tsch.LinkAddr {
			return append([]tsch.LinkAddr(nil), f.nextHops...)
		}).AnyTimes()
	f.routing.EXPECT().HasNextHop(gomock.Any()).
		DoAndReturn(func(addr tsch.LinkAddr) bool {
			for _, nh := range f.nextHops {
				if nh == addr {
					return true
				}
			}

			return false
		}).AnyTimes()

	f.queue.EXPECT().GlobalPacketCount().
		DoAndReturn(func() int { return f.pending }).AnyTimes()
	f.queue.EXPECT().FlushPacketsTo(gomock.Any()).
		DoAndReturn(func(addr tsch.LinkAddr) int {
			f.flushed = append(f.flushed, addr)
			return 0
		}).AnyTimes()

	f.traffic.EXPECT().TakeRxPacketCount().
		DoAndReturn(func() int {
			n := f.rxCount
			f.rxCount = 0

			return n
		}).AnyTimes()

	f.tasks.EXPECT().SchedulePeriodic(gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ string, period sim.VTimeInSlot, fn func()) {
			f.interval = period
			f.sampler = fn
		}).AnyTimes()

	return f
}

func (f *ruleFixture) builder(cfg Config) Builder {
	return MakeBuilder().
		WithConfig(cfg).
		WithAddr(f.self).
		WithSchedule(f.schedule).
		WithRouting(f.routing).
		WithPacketQueue(f.queue).
		WithTrafficCounter(f.traffic).
		WithTaskScheduler(f.tasks)
}

func (f *ruleFixture) build(cfg Config) *Rule {
	r := f.builder(cfg).Build("Node1.Unicast")
	r.Init(2)

	return r
}

// addChild registers a direct child with no descendants of its own.
func (f *ruleFixture) addChild(r *Rule, addr tsch.LinkAddr) {
	f.nextHops = append(f.nextHops, addr)
	f.routes++
	r.ChildAdded(addr)
}

func (f *ruleFixture) removeChild(r *Rule, addr tsch.LinkAddr) {
	for i, nh := range f.nextHops {
		if nh == addr {
			f.nextHops = append(f.nextHops[:i], f.nextHops[i+1:]...)
			f.routes--

			break
		}
	}

	r.ChildRemoved(addr)
}

// cellSignature describes the schedule without link IDs and without the
// neighbor a shared cell happens to be keyed to.
func cellSignature(links []tsch.Link) []string {
	sig := make([]string, 0, len(links))
	for _, l := range links {
		sig = append(sig, fmt.Sprintf("ts%d/ch%d/%s/x%d",
			l.Timeslot, l.ChannelOffset, l.Options, l.ExtraUnit))
	}

	sort.Strings(sig)

	return sig
}

func neighborCells(links []tsch.Link) []tsch.Link {
	var cells []tsch.Link
	for _, l := range links {
		if l.ExtraUnit == 0 {
			cells = append(cells, l)
		}
	}

	return cells
}

type recordedHook struct {
	pos    *sim.HookPos
	detail any
}

func recordHooks(r *Rule) *[]recordedHook {
	var hooks []recordedHook
	r.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		hooks = append(hooks, recordedHook{pos: ctx.Pos, detail: ctx.Detail})
	}))

	return &hooks
}
