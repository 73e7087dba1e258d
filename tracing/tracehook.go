package tracing

import (
	"fmt"

	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

// NamedHookable is a component that has a name and accepts hooks.
type NamedHookable interface {
	sim.Hookable
	Name() string
}

// CollectTrace lets the tracer collect events from a domain.
func CollectTrace(
	timeTeller sim.TimeTeller,
	domain NamedHookable,
	tracer Tracer,
) {
	domain.AcceptHook(&traceHook{
		timeTeller: timeTeller,
		where:      domain.Name(),
		t:          tracer,
	})
}

// CollectNetworkTrace lets the tracer collect events from a network and from
// the MAC engine and unicast rule of each of its nodes.
func CollectNetworkTrace(n *network.Network, tracer Tracer) {
	engine := n.Engine()

	CollectTrace(engine, n, tracer)

	for _, node := range n.Nodes() {
		CollectTrace(engine, node.MAC, tracer)
		CollectTrace(engine, node.Unicast, tracer)
	}
}

// A traceHook is a hook that converts hook contexts into events.
type traceHook struct {
	timeTeller sim.TimeTeller
	where      string
	t          Tracer
}

// Func records an event if the hook position is one the tracer understands.
func (h *traceHook) Func(ctx sim.HookCtx) {
	e, ok := eventOf(ctx)
	if !ok {
		return
	}

	e.Time = h.timeTeller.CurrentTime()
	if e.Where == "" {
		e.Where = h.where
	}
	e.Detail = ctx.Detail

	h.t.Record(e)
}

//nolint:gocyclo
func eventOf(ctx sim.HookCtx) (Event, bool) {
	switch ctx.Pos {
	case orchestra.HookPosClassChange:
		d := ctx.Detail.(orchestra.ClassChange)
		return Event{
			Kind: KindClass,
			What: fmt.Sprintf("class %d -> %d, extra %d",
				d.OldClass, d.NewClass, d.ExtraSlots),
		}, true
	case orchestra.HookPosReschedule:
		d := ctx.Detail.(orchestra.Reschedule)
		return Event{
			Kind: KindReschedule,
			What: fmt.Sprintf("epoch %d, %s, %d links",
				d.Epoch, d.Policy, d.NumLinks),
		}, true
	case orchestra.HookPosPartialReduction:
		d := ctx.Detail.(orchestra.PartialReduction)
		return Event{
			Kind: KindPartialReduction,
			What: fmt.Sprintf("unit %d, missing tx %t, missing rx %t",
				d.Unit, d.MissingTX, d.MissingRX),
		}, true
	case mac.HookPosPacketSent:
		return Event{Kind: KindSent, What: packetWhat(ctx.Item)}, true
	case mac.HookPosPacketReceived:
		return Event{Kind: KindReceived, What: packetWhat(ctx.Item)}, true
	case mac.HookPosPacketDropped:
		return Event{
			Kind: KindDropped,
			What: fmt.Sprintf("%s, %s", packetWhat(ctx.Item), ctx.Detail),
		}, true
	case mac.HookPosTimeSourceAcked:
		return Event{
			Kind: KindTimeSourceAcked,
			What: fmt.Sprint(ctx.Item),
		}, true
	case network.HookPosDelivered:
		return Event{
			Kind: KindDelivery,
			What: ctx.Detail.(network.Delivery).Record(),
		}, true
	case network.HookPosReparent:
		d := ctx.Detail.(network.Reparent)
		return Event{
			Kind: KindReparent,
			What: fmt.Sprintf("%s: %s -> %s", d.Child, d.OldParent, d.NewParent),
		}, true
	case network.HookPosEnergyReport:
		node := ctx.Item.(*network.Node)
		return Event{
			Where: node.Name(),
			Kind:  KindEnergy,
			What:  ctx.Detail.(mac.Energy).Report(),
		}, true
	}

	return Event{}, false
}

func packetWhat(item any) string {
	p, ok := item.(*tsch.Packet)
	if !ok {
		return fmt.Sprint(item)
	}

	return fmt.Sprintf("%s -> %s seq %d", p.Src, p.Dest, p.Seqno)
}
