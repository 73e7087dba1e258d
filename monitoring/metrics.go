package monitoring

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/tracing"
)

// Metrics exposes the events of a simulation as Prometheus metrics. It is a
// tracer, so it attaches to the same hooks as the other tracers.
type Metrics struct {
	gatherer prometheus.Gatherer

	Deliveries        prometheus.Counter
	DeliveryHops      prometheus.Histogram
	DeliveryLatency   prometheus.Histogram
	ClassChanges      *prometheus.CounterVec
	NodeClass         *prometheus.GaugeVec
	Reschedules       *prometheus.CounterVec
	PartialReductions prometheus.Counter
	Drops             *prometheus.CounterVec
	Reparents         prometheus.Counter
	DutyCycle         *prometheus.GaugeVec
}

// NewMetrics registers the metrics against the registerer. A nil registerer
// means the default one.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		gatherer: gatherer,
		Deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tvss_deliveries_total",
			Help: "Messages received by the root.",
		}),
		DeliveryHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tvss_delivery_hops",
			Help:    "Hop count of delivered messages.",
			Buckets: prometheus.LinearBuckets(1, 1, 8),
		}),
		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tvss_delivery_latency_seconds",
			Help:    "End-to-end latency of delivered messages, in simulated seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		ClassChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tvss_class_changes_total",
			Help: "Class transitions per new class.",
		}, []string{"class"}),
		NodeClass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tvss_node_class",
			Help: "Current class of each node.",
		}, []string{"node"}),
		Reschedules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tvss_reschedules_total",
			Help: "Unicast slotframe reschedules per epoch policy.",
		}, []string{"policy"}),
		PartialReductions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tvss_partial_reductions_total",
			Help: "Extra units released while one of their cells was missing.",
		}),
		Drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tvss_packet_drops_total",
			Help: "Packets dropped by the MAC per reason.",
		}, []string{"reason"}),
		Reparents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tvss_reparents_total",
			Help: "Parent switches after the tree was built.",
		}),
		DutyCycle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tvss_radio_duty_cycle",
			Help: "Fraction of slots the radio was on, per node.",
		}, []string{"node"}),
	}

	collectors := []prometheus.Collector{
		m.Deliveries, m.DeliveryHops, m.DeliveryLatency,
		m.ClassChanges, m.NodeClass, m.Reschedules, m.PartialReductions,
		m.Drops, m.Reparents, m.DutyCycle,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

// Gatherer returns the gatherer the metrics are registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Record updates the metrics from an event.
func (m *Metrics) Record(e tracing.Event) {
	switch d := e.Detail.(type) {
	case orchestra.ClassChange:
		m.ClassChanges.WithLabelValues(classLabel(d.NewClass)).Inc()
		m.NodeClass.WithLabelValues(e.Where).Set(float64(d.NewClass))
	case orchestra.Reschedule:
		m.Reschedules.WithLabelValues(d.Policy.String()).Inc()
	case orchestra.PartialReduction:
		m.PartialReductions.Inc()
	case mac.DropReason:
		m.Drops.WithLabelValues(string(d)).Inc()
	case network.Delivery:
		m.Deliveries.Inc()
		m.DeliveryHops.Observe(float64(d.Hops))
		m.DeliveryLatency.Observe(
			float64(d.Latency) / float64(orchestra.SlotsPerSecond))
	case network.Reparent:
		m.Reparents.Inc()
	case mac.Energy:
		m.DutyCycle.WithLabelValues(e.Where).Set(d.DutyCycle())
	}
}

func classLabel(class uint16) string {
	return strconv.Itoa(int(class))
}
