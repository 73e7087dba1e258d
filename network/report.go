package network

import (
	"fmt"

	"github.com/sarchlab/orchestra/orchestra"
)

// A Report summarizes a run.
type Report struct {
	Generated     int
	Delivered     int
	NoRoute       int
	Transmissions int
	Collisions    int
	AvgHops       float64
	AvgLatencySec float64
	AvgDutyCycle  float64
}

// PDR is the packet delivery ratio.
func (r Report) PDR() float64 {
	if r.Generated == 0 {
		return 0
	}

	return float64(r.Delivered) / float64(r.Generated)
}

func (r Report) String() string {
	return fmt.Sprintf(
		"generated %d, delivered %d, pdr %.3f, hops %.2f, latency %.2fs, "+
			"duty cycle %.4f, collisions %d/%d",
		r.Generated, r.Delivered, r.PDR(), r.AvgHops, r.AvgLatencySec,
		r.AvgDutyCycle, r.Collisions, r.Transmissions)
}

// Report summarizes the deliveries and energy of the network so far.
func (n *Network) Report() Report {
	r := Report{
		Delivered:     len(n.deliveries),
		Transmissions: n.air.Transmissions,
		Collisions:    n.air.Collisions,
	}

	for _, node := range n.nodes {
		r.Generated += node.generated
		r.NoRoute += node.noRoute
		r.AvgDutyCycle += node.MAC.Energy().DutyCycle()
	}

	if len(n.nodes) > 0 {
		r.AvgDutyCycle /= float64(len(n.nodes))
	}

	if r.Delivered == 0 {
		return r
	}

	var hops, latency float64
	for _, d := range n.deliveries {
		hops += float64(d.Hops)
		latency += float64(d.Latency)
	}

	r.AvgHops = hops / float64(r.Delivered)
	r.AvgLatencySec = latency / float64(r.Delivered) /
		float64(orchestra.SlotsPerSecond)

	return r
}
