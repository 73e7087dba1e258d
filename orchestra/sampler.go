package orchestra

// sampleTraffic is the body of the traffic sampler task. An idle interval
// demotes the node by one class. Traffic that resumes after an idle
// interval triggers a full evaluation.
func (r *Rule) sampleTraffic() {
	previous := r.packetCount
	r.packetCount = r.traffic.TakeRxPacketCount()

	switch {
	case r.class == classUnset:
		r.SetNodeClass()
	case r.packetCount == 0 && r.class < r.cfg.MaxClass:
		next := r.class + 1
		r.rescheduleTimeslots(next)
		r.setClass(next)
	case previous == 0 && r.packetCount != 0:
		r.SetNodeClass()
	}
}
