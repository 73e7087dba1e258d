// Package tracing turns the hooks of rules, MAC engines and networks into
// events, and sends the events to tracers that log, count or store them.
package tracing

// A Tracer collects events.
type Tracer interface {
	Record(e Event)
}
