package tracing

import (
	"sort"
	"sync"
)

// CountTracer counts events by kind and by location.
type CountTracer struct {
	filter EventFilter

	lock      sync.Mutex
	kinds     []string
	perKind   map[string]uint64
	perWhere  map[string]map[string]uint64
	lastEvent map[string]Event
}

// NewCountTracer creates a new CountTracer. A nil filter counts everything.
func NewCountTracer(filter EventFilter) *CountTracer {
	return &CountTracer{
		filter:    filter,
		perKind:   make(map[string]uint64),
		perWhere:  make(map[string]map[string]uint64),
		lastEvent: make(map[string]Event),
	}
}

// Record counts the event.
func (t *CountTracer) Record(e Event) {
	if t.filter != nil && !t.filter(e) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.perKind[e.Kind]; !ok {
		t.kinds = append(t.kinds, e.Kind)
	}

	t.perKind[e.Kind]++

	counts, ok := t.perWhere[e.Where]
	if !ok {
		counts = make(map[string]uint64)
		t.perWhere[e.Where] = counts
	}

	counts[e.Kind]++

	t.lastEvent[e.Where+"/"+e.Kind] = e
}

// Kinds returns the kinds seen so far, in the order they first appeared.
func (t *CountTracer) Kinds() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.kinds...)
}

// Count returns the number of events of the kind.
func (t *CountTracer) Count(kind string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.perKind[kind]
}

// CountAt returns the number of events of the kind at the location.
func (t *CountTracer) CountAt(where, kind string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.perWhere[where][kind]
}

// Locations returns the locations that reported events, sorted.
func (t *CountTracer) Locations() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	wheres := make([]string, 0, len(t.perWhere))
	for w := range t.perWhere {
		wheres = append(wheres, w)
	}

	sort.Strings(wheres)

	return wheres
}

// Last returns the latest event of the kind at the location.
func (t *CountTracer) Last(where, kind string) (Event, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	e, ok := t.lastEvent[where+"/"+kind]

	return e, ok
}
