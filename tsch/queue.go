package tsch

import "sync"

// A Queue holds the outgoing packets of a node, one FIFO per neighbor.
type Queue struct {
	lock       sync.Mutex
	perNbr     map[LinkAddr][]*Packet
	order      []LinkAddr
	capacity   int
	numDropped uint64
}

// NewQueue creates a queue that holds at most capacity packets per neighbor.
// A capacity of 0 means unbounded.
func NewQueue(capacity int) *Queue {
	return &Queue{
		perNbr:   make(map[LinkAddr][]*Packet),
		capacity: capacity,
	}
}

// Add appends a packet to the queue of its destination. It returns false and
// counts a drop if the neighbor queue is full.
func (q *Queue) Add(p *Packet) bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	pkts, ok := q.perNbr[p.Dest]
	if !ok {
		q.order = append(q.order, p.Dest)
	}

	if q.capacity > 0 && len(pkts) >= q.capacity {
		q.numDropped++
		return false
	}

	q.perNbr[p.Dest] = append(pkts, p)

	return true
}

// Remove takes a packet out of the queue, matching by ID.
func (q *Queue) Remove(p *Packet) bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	pkts := q.perNbr[p.Dest]
	for i, candidate := range pkts {
		if candidate.ID == p.ID {
			q.perNbr[p.Dest] = append(pkts[:i], pkts[i+1:]...)
			return true
		}
	}

	return false
}

// Find returns the first packet, in neighbor order, that matches.
func (q *Queue) Find(match func(p *Packet) bool) *Packet {
	q.lock.Lock()
	defer q.lock.Unlock()

	for _, nbr := range q.order {
		for _, p := range q.perNbr[nbr] {
			if match(p) {
				return p
			}
		}
	}

	return nil
}

// ForEach calls fn on every queued packet.
func (q *Queue) ForEach(fn func(p *Packet)) {
	q.lock.Lock()
	defer q.lock.Unlock()

	for _, nbr := range q.order {
		for _, p := range q.perNbr[nbr] {
			fn(p)
		}
	}
}

// FlushPacketsTo drops every packet queued for the address and returns how
// many were dropped.
func (q *Queue) FlushPacketsTo(addr LinkAddr) int {
	q.lock.Lock()
	defer q.lock.Unlock()

	n := len(q.perNbr[addr])
	delete(q.perNbr, addr)

	for i, nbr := range q.order {
		if nbr == addr {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}

	q.numDropped += uint64(n)

	return n
}

// PacketCountTo returns the number of packets queued for the address.
func (q *Queue) PacketCountTo(addr LinkAddr) int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.perNbr[addr])
}

// GlobalPacketCount returns the number of queued packets for all neighbors.
func (q *Queue) GlobalPacketCount() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	n := 0
	for _, pkts := range q.perNbr {
		n += len(pkts)
	}

	return n
}

// NumDropped returns how many packets were dropped because of a full queue
// or a flush.
func (q *Queue) NumDropped() uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.numDropped
}
