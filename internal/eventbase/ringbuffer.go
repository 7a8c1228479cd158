package eventbase

import "github.com/anlsys/libnrm-sub000/internal/types"

// DefaultCurrentCapacity is the default capacity of a series' current
// ring.
const DefaultCurrentCapacity = 5

// DefaultPastCapacity is the default capacity of a series' past ring.
const DefaultPastCapacity = 60

// RingBuffer is a fixed-capacity circular buffer of events. Pushing
// past capacity overwrites the oldest entry.
type RingBuffer struct {
	buf   []types.Event
	start int
	count int
}

// NewRingBuffer allocates a ring buffer of the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{buf: make([]types.Event, capacity)}
}

// Cap returns the ring's fixed capacity.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// Len returns the number of events currently stored.
func (r *RingBuffer) Len() int { return r.count }

// IsFull reports whether the ring is at capacity.
func (r *RingBuffer) IsFull() bool { return r.count == len(r.buf) }

// IsEmpty reports whether the ring holds no events.
func (r *RingBuffer) IsEmpty() bool { return r.count == 0 }

// PushBack appends an event, overwriting the oldest entry if the ring
// is already full.
func (r *RingBuffer) PushBack(e types.Event) {
	idx := (r.start + r.count) % len(r.buf)
	r.buf[idx] = e
	if r.count < len(r.buf) {
		r.count++
	} else {
		r.start = (r.start + 1) % len(r.buf)
	}
}

// Get returns the i'th event in insertion order, 0 being the oldest.
func (r *RingBuffer) Get(i int) types.Event {
	return r.buf[(r.start+i)%len(r.buf)]
}

// Clear empties the ring without changing its capacity.
func (r *RingBuffer) Clear() {
	r.start = 0
	r.count = 0
}

// Values returns every currently stored event, oldest first.
func (r *RingBuffer) Values() []types.Event {
	out := make([]types.Event, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.Get(i)
	}
	return out
}

// Last returns the most recently pushed event. Panics if the ring is
// empty; callers must check IsEmpty first.
func (r *RingBuffer) Last() types.Event {
	return r.Get(r.count - 1)
}

// Collapse sums every stored event into one, timestamped with the
// most recent event's time, and clears the ring. Callers are
// responsible for re-pushing the result if desired. Collapse on an
// empty ring returns the zero Event.
func (r *RingBuffer) Collapse() types.Event {
	if r.IsEmpty() {
		return types.Event{}
	}
	var sum float64
	for i := 0; i < r.count; i++ {
		sum += r.Get(i).Value
	}
	agg := types.Event{Time: r.Last().Time, Value: sum}
	r.Clear()
	return agg
}
