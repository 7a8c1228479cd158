package eventbase

import (
	"sync"
	"time"

	"github.com/anlsys/libnrm-sub000/internal/metrics"
	"github.com/anlsys/libnrm-sub000/internal/types"
)

// Series holds the two ring buffers tracked for one (sensor, scope)
// pair.
type Series struct {
	Current *RingBuffer
	Past    *RingBuffer
}

func newSeries(currentCap, pastCap int) *Series {
	return &Series{
		Current: NewRingBuffer(currentCap),
		Past:    NewRingBuffer(pastCap),
	}
}

// Base is the rolling aggregation engine: one Series per (sensor
// UUID, scope UUID) pair, guarded by a single mutex following the
// registry's own locking convention (internal/state.Tables).
type Base struct {
	mu         sync.Mutex
	series     map[string]map[string]*Series
	currentCap int
	pastCap    int
}

// New allocates an empty Base with the given ring capacities.
func New(currentCap, pastCap int) *Base {
	if currentCap < 1 {
		currentCap = DefaultCurrentCapacity
	}
	if pastCap < 1 {
		pastCap = DefaultPastCapacity
	}
	return &Base{
		series:     make(map[string]map[string]*Series),
		currentCap: currentCap,
		pastCap:    pastCap,
	}
}

// PushEvent appends a raw event to the (sensorUUID, scopeUUID)
// series, creating it on first use. If the current ring is already
// full, it is first collapsed into a single summed event (timestamped
// with the last event's time) before the new one is appended.
func (b *Base) PushEvent(sensorUUID, scopeUUID string, e types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.seriesFor(sensorUUID, scopeUUID)
	if s.Current.IsFull() {
		agg := s.Current.Collapse()
		s.Current.PushBack(agg)
		metrics.EventbaseCollapsesTotal.WithLabelValues(sensorUUID).Inc()
	}
	s.Current.PushBack(e)
	b.observe(sensorUUID, scopeUUID, s)
}

// seriesFor returns the Series for (sensorUUID, scopeUUID), allocating
// it if absent. Callers must hold b.mu.
func (b *Base) seriesFor(sensorUUID, scopeUUID string) *Series {
	byScope, ok := b.series[sensorUUID]
	if !ok {
		byScope = make(map[string]*Series)
		b.series[sensorUUID] = byScope
	}
	s, ok := byScope[scopeUUID]
	if !ok {
		s = newSeries(b.currentCap, b.pastCap)
		byScope[scopeUUID] = s
	}
	return s
}

// Tick closes the current period for every tracked series: the
// current ring is summed into a single event timestamped now and
// pushed onto past, then current is cleared.
func (b *Base) Tick(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	metrics.EventbaseTicksTotal.Inc()

	for sensorUUID, byScope := range b.series {
		for scopeUUID, s := range byScope {
			period := types.Event{Time: now}
			for _, e := range s.Current.Values() {
				period.Value += e.Value
			}
			s.Current.Clear()
			s.Past.PushBack(period)
			b.observe(sensorUUID, scopeUUID, s)
		}
	}
}

// LastValue returns the aggregate of every event accumulated in the
// current (not yet ticked) window for (sensorUUID, scopeUUID) — the
// sum of any collapsed aggregate plus every raw event pushed since.
func (b *Base) LastValue(sensorUUID, scopeUUID string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	byScope, ok := b.series[sensorUUID]
	if !ok {
		return 0, false
	}
	s, ok := byScope[scopeUUID]
	if !ok || s.Current.IsEmpty() {
		return 0, false
	}
	var sum float64
	for _, e := range s.Current.Values() {
		sum += e.Value
	}
	return sum, true
}

// RemoveSensor discards every series tracked for sensorUUID.
func (b *Base) RemoveSensor(sensorUUID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.series, sensorUUID)
}

// Snapshot returns a defensive copy of every tracked series' current
// and past contents, keyed by sensor UUID then scope UUID, for use in
// an EVENTS broadcast.
func (b *Base) Snapshot() map[string]map[string]Series {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]map[string]Series, len(b.series))
	for sensorUUID, byScope := range b.series {
		inner := make(map[string]Series, len(byScope))
		for scopeUUID, s := range byScope {
			inner[scopeUUID] = Series{
				Current: &RingBuffer{buf: append([]types.Event(nil), s.Current.Values()...), count: s.Current.Len()},
				Past:    &RingBuffer{buf: append([]types.Event(nil), s.Past.Values()...), count: s.Past.Len()},
			}
		}
		out[sensorUUID] = inner
	}
	return out
}

func (b *Base) observe(sensorUUID, scopeUUID string, s *Series) {
	metrics.EventbaseCurrentLength.WithLabelValues(sensorUUID, scopeUUID).Set(float64(s.Current.Len()))
	metrics.EventbasePastLength.WithLabelValues(sensorUUID, scopeUUID).Set(float64(s.Past.Len()))
}
