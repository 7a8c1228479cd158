package eventbase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/eventbase"
	"github.com/anlsys/libnrm-sub000/internal/types"
)

func TestRingBufferPushBackOverwritesOldest(t *testing.T) {
	r := eventbase.NewRingBuffer(3)
	r.PushBack(types.Event{Value: 1})
	r.PushBack(types.Event{Value: 2})
	r.PushBack(types.Event{Value: 3})
	require.True(t, r.IsFull())

	r.PushBack(types.Event{Value: 4})
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []float64{2, 3, 4}, valuesOf(r))
}

func TestRingBufferCollapse(t *testing.T) {
	r := eventbase.NewRingBuffer(3)
	t1 := time.Unix(100, 0)
	r.PushBack(types.Event{Value: 1, Time: time.Unix(10, 0)})
	r.PushBack(types.Event{Value: 2, Time: time.Unix(20, 0)})
	r.PushBack(types.Event{Value: 3, Time: t1})

	agg := r.Collapse()
	assert.Equal(t, 6.0, agg.Value)
	assert.True(t, agg.Time.Equal(t1))
	assert.True(t, r.IsEmpty())
}

func TestPushEventCollapsesOnOverflow(t *testing.T) {
	b := eventbase.New(5, 10)
	now := time.Unix(1000, 0)
	for i := 0; i < 7; i++ {
		b.PushEvent("sensor-1", "scope-1", types.Event{
			Value: float64(i + 1),
			Time:  now.Add(time.Duration(i) * time.Second),
		})
	}
	// 1..5 collapse to sum 15, then 6 and 7 push in: current = [15, 6, 7].
	// last_value sums the whole current window, so pushing 7 events into
	// a capacity-5 ring reports the sum of all 7: 1+2+3+4+5+6+7 = 28.
	last, ok := b.LastValue("sensor-1", "scope-1")
	require.True(t, ok)
	assert.Equal(t, 28.0, last)
}

func TestTickClosesPeriodAndClearsCurrent(t *testing.T) {
	b := eventbase.New(5, 10)
	now := time.Unix(2000, 0)
	for i := 1; i <= 3; i++ {
		b.PushEvent("sensor-1", "scope-1", types.Event{Value: float64(i), Time: now})
	}

	b.Tick(now.Add(time.Minute))

	_, ok := b.LastValue("sensor-1", "scope-1")
	assert.False(t, ok, "current is empty after tick")

	snap := b.Snapshot()
	past := snap["sensor-1"]["scope-1"].Past
	require.Equal(t, 1, past.Len())
	assert.Equal(t, 6.0, past.Last().Value)
}

func TestRemoveSensorDiscardsSeries(t *testing.T) {
	b := eventbase.New(5, 10)
	b.PushEvent("sensor-1", "scope-1", types.Event{Value: 1})
	b.RemoveSensor("sensor-1")

	_, ok := b.LastValue("sensor-1", "scope-1")
	assert.False(t, ok)
}

func valuesOf(r *eventbase.RingBuffer) []float64 {
	vals := r.Values()
	out := make([]float64, len(vals))
	for i, e := range vals {
		out[i] = e.Value
	}
	return out
}
