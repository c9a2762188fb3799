package breachqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klvinai/sentinelsuite/internal/model"
)

func TestPut_DropsWhenFull(t *testing.T) {
	q := NewQueue("red", 2, nil)
	q.Put(&model.Breach{DeviceID: "d1"})
	q.Put(&model.Breach{DeviceID: "d2"})
	q.Put(&model.Breach{DeviceID: "d3"}) // dropped, queue full

	assert.Equal(t, 2, q.Stats().Occupancy)
}

func TestDrain_ReturnsExactlyItemsBeforeSentinel(t *testing.T) {
	q := NewQueue("warning", 10, nil)
	q.Put(&model.Breach{DeviceID: "d1"})
	q.Put(&model.Breach{DeviceID: "d2"})

	batch := q.drain()
	require.Len(t, batch, 2)
	assert.Equal(t, "d1", batch[0].DeviceID)
	assert.Equal(t, "d2", batch[1].DeviceID)
}

func TestDrain_EmptyQueue_ReturnsEmptyBatch(t *testing.T) {
	q := NewQueue("warning", 10, nil)
	batch := q.drain()
	assert.Empty(t, batch)
}

func TestDrain_LateArrivalGoesToNextCycle(t *testing.T) {
	q := NewQueue("warning", 10, nil)
	q.Put(&model.Breach{DeviceID: "d1"})

	first := q.drain()
	require.Len(t, first, 1)

	// Enqueued after the first sentinel was consumed: belongs to next cycle.
	q.Put(&model.Breach{DeviceID: "d2"})
	second := q.drain()
	require.Len(t, second, 1)
	assert.Equal(t, "d2", second[0].DeviceID)
}

func TestHighWaterMark_TracksPeakOccupancy(t *testing.T) {
	q := NewQueue("red", 10, nil)
	q.Put(&model.Breach{DeviceID: "d1"})
	q.Put(&model.Breach{DeviceID: "d2"})
	q.drain()

	assert.EqualValues(t, 2, q.Stats().HighWaterMark)
	assert.Equal(t, 0, q.Stats().Occupancy)
}
