package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karteekpv77/loggateway/internal/models"
	"github.com/karteekpv77/loggateway/internal/queue"
)

func TestTryEnqueue_RejectsOnceFull(t *testing.T) {
	q := queue.New(2)

	assert.True(t, q.TryEnqueue(models.Packet{ID: "p1"}))
	assert.True(t, q.TryEnqueue(models.Packet{ID: "p2"}))
	assert.Equal(t, 2, q.Len())

	// The very next enqueue must be rejected and must not grow queueSize.
	assert.False(t, q.TryEnqueue(models.Packet{ID: "p3"}))
	assert.Equal(t, 2, q.Len())
}

func TestDrainBatch_FIFOOrderAndBounds(t *testing.T) {
	q := queue.New(5)
	for _, id := range []string{"p1", "p2", "p3"} {
		assert.True(t, q.TryEnqueue(models.Packet{ID: id}))
	}

	batch := q.DrainBatch(2)
	assert.Equal(t, []string{"p1", "p2"}, []string{batch[0].ID, batch[1].ID})
	assert.Equal(t, 1, q.Len())

	rest := q.DrainBatch(10)
	assert.Equal(t, []string{"p3"}, []string{rest[0].ID})
	assert.Equal(t, 0, q.Len())
}

func TestDrainBatch_EmptyQueueNeverBlocks(t *testing.T) {
	q := queue.New(3)
	assert.Empty(t, q.DrainBatch(10))
}

func TestQueue_WrapsAroundRingBuffer(t *testing.T) {
	q := queue.New(3)
	q.TryEnqueue(models.Packet{ID: "p1"})
	q.TryEnqueue(models.Packet{ID: "p2"})
	q.DrainBatch(1) // head advances past slot 0

	q.TryEnqueue(models.Packet{ID: "p3"})
	q.TryEnqueue(models.Packet{ID: "p4"}) // wraps to slot 0

	batch := q.DrainBatch(10)
	ids := []string{batch[0].ID, batch[1].ID, batch[2].ID}
	assert.Equal(t, []string{"p2", "p3", "p4"}, ids)
}
