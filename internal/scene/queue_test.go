package scene

import (
	"testing"

	"voxelgrid/internal/grid"
)

func pointOp(x int) Op {
	return Op{Kind: Set, Bounds: grid.Point(x, 0, 0), Value: x}
}

func TestQueueDrainReleasesStorage(t *testing.T) {
	q := NewQueue()

	for i := 0; i < 4; i++ {
		q.Enqueue(pointOp(i))
	}

	batch := q.Drain(0)
	if len(batch) != 4 {
		t.Fatalf("expected 4 ops in batch, got %d", len(batch))
	}
	if q.pending != nil {
		t.Fatalf("expected queue storage to be reset, got len=%d cap=%d", len(q.pending), cap(q.pending))
	}
	if batch[3].Value != 3 {
		t.Fatalf("expected drained batch to keep op order, got %+v", batch)
	}

	q.Enqueue(pointOp(10), pointOp(11), pointOp(12))

	batch = q.Drain(2)
	if len(batch) != 2 {
		t.Fatalf("expected 2 ops in partial batch, got %d", len(batch))
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 op to remain in queue, got %d", q.Len())
	}
	if q.pending[0].Value != 12 {
		t.Fatalf("expected remaining op to be the third, got %+v", q.pending[0])
	}
	if q.Drain(5)[0].Value != 12 || q.Drain(5) != nil {
		t.Fatalf("expected queue to empty")
	}
}
