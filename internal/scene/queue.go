package scene

// Queue is a FIFO of pending ops. It is not safe for concurrent use; grids
// are single-threaded and so is their replay.
type Queue struct {
	pending []Op
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(ops ...Op) {
	q.pending = append(q.pending, ops...)
}

// Drain removes and returns up to max ops; max <= 0 drains everything.
func (q *Queue) Drain(max int) []Op {
	if len(q.pending) == 0 {
		return nil
	}
	if max <= 0 || max >= len(q.pending) {
		batch := q.pending
		q.pending = nil
		return batch
	}
	batch := append([]Op(nil), q.pending[:max]...)
	q.pending = append([]Op(nil), q.pending[max:]...)
	return batch
}

func (q *Queue) Len() int {
	return len(q.pending)
}
