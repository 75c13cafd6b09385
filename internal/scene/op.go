// Package scene replays scripted edits against a grid.
package scene

import (
	"errors"
	"fmt"

	"voxelgrid/internal/config"
	"voxelgrid/internal/grid"
)

type Kind string

const (
	Set         Kind = "set"
	Remove      Kind = "remove"
	SetBlock    Kind = "setBlock"
	RemoveBlock Kind = "removeBlock"
	Clear       Kind = "clear"
	Paste       Kind = "paste"
	ChangeAll   Kind = "changeAll"
)

var (
	ErrInvalidOp    = errors.New("scene: invalid op")
	ErrUnknownStamp = errors.New("scene: unknown stamp")
)

// Op is one edit. Point kinds use Bounds.Min; Paste copies the named stamp
// shifted by Offset.
type Op struct {
	Kind   Kind
	Bounds grid.Bounds
	Value  int
	Offset grid.Coord
	Stamp  string
}

func (op Op) String() string {
	switch op.Kind {
	case Set, Remove:
		return fmt.Sprintf("%s %v", op.Kind, op.Bounds.Min)
	case SetBlock, RemoveBlock:
		return fmt.Sprintf("%s %v", op.Kind, op.Bounds)
	case Paste:
		return fmt.Sprintf("%s %q at %v", op.Kind, op.Stamp, op.Offset)
	}
	return string(op.Kind)
}

// FromConfig converts a configured op. A missing To makes a single-cell op.
func FromConfig(c config.Op) Op {
	from := grid.Coord{X: c.From.X, Y: c.From.Y, Z: c.From.Z}
	to := from
	if c.To != nil {
		to = grid.Coord{X: c.To.X, Y: c.To.Y, Z: c.To.Z}
	}
	return Op{
		Kind:   Kind(c.Kind),
		Bounds: grid.Bounds{Min: from, Max: to},
		Value:  c.Value,
		Offset: grid.Coord{X: c.Offset.X, Y: c.Offset.Y, Z: c.Offset.Z},
		Stamp:  c.Stamp,
	}
}

// QueueFrom converts and enqueues ops in order.
func QueueFrom(ops []config.Op) *Queue {
	q := NewQueue()
	for _, c := range ops {
		q.Enqueue(FromConfig(c))
	}
	return q
}
