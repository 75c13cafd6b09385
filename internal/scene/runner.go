package scene

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"voxelgrid/internal/config"
	"voxelgrid/internal/grid"
)

// Stats summarises a grid after a replay.
type Stats struct {
	Ops    int
	Count  int
	Blocks int
	Nodes  int
}

// ValueMapper turns a scripted integer into a cell value; false means the
// op writes absence.
type ValueMapper[T comparable] func(v int) (T, bool)

// Identity maps integers to themselves.
func Identity(v int) (int, bool) { return v, true }

// Occupancy maps non-zero integers to true and zero to absent.
func Occupancy(v int) (bool, bool) { return v != 0, v != 0 }

type settings struct {
	name   string
	slowOp time.Duration
}

type Option func(*settings)

func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithSlowOpThreshold logs every op that takes longer than d. Zero disables.
func WithSlowOpThreshold(d time.Duration) Option {
	return func(s *settings) { s.slowOp = d }
}

// Runner applies ops to a target grid. Paste ops read from named stamps.
type Runner[T comparable] struct {
	target   grid.Grid[T]
	stamps   map[string]grid.Grid[T]
	mapValue ValueMapper[T]
	settings settings
	runID    uuid.UUID
	applied  int
}

func NewRunner[T comparable](target grid.Grid[T], mapValue ValueMapper[T], opts ...Option) *Runner[T] {
	s := settings{name: "scene"}
	for _, opt := range opts {
		opt(&s)
	}
	return &Runner[T]{
		target:   target,
		stamps:   make(map[string]grid.Grid[T]),
		mapValue: mapValue,
		settings: s,
		runID:    uuid.New(),
	}
}

// RunID identifies this runner in log lines.
func (r *Runner[T]) RunID() uuid.UUID {
	return r.runID
}

func (r *Runner[T]) Target() grid.Grid[T] {
	return r.target
}

// AddStamp registers g under name, replacing any previous stamp.
func (r *Runner[T]) AddStamp(name string, g grid.Grid[T]) {
	r.stamps[name] = g
}

// BuildStamps fills one fresh grid per configured stamp.
func (r *Runner[T]) BuildStamps(stamps []config.Stamp, newGrid func() (grid.Grid[T], error)) error {
	for _, s := range stamps {
		g, err := newGrid()
		if err != nil {
			return fmt.Errorf("stamp %q: %w", s.Name, err)
		}
		sub := &Runner[T]{target: g, stamps: r.stamps, mapValue: r.mapValue, runID: r.runID}
		for i, c := range s.Ops {
			if err := sub.Apply(FromConfig(c)); err != nil {
				return fmt.Errorf("stamp %q op %d: %w", s.Name, i, err)
			}
		}
		r.AddStamp(s.Name, g)
	}
	return nil
}

// Apply performs a single op on the target.
func (r *Runner[T]) Apply(op Op) error {
	g := r.target
	switch op.Kind {
	case Set:
		c := op.Bounds.Min
		if v, ok := r.mapValue(op.Value); ok {
			g.Set(c.X, c.Y, c.Z, v)
		} else {
			g.Remove(c.X, c.Y, c.Z)
		}
	case Remove:
		c := op.Bounds.Min
		g.Remove(c.X, c.Y, c.Z)
	case SetBlock:
		if v, ok := r.mapValue(op.Value); ok {
			g.SetBlock(op.Bounds, v)
		} else {
			g.RemoveBlock(op.Bounds)
		}
	case RemoveBlock:
		g.RemoveBlock(op.Bounds)
	case Clear:
		g.Clear()
	case Paste:
		src, ok := r.stamps[op.Stamp]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownStamp, op.Stamp)
		}
		grid.PasteOffset(g, src, op.Offset.X, op.Offset.Y, op.Offset.Z)
	case ChangeAll:
		if v, ok := r.mapValue(op.Value); ok {
			grid.ChangeAll(g, v)
		} else {
			g.Clear()
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidOp, op.Kind)
	}
	r.applied++
	return nil
}

// Run drains q in batches of batch ops (0 drains everything at once) and
// stops at the first failing op. Cancellation is checked between batches.
func (r *Runner[T]) Run(ctx context.Context, q *Queue, batch int) (Stats, error) {
	start := time.Now()
	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			log.Printf("scene %s run %s: stopped with %d ops pending", r.settings.name, r.runID, q.Len())
			return r.Stats(), fmt.Errorf("scene interrupted: %w", err)
		}
		for _, op := range q.Drain(batch) {
			began := time.Now()
			if err := r.Apply(op); err != nil {
				log.Printf("scene %s run %s: %v failed: %v", r.settings.name, r.runID, op, err)
				return r.Stats(), fmt.Errorf("apply %v: %w", op, err)
			}
			if took := time.Since(began); r.settings.slowOp > 0 && took > r.settings.slowOp {
				log.Printf("scene %s run %s: slow op %v took %s", r.settings.name, r.runID, op, took)
			}
		}
	}
	stats := r.Stats()
	log.Printf("scene %s run %s: %d ops in %s, %d cells in %d blocks, %d nodes",
		r.settings.name, r.runID, stats.Ops, time.Since(start).Round(time.Microsecond), stats.Count, stats.Blocks, stats.Nodes)
	return stats, nil
}

// Stats reports the ops applied so far and the target's current shape.
func (r *Runner[T]) Stats() Stats {
	blocks := 0
	r.target.VisitBlocks(func(grid.Bounds, T) bool {
		blocks++
		return true
	})
	return Stats{
		Ops:    r.applied,
		Count:  r.target.Count(),
		Blocks: blocks,
		Nodes:  grid.CountNodes(r.target),
	}
}
