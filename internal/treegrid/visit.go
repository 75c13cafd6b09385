package treegrid

import (
	"fmt"

	"voxelgrid/internal/grid"
)

// VisitBlocks reports every present leaf once with its own cube. The merge
// invariant makes those cubes as large as the tree allows.
func (g *Grid[T]) VisitBlocks(fn grid.BlockVisitor[T]) {
	g.walk(g.root, g.origin, g.level, fn)
}

func (g *Grid[T]) walk(id int32, origin grid.Coord, level int, fn grid.BlockVisitor[T]) bool {
	n := g.nodes[id]
	if n.leaf {
		if !n.present {
			return true
		}
		return fn(cube(origin, level), n.value)
	}
	for i, c := range n.children {
		if !g.walk(c, childOrigin(origin, level, i), level-1, fn) {
			return false
		}
	}
	return true
}

// Validate checks the merge invariant, arena bookkeeping and the occupancy
// counter. A saturated counter is not compared.
func (g *Grid[T]) Validate() error {
	seen := make(map[int32]bool, g.live)
	present, err := g.check(g.root, g.level, seen)
	if err != nil {
		return err
	}
	if !g.saturated && present != g.count {
		return fmt.Errorf("treegrid: counter %d, recount %d: %w", g.count, present, grid.ErrInvariantViolation)
	}
	if len(seen) != g.live {
		return fmt.Errorf("treegrid: %d reachable nodes, %d live: %w", len(seen), g.live, grid.ErrInvariantViolation)
	}
	if len(seen)+len(g.free) != len(g.nodes) {
		return fmt.Errorf("treegrid: %d reachable + %d free != %d allocated: %w",
			len(seen), len(g.free), len(g.nodes), grid.ErrInvariantViolation)
	}
	for _, id := range g.free {
		if seen[id] {
			return fmt.Errorf("treegrid: node %d is both free and reachable: %w", id, grid.ErrInvariantViolation)
		}
	}
	return nil
}

func (g *Grid[T]) check(id int32, level int, seen map[int32]bool) (int, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return 0, fmt.Errorf("treegrid: node index %d out of range: %w", id, grid.ErrInvariantViolation)
	}
	if seen[id] {
		return 0, fmt.Errorf("treegrid: node %d reachable twice: %w", id, grid.ErrInvariantViolation)
	}
	seen[id] = true
	n := g.nodes[id]
	if n.leaf {
		if !n.present {
			return 0, nil
		}
		return volume(level), nil
	}
	if level == 0 {
		return 0, fmt.Errorf("treegrid: internal node %d at cell level: %w", id, grid.ErrInvariantViolation)
	}
	mergeable := true
	first := g.nodes[n.children[0]]
	total := 0
	for _, c := range n.children {
		sub, err := g.check(c, level-1, seen)
		if err != nil {
			return 0, err
		}
		total = addSat(total, sub)
		if !first.sameLeaf(g.nodes[c]) {
			mergeable = false
		}
	}
	if mergeable {
		return 0, fmt.Errorf("treegrid: node %d has eight equal leaf children: %w", id, grid.ErrInvariantViolation)
	}
	return total, nil
}
