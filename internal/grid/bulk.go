package grid

// Block is a visited block captured for later use.
type Block[T any] struct {
	Bounds Bounds
	Value  T
}

// Blocks collects every block reported by g.
func Blocks[T comparable](g Grid[T]) []Block[T] {
	var out []Block[T]
	g.VisitBlocks(func(b Bounds, v T) bool {
		out = append(out, Block[T]{Bounds: b, Value: v})
		return true
	})
	return out
}

// VisitPoints expands every block of g into per-cell calls, z outermost and x
// innermost. Cost is proportional to the occupied volume.
func VisitPoints[T comparable](g Grid[T], fn PointVisitor[T]) {
	g.VisitBlocks(func(b Bounds, v T) bool {
		return visitCells(b, v, fn)
	})
}

func visitCells[T any](b Bounds, v T, fn PointVisitor[T]) bool {
	for z := b.Min.Z; z <= b.Max.Z; z++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for x := b.Min.X; x <= b.Max.X; x++ {
				if !fn(Coord{X: x, Y: y, Z: z}, v) {
					return false
				}
			}
		}
	}
	return true
}

// VisitBlocksWithin reports the blocks of g clipped to area. Blocks that do
// not overlap area are skipped.
func VisitBlocksWithin[T comparable](g Grid[T], area Bounds, fn BlockVisitor[T]) {
	if area.Empty() {
		return
	}
	g.VisitBlocks(func(b Bounds, v T) bool {
		clipped, ok := b.Intersect(area)
		if !ok {
			return true
		}
		return fn(clipped, v)
	})
}

// VisitPointsWithin reports every present cell of g inside area.
func VisitPointsWithin[T comparable](g Grid[T], area Bounds, fn PointVisitor[T]) {
	VisitBlocksWithin(g, area, func(b Bounds, v T) bool {
		return visitCells(b, v, fn)
	})
}

// CountWithin returns the number of present cells of g inside area.
func CountWithin[T comparable](g Grid[T], area Bounds) int {
	total := 0
	VisitBlocksWithin(g, area, func(b Bounds, _ T) bool {
		total += b.Volume()
		return true
	})
	return total
}

// ChangeAll rewrites every present cell of g to v. It works block by block,
// never cell by cell.
func ChangeAll[T comparable](g Grid[T], v T) {
	for _, blk := range Blocks(g) {
		g.SetBlock(blk.Bounds, v)
	}
}

// Paste copies every present cell of src into dst, overwriting. src is only
// read.
func Paste[T comparable](dst, src Grid[T]) {
	PasteOffset(dst, src, 0, 0, 0)
}

// PasteOffset copies every present cell of src into dst shifted by
// (dx, dy, dz). A dst implementing Reserver is grown once to the shifted
// extent of src before any block is written.
func PasteOffset[T comparable](dst, src Grid[T], dx, dy, dz int) {
	same := sameGrid(dst, src)
	if same && dx == 0 && dy == 0 && dz == 0 {
		return
	}
	r, reserves := dst.(Reserver)
	if !same && !reserves {
		src.VisitBlocks(func(b Bounds, v T) bool {
			dst.SetBlock(b.Translate(dx, dy, dz), v)
			return true
		})
		return
	}
	// Writing while walking the same structure would observe our own
	// writes, so the blocks are collected first.
	blocks := Blocks(src)
	if reserves {
		extent := Box(0, 0, 0, -1, -1, -1)
		for _, blk := range blocks {
			extent = extent.Union(blk.Bounds)
		}
		r.Reserve(extent.Translate(dx, dy, dz))
	}
	for _, blk := range blocks {
		dst.SetBlock(blk.Bounds.Translate(dx, dy, dz), blk.Value)
	}
}

// Replace makes dst an exact copy of src.
func Replace[T comparable](dst, src Grid[T]) {
	if sameGrid(dst, src) {
		return
	}
	dst.Clear()
	Paste(dst, src)
}

// CountNodes reports the structural node count of g, 1 for flat backends.
func CountNodes[T comparable](g Grid[T]) int {
	if nc, ok := g.(NodeCounter); ok {
		return nc.CountNodes()
	}
	return 1
}

// SetBlockByPoints fills b one cell at a time. Backends without a bulk path
// can delegate to it; tests use it as a reference.
func SetBlockByPoints[T comparable](g Grid[T], b Bounds, v T) {
	for z := b.Min.Z; z <= b.Max.Z; z++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for x := b.Min.X; x <= b.Max.X; x++ {
				g.Set(x, y, z, v)
			}
		}
	}
}

func sameGrid[T comparable](a, b Grid[T]) bool {
	defer func() {
		// Non-comparable dynamic types cannot be the same instance.
		_ = recover()
	}()
	return any(a) == any(b)
}
