// Package gridtest holds the behaviour every grid backend must share. Each
// backend's tests call Run with a constructor and a value palette;
// cross-backend checks use Equivalent.
package gridtest

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelgrid/internal/arraygrid"
	"voxelgrid/internal/grid"
)

// Factory returns a fresh, empty grid.
type Factory[T comparable] func() grid.Grid[T]

// Palette maps a small index to a present value. Backends with a single
// present value return it for every index.
type Palette[T comparable] func(i int) T

// Ints is the palette for int grids: every index is its own value.
func Ints(i int) int { return i }

// Bools is the palette for bool grids, where true is the only present value.
func Bools(int) bool { return true }

type suite[T comparable] struct {
	newGrid Factory[T]
	value   Palette[T]
}

// Run exercises the full contract against grids built by newGrid, writing
// values drawn from value.
func Run[T comparable](t *testing.T, newGrid Factory[T], value Palette[T]) {
	t.Helper()
	s := suite[T]{newGrid: newGrid, value: value}

	t.Run("empty", func(t *testing.T) { s.testEmpty(t, newGrid()) })
	t.Run("set", func(t *testing.T) { s.testSet(t, newGrid()) })
	t.Run("set block", func(t *testing.T) { s.testSetBlock(t, newGrid()) })
	t.Run("reversed range is a no-op", func(t *testing.T) { s.testReversedRange(t, newGrid()) })
	t.Run("visit blocks volume", func(t *testing.T) { s.testVisitBlocks(t, newGrid()) })
	t.Run("paste", func(t *testing.T) { s.testPaste(t, newGrid()) })
	t.Run("paste offset round trip", func(t *testing.T) { s.testPasteRoundTrip(t) })
	t.Run("block writes match point writes", func(t *testing.T) { s.testBlockMatchesPoints(t) })
	t.Run("idempotent writes", func(t *testing.T) { s.testIdempotent(t, newGrid()) })
	t.Run("change all", func(t *testing.T) { s.testChangeAll(t, newGrid()) })
	t.Run("clear", func(t *testing.T) { s.testClear(t, newGrid()) })
	t.Run("random edits", func(t *testing.T) { s.testRandomEdits(t, newGrid()) })
}

// AssertAbsent fails if (x, y, z) holds a value.
func AssertAbsent(t *testing.T, g grid.Grid[int], x, y, z int) {
	t.Helper()
	absent(t, g, x, y, z)
}

// AssertValue fails unless (x, y, z) holds want.
func AssertValue(t *testing.T, g grid.Grid[int], x, y, z, want int) {
	t.Helper()
	holds(t, g, x, y, z, want)
}

func absent[T comparable](t *testing.T, g grid.Grid[T], x, y, z int) {
	t.Helper()
	v, ok := g.Get(x, y, z)
	assert.False(t, ok, "expected (%d,%d,%d) absent, got %v", x, y, z, v)
}

func holds[T comparable](t *testing.T, g grid.Grid[T], x, y, z int, want T) {
	t.Helper()
	v, ok := g.Get(x, y, z)
	if assert.True(t, ok, "expected (%d,%d,%d) present", x, y, z) {
		assert.Equal(t, want, v, "value at (%d,%d,%d)", x, y, z)
	}
}

// AssertConsistent checks Validate and that visited block volumes, disjoint
// and present, add up to Count.
func AssertConsistent[T comparable](t *testing.T, g grid.Grid[T]) {
	t.Helper()
	require.NoError(t, g.Validate())

	blocks := grid.Blocks(g)
	total := 0
	for i, blk := range blocks {
		require.False(t, blk.Bounds.Empty(), "block %d is empty", i)
		total += blk.Bounds.Volume()
		for j := i + 1; j < len(blocks); j++ {
			_, overlap := blk.Bounds.Intersect(blocks[j].Bounds)
			require.False(t, overlap, "blocks %v and %v overlap", blk.Bounds, blocks[j].Bounds)
		}
		for _, c := range []grid.Coord{blk.Bounds.Min, blk.Bounds.Max} {
			v, ok := g.Get(c.X, c.Y, c.Z)
			require.True(t, ok, "block corner %v absent", c)
			require.Equal(t, blk.Value, v, "block corner %v", c)
		}
	}
	assert.Equal(t, g.Count(), total, "visited volume must equal count")
}

func (s suite[T]) testEmpty(t *testing.T, g grid.Grid[T]) {
	assert.Zero(t, g.Count())
	absent(t, g, 0, 0, 0)
	absent(t, g, -10, -10, -10)
	assert.Empty(t, grid.Blocks(g))
	AssertConsistent(t, g)
}

func (s suite[T]) testSet(t *testing.T, g grid.Grid[T]) {
	g.Set(10, 10, 10, s.value(1))
	assert.Equal(t, 1, g.Count())
	g.Set(-1, -1, -1, s.value(1))
	assert.Equal(t, 2, g.Count())

	holds(t, g, 10, 10, 10, s.value(1))
	holds(t, g, -1, -1, -1, s.value(1))
	AssertConsistent(t, g)

	g.Remove(10, 10, 10)
	absent(t, g, 10, 10, 10)
	assert.Equal(t, 1, g.Count())
	g.Remove(500, 500, 500)
	assert.Equal(t, 1, g.Count())

	g.Clear()
	absent(t, g, 0, 0, 0)
	absent(t, g, -1, -1, -1)
}

func (s suite[T]) testSetBlock(t *testing.T, g grid.Grid[T]) {
	g.SetBlock(grid.Box(0, 0, 0, 0, 0, 1), s.value(1))
	assert.Equal(t, 2, g.Count())

	g.SetBlock(grid.Box(0, 0, 0, 1, 1, 1), s.value(1))
	assert.Equal(t, 8, g.Count())

	g.SetBlock(grid.Box(0, 0, 0, 10, 10, 10), s.value(1))
	assert.Equal(t, 1331, g.Count())
	holds(t, g, 10, 10, 10, s.value(1))
	holds(t, g, 3, 7, 5, s.value(1))
	absent(t, g, -1, -1, -1)

	g.SetBlock(grid.Box(-5, -5, -5, 5, 5, 5), s.value(2))
	holds(t, g, 10, 10, 10, s.value(1))
	holds(t, g, 0, 0, 0, s.value(2))
	holds(t, g, -1, -1, -1, s.value(2))
	absent(t, g, -6, -6, -6)
	assert.Equal(t, 1331+1331-216, g.Count())

	g.RemoveBlock(grid.Box(-2, -2, -2, 2, 2, 2))
	holds(t, g, -3, -3, -3, s.value(2))
	absent(t, g, -1, -1, -1)
	holds(t, g, 3, 2, 2, s.value(2))
	assert.Equal(t, 1331+1331-216-125, g.Count())
	AssertConsistent(t, g)
}

func (s suite[T]) testReversedRange(t *testing.T, g grid.Grid[T]) {
	g.SetBlock(grid.Box(5, 0, 0, 0, 5, 5), s.value(1))
	assert.Zero(t, g.Count())

	g.SetBlock(grid.Box(0, 0, 0, 3, 3, 3), s.value(1))
	g.RemoveBlock(grid.Box(0, 3, 0, 3, 0, 3))
	assert.Equal(t, 64, g.Count())
	assert.Zero(t, grid.CountWithin(g, grid.Box(3, 3, 3, 0, 0, 0)))
	AssertConsistent(t, g)
}

func (s suite[T]) testVisitBlocks(t *testing.T, g grid.Grid[T]) {
	g.SetBlock(grid.Box(-5, -5, -5, 4, 4, 4), s.value(1))

	calls, size := 0, 0
	g.VisitBlocks(func(b grid.Bounds, v T) bool {
		calls++
		size += b.Volume()
		assert.Equal(t, s.value(1), v)
		return true
	})
	assert.Equal(t, 1000, size)
	assert.Positive(t, calls)

	stopped := 0
	g.VisitBlocks(func(grid.Bounds, T) bool {
		stopped++
		return false
	})
	assert.Equal(t, 1, stopped)
	AssertConsistent(t, g)
}

func (s suite[T]) testPaste(t *testing.T, g grid.Grid[T]) {
	ag := arraygrid.New[T]()
	ag.SetBlock(grid.Box(0, 0, 0, 5, 5, 5), s.value(1))
	require.Equal(t, 216, ag.DataLength())

	grid.Paste(g, grid.Grid[T](ag))
	grid.PasteOffset(g, grid.Grid[T](ag), -2, -2, -2)

	absent(t, g, -3, -3, 3)
	holds(t, g, -2, -2, -2, s.value(1))
	holds(t, g, 5, 5, 5, s.value(1))
	absent(t, g, 6, 6, 6)
	assert.Equal(t, 216+216-64, g.Count())
	AssertConsistent(t, g)

	ag.Clear()
	grid.Paste(grid.Grid[T](ag), g)
	assert.Equal(t, 512, ag.DataLength())
	absent[T](t, ag, -3, -3, 3)
	holds[T](t, ag, -2, -2, -2, s.value(1))
	holds[T](t, ag, 5, 5, 5, s.value(1))
	absent[T](t, ag, 6, 6, 6)
	assert.Equal(t, 216+216-64, ag.Count())
}

func (s suite[T]) testPasteRoundTrip(t *testing.T) {
	a := s.newGrid()
	a.SetBlock(grid.Box(-3, 0, 2, 4, 1, 6), s.value(4))
	a.Set(9, -9, 0, s.value(7))
	a.RemoveBlock(grid.Box(0, 0, 3, 1, 1, 4))

	b := s.newGrid()
	grid.Paste(b, a)
	shifted := s.newGrid()
	grid.PasteOffset(shifted, a, 3, -2, 5)

	for z := -2; z <= 8; z++ {
		for y := -10; y <= 3; y++ {
			for x := -5; x <= 10; x++ {
				av, aok := a.Get(x, y, z)
				bv, bok := b.Get(x, y, z)
				sv, sok := shifted.Get(x+3, y-2, z+5)
				require.Equal(t, aok, bok, "presence at (%d,%d,%d)", x, y, z)
				require.Equal(t, av, bv, "value at (%d,%d,%d)", x, y, z)
				require.Equal(t, aok, sok, "shifted presence at (%d,%d,%d)", x, y, z)
				require.Equal(t, av, sv, "shifted value at (%d,%d,%d)", x, y, z)
			}
		}
	}
	assert.Equal(t, a.Count(), b.Count())
	assert.Equal(t, a.Count(), shifted.Count())

	grid.Replace(b, shifted)
	assert.Equal(t, shifted.Count(), b.Count())
	absent(t, b, 9, -9, 0)
	holds(t, b, 12, -11, 5, s.value(7))
}

func (s suite[T]) testBlockMatchesPoints(t *testing.T) {
	bulk, points := s.newGrid(), s.newGrid()
	boxes := []grid.Bounds{
		grid.Box(-3, -2, -1, 4, 5, 2),
		grid.Box(0, 0, 0, 7, 7, 7),
		grid.Box(2, -6, 1, 2, 6, 1),
	}
	for i, b := range boxes {
		bulk.SetBlock(b, s.value(i+1))
		grid.SetBlockByPoints(points, b, s.value(i+1))
	}
	Equivalent(t, bulk, points, grid.Box(-4, -7, -2, 8, 8, 8))
	AssertConsistent(t, bulk)
}

func (s suite[T]) testIdempotent(t *testing.T, g grid.Grid[T]) {
	g.SetBlock(grid.Box(1, 1, 1, 6, 2, 3), s.value(5))
	g.Set(0, 0, 0, s.value(3))
	before := grid.Blocks(g)
	count := g.Count()

	g.SetBlock(grid.Box(1, 1, 1, 6, 2, 3), s.value(5))
	g.Set(0, 0, 0, s.value(3))
	assert.Equal(t, count, g.Count())
	assert.Equal(t, before, grid.Blocks(g))
	AssertConsistent(t, g)
}

func (s suite[T]) testChangeAll(t *testing.T, g grid.Grid[T]) {
	g.SetBlock(grid.Box(0, 0, 0, 3, 3, 3), s.value(1))
	g.SetBlock(grid.Box(1, 1, 1, 2, 2, 2), s.value(2))
	g.Set(-7, 0, 0, s.value(3))

	grid.ChangeAll(g, s.value(9))

	assert.Equal(t, 65, g.Count())
	grid.VisitPoints(g, func(c grid.Coord, v T) bool {
		assert.Equal(t, s.value(9), v, "cell %v", c)
		return true
	})
	absent(t, g, -6, 0, 0)
	AssertConsistent(t, g)
}

func (s suite[T]) testClear(t *testing.T, g grid.Grid[T]) {
	g.SetBlock(grid.Box(-100, -3, 0, 100, 3, 7), s.value(1))
	g.Set(20, 20, 20, s.value(2))
	g.Clear()

	assert.Zero(t, g.Count())
	absent(t, g, 0, 0, 0)
	absent(t, g, 20, 20, 20)
	assert.Empty(t, grid.Blocks(g))
	AssertConsistent(t, g)
}

// testRandomEdits compares the grid against a plain map after a run of
// random writes.
func (s suite[T]) testRandomEdits(t *testing.T, g grid.Grid[T]) {
	rng := rand.New(rand.NewPCG(7, 11))
	want := make(map[grid.Coord]T)
	coord := func() int { return rng.IntN(24) - 12 }

	for range 300 {
		x, y, z := coord(), coord(), coord()
		switch rng.IntN(4) {
		case 0:
			v := s.value(rng.IntN(3))
			g.Set(x, y, z, v)
			want[grid.Coord{X: x, Y: y, Z: z}] = v
		case 1:
			g.Remove(x, y, z)
			delete(want, grid.Coord{X: x, Y: y, Z: z})
		case 2:
			b := grid.Box(x, y, z, x+rng.IntN(6), y+rng.IntN(6), z+rng.IntN(6))
			v := s.value(rng.IntN(3))
			g.SetBlock(b, v)
			forCells(b, func(c grid.Coord) { want[c] = v })
		default:
			b := grid.Box(x, y, z, x+rng.IntN(6), y+rng.IntN(6), z+rng.IntN(6))
			g.RemoveBlock(b)
			forCells(b, func(c grid.Coord) { delete(want, c) })
		}
	}

	require.Equal(t, len(want), g.Count())
	forCells(grid.Box(-13, -13, -13, 18, 18, 18), func(c grid.Coord) {
		v, ok := g.Get(c.X, c.Y, c.Z)
		wv, wok := want[c]
		require.Equal(t, wok, ok, "presence at %v", c)
		require.Equal(t, wv, v, "value at %v", c)
	})
	AssertConsistent(t, g)
}

func forCells(b grid.Bounds, fn func(grid.Coord)) {
	for z := b.Min.Z; z <= b.Max.Z; z++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for x := b.Min.X; x <= b.Max.X; x++ {
				fn(grid.Coord{X: x, Y: y, Z: z})
			}
		}
	}
}

// Equivalent requires a and b to agree on Count and on every cell of area.
func Equivalent[T comparable](t *testing.T, a, b grid.Grid[T], area grid.Bounds) {
	t.Helper()
	require.Equal(t, a.Count(), b.Count(), "counts differ")
	forCells(area, func(c grid.Coord) {
		av, aok := a.Get(c.X, c.Y, c.Z)
		bv, bok := b.Get(c.X, c.Y, c.Z)
		require.Equal(t, aok, bok, "presence at %v", c)
		require.Equal(t, av, bv, "value at %v", c)
	})
	assert.Equal(t, grid.CountWithin(a, area), grid.CountWithin(b, area))
}
