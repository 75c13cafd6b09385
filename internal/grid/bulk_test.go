package grid

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapGrid is a minimal Grid that stores one map entry per cell and reports
// every cell as its own block.
type mapGrid struct {
	cells map[Coord]int
}

func newMapGrid() *mapGrid {
	return &mapGrid{cells: make(map[Coord]int)}
}

func (m *mapGrid) Get(x, y, z int) (int, bool) {
	v, ok := m.cells[Coord{X: x, Y: y, Z: z}]
	return v, ok
}

func (m *mapGrid) Set(x, y, z int, v int) { m.cells[Coord{X: x, Y: y, Z: z}] = v }
func (m *mapGrid) Remove(x, y, z int)     { delete(m.cells, Coord{X: x, Y: y, Z: z}) }

func (m *mapGrid) SetBlock(b Bounds, v int) { SetBlockByPoints[int](m, b, v) }

func (m *mapGrid) RemoveBlock(b Bounds) {
	for c := range m.cells {
		if b.Contains(c.X, c.Y, c.Z) {
			delete(m.cells, c)
		}
	}
}

func (m *mapGrid) Clear()     { m.cells = make(map[Coord]int) }
func (m *mapGrid) Count() int { return len(m.cells) }

func (m *mapGrid) VisitBlocks(fn BlockVisitor[int]) {
	keys := make([]Coord, 0, len(m.cells))
	for c := range m.cells {
		keys = append(keys, c)
	}
	slices.SortFunc(keys, func(a, b Coord) int {
		if a.Z != b.Z {
			return a.Z - b.Z
		}
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	for _, c := range keys {
		if !fn(Bounds{Min: c, Max: c}, m.cells[c]) {
			return
		}
	}
}

func (m *mapGrid) Validate() error { return nil }

func TestBoundsGeometry(t *testing.T) {
	b := Box(-5, -5, -5, 4, 4, 4)
	assert.Equal(t, 1000, b.Volume())
	assert.False(t, b.Empty())
	assert.True(t, b.Contains(-5, 4, 0))
	assert.False(t, b.Contains(5, 0, 0))

	reversed := Box(3, 0, 0, 1, 5, 5)
	assert.True(t, reversed.Empty())
	assert.Equal(t, 0, reversed.Volume())

	clipped, ok := b.Intersect(Box(0, 0, 0, 10, 10, 10))
	require.True(t, ok)
	assert.Equal(t, Box(0, 0, 0, 4, 4, 4), clipped)

	_, ok = b.Intersect(Box(5, 5, 5, 6, 6, 6))
	assert.False(t, ok)

	assert.Equal(t, Box(-5, -5, -5, 10, 4, 4), b.Union(Point(10, 0, 0)))
	assert.Equal(t, b, b.Union(reversed))
	assert.Equal(t, Box(-3, -4, -2, 6, 5, 6), b.Translate(2, 1, 3))
	assert.True(t, b.ContainsBounds(Box(-1, -1, -1, 1, 1, 1)))
	assert.False(t, b.ContainsBounds(Box(-1, -1, -1, 5, 1, 1)))
}

func TestBoundsSaturateAtIntRange(t *testing.T) {
	full := Box(math.MinInt, math.MinInt, math.MinInt, math.MaxInt, math.MaxInt, math.MaxInt)
	assert.Equal(t, math.MaxInt, full.SizeX())
	assert.Equal(t, math.MaxInt, full.Volume())

	assert.Equal(t, math.MaxInt, Box(0, 0, 0, math.MaxInt-1, 0, 0).SizeX())
	assert.Equal(t, math.MaxInt-1, Box(1, 0, 0, math.MaxInt-1, 0, 0).SizeX())
	assert.Equal(t, 1<<40, Box(-1<<19, 0, 0, 1<<19-1, 1<<20-1, 0).Volume())

	wide := Box(0, 0, 0, 1<<24-1, 1<<24-1, 1<<23-1)
	assert.Equal(t, math.MaxInt, wide.Volume(), "2^71 cells")
	assert.Equal(t, 1<<62, Box(0, 0, 0, 1<<21-1, 1<<21-1, 1<<20-1).Volume())
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		value, size, want int
	}{
		{0, 4, 0},
		{3, 4, 0},
		{4, 4, 1},
		{-1, 4, -1},
		{-4, 4, -1},
		{-5, 4, -2},
		{-1, 2, -1},
		{7, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.value, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, FloorDiv(tt.value, tt.size))
		})
	}
}

func TestVisitPointsExpandsBlocks(t *testing.T) {
	g := newMapGrid()
	g.SetBlock(Box(0, 0, 0, 1, 1, 1), 3)

	var seen []Coord
	VisitPoints[int](g, func(c Coord, v int) bool {
		assert.Equal(t, 3, v)
		seen = append(seen, c)
		return true
	})
	assert.Len(t, seen, 8)

	calls := 0
	VisitPoints[int](g, func(Coord, int) bool {
		calls++
		return calls < 3
	})
	assert.Equal(t, 3, calls, "visitor should stop when it returns false")
}

func TestVisitWithinClipsEveryAxis(t *testing.T) {
	g := newMapGrid()
	g.SetBlock(Box(0, 0, 0, 3, 3, 3), 1)

	area := Box(1, 2, 3, 2, 3, 9)
	assert.Equal(t, 2*2*1, CountWithin[int](g, area))

	var pts []Coord
	VisitPointsWithin[int](g, area, func(c Coord, _ int) bool {
		pts = append(pts, c)
		return true
	})
	want := []Coord{{1, 2, 3}, {2, 2, 3}, {1, 3, 3}, {2, 3, 3}}
	if diff := cmp.Diff(want, pts); diff != "" {
		t.Fatalf("clipped points mismatch (-want +got):\n%s", diff)
	}

	assert.Zero(t, CountWithin[int](g, Box(2, 0, 0, 1, 3, 3)), "reversed area is empty")
}

func TestChangeAllKeepsFootprint(t *testing.T) {
	g := newMapGrid()
	g.SetBlock(Box(0, 0, 0, 2, 0, 0), 1)
	g.Set(5, 5, 5, 2)

	ChangeAll[int](g, 9)

	assert.Equal(t, 4, g.Count())
	for c, v := range g.cells {
		assert.Equal(t, 9, v, "cell %v", c)
	}
	_, ok := g.Get(3, 0, 0)
	assert.False(t, ok)
}

func TestPasteOffsetAndReplace(t *testing.T) {
	src := newMapGrid()
	src.SetBlock(Box(0, 0, 0, 1, 1, 1), 7)

	dst := newMapGrid()
	dst.Set(100, 100, 100, 1)
	PasteOffset[int](dst, src, 10, -3, 2)

	assert.Equal(t, 9, dst.Count())
	v, ok := dst.Get(11, -2, 3)
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 8, src.Count(), "source must not change")

	Replace[int](dst, src)
	assert.Equal(t, 8, dst.Count())
	_, ok = dst.Get(100, 100, 100)
	assert.False(t, ok)

	Replace[int](dst, dst)
	assert.Equal(t, 8, dst.Count())
}

// reservingGrid records Reserve calls and rejects block writes outside the
// last reserved region.
type reservingGrid struct {
	*mapGrid
	t        *testing.T
	reserved []Bounds
}

func (r *reservingGrid) Reserve(b Bounds) { r.reserved = append(r.reserved, b) }

func (r *reservingGrid) SetBlock(b Bounds, v int) {
	require.NotEmpty(r.t, r.reserved, "block %v written before Reserve", b)
	last := r.reserved[len(r.reserved)-1]
	require.True(r.t, last.ContainsBounds(b), "block %v outside reserved %v", b, last)
	r.mapGrid.SetBlock(b, v)
}

func TestPasteOffsetReservesOnce(t *testing.T) {
	src := newMapGrid()
	src.Set(0, 0, 0, 1)
	src.Set(9, -4, 2, 2)
	src.Set(-3, 7, 5, 3)

	dst := &reservingGrid{mapGrid: newMapGrid(), t: t}
	PasteOffset[int](dst, src, 1, 1, 1)

	require.Len(t, dst.reserved, 1)
	assert.Equal(t, Box(-2, -3, 1, 10, 8, 6), dst.reserved[0])
	assert.Equal(t, 3, dst.Count())
	v, ok := dst.Get(10, -3, 3)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestPasteIntoSelf(t *testing.T) {
	g := newMapGrid()
	g.SetBlock(Box(0, 0, 0, 1, 0, 0), 1)

	PasteOffset[int](g, g, 1, 0, 0)

	assert.Equal(t, 3, g.Count())
	for x := 0; x <= 2; x++ {
		_, ok := g.Get(x, 0, 0)
		assert.True(t, ok, "x=%d", x)
	}
}

func TestCountNodesDefault(t *testing.T) {
	assert.Equal(t, 1, CountNodes[int](newMapGrid()))
}
