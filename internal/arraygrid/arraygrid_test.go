package arraygrid_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelgrid/internal/arraygrid"
	"voxelgrid/internal/grid"
	"voxelgrid/internal/gridtest"
)

func TestGridContract(t *testing.T) {
	t.Run("default growth", func(t *testing.T) {
		gridtest.Run(t, func() grid.Grid[int] { return arraygrid.New[int]() }, gridtest.Ints)
	})
	t.Run("exact growth", func(t *testing.T) {
		gridtest.Run(t, func() grid.Grid[int] { return arraygrid.New[int](arraygrid.WithExactGrowth()) }, gridtest.Ints)
	})
}

func TestBlockWritesGrowExactFit(t *testing.T) {
	g := arraygrid.New[int]()
	g.SetBlock(grid.Box(0, 0, 0, 10, 10, 10), 1)
	assert.Equal(t, 1331, g.Count())
	assert.Equal(t, 1331, g.DataLength())

	g.SetBlock(grid.Box(-5, -5, -5, 5, 5, 5), 2)
	assert.Equal(t, grid.Box(-5, -5, -5, 10, 10, 10), g.Bounds())
	assert.Equal(t, 16*16*16, g.DataLength())

	gridtest.AssertValue(t, g, 10, 10, 10, 1)
	gridtest.AssertValue(t, g, 0, 0, 0, 2)
	gridtest.AssertValue(t, g, -1, -1, -1, 2)
	gridtest.AssertAbsent(t, g, -6, -6, -6)
	require.NoError(t, g.Validate())
}

func TestOutOfWindowAccessDoesNotGrow(t *testing.T) {
	g := arraygrid.New[int]()
	g.SetBlock(grid.Box(0, 0, 0, 1, 1, 1), 1)

	gridtest.AssertAbsent(t, g, 50, 50, 50)
	g.Remove(-50, 0, 0)
	g.RemoveBlock(grid.Box(-10, -10, -10, 0, 0, 0))

	assert.Equal(t, 8, g.DataLength())
	assert.Equal(t, 7, g.Count())
}

func TestPointWritesGrowWithSlack(t *testing.T) {
	reallocations := func(g *arraygrid.Grid[int]) int {
		changes, last := 0, g.DataLength()
		for x := 0; x < 100; x++ {
			g.Set(x, 0, 0, x)
			if g.DataLength() != last {
				changes++
				last = g.DataLength()
			}
		}
		require.NoError(t, g.Validate())
		assert.Equal(t, 100, g.Count())
		return changes
	}

	assert.Equal(t, 100, reallocations(arraygrid.New[int](arraygrid.WithExactGrowth())))
	assert.Less(t, reallocations(arraygrid.New[int]()), 20)

	capped := arraygrid.New[int](arraygrid.WithMaxSlack(2))
	assert.Less(t, reallocations(capped), 60)
	assert.LessOrEqual(t, capped.DataLength(), 102)
}

func TestGrowthKeepsContents(t *testing.T) {
	g := arraygrid.New[int]()
	g.SetBlock(grid.Box(0, 0, 0, 2, 2, 2), 3)
	g.Set(1, 1, 1, 4)
	g.Set(-4, 7, 2, 5)
	g.Set(9, -3, -8, 6)

	gridtest.AssertValue(t, g, 0, 0, 0, 3)
	gridtest.AssertValue(t, g, 2, 2, 2, 3)
	gridtest.AssertValue(t, g, 1, 1, 1, 4)
	gridtest.AssertValue(t, g, -4, 7, 2, 5)
	gridtest.AssertValue(t, g, 9, -3, -8, 6)
	assert.Equal(t, 29, g.Count())
	gridtest.AssertConsistent[int](t, g)
}

func TestVisitBlocksIsMaximal(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *arraygrid.Grid[int])
		want  []grid.Block[int]
	}{
		{
			name: "single cube",
			build: func(g *arraygrid.Grid[int]) {
				g.SetBlock(grid.Box(0, 0, 0, 3, 3, 3), 1)
			},
			want: []grid.Block[int]{{Bounds: grid.Box(0, 0, 0, 3, 3, 3), Value: 1}},
		},
		{
			name: "two slabs",
			build: func(g *arraygrid.Grid[int]) {
				g.SetBlock(grid.Box(0, 0, 0, 3, 3, 1), 1)
				g.SetBlock(grid.Box(0, 0, 2, 3, 3, 3), 2)
			},
			want: []grid.Block[int]{
				{Bounds: grid.Box(0, 0, 0, 3, 3, 1), Value: 1},
				{Bounds: grid.Box(0, 0, 2, 3, 3, 3), Value: 2},
			},
		},
		{
			name: "hole is skipped",
			build: func(g *arraygrid.Grid[int]) {
				g.SetBlock(grid.Box(0, 0, 0, 2, 0, 0), 1)
				g.Remove(1, 0, 0)
			},
			want: []grid.Block[int]{
				{Bounds: grid.Point(0, 0, 0), Value: 1},
				{Bounds: grid.Point(2, 0, 0), Value: 1},
			},
		},
		{
			name: "offset window",
			build: func(g *arraygrid.Grid[int]) {
				g.SetBlock(grid.Box(-8, -8, -8, -7, -7, -8), 5)
			},
			want: []grid.Block[int]{{Bounds: grid.Box(-8, -8, -8, -7, -7, -8), Value: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := arraygrid.New[int]()
			tt.build(g)
			if diff := cmp.Diff(tt.want, grid.Blocks[int](g)); diff != "" {
				t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClearReleasesBuffer(t *testing.T) {
	g := arraygrid.New[int]()
	g.SetBlock(grid.Box(0, 0, 0, 5, 5, 5), 1)
	g.Clear()

	assert.Zero(t, g.DataLength())
	assert.True(t, g.Bounds().Empty())
	assert.Zero(t, g.Count())
	require.NoError(t, g.Validate())
}
