package scene_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelgrid/internal/arraygrid"
	"voxelgrid/internal/backend"
	"voxelgrid/internal/bitgrid"
	"voxelgrid/internal/config"
	"voxelgrid/internal/grid"
	"voxelgrid/internal/gridtest"
	"voxelgrid/internal/scene"
	"voxelgrid/internal/treegrid"
)

func TestFromConfigDefaultsToSingleCell(t *testing.T) {
	op := scene.FromConfig(config.Op{Kind: "set", From: config.Point{X: 1, Y: 2, Z: 3}, Value: 4})
	assert.Equal(t, scene.Op{Kind: scene.Set, Bounds: grid.Point(1, 2, 3), Value: 4}, op)

	to := config.Point{X: 5, Y: 5, Z: 5}
	op = scene.FromConfig(config.Op{Kind: "paste", To: &to, Stamp: "s", Offset: config.Point{Z: -1}})
	assert.Equal(t, grid.Box(0, 0, 0, 5, 5, 5), op.Bounds)
	assert.Equal(t, grid.Coord{Z: -1}, op.Offset)
	assert.Equal(t, `paste "s" at (0,0,-1)`, op.String())
}

func TestRunnerAppliesEveryKind(t *testing.T) {
	target := treegrid.New[int]()
	r := scene.NewRunner[int](target, scene.Identity, scene.WithName("kinds"))
	assert.NotEqual(t, uuid.Nil, r.RunID())

	stamp := arraygrid.New[int]()
	stamp.SetBlock(grid.Box(0, 0, 0, 1, 1, 1), 5)
	r.AddStamp("cube", stamp)

	q := scene.NewQueue()
	q.Enqueue(
		scene.Op{Kind: scene.SetBlock, Bounds: grid.Box(0, 0, 0, 3, 3, 3), Value: 1},
		scene.Op{Kind: scene.RemoveBlock, Bounds: grid.Box(0, 0, 0, 0, 3, 3)},
		scene.Op{Kind: scene.Set, Bounds: grid.Point(9, 9, 9), Value: 2},
		scene.Op{Kind: scene.Remove, Bounds: grid.Point(3, 3, 3)},
		scene.Op{Kind: scene.Paste, Stamp: "cube", Offset: grid.Coord{X: -4}},
	)
	stats, err := r.Run(context.Background(), q, 2)
	require.NoError(t, err)
	assert.Zero(t, q.Len())

	gridtest.AssertValue(t, target, 1, 0, 0, 1)
	gridtest.AssertAbsent(t, target, 0, 0, 0)
	gridtest.AssertAbsent(t, target, 3, 3, 3)
	gridtest.AssertValue(t, target, 9, 9, 9, 2)
	gridtest.AssertValue(t, target, -3, 1, 1, 5)
	assert.Equal(t, 48-1+1+8, target.Count())

	want := scene.Stats{Ops: 5, Count: target.Count(), Blocks: len(grid.Blocks[int](target)), Nodes: target.CountNodes()}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, r.Apply(scene.Op{Kind: scene.ChangeAll, Value: 7}))
	assert.Equal(t, stats.Count, target.Count())
	gridtest.AssertValue(t, target, 9, 9, 9, 7)

	require.NoError(t, r.Apply(scene.Op{Kind: scene.Clear}))
	assert.Zero(t, target.Count())
}

func TestRunnerStopsAtInvalidOp(t *testing.T) {
	target := arraygrid.New[int]()
	r := scene.NewRunner[int](target, scene.Identity)

	q := scene.NewQueue()
	q.Enqueue(
		scene.Op{Kind: scene.Set, Bounds: grid.Point(0, 0, 0), Value: 1},
		scene.Op{Kind: "explode"},
		scene.Op{Kind: scene.Set, Bounds: grid.Point(1, 0, 0), Value: 1},
	)
	stats, err := r.Run(context.Background(), q, 0)
	assert.ErrorIs(t, err, scene.ErrInvalidOp)
	assert.Equal(t, 1, stats.Ops)
	gridtest.AssertAbsent(t, target, 1, 0, 0)

	err = r.Apply(scene.Op{Kind: scene.Paste, Stamp: "missing"})
	assert.ErrorIs(t, err, scene.ErrUnknownStamp)
}

func TestOccupancyMapsZeroToAbsent(t *testing.T) {
	target := bitgrid.New()
	r := scene.NewRunner[bool](target, scene.Occupancy, scene.WithSlowOpThreshold(time.Nanosecond))

	q := scene.NewQueue()
	q.Enqueue(
		scene.Op{Kind: scene.SetBlock, Bounds: grid.Box(0, 0, 0, 7, 3, 1), Value: 1},
		scene.Op{Kind: scene.SetBlock, Bounds: grid.Box(0, 0, 0, 3, 3, 1), Value: 0},
		scene.Op{Kind: scene.Set, Bounds: grid.Point(5, 1, 1), Value: 0},
	)
	stats, err := r.Run(context.Background(), q, 1)
	require.NoError(t, err)
	assert.Equal(t, 32-1, stats.Count)
	assert.Equal(t, 1, stats.Nodes)

	require.NoError(t, r.Apply(scene.Op{Kind: scene.ChangeAll, Value: 0}))
	assert.Zero(t, target.Count())
}

func TestDefaultSceneReplaysOnEveryBackend(t *testing.T) {
	cfg := config.Default()

	counts := map[backend.Kind]int{}
	for _, kind := range backend.Kinds() {
		newGrid := func() (grid.Grid[bool], error) {
			return backend.New[bool](kind, cfg.Grid)
		}
		target, err := newGrid()
		require.NoError(t, err)
		r := scene.NewRunner(target, scene.Occupancy, scene.WithName(cfg.Scene.Name))
		require.NoError(t, r.BuildStamps(cfg.Scene.Stamps, newGrid))

		stats, err := r.Run(context.Background(), scene.QueueFrom(cfg.Scene.Ops), cfg.Scene.BatchSize)
		require.NoError(t, err)
		assert.Equal(t, len(cfg.Scene.Ops), stats.Ops)
		require.NoError(t, r.Target().Validate())
		counts[kind] = stats.Count
	}

	// 16x16 floor, minus a 4x4 hole, two 2x2x8 pillars and one lone cell.
	want := 256 - 16 + 2*32 + 1
	for kind, got := range counts {
		assert.Equal(t, want, got, "backend %s", kind)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	target := arraygrid.New[int]()
	r := scene.NewRunner[int](target, scene.Identity)

	q := scene.NewQueue()
	for x := range 10 {
		q.Enqueue(scene.Op{Kind: scene.Set, Bounds: grid.Point(x, 0, 0), Value: 1})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := r.Run(ctx, q, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Ops)
	assert.Equal(t, 10, q.Len())
}

func TestBuildStampsReportsBackendErrors(t *testing.T) {
	r := scene.NewRunner[int](treegrid.New[int](), scene.Identity)
	err := r.BuildStamps(config.Default().Scene.Stamps, func() (grid.Grid[int], error) {
		return backend.New[int](backend.Bits, config.GridConfig{})
	})
	assert.ErrorIs(t, err, backend.ErrUnsupportedValue)
}
