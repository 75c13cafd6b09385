// Package arraygrid implements a grid backed by one dense, auto-growing
// array. It is the fastest backend for locally clustered writes.
package arraygrid

import (
	"fmt"

	"voxelgrid/internal/grid"
)

type slot[T comparable] struct {
	value T
	set   bool
}

type options struct {
	exactGrowth bool
	maxSlack    int
}

// Option tunes the growth policy of a Grid.
type Option func(*options)

// WithExactGrowth makes point writes grow the window exact-fit, like block
// writes always do.
func WithExactGrowth() Option {
	return func(o *options) { o.exactGrowth = true }
}

// WithMaxSlack caps the extra cells added per side when a point write grows
// the window. Zero or less means uncapped.
func WithMaxSlack(cells int) Option {
	return func(o *options) { o.maxSlack = cells }
}

// Grid stores every cell of its window in a flat slice, x fastest, then y,
// then z. Cells outside the window are absent.
type Grid[T comparable] struct {
	origin grid.Coord
	sizeX  int
	sizeY  int
	sizeZ  int
	data   []slot[T]
	count  int
	opts   options
}

var (
	_ grid.Grid[int] = (*Grid[int])(nil)
	_ grid.Reserver  = (*Grid[int])(nil)
)

func New[T comparable](opts ...Option) *Grid[T] {
	g := &Grid[T]{}
	for _, opt := range opts {
		opt(&g.opts)
	}
	return g
}

// DataLength returns the number of allocated cells.
func (g *Grid[T]) DataLength() int {
	return len(g.data)
}

// Bounds returns the allocated window. It is empty for a fresh or cleared
// grid.
func (g *Grid[T]) Bounds() grid.Bounds {
	if len(g.data) == 0 {
		return grid.Box(0, 0, 0, -1, -1, -1)
	}
	return grid.Bounds{
		Min: g.origin,
		Max: g.origin.Add(g.sizeX-1, g.sizeY-1, g.sizeZ-1),
	}
}

func (g *Grid[T]) index(x, y, z int) int {
	lx, ly, lz := x-g.origin.X, y-g.origin.Y, z-g.origin.Z
	if lx < 0 || ly < 0 || lz < 0 || lx >= g.sizeX || ly >= g.sizeY || lz >= g.sizeZ {
		panic(fmt.Errorf("%w: (%d,%d,%d) outside %v", grid.ErrOutOfBounds, x, y, z, g.Bounds()))
	}
	return lx + g.sizeX*(ly+g.sizeY*lz)
}

func (g *Grid[T]) Get(x, y, z int) (T, bool) {
	if !g.Bounds().Contains(x, y, z) {
		var zero T
		return zero, false
	}
	s := g.data[g.index(x, y, z)]
	return s.value, s.set
}

func (g *Grid[T]) Set(x, y, z int, v T) {
	if !g.Bounds().Contains(x, y, z) {
		g.grow(grid.Point(x, y, z), !g.opts.exactGrowth)
	}
	g.write(g.index(x, y, z), v)
}

func (g *Grid[T]) Remove(x, y, z int) {
	if !g.Bounds().Contains(x, y, z) {
		return
	}
	g.erase(g.index(x, y, z))
}

func (g *Grid[T]) SetBlock(b grid.Bounds, v T) {
	if b.Empty() {
		return
	}
	if !g.Bounds().ContainsBounds(b) {
		g.grow(b, false)
	}
	for z := b.Min.Z; z <= b.Max.Z; z++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			row := g.index(b.Min.X, y, z)
			for i := row; i < row+b.SizeX(); i++ {
				g.write(i, v)
			}
		}
	}
}

// Reserve grows the window exact-fit so it covers b.
func (g *Grid[T]) Reserve(b grid.Bounds) {
	if b.Empty() || g.Bounds().ContainsBounds(b) {
		return
	}
	g.grow(b, false)
}

func (g *Grid[T]) RemoveBlock(b grid.Bounds) {
	clipped, ok := b.Intersect(g.Bounds())
	if !ok {
		return
	}
	for z := clipped.Min.Z; z <= clipped.Max.Z; z++ {
		for y := clipped.Min.Y; y <= clipped.Max.Y; y++ {
			row := g.index(clipped.Min.X, y, z)
			for i := row; i < row+clipped.SizeX(); i++ {
				g.erase(i)
			}
		}
	}
}

func (g *Grid[T]) write(i int, v T) {
	if !g.data[i].set {
		g.count++
	}
	g.data[i] = slot[T]{value: v, set: true}
}

func (g *Grid[T]) erase(i int) {
	if g.data[i].set {
		g.count--
	}
	g.data[i] = slot[T]{}
}

// Clear drops the buffer entirely.
func (g *Grid[T]) Clear() {
	g.origin = grid.Coord{}
	g.sizeX, g.sizeY, g.sizeZ = 0, 0, 0
	g.data = nil
	g.count = 0
}

func (g *Grid[T]) Count() int {
	return g.count
}

// grow reallocates the window so it covers target. With slack, every side
// that has to move is pushed out by at least half the current extent so a
// run of neighbouring point writes only reallocates a logarithmic number of
// times.
func (g *Grid[T]) grow(target grid.Bounds, slack bool) {
	cur := g.Bounds()
	need := cur.Union(target)
	if slack && !cur.Empty() {
		need.Min.X, need.Max.X = g.padAxis(cur.Min.X, cur.Max.X, need.Min.X, need.Max.X)
		need.Min.Y, need.Max.Y = g.padAxis(cur.Min.Y, cur.Max.Y, need.Min.Y, need.Max.Y)
		need.Min.Z, need.Max.Z = g.padAxis(cur.Min.Z, cur.Max.Z, need.Min.Z, need.Max.Z)
	}

	sx, sy, sz := need.SizeX(), need.SizeY(), need.SizeZ()
	data := make([]slot[T], sx*sy*sz)
	if !cur.Empty() {
		dx, dy, dz := cur.Min.X-need.Min.X, cur.Min.Y-need.Min.Y, cur.Min.Z-need.Min.Z
		for z := 0; z < g.sizeZ; z++ {
			for y := 0; y < g.sizeY; y++ {
				src := g.sizeX * (y + g.sizeY*z)
				dst := dx + sx*((y+dy)+sy*(z+dz))
				copy(data[dst:dst+g.sizeX], g.data[src:src+g.sizeX])
			}
		}
	}
	g.origin = need.Min
	g.sizeX, g.sizeY, g.sizeZ = sx, sy, sz
	g.data = data
}

func (g *Grid[T]) padAxis(curMin, curMax, needMin, needMax int) (int, int) {
	pad := max((curMax-curMin+1)/2, 1)
	if g.opts.maxSlack > 0 {
		pad = min(pad, g.opts.maxSlack)
	}
	if needMin < curMin {
		needMin = min(needMin, curMin-pad)
	}
	if needMax > curMax {
		needMax = max(needMax, curMax+pad)
	}
	return needMin, needMax
}

func (g *Grid[T]) Validate() error {
	if g.sizeX < 0 || g.sizeY < 0 || g.sizeZ < 0 {
		return fmt.Errorf("arraygrid: negative extent %dx%dx%d: %w", g.sizeX, g.sizeY, g.sizeZ, grid.ErrInvariantViolation)
	}
	if want := g.sizeX * g.sizeY * g.sizeZ; len(g.data) != want {
		return fmt.Errorf("arraygrid: buffer holds %d cells, extents need %d: %w", len(g.data), want, grid.ErrInvariantViolation)
	}
	recount := 0
	for _, s := range g.data {
		if s.set {
			recount++
		}
	}
	if recount != g.count {
		return fmt.Errorf("arraygrid: counter %d, recount %d: %w", g.count, recount, grid.ErrInvariantViolation)
	}
	return nil
}
