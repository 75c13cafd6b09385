// Package bitgrid implements a boolean grid that packs each 4x4x2 block of
// cells into one 32-bit word. Words live in a sparse directory keyed by block
// coordinate; a missing word means the whole block is false.
//
// The grid satisfies grid.Grid[bool] with true as the only present value:
// writing false is the same as removing the cell.
package bitgrid

import (
	"cmp"
	"fmt"
	"math/bits"
	"slices"

	"voxelgrid/internal/grid"
)

const (
	XBlockSize = 4
	YBlockSize = 4
	ZBlockSize = 2

	// BitsUsed is the number of cells per block, one per bit of a word.
	BitsUsed = XBlockSize * YBlockSize * ZBlockSize

	xShift = 2
	yShift = 2
	zShift = 1
	xMask  = XBlockSize - 1
	yMask  = YBlockSize - 1
	zMask  = ZBlockSize - 1
)

// BitPos maps in-block offsets to a bit index in [0, BitsUsed).
func BitPos(x, y, z int) int {
	return x | y<<xShift | z<<(xShift+yShift)
}

func BitXOffset(i int) int { return i & xMask }
func BitYOffset(i int) int { return (i >> xShift) & yMask }
func BitZOffset(i int) int { return (i >> (xShift + yShift)) & zMask }

type options struct {
	evict bool
}

// Option configures a Grid.
type Option func(*options)

// WithEviction controls whether words that drop to zero are removed from the
// directory. Enabled by default.
func WithEviction(enabled bool) Option {
	return func(o *options) { o.evict = enabled }
}

type Grid struct {
	words map[grid.Coord]uint32
	count int
	opts  options
}

var _ grid.Grid[bool] = (*Grid)(nil)

func New(opts ...Option) *Grid {
	g := &Grid{
		words: make(map[grid.Coord]uint32),
		opts:  options{evict: true},
	}
	for _, opt := range opts {
		opt(&g.opts)
	}
	return g
}

// NewAt returns a grid with the block containing (x, y, z) already
// allocated.
func NewAt(x, y, z int, opts ...Option) *Grid {
	g := New(opts...)
	key, _ := locate(x, y, z)
	g.words[key] = 0
	return g
}

// locate splits a cell coordinate into its block key and bit index.
// Arithmetic shifts floor negative coordinates.
func locate(x, y, z int) (grid.Coord, int) {
	key := grid.Coord{X: x >> xShift, Y: y >> yShift, Z: z >> zShift}
	return key, BitPos(x&xMask, y&yMask, z&zMask)
}

// blockBounds returns the cells covered by the block at key.
func blockBounds(key grid.Coord) grid.Bounds {
	x, y, z := key.X<<xShift, key.Y<<yShift, key.Z<<zShift
	return grid.Box(x, y, z, x+XBlockSize-1, y+YBlockSize-1, z+ZBlockSize-1)
}

func (g *Grid) store(key grid.Coord, w uint32) {
	if w == 0 && g.opts.evict {
		delete(g.words, key)
		return
	}
	g.words[key] = w
}

func (g *Grid) Get(x, y, z int) (bool, bool) {
	key, bit := locate(x, y, z)
	set := g.words[key]&(1<<bit) != 0
	return set, set
}

func (g *Grid) Set(x, y, z int, v bool) {
	if !v {
		g.Remove(x, y, z)
		return
	}
	key, bit := locate(x, y, z)
	w := g.words[key]
	if w&(1<<bit) != 0 {
		return
	}
	g.words[key] = w | 1<<bit
	g.count++
}

func (g *Grid) Remove(x, y, z int) {
	key, bit := locate(x, y, z)
	w, ok := g.words[key]
	if !ok || w&(1<<bit) == 0 {
		return
	}
	g.store(key, w&^(1<<bit))
	g.count--
}

func (g *Grid) SetBlock(b grid.Bounds, v bool) {
	if !v {
		g.RemoveBlock(b)
		return
	}
	if b.Empty() {
		return
	}
	g.forBlocks(b, false, func(key grid.Coord, mask uint32) {
		w := g.words[key]
		nw := w | mask
		if nw != w {
			g.count += bits.OnesCount32(nw) - bits.OnesCount32(w)
			g.words[key] = nw
		}
	})
}

func (g *Grid) RemoveBlock(b grid.Bounds) {
	if b.Empty() {
		return
	}
	g.forBlocks(b, true, func(key grid.Coord, mask uint32) {
		w, ok := g.words[key]
		if !ok || w&mask == 0 {
			return
		}
		g.count -= bits.OnesCount32(w & mask)
		g.store(key, w&^mask)
	})
}

// forBlocks calls fn for every block overlapping b with the mask of bits
// inside b. With existingOnly set, only allocated blocks are offered and the
// cheaper of walking the box or the directory is chosen.
func (g *Grid) forBlocks(b grid.Bounds, existingOnly bool, fn func(key grid.Coord, mask uint32)) {
	keys := grid.Box(
		b.Min.X>>xShift, b.Min.Y>>yShift, b.Min.Z>>zShift,
		b.Max.X>>xShift, b.Max.Y>>yShift, b.Max.Z>>zShift,
	)
	// Volume saturates, so boxes too large to count still take the directory walk.
	if existingOnly && keys.Volume() > len(g.words) {
		for key := range g.words {
			if keys.Contains(key.X, key.Y, key.Z) {
				fn(key, maskWithin(key, b))
			}
		}
		return
	}
	for z := keys.Min.Z; z <= keys.Max.Z; z++ {
		for y := keys.Min.Y; y <= keys.Max.Y; y++ {
			for x := keys.Min.X; x <= keys.Max.X; x++ {
				key := grid.Coord{X: x, Y: y, Z: z}
				if existingOnly {
					if _, ok := g.words[key]; !ok {
						continue
					}
				}
				fn(key, maskWithin(key, b))
			}
		}
	}
}

// maskWithin returns the bits of block key whose cells fall inside b.
func maskWithin(key grid.Coord, b grid.Bounds) uint32 {
	clip, ok := blockBounds(key).Intersect(b)
	if !ok {
		return 0
	}
	origin := blockBounds(key).Min
	var mask uint32
	for z := clip.Min.Z; z <= clip.Max.Z; z++ {
		for y := clip.Min.Y; y <= clip.Max.Y; y++ {
			for x := clip.Min.X; x <= clip.Max.X; x++ {
				mask |= 1 << BitPos(x-origin.X, y-origin.Y, z-origin.Z)
			}
		}
	}
	return mask
}

func (g *Grid) Clear() {
	g.words = make(map[grid.Coord]uint32)
	g.count = 0
}

func (g *Grid) Count() int {
	return g.count
}

// CountSetBits returns the number of true cells.
func (g *Grid) CountSetBits() int {
	return g.count
}

// CountSetBitsWithin returns the number of true cells inside b.
func (g *Grid) CountSetBitsWithin(b grid.Bounds) int {
	if b.Empty() {
		return 0
	}
	total := 0
	g.forBlocks(b, true, func(key grid.Coord, mask uint32) {
		total += bits.OnesCount32(g.words[key] & mask)
	})
	return total
}

// BlockCount returns the number of allocated words.
func (g *Grid) BlockCount() int {
	return len(g.words)
}

// Volume returns the number of cells covered by allocated words.
func (g *Grid) Volume() int {
	return len(g.words) * BitsUsed
}

// sortedKeys returns the allocated block keys ordered by z, y, then x.
func (g *Grid) sortedKeys() []grid.Coord {
	keys := make([]grid.Coord, 0, len(g.words))
	for key := range g.words {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b grid.Coord) int {
		if c := cmp.Compare(a.Z, b.Z); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return keys
}

func (g *Grid) Validate() error {
	for i := 0; i < BitsUsed; i++ {
		if got := BitPos(BitXOffset(i), BitYOffset(i), BitZOffset(i)); got != i {
			return fmt.Errorf("bitgrid: bit %d maps back to %d: %w", i, got, grid.ErrInvariantViolation)
		}
	}
	recount := 0
	for _, w := range g.words {
		recount += bits.OnesCount32(w)
	}
	if recount != g.count {
		return fmt.Errorf("bitgrid: counter %d, popcount %d: %w", g.count, recount, grid.ErrInvariantViolation)
	}
	return nil
}
