// Package treegrid implements a grid as a recursive octree. Nodes split
// lazily when a write makes part of their box differ and merge eagerly as
// soon as all eight children agree, so huge uniform regions cost one node.
//
// Nodes live in an arena slice and refer to each other by index, which keeps
// subtree replacement and collapse simple and avoids deep teardown.
package treegrid

import (
	"math"
	"math/bits"

	"voxelgrid/internal/grid"
)

// MaxLevel is the level of a root whose cube spans every int coordinate on
// all three axes. Its origin is always math.MinInt.
const MaxLevel = 64

type node[T comparable] struct {
	leaf     bool
	present  bool
	value    T
	children [8]int32
}

func (n node[T]) sameLeaf(o node[T]) bool {
	return n.leaf && o.leaf && n.present == o.present && n.value == o.value
}

// Grid is an octree over a power-of-two cube whose origin can sit anywhere.
// The cube grows by nesting the current root inside a larger one.
//
// The occupancy counter is exact while it fits in an int. Once a write
// pushes it past math.MaxInt it is marked saturated and Count recounts the
// leaves instead.
type Grid[T comparable] struct {
	nodes     []node[T]
	free      []int32
	root      int32
	origin    grid.Coord
	level     int
	count     int
	saturated bool
	live      int
}

var (
	_ grid.Grid[int]   = (*Grid[int])(nil)
	_ grid.NodeCounter = (*Grid[int])(nil)
)

func New[T comparable]() *Grid[T] {
	g := &Grid[T]{}
	g.Clear()
	return g
}

func (g *Grid[T]) alloc(n node[T]) int32 {
	g.live++
	if last := len(g.free) - 1; last >= 0 {
		id := g.free[last]
		g.free = g.free[:last]
		g.nodes[id] = n
		return id
	}
	g.nodes = append(g.nodes, n)
	return int32(len(g.nodes) - 1)
}

func (g *Grid[T]) release(id int32) {
	g.nodes[id] = node[T]{}
	g.free = append(g.free, id)
	g.live--
}

// freeSubtree releases id and everything below it, uncounting the present
// cells it held.
func (g *Grid[T]) freeSubtree(id int32, level int) {
	n := g.nodes[id]
	g.release(id)
	if n.leaf {
		if n.present {
			g.lose(level)
		}
		return
	}
	for _, c := range n.children {
		g.freeSubtree(c, level-1)
	}
}

func (g *Grid[T]) gain(level int) {
	if g.saturated {
		return
	}
	v := volume(level)
	if v == math.MaxInt || g.count > math.MaxInt-v {
		g.saturated = true
		return
	}
	g.count += v
}

func (g *Grid[T]) lose(level int) {
	if !g.saturated {
		g.count -= volume(level)
	}
}

// volume returns the cell count of a cube at level, saturating at
// math.MaxInt from level 21 upwards.
func volume(level int) int {
	if 3*level >= bits.UintSize-1 {
		return math.MaxInt
	}
	return 1 << (3 * level)
}

func addSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// extent is the edge length of a level minus one. At MaxLevel it wraps to
// -1, which added to math.MinInt lands on math.MaxInt.
func extent(level int) int {
	return int(uint64(1)<<level - 1)
}

// half is the offset of the upper octants. At MaxLevel it wraps to
// math.MinInt, which added to math.MinInt lands on zero.
func half(level int) int {
	return int(uint64(1) << (level - 1))
}

func cube(origin grid.Coord, level int) grid.Bounds {
	e := extent(level)
	return grid.Bounds{Min: origin, Max: origin.Add(e, e, e)}
}

// childOrigin returns the corner of octant i: bit 0 selects the upper x
// half, bit 1 upper y and bit 2 upper z.
func childOrigin(origin grid.Coord, level, i int) grid.Coord {
	h := half(level)
	return origin.Add((i&1)*h, (i>>1&1)*h, (i>>2&1)*h)
}

// Bounds returns the cube currently covered by the root.
func (g *Grid[T]) Bounds() grid.Bounds {
	return cube(g.origin, g.level)
}

func (g *Grid[T]) Get(x, y, z int) (T, bool) {
	if !g.Bounds().Contains(x, y, z) {
		var zero T
		return zero, false
	}
	id, o, lvl := g.root, g.origin, g.level
	for {
		n := g.nodes[id]
		if n.leaf {
			return n.value, n.present
		}
		h := half(lvl)
		i := 0
		if x >= o.X+h {
			i |= 1
		}
		if y >= o.Y+h {
			i |= 2
		}
		if z >= o.Z+h {
			i |= 4
		}
		o = childOrigin(o, lvl, i)
		id = n.children[i]
		lvl--
	}
}

func (g *Grid[T]) Set(x, y, z int, v T) {
	g.SetBlock(grid.Point(x, y, z), v)
}

func (g *Grid[T]) Remove(x, y, z int) {
	g.RemoveBlock(grid.Point(x, y, z))
}

func (g *Grid[T]) SetBlock(b grid.Bounds, v T) {
	if b.Empty() {
		return
	}
	g.cover(b)
	g.fill(g.root, g.origin, g.level, b, node[T]{leaf: true, present: true, value: v})
}

func (g *Grid[T]) RemoveBlock(b grid.Bounds) {
	clipped, ok := b.Intersect(g.Bounds())
	if !ok {
		return
	}
	g.fill(g.root, g.origin, g.level, clipped, node[T]{leaf: true})
}

// cover grows the root until it contains b. Below MaxLevel-1 the old root
// is nested as an octant of a doubled cube; past that the tree is rebuilt
// under a MaxLevel root.
func (g *Grid[T]) cover(b grid.Bounds) {
	for !g.Bounds().ContainsBounds(b) {
		if root := g.nodes[g.root]; root.leaf && !root.present {
			g.origin, g.level = place(b)
			return
		}
		if g.level >= MaxLevel-1 {
			g.rehome()
			return
		}
		g.grow(b)
	}
}

// place returns the smallest root that holds b, shifted down where needed so
// the cube does not run past math.MaxInt.
func place(b grid.Bounds) (grid.Coord, int) {
	edge := max(b.SizeX(), b.SizeY(), b.SizeZ())
	if edge == math.MaxInt {
		return grid.Coord{X: math.MinInt, Y: math.MinInt, Z: math.MinInt}, MaxLevel
	}
	level := bits.Len64(uint64(edge - 1))
	limit := math.MaxInt - extent(level)
	return grid.Coord{X: min(b.Min.X, limit), Y: min(b.Min.Y, limit), Z: min(b.Min.Z, limit)}, level
}

// grow doubles the root towards b, keeping the new cube inside the int range.
func (g *Grid[T]) grow(b grid.Bounds) {
	edge := 1 << g.level
	slot := 0
	origin := g.origin
	if extendDown(g.origin.X, b.Min.X, edge) {
		origin.X -= edge
		slot |= 1
	}
	if extendDown(g.origin.Y, b.Min.Y, edge) {
		origin.Y -= edge
		slot |= 2
	}
	if extendDown(g.origin.Z, b.Min.Z, edge) {
		origin.Z -= edge
		slot |= 4
	}
	old := g.root
	g.root = g.alloc(node[T]{})
	for i := range 8 {
		c := old
		if i != slot {
			c = g.alloc(node[T]{leaf: true})
		}
		g.nodes[g.root].children[i] = c
	}
	g.origin = origin
	g.level++
}

// extendDown reports whether a cube at origin with the given edge should
// double below origin on one axis. It prefers the side of want and falls
// back to whichever side stays inside the int range.
func extendDown(origin, want, edge int) bool {
	canLower := origin >= math.MinInt+edge
	canRaise := origin <= math.MaxInt-(edge-1+edge)
	if want < origin && canLower {
		return true
	}
	return !canRaise
}

// rehome rebuilds the tree under a MaxLevel root by replaying every present
// leaf.
func (g *Grid[T]) rehome() {
	type block struct {
		bounds grid.Bounds
		value  T
	}
	var blocks []block
	g.VisitBlocks(func(b grid.Bounds, v T) bool {
		blocks = append(blocks, block{b, v})
		return true
	})
	g.Clear()
	g.origin = grid.Coord{X: math.MinInt, Y: math.MinInt, Z: math.MinInt}
	g.level = MaxLevel
	for _, blk := range blocks {
		g.fill(g.root, g.origin, g.level, blk.bounds, node[T]{leaf: true, present: true, value: blk.value})
	}
}

// fill writes leaf over the part of b inside node id. Nodes fully inside b
// are replaced wholesale; partially covered leaves split first.
func (g *Grid[T]) fill(id int32, origin grid.Coord, level int, b grid.Bounds, leaf node[T]) {
	box := cube(origin, level)
	if _, ok := box.Intersect(b); !ok {
		return
	}
	if b.ContainsBounds(box) {
		g.replace(id, level, leaf)
		return
	}
	if n := g.nodes[id]; n.leaf {
		if n.sameLeaf(leaf) {
			return
		}
		g.split(id)
	}
	for i := range 8 {
		g.fill(g.nodes[id].children[i], childOrigin(origin, level, i), level-1, b, leaf)
	}
	g.collapse(id)
}

func (g *Grid[T]) replace(id int32, level int, leaf node[T]) {
	n := g.nodes[id]
	if n.leaf {
		if n.present {
			g.lose(level)
		}
	} else {
		for _, c := range n.children {
			g.freeSubtree(c, level-1)
		}
	}
	g.nodes[id] = leaf
	if leaf.present {
		g.gain(level)
	}
}

func (g *Grid[T]) split(id int32) {
	n := g.nodes[id]
	var children [8]int32
	for i := range children {
		children[i] = g.alloc(node[T]{leaf: true, present: n.present, value: n.value})
	}
	g.nodes[id] = node[T]{children: children}
}

// collapse turns id back into a leaf when all of its children are equal
// leaves.
func (g *Grid[T]) collapse(id int32) {
	n := g.nodes[id]
	if n.leaf {
		return
	}
	first := g.nodes[n.children[0]]
	for _, c := range n.children[1:] {
		if !first.sameLeaf(g.nodes[c]) {
			return
		}
	}
	for _, c := range n.children {
		g.release(c)
	}
	g.nodes[id] = node[T]{leaf: true, present: first.present, value: first.value}
}

// Clear drops every node and shrinks the root back to a single cell.
func (g *Grid[T]) Clear() {
	clear(g.nodes)
	g.nodes = g.nodes[:0]
	g.free = g.free[:0]
	g.live = 0
	g.count = 0
	g.saturated = false
	g.origin = grid.Coord{}
	g.level = 0
	g.root = g.alloc(node[T]{leaf: true})
}

// Count returns the number of present cells, saturating at math.MaxInt.
func (g *Grid[T]) Count() int {
	if !g.saturated {
		return g.count
	}
	total := g.recount(g.root, g.level)
	if total < math.MaxInt {
		g.count, g.saturated = total, false
	}
	return total
}

func (g *Grid[T]) recount(id int32, level int) int {
	n := g.nodes[id]
	if n.leaf {
		if n.present {
			return volume(level)
		}
		return 0
	}
	total := 0
	for _, c := range n.children {
		total = addSat(total, g.recount(c, level-1))
	}
	return total
}

// CountNodes returns the number of live nodes, leaves included.
func (g *Grid[T]) CountNodes() int {
	return g.live
}

// Depth returns the number of levels below the root that hold nodes.
func (g *Grid[T]) Depth() int {
	return g.depth(g.root)
}

func (g *Grid[T]) depth(id int32) int {
	n := g.nodes[id]
	if n.leaf {
		return 0
	}
	deepest := 0
	for _, c := range n.children {
		deepest = max(deepest, g.depth(c))
	}
	return deepest + 1
}
