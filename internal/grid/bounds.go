package grid

import (
	"fmt"
	"math"
	"math/bits"
)

// Coord describes a cell position in the unbounded integer lattice.
type Coord struct {
	X int
	Y int
	Z int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Add returns c translated by (dx, dy, dz).
func (c Coord) Add(dx, dy, dz int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Bounds is an axis-aligned box represented by inclusive min/max corners.
// A bounds with Min greater than Max on any axis is empty.
type Bounds struct {
	Min Coord
	Max Coord
}

// Box builds inclusive bounds from two corners given axis by axis.
func Box(x1, y1, z1, x2, y2, z2 int) Bounds {
	return Bounds{
		Min: Coord{X: x1, Y: y1, Z: z1},
		Max: Coord{X: x2, Y: y2, Z: z2},
	}
}

// Point returns the single-cell bounds at (x, y, z).
func Point(x, y, z int) Bounds {
	c := Coord{X: x, Y: y, Z: z}
	return Bounds{Min: c, Max: c}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%v..%v]", b.Min, b.Max)
}

// Empty reports whether the bounds contain no cells.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// SizeX, SizeY and SizeZ return the edge lengths; zero for empty bounds.
// Edges longer than math.MaxInt cells report math.MaxInt.
func (b Bounds) SizeX() int { return span(b.Min.X, b.Max.X) }
func (b Bounds) SizeY() int { return span(b.Min.Y, b.Max.Y) }
func (b Bounds) SizeZ() int { return span(b.Min.Z, b.Max.Z) }

func span(lo, hi int) int {
	if hi < lo {
		return 0
	}
	n := uint64(hi) - uint64(lo)
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n) + 1
}

// Volume returns the number of cells inside the bounds, saturating at
// math.MaxInt.
func (b Bounds) Volume() int {
	if b.Empty() {
		return 0
	}
	hi, lo := bits.Mul64(uint64(b.SizeX()), uint64(b.SizeY()))
	if hi != 0 || lo > math.MaxInt {
		return math.MaxInt
	}
	hi, lo = bits.Mul64(lo, uint64(b.SizeZ()))
	if hi != 0 || lo > math.MaxInt {
		return math.MaxInt
	}
	return int(lo)
}

func (b Bounds) Contains(x, y, z int) bool {
	return x >= b.Min.X && x <= b.Max.X &&
		y >= b.Min.Y && y <= b.Max.Y &&
		z >= b.Min.Z && z <= b.Max.Z
}

// ContainsBounds reports whether o lies entirely inside b. Empty o is
// contained by anything.
func (b Bounds) ContainsBounds(o Bounds) bool {
	if o.Empty() {
		return true
	}
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// Intersect clips b against o. The boolean is false when nothing overlaps.
func (b Bounds) Intersect(o Bounds) (Bounds, bool) {
	r := Bounds{
		Min: Coord{X: max(b.Min.X, o.Min.X), Y: max(b.Min.Y, o.Min.Y), Z: max(b.Min.Z, o.Min.Z)},
		Max: Coord{X: min(b.Max.X, o.Max.X), Y: min(b.Max.Y, o.Max.Y), Z: min(b.Max.Z, o.Max.Z)},
	}
	if r.Empty() {
		return Bounds{}, false
	}
	return r, true
}

// Union returns the smallest bounds covering both b and o. Empty inputs are
// ignored.
func (b Bounds) Union(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Bounds{
		Min: Coord{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y), Z: min(b.Min.Z, o.Min.Z)},
		Max: Coord{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y), Z: max(b.Max.Z, o.Max.Z)},
	}
}

// Translate shifts both corners by (dx, dy, dz).
func (b Bounds) Translate(dx, dy, dz int) Bounds {
	return Bounds{Min: b.Min.Add(dx, dy, dz), Max: b.Max.Add(dx, dy, dz)}
}

// FloorDiv divides rounding towards negative infinity, so cells at -1 land in
// block -1 rather than block 0.
func FloorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}
