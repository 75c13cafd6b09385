package bitgrid

import "voxelgrid/internal/grid"

// VisitBlocks reports runs of consecutive true cells along x within each
// block row. Runs are not merged across block boundaries.
func (g *Grid) VisitBlocks(fn grid.BlockVisitor[bool]) {
	for _, key := range g.sortedKeys() {
		w := g.words[key]
		if w == 0 {
			continue
		}
		origin := blockBounds(key).Min
		for lz := 0; lz < ZBlockSize; lz++ {
			for ly := 0; ly < YBlockSize; ly++ {
				row := w >> BitPos(0, ly, lz) & (1<<XBlockSize - 1)
				for lx := 0; lx < XBlockSize; {
					if row&(1<<lx) == 0 {
						lx++
						continue
					}
					end := lx
					for end+1 < XBlockSize && row&(1<<(end+1)) != 0 {
						end++
					}
					y, z := origin.Y+ly, origin.Z+lz
					if !fn(grid.Box(origin.X+lx, y, z, origin.X+end, y, z), true) {
						return
					}
					lx = end + 1
				}
			}
		}
	}
}

// VisitSetBits reports every true cell as its own single-cell block.
func (g *Grid) VisitSetBits(fn grid.BlockVisitor[bool]) {
	for _, key := range g.sortedKeys() {
		w := g.words[key]
		origin := blockBounds(key).Min
		for i := 0; i < BitsUsed; i++ {
			if w&(1<<i) == 0 {
				continue
			}
			b := grid.Point(origin.X+BitXOffset(i), origin.Y+BitYOffset(i), origin.Z+BitZOffset(i))
			if !fn(b, true) {
				return
			}
		}
	}
}

// VisitAllocated reports every cell of every allocated block, including the
// false ones.
func (g *Grid) VisitAllocated(fn grid.PointVisitor[bool]) {
	for _, key := range g.sortedKeys() {
		w := g.words[key]
		origin := blockBounds(key).Min
		for i := 0; i < BitsUsed; i++ {
			c := grid.Coord{
				X: origin.X + BitXOffset(i),
				Y: origin.Y + BitYOffset(i),
				Z: origin.Z + BitZOffset(i),
			}
			if !fn(c, w&(1<<i) != 0) {
				return
			}
		}
	}
}
