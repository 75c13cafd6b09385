package arraygrid

import "voxelgrid/internal/grid"

// VisitBlocks decomposes the buffer greedily: a run is first extended along
// x, then by whole matching rows along y, then by whole matching slabs along
// z. Cells already reported are never reused.
func (g *Grid[T]) VisitBlocks(fn grid.BlockVisitor[T]) {
	if g.count == 0 {
		return
	}
	visited := make([]bool, len(g.data))
	matches := func(i int, v T) bool {
		return g.data[i].set && !visited[i] && g.data[i].value == v
	}
	rowMatches := func(x1, x2, y, z int, v T) bool {
		base := g.sizeX * (y + g.sizeY*z)
		for x := x1; x <= x2; x++ {
			if !matches(base+x, v) {
				return false
			}
		}
		return true
	}

	for z := 0; z < g.sizeZ; z++ {
		for y := 0; y < g.sizeY; y++ {
			for x := 0; x < g.sizeX; x++ {
				i := x + g.sizeX*(y+g.sizeY*z)
				if !g.data[i].set || visited[i] {
					continue
				}
				v := g.data[i].value

				x2 := x
				for x2+1 < g.sizeX && matches(i+x2+1-x, v) {
					x2++
				}
				y2 := y
				for y2+1 < g.sizeY && rowMatches(x, x2, y2+1, z, v) {
					y2++
				}
				z2 := z
			slabs:
				for z2+1 < g.sizeZ {
					for yy := y; yy <= y2; yy++ {
						if !rowMatches(x, x2, yy, z2+1, v) {
							break slabs
						}
					}
					z2++
				}

				for zz := z; zz <= z2; zz++ {
					for yy := y; yy <= y2; yy++ {
						base := g.sizeX * (yy + g.sizeY*zz)
						for xx := x; xx <= x2; xx++ {
							visited[base+xx] = true
						}
					}
				}

				b := grid.Box(x, y, z, x2, y2, z2).Translate(g.origin.X, g.origin.Y, g.origin.Z)
				if !fn(b, v) {
					return
				}
			}
		}
	}
}
