// Package preview renders diagnostic images of grid contents.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"voxelgrid/internal/grid"
)

const (
	tileWidth    = 32
	tileHeight   = 16
	cubeHeight   = 16
	ambientLight = 0.2
)

// MaxCells caps how many cells SaveIsometric will draw.
const MaxCells = 1 << 20

var (
	ErrEmptyRegion    = errors.New("preview: region is empty")
	ErrRegionTooLarge = errors.New("preview: region too large")
)

var background = color.NRGBA{R: 10, G: 10, B: 18, A: 255}

type cellPreview struct {
	local   grid.Coord
	color   color.NRGBA
	screenX int
	screenY int
}

// SaveIsometric writes an isometric PNG of the present cells inside region to
// path. shade picks the base color of a cell value.
func SaveIsometric[T comparable](g grid.Grid[T], region grid.Bounds, path string, shade func(T) color.NRGBA) error {
	if region.Empty() {
		return ErrEmptyRegion
	}
	if region.Volume() > MaxCells {
		return fmt.Errorf("%w: %v holds %d cells", ErrRegionTooLarge, region, region.Volume())
	}

	w, d, h := region.SizeX(), region.SizeY(), region.SizeZ()
	width := (w+d)*tileWidth/2 + tileWidth
	height := (w+d)*tileHeight/2 + h*cubeHeight + tileHeight
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	cells := collectCells(g, region, shade)
	// Back to front: screen row, then column, then lower cells first.
	slices.SortFunc(cells, func(a, b cellPreview) int {
		if a.screenY != b.screenY {
			return a.screenY - b.screenY
		}
		if a.screenX != b.screenX {
			return a.screenX - b.screenX
		}
		if a.local.Z != b.local.Z {
			return a.local.Z - b.local.Z
		}
		if a.local.Y != b.local.Y {
			return b.local.Y - a.local.Y
		}
		return a.local.X - b.local.X
	})

	offsetX := d * tileWidth / 2
	offsetY := h * cubeHeight
	for _, c := range cells {
		renderCube(img, offsetX+c.screenX, offsetY+c.screenY, c.color)
	}
	return writePNG(img, path)
}

func collectCells[T comparable](g grid.Grid[T], region grid.Bounds, shade func(T) color.NRGBA) []cellPreview {
	cells := make([]cellPreview, 0, min(grid.CountWithin(g, region), MaxCells))
	grid.VisitPointsWithin(g, region, func(c grid.Coord, v T) bool {
		local := grid.Coord{X: c.X - region.Min.X, Y: c.Y - region.Min.Y, Z: c.Z - region.Min.Z}
		cells = append(cells, cellPreview{
			local:   local,
			color:   shade(v),
			screenX: (local.X - local.Y) * tileWidth / 2,
			screenY: (local.X+local.Y)*tileHeight/2 - local.Z*cubeHeight,
		})
		return true
	})
	return cells
}

func renderCube(img *image.NRGBA, baseX, baseY int, base color.NRGBA) {
	topColor := applyLighting(base, ambientLight+0.4)
	leftColor := applyLighting(base, ambientLight+0.25)
	rightColor := applyLighting(base, ambientLight+0.15)

	top := []image.Point{
		{X: baseX, Y: baseY - cubeHeight},
		{X: baseX + tileWidth/2, Y: baseY - cubeHeight + tileHeight/2},
		{X: baseX, Y: baseY - cubeHeight + tileHeight},
		{X: baseX - tileWidth/2, Y: baseY - cubeHeight + tileHeight/2},
	}
	left := []image.Point{
		{X: baseX - tileWidth/2, Y: baseY - cubeHeight + tileHeight/2},
		{X: baseX, Y: baseY - cubeHeight + tileHeight},
		{X: baseX, Y: baseY + tileHeight},
		{X: baseX - tileWidth/2, Y: baseY + tileHeight/2},
	}
	right := []image.Point{
		{X: baseX + tileWidth/2, Y: baseY - cubeHeight + tileHeight/2},
		{X: baseX, Y: baseY - cubeHeight + tileHeight},
		{X: baseX, Y: baseY + tileHeight},
		{X: baseX + tileWidth/2, Y: baseY + tileHeight/2},
	}

	fillPolygon(img, left, leftColor)
	fillPolygon(img, right, rightColor)
	fillPolygon(img, top, topColor)
}

// Palette returns a shade function for integer grids. Values missing from
// colors are drawn grey.
func Palette(colors map[int]string) (func(int) color.NRGBA, error) {
	parsed := make(map[int]color.NRGBA, len(colors))
	for v, hex := range colors {
		col, ok := ParseHexColor(hex)
		if !ok {
			return nil, fmt.Errorf("palette value %d: invalid color %q", v, hex)
		}
		parsed[v] = col
	}
	return func(v int) color.NRGBA {
		if col, ok := parsed[v]; ok {
			return col
		}
		return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	}, nil
}

// ParseHexColor parses "#rrggbb" (the leading # is optional).
func ParseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(trimmed[2*i:2*i+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		rgb[i] = uint8(v)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = math.Min(math.Max(factor, 0), 1)
	return color.NRGBA{
		R: uint8(math.Round(float64(base.R) * factor)),
		G: uint8(math.Round(float64(base.G) * factor)),
		B: uint8(math.Round(float64(base.B) * factor)),
		A: 255,
	}
}

// fillPolygon scanline-fills a convex polygon, clipped to the image.
func fillPolygon(img *image.NRGBA, pts []image.Point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	bounds := img.Bounds()
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, bounds.Min.Y)
	maxY = min(maxY, bounds.Max.Y-1)

	xs := make([]int, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range pts {
			j := (i + 1) % len(pts)
			x1, y1 := pts[i].X, pts[i].Y
			x2, y2 := pts[j].X, pts[j].Y
			if y1 == y2 || y < min(y1, y2) || y >= max(y1, y2) {
				continue
			}
			xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
		}
		if len(xs) < 2 {
			continue
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xStart := max(xs[i], bounds.Min.X)
			xEnd := min(xs[i+1], bounds.Max.X-1)
			for x := xStart; x <= xEnd; x++ {
				img.SetNRGBA(x, y, col)
			}
		}
	}
}

func writePNG(img image.Image, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	if path == "" {
		return errors.New("preview: output path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview directory: %w", err)
		}
	}
	return nil
}
