package preview

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"voxelgrid/internal/grid"
)

// LayerStats holds per-z occupancy inside a region.
type LayerStats struct {
	Z      int
	Cells  int
	Blocks int
}

// Layers counts present cells and intersecting blocks for every z layer of
// region, bottom first.
func Layers[T comparable](g grid.Grid[T], region grid.Bounds) []LayerStats {
	if region.Empty() {
		return nil
	}
	layers := make([]LayerStats, region.SizeZ())
	for i := range layers {
		layers[i].Z = region.Min.Z + i
	}
	grid.VisitBlocksWithin(g, region, func(b grid.Bounds, _ T) bool {
		for z := b.Min.Z; z <= b.Max.Z; z++ {
			l := &layers[z-region.Min.Z]
			l.Cells += b.SizeX() * b.SizeY()
			l.Blocks++
		}
		return true
	})
	return layers
}

// Spread returns the mean and sample standard deviation of cells per layer.
func Spread(layers []LayerStats) (mean, std float64) {
	switch len(layers) {
	case 0:
		return 0, 0
	case 1:
		return float64(layers[0].Cells), 0
	}
	cells := make([]float64, len(layers))
	for i, l := range layers {
		cells[i] = float64(l.Cells)
	}
	return stat.MeanStdDev(cells, nil)
}

// PlotLayers saves a line chart of per-layer cells and blocks to path.
func PlotLayers[T comparable](g grid.Grid[T], region grid.Bounds, path string) error {
	layers := Layers(g, region)
	if len(layers) == 0 {
		return ErrEmptyRegion
	}

	cells := make(plotter.XYs, len(layers))
	blocks := make(plotter.XYs, len(layers))
	for i, l := range layers {
		cells[i] = plotter.XY{X: float64(l.Z), Y: float64(l.Cells)}
		blocks[i] = plotter.XY{X: float64(l.Z), Y: float64(l.Blocks)}
	}

	p := plot.New()
	mean, std := Spread(layers)
	p.Title.Text = fmt.Sprintf("Occupancy by layer %v (mean %.1f, sd %.1f cells)", region, mean, std)
	p.X.Label.Text = "z"
	p.Y.Label.Text = "count"
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{"cells", cells, color.RGBA{R: 107, G: 142, B: 35, A: 255}},
		{"blocks", blocks, color.RGBA{R: 139, G: 90, B: 43, A: 255}},
	} {
		line, points, err := plotter.NewLinePoints(series.pts)
		if err != nil {
			return fmt.Errorf("plot %s: %w", series.label, err)
		}
		line.Color = series.color
		line.Width = vg.Points(1)
		points.Color = series.color
		p.Add(line, points)
		p.Legend.Add(series.label, line, points)
	}
	p.Legend.Top = true

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save layer plot: %w", err)
	}
	return nil
}
