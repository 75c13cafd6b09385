package main

import (
	"context"
	"fmt"
	"image/color"
	"log"

	"voxelgrid/internal/backend"
	"voxelgrid/internal/config"
	"voxelgrid/internal/grid"
	"voxelgrid/internal/preview"
	"voxelgrid/internal/scene"
)

// replay picks the cell type for kind: the bits backend stores occupancy,
// the others keep the scripted integers.
func replay(ctx context.Context, cfg *config.Config, kind backend.Kind) (scene.Stats, error) {
	shade, err := preview.Palette(cfg.Preview.Palette)
	if err != nil {
		return scene.Stats{}, err
	}
	if kind == backend.Bits {
		occupied := func(bool) color.NRGBA { return shade(1) }
		return run(ctx, cfg, kind, scene.Occupancy, occupied)
	}
	return run(ctx, cfg, kind, scene.Identity, shade)
}

func run[T comparable](ctx context.Context, cfg *config.Config, kind backend.Kind, mapValue scene.ValueMapper[T], shade func(T) color.NRGBA) (scene.Stats, error) {
	newGrid := func() (grid.Grid[T], error) {
		return backend.New[T](kind, cfg.Grid)
	}
	target, err := newGrid()
	if err != nil {
		return scene.Stats{}, err
	}

	r := scene.NewRunner(target, mapValue,
		scene.WithName(cfg.Scene.Name),
		scene.WithSlowOpThreshold(cfg.Scene.SlowOp.Duration()),
	)
	if err := r.BuildStamps(cfg.Scene.Stamps, newGrid); err != nil {
		return scene.Stats{}, fmt.Errorf("build stamps: %w", err)
	}
	stats, err := r.Run(ctx, scene.QueueFrom(cfg.Scene.Ops), cfg.Scene.BatchSize)
	if err != nil {
		return stats, err
	}
	if err := target.Validate(); err != nil {
		return stats, fmt.Errorf("validate grid: %w", err)
	}

	from, to := cfg.Preview.From, cfg.Preview.To
	region := grid.Box(from.X, from.Y, from.Z, to.X, to.Y, to.Z)
	if layers := preview.Layers(target, region); len(layers) > 0 {
		mean, std := preview.Spread(layers)
		log.Printf("run %s: %d layers in %v, mean %.1f cells per layer (sd %.1f)", r.RunID(), len(layers), region, mean, std)
	}
	if path := cfg.Preview.Image; path != "" {
		if err := preview.SaveIsometric(target, region, path, shade); err != nil {
			return stats, fmt.Errorf("save preview: %w", err)
		}
		log.Printf("run %s: wrote preview %s", r.RunID(), path)
	}
	if path := cfg.Preview.Plot; path != "" {
		if err := preview.PlotLayers(target, region, path); err != nil {
			return stats, fmt.Errorf("save layer plot: %w", err)
		}
		log.Printf("run %s: wrote layer plot %s", r.RunID(), path)
	}
	return stats, nil
}
