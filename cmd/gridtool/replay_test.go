package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelgrid/internal/backend"
	"voxelgrid/internal/config"
)

func TestReplayDefaultSceneOnEveryBackend(t *testing.T) {
	for _, kind := range backend.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			dir := t.TempDir()
			cfg := config.Default()
			cfg.Grid.Backend = string(kind)
			cfg.Preview.Image = filepath.Join(dir, "preview.png")
			cfg.Preview.Plot = filepath.Join(dir, "layers.png")

			stats, err := replay(context.Background(), cfg, kind)
			require.NoError(t, err)
			assert.Equal(t, len(cfg.Scene.Ops), stats.Ops)
			assert.Equal(t, 256-16+2*32+1, stats.Count)
			assert.Positive(t, stats.Blocks)

			for _, path := range []string{cfg.Preview.Image, cfg.Preview.Plot} {
				info, err := os.Stat(path)
				require.NoError(t, err)
				assert.Positive(t, info.Size())
			}
		})
	}
}

func TestReplayReportsBadPalette(t *testing.T) {
	cfg := config.Default()
	cfg.Preview.Palette = map[int]string{1: "green"}
	_, err := replay(context.Background(), cfg, backend.Tree)
	assert.Error(t, err)
}
