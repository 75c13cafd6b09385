package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"voxelgrid/internal/backend"
	"voxelgrid/internal/config"
)

func main() {
	var (
		cfgPath     string
		backendName string
		imagePath   string
		plotPath    string
	)
	flag.StringVar(&cfgPath, "config", "", "path to gridtool configuration file (.json, .yaml or .yml)")
	flag.StringVar(&backendName, "backend", "", "override grid.backend (array, bits or tree)")
	flag.StringVar(&imagePath, "preview", "", "write an isometric PNG of the preview region to this path")
	flag.StringVar(&plotPath, "plot", "", "write a per-layer occupancy plot to this path")
	flag.Parse()

	wrote, err := writeConfigFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("sync config: %v", err)
	}
	if wrote {
		log.Printf("wrote configuration from environment to %s", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if backendName != "" {
		cfg.Grid.Backend = backendName
	}
	if imagePath != "" {
		cfg.Preview.Image = imagePath
	}
	if plotPath != "" {
		cfg.Preview.Plot = plotPath
	}

	kind, err := backend.ParseKind(cfg.Grid.Backend)
	if err != nil {
		log.Fatalf("select backend: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := replay(ctx, cfg, kind)
	if err != nil {
		log.Fatalf("replay scene %q on %s backend: %v", cfg.Scene.Name, kind, err)
	}
	log.Printf("%s backend: %d cells, %d blocks, %d nodes after %d ops", kind, stats.Count, stats.Blocks, stats.Nodes, stats.Ops)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			log.Printf("interrupt received, stopping after the current batch")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
