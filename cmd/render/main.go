package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pcb-viewer/internal/batch"
	"pcb-viewer/internal/camera"
	"pcb-viewer/internal/config"
	"pcb-viewer/internal/gltfload"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/viewer"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	model := flag.String("model", "", "Path to the .gltf/.glb model (default: model/cB.gltf)")
	steps := flag.String("tutorial", "", "Path to a tutorial steps JSON file (default: built-in)")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	size := flag.Int("size", 0, "Image edge length in pixels (default: 512)")
	supersample := flag.Int("ss", 0, "Supersampling factor (default: 2)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	azimuth := flag.Float64("azimuth", 30, "Camera azimuth in degrees")
	polar := flag.Float64("polar", 55, "Camera polar angle in degrees from straight down")
	distance := flag.Float64("distance", 15, "Camera distance")
	tour := flag.Duration("tour", 0, "Also write tour.webp with this delay per step (0 = off)")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		ModelPath:   *model,
		Tutorial:    *steps,
		OutputDir:   *outputDir,
		RenderSize:  *size,
		Supersample: *supersample,
		Workers:     *workers,
	})

	opts, err := viewer.OptionsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Fail early on a bad model; workers load their own copies afterwards.
	root, err := gltfload.Load(cfg.ModelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}
	st := root.Stats()

	cam := camera.New(opts.Limits)
	cam.Azimuth = mathutil.Deg2Rad(*azimuth)
	cam.Rotate(0, mathutil.Deg2Rad(*polar)-cam.Polar)
	cam.Zoom(*distance / cam.Distance)

	fmt.Printf("PCB tutorial renderer → WebP\n")
	fmt.Printf("Model: %s (%d meshes, %d triangles)\n", cfg.ModelPath, st.Meshes, st.Triangles)
	fmt.Printf("Steps: %d, Workers: %d, Size: %dpx x%d\n", len(opts.Steps), cfg.Workers, cfg.RenderSize, cfg.Supersample)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	batchCfg := batch.Config{
		OutputDir:   cfg.OutputDir,
		Load:        func() (*scene.Node, error) { return gltfload.Load(cfg.ModelPath) },
		TargetSize:  opts.TargetSize,
		Highlight:   opts.Highlight,
		Camera:      *cam,
		Background:  opts.Background,
		RenderSize:  cfg.RenderSize,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Progress:    2 * time.Second,
	}

	results := batch.Run(batchCfg, opts.Steps)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
			continue
		}
		failed++
		fmt.Printf("  step %d (%s): %s\n", r.Index, r.Part, r.Error)
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, opts.Steps, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if *tour > 0 && success > 0 {
		tourPath := filepath.Join(cfg.OutputDir, "tour.webp")
		if err := batch.WriteTour(tourPath, results, *tour); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Printf("Tour: %s\n", tourPath)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
