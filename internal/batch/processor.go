// Package batch renders one highlighted snapshot per tutorial step using a
// worker pool.
package batch

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"pcb-viewer/internal/camera"
	"pcb-viewer/internal/highlight"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/normalize"
	"pcb-viewer/internal/raster"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/tutorial"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	// Load returns a fresh copy of the model. Each worker loads its own
	// because highlighting writes to materials.
	Load        func() (*scene.Node, error)
	TargetSize  float64
	Highlight   mathutil.Vec3
	Camera      camera.Camera
	Background  color.NRGBA
	RenderSize  int
	Supersample int
	Workers     int
	Progress    time.Duration // 0 disables the progress ticker
}

// Result holds the outcome of rendering one step.
type Result struct {
	Index   int
	Part    string
	Image   string // path relative to OutputDir
	Success bool
	Error   string

	Frame *image.NRGBA `json:"-"`
}

// Run renders all steps using a worker pool. Results are in step order.
func Run(cfg Config, steps []tutorial.Step) []Result {
	total := len(steps)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						fmt.Printf("  [%d/%d] %.1f steps/sec\n", p, total, float64(p)/elapsed)
					}
				}
			}
		}()
	}

	stepChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wk := worker{cfg: cfg}
			for idx := range stepChan {
				results[idx] = wk.process(idx, steps[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range steps {
		stepChan <- i
	}
	close(stepChan)

	wg.Wait()
	close(done)

	return results
}

// worker owns one scene copy and one highlighter.
type worker struct {
	cfg     Config
	root    *scene.Node
	hl      *highlight.Highlighter
	loadErr error
	loaded  bool
}

func (w *worker) scene() (*scene.Node, error) {
	if w.loaded {
		return w.root, w.loadErr
	}
	w.loaded = true
	root, err := w.cfg.Load()
	if err != nil {
		w.loadErr = fmt.Errorf("load model: %w", err)
		return nil, w.loadErr
	}
	if _, err := normalize.Normalize(root, w.cfg.TargetSize); err != nil {
		w.loadErr = err
		return nil, err
	}
	w.root = root
	w.hl = highlight.New(w.cfg.Highlight)
	return root, nil
}

func (w *worker) process(idx int, step tutorial.Step) Result {
	res := Result{Index: idx, Part: step.Part}

	root, err := w.scene()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	w.hl.Update(root, step.Part)

	cam := w.cfg.Camera
	frame := raster.Render(root, &cam, raster.Options{
		Width:       w.cfg.RenderSize,
		Height:      w.cfg.RenderSize,
		Supersample: w.cfg.Supersample,
		Background:  w.cfg.Background,
	})

	res.Image = fmt.Sprintf("%d.webp", idx)
	if err := writeWebP(filepath.Join(w.cfg.OutputDir, res.Image), frame.Image); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Frame = frame.Image
	res.Success = true
	return res
}

func writeWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("WebP encode: %w", err)
	}
	return f.Close()
}

// WriteTour writes an animated WebP cycling through every successful step,
// each shown for delay.
func WriteTour(path string, results []Result, delay time.Duration) error {
	anim := &nativewebp.Animation{LoopCount: 0}
	ms := uint(delay.Milliseconds())
	for _, r := range results {
		if !r.Success || r.Frame == nil {
			continue
		}
		anim.Images = append(anim.Images, r.Frame)
		anim.Durations = append(anim.Durations, ms)
		anim.Disposals = append(anim.Disposals, 0)
	}
	if len(anim.Images) == 0 {
		return fmt.Errorf("batch: tour %s: no frames", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("batch: create %s: %w", path, err)
	}
	if err := nativewebp.EncodeAll(f, anim, nil); err != nil {
		f.Close()
		return fmt.Errorf("batch: encode %s: %w", path, err)
	}
	return f.Close()
}
