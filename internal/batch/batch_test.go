package batch

import (
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"pcb-viewer/internal/camera"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/tutorial"
)

func testConfig(dir string) Config {
	return Config{
		OutputDir: dir,
		Load: func() (*scene.Node, error) {
			return scene.NewNode("Scene").Add(
				scene.NewBox("Microcontroller", mathutil.Vec3{-1, -1, -1}, mathutil.Vec3{1, 1, 1}),
			), nil
		},
		TargetSize: 10,
		Highlight:  mathutil.Vec3{1, 0, 0},
		Camera:     *camera.New(camera.DefaultLimits()),
		RenderSize: 32,
		Workers:    2,
	}
}

var steps = []tutorial.Step{
	{Part: "Microcontroller", Text: "brain"},
	{Part: "Crystal", Text: "clock"},
	{Part: "Microcontroller", Text: "again"},
}

func decode(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := nativewebp.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestRunHighlightsEachStep(t *testing.T) {
	dir := t.TempDir()
	results := Run(testConfig(dir), steps)

	if len(results) != len(steps) {
		t.Fatalf("got %d results, want %d", len(results), len(steps))
	}
	for i, r := range results {
		if !r.Success {
			t.Fatalf("step %d failed: %s", i, r.Error)
		}
		if r.Index != i || r.Part != steps[i].Part {
			t.Errorf("result %d = %+v", i, r)
		}
	}

	lit := decode(t, filepath.Join(dir, results[0].Image))
	plain := decode(t, filepath.Join(dir, results[1].Image))
	lr, lg, _, _ := lit.At(16, 16).RGBA()
	pr, pg, _, _ := plain.At(16, 16).RGBA()
	if lr <= pr || lr <= lg {
		t.Errorf("step 0 centre should be red-highlighted: lit r=%d g=%d, plain r=%d g=%d", lr, lg, pr, pg)
	}
	if pr > pg+pg/4 {
		t.Errorf("step 1 has no matching part and should not be red: r=%d g=%d", pr, pg)
	}
}

func TestRunLoadError(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Load = func() (*scene.Node, error) { return nil, errors.New("missing model") }
	for _, r := range Run(cfg, steps) {
		if r.Success || r.Error == "" {
			t.Errorf("result %+v should carry the load error", r)
		}
	}
}

func TestManifestAndTour(t *testing.T) {
	dir := t.TempDir()
	results := Run(testConfig(dir), steps)

	mpath := filepath.Join(dir, "manifest.json")
	if err := WriteManifest(mpath, steps, results); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	data, err := os.ReadFile(mpath)
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[1].Part != "Crystal" || entries[1].Image != "1.webp" || entries[0].Label != "Microcontroller" {
		t.Errorf("manifest = %+v", entries)
	}

	tour := filepath.Join(dir, "tour.webp")
	if err := WriteTour(tour, results, 1500*time.Millisecond); err != nil {
		t.Fatalf("WriteTour: %v", err)
	}
	head := make([]byte, 12)
	f, _ := os.Open(tour)
	defer f.Close()
	f.Read(head)
	if string(head[:4]) != "RIFF" || string(head[8:]) != "WEBP" {
		t.Errorf("tour header = %q", head)
	}

	if err := WriteTour(filepath.Join(dir, "empty.webp"), nil, time.Second); err == nil {
		t.Error("expected error for a tour with no frames")
	}
}
