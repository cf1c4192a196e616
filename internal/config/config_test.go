package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	body := `{"model_path": "boards/uno.glb", "target_size": 4, "port": 9000, "highlight_color": "#00ff00"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModelPath != "boards/uno.glb" || cfg.TargetSize != 4 || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg := Config{BaseDir: "/srv/viewer"}
	cfg.Resolve(Flags{})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"model", cfg.ModelPath, filepath.Join("/srv/viewer", DefaultModelPath)},
		{"output", cfg.OutputDir, filepath.Join("/srv/viewer", "renders")},
		{"target", cfg.TargetSize, 10.0},
		{"colour", cfg.HighlightColor, "#ff0000"},
		{"min distance", cfg.MinDistance, 2.0},
		{"max distance", cfg.MaxDistance, 50.0},
		{"max polar", cfg.MaxPolarDeg, 90.0},
		{"render size", cfg.RenderSize, 512},
		{"supersample", cfg.Supersample, 2},
		{"port", cfg.Port, 8080},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if cfg.Workers <= 0 {
		t.Errorf("workers = %d, want NumCPU", cfg.Workers)
	}
	if cfg.TutorialFile != "" {
		t.Errorf("tutorial file = %q, want empty (built-in steps)", cfg.TutorialFile)
	}
}

func TestResolveFlagsOverride(t *testing.T) {
	cfg := Config{BaseDir: "/srv", ModelPath: "a.gltf", Port: 9000, RenderSize: 128}
	cfg.Resolve(Flags{ModelPath: "/abs/b.glb", Port: 7000, Tutorial: "steps.json"})

	if cfg.ModelPath != "/abs/b.glb" {
		t.Errorf("model = %q, want flag value", cfg.ModelPath)
	}
	if cfg.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Port)
	}
	if cfg.RenderSize != 128 {
		t.Errorf("render size = %d, want file value 128", cfg.RenderSize)
	}
	if cfg.TutorialFile != filepath.Join("/srv", "steps.json") {
		t.Errorf("tutorial = %q", cfg.TutorialFile)
	}
}
