// Package config loads viewer settings from a JSON file and merges CLI
// overrides on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultModelPath is where the board model is looked for when nothing is
// configured.
const DefaultModelPath = "model/cB.gltf"

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	BaseDir      string `json:"base_dir"`
	ModelPath    string `json:"model_path"`
	TutorialFile string `json:"tutorial_file"`
	OutputDir    string `json:"output_dir"`

	// Scene
	TargetSize     float64 `json:"target_size"`
	HighlightColor string  `json:"highlight_color"`
	Background     string  `json:"background"`

	// Camera
	MinDistance float64 `json:"min_distance"`
	MaxDistance float64 `json:"max_distance"`
	MaxPolarDeg float64 `json:"max_polar_deg"`

	// Render settings
	RenderSize  int `json:"render_size"`
	Supersample int `json:"supersample"`
	Workers     int `json:"workers"`

	// Server
	Port         int    `json:"port"`
	AnalyticsURL string `json:"analytics_url"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir     string
	ModelPath   string
	Tutorial    string
	OutputDir   string
	RenderSize  int
	Supersample int
	Workers     int
	Port        int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.ModelPath != "" {
		c.ModelPath = flags.ModelPath
	}
	if flags.Tutorial != "" {
		c.TutorialFile = flags.Tutorial
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.RenderSize > 0 {
		c.RenderSize = flags.RenderSize
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Port > 0 {
		c.Port = flags.Port
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	c.ModelPath = c.abs(c.ModelPath)
	if c.TutorialFile != "" {
		c.TutorialFile = c.abs(c.TutorialFile)
	}
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	c.OutputDir = c.abs(c.OutputDir)

	if c.TargetSize <= 0 {
		c.TargetSize = 10
	}
	if c.HighlightColor == "" {
		c.HighlightColor = "#ff0000"
	}

	if c.MinDistance <= 0 {
		c.MinDistance = 2
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = 50
	}
	if c.MaxDistance < c.MinDistance {
		c.MaxDistance = c.MinDistance
	}
	if c.MaxPolarDeg <= 0 || c.MaxPolarDeg > 180 {
		c.MaxPolarDeg = 90
	}

	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Port <= 0 {
		c.Port = 8080
	}
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// detectBaseDir looks for the default model next to the executable, then in
// the working directory and its parent.
func detectBaseDir() string {
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if _, err := os.Stat(filepath.Join(base, DefaultModelPath)); err == nil {
				return base
			}
		}
	}

	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, DefaultModelPath)); err == nil {
		return cwd
	}

	parent := filepath.Dir(cwd)
	if _, err := os.Stat(filepath.Join(parent, DefaultModelPath)); err == nil {
		return parent
	}

	return ""
}
