// Package viewer ties the scene, camera, picker, highlighter, tutorial and
// feedback form into one session that front ends drive.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"strings"
	"sync"
	"time"

	"pcb-viewer/internal/analytics"
	"pcb-viewer/internal/camera"
	"pcb-viewer/internal/config"
	"pcb-viewer/internal/feedback"
	"pcb-viewer/internal/gltfload"
	"pcb-viewer/internal/highlight"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/normalize"
	"pcb-viewer/internal/pick"
	"pcb-viewer/internal/raster"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/tutorial"
)

// Options configures a Session.
type Options struct {
	ModelPath   string
	Steps       []tutorial.Step
	TargetSize  float64
	Highlight   mathutil.Vec3
	Limits      camera.Limits
	Background  color.NRGBA
	Supersample int
	Reporter    analytics.Reporter

	// Loader reads the model; nil means gltfload.Load.
	Loader func(path string) (*scene.Node, error)
}

// OptionsFromConfig builds session options from a resolved config. The
// tutorial file, when set, replaces the built-in steps.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	opts := Options{
		ModelPath:   cfg.ModelPath,
		Steps:       tutorial.Default(),
		TargetSize:  cfg.TargetSize,
		Supersample: cfg.Supersample,
		Limits: camera.Limits{
			MinDistance: cfg.MinDistance,
			MaxDistance: cfg.MaxDistance,
			MinPolar:    0,
			MaxPolar:    mathutil.Deg2Rad(cfg.MaxPolarDeg),
		},
		Reporter: analytics.LogReporter{},
	}

	c, err := highlight.ParseColor(cfg.HighlightColor)
	if err != nil {
		return Options{}, err
	}
	opts.Highlight = c

	if cfg.Background != "" {
		bg, err := highlight.ParseColor(cfg.Background)
		if err != nil {
			return Options{}, fmt.Errorf("viewer: background: %w", err)
		}
		opts.Background = color.NRGBA{uint8(bg[0]*255 + 0.5), uint8(bg[1]*255 + 0.5), uint8(bg[2]*255 + 0.5), 255}
	}

	if cfg.TutorialFile != "" {
		steps, err := tutorial.Load(cfg.TutorialFile)
		if err != nil {
			return Options{}, err
		}
		opts.Steps = steps
	}

	if cfg.AnalyticsURL != "" {
		opts.Reporter = analytics.NewHTTPReporter(cfg.AnalyticsURL)
	}
	return opts, nil
}

// StepState describes the current tutorial step for a UI overlay.
type StepState struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Part  string `json:"part"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Session is safe for concurrent use; every exported method holds the
// session lock for its whole duration.
type Session struct {
	mu sync.Mutex

	opts      Options
	root      *scene.Node
	norm      normalize.Result
	cam       *camera.Camera
	tut       *tutorial.Tutorial
	hl        *highlight.Highlighter
	form      *feedback.Form
	reporter  analytics.Reporter
	selection pick.Selection
}

// New creates a session with an empty scene. Call Open to load the model.
func New(opts Options) (*Session, error) {
	tut, err := tutorial.New(opts.Steps)
	if err != nil {
		return nil, err
	}
	if opts.TargetSize <= 0 {
		opts.TargetSize = 10
	}
	if opts.Reporter == nil {
		opts.Reporter = analytics.Nop{}
	}
	if opts.Loader == nil {
		opts.Loader = gltfload.Load
	}
	if opts.Limits == (camera.Limits{}) {
		opts.Limits = camera.DefaultLimits()
	}

	s := &Session{
		opts:      opts,
		root:      scene.NewNode(gltfload.RootName),
		cam:       camera.New(opts.Limits),
		tut:       tut,
		hl:        highlight.New(opts.Highlight),
		form:      feedback.NewForm(opts.Reporter),
		reporter:  opts.Reporter,
		selection: pick.NoSelection,
	}
	return s, nil
}

// Open loads the configured model. On failure the error is logged and
// returned, and the session keeps its empty scene; nothing is retried.
func (s *Session) Open() error {
	root, err := s.opts.Loader(s.opts.ModelPath)
	if err != nil {
		log.Printf("viewer: load model: %v", err)
		return err
	}
	s.SetScene(root)
	return nil
}

// SetScene installs root as the displayed model: it is normalized to the
// target size and the current step's part is highlighted.
func (s *Session) SetScene(root *scene.Node) {
	if root == nil {
		root = scene.NewNode(gltfload.RootName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := normalize.Normalize(root, s.opts.TargetSize)
	if err != nil {
		log.Printf("viewer: normalize: %v", err)
	}
	s.root = root
	s.norm = res
	s.selection = pick.NoSelection
	s.hl.Update(s.root, s.tut.Current().Part)

	st := root.Stats()
	log.Printf("viewer: scene ready: %d nodes, %d meshes, %d triangles, scale %.4g",
		st.Nodes, st.Meshes, st.Triangles, res.Scale)
}

// Frame is the per-frame update: it picks at the pointer (NDC, +y up),
// records the hovered part, and refreshes the highlight if the tutorial
// step changed since the last frame.
func (s *Session) Frame(ndcX, ndcY float64) pick.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame(s.cam.Ray(ndcX, ndcY))
}

// Pointer is Frame for a pixel position in a width×height viewport.
func (s *Session) Pointer(x, y float64, width, height int) pick.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam.SetAspect(width, height)
	nx, ny := camera.PixelToNDC(x, y, width, height)
	return s.frame(s.cam.Ray(nx, ny))
}

// Leave clears the hover state when the pointer exits the viewport.
func (s *Session) Leave() pick.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = pick.NoSelection
	s.hl.Update(s.root, s.tut.Current().Part)
	return s.selection
}

func (s *Session) frame(ray camera.Ray) pick.Selection {
	sel := pick.Select(pick.Pick(s.root, ray))
	if sel.Selected && sel.Part != s.selection.Part {
		s.reporter.Report(context.Background(), analytics.Event{
			Name:   analytics.EventPartSelected,
			Params: map[string]any{"part": sel.Part},
			Time:   time.Now(),
		})
	}
	s.selection = sel
	s.hl.Update(s.root, s.tut.Current().Part)
	return sel
}

// Selection returns the last hover result.
func (s *Session) Selection() pick.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Step returns the current tutorial step.
func (s *Session) Step() StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *Session) step() StepState {
	cur := s.tut.Current()
	return StepState{
		Index: s.tut.Index(),
		Total: s.tut.Len(),
		Part:  cur.Part,
		Label: tutorial.Label(cur.Part),
		Text:  cur.Text,
	}
}

// Next advances the tutorial (wrapping) and re-highlights.
func (s *Session) Next() StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tut.Next()
	return s.stepChanged("next")
}

// Prev retreats the tutorial (wrapping) and re-highlights.
func (s *Session) Prev() StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tut.Prev()
	return s.stepChanged("prev")
}

func (s *Session) stepChanged(dir string) StepState {
	st := s.step()
	s.hl.Update(s.root, st.Part)
	s.reporter.Report(context.Background(), analytics.Event{
		Name:   analytics.EventTutorialStep,
		Params: map[string]any{"direction": dir, "index": st.Index, "part": st.Part},
		Time:   time.Now(),
	})
	return st
}

// Highlighted returns the names of meshes currently lit.
func (s *Session) Highlighted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return highlight.Lit(s.root)
}

// Orbit rotates the camera by angle deltas in radians.
func (s *Session) Orbit(dAzimuth, dPolar float64) {
	s.mu.Lock()
	s.cam.Rotate(dAzimuth, dPolar)
	s.mu.Unlock()
}

// Pan moves the camera target by viewport fractions.
func (s *Session) Pan(dx, dy float64) {
	s.mu.Lock()
	s.cam.Pan(dx, dy)
	s.mu.Unlock()
}

// Zoom scales the camera distance.
func (s *Session) Zoom(factor float64) {
	s.mu.Lock()
	s.cam.Zoom(factor)
	s.mu.Unlock()
}

// Camera returns a copy of the current camera.
func (s *Session) Camera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cam
}

// Render draws the scene at width×height. With ids set the frame can
// answer PartAt queries.
func (s *Session) Render(width, height int, ids bool) *raster.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam.SetAspect(width, height)
	return raster.Render(s.root, s.cam, raster.Options{
		Width:       width,
		Height:      height,
		Supersample: s.opts.Supersample,
		Background:  s.opts.Background,
		IDs:         ids,
	})
}

// SubmitFeedback fills the form and submits it. On a validation error the
// form keeps the submitted values.
func (s *Session) SubmitFeedback(ctx context.Context, text string, rating int) (feedback.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Text = text
	s.form.Rating = rating
	return s.form.Submit(ctx)
}

// Form returns a copy of the feedback form's contents.
func (s *Session) Form() (text string, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Text, s.form.Rating
}

// Info summarises the loaded scene.
type Info struct {
	Stats     scene.Stats
	Parts     []string
	Bounds    scene.AABB
	Scale     float64
	Center    mathutil.Vec3
	Highlight []string
}

// Info reports what is loaded, the normalization applied, and the mesh
// names in traversal order (duplicates removed).
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		Stats:     s.root.Stats(),
		Bounds:    s.norm.Bounds,
		Scale:     s.norm.Scale,
		Center:    s.norm.Center,
		Highlight: highlight.Lit(s.root),
	}
	seen := make(map[string]bool)
	for _, n := range s.root.Meshes() {
		name := strings.TrimSpace(n.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		info.Parts = append(info.Parts, name)
	}
	return info
}
