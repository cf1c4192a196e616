package viewer

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"pcb-viewer/internal/analytics"
	"pcb-viewer/internal/feedback"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/normalize"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/tutorial"
)

var testSteps = []tutorial.Step{
	{Part: "Microcontroller", Text: "the brain"},
	{Part: "LED", Text: "the light"},
	{Part: "Crystal", Text: "the clock"},
}

// testBoard is 40 units wide so normalization has visible work to do.
func testBoard() *scene.Node {
	root := scene.NewNode("Scene")
	root.Add(
		scene.NewBox("Board", mathutil.Vec3{-20, -1, -10}, mathutil.Vec3{20, 0, 10}),
		scene.NewBox("Microcontroller", mathutil.Vec3{-4, 0, -4}, mathutil.Vec3{4, 2, 4}),
		scene.NewBox("LED", mathutil.Vec3{12, 0, 4}, mathutil.Vec3{14, 2, 6}),
	)
	return root
}

func newSession(t *testing.T, rec *analytics.Recorder) *Session {
	t.Helper()
	s, err := New(Options{
		ModelPath: "board.gltf",
		Steps:     testSteps,
		Reporter:  rec,
		Loader:    func(string) (*scene.Node, error) { return testBoard(), nil },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestNewRequiresSteps(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, tutorial.ErrNoSteps) {
		t.Errorf("err = %v, want ErrNoSteps", err)
	}
}

func TestOpenNormalizesAndHighlights(t *testing.T) {
	s := newSession(t, &analytics.Recorder{})

	info := s.Info()
	if math.Abs(info.Scale-10.0/40) > 1e-9 {
		t.Errorf("scale = %v, want 0.25", info.Scale)
	}
	want := []string{"Board", "Microcontroller", "LED"}
	if !reflect.DeepEqual(info.Parts, want) {
		t.Errorf("parts = %v, want %v", info.Parts, want)
	}
	if got := s.Highlighted(); !reflect.DeepEqual(got, []string{"Microcontroller"}) {
		t.Errorf("highlighted = %v, want [Microcontroller]", got)
	}

	s.mu.Lock()
	wb := s.root.WorldBounds()
	s.mu.Unlock()
	if !wb.Center().ApproxEqual(mathutil.Vec3{}, 1e-9) {
		t.Errorf("world centre = %v, want origin", wb.Center())
	}
	if math.Abs(wb.MaxExtent()-10) > 1e-9 {
		t.Errorf("max extent = %v, want 10", wb.MaxExtent())
	}
}

func TestOpenFailureKeepsEmptyScene(t *testing.T) {
	s, err := New(Options{
		Steps:  testSteps,
		Loader: func(string) (*scene.Node, error) { return nil, errors.New("no such file") },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Open(); err == nil {
		t.Fatal("expected load error")
	}
	if sel := s.Frame(0, 0); sel.Selected {
		t.Errorf("empty scene produced a selection: %+v", sel)
	}
	if got := s.Render(16, 16, false).Image.Bounds().Dx(); got != 16 {
		t.Errorf("render width = %d", got)
	}
}

func TestFrameSelection(t *testing.T) {
	rec := &analytics.Recorder{}
	s := newSession(t, rec)

	// The default camera looks at the origin, where the microcontroller sits.
	sel := s.Frame(0, 0)
	if !sel.Selected || sel.Part != "Microcontroller" || sel.Cursor != "pointer" {
		t.Errorf("centre selection = %+v", sel)
	}

	miss := s.Frame(0.99, 0.99)
	if miss.Selected || miss.Part != "" || miss.Cursor != "default" {
		t.Errorf("corner selection = %+v, want no selection", miss)
	}

	var selected int
	for _, e := range rec.Events() {
		if e.Name == analytics.EventPartSelected {
			selected++
		}
	}
	if selected != 1 {
		t.Errorf("part_selected events = %d, want 1", selected)
	}
}

func TestPointerMatchesRender(t *testing.T) {
	s := newSession(t, &analytics.Recorder{})
	f := s.Render(64, 48, true)
	for _, p := range [][2]int{{32, 24}, {1, 1}, {32, 1}} {
		want := f.PartAt(p[0], p[1])
		got := s.Pointer(float64(p[0]), float64(p[1]), 64, 48)
		if got.Part != want {
			t.Errorf("pixel %v: pick %q, id buffer %q", p, got.Part, want)
		}
	}
}

func TestTutorialSteps(t *testing.T) {
	rec := &analytics.Recorder{}
	s := newSession(t, rec)

	st := s.Prev()
	if st.Index != 2 || st.Part != "Crystal" {
		t.Errorf("Prev from 0 = %+v, want last step", st)
	}
	if got := s.Highlighted(); len(got) != 0 {
		t.Errorf("no mesh named Crystal, highlighted = %v", got)
	}

	st = s.Next()
	if st.Index != 0 || st.Label != "Microcontroller" || st.Total != 3 {
		t.Errorf("Next from last = %+v, want first step", st)
	}

	st = s.Next()
	if st.Part != "LED" {
		t.Errorf("step = %+v", st)
	}
	if got := s.Highlighted(); !reflect.DeepEqual(got, []string{"LED"}) {
		t.Errorf("highlighted = %v, want [LED]", got)
	}

	var steps int
	for _, e := range rec.Events() {
		if e.Name == analytics.EventTutorialStep {
			steps++
		}
	}
	if steps != 3 {
		t.Errorf("tutorial_step events = %d, want 3", steps)
	}
}

func TestSubmitFeedback(t *testing.T) {
	rec := &analytics.Recorder{}
	s := newSession(t, rec)

	if _, err := s.SubmitFeedback(context.Background(), "great", 9); !errors.Is(err, feedback.ErrRating) {
		t.Errorf("err = %v, want ErrRating", err)
	}
	if text, rating := s.Form(); text != "great" || rating != 9 {
		t.Errorf("form after error = %q/%d, want values kept", text, rating)
	}

	ack, err := s.SubmitFeedback(context.Background(), "great", 5)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ack.Message != feedback.ThankYou {
		t.Errorf("ack = %q", ack.Message)
	}
	if text, rating := s.Form(); text != "" || rating != 0 {
		t.Errorf("form not cleared: %q/%d", text, rating)
	}
}

func TestCameraControls(t *testing.T) {
	s := newSession(t, &analytics.Recorder{})
	before := s.Camera()
	s.Zoom(0.5)
	s.Orbit(0.3, 0)
	after := s.Camera()
	if after.Distance >= before.Distance {
		t.Errorf("zoom in did not reduce distance: %v -> %v", before.Distance, after.Distance)
	}
	if after.Azimuth == before.Azimuth {
		t.Error("orbit did not change azimuth")
	}
}

func TestSetSceneDegenerate(t *testing.T) {
	s := newSession(t, &analytics.Recorder{})
	empty := scene.NewNode("Scene")
	s.SetScene(empty)
	if s.Info().Stats.Meshes != 0 {
		t.Error("expected empty scene")
	}
	if b := normalize.Bounds(empty); !b.IsEmpty() {
		t.Errorf("bounds = %v, want empty", b)
	}
}
