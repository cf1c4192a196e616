package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"pcb-viewer/internal/config"
	"pcb-viewer/internal/pick"
	"pcb-viewer/internal/viewer"
)

// errQuit ends RunGame without reporting a failure.
var errQuit = errors.New("quit")

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	model := flag.String("model", "", "Path to the .gltf/.glb model (default: model/cB.gltf)")
	steps := flag.String("tutorial", "", "Path to a tutorial steps JSON file (default: built-in)")
	size := flag.Int("size", 0, "Render width in pixels; height is 3/4 of it (default: 512)")
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{ModelPath: *model, Tutorial: *steps, RenderSize: *size})

	opts, err := viewer.OptionsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if opts.Background == (color.NRGBA{}) {
		opts.Background = color.NRGBA{24, 26, 32, 255}
	}
	// The window redraws often; keep interactive frames cheap.
	opts.Supersample = 1

	session, err := viewer.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.Open()

	g := &game{
		session: session,
		width:   cfg.RenderSize,
		height:  cfg.RenderSize * 3 / 4,
		dirty:   true,
		step:    session.Step(),
	}

	ebiten.SetWindowTitle("PCB Viewer")
	ebiten.SetWindowSize(g.width*2, g.height*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type game struct {
	session       *viewer.Session
	width, height int

	frame *ebiten.Image
	dirty bool

	dragX, dragY int
	dragging     ebiten.MouseButton
	isDragging   bool

	selection pick.Selection
	step      viewer.StepState
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.step = g.session.Next()
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		g.step = g.session.Prev()
		g.dirty = true
	}

	x, y := ebiten.CursorPosition()
	g.drag(x, y)

	if _, wy := ebiten.Wheel(); wy != 0 {
		factor := 1 / 1.1
		if wy < 0 {
			factor = 1.1
		}
		g.session.Zoom(factor)
		g.dirty = true
	}

	// Per-frame hover pick.
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		g.selection = g.session.Leave()
	} else {
		g.selection = g.session.Pointer(float64(x), float64(y), g.width, g.height)
	}
	if g.selection.Cursor == pick.CursorPointer {
		ebiten.SetCursorShape(ebiten.CursorShapePointer)
	} else {
		ebiten.SetCursorShape(ebiten.CursorShapeDefault)
	}
	return nil
}

// drag orbits with the left button and pans with the right.
func (g *game) drag(x, y int) {
	for _, b := range []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonRight} {
		if inpututil.IsMouseButtonJustPressed(b) {
			g.dragging, g.isDragging = b, true
			g.dragX, g.dragY = x, y
		}
	}
	if !g.isDragging {
		return
	}
	if !ebiten.IsMouseButtonPressed(g.dragging) {
		g.isDragging = false
		return
	}

	dx, dy := x-g.dragX, y-g.dragY
	if dx == 0 && dy == 0 {
		return
	}
	g.dragX, g.dragY = x, y
	if g.dragging == ebiten.MouseButtonRight {
		g.session.Pan(float64(dx)/float64(g.width), float64(dy)/float64(g.height))
	} else {
		g.session.Orbit(-float64(dx)*0.01, -float64(dy)*0.01)
	}
	g.dirty = true
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		g.frame = ebiten.NewImage(g.width, g.height)
	}
	if g.dirty {
		img := g.session.Render(g.width, g.height, false).Image
		g.frame.WritePixels(img.Pix)
		g.dirty = false
	}
	screen.DrawImage(g.frame, nil)

	hovered := "none"
	if g.selection.Selected {
		hovered = g.selection.Part
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"Hovered: %s\nStep %d/%d: %s\n%s\n\n<-/-> steps, drag orbit, right-drag pan, wheel zoom",
		hovered, g.step.Index+1, g.step.Total, g.step.Label, g.step.Text))
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
