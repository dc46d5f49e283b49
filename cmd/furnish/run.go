package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phanxgames/furnish"
)

const (
	windowTitle    = "furnish"
	screenW        = 960
	screenH        = 640
	pixelsPerMeter = 80.0
	yawStep        = math.Pi / 12
	duplicateShift = 0.3 // meters along x, so the copy is visible from above
)

var (
	colorBackground = color.RGBA{0x1c, 0x1a, 0x24, 0xff}
	colorGrid       = color.RGBA{0x2e, 0x2b, 0x3a, 0xff}
	colorReticle    = color.RGBA{0x7f, 0xd8, 0xff, 0xff}
	colorActive     = color.RGBA{0xff, 0xd4, 0x4a, 0xff}
)

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	var noPreload bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the desktop placement shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(v)
			if err != nil {
				return err
			}
			if !noPreload {
				a.preload(cmd.Context())
			}
			sh := newShell(cmd.Context(), a)
			defer sh.session.Close()

			ebiten.SetWindowSize(screenW, screenH)
			ebiten.SetWindowTitle(windowTitle)
			return ebiten.RunGame(sh)
		},
	}
	cmd.Flags().BoolVar(&noPreload, "no-preload", false, "Load models on first selection instead of at startup")
	return cmd
}

// shell implements ebiten.Game: a top-down view of the room where the floor
// under the cursor stands in for the AR hit-test surface.
type shell struct {
	ctx      context.Context
	app      *app
	session  *furnish.Session
	gestures *furnish.GestureController
	surface  furnish.StaticSurface
	touches  furnish.TouchSampler
	items    []furnish.CatalogItem
	yaw      float64
	status   string
}

func newShell(ctx context.Context, a *app) *shell {
	s, g := a.newSession()
	sh := &shell{
		ctx:      ctx,
		app:      a,
		session:  s,
		gestures: g,
		items:    a.catalog.Items(),
	}
	sh.touches.IncludeMouse = true
	s.SetSurfaceTracker(&sh.surface)
	return sh
}

func (sh *shell) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	cx, cy := ebiten.CursorPosition()
	if cx >= 0 && cy >= 0 && cx < screenW && cy < screenH {
		sh.surface.Set(furnish.NewPose(screenToFloor(float64(cx), float64(cy)), sh.yaw))
	} else {
		sh.surface.Lose()
	}

	sh.handleKeys()

	// Taps resolve before gesture sampling so a drag that starts on an item
	// already targets it.
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		sh.tap(float64(cx), float64(cy))
	}
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		if len(ebiten.AppendTouchIDs(nil)) == 1 {
			x, y := ebiten.TouchPosition(id)
			sh.tap(float64(x), float64(y))
		}
	}
	for _, ev := range sh.touches.Sample() {
		sh.gestures.HandlePointer(ev)
	}

	sh.session.Update(dt)
	return nil
}

func (sh *shell) handleKeys() {
	for i, key := range digitKeys {
		if inpututil.IsKeyJustPressed(key) && i < len(sh.items) {
			sh.report(sh.session.Select(sh.ctx, sh.items[i].Key()))
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		_, err := sh.session.ConfirmPlace()
		sh.report(err)
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		if sh.session.Armed() {
			sh.session.Cancel()
		} else {
			sh.session.ClearActive()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete), inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		if !sh.session.DeleteActive() {
			sh.report(furnish.ErrNoActiveObject)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		c, err := sh.session.DuplicateActive()
		if err == nil {
			c.Position[0] += duplicateShift
		}
		sh.report(err)
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		sh.report(sh.session.ActivatePreview())
	case inpututil.IsKeyJustPressed(ebiten.KeyQ):
		sh.yaw -= yawStep
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		sh.yaw += yawStep
	}
}

// tap places the preview when there is one; otherwise it selects the item
// under the point, or deselects on empty floor.
func (sh *shell) tap(x, y float64) {
	if sh.session.State() == furnish.StatePreviewing {
		_, err := sh.session.ConfirmPlace()
		sh.report(err)
		return
	}
	p := screenToFloor(x, y)
	if hit := sh.session.PickGround(p[0], p[2]); hit != nil {
		sh.report(sh.session.SelectActive(hit))
		return
	}
	sh.session.ClearActive()
}

func (sh *shell) report(err error) {
	switch {
	case err == nil:
		sh.status = ""
	case errors.Is(err, furnish.ErrNoActiveSurface):
		sh.status = "cannot place here"
	default:
		sh.status = err.Error()
	}
}

func (sh *shell) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	drawGrid(screen)

	active := sh.session.Active()
	for _, p := range sh.session.Placed() {
		drawItem(screen, p, p == active)
	}
	if p := sh.session.Preview(); p != nil && p.Visible {
		drawItem(screen, p, p == active)
	}
	if pose, ok := sh.session.Reticle(); ok {
		x, y := floorToScreen(pose.Position)
		vector.StrokeCircle(screen, x, y, 10, 2, colorReticle, true)
	}

	ebitenutil.DebugPrintAt(screen, sh.hud(), 8, 8)
}

func (sh *shell) hud() string {
	var b strings.Builder
	for i, item := range sh.items {
		if i >= len(digitKeys) {
			break
		}
		mark := " "
		if key, ok := sh.session.Pending(); ok && key == item.Key() {
			mark = "~"
		} else if p := sh.session.Preview(); p != nil && p.Item == item.Key() {
			mark = ">"
		}
		fmt.Fprintf(&b, "%s%d %s\n", mark, i+1, item.Key())
	}
	fmt.Fprintf(&b, "\nstate: %s  placed: %d  gesture: %s\n",
		sh.session.State(), len(sh.session.Placed()), sh.gestures.Mode())
	if a := sh.session.Active(); a != nil {
		fmt.Fprintf(&b, "active: %s #%d scale %.2f\n", a.Item, a.PlacementID, a.Scale[0])
	}
	if sh.status != "" {
		fmt.Fprintf(&b, "%s\n", sh.status)
	}
	fmt.Fprintf(&b, "FPS: %.0f  TPS: %.0f", ebiten.ActualFPS(), ebiten.ActualTPS())
	return b.String()
}

func (sh *shell) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

// --- Drawing ---

func screenToFloor(x, y float64) mgl64.Vec3 {
	return mgl64.Vec3{(x - screenW/2) / pixelsPerMeter, 0, (y - screenH/2) / pixelsPerMeter}
}

func floorToScreen(p mgl64.Vec3) (float32, float32) {
	return float32(screenW/2 + p[0]*pixelsPerMeter), float32(screenH/2 + p[2]*pixelsPerMeter)
}

func drawGrid(screen *ebiten.Image) {
	for x := math.Mod(screenW/2, pixelsPerMeter); x < screenW; x += pixelsPerMeter {
		vector.StrokeLine(screen, float32(x), 0, float32(x), screenH, 1, colorGrid, false)
	}
	for y := math.Mod(screenH/2, pixelsPerMeter); y < screenH; y += pixelsPerMeter {
		vector.StrokeLine(screen, 0, float32(y), screenW, float32(y), 1, colorGrid, false)
	}
}

// drawItem draws the item's world footprint tinted by its material, with a
// tick showing its heading.
func drawItem(screen *ebiten.Image, n *furnish.Node, active bool) {
	box := n.WorldBounds()
	if box.IsEmpty() {
		return
	}
	x0, y0 := floorToScreen(box.Min)
	x1, y1 := floorToScreen(box.Max)
	vector.DrawFilledRect(screen, x0, y0, x1-x0, y1-y0, nodeColor(n), true)
	if active {
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 2, colorActive, true)
	}

	center := box.Center()
	yaw := n.Yaw()
	half := math.Min(box.Size()[0], box.Size()[2]) / 2
	tip := center.Add(mgl64.Vec3{math.Sin(yaw) * half, 0, math.Cos(yaw) * half})
	cx, cy := floorToScreen(center)
	tx, ty := floorToScreen(tip)
	vector.StrokeLine(screen, cx, cy, tx, ty, 2, color.White, true)
}

func nodeColor(n *furnish.Node) color.Color {
	c := furnish.ColorWhite
	if meshes := n.Meshes(); len(meshes) > 0 && meshes[0].Material != nil {
		c = meshes[0].Material.Color
	}
	a := furnish.Opacity(n)
	return color.NRGBA{
		R: uint8(mgl64.Clamp(c.R, 0, 1) * 0xff),
		G: uint8(mgl64.Clamp(c.G, 0, 1) * 0xff),
		B: uint8(mgl64.Clamp(c.B, 0, 1) * 0xff),
		A: uint8(mgl64.Clamp(a, 0, 1) * 0xff),
	}
}
