package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/physics"
	"github.com/lixenwraith/vi-cloth/status"
)

const (
	hudRows   = 1
	nodeGlyph = '●'
	linkGlyph = '·'
	// margin is the fraction of the world extent left empty around the cloth
	margin = 0.08
)

// View draws cloth frames onto a tcell screen as an orthographic x/y projection, y up
type View struct {
	screen tcell.Screen

	minX, maxX float32
	minY, maxY float32
}

// NewView fits the rest extent of cfg plus the pull headroom into the screen
func NewView(screen tcell.Screen, cfg physics.Config) *View {
	w := float32(cfg.Width-1) * cfg.Spacing
	h := float32(cfg.Height-1)*cfg.Spacing + cfg.MaxPullDistance
	padX := max(w*margin, cfg.Spacing)
	padY := max(h*margin, cfg.Spacing)
	return &View{
		screen: screen,
		minX:   -padX,
		maxX:   w + padX,
		minY:   -padY,
		maxY:   h + padY,
	}
}

// Project maps a world position to a screen cell below the HUD
// ok is false when the position falls outside the drawable area
func (v *View) Project(p mgl32.Vec3, screenW, screenH int) (x, y int, ok bool) {
	rows := screenH - hudRows
	if screenW <= 0 || rows <= 0 {
		return 0, 0, false
	}
	u := (p.X() - v.minX) / (v.maxX - v.minX)
	t := (p.Y() - v.minY) / (v.maxY - v.minY)
	if !(u >= 0 && u <= 1 && t >= 0 && t <= 1) {
		return 0, 0, false
	}
	x = int(u * float32(screenW-1))
	y = hudRows + int((1-t)*float32(rows-1))
	return x, y, true
}

// Draw renders a frame and the status line, then shows the screen
func (v *View) Draw(frame engine.Frame, snap status.Snapshot) {
	s := v.screen
	s.Clear()
	sw, sh := s.Size()

	bg := tcell.StyleDefault.Background(RgbBackground)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			s.SetContent(x, y, ' ', nil, bg)
		}
	}

	linkStyle := bg.Foreground(RgbLink)
	for row := 0; row < frame.Height; row++ {
		for col := 0; col < frame.Width; col++ {
			p := frame.At(row, col)
			if col+1 < frame.Width {
				v.line(p, frame.At(row, col+1), sw, sh, linkStyle)
			}
			if row+1 < frame.Height {
				v.line(p, frame.At(row+1, col), sw, sh, linkStyle)
			}
		}
	}

	for row := 0; row < frame.Height; row++ {
		style := bg.Foreground(NodeColor(row, frame.Height, frame.Capped))
		for col := 0; col < frame.Width; col++ {
			if x, y, ok := v.Project(frame.At(row, col), sw, sh); ok {
				s.SetContent(x, y, nodeGlyph, nil, style)
			}
		}
	}

	v.drawStatus(snap, sw)
	s.Show()
}

// line rasterizes a link between two nodes without overwriting node glyphs drawn later
func (v *View) line(a, b mgl32.Vec3, sw, sh int, style tcell.Style) {
	x0, y0, ok0 := v.Project(a, sw, sh)
	x1, y1, ok1 := v.Project(b, sw, sh)
	if !ok0 || !ok1 {
		return
	}
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	for {
		v.screen.SetContent(x0, y0, linkGlyph, nil, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (v *View) drawStatus(snap status.Snapshot, sw int) {
	text := fmt.Sprintf(" tick %d  residual %.3g  stretch %.4f (peak %.4f)  step %.0fus",
		snap.Ticks, snap.Residual, snap.MaxStretch, snap.PeakStretch, snap.StepMicros)
	switch {
	case snap.Halted:
		text += "  [HALTED]"
	case snap.Paused:
		text += "  [paused]"
	}
	text += "  q quit  r reset  space pause  p pull"
	Text(v.screen, 0, 0, sw, text, tcell.StyleDefault.Foreground(RgbStatusBar).Background(RgbBackground))
}

// Text writes s starting at (x, y), clipped to width cells
func Text(screen tcell.Screen, x, y, width int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
