package render

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TerminalCanvas rasterizes a frame at two pixels per cell and presents it
// with upper half-block characters: foreground is the top pixel, background
// the bottom one.
type TerminalCanvas struct {
	*RasterCanvas
	cols, rows int
	renderer   *lipgloss.Renderer
	styles     map[[2]color.RGBA]lipgloss.Style
}

// World size of one terminal cell; cells are about twice as tall as wide.
const (
	CellWorldWidth  = 8
	CellWorldHeight = 16
)

// TerminalViewport returns the world area covered by cols by rows cells.
func TerminalViewport(cols, rows int) Viewport {
	return Viewport{Width: float64(cols * CellWorldWidth), Height: float64(rows * CellWorldHeight)}
}

// NewTerminalCanvas returns a canvas of cols by rows cells showing the world
// viewport. A nil renderer uses the lipgloss default.
func NewTerminalCanvas(cols, rows int, world Viewport, r *lipgloss.Renderer, background string) *TerminalCanvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	if background == "" {
		background = "#000000"
	}
	tf := Fit(world, 0, 0, float64(cols), float64(rows*2))
	return &TerminalCanvas{
		RasterCanvas: NewRasterCanvas(cols, rows*2, tf, WithBackground(background), WithMinRadius(1), WithLineWidth(0.6)),
		cols:         cols,
		rows:         rows,
		renderer:     r,
		styles:       make(map[[2]color.RGBA]lipgloss.Style),
	}
}

// Size returns the canvas size in cells.
func (tc *TerminalCanvas) Size() (cols, rows int) {
	return tc.cols, tc.rows
}

// View renders the last frame as rows lines of cols cells.
func (tc *TerminalCanvas) View() string {
	img := tc.Image()
	bg := tc.Background()
	var b strings.Builder
	for row := 0; row < tc.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		// Consecutive cells with the same colors share one styled run.
		var run strings.Builder
		var runKey [2]color.RGBA
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(tc.style(runKey[0], runKey[1]).Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < tc.cols; col++ {
			key := [2]color.RGBA{rgba(img.At(col, row*2)), rgba(img.At(col, row*2+1))}
			if key != runKey {
				flush()
				runKey = key
			}
			if key[0] == bg && key[1] == bg {
				run.WriteByte(' ')
			} else {
				run.WriteString("▀")
			}
		}
		flush()
	}
	return b.String()
}

func (tc *TerminalCanvas) style(fg, bg color.RGBA) lipgloss.Style {
	key := [2]color.RGBA{fg, bg}
	if st, ok := tc.styles[key]; ok {
		return st
	}
	st := tc.renderer.NewStyle().
		Foreground(lipgloss.Color(css(fg))).
		Background(lipgloss.Color(css(bg)))
	tc.styles[key] = st
	return st
}

func rgba(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
}
