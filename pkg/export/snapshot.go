// Package export renders a settled dependency graph to static files.
//
// Export runs the same frame loop as the terminal view without a display:
// the layout is stepped for a fixed number of frames, each frame is drawn and
// committed, and the final frame is written as PNG or SVG together with the
// "Files by Node Color" legend.
package export

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/depview/pkg/colorindex"
	"github.com/vanderheijden86/depview/pkg/debug"
	"github.com/vanderheijden86/depview/pkg/layout"
	"github.com/vanderheijden86/depview/pkg/model"
	"github.com/vanderheijden86/depview/pkg/palette"
	"github.com/vanderheijden86/depview/pkg/render"
	"github.com/vanderheijden86/depview/pkg/sidebar"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"
)

// Options controls snapshot export.
type Options struct {
	Paths   []string          // Output paths; format inferred from each extension
	Title   string            // Header text; defaults to "Dependency Graph for <repo>"
	Frames  int               // Frames to simulate before writing; default 300
	Width   int               // Canvas width, default 1280
	Height  int               // Canvas height, default 800
	Sidebar int               // Legend width, default 250
	Header  int               // Title height, default 80
	Layout  layout.Options    // Force parameters
	Render  render.Options    // Node and arrow sizes
	Palette *palette.Assigner // Group colors; defaults to categorical over snap's groups
}

func (o Options) withDefaults() Options {
	if o.Frames <= 0 {
		o.Frames = 300
	}
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.Sidebar <= 0 {
		o.Sidebar = 250
	}
	if o.Header <= 0 {
		o.Header = 80
	}
	return o
}

// Result summarizes an export.
type Result struct {
	Frames  int64
	Commits int
	Table   sidebar.Table
	Written []string
}

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

// Title returns the header text for repo.
func Title(repo string) string {
	if repo == "" {
		return "Dependency Graph"
	}
	return "Dependency Graph for " + repo
}

// Format returns "png", "svg" or "mermaid" for path. Paths without an
// extension are treated as SVG.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".svg", "":
		return "svg", nil
	case ".png":
		return "png", nil
	case ".mmd", ".mermaid":
		return "mermaid", nil
	default:
		return "", fmt.Errorf("unsupported format %q (want .svg, .png or .mmd)", ext)
	}
}

// Run simulates the graph and writes every requested file.
func Run(ctx context.Context, snap *model.Snapshot, opts Options) (Result, error) {
	if snap == nil {
		return Result{}, fmt.Errorf("no graph to export")
	}
	if len(opts.Paths) == 0 {
		return Result{}, fmt.Errorf("output path is required")
	}
	opts = opts.withDefaults()
	if opts.Palette == nil {
		opts.Palette = palette.New(palette.WithGroups(snap.Groups()...))
	}
	paths := make([]string, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		if _, err := Format(p); err != nil {
			return Result{}, err
		}
		if filepath.Ext(p) == "" {
			p += ".svg"
		}
		paths = append(paths, p)
	}
	if opts.Title == "" {
		opts.Title = Title(snap.Repo)
	}

	world := render.Viewport{
		Width:  float64(opts.Width - opts.Sidebar),
		Height: float64(opts.Height - opts.Header),
	}
	engine := layout.New(opts.Layout)
	engine.SetViewport(world.Width, world.Height)
	engine.Start(snap)

	buf := colorindex.NewBuffer()
	loop := render.NewLoop(opts.Palette, buf, opts.Render)
	rec := &render.Recorder{}
	for i := 0; i < opts.Frames; i++ {
		if err := ctx.Err(); err != nil {
			engine.Stop()
			buf.Close()
			return Result{}, err
		}
		engine.Step()
		stats := loop.DrawFrame(rec, snap)
		if buf.Schedule(stats.Frame) {
			buf.Commit(stats.Frame)
		}
	}
	engine.Stop()
	buf.Close()

	res := Result{
		Frames:  loop.Frames(),
		Commits: buf.Commits(),
		Table:   sidebar.Aggregate(buf.Published(), snap.Order()),
	}
	debug.Log("export: %d frames, %d commits, %d groups", res.Frames, res.Commits, res.Table.Len())

	// The layout is stopped, so every writer only reads positions.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return write(path, snap, world, res.Table, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Written = paths
	return res, nil
}

func write(path string, snap *model.Snapshot, world render.Viewport, table sidebar.Table, opts Options) error {
	format, _ := Format(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	// Each writer draws with its own buffer; colors come from the palette.
	loop := render.NewLoop(opts.Palette, colorindex.NewBuffer(), opts.Render)
	tf := render.Fit(world, 0, float64(opts.Header), world.Width, world.Height)

	switch format {
	case "mermaid":
		return writeMermaid(path, snap, table, opts)
	case "png":
		return writePNG(path, snap, loop, tf, table, opts)
	default:
		return writeSVG(path, snap, loop, tf, table, opts)
	}
}

func writePNG(path string, snap *model.Snapshot, loop *render.Loop, tf render.Transform, table sidebar.Table, opts Options) error {
	rc := render.NewRasterCanvas(opts.Width, opts.Height, tf, render.WithBackground(css(colorBackdrop)), render.WithLineWidth(1.2))
	loop.DrawFrame(rc, snap)

	dc := rc.Context()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(opts.Width)-32, float64(opts.Header)-24, 10)
	dc.Fill()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(truncate(opts.Title, (opts.Width-64)/7), 32, float64(opts.Header)/2+4, 0, 0.5)
	drawLegend(dc, table, opts)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rc.EncodePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func writeSVG(path string, snap *model.Snapshot, loop *render.Loop, tf render.Transform, table sidebar.Table, opts Options) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	sc := render.NewSVGCanvas(file, opts.Width, opts.Height, tf, css(colorBackdrop))
	loop.DrawFrame(sc, snap)

	canvas := sc.SVG()
	canvas.Roundrect(16, 16, opts.Width-32, opts.Header-24, 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(32, opts.Header/2+4, opts.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	drawLegendSVG(canvas, table, opts)
	sc.End()
	return nil
}

type legendRow struct {
	color  string
	label  string
	header bool
}

const legendRowHeight = 16

// legendRows flattens the table into rows that fit the canvas.
func legendRows(table sidebar.Table, opts Options) []legendRow {
	maxRows := (opts.Height - opts.Header - 48) / legendRowHeight
	maxChars := (opts.Sidebar - 48) / 7

	var rows []legendRow
	for _, g := range table.Groups {
		rows = append(rows, legendRow{color: g.Color, label: truncate(g.Color, maxChars), header: true})
		for _, id := range g.IDs {
			rows = append(rows, legendRow{color: g.Color, label: truncate(id, maxChars)})
		}
	}
	if maxRows > 0 && len(rows) > maxRows {
		more := len(rows) - maxRows + 1
		rows = append(rows[:maxRows-1], legendRow{label: fmt.Sprintf("... %d more", more)})
	}
	return rows
}

func drawLegend(dc *gg.Context, table sidebar.Table, opts Options) {
	x := float64(opts.Width-opts.Sidebar) + 8
	y := float64(opts.Header)
	w := float64(opts.Sidebar) - 24
	h := float64(opts.Height-opts.Header) - 16
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, w, h, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, w, h, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(sidebar.Title, x+12, y+18, 0, 0.5)
	for i, row := range legendRows(table, opts) {
		ry := y + 40 + float64(i*legendRowHeight)
		if row.header {
			dc.SetColor(render.ParseColor(sidebar.SwatchColor(row.color)))
			dc.DrawRoundedRectangle(x+12, ry-7, 12, 12, 3)
			dc.Fill()
			dc.SetColor(colorText)
			dc.DrawStringAnchored(row.label, x+30, ry, 0, 0.5)
			continue
		}
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(row.label, x+30, ry, 0, 0.5)
	}
}

func drawLegendSVG(canvas *svg.SVG, table sidebar.Table, opts Options) {
	x := opts.Width - opts.Sidebar + 8
	y := opts.Header
	canvas.Roundrect(x, y, opts.Sidebar-24, opts.Height-opts.Header-16, 10, 10,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+22, sidebar.Title, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, row := range legendRows(table, opts) {
		ry := y + 40 + i*legendRowHeight
		if row.header {
			canvas.Roundrect(x+12, ry-7, 12, 12, 3, 3, fmt.Sprintf("fill:%s", css(render.ParseColor(sidebar.SwatchColor(row.color)))))
			canvas.Text(x+30, ry+4, row.label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;font-weight:bold", css(colorText)))
			continue
		}
		canvas.Text(x+30, ry+4, row.label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
