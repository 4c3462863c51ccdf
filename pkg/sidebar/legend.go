package sidebar

import (
	"strings"

	"github.com/vanderheijden86/depview/pkg/palette"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Title heads the legend.
const Title = "Files by Node Color"

// placeholderHex is how the placeholder color is drawn.
const placeholderHex = "#808080"

// Styles controls legend rendering.
type Styles struct {
	Renderer *lipgloss.Renderer
	Title    lipgloss.Style
	Header   lipgloss.Style
	File     lipgloss.Style
	Empty    lipgloss.Style
}

// DefaultStyles returns legend styles bound to r. A nil renderer uses the
// lipgloss default.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Styles{
		Renderer: r,
		Title:    r.NewStyle().Bold(true).MarginBottom(1),
		Header:   r.NewStyle().Bold(true),
		File:     r.NewStyle().PaddingLeft(2),
		Empty:    r.NewStyle().Faint(true).Italic(true),
	}
}

// SwatchColor returns the hex color used to draw color.
func SwatchColor(color string) string {
	if color == palette.Placeholder {
		return placeholderHex
	}
	return color
}

// RenderLegend draws the table within width columns: a colored swatch and
// the color per group followed by its files.
func RenderLegend(t Table, width int, st Styles) string {
	if width < 4 {
		width = 4
	}
	var b strings.Builder
	b.WriteString(st.Title.Render(truncate(Title, width)))
	b.WriteByte('\n')

	if t.Len() == 0 {
		b.WriteString(st.Empty.Render(truncate("no nodes drawn yet", width)))
		return b.String()
	}

	for i, g := range t.Groups {
		if i > 0 {
			b.WriteByte('\n')
		}
		swatch := st.Renderer.NewStyle().Foreground(lipgloss.Color(SwatchColor(g.Color))).Render("██")
		b.WriteString(swatch)
		b.WriteByte(' ')
		b.WriteString(st.Header.Render(truncate(g.Color, width-3)))
		b.WriteByte('\n')
		for _, id := range g.IDs {
			b.WriteString(st.File.Render(truncate(id, width-2)))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncate shortens s to maxWidth display columns, ending with an ellipsis.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}
