package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# dv

Live force-directed view of a repository's file dependencies. Node colors
follow the file group; the sidebar lists files by the color they were drawn
with.

| Key | Action |
|-----|--------|
| ` + "`o`" + ` | open another repository |
| ` + "`r`" + ` | reload the current repository |
| ` + "`y`" + ` | copy the sidebar listing |
| ` + "`↑/↓ pgup/pgdn`" + ` | scroll the sidebar |
| ` + "`?`" + ` | toggle this help |
| ` + "`q`" + ` | quit |
`

// renderHelp renders the help overlay, falling back to the raw markdown
// when glamour cannot build a renderer.
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
