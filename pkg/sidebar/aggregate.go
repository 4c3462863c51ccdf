// Package sidebar derives the "Files by Node Color" legend from the committed
// color index.
package sidebar

import (
	"strings"

	"github.com/vanderheijden86/depview/pkg/colorindex"
	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/palette"
)

// Group lists the node ids drawn with one color.
type Group struct {
	Color string
	IDs   []string
}

// Table is the legend content. It carries no state of its own; Aggregate
// rebuilds it from an Index.
type Table struct {
	Groups []Group
}

// Len returns the number of groups.
func (t Table) Len() int {
	return len(t.Groups)
}

// Find returns the group for color.
func (t Table) Find(color string) (Group, bool) {
	for _, g := range t.Groups {
		if g.Color == color {
			return g, true
		}
	}
	return Group{}, false
}

// Text renders the table as plain text, one color per block.
func (t Table) Text() string {
	var sb strings.Builder
	for i, g := range t.Groups {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(g.Color)
		sb.WriteByte('\n')
		for _, id := range g.IDs {
			sb.WriteString("  ")
			sb.WriteString(id)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Aggregate groups the ids in order by their committed color. Groups appear
// in order of first occurrence and keep ids in the given order. Ids missing
// from index are listed under palette.Placeholder. Repeated ids are counted
// once.
func Aggregate(index colorindex.Index, order []string) Table {
	defer metrics.SidebarAggregate.Time()()

	var t Table
	pos := make(map[string]int)
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		color, ok := index.Color(id)
		if !ok {
			color = palette.Placeholder
		}
		i, ok := pos[color]
		if !ok {
			i = len(t.Groups)
			pos[color] = i
			t.Groups = append(t.Groups, Group{Color: color})
		}
		t.Groups[i].IDs = append(t.Groups[i].IDs, id)
	}
	return t
}
