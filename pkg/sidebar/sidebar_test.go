package sidebar

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/depview/pkg/colorindex"
	"github.com/vanderheijden86/depview/pkg/palette"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"pgregory.net/rapid"
)

func TestAggregate_Scenario(t *testing.T) {
	index := colorindex.Index{"a": "#1f78b4", "b": "#1f78b4", "c": "#33a02c"}
	got := Aggregate(index, []string{"a", "b", "c"})

	want := Table{Groups: []Group{
		{Color: "#1f78b4", IDs: []string{"a", "b"}},
		{Color: "#33a02c", IDs: []string{"c"}},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aggregate = %+v, want %+v", got, want)
	}
}

func TestAggregate_Placeholder(t *testing.T) {
	index := colorindex.Index{"b": "#1f78b4"}
	got := Aggregate(index, []string{"a", "b", "c"})

	g, ok := got.Find(palette.Placeholder)
	if !ok {
		t.Fatalf("missing placeholder group in %+v", got)
	}
	if !reflect.DeepEqual(g.IDs, []string{"a", "c"}) {
		t.Errorf("placeholder ids = %v", g.IDs)
	}
	if got.Groups[0].Color != palette.Placeholder {
		t.Errorf("groups should follow first appearance, got %+v", got.Groups)
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil, nil); got.Len() != 0 {
		t.Errorf("expected empty table, got %+v", got)
	}
	if got := Aggregate(colorindex.Index{"x": "#000000"}, nil); got.Len() != 0 {
		t.Errorf("ids outside the order should not appear: %+v", got)
	}
}

func TestAggregate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		order := make([]string, n)
		index := colorindex.Index{}
		for i := range order {
			order[i] = fmt.Sprintf("n%d", i)
			if rapid.Bool().Draw(t, "drawn") {
				index[order[i]] = rapid.SampledFrom(palette.Paired[:4]).Draw(t, "color")
			}
		}

		first := Aggregate(index, order)
		second := Aggregate(index, order)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("not deterministic: %+v vs %+v", first, second)
		}

		count := make(map[string]int)
		for _, g := range first.Groups {
			last := -1
			for _, id := range g.IDs {
				count[id]++
				want, ok := index[id]
				if !ok {
					want = palette.Placeholder
				}
				if want != g.Color {
					t.Fatalf("%s listed under %s, committed %s", id, g.Color, want)
				}
				var pos int
				fmt.Sscanf(id, "n%d", &pos)
				if pos <= last {
					t.Fatalf("group %s out of order: %v", g.Color, g.IDs)
				}
				last = pos
			}
		}
		for _, id := range order {
			if count[id] != 1 {
				t.Fatalf("%s appears %d times", id, count[id])
			}
		}
	})
}

func TestTable_Text(t *testing.T) {
	tbl := Table{Groups: []Group{
		{Color: "#1f78b4", IDs: []string{"a", "b"}},
		{Color: "grey", IDs: []string{"c"}},
	}}
	want := "#1f78b4\n  a\n  b\n\ngrey\n  c\n"
	if got := tbl.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestRenderLegend(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	st := DefaultStyles(r)
	tbl := Table{Groups: []Group{
		{Color: "#1f78b4", IDs: []string{"src/main.go", "src/very/long/path/to/some/deeply/nested/file.go"}},
		{Color: palette.Placeholder, IDs: []string{"c"}},
	}}

	out := RenderLegend(tbl, 24, st)
	if !strings.Contains(out, Title) {
		t.Errorf("missing title:\n%s", out)
	}
	for _, want := range []string{"#1f78b4", "src/main.go", "grey", "…"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if w := runewidth.StringWidth(line); w > 24 {
			t.Errorf("line %q is %d columns wide", line, w)
		}
	}

	empty := RenderLegend(Table{}, 30, st)
	if !strings.Contains(empty, "no nodes drawn yet") {
		t.Errorf("empty legend = %q", empty)
	}
}

func TestSwatchColor(t *testing.T) {
	if SwatchColor(palette.Placeholder) != placeholderHex {
		t.Error("placeholder should draw grey")
	}
	if SwatchColor("#123456") != "#123456" {
		t.Error("hex colors pass through")
	}
}
