package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(nil)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	if theme.Legend.Renderer != renderer {
		t.Error("legend styles should share the theme renderer")
	}
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"Primary": theme.Primary,
		"Border":  theme.Border,
		"Error":   theme.Error,
	} {
		if c.Light == "" && c.Dark == "" {
			t.Errorf("DefaultTheme %s color is empty", name)
		}
	}
	if theme.CanvasBg == "" {
		t.Error("canvas background is empty")
	}
}

func TestThemeColorsFollowProfile(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.ANSI
	if _, ok := ThemeBg("#282A36").(lipgloss.NoColor); !ok {
		t.Error("ThemeBg should drop the color below TrueColor")
	}
	if ThemeFg("#50FA7B") != lipgloss.ANSIColor(7) {
		t.Error("ThemeFg should fall back to ANSI white on 16-color terminals")
	}

	TermProfile = colorprofile.TrueColor
	if ThemeBg("#282A36") != lipgloss.Color("#282A36") {
		t.Error("ThemeBg should keep the color on TrueColor terminals")
	}
	if ThemeFg("#50FA7B") != lipgloss.Color("#50FA7B") {
		t.Error("ThemeFg should keep the color on TrueColor terminals")
	}
}

func TestRenderHelp(t *testing.T) {
	out := renderHelp(60)
	for _, want := range []string{"reload", "quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
