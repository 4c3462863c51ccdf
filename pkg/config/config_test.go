package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/depview/pkg/palette"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.BaseURL != "http://localhost:5000" {
		t.Errorf("expected default base url, got %q", cfg.Server.BaseURL)
	}
	if cfg.Render.NodeRadius != 5 {
		t.Errorf("expected node radius 5, got %v", cfg.Render.NodeRadius)
	}
	if cfg.Render.ArrowLength != 6 || cfg.Render.ArrowRelPos != 1 {
		t.Errorf("unexpected arrow defaults: %v / %v", cfg.Render.ArrowLength, cfg.Render.ArrowRelPos)
	}
	if cfg.Render.SidebarWidth != 250 {
		t.Errorf("expected sidebar width 250, got %d", cfg.Render.SidebarWidth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	t.Setenv("DV_SERVER_URL", "")
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Render.FPS != 30 {
		t.Errorf("expected default config, got fps %d", cfg.Render.FPS)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	t.Setenv("DV_SERVER_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  base_url: http://analysis.internal:8080/
  timeout: 45s
layout:
  repulsion: 1500
render:
  fps: 60
  arrow_rel_pos: 0.5
palette:
  mode: hue
  persist: true
  path: ~/palettes/dv.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.BaseURL != "http://analysis.internal:8080" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.Server.Timeout)
	}
	if cfg.Layout.Repulsion != 1500 {
		t.Errorf("expected repulsion 1500, got %v", cfg.Layout.Repulsion)
	}
	// Unset fields keep defaults
	if cfg.Layout.SpringLength != 80 {
		t.Errorf("expected default spring length, got %v", cfg.Layout.SpringLength)
	}
	if cfg.Render.FPS != 60 || cfg.Render.ArrowRelPos != 0.5 {
		t.Errorf("render overrides not applied: %+v", cfg.Render)
	}
	if cfg.FrameInterval() != time.Second/60 {
		t.Errorf("FrameInterval = %v", cfg.FrameInterval())
	}
	home, _ := os.UserHomeDir()
	if got, want := cfg.PalettePath(), filepath.Join(home, "palettes/dv.db"); got != want {
		t.Errorf("PalettePath = %q, want %q", got, want)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("render: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("DV_SERVER_URL", "http://env-host:9000/")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.BaseURL != "http://env-host:9000" {
		t.Errorf("env override not applied: %q", cfg.Server.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fps", func(c *Config) { c.Render.FPS = 0 }},
		{"arrow pos out of range", func(c *Config) { c.Render.ArrowRelPos = 1.5 }},
		{"damping one", func(c *Config) { c.Layout.Damping = 1 }},
		{"sidebar wider than canvas", func(c *Config) { c.Render.SidebarWidth = 2000 }},
		{"unknown palette", func(c *Config) { c.Palette.Mode = "rainbow" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("DV_SERVER_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Palette.Mode = "hue"
	cfg.Render.FPS = 24
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Palette.Mode != "hue" || loaded.Render.FPS != 24 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Server.Timeout != cfg.Server.Timeout {
		t.Errorf("timeout = %v, want %v", loaded.Server.Timeout, cfg.Server.Timeout)
	}
}

func TestXDGDirs(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("XDG_DATA_HOME", base)
	t.Setenv("XDG_STATE_HOME", base)

	if got := ConfigPath(); got != filepath.Join(base, "dv", "config.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := DefaultConfig().PalettePath(); got != filepath.Join(base, "dv", "palette.db") {
		t.Errorf("PalettePath = %q", got)
	}
	if got := StateDir(); got != filepath.Join(base, "dv") {
		t.Errorf("StateDir = %q", got)
	}
}

func TestOptionConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.Repulsion = 1500
	cfg.Render.ArrowRelPos = 0.5
	cfg.Palette.Mode = "hue"

	if got := cfg.LayoutOptions(); got.Repulsion != 1500 || got.SpringLength != 80 {
		t.Errorf("layout options = %+v", got)
	}
	if got := cfg.RenderOptions(); got.ArrowRelPos != 0.5 || got.NodeRadius != 5 {
		t.Errorf("render options = %+v", got)
	}
	if a := palette.New(cfg.PaletteOptions()...); a.Mode() != palette.Hue {
		t.Errorf("palette mode = %s", a.Mode())
	}
}
