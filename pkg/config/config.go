// Package config handles loading and saving dv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/dv/config.yaml
//   - Data:    ~/.local/share/dv/ (persisted palette database)
//   - State:   ~/.local/state/dv/ (log file)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/depview/pkg/layout"
	"github.com/vanderheijden86/depview/pkg/palette"
	"github.com/vanderheijden86/depview/pkg/render"

	"gopkg.in/yaml.v3"
)

// ServerConfig points at the analysis backend that serves dependency graphs.
type ServerConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"` // 0 = no client-side timeout
}

// LayoutConfig holds force simulation parameters.
type LayoutConfig struct {
	Repulsion       float64 `yaml:"repulsion,omitempty"`
	SpringLength    float64 `yaml:"spring_length,omitempty"`
	SpringStiffness float64 `yaml:"spring_stiffness,omitempty"`
	Damping         float64 `yaml:"damping,omitempty"`
	Gravity         float64 `yaml:"gravity,omitempty"`
	MaxVelocity     float64 `yaml:"max_velocity,omitempty"`
}

// RenderConfig controls drawing and the frame loop.
type RenderConfig struct {
	FPS          int     `yaml:"fps,omitempty"`
	NodeRadius   float64 `yaml:"node_radius,omitempty"`
	ArrowLength  float64 `yaml:"arrow_length,omitempty"`
	ArrowRelPos  float64 `yaml:"arrow_rel_pos"`
	SidebarWidth int     `yaml:"sidebar_width,omitempty"` // world units reserved for the legend in exports
	HeaderHeight int     `yaml:"header_height,omitempty"` // world units reserved for the title in exports
	Width        int     `yaml:"width,omitempty"`         // export canvas width
	Height       int     `yaml:"height,omitempty"`        // export canvas height
}

// PaletteConfig selects the group coloring strategy.
type PaletteConfig struct {
	Mode    string `yaml:"mode,omitempty"`    // categorical, hue
	Persist bool   `yaml:"persist,omitempty"` // keep group colors across sessions
	Path    string `yaml:"path,omitempty"`    // sqlite file; defaults to DataDir()/palette.db
}

// Config is the top-level configuration for dv.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Layout  LayoutConfig  `yaml:"layout,omitempty"`
	Render  RenderConfig  `yaml:"render,omitempty"`
	Palette PaletteConfig `yaml:"palette,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 2 * time.Minute,
		},
		Layout: LayoutConfig{
			Repulsion:       2000,
			SpringLength:    80,
			SpringStiffness: 0.05,
			Damping:         0.85,
			Gravity:         0.01,
			MaxVelocity:     40,
		},
		Render: RenderConfig{
			FPS:          30,
			NodeRadius:   5,
			ArrowLength:  6,
			ArrowRelPos:  1,
			SidebarWidth: 250,
			HeaderHeight: 80,
			Width:        1280,
			Height:       800,
		},
		Palette: PaletteConfig{
			Mode: "categorical",
		},
	}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	if c.Render.FPS <= 0 || c.Render.FPS > 240 {
		return fmt.Errorf("render.fps must be in 1..240, got %d", c.Render.FPS)
	}
	if c.Render.ArrowRelPos < 0 || c.Render.ArrowRelPos > 1 {
		return fmt.Errorf("render.arrow_rel_pos must be in 0..1, got %v", c.Render.ArrowRelPos)
	}
	if c.Layout.Damping <= 0 || c.Layout.Damping >= 1 {
		return fmt.Errorf("layout.damping must be in (0,1), got %v", c.Layout.Damping)
	}
	if c.Render.Width <= c.Render.SidebarWidth || c.Render.Height <= c.Render.HeaderHeight {
		return fmt.Errorf("render size %dx%d leaves no room for the graph", c.Render.Width, c.Render.Height)
	}
	switch c.Palette.Mode {
	case "", "categorical", "hue":
	default:
		return fmt.Errorf("palette.mode must be categorical or hue, got %q", c.Palette.Mode)
	}
	return nil
}

// FrameInterval is the delay between two frames.
func (c Config) FrameInterval() time.Duration {
	fps := c.Render.FPS
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}

// LayoutOptions converts the layout section into engine options.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Repulsion:       c.Layout.Repulsion,
		SpringLength:    c.Layout.SpringLength,
		SpringStiffness: c.Layout.SpringStiffness,
		Damping:         c.Layout.Damping,
		Gravity:         c.Layout.Gravity,
		MaxVelocity:     c.Layout.MaxVelocity,
	}
}

// RenderOptions converts the render section into frame options.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		NodeRadius:  c.Render.NodeRadius,
		ArrowLength: c.Render.ArrowLength,
		ArrowRelPos: c.Render.ArrowRelPos,
	}
}

// PaletteOptions converts the palette section into assigner options.
func (c Config) PaletteOptions() []palette.Option {
	return []palette.Option{palette.WithMode(palette.ParseMode(c.Palette.Mode))}
}

// PalettePath returns the palette database path with ~ expanded.
func (c Config) PalettePath() string {
	if c.Palette.Path != "" {
		return expandHome(c.Palette.Path)
	}
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "palette.db")
}

// ConfigDir returns the XDG config directory for dv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "dv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dv")
}

// DataDir returns the XDG data directory for dv.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "dv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "dv")
}

// StateDir returns the XDG state directory for dv.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "dv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "dv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return withEnv(DefaultConfig()), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist. Unset fields keep their
// defaults; DV_SERVER_URL overrides server.base_url.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return withEnv(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	return withEnv(cfg), nil
}

func withEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv("DV_SERVER_URL")); v != "" {
		cfg.Server.BaseURL = strings.TrimRight(v, "/")
	}
	return cfg
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
