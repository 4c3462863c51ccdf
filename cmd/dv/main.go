package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vanderheijden86/depview/internal/datasource"
	"github.com/vanderheijden86/depview/pkg/config"
	"github.com/vanderheijden86/depview/pkg/debug"
	"github.com/vanderheijden86/depview/pkg/export"
	"github.com/vanderheijden86/depview/pkg/loader"
	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/palette"
	"github.com/vanderheijden86/depview/pkg/ui"
	"github.com/vanderheijden86/depview/pkg/version"
	"github.com/vanderheijden86/depview/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"golang.org/x/term"
)

func main() {
	repo := flag.String("repo", "", "Repository URL or identifier to visualize")
	payload := flag.String("payload", "", "Read the graph from a local JSON file instead of the server (reloaded on change)")
	server := flag.String("server", "", "Analysis backend base URL (overrides config and DV_SERVER_URL)")
	configPath := flag.String("config", "", "Config file (default: ~/.config/dv/config.yaml)")
	exportPaths := flag.String("export", "", "Write the settled layout to path[,path] (.svg, .png or .mmd) and exit")
	frames := flag.Int("frames", 300, "Frames to simulate before exporting")
	metricsFlag := flag.Bool("metrics", false, "Print timing metrics as JSON after an export")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: dv [options]")
		fmt.Println("\nLive force-directed view of a repository's file dependencies.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("dv %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}
	if *server != "" {
		cfg.Server.BaseURL = strings.TrimRight(*server, "/")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(2)
	}

	src, err := newSource(*payload, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	l := loader.New(src, loader.ParseOptions{})
	label := repoLabel(*repo, *payload)

	var store *palette.Store
	if cfg.Palette.Persist {
		if path := cfg.PalettePath(); path != "" {
			store, err = palette.OpenStore(path)
			if err != nil {
				// Non-fatal: colors are still deterministic per session
				fmt.Fprintf(os.Stderr, "Warning: palette store unavailable: %v\n", err)
				store = nil
			} else {
				defer store.Close()
			}
		}
	}

	if *exportPaths != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := runExport(ctx, os.Stdout, l, label, cfg, store, splitPaths(*exportPaths), *frames)
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *metricsFlag {
			if err := printMetrics(os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: stdout is not a terminal; use --export to render without one")
		os.Exit(2)
	}

	if logFile, err := openLogFile(); err == nil {
		defer logFile.Close()
		debug.SetOutput(logFile)
	} else {
		debug.SetOutput(io.Discard)
	}

	var w *watcher.Watcher
	if *payload != "" {
		w, err = watcher.New(*payload)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			debug.Errorf("watch %s: %v", *payload, err)
			w = nil
		}
	}

	m := ui.New(ui.Options{
		Loader:  l,
		Repo:    label,
		Config:  cfg,
		Store:   store,
		Watcher: w,
	})

	// runTUIProgram stops the final model.
	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running dv: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// newSource returns the file source for payload, or the backend source.
func newSource(payload string, cfg config.Config) (datasource.Source, error) {
	if payload != "" {
		return datasource.NewFileSource(payload)
	}
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("no server configured (set --server or server.base_url)")
	}
	client := &http.Client{Timeout: cfg.Server.Timeout}
	return datasource.NewHTTPSource(cfg.Server.BaseURL, client), nil
}

// repoLabel is the repository identifier shown and sent. Offline payloads
// default to their file name so they are never treated as "no repository".
func repoLabel(repo, payload string) string {
	repo = strings.TrimSpace(repo)
	if repo == "" && payload != "" {
		return filepath.Base(payload)
	}
	return repo
}

func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runExport(ctx context.Context, out io.Writer, l *loader.Loader, repo string, cfg config.Config, store *palette.Store, paths []string, frames int) error {
	snap, err := l.Load(ctx, repo)
	if loader.IsNoData(snap, err) {
		if err != nil {
			debug.Errorf("load %s: %v", repo, err)
		}
		return errors.New(strings.TrimSuffix(ui.NoDataText, "."))
	}

	assigner := palette.New(append(cfg.PaletteOptions(), palette.WithGroups(snap.Groups()...))...)
	if store != nil {
		if a, err := store.Assigner(ctx, snap.Groups(), cfg.PaletteOptions()...); err == nil {
			assigner = a
		} else {
			debug.Errorf("palette store: %v", err)
		}
	}

	res, err := export.Run(ctx, snap, export.Options{
		Paths:   paths,
		Frames:  frames,
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		Sidebar: cfg.Render.SidebarWidth,
		Header:  cfg.Render.HeaderHeight,
		Layout:  cfg.LayoutOptions(),
		Render:  cfg.RenderOptions(),
		Palette: assigner,
	})
	if err != nil {
		return err
	}
	for _, p := range res.Written {
		fmt.Fprintf(out, "Wrote %s (%d nodes, %d groups, %d frames)\n", p, len(snap.Nodes), res.Table.Len(), res.Frames)
	}
	return nil
}

func printMetrics(w io.Writer) error {
	data, err := json.MarshalIndent(metrics.Report(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// logFilePath returns DV_LOG_FILE or dv.log in the state directory.
func logFilePath() string {
	if p := strings.TrimSpace(os.Getenv("DV_LOG_FILE")); p != "" {
		return p
	}
	dir := config.StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "dv.log")
}

func openLogFile() (*os.File, error) {
	path := logFilePath()
	if path == "" {
		return nil, errors.New("no state directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set DV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("DV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	final, err := p.Run()
	if fm, ok := final.(ui.Model); ok {
		fm.Stop()
	}
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
