// Package ui is the interactive dependency graph view: it fetches a graph,
// runs the layout one frame per tick, draws into a terminal canvas and keeps
// the "Files by Node Color" sidebar in step with what was drawn.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/depview/pkg/colorindex"
	"github.com/vanderheijden86/depview/pkg/config"
	"github.com/vanderheijden86/depview/pkg/debug"
	"github.com/vanderheijden86/depview/pkg/export"
	"github.com/vanderheijden86/depview/pkg/layout"
	"github.com/vanderheijden86/depview/pkg/loader"
	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/model"
	"github.com/vanderheijden86/depview/pkg/palette"
	"github.com/vanderheijden86/depview/pkg/render"
	"github.com/vanderheijden86/depview/pkg/sidebar"
	"github.com/vanderheijden86/depview/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// NoDataText is shown whenever there is no graph to draw.
const NoDataText = "No dependency data found."

const (
	defaultWidth  = 120
	defaultHeight = 40

	minSidebarCols = 20
	chromeRows     = 2 // header + footer
)

// viewState is the lifecycle of the current repository.
type viewState int

const (
	stateLoading viewState = iota
	stateNoData
	stateReady
)

func (s viewState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	default:
		return "no-data"
	}
}

// graphLoadedMsg carries a fetch result for load generation gen.
type graphLoadedMsg struct {
	gen  int
	snap *model.Snapshot
	err  error
}

// frameTickMsg asks for one layout step and one drawn frame.
type frameTickMsg struct {
	gen int
}

// commitMsg publishes the colors recorded while drawing frame.
type commitMsg struct {
	gen   int
	frame int64
}

// FileChangedMsg is sent when the offline payload changes on disk
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for file changes and sends
// FileChangedMsg. It returns nil once the watcher stops.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	done := w.Done()
	return func() tea.Msg {
		select {
		case <-w.Changed():
			return FileChangedMsg{}
		case <-done:
			return nil
		}
	}
}

// Options wires a Model to its collaborators.
type Options struct {
	Loader   *loader.Loader
	Repo     string
	Config   config.Config
	Store    *palette.Store   // optional; keeps group colors across sessions
	Watcher  *watcher.Watcher // optional; reloads when the payload file changes
	Renderer *lipgloss.Renderer
}

// Model is the bubbletea model for the graph view.
type Model struct {
	loader  *loader.Loader
	cfg     config.Config
	store   *palette.Store
	watcher *watcher.Watcher
	theme   Theme

	width, height int

	repo    string
	state   viewState
	gen     int
	cancel  context.CancelFunc
	initial tea.Cmd // first fetch, started by Init

	// Current session; replaced wholesale on every successful load.
	snap   *model.Snapshot
	engine *layout.Engine
	buf    *colorindex.Buffer
	loop   *render.Loop
	canvas *render.TerminalCanvas
	table  sidebar.Table

	spinner spinner.Model
	sidebar viewport.Model

	form     *huh.Form
	formRepo *string
	showHelp bool
	help     viewport.Model

	statusMsg     string
	statusIsError bool
}

// New returns a model that starts loading opts.Repo on Init. A blank
// repository starts in the no-data state.
func New(opts Options) Model {
	theme := DefaultTheme(opts.Renderer)
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Renderer.NewStyle().Foreground(theme.Primary)),
	)
	m := Model{
		loader:   opts.Loader,
		cfg:      opts.Config,
		store:    opts.Store,
		watcher:  opts.Watcher,
		theme:    theme,
		width:    defaultWidth,
		height:   defaultHeight,
		spinner:  sp,
		formRepo: new(string),
		state:    stateNoData,
	}
	m.sidebar = viewport.New(m.sidebarCols(), m.bodyRows())
	m.help = viewport.New(m.width, m.bodyRows())
	m.repo = strings.TrimSpace(opts.Repo)
	if m.repo != "" && m.loader != nil {
		m.gen = 1
		m.state = stateLoading
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.initial = m.fetchCmd(ctx, m.gen, m.repo)
	}
	m.refreshSidebar()
	return m
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.initial != nil && m.state == stateLoading {
		cmds = append(cmds, m.initial, m.spinner.Tick)
	}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// fetchCmd loads repo in the background and reports it as generation gen.
func (m Model) fetchCmd(ctx context.Context, gen int, repo string) tea.Cmd {
	l := m.loader
	return func() tea.Msg {
		snap, err := l.Load(ctx, repo)
		return graphLoadedMsg{gen: gen, snap: snap, err: err}
	}
}

func (m Model) frameTickCmd() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.cfg.FrameInterval(), func(time.Time) tea.Msg {
		return frameTickMsg{gen: gen}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	// huh.Form needs every message type for its internal navigation.
	if m.form != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.form = nil
			return m, nil
		}
		if _, ok := msg.(tea.KeyMsg); ok || !isSessionMsg(msg) {
			f, fcmd := m.form.Update(msg)
			if f, ok := f.(*huh.Form); ok {
				m.form = f
			}
			cmds = append(cmds, fcmd)
			switch m.form.State {
			case huh.StateCompleted:
				m.form = nil
				cmds = append(cmds, m.startLoad(*m.formRepo))
			case huh.StateAborted:
				m.form = nil
			}
			if _, ok := msg.(tea.KeyMsg); ok {
				return m, tea.Batch(cmds...)
			}
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case spinner.TickMsg:
		if m.state == stateLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case graphLoadedMsg:
		if msg.gen != m.gen {
			debug.Log("ui: ignoring stale load (gen %d, current %d)", msg.gen, m.gen)
			break
		}
		if loader.IsNoData(msg.snap, msg.err) {
			if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
				debug.Errorf("load %s: %v", m.repo, msg.err)
			}
			m.state = stateNoData
			m.teardownSession()
			m.refreshSidebar()
			break
		}
		cmds = append(cmds, m.startSession(msg.snap))

	case frameTickMsg:
		if msg.gen != m.gen || m.state != stateReady {
			break
		}
		cmds = append(cmds, m.drawFrame(), m.frameTickCmd())

	case commitMsg:
		if msg.gen != m.gen || m.buf == nil {
			break
		}
		if m.buf.Commit(msg.frame) {
			m.table = sidebar.Aggregate(m.buf.Published(), m.snap.Order())
			m.refreshSidebar()
		}

	case FileChangedMsg:
		debug.Log("ui: payload changed, reloading %s", m.repo)
		cmds = append(cmds, m.startLoad(m.repo))
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}

	case tea.KeyMsg:
		if m.showHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.showHelp = false
			case "ctrl+c":
				m.Stop()
				return m, tea.Quit
			default:
				m.help, cmd = m.help.Update(msg)
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.Stop()
			return m, tea.Quit
		case "?":
			m.showHelp = true
			m.help.SetContent(renderHelp(m.width - 2))
			m.help.GotoTop()
		case "o":
			*m.formRepo = m.repo
			m.form = newRepoForm(m.formRepo, min(m.width, 80))
			cmds = append(cmds, m.form.Init())
		case "r":
			cmds = append(cmds, m.startLoad(m.repo))
		case "y":
			m.copyListing()
		default:
			m.sidebar, cmd = m.sidebar.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.sidebar, cmd = m.sidebar.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// isSessionMsg reports messages the graph session owns; the form never
// needs them.
func isSessionMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case graphLoadedMsg, frameTickMsg, commitMsg, FileChangedMsg:
		return true
	}
	return false
}

// startLoad tears down the current session and fetches repo under a new
// generation. Results of earlier generations are ignored when they arrive.
func (m *Model) startLoad(repo string) tea.Cmd {
	m.teardownSession()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.repo = strings.TrimSpace(repo)
	m.table = sidebar.Table{}
	m.refreshSidebar()
	if m.repo == "" || m.loader == nil {
		m.state = stateNoData
		return nil
	}
	m.state = stateLoading
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return tea.Batch(m.fetchCmd(ctx, m.gen, m.repo), m.spinner.Tick)
}

// startSession builds a fresh engine, buffer and draw loop for snap and
// starts the frame loop.
func (m *Model) startSession(snap *model.Snapshot) tea.Cmd {
	m.teardownSession()

	assigner := palette.New(append(m.cfg.PaletteOptions(), palette.WithGroups(snap.Groups()...))...)
	if m.store != nil {
		a, err := m.store.Assigner(context.Background(), snap.Groups(), m.cfg.PaletteOptions()...)
		if err != nil {
			debug.Errorf("palette store %s: %v", m.store.Path(), err)
		} else {
			assigner = a
		}
	}

	m.snap = snap
	m.buf = colorindex.NewBuffer()
	m.loop = render.NewLoop(assigner, m.buf, m.cfg.RenderOptions())
	m.engine = layout.New(m.cfg.LayoutOptions())
	m.table = sidebar.Table{}
	m.resize()
	m.engine.Start(snap)
	m.state = stateReady
	m.refreshSidebar()
	debug.Section("session " + snap.Session)
	debug.Log("ui: session %s: %d nodes, %d edges, %d dropped", snap.Session, len(snap.Nodes), len(snap.Edges), len(snap.Dropped))
	return m.frameTickCmd()
}

// teardownSession stops the layout and closes the buffer so nothing from
// the old session can mutate positions or publish colors.
func (m *Model) teardownSession() {
	if m.engine != nil {
		m.engine.Stop()
	}
	if m.buf != nil {
		m.buf.Close()
	}
	m.engine, m.buf, m.loop, m.snap = nil, nil, nil, nil
}

// drawFrame steps the layout, draws one frame and requests its commit.
func (m *Model) drawFrame() tea.Cmd {
	m.engine.Step()
	stats := m.loop.DrawFrame(m.canvas, m.snap)
	if !m.buf.Schedule(stats.Frame) {
		return nil
	}
	gen, frame := m.gen, stats.Frame
	return func() tea.Msg {
		return commitMsg{gen: gen, frame: frame}
	}
}

func (m *Model) copyListing() {
	if m.table.Len() == 0 {
		m.statusMsg = "Nothing to copy yet"
		m.statusIsError = true
		return
	}
	if err := clipboard.WriteAll(m.table.Text()); err != nil {
		m.statusMsg = fmt.Sprintf("Clipboard error: %v", err)
		m.statusIsError = true
		return
	}
	files := 0
	for _, g := range m.table.Groups {
		files += len(g.IDs)
	}
	m.statusMsg = fmt.Sprintf("Copied %d files in %d groups", files, m.table.Len())
	m.statusIsError = false
}

func (m Model) bodyRows() int {
	return max(m.height-chromeRows, 1)
}

func (m Model) sidebarCols() int {
	cols := m.cfg.Render.SidebarWidth / render.CellWorldWidth
	cols = max(cols, minSidebarCols)
	return max(min(cols, m.width/2), 1)
}

// graphCols is the width left for the canvas after the sidebar and its
// border.
func (m Model) graphCols() int {
	return max(m.width-m.sidebarCols()-2, 1)
}

func (m *Model) resize() {
	rows := m.bodyRows()
	m.sidebar.Width = m.sidebarCols()
	m.sidebar.Height = rows
	m.help.Width = m.width
	m.help.Height = rows
	world := render.TerminalViewport(m.graphCols(), rows)
	m.canvas = render.NewTerminalCanvas(m.graphCols(), rows, world, m.theme.Renderer, m.theme.CanvasBg)
	if m.engine != nil {
		m.engine.SetViewport(world.Width, world.Height)
	}
	m.refreshSidebar()
}

func (m *Model) refreshSidebar() {
	m.sidebar.SetContent(sidebar.RenderLegend(m.table, m.sidebarCols(), m.theme.Legend))
}

func (m Model) View() string {
	if m.form != nil {
		return m.form.View()
	}
	header := m.theme.Header.Width(m.width).Render(truncateRunes(m.title(), m.width-2))
	var body string
	switch {
	case m.showHelp:
		body = m.help.View()
	case m.state == stateLoading:
		body = m.spinner.View() + " " + m.theme.Notice.Render("Loading dependency graph for "+m.repo+"...")
	case m.state == stateReady && m.canvas != nil:
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.canvas.View(),
			m.theme.Sidebar.Render(m.sidebar.View()),
		)
	default:
		body = m.theme.Notice.Render(NoDataText) + "\n\n" +
			m.theme.Footer.Render("press o to open a repository")
	}
	body = lipgloss.NewStyle().Height(m.bodyRows()).MaxHeight(m.bodyRows()).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.footer())
}

func (m Model) title() string {
	if m.repo == "" {
		return "dv"
	}
	return export.Title(m.repo)
}

func (m Model) footer() string {
	if m.statusMsg != "" {
		if m.statusIsError {
			return m.theme.Failure.Render(m.statusMsg)
		}
		return m.theme.Status.Render(m.statusMsg)
	}
	parts := []string{"? help", "o open", "r reload", "y copy", "q quit"}
	if m.state == stateReady && m.snap != nil {
		parts = append([]string{fmt.Sprintf("%d nodes, %d edges", len(m.snap.Nodes), len(m.snap.Edges))}, parts...)
		if cost := metrics.FrameCost(); cost > 0 {
			parts = append(parts, fmt.Sprintf("frame %s/%s", cost.Round(10*time.Microsecond), m.cfg.FrameInterval().Round(time.Millisecond)))
		}
	}
	return m.theme.Footer.Render(truncateRunes(strings.Join(parts, " · "), m.width))
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// State reports the view state name: loading, no-data or ready.
func (m Model) State() string {
	return m.state.String()
}

// Repo returns the repository being shown.
func (m Model) Repo() string {
	return m.repo
}

// Table returns the sidebar table as last committed.
func (m Model) Table() sidebar.Table {
	return m.table
}

// Stop cancels any fetch, stops the layout and closes the color buffer.
// No commit takes effect afterwards. Should be called when the program
// exits.
func (m *Model) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.teardownSession()
	m.gen++
	if m.watcher != nil {
		m.watcher.Stop()
	}
}
