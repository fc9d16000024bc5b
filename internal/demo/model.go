package demo

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/keys"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/metrics"
	"github.com/zjrosen/vscroll/internal/pubsub"
	"github.com/zjrosen/vscroll/internal/ui/styles"
	"github.com/zjrosen/vscroll/internal/virtualizer"
)

const (
	// DefaultRowHeight is used when the demo config leaves row_height unset.
	DefaultRowHeight = 20
	wheelRows        = 3
)

// RenderObserver receives the duration of each rendered frame.
type RenderObserver interface {
	ObserveRender(d time.Duration)
}

// Options configures the demo model.
type Options struct {
	// Engine is the engine section the engine was created from. It is what
	// the write-config key saves.
	Engine config.EngineConfig
	Demo   config.DemoConfig
	// ConfigPath is where the engine section is written. Empty disables saving.
	ConfigPath string
	// Reload signals that the config file changed.
	Reload <-chan struct{}
	// LoadEngine rereads the engine section after a reload signal.
	LoadEngine func() (config.EngineConfig, error)
	Renders    RenderObserver
}

// batchDoneMsg is sent when a batch generation finishes.
type batchDoneMsg struct {
	err error
}

// configReloadedMsg carries a freshly read engine section.
type configReloadedMsg struct {
	engine config.EngineConfig
	err    error
}

// Model is the Bubble Tea model of the demo.
type Model struct {
	ctx    context.Context
	engine *virtualizer.Engine[Item]
	gen    *Generator
	opts   Options

	events *pubsub.ContinuousListener[virtualizer.Event]
	logs   *log.Listener

	keys    keys.ListKeyMap
	help    help.Model
	spinner spinner.Model

	rowHeight float64
	selected  int
	frame     virtualizer.Frame
	lines     []string
	stats     metrics.RenderStats
	status    string
	logLine   string
	err       error

	width  int
	height int
}

// New creates the demo model over engine. Subscriptions live until ctx is done.
func New(ctx context.Context, engine *virtualizer.Engine[Item], opts Options) Model {
	rowHeight := opts.Demo.RowHeight
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		ctx:       ctx,
		engine:    engine,
		gen:       NewGenerator(opts.Demo.Seed),
		opts:      opts,
		events:    pubsub.NewContinuousListener[virtualizer.Event](ctx, engine),
		logs:      log.NewListener(ctx),
		keys:      keys.List,
		help:      help.New(),
		spinner:   sp,
		rowHeight: rowHeight,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.events.Listen()}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	if m.opts.Reload != nil && m.opts.LoadEngine != nil {
		cmds = append(cmds, m.waitReload())
	}
	if m.opts.Demo.ItemCount > 0 && m.engine.Store().Len() == 0 {
		cmds = append(cmds, m.generate())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollBy(-wheelRows)
		case tea.MouseButtonWheelDown:
			m.scrollBy(wheelRows)
		}
		m.refresh()
		return m, nil

	case pubsub.Event[virtualizer.Event]:
		m.refresh()
		cmds := []tea.Cmd{m.events.Listen()}
		if msg.Type == pubsub.LoadingEvent && msg.Payload.Loading {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case pubsub.Event[string]:
		m.logLine = strings.TrimRight(msg.Payload, "\n")
		return m, m.logs.Listen()

	case batchDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "generate failed"
			log.ErrorErr(log.CatUI, "batch generation failed", msg.err)
		} else {
			m.err = nil
			m.status = fmt.Sprintf("generated %d items", m.engine.Store().Len())
		}
		m.refresh()
		return m, nil

	case configReloadedMsg:
		m.applyReload(msg)
		m.refresh()
		return m, m.waitReload()

	case spinner.TickMsg:
		if !m.frame.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	store := m.engine.Store()
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()

	case key.Matches(msg, m.keys.LineUp):
		m.scrollBy(-1)
	case key.Matches(msg, m.keys.LineDown):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-m.paneRows())
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(m.paneRows())
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
		m.engine.HandleScroll(0)
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(store.Len()-1, 0)
		m.engine.HandleScroll(m.engine.MaxScrollTop())

	case key.Matches(msg, m.keys.Next):
		m.selectIndex(m.selected + 1)
	case key.Matches(msg, m.keys.Prev):
		m.selectIndex(m.selected - 1)

	case key.Matches(msg, m.keys.Add):
		item := m.gen.NewItem()
		store.Insert(0, item)
		m.selected = 0
		m.engine.HandleScroll(0)
		m.status = "added " + item.Title

	case key.Matches(msg, m.keys.Delete):
		if item, ok := store.At(m.selected); ok {
			store.Remove(ItemKey(item))
			m.status = "deleted " + item.Title
		}

	case key.Matches(msg, m.keys.Toggle):
		m.editSelected(Item.ToggleExpanded, "toggled")
	case key.Matches(msg, m.keys.CycleTask):
		m.editSelected(Item.CycleFirstTask, "updated task of")
	case key.Matches(msg, m.keys.DeleteTask):
		m.editSelected(Item.DropLastTask, "dropped task of")

	case key.Matches(msg, m.keys.MoveUp):
		if store.Move(m.selected, m.selected-1) {
			m.selectIndex(m.selected - 1)
		}
	case key.Matches(msg, m.keys.MoveDown):
		if store.Move(m.selected, m.selected+1) {
			m.selectIndex(m.selected + 1)
		}

	case key.Matches(msg, m.keys.Regenerate):
		m.status = "generating"
		cmd = m.generate()
	case key.Matches(msg, m.keys.Clear):
		store.Clear()
		m.selected = 0
		m.engine.HandleScroll(0)
		m.status = "cleared"
	case key.Matches(msg, m.keys.RemeasureAll):
		m.engine.RemeasureAll()
		m.status = "remeasuring"

	case key.Matches(msg, m.keys.OverscanUp):
		m.setOverscan(m.opts.Engine.Overscan + 1)
	case key.Matches(msg, m.keys.OverscanDown):
		m.setOverscan(m.opts.Engine.Overscan - 1)
	case key.Matches(msg, m.keys.SaveConfig):
		m.saveConfig()

	default:
		return m, nil
	}

	m.refresh()
	return m, cmd
}

// editSelected applies fn to the selected item and drops its measurement so
// the next frame measures the new content.
func (m *Model) editSelected(fn func(Item) Item, verb string) {
	item, ok := m.engine.Store().At(m.selected)
	if !ok {
		return
	}
	if m.engine.Store().Update(ItemKey(item), fn) {
		m.engine.RemeasureItem(m.selected)
		m.status = verb + " " + item.Title
	}
}

func (m *Model) setOverscan(n int) {
	if n < 0 {
		return
	}
	m.opts.Engine.Overscan = n
	cfg := m.engine.Config()
	cfg.Overscan = n
	m.engine.Reconfigure(cfg)
	m.status = fmt.Sprintf("overscan %d", n)
}

func (m *Model) saveConfig() {
	if m.opts.ConfigPath == "" {
		m.status = "no config file"
		return
	}
	if err := config.SaveEngine(m.opts.ConfigPath, m.opts.Engine); err != nil {
		m.err = err
		m.status = "save failed"
		log.ErrorErr(log.CatConfig, "saving engine config failed", err, "path", m.opts.ConfigPath)
		return
	}
	m.err = nil
	m.status = "wrote " + m.opts.ConfigPath
}

func (m *Model) applyReload(msg configReloadedMsg) {
	err := msg.err
	if err == nil {
		err = config.ValidateEngine(msg.engine)
	}
	if err != nil {
		m.err = err
		m.status = "config reload rejected"
		log.ErrorErr(log.CatConfig, "config reload rejected", err)
		return
	}

	m.opts.Engine = msg.engine
	cfg := msg.engine.Virtualizer()
	// The pane height comes from the terminal, not the file.
	cfg.ContainerHeight = m.engine.Config().ContainerHeight
	m.engine.Reconfigure(cfg)
	m.err = nil
	m.status = "config reloaded"
}

// generate replaces the collection with a fresh batch in the background.
func (m Model) generate() tea.Cmd {
	ctx, engine, gen := m.ctx, m.engine, m.gen
	count := m.opts.Demo.ItemCount
	return func() tea.Msg {
		return batchDoneMsg{err: engine.GenerateBatch(ctx, count, gen.Item)}
	}
}

func (m Model) waitReload() tea.Cmd {
	ctx, ch, load := m.ctx, m.opts.Reload, m.opts.LoadEngine
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			ec, err := load()
			return configReloadedMsg{engine: ec, err: err}
		}
	}
}

// paneRows is the number of rows left for the list.
func (m Model) paneRows() int {
	chrome := 2 + lipgloss.Height(m.help.View(m.keys))
	if m.logs != nil {
		chrome++
	}
	return max(m.height-chrome, 1)
}

func (m *Model) resize() {
	m.engine.SetContainerHeight(float64(m.paneRows()) * m.rowHeight)
}

func (m *Model) scrollBy(rows int) {
	top := m.engine.ScrollTop() + float64(rows)*m.rowHeight
	m.engine.HandleScroll(min(max(top, 0), m.engine.MaxScrollTop()))
}

// selectIndex moves the selection and scrolls the item into view.
func (m *Model) selectIndex(i int) {
	n := m.engine.Store().Len()
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = min(max(i, 0), n-1)

	start, ok := m.engine.OffsetOf(m.selected)
	if !ok {
		return
	}
	height := m.engine.GetItemHeight(m.selected)
	container := m.engine.Config().ContainerHeight
	top := m.engine.ScrollTop()
	switch {
	case start < top, height >= container:
		m.engine.HandleScroll(start)
	case start+height > top+container:
		m.engine.HandleScroll(start + height - container)
	}
}

// refresh resolves a new frame, draws the pane and reports the rendered
// height of every drawn card back to the engine.
func (m *Model) refresh() {
	start := time.Now()

	if n := m.engine.Store().Len(); m.selected >= n {
		m.selected = max(n-1, 0)
	}
	m.frame = m.engine.Frame()
	m.lines = m.drawPane(m.frame)

	elapsed := time.Since(start)
	m.stats = m.stats.Record(elapsed)
	if m.opts.Renders != nil {
		m.opts.Renders.ObserveRender(elapsed)
	}
}

func (m *Model) drawPane(frame virtualizer.Frame) []string {
	rows := m.paneRows()
	lines := make([]string, rows)
	if m.width <= 0 {
		return lines
	}

	store := m.engine.Store()
	for _, ext := range frame.VirtualItems {
		item, ok := store.At(ext.Index)
		if !ok || ItemKey(item) != ext.Key {
			continue
		}
		card := RenderCard(item, m.width, ext.Index == m.selected)
		// An unmeasured extent carries the estimate, which a card can match exactly.
		if measured := float64(Rows(card)) * m.rowHeight; !ext.Measured || measured != ext.Height {
			m.engine.ReportMeasurement(ext.Index, measured)
		}

		top := int(math.Round((ext.Start - frame.ScrollTop) / m.rowHeight))
		for i, line := range strings.Split(card, "\n") {
			if r := top + i; r >= 0 && r < rows {
				lines[r] = line
			}
		}
	}
	return lines
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(strings.Join(m.lines, "\n"))
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	if m.logs != nil {
		sb.WriteString("\n")
		sb.WriteString(styles.LogTailStyle.Render(styles.TruncateString(m.logLine, max(m.width, 1))))
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderHeader() string {
	r := m.frame.VisibleRange
	rng := "empty"
	if !r.Empty() {
		rng = fmt.Sprintf("%d-%d", r.Start, r.End)
	}
	state := virtualizer.ScrollIdle
	if m.frame.IsScrolling {
		state = virtualizer.ScrollActive
	}

	header := fmt.Sprintf("vscroll · %d items · range %s · %.0f/%.0f rows · %s",
		m.engine.Store().Len(),
		rng,
		m.frame.ScrollTop/m.rowHeight,
		m.frame.TotalHeight/m.rowHeight,
		state)
	if m.frame.Loading {
		header += " " + m.spinner.View() + " loading"
	}
	return styles.HeaderStyle.Render(styles.TruncateString(header, max(m.width-2, 1)))
}

func (m Model) renderStatusBar() string {
	parts := []string{m.stats.FormatDisplay(), fmt.Sprintf("overscan %d", m.opts.Engine.Overscan)}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	bar := styles.StatusBarStyle.Render(strings.Join(parts, " · "))
	if m.err != nil {
		bar += " " + styles.ErrorStyle.Render(m.err.Error())
	}
	return bar
}
