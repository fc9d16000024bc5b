package demo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/datastore"
	"github.com/zjrosen/vscroll/internal/pubsub"
	"github.com/zjrosen/vscroll/internal/virtualizer"
)

const (
	testWidth  = 80
	testHeight = 30
	settle     = 20 * time.Millisecond
)

type renderCounter struct{ n int }

func (r *renderCounter) ObserveRender(time.Duration) { r.n++ }

type testHarness struct {
	model   Model
	engine  *virtualizer.Engine[Item]
	clock   *virtualizer.ManualClock
	renders *renderCounter
}

func newHarness(t *testing.T, n int, opts Options) *testHarness {
	t.Helper()

	gen := NewGenerator(42)
	items := make([]Item, n)
	for i := range items {
		items[i], _ = gen.Item(i)
	}
	store := datastore.New[Item](ItemKey, datastore.WithItems(items))

	clock := virtualizer.NewManualClock()
	engine := virtualizer.New(store, config.DefaultEngine().Virtualizer(), virtualizer.WithClock[Item](clock))
	t.Cleanup(engine.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if opts.Engine == (config.EngineConfig{}) {
		opts.Engine = config.DefaultEngine()
	}
	if opts.Demo.RowHeight == 0 {
		opts.Demo.RowHeight = 20
	}
	renders := &renderCounter{}
	opts.Renders = renders

	h := &testHarness{
		model:   New(ctx, engine, opts),
		engine:  engine,
		clock:   clock,
		renders: renders,
	}
	h.send(tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return h
}

func (h *testHarness) send(msg tea.Msg) tea.Cmd {
	m, cmd := h.model.Update(msg)
	h.model = m.(Model)
	return cmd
}

func (h *testHarness) press(k string) tea.Cmd {
	return h.send(keyMsg(k))
}

// settleMeasurements commits reported heights until the frame stops changing.
func (h *testHarness) settleMeasurements() {
	for range 10 {
		h.clock.Advance(settle)
		h.model.refresh()
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestModel_WindowSizeSetsContainer(t *testing.T) {
	h := newHarness(t, 40, Options{})

	rows := h.model.paneRows()
	// header, status bar and one help row
	require.Equal(t, testHeight-3, rows)
	require.Equal(t, float64(rows)*20, h.engine.Config().ContainerHeight)
	require.Len(t, h.model.lines, rows)
}

func TestModel_MeasuresRenderedCards(t *testing.T) {
	h := newHarness(t, 40, Options{})
	h.settleMeasurements()

	require.NotZero(t, h.engine.Stats().Measurements)
	require.False(t, h.engine.Index().Bounded())

	store := h.engine.Store()
	for _, ext := range h.model.frame.VirtualItems {
		item, ok := store.At(ext.Index)
		require.True(t, ok)
		rows := Rows(RenderCard(item, testWidth, false))
		require.Equal(t, float64(rows)*20, ext.Height, "item %d", ext.Index)
	}
}

func TestModel_MeasuresCardMatchingEstimate(t *testing.T) {
	gen := NewGenerator(42)
	first, _ := gen.Item(0)
	rows := Rows(RenderCard(first, testWidth, true))
	estimate := config.DefaultEngine().EstimatedItemHeight

	h := newHarness(t, 1, Options{Demo: config.DemoConfig{RowHeight: estimate / float64(rows)}})
	h.settleMeasurements()

	ext, ok := h.engine.Index().At(0)
	require.True(t, ok)
	require.True(t, ext.Measured, "a card as tall as the estimate is still committed")
	require.InDelta(t, estimate, ext.Height, 1e-9)
	require.Equal(t, uint64(1), h.engine.Stats().Measurements)
}

func TestModel_RecordsRenderStats(t *testing.T) {
	h := newHarness(t, 10, Options{})
	before := h.model.stats.TotalRenders

	h.press("j")

	require.Equal(t, before+1, h.model.stats.TotalRenders)
	require.Equal(t, int(h.model.stats.TotalRenders), h.renders.n)
	require.Contains(t, h.model.View(), "renders")
}

func TestModel_Selection(t *testing.T) {
	h := newHarness(t, 5, Options{})
	h.settleMeasurements()

	h.press("j")
	h.press("j")
	require.Equal(t, 2, h.model.selected)

	h.press("k")
	require.Equal(t, 1, h.model.selected)

	for range 10 {
		h.press("j")
	}
	require.Equal(t, 4, h.model.selected, "selection stops at the last item")
}

func TestModel_SelectScrollsIntoView(t *testing.T) {
	h := newHarness(t, 60, Options{})
	h.settleMeasurements()

	for range 20 {
		h.press("j")
		h.settleMeasurements()
	}

	start, ok := h.engine.OffsetOf(20)
	require.True(t, ok)
	top := h.engine.ScrollTop()
	container := h.engine.Config().ContainerHeight
	require.Greater(t, top, 0.0)
	require.True(t, h.model.frame.VisibleRange.Contains(20))
	require.LessOrEqual(t, top, start+container)
}

func TestModel_ScrollKeys(t *testing.T) {
	h := newHarness(t, 60, Options{})
	h.settleMeasurements()

	h.press("down")
	require.Equal(t, 20.0, h.engine.ScrollTop())

	h.press("up")
	h.press("up")
	require.Equal(t, 0.0, h.engine.ScrollTop(), "scrolling clamps at the top")

	h.press("pgdown")
	require.Equal(t, float64(h.model.paneRows())*20, h.engine.ScrollTop())

	h.press("G")
	require.Equal(t, h.engine.MaxScrollTop(), h.engine.ScrollTop())
	require.Equal(t, 59, h.model.selected)
	require.True(t, h.model.frame.VisibleRange.Contains(59))

	h.press("g")
	require.Equal(t, 0.0, h.engine.ScrollTop())
	require.Equal(t, 0, h.model.selected)
}

func TestModel_MouseWheel(t *testing.T) {
	h := newHarness(t, 60, Options{})
	h.settleMeasurements()

	h.send(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	require.Equal(t, float64(wheelRows)*20, h.engine.ScrollTop())

	h.send(tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonWheelDown})
	require.Equal(t, float64(wheelRows)*20, h.engine.ScrollTop(), "releases are ignored")

	h.send(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	require.Equal(t, 0.0, h.engine.ScrollTop())
}

func TestModel_AddItemAtTop(t *testing.T) {
	h := newHarness(t, 10, Options{})
	h.press("j")

	h.press("a")

	store := h.engine.Store()
	require.Equal(t, 11, store.Len())
	first, _ := store.At(0)
	require.Equal(t, KindComplex, first.Kind)
	require.True(t, first.Expanded)
	require.Equal(t, 0, h.model.selected)
	require.Equal(t, 0.0, h.engine.ScrollTop())
	require.Contains(t, h.model.status, "added")
}

func TestModel_DeleteItem(t *testing.T) {
	h := newHarness(t, 3, Options{})
	h.settleMeasurements()
	h.press("G")

	h.press("d")
	require.Equal(t, 2, h.engine.Store().Len())
	require.Equal(t, -1, h.engine.Store().IndexOf("item-2"))
	require.Equal(t, 1, h.model.selected, "selection clamps to the new last item")

	h.press("d")
	h.press("d")
	h.press("d")
	require.Zero(t, h.engine.Store().Len())
	require.Equal(t, 0, h.model.selected)
}

func TestModel_ToggleExpandRemeasures(t *testing.T) {
	h := newHarness(t, 5, Options{})
	h.settleMeasurements()
	// item 1 is complex, so expanding changes its task rows
	h.press("j")

	store := h.engine.Store()
	before, _ := store.At(1)
	measured := h.engine.GetItemHeight(1)

	h.press("enter")

	after, _ := store.At(1)
	require.Equal(t, !before.Expanded, after.Expanded)
	require.Equal(t, h.engine.Config().EstimatedItemHeight, h.engine.GetItemHeight(1),
		"toggling drops the old measurement")

	h.settleMeasurements()
	remeasured := h.engine.GetItemHeight(1)
	require.Equal(t, float64(Rows(RenderCard(after, testWidth, true)))*20, remeasured)
	require.NotEqual(t, measured, remeasured)
}

func TestModel_TaskEdits(t *testing.T) {
	h := newHarness(t, 5, Options{})
	store := h.engine.Store()
	before, _ := store.At(0)

	h.press("x")

	after, _ := store.At(0)
	require.Len(t, after.Tasks, len(before.Tasks)-1)

	h.press("s")
	require.Contains(t, h.model.status, "task")
}

func TestModel_MoveItem(t *testing.T) {
	h := newHarness(t, 5, Options{})
	store := h.engine.Store()

	h.press("J")
	require.Equal(t, []datastore.Key{"item-1", "item-0"}, store.Keys()[:2])
	require.Equal(t, 1, h.model.selected)

	h.press("K")
	require.Equal(t, []datastore.Key{"item-0", "item-1"}, store.Keys()[:2])
	require.Equal(t, 0, h.model.selected)

	h.press("K")
	require.Equal(t, datastore.Key("item-0"), store.Keys()[0], "moving the first item up is a no-op")
}

func TestModel_ClearAndRemeasure(t *testing.T) {
	h := newHarness(t, 20, Options{})
	h.settleMeasurements()

	h.press("m")
	require.True(t, h.engine.Index().Bounded(), "remeasuring all falls back to the initial window")

	h.press("c")
	require.Zero(t, h.engine.Store().Len())
	view := h.model.View()
	require.Contains(t, view, "0 items")
	require.Contains(t, view, "range empty")
}

func TestModel_Overscan(t *testing.T) {
	h := newHarness(t, 20, Options{})

	h.press("+")
	require.Equal(t, 3, h.engine.Config().Overscan)
	require.Equal(t, 3, h.model.opts.Engine.Overscan)

	for range 5 {
		h.press("-")
	}
	require.Equal(t, 0, h.engine.Config().Overscan, "overscan never goes negative")
}

func TestModel_SaveConfig(t *testing.T) {
	t.Run("writes engine section", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, config.WriteDefaultConfig(path))
		h := newHarness(t, 5, Options{ConfigPath: path})

		h.press("+")
		h.press("w")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), "overscan: 3")
		require.Contains(t, string(data), "# Feature flags", "comments outside the engine section survive")
		require.Equal(t, "wrote "+path, h.model.status)
	})

	t.Run("without a path", func(t *testing.T) {
		h := newHarness(t, 5, Options{})
		h.press("w")
		require.Equal(t, "no config file", h.model.status)
	})
}

func TestModel_ConfigReload(t *testing.T) {
	reload := make(chan struct{}, 1)
	next := config.DefaultEngine()
	next.Overscan = 5
	next.ContainerHeight = 9999
	var loadErr error

	h := newHarness(t, 20, Options{
		Reload: reload,
		LoadEngine: func() (config.EngineConfig, error) {
			return next, loadErr
		},
	})
	container := h.engine.Config().ContainerHeight

	reload <- struct{}{}
	cmd := h.send(h.model.waitReload()())
	require.NotNil(t, cmd, "the model keeps waiting for reloads")
	require.Equal(t, 5, h.engine.Config().Overscan)
	require.Equal(t, container, h.engine.Config().ContainerHeight, "pane height is not taken from the file")
	require.Equal(t, "config reloaded", h.model.status)

	t.Run("invalid config is rejected", func(t *testing.T) {
		next.Overscan = -1
		reload <- struct{}{}
		h.send(h.model.waitReload()())
		require.Equal(t, 5, h.engine.Config().Overscan)
		require.Equal(t, "config reload rejected", h.model.status)
		require.Error(t, h.model.err)
	})

	t.Run("read error is rejected", func(t *testing.T) {
		loadErr = errors.New("bad yaml")
		reload <- struct{}{}
		h.send(h.model.waitReload()())
		require.ErrorContains(t, h.model.err, "bad yaml")
	})
}

func TestModel_Generate(t *testing.T) {
	h := newHarness(t, 0, Options{Demo: config.DemoConfig{ItemCount: 50, RowHeight: 20}})

	require.NotNil(t, h.model.Init())

	msg := h.model.generate()()
	h.send(msg)

	require.Equal(t, 50, h.engine.Store().Len())
	require.Equal(t, "generated 50 items", h.model.status)
	require.NoError(t, h.model.err)
}

func TestModel_GenerateCanceled(t *testing.T) {
	h := newHarness(t, 0, Options{Demo: config.DemoConfig{ItemCount: 50, RowHeight: 20}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.model.ctx = ctx

	h.send(h.model.generate()())

	require.ErrorIs(t, h.model.err, context.Canceled)
	require.Equal(t, "generate failed", h.model.status)
	require.Zero(t, h.engine.Store().Len())
}

func TestModel_EngineEventsKeepListening(t *testing.T) {
	h := newHarness(t, 5, Options{})

	cmd := h.send(pubsub.Event[virtualizer.Event]{Type: pubsub.IndexRebuiltEvent})
	require.NotNil(t, cmd)

	cmd = h.send(pubsub.Event[virtualizer.Event]{
		Type:    pubsub.LoadingEvent,
		Payload: virtualizer.Event{Loading: true},
	})
	require.NotNil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, 5, Options{})

	cmd := h.press("q")
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestModel_HelpToggleResizes(t *testing.T) {
	h := newHarness(t, 5, Options{})
	short := h.model.paneRows()

	h.press("?")

	require.Less(t, h.model.paneRows(), short)
	require.Equal(t, float64(h.model.paneRows())*20, h.engine.Config().ContainerHeight)
}

func TestModel_View(t *testing.T) {
	h := newHarness(t, 40, Options{})
	h.settleMeasurements()

	view := h.model.View()
	require.Contains(t, view, "vscroll · 40 items")
	require.Contains(t, view, "Item 1")
	require.Contains(t, view, "overscan 2")
}
