// Package tui is the terminal explorer: a character canvas over a live
// scene with a pointer that stands in for the mouse.
//
// The bubbletea update loop is the scene's only goroutine. Layout ticks
// arrive as tick messages, key presses are translated into selection
// events, and payload reloads from the file watcher arrive as messages too,
// so the scene never needs locking.
package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/internal/watch"
	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/scene"
	"github.com/matzehuels/authornet/pkg/selection"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	panelWidth    = 34
	minCanvas     = 10
)

// Options configures the explorer.
type Options struct {
	// Path is the payload file. It is reloaded on change when Watch is set.
	Path  string
	Watch bool

	Scene    scene.Options
	Interval time.Duration
	Logger   *log.Logger
}

type tickMsg time.Time

type reloadMsg struct{ path string }

// Model is the bubbletea model of the explorer.
type Model struct {
	sc     *scene.Scene
	opts   Options
	keys   KeyMap
	logger *log.Logger

	width  int
	height int

	pointer  [2]int
	dragging string
	anchor   *[2]int

	filter    textinput.Model
	filtering bool
	cycle     int

	changes <-chan string
	status  string
	failed  bool
}

// New builds the explorer for g.
func New(g graph.Graph, opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Scene.Logger == nil {
		opts.Scene.Logger = opts.Logger
	}
	if opts.Interval <= 0 {
		opts.Interval = scene.DefaultInterval
	}
	sc, err := scene.New(g, opts.Scene)
	if err != nil {
		return Model{}, err
	}

	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "filter names"
	in.CharLimit = 64
	in.Width = panelWidth - 6

	m := Model{
		sc:     sc,
		opts:   opts,
		keys:   DefaultKeyMap,
		logger: opts.Logger,
		width:  defaultWidth,
		height: defaultHeight,
		filter: in,
		cycle:  -1,
	}
	m.pointer = [2]int{m.cols() / 2, m.rows() / 2}
	return m, nil
}

// Scene returns the explored scene.
func (m Model) Scene() *scene.Scene { return m.sc }

// Init starts the layout clock and, when watching, the reload listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForChange())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg{path: path}
	}
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.pointer = m.clamp(m.pointer)
		return m, nil

	case tickMsg:
		m.sc.Step()
		return m, m.tick()

	case reloadMsg:
		m.reload(msg.path)
		return m, m.waitForChange()

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mach := m.sc.Machine()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.move(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.move(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.move(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.move(1, 0)

	case key.Matches(msg, m.keys.Press):
		switch {
		case m.dragging != "":
			m.apply(selection.DragEnd(m.dragging))
			m.dragging = ""
		case m.anchor != nil:
			m.status = "finish the brush with enter"
		default:
			if id := m.nodeAt(m.pointer); id != "" {
				if ch := m.apply(selection.DragStart(id)); !ch.Noop {
					m.dragging = id
				}
			} else {
				m.apply(selection.BackgroundClick())
			}
		}

	case key.Matches(msg, m.keys.Shift):
		if mach.ShiftDown() {
			m.apply(selection.KeyUp())
		} else {
			m.apply(selection.KeyDown(true))
		}

	case key.Matches(msg, m.keys.Brush):
		switch {
		case m.anchor != nil:
			m.apply(selection.BrushEnd(m.brushExtent()))
			m.anchor = nil
		case mach.BrushMode() && m.dragging == "":
			if ch := m.apply(selection.BrushStart()); !ch.Noop {
				a := m.pointer
				m.anchor = &a
				m.apply(selection.BrushUpdate(m.brushExtent()))
			}
		default:
			m.status = "hold shift (b) to brush"
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Cycle):
		visible := mach.Visible()
		if len(visible) > 0 {
			m.cycle = (m.cycle + 1) % len(visible)
			m.apply(selection.Focus(visible[m.cycle]))
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Done) {
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if q := m.filter.Value(); q != m.sc.Machine().Query() {
		m.apply(selection.Filter(q))
		m.cycle = -1
	}
	return m, cmd
}

// move shifts the pointer and extends an active drag or brush with it.
func (m *Model) move(dc, dr int) {
	next := m.clamp([2]int{m.pointer[0] + dc, m.pointer[1] + dr})
	dc, dr = next[0]-m.pointer[0], next[1]-m.pointer[1]
	if dc == 0 && dr == 0 {
		return
	}
	m.pointer = next

	switch {
	case m.dragging != "":
		cell := m.cellSize()
		m.apply(selection.DragMove(float64(dc)*cell.X, float64(dr)*cell.Y))
	case m.anchor != nil:
		m.apply(selection.BrushUpdate(m.brushExtent()))
	}
}

// apply hands one event to the scene and records failures in the status
// line.
func (m *Model) apply(ev selection.Event) selection.Change {
	ch, err := m.sc.Handle(context.Background(), ev)
	if err != nil {
		m.status = errors.UserMessage(err)
		m.failed = true
		return ch
	}
	m.failed = false
	if !ch.Noop {
		m.status = ""
	}
	return ch
}

// reload rebuilds the scene from path. A payload that fails to load leaves
// the current scene in place.
func (m *Model) reload(path string) {
	g, err := graph.ReadFile(path)
	if err == nil {
		err = m.sc.Reload(g)
	}
	if err != nil {
		m.logger.Warn("reload failed", "path", path, "err", err)
		m.status = fmt.Sprintf("reload failed: %s", errors.UserMessage(err))
		m.failed = true
		return
	}
	m.dragging = ""
	m.anchor = nil
	m.cycle = -1
	m.filter.SetValue("")
	m.status = fmt.Sprintf("reloaded %d authors", g.NodeCount())
	m.failed = false
}

// =============================================================================
// Geometry
// =============================================================================

func (m Model) cols() int {
	return max(m.width-panelWidth-4, minCanvas)
}

func (m Model) rows() int {
	return max(m.height-4, minCanvas/2)
}

// world is the layout canvas size.
func (m Model) world() r2.Vec {
	return r2.Scale(2, m.opts.Scene.Layout.Center())
}

func (m Model) cellSize() r2.Vec {
	w := m.world()
	return r2.Vec{X: w.X / float64(m.cols()), Y: w.Y / float64(m.rows())}
}

func (m Model) clamp(p [2]int) [2]int {
	return [2]int{
		min(max(p[0], 0), m.cols()-1),
		min(max(p[1], 0), m.rows()-1),
	}
}

// cellOf maps a layout position to a canvas cell.
func (m Model) cellOf(p r2.Vec) ([2]int, bool) {
	cell := m.cellSize()
	c := [2]int{int(p.X / cell.X), int(p.Y / cell.Y)}
	if p.X < 0 || p.Y < 0 || c[0] >= m.cols() || c[1] >= m.rows() {
		return c, false
	}
	return c, true
}

// nodeAt returns the node drawn at cell, preferring the last drawn.
// A node occupies as many cells as its label has runes.
func (m Model) nodeAt(cell [2]int) string {
	hit := ""
	for _, n := range m.sc.Machine().Nodes() {
		c, ok := m.cellOf(n.Pos)
		if !ok || c[1] != cell[1] {
			continue
		}
		if cell[0] >= c[0] && cell[0] < c[0]+len(label(n.Node)) {
			hit = n.ID
		}
	}
	return hit
}

// brushExtent covers every cell between the anchor and the pointer.
func (m Model) brushExtent() selection.Extent {
	a := m.pointer
	if m.anchor != nil {
		a = *m.anchor
	}
	cell := m.cellSize()
	lo := [2]int{min(a[0], m.pointer[0]), min(a[1], m.pointer[1])}
	hi := [2]int{max(a[0], m.pointer[0]) + 1, max(a[1], m.pointer[1]) + 1}
	return selection.NewExtent(
		r2.Vec{X: float64(lo[0]) * cell.X, Y: float64(lo[1]) * cell.Y},
		r2.Vec{X: float64(hi[0]) * cell.X, Y: float64(hi[1]) * cell.Y},
	)
}

func label(n graph.Node) []rune {
	r := []rune(n.Initials)
	if len(r) > 3 {
		r = r[:3]
	}
	return r
}

// =============================================================================
// Run
// =============================================================================

// Run explores g until the user quits or ctx is cancelled.
func Run(ctx context.Context, g graph.Graph, opts Options) error {
	m, err := New(g, opts)
	if err != nil {
		return err
	}

	if opts.Watch && opts.Path != "" {
		w, err := watch.New(opts.Path, 0, m.logger)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
		m.changes = w.Changes()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
