package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/authornet/pkg/graph"
)

const trioPayload = `{
	"nodes": [
		{"id": "a", "name": "Ada Lovelace", "initials": "AL", "publications": 4, "group": 1},
		{"id": "b", "name": "Charles Babbage", "initials": "CB", "publications": 9, "group": 1},
		{"id": "c", "initials": "C", "publications": 1, "group": 2}
	],
	"links": [{"source": "a", "target": "b", "value": 2}]
}`

func newModel(t *testing.T) Model {
	t.Helper()
	g, err := graph.Parse([]byte(trioPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := New(g, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

// pointAt moves the pointer onto the first node drawn on the canvas.
func pointAt(t *testing.T, m Model) (Model, string) {
	t.Helper()
	for _, n := range m.sc.Machine().Nodes() {
		if c, ok := m.cellOf(n.Pos); ok {
			m.pointer = c
			return m, m.nodeAt(c)
		}
	}
	t.Fatal("no node on the canvas")
	return m, ""
}

func TestWindowSize(t *testing.T) {
	m := newModel(t)
	if got, want := m.cols(), 120-panelWidth-4; got != want {
		t.Errorf("cols = %d, want %d", got, want)
	}
	if got, want := m.rows(), 36; got != want {
		t.Errorf("rows = %d, want %d", got, want)
	}

	m.pointer = [2]int{500, 500}
	m = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	if m.pointer != [2]int{m.cols() - 1, m.rows() - 1} {
		t.Errorf("pointer = %v, not clamped to %dx%d", m.pointer, m.cols(), m.rows())
	}
}

func TestPressDragsNode(t *testing.T) {
	m, id := pointAt(t, newModel(t))
	if id == "" {
		t.Fatal("pointer is not over a node")
	}

	m = send(t, m, keySpace)
	mach := m.sc.Machine()
	if m.dragging != id {
		t.Errorf("dragging = %q, want %q", m.dragging, id)
	}
	if got := mach.Selected(); len(got) != 1 || got[0] != id {
		t.Errorf("selected = %v, want [%s]", got, id)
	}
	if mach.Focused() != id {
		t.Errorf("focused = %q, want %q", mach.Focused(), id)
	}

	before, _ := mach.Node(id)
	m = send(t, m, keyRight)
	after, _ := mach.Node(id)
	if want := before.Pos.X + m.cellSize().X; after.Pos.X != want {
		t.Errorf("dragged %s to x=%v, want %v", id, after.Pos.X, want)
	}

	m = send(t, m, keySpace)
	if m.dragging != "" {
		t.Errorf("dragging = %q after release", m.dragging)
	}
	if mach.Dragging() != "" {
		t.Errorf("machine still dragging %q", mach.Dragging())
	}
}

func TestPressBackgroundClears(t *testing.T) {
	m, _ := pointAt(t, newModel(t))
	m = send(t, m, keySpace)
	m = send(t, m, keySpace)

	// Find an empty cell.
	found := false
	for r := 0; r < m.rows() && !found; r++ {
		for c := 0; c < m.cols(); c++ {
			if m.nodeAt([2]int{c, r}) == "" {
				m.pointer = [2]int{c, r}
				found = true
				break
			}
		}
	}
	m = send(t, m, keySpace)

	mach := m.sc.Machine()
	if len(mach.Selected()) != 0 {
		t.Errorf("selected = %v after background click", mach.Selected())
	}
	if mach.Focused() != "" {
		t.Errorf("focused = %q after background click", mach.Focused())
	}
}

func TestShiftToggles(t *testing.T) {
	m := newModel(t)
	m = send(t, m, runes("b"))
	mach := m.sc.Machine()
	if !mach.ShiftDown() || !mach.BrushMode() {
		t.Fatalf("shift=%v brush=%v after b", mach.ShiftDown(), mach.BrushMode())
	}
	m = send(t, m, runes("b"))
	if mach.ShiftDown() || mach.BrushMode() {
		t.Errorf("shift=%v brush=%v after second b", mach.ShiftDown(), mach.BrushMode())
	}
}

func TestBrushWithoutShift(t *testing.T) {
	m := newModel(t)
	m = send(t, m, keyEnter)
	if m.anchor != nil {
		t.Error("brush started without shift")
	}
	if m.status == "" {
		t.Error("no hint after enter without shift")
	}
}

func TestBrushSelectsCanvas(t *testing.T) {
	m := newModel(t)
	m = send(t, m, runes("b"))

	m.pointer = [2]int{0, 0}
	m = send(t, m, keyEnter)
	if m.anchor == nil {
		t.Fatal("enter did not anchor a brush")
	}
	mach := m.sc.Machine()
	if !mach.Brushing() {
		t.Fatal("machine is not brushing")
	}

	m.pointer = [2]int{m.cols() - 2, m.rows() - 1}
	m = send(t, m, keyRight)

	want := 0
	for _, n := range mach.Nodes() {
		if _, ok := m.cellOf(n.Pos); ok {
			want++
		}
	}
	if got := len(mach.Selected()); got != want {
		t.Errorf("brush selected %d nodes, want %d on canvas", got, want)
	}
	if mach.Brush() == nil {
		t.Error("no brush overlay while brushing")
	}

	// Pressing mid-brush is refused.
	m = send(t, m, keySpace)
	if m.dragging != "" {
		t.Errorf("drag %q started during brush", m.dragging)
	}

	m = send(t, m, keyEnter)
	if m.anchor != nil || mach.Brushing() {
		t.Error("brush still active after second enter")
	}
	if !mach.BrushMode() {
		t.Error("overlay dropped while shift is held")
	}
	if got := len(mach.Selected()); got != want {
		t.Errorf("selection changed on brush end: %d, want %d", got, want)
	}
}

func TestCycleFocus(t *testing.T) {
	m := newModel(t)
	mach := m.sc.Machine()
	for _, want := range []string{"a", "b", "c", "a"} {
		m = send(t, m, keyTab)
		if mach.Focused() != want {
			t.Errorf("focused = %q, want %q", mach.Focused(), want)
		}
	}
	if len(mach.Selected()) != 0 {
		t.Errorf("focus changed selection: %v", mach.Selected())
	}
}

func TestFilter(t *testing.T) {
	m := newModel(t)
	m = send(t, m, runes("/"))
	if !m.filtering {
		t.Fatal("slash did not open the filter")
	}
	m = send(t, m, runes("b"))
	m = send(t, m, runes("a"))

	mach := m.sc.Machine()
	if mach.Query() != "ba" {
		t.Errorf("query = %q, want %q", mach.Query(), "ba")
	}
	if got := mach.Visible(); len(got) != 1 || got[0] != "b" {
		t.Errorf("visible = %v, want [b]", got)
	}
	if mach.ShiftDown() {
		t.Error("typing into the filter toggled shift")
	}

	m = send(t, m, keyEsc)
	if m.filtering {
		t.Error("esc did not close the filter")
	}
	m = send(t, m, keyTab)
	if mach.Focused() != "b" {
		t.Errorf("cycle focused %q, want the only visible node", mach.Focused())
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestTickSteps(t *testing.T) {
	m := newModel(t)
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick did not schedule the next tick")
	}
	if got := next.(Model).Scene().Ticks(); got != 1 {
		t.Errorf("ticks = %d, want 1", got)
	}
}

func TestReload(t *testing.T) {
	m := newModel(t)
	m = send(t, m, keyTab)

	path := filepath.Join(t.TempDir(), "graph.json")
	pair := `{"nodes": [{"id": "x", "initials": "X", "publications": 1},
		{"id": "y", "initials": "Y", "publications": 2}],
		"links": [{"source": "x", "target": "y", "value": 1}]}`
	if err := os.WriteFile(path, []byte(pair), 0o644); err != nil {
		t.Fatal(err)
	}

	m = send(t, m, reloadMsg{path: path})
	mach := m.sc.Machine()
	if mach.Len() != 2 {
		t.Errorf("reloaded %d nodes, want 2", mach.Len())
	}
	if m.failed {
		t.Errorf("reload failed: %s", m.status)
	}
	if mach.Focused() != "" {
		t.Errorf("focus %q survived reload", mach.Focused())
	}

	if err := os.WriteFile(path, []byte(`{"nodes": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	m = send(t, m, reloadMsg{path: path})
	if !m.failed {
		t.Error("reload of a payload without links succeeded")
	}
	if m.sc.Machine().Len() != 2 {
		t.Error("failed reload replaced the scene")
	}
}

func TestView(t *testing.T) {
	m := newModel(t)
	out := m.View()
	for _, want := range []string{"authornet", "no author focused", "Ada Lovelace", "selected 0/3"} {
		if !strings.Contains(out, want) {
			t.Errorf("view lacks %q", want)
		}
	}

	m = send(t, m, keyTab)
	if out := m.View(); !strings.Contains(out, "Author: Ada Lovelace") || strings.Contains(out, "no author focused") {
		t.Error("view does not show the focused author")
	}
}
