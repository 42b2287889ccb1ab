package selection

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
)

// panMargin is the inset used when deciding whether a focused node is
// still comfortably inside the viewport.
const panMargin = 10.0

// Machine is the selection and focus state of one scene.
type Machine struct {
	nodes []*Node
	index map[string]int
	links []Link

	shiftDown bool
	brushMode bool // brush overlay exists
	brushing  bool // brush gesture in progress
	brush     *Extent
	dragging  string

	focused string
	info    Info

	query   string
	visible []bool

	viewport Extent
	pan      string

	sinks []HighlightSink
}

// New builds a machine from a validated payload. Nodes start unselected,
// unpinned, visible and spread on a spiral around the origin.
// Nothing is built when the payload fails validation.
func New(g graph.Graph) (*Machine, error) {
	if err := graph.Validate(g); err != nil {
		return nil, err
	}
	m := &Machine{
		nodes:   make([]*Node, len(g.Nodes)),
		index:   make(map[string]int, len(g.Nodes)),
		links:   make([]Link, len(g.Links)),
		visible: make([]bool, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		m.nodes[i] = &Node{Node: n, Pos: seedPosition(i)}
		m.index[n.ID] = i
		m.visible[i] = true
	}
	for i, l := range g.Links {
		m.links[i] = Link{Link: l}
	}
	return m, nil
}

// Attach registers a sink and pushes the full current state to it.
func (m *Machine) Attach(s HighlightSink) {
	m.sinks = append(m.sinks, s)
	m.sync(s)
}

// Detach removes a previously attached sink.
func (m *Machine) Detach(s HighlightSink) {
	for i, existing := range m.sinks {
		if existing == s {
			m.sinks = append(m.sinks[:i], m.sinks[i+1:]...)
			return
		}
	}
}

func (m *Machine) sync(s HighlightSink) {
	for i, n := range m.nodes {
		s.SetNodeSelected(n.ID, n.Selected)
		s.SetVisible(n.ID, m.visible[i])
	}
	for i, l := range m.links {
		s.SetLinkSelected(i, l.Selected)
	}
	s.SetInfo(m.info)
	if bs, ok := s.(BrushSink); ok {
		bs.SetBrush(m.brushMode, m.brush)
	}
}

func (m *Machine) lookup(id string) *Node {
	if i, ok := m.index[id]; ok {
		return m.nodes[i]
	}
	return nil
}

// =============================================================================
// Apply - Transitions
// =============================================================================

// Apply runs one event to completion and notifies attached sinks of the
// entities whose state changed.
//
// Events that lack required detail, reference unknown nodes, arrive out of
// gesture order or are synthetic gesture events leave the machine untouched
// and return a Change with Noop set. The only error is INVALID_EVENT for a
// kind the machine does not know.
func (m *Machine) Apply(ev Event) (Change, error) {
	if !ev.Kind.Valid() {
		return Change{Kind: ev.Kind, Noop: true},
			errors.New(errors.ErrCodeInvalidEvent, "unknown event kind %d", int(ev.Kind))
	}
	if ev.Synthetic && ev.Kind.gesture() {
		return Change{Kind: ev.Kind, Noop: true}, nil
	}

	before := m.capture()
	m.pan = ""
	if !m.transition(ev) {
		return Change{Kind: ev.Kind, Noop: true}, nil
	}
	ch := m.diff(before)
	ch.Kind = ev.Kind
	m.notify(ch)
	return ch, nil
}

func (m *Machine) transition(ev Event) bool {
	switch ev.Kind {
	case KindBackgroundClick:
		return m.backgroundClick()
	case KindDragStart:
		return m.dragStart(ev.NodeID)
	case KindDragMove:
		return m.dragMove(ev.DX, ev.DY)
	case KindDragEnd:
		return m.dragEnd()
	case KindBrushStart:
		return m.brushStart()
	case KindBrushUpdate:
		return m.brushUpdate(ev.Extent)
	case KindBrushEnd:
		return m.brushEnd()
	case KindKeyDown:
		return m.keyDown(ev.Shift)
	case KindKeyUp:
		return m.keyUp()
	case KindFocus:
		return m.focus(ev.NodeID)
	case KindFilter:
		return m.filter(ev.Query)
	}
	return false
}

// backgroundClick clears the selection, the focus and every link
// highlight. A click during a brush belongs to the brush.
func (m *Machine) backgroundClick() bool {
	if m.brushing {
		return false
	}
	for _, n := range m.nodes {
		n.Selected = false
		n.PreviouslySelected = false
	}
	m.clearFocus()
	return true
}

// dragStart selects the node, exclusively unless it is already selected or
// shift is held, then pins every selected node where it stands.
func (m *Machine) dragStart(id string) bool {
	n := m.lookup(id)
	if n == nil {
		return false
	}
	wasSelected := n.Selected
	if !wasSelected && !m.shiftDown {
		for _, other := range m.nodes {
			other.Selected = false
			other.PreviouslySelected = false
		}
	}
	n.PreviouslySelected = wasSelected
	n.Selected = true

	for _, s := range m.nodes {
		if s.Selected {
			p := s.Pos
			s.Fixed = &p
		}
	}
	m.dragging = id
	m.setFocus(n)
	return true
}

// dragMove advances every selected pin by the pointer delta.
func (m *Machine) dragMove(dx, dy float64) bool {
	if m.dragging == "" {
		return false
	}
	delta := r2.Vec{X: dx, Y: dy}
	for _, n := range m.nodes {
		if !n.Selected {
			continue
		}
		base := n.Pos
		if n.Fixed != nil {
			base = *n.Fixed
		}
		moved := r2.Add(base, delta)
		n.Fixed = &moved
		n.Pos = moved
	}
	return true
}

// dragEnd releases the dragged node and every selected node.
func (m *Machine) dragEnd() bool {
	if m.dragging == "" {
		return false
	}
	if n := m.lookup(m.dragging); n != nil {
		n.Fixed = nil
	}
	for _, n := range m.nodes {
		if n.Selected {
			n.Fixed = nil
		}
	}
	m.dragging = ""
	return true
}

// brushStart snapshots the selection the brush toggles against. Without
// shift held the snapshot is empty and the brush replaces the selection.
func (m *Machine) brushStart() bool {
	if !m.brushMode {
		return false
	}
	m.brushing = true
	m.brush = nil
	for _, n := range m.nodes {
		n.PreviouslySelected = m.shiftDown && n.Selected
	}
	return true
}

// brushUpdate recomputes every node as previouslySelected XOR contained.
func (m *Machine) brushUpdate(extent *Extent) bool {
	if !m.brushing || extent == nil {
		return false
	}
	e := extent.Normalize()
	m.brush = &e
	for _, n := range m.nodes {
		n.Selected = n.PreviouslySelected != e.Contains(n.Pos)
	}
	return true
}

// brushEnd finishes the gesture and drops the overlay once shift has been
// released. An end without an extent (a click with no drag) keeps the
// selection the last update produced.
func (m *Machine) brushEnd() bool {
	if !m.brushing {
		return false
	}
	m.brush = nil
	if !m.shiftDown {
		m.brushMode = false
	}
	m.brushing = false
	return true
}

// keyDown records the modifier state. Shift creates the brush overlay
// unless one already exists.
func (m *Machine) keyDown(shift bool) bool {
	m.shiftDown = shift
	if shift && !m.brushMode {
		m.brushMode = true
	}
	return true
}

// keyUp releases shift. The overlay is removed at once unless a brush is in
// progress, in which case brushEnd removes it.
func (m *Machine) keyUp() bool {
	m.shiftDown = false
	if m.brushMode && !m.brushing {
		m.brushMode = false
		m.brush = nil
	}
	return true
}

// focus shows a node in the info panel without touching the selection.
func (m *Machine) focus(id string) bool {
	n := m.lookup(id)
	if n == nil {
		return false
	}
	m.setFocus(n)
	return true
}

// setFocus updates the info panel and re-derives every link highlight from
// the focused id. A pan is requested when the node left the viewport.
func (m *Machine) setFocus(n *Node) {
	m.focused = n.ID
	m.info = infoFor(n)
	for i := range m.links {
		m.links[i].Selected = m.links[i].Touches(n.ID)
	}
	if !m.viewport.Empty() && !m.viewport.Inset(panMargin).Contains(n.Pos) {
		m.pan = n.ID
	}
}

func (m *Machine) clearFocus() {
	m.focused = ""
	m.info = Info{}
	for i := range m.links {
		m.links[i].Selected = false
	}
}
