package selection

import "gonum.org/v1/gonum/spatial/r2"

// =============================================================================
// Read Access
// =============================================================================

// Len returns the number of nodes.
func (m *Machine) Len() int { return len(m.nodes) }

// Node returns a copy of the node with the given id.
func (m *Machine) Node(id string) (Node, bool) {
	n := m.lookup(id)
	if n == nil {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes in payload order.
func (m *Machine) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.clone()
	}
	return out
}

// Links returns copies of all links in payload order.
func (m *Machine) Links() []Link {
	return append([]Link(nil), m.links...)
}

// HighlightedLinks returns the indices of links touching the focused node.
func (m *Machine) HighlightedLinks() []int {
	var out []int
	for i, l := range m.links {
		if l.Selected {
			out = append(out, i)
		}
	}
	return out
}

// IsSelected reports whether the node is in the selection set.
func (m *Machine) IsSelected(id string) bool {
	n := m.lookup(id)
	return n != nil && n.Selected
}

// Selected returns the ids of the selection set in payload order.
func (m *Machine) Selected() []string {
	var ids []string
	for _, n := range m.nodes {
		if n.Selected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Focused returns the focused node id, or "" when none.
func (m *Machine) Focused() string { return m.focused }

// Info returns the info panel content.
func (m *Machine) Info() Info { return m.info }

// ShiftDown reports the shift modifier state.
func (m *Machine) ShiftDown() bool { return m.shiftDown }

// BrushMode reports whether the brush overlay exists.
func (m *Machine) BrushMode() bool { return m.brushMode }

// Brushing reports whether a brush gesture is in progress.
func (m *Machine) Brushing() bool { return m.brushing }

// Brush returns the current brush rectangle, or nil.
func (m *Machine) Brush() *Extent {
	if m.brush == nil {
		return nil
	}
	e := *m.brush
	return &e
}

// Dragging returns the id of the node being dragged, or "".
func (m *Machine) Dragging() string { return m.dragging }

// =============================================================================
// Positions
// =============================================================================

// SetPositions copies layout positions into the machine. Unknown ids are
// ignored. Pinned nodes take the position of their pin.
func (m *Machine) SetPositions(pos map[string]r2.Vec) {
	for id, p := range pos {
		n := m.lookup(id)
		if n == nil {
			continue
		}
		if n.Fixed != nil {
			p = *n.Fixed
		}
		n.Pos = p
	}
}

// Positions returns the current position of every node.
func (m *Machine) Positions() map[string]r2.Vec {
	out := make(map[string]r2.Vec, len(m.nodes))
	for _, n := range m.nodes {
		out[n.ID] = n.Pos
	}
	return out
}

// Pins returns the fixed positions of pinned nodes.
func (m *Machine) Pins() map[string]r2.Vec {
	out := make(map[string]r2.Vec)
	for _, n := range m.nodes {
		if n.Fixed != nil {
			out[n.ID] = *n.Fixed
		}
	}
	return out
}

// SetViewport sets the visible region in layout coordinates. Focusing a
// node outside it yields a pan request. An empty viewport disables panning.
func (m *Machine) SetViewport(e Extent) { m.viewport = e.Normalize() }

// Viewport returns the visible region.
func (m *Machine) Viewport() Extent { return m.viewport }

// InView reports whether the node lies inside the viewport shrunk by margin.
func (m *Machine) InView(id string, margin float64) bool {
	n := m.lookup(id)
	if n == nil {
		return false
	}
	return m.viewport.Inset(margin).Contains(n.Pos)
}
