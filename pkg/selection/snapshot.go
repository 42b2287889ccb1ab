package selection

import "gonum.org/v1/gonum/spatial/r2"

// Snapshot is the persistable part of a machine: selection, focus, filter
// and layout positions. Gesture state is never persisted.
type Snapshot struct {
	Selected  []string              `json:"selected"`
	Focused   string                `json:"focused,omitempty"`
	Query     string                `json:"query,omitempty"`
	Positions map[string][2]float64 `json:"positions,omitempty"`
}

// Snapshot captures the current persistable state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Selected:  m.Selected(),
		Focused:   m.focused,
		Query:     m.query,
		Positions: make(map[string][2]float64, len(m.nodes)),
	}
	if s.Selected == nil {
		s.Selected = []string{}
	}
	for _, n := range m.nodes {
		s.Positions[n.ID] = [2]float64{n.Pos.X, n.Pos.Y}
	}
	return s
}

// Restore replaces selection, focus, filter and positions with a snapshot.
// Any gesture in progress is abandoned and all pins are released. Ids the
// payload does not know are skipped, so a snapshot taken against an older
// payload restores what still applies.
func (m *Machine) Restore(s Snapshot) Change {
	before := m.capture()
	m.pan = ""

	m.brushing = false
	m.brush = nil
	m.dragging = ""

	want := make(map[string]bool, len(s.Selected))
	for _, id := range s.Selected {
		want[id] = true
	}
	for _, n := range m.nodes {
		n.Selected = want[n.ID]
		n.PreviouslySelected = false
		n.Fixed = nil
		if p, ok := s.Positions[n.ID]; ok {
			n.Pos = r2.Vec{X: p[0], Y: p[1]}
		}
	}
	if n := m.lookup(s.Focused); n != nil {
		m.setFocus(n)
	} else {
		m.clearFocus()
	}
	m.filter(s.Query)

	ch := m.diff(before)
	m.notify(ch)
	return ch
}
