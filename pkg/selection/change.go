package selection

import "gonum.org/v1/gonum/spatial/r2"

// Change describes the net effect of one applied event.
type Change struct {
	Kind Kind `json:"kind,omitempty"`

	// Noop is set when the event was ignored.
	Noop bool `json:"noop,omitempty"`

	// Nodes lists ids whose selection flag flipped, in payload order.
	Nodes []string `json:"nodes,omitempty"`

	// Links lists indices of links whose highlight flipped.
	Links []int `json:"links,omitempty"`

	// Visibility lists ids whose filter visibility flipped.
	Visibility []string `json:"visibility,omitempty"`

	// Pinned lists ids newly pinned or whose pin moved.
	Pinned []string `json:"pinned,omitempty"`

	// Released lists ids that lost their pin.
	Released []string `json:"released,omitempty"`

	FocusChanged bool `json:"focus_changed,omitempty"`
	BrushChanged bool `json:"brush_changed,omitempty"`

	// PanTo names a focused node that lies outside the viewport.
	PanTo string `json:"pan_to,omitempty"`
}

// Empty reports whether nothing observable changed.
func (c Change) Empty() bool {
	return len(c.Nodes) == 0 && len(c.Links) == 0 && len(c.Visibility) == 0 &&
		len(c.Pinned) == 0 && len(c.Released) == 0 &&
		!c.FocusChanged && !c.BrushChanged && c.PanTo == ""
}

// PinsChanged reports whether the layout engine needs to resync pins.
func (c Change) PinsChanged() bool {
	return len(c.Pinned) > 0 || len(c.Released) > 0
}

type state struct {
	selected  []bool
	pins      []*r2.Vec
	links     []bool
	visible   []bool
	focused   string
	info      Info
	brushMode bool
	brush     *Extent
}

func (m *Machine) capture() state {
	s := state{
		selected:  make([]bool, len(m.nodes)),
		pins:      make([]*r2.Vec, len(m.nodes)),
		links:     make([]bool, len(m.links)),
		visible:   append([]bool(nil), m.visible...),
		focused:   m.focused,
		info:      m.info,
		brushMode: m.brushMode,
	}
	for i, n := range m.nodes {
		s.selected[i] = n.Selected
		if n.Fixed != nil {
			p := *n.Fixed
			s.pins[i] = &p
		}
	}
	for i, l := range m.links {
		s.links[i] = l.Selected
	}
	if m.brush != nil {
		e := *m.brush
		s.brush = &e
	}
	return s
}

func (m *Machine) diff(before state) Change {
	var ch Change
	for i, n := range m.nodes {
		if before.selected[i] != n.Selected {
			ch.Nodes = append(ch.Nodes, n.ID)
		}
		if before.visible[i] != m.visible[i] {
			ch.Visibility = append(ch.Visibility, n.ID)
		}
		was := before.pins[i]
		switch {
		case was != nil && n.Fixed == nil:
			ch.Released = append(ch.Released, n.ID)
		case n.Fixed != nil && (was == nil || *was != *n.Fixed):
			ch.Pinned = append(ch.Pinned, n.ID)
		}
	}
	for i, l := range m.links {
		if before.links[i] != l.Selected {
			ch.Links = append(ch.Links, i)
		}
	}
	ch.FocusChanged = before.focused != m.focused || before.info != m.info
	ch.BrushChanged = before.brushMode != m.brushMode || !sameExtent(before.brush, m.brush)
	ch.PanTo = m.pan
	return ch
}

func sameExtent(a, b *Extent) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *Machine) notify(ch Change) {
	for _, s := range m.sinks {
		for _, id := range ch.Nodes {
			s.SetNodeSelected(id, m.lookup(id).Selected)
		}
		for _, i := range ch.Links {
			s.SetLinkSelected(i, m.links[i].Selected)
		}
		for _, id := range ch.Visibility {
			s.SetVisible(id, m.visible[m.index[id]])
		}
		if ch.FocusChanged {
			s.SetInfo(m.info)
		}
		if ch.BrushChanged {
			if bs, ok := s.(BrushSink); ok {
				bs.SetBrush(m.brushMode, m.brush)
			}
		}
	}
}
