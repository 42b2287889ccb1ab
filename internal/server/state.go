package server

import (
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/scene"
	"github.com/matzehuels/authornet/pkg/selection"
)

// NodeState is one author as a client draws it.
type NodeState struct {
	graph.Node

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	FontSize float64 `json:"font_size"`
	Fill     string  `json:"fill"`
	Pinned   bool    `json:"pinned,omitempty"`
	Selected bool    `json:"selected"`
	Visible  bool    `json:"visible"`
}

// LinkState is one co-authorship edge as a client draws it.
type LinkState struct {
	graph.Link

	Width    float64 `json:"width"`
	Selected bool    `json:"selected"`
}

// State is the full observable state of a live scene.
type State struct {
	Nodes     []NodeState       `json:"nodes"`
	Links     []LinkState       `json:"links"`
	Selected  []string          `json:"selected"`
	Focused   string            `json:"focused,omitempty"`
	Info      selection.Info    `json:"info"`
	InfoLines []string          `json:"info_lines,omitempty"`
	Visible   []string          `json:"visible"`
	Query     string            `json:"query,omitempty"`
	ShiftDown bool              `json:"shift_down"`
	BrushMode bool              `json:"brush_mode"`
	Brushing  bool              `json:"brushing"`
	Brush     *selection.Extent `json:"brush,omitempty"`
	Ticks     int               `json:"ticks"`
	Settled   bool              `json:"settled"`
}

// stateOf captures sc. It must run on the scene's loop goroutine.
func stateOf(sc *scene.Scene) State {
	m := sc.Machine()
	fills := graph.Fills(sc.Graph())

	nodes := m.Nodes()
	st := State{
		Nodes:     make([]NodeState, len(nodes)),
		Links:     make([]LinkState, 0, len(m.Links())),
		Selected:  m.Selected(),
		Focused:   m.Focused(),
		Info:      m.Info(),
		InfoLines: m.Info().Lines(),
		Visible:   m.Visible(),
		Query:     m.Query(),
		ShiftDown: m.ShiftDown(),
		BrushMode: m.BrushMode(),
		Brushing:  m.Brushing(),
		Brush:     m.Brush(),
		Ticks:     sc.Ticks(),
		Settled:   sc.Settled(),
	}
	for i, n := range nodes {
		st.Nodes[i] = NodeState{
			Node:     n.Node,
			X:        n.Pos.X,
			Y:        n.Pos.Y,
			Radius:   n.Radius(),
			FontSize: n.FontSize(),
			Fill:     fills[n.ID],
			Pinned:   n.Pinned(),
			Selected: n.Selected,
			Visible:  m.IsVisible(n.ID),
		}
	}
	for _, l := range m.Links() {
		st.Links = append(st.Links, LinkState{
			Link:     l.Link,
			Width:    l.StrokeWidth(),
			Selected: l.Selected,
		})
	}
	if st.Selected == nil {
		st.Selected = []string{}
	}
	if st.Visible == nil {
		st.Visible = []string{}
	}
	return st
}

// positionsOf captures the current layout positions. It must run on the
// scene's loop goroutine.
func positionsOf(sc *scene.Scene) map[string][2]float64 {
	pos := sc.Machine().Positions()
	out := make(map[string][2]float64, len(pos))
	for id, p := range pos {
		out[id] = [2]float64{p.X, p.Y}
	}
	return out
}
