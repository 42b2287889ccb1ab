// Package nodelink renders a co-authorship scene as a static node-link
// diagram.
//
// # Overview
//
// The diagram is a snapshot of a live [selection.Machine]: every node is
// drawn at its current layout position as a circle sized by publication
// count, selected authors get a bold outline, and the links of the focused
// author are drawn in red. Graphviz only draws; the neato engine is told to
// keep every node where the layout put it.
//
// # Usage
//
//	dot := nodelink.ToDOT(machine, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Render] does both and reports to the render hooks in
// [observability].
//
// # DOT Format
//
// [ToDOT] produces an undirected graph whose nodes carry pos="x,y!" in
// points (inputscale=72). It can be saved and processed with external
// Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
//
// [selection.Machine]: github.com/matzehuels/authornet/pkg/selection.Machine
// [observability]: github.com/matzehuels/authornet/pkg/observability
package nodelink
