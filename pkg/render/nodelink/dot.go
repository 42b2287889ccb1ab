package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/observability"
	"github.com/matzehuels/authornet/pkg/selection"
)

// Colors for selection state.
const (
	selectedStroke  = "#000000"
	defaultStroke   = "#ffffff"
	highlightedLink = "#ff0000"
	defaultLink     = "#999999"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Labels draws author initials inside the circles.
	Labels bool

	// HideFiltered omits nodes hidden by the name filter, and their links.
	HideFiltered bool
}

// ToDOT converts the machine's current state to Graphviz DOT.
// Nodes appear in payload order, so the output is stable for a given state.
func ToDOT(m *selection.Machine, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [color=\"" + defaultLink + "\"];\n")
	buf.WriteString("\n")

	fills := graph.Fills(payload(m))
	shown := make(map[string]bool, m.Len())
	for _, n := range m.Nodes() {
		if opts.HideFiltered && !m.IsVisible(n.ID) {
			continue
		}
		shown[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, fills[n.ID], opts.Labels), ", "))
	}

	buf.WriteString("\n")
	for _, l := range m.Links() {
		if !shown[l.Source] || !shown[l.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", l.Source, l.Target, strings.Join(fmtLinkAttrs(l), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func payload(m *selection.Machine) graph.Graph {
	var g graph.Graph
	for _, n := range m.Nodes() {
		g.Nodes = append(g.Nodes, n.Node)
	}
	return g
}

func fmtAttrs(n selection.Node, fill string, labels bool) []string {
	label := ""
	if labels {
		label = n.Initials
	}
	stroke, pen := defaultStroke, "1.5"
	if n.Selected {
		stroke, pen = selectedStroke, "3"
	}
	// Graphviz puts y up; the layout puts y down.
	return []string{
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.Pos.X), fmtFloat(-n.Pos.Y)),
		fmt.Sprintf("width=%s", fmtFloat(2*n.Radius()/72)),
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fontsize=%s", fmtFloat(n.FontSize())),
		fmt.Sprintf("fillcolor=%q", fill),
		fmt.Sprintf("color=%q", stroke),
		"penwidth=" + pen,
		fmt.Sprintf("tooltip=%q", n.DisplayName()),
	}
}

func fmtLinkAttrs(l selection.Link) []string {
	attrs := []string{"penwidth=" + fmtFloat(l.StrokeWidth())}
	if l.Selected {
		attrs = append(attrs, fmt.Sprintf("color=%q", highlightedLink))
	}
	return attrs
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.SetLayout(graphviz.NEATO).Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render converts the machine's state to SVG and reports the render to the
// registered hooks.
func Render(ctx context.Context, m *selection.Machine, opts Options) ([]byte, error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, "svg", m.Len())
	start := time.Now()

	svg, err := RenderSVG(ctx, ToDOT(m, opts))
	hooks.OnRenderComplete(ctx, "svg", time.Since(start), err)
	return svg, err
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([-0-9.]+)\s+([-0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the viewBox starts at the
// origin and width/height match it in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
