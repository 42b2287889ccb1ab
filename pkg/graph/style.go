package graph

import "math"

// Visual encoding constants.
const (
	radiusScale = 4.0
	fontScale   = 3.5
	minFontSize = 10.0
)

// Category10 is the ten-color categorical palette used for author groups.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Radius returns the circle radius for the node: sqrt(publications)*4.
func (n Node) Radius() float64 {
	return math.Sqrt(float64(n.Publications)) * radiusScale
}

// FontSize returns the label size for the node's initials,
// sqrt(publications)*3.5 but never below 10.
func (n Node) FontSize() float64 {
	return math.Max(math.Sqrt(float64(n.Publications))*fontScale, minFontSize)
}

// StrokeWidth returns the line width for the link: sqrt(value).
func (l Link) StrokeWidth() float64 {
	return math.Sqrt(l.Value)
}

// Palette assigns colors to groups in order of first appearance,
// cycling through [Category10].
type Palette struct {
	assigned map[int]string
}

// NewPalette creates an empty palette.
func NewPalette() *Palette {
	return &Palette{assigned: make(map[int]string)}
}

// Color returns the color for group, assigning the next palette entry
// the first time a group is seen.
func (p *Palette) Color(group int) string {
	if c, ok := p.assigned[group]; ok {
		return c
	}
	c := Category10[len(p.assigned)%len(Category10)]
	p.assigned[group] = c
	return c
}

// Fill returns the node's explicit color, or its group color.
func (p *Palette) Fill(n Node) string {
	if n.Color != "" {
		return n.Color
	}
	return p.Color(n.Group)
}

// Fills resolves the fill color of every node in payload order, so group
// colors are assigned exactly as a renderer walking the nodes would.
func Fills(g Graph) map[string]string {
	p := NewPalette()
	out := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = p.Fill(n)
	}
	return out
}
