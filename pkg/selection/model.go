package selection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/graph"
)

// Node is an author in the live scene: payload fields plus position,
// pin and selection state.
type Node struct {
	graph.Node

	// Pos is the current layout position.
	Pos r2.Vec

	// Fixed pins the node when non-nil. The layout engine holds pinned
	// nodes at this position.
	Fixed *r2.Vec

	Selected bool

	// PreviouslySelected is the snapshot taken at brush start. It is only
	// meaningful while a brush is in progress.
	PreviouslySelected bool
}

// Pinned reports whether the node is held at a fixed position.
func (n Node) Pinned() bool { return n.Fixed != nil }

func (n Node) clone() Node {
	if n.Fixed != nil {
		p := *n.Fixed
		n.Fixed = &p
	}
	return n
}

// Link is a co-authorship edge in the live scene. Selected is derived from
// the focused node and never toggled directly.
type Link struct {
	graph.Link
	Selected bool
}

// Info is the content of the info panel for the focused author.
// The zero value is an empty panel.
type Info struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	HasName      bool   `json:"has_name,omitempty"`
	Publications int    `json:"publications,omitempty"`
}

func infoFor(n *Node) Info {
	return Info{
		ID:           n.ID,
		Name:         n.Name,
		HasName:      n.HasName(),
		Publications: n.Publications,
	}
}

// Empty reports whether no author is shown.
func (i Info) Empty() bool { return i.ID == "" }

// Lines renders the panel as text. The author line is omitted when the
// payload carried no name.
func (i Info) Lines() []string {
	if i.Empty() {
		return nil
	}
	var lines []string
	if i.HasName {
		lines = append(lines, "Author: "+i.Name)
	}
	return append(lines, fmt.Sprintf("Publications: %d", i.Publications))
}

// Initial placement follows a phyllotaxis spiral so that nodes start
// spread out and deterministic before the first layout tick.
const initialRadius = 10.0

var initialAngle = math.Pi * (3 - math.Sqrt(5))

func seedPosition(i int) r2.Vec {
	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	return r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}
