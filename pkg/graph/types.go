package graph

// =============================================================================
// Graph - Payload
// =============================================================================

// Graph is the canonical payload for a co-authorship visualization.
// Node and link order is preserved: it drives list order in name panels
// and link indices in highlight sinks.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Links []Link `json:"links" yaml:"links" validate:"dive"`
}

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// LinkCount returns the number of links.
func (g Graph) LinkCount() int { return len(g.Links) }

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// =============================================================================
// Node - Author
// =============================================================================

// Node is an author in the payload.
type Node struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Initials     string `json:"initials" yaml:"initials" validate:"required"`
	Publications int    `json:"publications" yaml:"publications" validate:"gte=0"`
	Group        int    `json:"group,omitempty" yaml:"group,omitempty"`
	Color        string `json:"color,omitempty" yaml:"color,omitempty"`
}

// DisplayName returns the name if set, otherwise the ID.
// Used for titles, tooltips and the name list.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// HasName reports whether the payload carried an explicit name.
func (n Node) HasName() bool { return n.Name != "" }

// =============================================================================
// Link - Co-authorship
// =============================================================================

// Link connects two authors by id. Value is the co-authorship weight.
type Link struct {
	Source string  `json:"source" yaml:"source" validate:"required"`
	Target string  `json:"target" yaml:"target" validate:"required"`
	Value  float64 `json:"value" yaml:"value" validate:"gte=0"`
}

// Touches reports whether the link has id as an endpoint.
func (l Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}
