package selection

import "strings"

// filter shows nodes whose display name contains query, ignoring case.
// An empty query shows every node. Selection is left untouched.
func (m *Machine) filter(query string) bool {
	m.query = query
	needle := strings.ToLower(query)
	for i, n := range m.nodes {
		m.visible[i] = needle == "" || strings.Contains(strings.ToLower(n.DisplayName()), needle)
	}
	return true
}

// Query returns the active name filter.
func (m *Machine) Query() string { return m.query }

// IsVisible reports whether the node passes the name filter.
func (m *Machine) IsVisible(id string) bool {
	i, ok := m.index[id]
	return ok && m.visible[i]
}

// Visible returns the ids passing the name filter in payload order.
func (m *Machine) Visible() []string {
	ids := make([]string, 0, len(m.nodes))
	for i, n := range m.nodes {
		if m.visible[i] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Names returns the display names of visible nodes in payload order, the
// content of the name list panel.
func (m *Machine) Names() []string {
	names := make([]string, 0, len(m.nodes))
	for i, n := range m.nodes {
		if m.visible[i] {
			names = append(names, n.DisplayName())
		}
	}
	return names
}
