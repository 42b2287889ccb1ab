package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type cell struct {
	r    rune
	kind cellKind
}

// View renders the canvas, the side panel and the key help.
func (m Model) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		styleCanvas.Render(m.canvas()),
		stylePanel.Width(panelWidth).Render(m.panel()),
	)
	return body + "\n" + m.help()
}

// canvas draws links, the brush, nodes and the pointer, in that order.
func (m Model) canvas() string {
	cols, rows := m.cols(), m.rows()
	grid := make([][]cell, rows)
	for r := range grid {
		grid[r] = make([]cell, cols)
		for c := range grid[r] {
			grid[r][c] = cell{r: ' ', kind: cellEmpty}
		}
	}
	set := func(c, r int, ch rune, kind cellKind) {
		if r >= 0 && r < rows && c >= 0 && c < cols {
			grid[r][c] = cell{r: ch, kind: kind}
		}
	}

	mach := m.sc.Machine()
	nodes := mach.Nodes()
	cells := make(map[string][2]int, len(nodes))
	for _, n := range nodes {
		if c, ok := m.cellOf(n.Pos); ok {
			cells[n.ID] = c
		}
	}

	for _, l := range mach.Links() {
		a, okA := cells[l.Source]
		b, okB := cells[l.Target]
		if !okA || !okB {
			continue
		}
		kind := cellLink
		if l.Selected {
			kind = cellLinkSelected
		}
		line(a, b, func(c, r int) { set(c, r, '·', kind) })
	}

	if e := mach.Brush(); e != nil {
		lo, _ := m.cellOf(e.Min)
		hi, _ := m.cellOf(e.Max)
		lo = m.clamp(lo)
		hi = m.clamp([2]int{hi[0] - 1, hi[1] - 1})
		for c := lo[0]; c <= hi[0]; c++ {
			set(c, lo[1], '─', cellBrush)
			set(c, hi[1], '─', cellBrush)
		}
		for r := lo[1]; r <= hi[1]; r++ {
			set(lo[0], r, '│', cellBrush)
			set(hi[0], r, '│', cellBrush)
		}
	}

	focused := mach.Focused()
	for _, n := range nodes {
		kind := cellNode
		switch {
		case n.ID == focused:
			kind = cellNodeFocused
		case n.Selected:
			kind = cellNodeSelected
		case !mach.IsVisible(n.ID):
			kind = cellNodeDim
		}
		c, ok := cells[n.ID]
		if !ok {
			continue
		}
		for i, ch := range label(n.Node) {
			set(c[0]+i, c[1], ch, kind)
		}
	}

	var b strings.Builder
	for r, row := range grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for c := 1; c <= len(row); c++ {
			boundary := c == len(row) || row[c].kind != row[start].kind ||
				m.isPointer(c, r) || m.isPointer(start, r)
			if !boundary {
				continue
			}
			run := make([]rune, 0, c-start)
			for _, cl := range row[start:c] {
				run = append(run, cl.r)
			}
			style := cellStyles[row[start].kind]
			if m.isPointer(start, r) {
				style = style.Inherit(stylePointer)
			}
			b.WriteString(style.Render(string(run)))
			start = c
		}
	}
	return b.String()
}

func (m Model) isPointer(c, r int) bool {
	return m.pointer[0] == c && m.pointer[1] == r
}

// line visits every cell between a and b (Bresenham).
func line(a, b [2]int, visit func(c, r int)) {
	dc, dr := abs(b[0]-a[0]), -abs(b[1]-a[1])
	sc, sr := 1, 1
	if a[0] > b[0] {
		sc = -1
	}
	if a[1] > b[1] {
		sr = -1
	}
	err := dc + dr
	c, r := a[0], a[1]
	for {
		visit(c, r)
		if c == b[0] && r == b[1] {
			return
		}
		e2 := 2 * err
		if e2 >= dr {
			err += dr
			c += sc
		}
		if e2 <= dc {
			err += dc
			r += sr
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// panel shows the info panel, modifier state, filter and name list.
func (m Model) panel() string {
	mach := m.sc.Machine()
	var b strings.Builder

	b.WriteString(styleTitle.Render("authornet"))
	b.WriteString("\n\n")

	if lines := mach.Info().Lines(); len(lines) > 0 {
		for _, l := range lines {
			b.WriteString(styleValue.Render(l))
			b.WriteByte('\n')
		}
	} else {
		b.WriteString(styleDim.Render("no author focused"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	b.WriteString(m.flag("shift", mach.ShiftDown()) + "  " +
		m.flag("brush", mach.BrushMode()) + "  " +
		m.flag("drag", m.dragging != ""))
	b.WriteByte('\n')
	b.WriteString(styleLabel.Render(fmt.Sprintf("selected %d/%d", len(mach.Selected()), mach.Len())))
	b.WriteString(styleDim.Render(fmt.Sprintf("  ticks %d", m.sc.Ticks())))
	b.WriteString("\n\n")

	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	limit := max(m.rows()-12, 3)
	visible := mach.Visible()
	for i, id := range visible {
		if i == limit {
			b.WriteString(styleDim.Render(fmt.Sprintf("… %d more", len(visible)-limit)))
			b.WriteByte('\n')
			break
		}
		n, _ := mach.Node(id)
		marker := "  "
		style := styleLabel
		if id == mach.Focused() {
			marker = "▸ "
			style = cellStyles[cellNodeFocused]
		} else if n.Selected {
			style = cellStyles[cellNodeSelected]
		}
		b.WriteString(marker + style.Render(n.DisplayName()))
		b.WriteByte('\n')
	}

	if m.status != "" {
		b.WriteByte('\n')
		if m.failed {
			b.WriteString(styleError.Render(m.status))
		} else {
			b.WriteString(styleWarning.Render(m.status))
		}
	}
	return b.String()
}

func (m Model) flag(name string, on bool) string {
	if on {
		return styleOn.Render(name)
	}
	return styleDim.Render(name)
}

func (m Model) help() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleDim.Render(strings.Join(parts, "  "))
}

