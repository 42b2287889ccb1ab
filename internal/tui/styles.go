package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleOn      = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)

	styleCanvas = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)
	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// cellKind selects the style of one canvas cell.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellLink
	cellLinkSelected
	cellBrush
	cellNode
	cellNodeDim
	cellNodeSelected
	cellNodeFocused
)

var cellStyles = map[cellKind]lipgloss.Style{
	cellEmpty:        lipgloss.NewStyle(),
	cellLink:         lipgloss.NewStyle().Foreground(colorDim),
	cellLinkSelected: lipgloss.NewStyle().Foreground(colorRed),
	cellBrush:        lipgloss.NewStyle().Foreground(colorYellow),
	cellNode:         lipgloss.NewStyle().Foreground(colorWhite),
	cellNodeDim:      lipgloss.NewStyle().Foreground(colorDim),
	cellNodeSelected: lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	cellNodeFocused:  lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorCyan),
}

var stylePointer = lipgloss.NewStyle().Reverse(true)
