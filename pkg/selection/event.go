package selection

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind enumerates the transition inputs of the machine.
type Kind int

// Event kinds.
const (
	KindBackgroundClick Kind = iota + 1
	KindDragStart
	KindDragMove
	KindDragEnd
	KindBrushStart
	KindBrushUpdate
	KindBrushEnd
	KindKeyDown
	KindKeyUp
	KindFocus
	KindFilter
)

var kindNames = map[Kind]string{
	KindBackgroundClick: "background_click",
	KindDragStart:       "drag_start",
	KindDragMove:        "drag_move",
	KindDragEnd:         "drag_end",
	KindBrushStart:      "brush_start",
	KindBrushUpdate:     "brush_update",
	KindBrushEnd:        "brush_end",
	KindKeyDown:         "key_down",
	KindKeyUp:           "key_up",
	KindFocus:           "focus",
	KindFilter:          "filter",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// gesture reports whether the kind comes from a pointer gesture.
// Synthetic gesture events are ignored.
func (k Kind) gesture() bool {
	switch k {
	case KindBackgroundClick, KindDragStart, KindDragMove, KindDragEnd,
		KindBrushStart, KindBrushUpdate, KindBrushEnd:
		return true
	}
	return false
}

// ParseKind returns the kind for a wire name.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown event kind %q", string(text))
	}
	*k = parsed
	return nil
}

// Event is one typed input to the machine.
// Only the fields relevant to Kind are read.
type Event struct {
	Kind Kind `json:"kind"`

	// NodeID names the node for drag and focus events.
	NodeID string `json:"node,omitempty"`

	// DX and DY are the pointer delta of a drag move.
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// Extent is the brush rectangle of brush update and end events.
	Extent *Extent `json:"extent,omitempty"`

	// Shift is the modifier state reported with a key down.
	Shift bool `json:"shift,omitempty"`

	// Query is the name filter text.
	Query string `json:"query,omitempty"`

	// Synthetic marks events not produced by direct user interaction,
	// such as a brush cleared programmatically.
	Synthetic bool `json:"synthetic,omitempty"`
}

// BackgroundClick is a click on the empty canvas.
func BackgroundClick() Event { return Event{Kind: KindBackgroundClick} }
func DragStart(id string) Event { return Event{Kind: KindDragStart, NodeID: id} }
func DragMove(dx, dy float64) Event { return Event{Kind: KindDragMove, DX: dx, DY: dy} }
func DragEnd(id string) Event { return Event{Kind: KindDragEnd, NodeID: id} }
func BrushStart() Event { return Event{Kind: KindBrushStart} }
func BrushUpdate(e Extent) Event { return Event{Kind: KindBrushUpdate, Extent: &e} }
func BrushEnd(e Extent) Event { return Event{Kind: KindBrushEnd, Extent: &e} }
func KeyDown(shift bool) Event { return Event{Kind: KindKeyDown, Shift: shift} }
func KeyUp() Event { return Event{Kind: KindKeyUp} }
func Focus(id string) Event { return Event{Kind: KindFocus, NodeID: id} }
func Filter(query string) Event { return Event{Kind: KindFilter, Query: query} }

// =============================================================================
// Extent - Brush Rectangle
// =============================================================================

// Extent is a rectangular brush region given by two corners.
// It encodes as [[x0, y0], [x1, y1]], the shape brush libraries report.
type Extent struct {
	Min r2.Vec
	Max r2.Vec
}

// NewExtent builds an extent from any two opposite corners.
func NewExtent(a, b r2.Vec) Extent {
	return Extent{Min: a, Max: b}.Normalize()
}

// Normalize orders the corners so Min is the top-left.
func (e Extent) Normalize() Extent {
	return Extent{
		Min: r2.Vec{X: math.Min(e.Min.X, e.Max.X), Y: math.Min(e.Min.Y, e.Max.Y)},
		Max: r2.Vec{X: math.Max(e.Min.X, e.Max.X), Y: math.Max(e.Min.Y, e.Max.Y)},
	}
}

// Contains reports whether p lies in the half-open rectangle
// [x0, x1) × [y0, y1) of the normalized extent.
func (e Extent) Contains(p r2.Vec) bool {
	n := e.Normalize()
	return n.Min.X <= p.X && p.X < n.Max.X &&
		n.Min.Y <= p.Y && p.Y < n.Max.Y
}

// Inset shrinks the extent by margin on every side.
func (e Extent) Inset(margin float64) Extent {
	n := e.Normalize()
	return Extent{
		Min: r2.Vec{X: n.Min.X + margin, Y: n.Min.Y + margin},
		Max: r2.Vec{X: n.Max.X - margin, Y: n.Max.Y - margin},
	}
}

// Empty reports whether the extent has no area.
func (e Extent) Empty() bool {
	n := e.Normalize()
	return n.Max.X <= n.Min.X || n.Max.Y <= n.Min.Y
}

// Center returns the midpoint of the extent.
func (e Extent) Center() r2.Vec {
	return r2.Scale(0.5, r2.Add(e.Min, e.Max))
}

// MarshalJSON implements json.Marshaler.
func (e Extent) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{{e.Min.X, e.Min.Y}, {e.Max.X, e.Max.Y}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Extent) UnmarshalJSON(data []byte) error {
	var corners [2][2]float64
	if err := json.Unmarshal(data, &corners); err != nil {
		return fmt.Errorf("extent: %w", err)
	}
	*e = Extent{
		Min: r2.Vec{X: corners[0][0], Y: corners[0][1]},
		Max: r2.Vec{X: corners[1][0], Y: corners[1][1]},
	}
	return nil
}
