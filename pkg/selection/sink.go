package selection

import "sync"

// HighlightSink receives visual state changes from a [Machine].
// Render surfaces implement it to mirror selection, link highlighting,
// the info panel and filter visibility.
type HighlightSink interface {
	SetNodeSelected(id string, selected bool)
	SetLinkSelected(index int, selected bool)
	SetInfo(info Info)
	SetVisible(id string, visible bool)
}

// BrushSink is implemented by sinks that also draw the brush overlay.
// Extent is nil when the overlay shows no rectangle.
type BrushSink interface {
	SetBrush(overlay bool, extent *Extent)
}

// RecordingSink keeps the last state pushed by a machine in memory.
// It is safe for concurrent use.
type RecordingSink struct {
	mu      sync.RWMutex
	nodes   map[string]bool
	links   map[int]bool
	visible map[string]bool
	info    Info
	overlay bool
	brush   *Extent
	calls   int
}

// NewRecordingSink returns an empty recording sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{
		nodes:   make(map[string]bool),
		links:   make(map[int]bool),
		visible: make(map[string]bool),
	}
}

func (s *RecordingSink) SetNodeSelected(id string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = selected
	s.calls++
}

func (s *RecordingSink) SetLinkSelected(index int, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[index] = selected
	s.calls++
}

func (s *RecordingSink) SetInfo(info Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
	s.calls++
}

func (s *RecordingSink) SetVisible(id string, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[id] = visible
	s.calls++
}

func (s *RecordingSink) SetBrush(overlay bool, extent *Extent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = overlay
	if extent != nil {
		e := *extent
		s.brush = &e
	} else {
		s.brush = nil
	}
	s.calls++
}

// NodeSelected returns the last selection flag recorded for id.
func (s *RecordingSink) NodeSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// LinkSelected returns the last highlight flag recorded for a link index.
func (s *RecordingSink) LinkSelected(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links[index]
}

// Visible returns the last visibility recorded for id.
func (s *RecordingSink) Visible(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible[id]
}

// Info returns the last info panel content.
func (s *RecordingSink) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Brush returns the last overlay state and rectangle.
func (s *RecordingSink) Brush() (bool, *Extent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlay, s.brush
}

// Calls returns the number of updates received.
func (s *RecordingSink) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}
