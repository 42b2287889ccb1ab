// Package selection implements the selection and focus state machine of an
// interactive force-directed co-authorship graph.
//
// The machine is headless: it owns per-node selection flags, the focused
// author, the shift modifier, the brush overlay and the name filter, and it
// reports changes to any number of [HighlightSink] implementations. Layout
// engines, terminal canvases and browser front ends all drive it through
// the same typed [Event] values.
//
// # Gestures
//
// Three gestures compete for the selection set:
//
//   - Background click clears the selection (ignored while brushing).
//   - Node drag selects the node, exclusively unless it is already selected
//     or shift is held, pins every selected node and moves them together by
//     the reported deltas.
//   - Shift + rubber-band brush recomputes each node as
//     previouslySelected XOR contained, relative to the snapshot taken when
//     the brush started.
//
// Key events toggle the shift modifier, which creates and removes the brush
// overlay. Removal is deferred to brush end when the key is released while a
// brush is still in progress.
//
// # Focus
//
// The focused node drives the info panel and link highlighting. After every
// focus change each link's flag equals whether it touches the focused node.
//
// # Anomalies
//
// Events that lack required detail (unknown node, no brush extent, a move
// without an active drag) or that were not produced by direct user
// interaction ([Event.Synthetic]) are no-ops: [Machine.Apply] returns a
// [Change] with Noop set and leaves every flag untouched.
//
// # Concurrency
//
// A Machine is not safe for concurrent use. Every transition runs to
// completion before the next event is applied; callers serialize access, as
// [github.com/matzehuels/authornet/pkg/scene] does with a single event loop.
package selection
