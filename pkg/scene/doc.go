// Package scene binds a co-authorship payload, its selection state machine
// and a layout engine into one live visualization.
//
// A scene has a single logical thread of control: layout ticks and user
// events are interleaved on one goroutine, and every event runs to
// completion before the next tick. [Scene.Run] provides that loop for a
// plain event channel; [Loop] adds request/response access for callers
// such as HTTP handlers that need the resulting [selection.Change].
//
// Pins flow from the machine to the engine after every event. Positions
// flow from the engine to the machine after every tick, so brush
// containment always sees the latest layout.
package scene
