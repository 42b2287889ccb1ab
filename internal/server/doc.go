// Package server exposes live explorer scenes over HTTP and websockets.
//
// Every live session owns exactly one [scene.Loop] goroutine. HTTP handlers
// and websocket readers never touch a scene directly: they send events or
// closures through the loop and wait for the result, so the selection
// machine and the layout engine are only ever mutated from one goroutine.
//
// # Routes
//
//	POST   /api/v1/sessions               create from a payload, 201 {id, state}
//	GET    /api/v1/sessions               list persisted sessions
//	GET    /api/v1/sessions/{id}          current state
//	DELETE /api/v1/sessions/{id}          stop and forget
//	POST   /api/v1/sessions/{id}/events   apply one event, returns {change, state}
//	GET    /api/v1/sessions/{id}/svg      Graphviz export (?format=svg|dot|json)
//	PUT    /api/v1/sessions/{id}/snapshot persist the selection
//	POST   /api/v1/sessions/{id}/restore  load the persisted selection back
//	GET    /api/v1/sessions/{id}/ws       websocket stream
//	GET    /metrics                       prometheus
//	GET    /health                        liveness
//
// Persisted sessions that are not live (for example after a restart) are
// revived on first access.
//
// # Errors
//
// Failures are written as {"code": "...", "error": "..."} with a status
// derived from the error code: validation codes map to 400, not-found
// codes to 404, capacity codes to 429 and UNSUPPORTED to 501.
//
// # Websocket Protocol
//
// Clients send [selection.Event] objects as JSON text frames. The server
// answers with [Frame] objects: a "state" frame after every applied event,
// "positions" frames while the layout moves, and "error" frames for
// rejected input. Inbound events are rate limited per connection.
package server
