// Package layout positions co-authorship graphs in the plane.
//
// Two engines implement [Engine]:
//
//   - [Force] is an incremental simulation with link springs, many-body
//     charge (Barnes-Hut, via gonum's spatial/barneshut), centering and
//     x/y gravity. Alpha cools every tick; [Engine.Reheat] keeps it warm
//     during drags. Pinned nodes are held exactly at their fixed position.
//   - [Eades] adapts gonum's EadesR2 optimizer. Output is scaled onto the
//     canvas and pinned nodes override the optimizer's coordinates. It is
//     used for batch layouts such as static export.
//
// Engines are not safe for concurrent use; a scene owns one engine and
// drives it from its event loop.
package layout
