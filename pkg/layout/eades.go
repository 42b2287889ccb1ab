package layout

import (
	"math"
	"math/rand/v2"

	gonumgraph "gonum.org/v1/gonum/graph"
	glayout "gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/graph"
)

// canvasFill is the share of the canvas the scaled layout may cover.
const canvasFill = 0.9

// Eades adapts gonum's EadesR2 optimizer to [Engine].
// Link values weight the attraction between co-authors.
type Eades struct {
	opts  Options
	ids   []string
	index map[string]int

	g         *simple.WeightedUndirectedGraph
	eades     *glayout.EadesR2
	optimizer glayout.OptimizerR2

	started bool
	placed  map[string]r2.Vec
	pins    map[string]r2.Vec
	center  r2.Vec
}

// NewEades builds an Eades layout for g.
func NewEades(g graph.Graph, opts Options) *Eades {
	opts = opts.withDefaults()
	e := &Eades{
		opts:   opts,
		ids:    make([]string, len(g.Nodes)),
		index:  make(map[string]int, len(g.Nodes)),
		g:      simple.NewWeightedUndirectedGraph(0, 0),
		placed: make(map[string]r2.Vec),
		pins:   make(map[string]r2.Vec),
		center: opts.Center(),
	}
	for i, n := range g.Nodes {
		e.ids[i] = n.ID
		e.index[n.ID] = i
		e.g.AddNode(simple.Node(i))
	}
	for _, l := range g.Links {
		s, okS := e.index[l.Source]
		t, okT := e.index[l.Target]
		if !okS || !okT || s == t {
			continue
		}
		w := l.Value
		if w <= 0 {
			w = 1
		}
		if prev, ok := e.g.Weight(int64(s), int64(t)); ok {
			w += prev
		}
		e.g.SetWeightedEdge(e.g.NewWeightedEdge(simple.Node(s), simple.Node(t), w))
	}
	e.eades = &glayout.EadesR2{
		Updates:   opts.Updates,
		Repulsion: opts.Repulsion,
		Rate:      opts.Rate,
		Theta:     opts.Theta,
		Src:       rand.NewPCG(opts.Seed, opts.Seed),
	}
	e.optimizer = glayout.NewOptimizerR2(e.g, e.eades.Update)
	return e
}

// Graph exposes the weighted gonum graph the optimizer runs on.
func (e *Eades) Graph() gonumgraph.Weighted { return e.g }

// Tick implements Engine.
func (e *Eades) Tick() bool {
	if len(e.ids) == 0 {
		return false
	}
	moving := e.optimizer.Update()
	if moving {
		e.started = true
	}
	return moving
}

// Positions implements Engine. Raw optimizer coordinates are scaled to fit
// the canvas around the centre; pins take precedence.
func (e *Eades) Positions() map[string]r2.Vec {
	out := make(map[string]r2.Vec, len(e.ids))
	if !e.started {
		for i, id := range e.ids {
			if p, ok := e.placed[id]; ok {
				out[id] = p
			} else {
				out[id] = spiral(i, e.center)
			}
		}
	} else {
		raw := make([]r2.Vec, len(e.ids))
		for i := range e.ids {
			raw[i] = e.optimizer.Coord2(int64(i))
		}
		scaled := fit(raw, e.opts.Width*canvasFill, e.opts.Height*canvasFill, e.center)
		for i, id := range e.ids {
			out[id] = scaled[i]
		}
	}
	for id, p := range e.pins {
		out[id] = p
	}
	return out
}

// fit scales points uniformly into a w×h box centred on c.
func fit(pts []r2.Vec, w, h float64, c r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(pts))
	if len(pts) == 0 {
		return out
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r2.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y)}
		hi = r2.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y)}
	}
	size := r2.Sub(hi, lo)
	scale := 1.0
	switch {
	case size.X > 0 && size.Y > 0:
		scale = math.Min(w/size.X, h/size.Y)
	case size.X > 0:
		scale = w / size.X
	case size.Y > 0:
		scale = h / size.Y
	}
	mid := r2.Scale(0.5, r2.Add(lo, hi))
	for i, p := range pts {
		out[i] = r2.Add(c, r2.Scale(scale, r2.Sub(p, mid)))
	}
	return out
}

// Place implements Engine. Placements only apply until the optimizer has
// run; afterwards its own coordinates win.
func (e *Eades) Place(pos map[string]r2.Vec) {
	for id, p := range pos {
		if _, ok := e.index[id]; ok {
			e.placed[id] = p
		}
	}
}

// Fix implements Engine.
func (e *Eades) Fix(id string, p r2.Vec) {
	if _, ok := e.index[id]; ok {
		e.pins[id] = p
	}
}

// Release implements Engine.
func (e *Eades) Release(id string) { delete(e.pins, id) }

// Reheat implements Engine by restoring the update budget.
func (e *Eades) Reheat() { e.eades.Updates = e.opts.Updates }

// Cool implements Engine. The optimizer stops on its own budget.
func (e *Eades) Cool() {}

// Recenter implements Engine.
func (e *Eades) Recenter(c r2.Vec) { e.center = c }
