package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/graph"
)

const (
	alphaMin = 0.001

	// minDistance2 softens the charge between near-coincident nodes.
	minDistance2 = 1.0

	// recenterAlpha is the heat applied when the centre moves.
	recenterAlpha = 0.3
)

// alphaDecay cools alpha from 1 to alphaMin in about 300 ticks.
var alphaDecay = 1 - math.Pow(alphaMin, 1.0/300)

type spring struct {
	source, target int
	bias           float64
}

// body adapts a node to barneshut.Particle2.
type body struct {
	pos r2.Vec
}

func (b body) Coord2() r2.Vec { return b.pos }
func (b body) Mass() float64  { return 1 }

// Force is an incremental force-directed simulation.
type Force struct {
	opts Options

	ids   []string
	index map[string]int
	pos   []r2.Vec
	vel   []r2.Vec
	fixed []*r2.Vec

	springs []spring

	alpha       float64
	alphaTarget float64
	center      r2.Vec
}

// NewForce builds a force simulation for g. Nodes start on a spiral around
// the canvas centre with alpha 1.
func NewForce(g graph.Graph, opts Options) *Force {
	opts = opts.withDefaults()
	f := &Force{
		opts:   opts,
		ids:    make([]string, len(g.Nodes)),
		index:  make(map[string]int, len(g.Nodes)),
		pos:    make([]r2.Vec, len(g.Nodes)),
		vel:    make([]r2.Vec, len(g.Nodes)),
		fixed:  make([]*r2.Vec, len(g.Nodes)),
		alpha:  1,
		center: opts.Center(),
	}
	for i, n := range g.Nodes {
		f.ids[i] = n.ID
		f.index[n.ID] = i
		f.pos[i] = spiral(i, f.center)
	}

	degree := make([]int, len(g.Nodes))
	for _, l := range g.Links {
		s, okS := f.index[l.Source]
		t, okT := f.index[l.Target]
		if !okS || !okT || s == t {
			continue
		}
		degree[s]++
		degree[t]++
		f.springs = append(f.springs, spring{source: s, target: t})
	}
	for i := range f.springs {
		sp := &f.springs[i]
		ds, dt := float64(degree[sp.source]), float64(degree[sp.target])
		sp.bias = ds / (ds + dt)
	}
	return f
}

// Alpha returns the current temperature.
func (f *Force) Alpha() float64 { return f.alpha }

// Tick implements Engine.
func (f *Force) Tick() bool {
	if len(f.pos) == 0 {
		return false
	}
	if f.alpha < alphaMin && f.alphaTarget < alphaMin {
		return false
	}
	f.alpha += (f.alphaTarget - f.alpha) * alphaDecay

	f.applyLinks()
	f.applyCharge()
	f.applyGravity()
	f.applyCenter()

	decay := 1 - f.opts.VelocityDecay
	for i := range f.pos {
		if p := f.fixed[i]; p != nil {
			f.pos[i] = *p
			f.vel[i] = r2.Vec{}
			continue
		}
		f.vel[i] = r2.Scale(decay, f.vel[i])
		f.pos[i] = r2.Add(f.pos[i], f.vel[i])
	}
	return true
}

func (f *Force) applyLinks() {
	for _, sp := range f.springs {
		s, t := sp.source, sp.target
		d := r2.Sub(r2.Add(f.pos[t], f.vel[t]), r2.Add(f.pos[s], f.vel[s]))
		l := r2.Norm(d)
		if l == 0 {
			d = r2.Vec{X: 1e-6}
			l = 1e-6
		}
		k := (l - f.opts.LinkDistance) / l * f.alpha * f.opts.LinkStrength
		d = r2.Scale(k, d)
		f.vel[t] = r2.Sub(f.vel[t], r2.Scale(sp.bias, d))
		f.vel[s] = r2.Add(f.vel[s], r2.Scale(1-sp.bias, d))
	}
}

// charge is an inverse-distance interaction; with a negative strength the
// nodes repel.
func charge(_, _ barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
	d2 := v.X*v.X + v.Y*v.Y
	if d2 == 0 {
		return r2.Vec{}
	}
	return r2.Scale(m2/math.Max(d2, minDistance2), v)
}

func (f *Force) applyCharge() {
	particles := make([]barneshut.Particle2, len(f.pos))
	for i, p := range f.pos {
		particles[i] = body{pos: p}
	}
	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		return
	}
	k := f.opts.Charge * f.alpha
	for i, p := range particles {
		f.vel[i] = r2.Add(f.vel[i], r2.Scale(k, plane.ForceOn(p, f.opts.Theta, charge)))
	}
}

func (f *Force) applyGravity() {
	k := f.opts.Gravity * f.alpha
	for i, p := range f.pos {
		f.vel[i] = r2.Add(f.vel[i], r2.Scale(k, r2.Sub(f.center, p)))
	}
}

// applyCenter translates every node so their mean sits on the centre.
func (f *Force) applyCenter() {
	var sum r2.Vec
	for _, p := range f.pos {
		sum = r2.Add(sum, p)
	}
	shift := r2.Sub(r2.Scale(1/float64(len(f.pos)), sum), f.center)
	for i := range f.pos {
		f.pos[i] = r2.Sub(f.pos[i], shift)
	}
}

// Positions implements Engine.
func (f *Force) Positions() map[string]r2.Vec {
	out := make(map[string]r2.Vec, len(f.ids))
	for i, id := range f.ids {
		out[id] = f.pos[i]
	}
	return out
}

// Place implements Engine.
func (f *Force) Place(pos map[string]r2.Vec) {
	for id, p := range pos {
		if i, ok := f.index[id]; ok {
			f.pos[i] = p
			f.vel[i] = r2.Vec{}
		}
	}
}

// Fix implements Engine.
func (f *Force) Fix(id string, p r2.Vec) {
	if i, ok := f.index[id]; ok {
		f.fixed[i] = &p
		f.pos[i] = p
	}
}

// Release implements Engine.
func (f *Force) Release(id string) {
	if i, ok := f.index[id]; ok {
		f.fixed[i] = nil
	}
}

// Reheat implements Engine.
func (f *Force) Reheat() { f.alphaTarget = f.opts.ReheatTarget }

// Cool implements Engine.
func (f *Force) Cool() { f.alphaTarget = 0 }

// Recenter implements Engine.
func (f *Force) Recenter(c r2.Vec) {
	f.center = c
	f.alpha = math.Max(f.alpha, recenterAlpha)
}
