package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
)

// Engine names accepted by [New].
const (
	EngineForce = "force"
	EngineEades = "eades"
)

// Engine advances a layout one tick at a time.
type Engine interface {
	// Tick advances the layout and reports whether it is still moving.
	Tick() bool

	// Positions returns the current position of every node by id.
	Positions() map[string]r2.Vec

	// Place moves nodes to the given positions without simulating.
	Place(pos map[string]r2.Vec)

	// Fix pins a node at p until Release.
	Fix(id string, p r2.Vec)
	Release(id string)

	// Reheat keeps the layout moving, as during a drag.
	Reheat()

	// Cool lets a reheated layout settle again.
	Cool()

	// Recenter moves the centering target, panning the layout.
	Recenter(c r2.Vec)
}

// Options configures layout engines. Zero fields take the defaults of
// [DefaultOptions].
type Options struct {
	Engine string `toml:"engine" json:"engine"`

	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`

	// Force engine.
	LinkDistance  float64 `toml:"link_distance" json:"link_distance"`
	LinkStrength  float64 `toml:"link_strength" json:"link_strength"`
	Charge        float64 `toml:"charge" json:"charge"`
	Gravity       float64 `toml:"gravity" json:"gravity"`
	VelocityDecay float64 `toml:"velocity_decay" json:"velocity_decay"`
	ReheatTarget  float64 `toml:"reheat_target" json:"reheat_target"`
	Theta         float64 `toml:"theta" json:"theta"`

	// Eades engine.
	Repulsion float64 `toml:"repulsion" json:"repulsion"`
	Rate      float64 `toml:"rate" json:"rate"`
	Updates   int     `toml:"updates" json:"updates"`
	Seed      uint64  `toml:"seed" json:"seed"`
}

// DefaultOptions mirrors the forces of the interactive page: links of
// strength 0.7 and length 100, charge -200, weak x/y gravity.
func DefaultOptions() Options {
	return Options{
		Engine:        EngineForce,
		Width:         960,
		Height:        600,
		LinkDistance:  100,
		LinkStrength:  0.7,
		Charge:        -200,
		Gravity:       0.1,
		VelocityDecay: 0.4,
		ReheatTarget:  0.9,
		Theta:         0.9,
		Repulsion:     1,
		Rate:          0.05,
		Updates:       300,
		Seed:          1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Engine == "" {
		o.Engine = d.Engine
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.LinkDistance <= 0 {
		o.LinkDistance = d.LinkDistance
	}
	if o.LinkStrength <= 0 {
		o.LinkStrength = d.LinkStrength
	}
	if o.Charge == 0 {
		o.Charge = d.Charge
	}
	if o.Gravity <= 0 {
		o.Gravity = d.Gravity
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay >= 1 {
		o.VelocityDecay = d.VelocityDecay
	}
	if o.ReheatTarget <= 0 {
		o.ReheatTarget = d.ReheatTarget
	}
	if o.Theta <= 0 {
		o.Theta = d.Theta
	}
	if o.Repulsion <= 0 {
		o.Repulsion = d.Repulsion
	}
	if o.Rate <= 0 {
		o.Rate = d.Rate
	}
	if o.Updates <= 0 {
		o.Updates = d.Updates
	}
	return o
}

// Center returns the middle of the canvas.
func (o Options) Center() r2.Vec {
	o = o.withDefaults()
	return r2.Vec{X: o.Width / 2, Y: o.Height / 2}
}

// New builds the engine named by opts.Engine for g.
func New(g graph.Graph, opts Options) (Engine, error) {
	opts = opts.withDefaults()
	switch opts.Engine {
	case EngineForce:
		return NewForce(g, opts), nil
	case EngineEades:
		return NewEades(g, opts), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown layout engine %q", opts.Engine)
	}
}

// Run ticks e until it settles or max ticks elapse, returning the number of
// ticks taken.
func Run(e Engine, max int) int {
	n := 0
	for n < max {
		n++
		if !e.Tick() {
			break
		}
	}
	return n
}

// spiral places the i-th node on a phyllotaxis spiral around c.
func spiral(i int, c r2.Vec) r2.Vec {
	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	return r2.Add(c, r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)})
}

const initialRadius = 10.0

var initialAngle = math.Pi * (3 - math.Sqrt(5))
