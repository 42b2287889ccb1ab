package scene

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/layout"
	"github.com/matzehuels/authornet/pkg/observability"
	"github.com/matzehuels/authornet/pkg/selection"
)

// DefaultInterval is the layout tick period of [Scene.Run].
const DefaultInterval = 16 * time.Millisecond

// Options configures a scene.
type Options struct {
	Layout layout.Options
	Logger *log.Logger
}

// Scene is one live visualization.
type Scene struct {
	graph   graph.Graph
	machine *selection.Machine
	engine  layout.Engine
	opts    Options
	logger  *log.Logger
	sinks   []selection.HighlightSink

	center  r2.Vec
	ticks   int
	settled bool
}

// New builds a scene from a payload. The payload is validated before any
// state is created; on error nothing is returned.
func New(g graph.Graph, opts Options) (*Scene, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Scene{opts: opts, logger: opts.Logger}
	if err := s.build(g); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes a JSON payload and builds a scene from it. A payload
// without links fails with MISSING_LINKS.
func Parse(data []byte, opts Options) (*Scene, error) {
	g, err := graph.Parse(data)
	if err != nil {
		return nil, err
	}
	return New(g, opts)
}

func (s *Scene) build(g graph.Graph) error {
	m, err := selection.New(g)
	if err != nil {
		return err
	}
	e, err := layout.New(g, s.opts.Layout)
	if err != nil {
		return err
	}
	m.SetPositions(e.Positions())

	lo := s.opts.Layout
	canvas := selection.NewExtent(r2.Vec{}, r2.Vec{X: 2 * lo.Center().X, Y: 2 * lo.Center().Y})
	m.SetViewport(canvas)

	s.graph = g
	s.machine = m
	s.engine = e
	s.center = lo.Center()
	s.ticks = 0
	s.settled = false
	for _, sink := range s.sinks {
		m.Attach(sink)
	}
	return nil
}

// Reload replaces the payload, discarding selection, focus, pins and layout.
// Attached sinks are resynchronized with the new state. On error the
// current scene is left untouched.
func (s *Scene) Reload(g graph.Graph) error {
	prev := s.machine
	if err := s.build(g); err != nil {
		return err
	}
	for _, sink := range s.sinks {
		prev.Detach(sink)
	}
	s.logger.Info("reloaded scene", "nodes", g.NodeCount(), "links", g.LinkCount())
	return nil
}

// Graph returns the payload the scene was built from.
func (s *Scene) Graph() graph.Graph { return s.graph }

// Machine returns the selection state machine.
func (s *Scene) Machine() *selection.Machine { return s.machine }

// Engine returns the layout engine.
func (s *Scene) Engine() layout.Engine { return s.engine }

// Ticks returns the number of layout ticks since the last build.
func (s *Scene) Ticks() int { return s.ticks }

// Settled reports whether the layout has come to rest.
func (s *Scene) Settled() bool { return s.settled }

// Attach registers a highlight sink that survives reloads.
func (s *Scene) Attach(sink selection.HighlightSink) {
	s.sinks = append(s.sinks, sink)
	s.machine.Attach(sink)
}

// Handle applies one event and propagates its effect to the layout.
func (s *Scene) Handle(ctx context.Context, ev selection.Event) (selection.Change, error) {
	start := time.Now()
	ch, err := s.machine.Apply(ev)
	observability.Selection().OnTransition(ctx, ev.Kind.String(), ch.Noop, len(s.machine.Selected()), time.Since(start))
	if err != nil {
		s.logger.Warn("rejected event", "kind", ev.Kind, "err", err)
		return ch, err
	}
	if ch.Noop {
		s.logger.Debug("ignored event", "kind", ev.Kind, "node", ev.NodeID)
		return ch, nil
	}

	for _, id := range ch.Pinned {
		if n, ok := s.machine.Node(id); ok && n.Fixed != nil {
			s.engine.Fix(id, *n.Fixed)
		}
	}
	for _, id := range ch.Released {
		s.engine.Release(id)
	}

	switch ev.Kind {
	case selection.KindDragStart:
		s.engine.Reheat()
		s.settled = false
	case selection.KindDragEnd:
		s.engine.Cool()
	}

	if ch.PanTo != "" {
		s.panTo(ch.PanTo)
	}

	s.logger.Debug("applied event",
		"kind", ev.Kind,
		"selected", len(s.machine.Selected()),
		"focused", s.machine.Focused())
	return ch, nil
}

// panTo shifts the centering target so the node drifts to the middle of
// the canvas.
func (s *Scene) panTo(id string) {
	n, ok := s.machine.Node(id)
	if !ok {
		return
	}
	s.center = r2.Add(s.center, r2.Sub(s.opts.Layout.Center(), n.Pos))
	s.engine.Recenter(s.center)
	s.settled = false
	s.logger.Debug("panning to node", "node", id, "center", s.center)
}

// Step advances the layout one tick and copies positions into the machine.
// It reports whether the layout is still moving.
func (s *Scene) Step() bool {
	if s.settled {
		return false
	}
	moving := s.engine.Tick()
	s.ticks++
	s.machine.SetPositions(s.engine.Positions())
	if !moving {
		s.settled = true
		engine := s.opts.Layout.Engine
		if engine == "" {
			engine = layout.EngineForce
		}
		observability.Selection().OnLayoutSettled(context.Background(), engine, s.ticks)
		s.logger.Debug("layout settled", "ticks", s.ticks)
	}
	return moving
}

// Settle ticks the layout until it rests or max ticks elapse.
func (s *Scene) Settle(max int) int {
	n := 0
	for n < max {
		n++
		if !s.Step() {
			break
		}
	}
	return n
}

// Run interleaves layout ticks and events on the calling goroutine until
// ctx is cancelled or events is closed. Event errors are logged and do not
// stop the loop.
func (s *Scene) Run(ctx context.Context, events <-chan selection.Event, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.Handle(ctx, ev)
		case <-ticker.C:
			s.Step()
		}
	}
}

// Restore loads a persisted snapshot into the machine and moves the layout
// to the stored positions.
func (s *Scene) Restore(snap selection.Snapshot) selection.Change {
	ch := s.machine.Restore(snap)
	for _, id := range ch.Released {
		s.engine.Release(id)
	}
	if len(snap.Positions) > 0 {
		pos := make(map[string]r2.Vec, len(snap.Positions))
		for id, p := range snap.Positions {
			pos[id] = r2.Vec{X: p[0], Y: p[1]}
		}
		s.engine.Place(pos)
		s.machine.SetPositions(s.engine.Positions())
	}
	s.logger.Debug("restored snapshot", "selected", len(snap.Selected), "focused", snap.Focused)
	return ch
}
