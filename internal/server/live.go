package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/observability"
	"github.com/matzehuels/authornet/pkg/scene"
	"github.com/matzehuels/authornet/pkg/selection"
	"github.com/matzehuels/authornet/pkg/session"
)

// positionEvery is the number of layout ticks between position frames.
const positionEvery = 4

// Frame types sent to websocket clients.
const (
	FrameState     = "state"
	FramePositions = "positions"
	FrameError     = "error"
)

// Frame is one outbound websocket message.
type Frame struct {
	Type      string                `json:"type"`
	Change    *selection.Change     `json:"change,omitempty"`
	State     *State                `json:"state,omitempty"`
	Positions map[string][2]float64 `json:"positions,omitempty"`
	Ticks     int                   `json:"ticks,omitempty"`
	Settled   bool                  `json:"settled,omitempty"`
	Error     *ErrorBody            `json:"error,omitempty"`
}

// liveSession is a session with a running scene loop.
type liveSession struct {
	id        string
	graphHash string
	started   time.Time
	loop      *scene.Loop
	cancel    context.CancelFunc
	hub       *hub
}

// publish broadcasts a state frame. It must run on the loop goroutine.
func (ls *liveSession) publish(sc *scene.Scene, ch selection.Change) {
	if ls.hub.empty() {
		return
	}
	st := stateOf(sc)
	ls.hub.broadcast(Frame{Type: FrameState, Change: &ch, State: &st})
}

// tick broadcasts positions every few ticks and once more when the layout
// settles. It must run on the loop goroutine.
func (ls *liveSession) tick(sc *scene.Scene) {
	if ls.hub.empty() {
		return
	}
	if sc.Ticks()%positionEvery != 0 && !sc.Settled() {
		return
	}
	ls.hub.broadcast(Frame{
		Type:      FramePositions,
		Positions: positionsOf(sc),
		Ticks:     sc.Ticks(),
		Settled:   sc.Settled(),
	})
}

// state captures the current state through the loop.
func (ls *liveSession) state(ctx context.Context) (State, error) {
	var st State
	err := ls.loop.Do(ctx, func(sc *scene.Scene) { st = stateOf(sc) })
	return st, err
}

// =============================================================================
// Lifecycle
// =============================================================================

// start registers sc under id and runs its loop. If another request
// registered the same id first, that session is returned and sc is dropped.
func (s *Server) start(id, graphHash string, sc *scene.Scene) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ls, ok := s.live[id]; ok {
		return ls, nil
	}
	if s.cfg.MaxSessions > 0 && len(s.live) >= s.cfg.MaxSessions {
		return nil, errors.New(errors.ErrCodeSessionLimit, "live session limit of %d reached", s.cfg.MaxSessions)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	ls := &liveSession{
		id:        id,
		graphHash: graphHash,
		started:   time.Now(),
		loop:      scene.NewLoop(sc, s.cfg.TickInterval.Duration),
		cancel:    cancel,
		hub:       newHub(s.metrics),
	}
	ls.loop.OnChange(ls.publish)
	ls.loop.OnTick(ls.tick)
	s.live[id] = ls

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = ls.loop.Run(ctx)
	}()

	observability.Session().OnSessionOpen(ctx, s.backend)
	s.logger.Info("session started", "session", id, "nodes", sc.Graph().NodeCount(), "live", len(s.live))
	return ls, nil
}

// stop halts the loop for id and disconnects its clients. It reports
// whether the session was live.
func (s *Server) stop(id string) bool {
	s.mu.Lock()
	ls, ok := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	ls.cancel()
	<-ls.loop.Done()
	ls.hub.close()

	lifetime := time.Since(ls.started)
	observability.Session().OnSessionClose(context.Background(), s.backend, lifetime)
	s.logger.Info("session stopped", "session", id, "lifetime", lifetime.Round(time.Millisecond))
	return true
}

// lookup returns the live session for id, reviving it from the store when
// it exists there but is not running.
func (s *Server) lookup(ctx context.Context, id string) (*liveSession, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ls, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		return ls, nil
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session %s", id)
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return s.revive(sess)
}

func (s *Server) revive(sess *session.Session) (*liveSession, error) {
	sc, err := scene.New(sess.Graph, s.sceneOptions())
	if err != nil {
		return nil, err
	}
	sc.Restore(sess.Snapshot)
	s.logger.Debug("reviving session", "session", sess.ID, "selected", len(sess.Snapshot.Selected))
	return s.start(sess.ID, sess.GraphHash, sc)
}

// =============================================================================
// Hub - Websocket Fan-out
// =============================================================================

// hub fans frames out to the websocket clients of one session. Broadcasts
// never block. Position frames are skipped for a client whose buffer is
// full; any other frame disconnects it, since it would miss a state change.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	metrics *Metrics
	closed  bool
}

func newHub(m *Metrics) *hub {
	return &hub{clients: make(map[*client]struct{}), metrics: m}
}

func (h *hub) empty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) == 0
}

func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.metrics != nil {
		h.metrics.WebsocketClients.Inc()
	}
	return true
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if h.metrics != nil {
		h.metrics.WebsocketClients.Dec()
	}
}

func (h *hub) broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			if f.Type == FramePositions {
				continue
			}
			delete(h.clients, c)
			close(c.send)
			if h.metrics != nil {
				h.metrics.WebsocketClients.Dec()
			}
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if h.metrics != nil {
			h.metrics.WebsocketClients.Dec()
		}
	}
}
