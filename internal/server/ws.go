package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/scene"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// client is one websocket connection to a live session.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// serveWS upgrades the connection, sends the current state, then reads
// events until the client disconnects or the session stops.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session", ls.id, "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !ls.hub.add(c) {
		_ = conn.Close()
		return
	}
	go c.writeLoop()

	if err := ls.loop.Do(r.Context(), func(sc *scene.Scene) {
		st := stateOf(sc)
		ls.hub.sendTo(c, Frame{Type: FrameState, State: &st})
	}); err != nil {
		ls.hub.remove(c)
		return
	}

	s.logger.Debug("websocket connected", "session", ls.id, "remote", r.RemoteAddr)
	s.readLoop(r.Context(), ls, c)
	ls.hub.remove(c)
	s.logger.Debug("websocket disconnected", "session", ls.id, "remote", r.RemoteAddr)
}

// readLoop applies inbound events through the session loop. Every applied
// event is broadcast to all clients by the loop's change handler; only
// rejections are answered to the sender alone.
func (s *Server) readLoop(ctx context.Context, ls *liveSession, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(s.eventRate()), s.eventBurst())
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "session", ls.id, "err", err)
			}
			return
		}
		if !limiter.Allow() {
			if s.metrics != nil {
				s.metrics.EventsDropped.Inc()
			}
			ls.hub.sendTo(c, errorFrame(errors.New(errors.ErrCodeRateLimited, "event rate limit exceeded")))
			continue
		}

		ev, err := decodeEvent(data)
		if err != nil {
			ls.hub.sendTo(c, errorFrame(err))
			continue
		}
		if _, err := ls.loop.Submit(ctx, ev); err != nil {
			ls.hub.sendTo(c, errorFrame(err))
			if errors.GetCode(err) == "" {
				return
			}
		}
	}
}

func (s *Server) eventRate() float64 {
	if s.cfg.EventRate <= 0 {
		return float64(rate.Inf)
	}
	return s.cfg.EventRate
}

func (s *Server) eventBurst() int {
	if s.cfg.EventBurst <= 0 {
		return 1
	}
	return s.cfg.EventBurst
}

func errorFrame(err error) Frame {
	body := bodyFor(err)
	return Frame{Type: FrameError, Error: &body}
}

// writeLoop drains the send buffer and keeps the connection alive. It
// closes the connection when the buffer is closed.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendTo queues a frame for one client. Frames for clients that already
// left are dropped.
func (h *hub) sendTo(c *client, f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
