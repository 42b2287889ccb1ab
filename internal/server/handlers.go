package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/authornet/pkg/buildinfo"
	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/pipeline"
	"github.com/matzehuels/authornet/pkg/scene"
	"github.com/matzehuels/authornet/pkg/selection"
	"github.com/matzehuels/authornet/pkg/session"
)

// CreateResponse is returned when a session is created.
type CreateResponse struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}

// EventResponse is returned after an event or a restore.
type EventResponse struct {
	Change selection.Change `json:"change"`
	State  State            `json:"state"`
}

// SnapshotResponse is returned after persisting a snapshot.
type SnapshotResponse struct {
	ID        string             `json:"id"`
	Snapshot  selection.Snapshot `json:"snapshot"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// Summary describes one persisted session.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	GraphHash string    `json:"graph_hash"`
	Nodes     int       `json:"nodes"`
	Links     int       `json:"links"`
	Selected  int       `json:"selected"`
	Live      bool      `json:"live"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"live":    s.Live(),
		"backend": s.backend,
		"version": buildinfo.Version,
	})
}

// createSession builds a scene from the request payload. The payload is
// validated before anything is stored or started.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read payload"))
		return
	}
	g, err := graph.Parse(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := scene.New(g, s.sceneOptions())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := session.New(g, sc.Machine().Snapshot(), s.ttl)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.Name = r.URL.Query().Get("name")
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}

	ls, err := s.start(sess.ID, sess.GraphHash, sc)
	if err != nil {
		_ = s.store.Delete(r.Context(), sess.ID)
		s.writeError(w, r, err)
		return
	}
	st, err := ls.state(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, CreateResponse{ID: sess.ID, State: st})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "list sessions"))
		return
	}
	s.mu.RLock()
	out := make([]Summary, len(sessions))
	for i, sess := range sessions {
		_, live := s.live[sess.ID]
		out[i] = summaryOf(sess, live)
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func summaryOf(sess *session.Session, live bool) Summary {
	return Summary{
		ID:        sess.ID,
		Name:      sess.Name,
		GraphHash: sess.GraphHash,
		Nodes:     sess.Graph.NodeCount(),
		Links:     sess.Graph.LinkCount(),
		Selected:  len(sess.Snapshot.Selected),
		Live:      live,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := ls.state(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.stop(id)
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeEvent reads one event. Malformed JSON and unknown kinds are
// INVALID_EVENT.
func decodeEvent(data []byte) (selection.Event, error) {
	var ev selection.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, errors.Wrap(errors.ErrCodeInvalidEvent, err, "decode event")
	}
	return ev, nil
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read event"))
		return
	}
	ev, err := decodeEvent(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		resp     EventResponse
		applyErr error
	)
	err = ls.loop.Do(r.Context(), func(sc *scene.Scene) {
		resp.Change, applyErr = sc.Handle(r.Context(), ev)
		if applyErr != nil {
			return
		}
		if !resp.Change.Noop {
			ls.publish(sc, resp.Change)
		}
		resp.State = stateOf(sc)
	})
	if err == nil {
		err = applyErr
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
}

// getSVG renders the current state. Query parameters: format (svg, dot,
// json), labels and hide_filtered (booleans overriding the config).
func (s *Server) getSVG(w http.ResponseWriter, r *http.Request) {
	ls, err := s.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{
		Formats:      []string{format},
		Labels:       boolParam(q.Get("labels"), s.cfgAll.Render.Labels),
		HideFiltered: boolParam(q.Get("hide_filtered"), s.cfgAll.Render.HideFiltered),
		Logger:       s.logger,
	}

	var (
		artifacts map[string][]byte
		hit       bool
		renderErr error
	)
	err = ls.loop.Do(r.Context(), func(sc *scene.Scene) {
		artifacts, hit, renderErr = s.runner.RenderWithCacheInfo(r.Context(), ls.graphHash, sc.Machine(), opts)
	})
	if err == nil {
		err = renderErr
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", map[bool]string{true: "HIT", false: "MISS"}[hit])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func boolParam(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// putSnapshot persists the live selection. An expired or missing store
// record is recreated under the same id.
func (s *Server) putSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ls, err := s.lookup(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		snap selection.Snapshot
		g    graph.Graph
	)
	if err := ls.loop.Do(r.Context(), func(sc *scene.Scene) {
		snap = sc.Machine().Snapshot()
		g = sc.Graph()
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
		return
	}
	if sess == nil {
		if sess, err = session.New(g, snap, s.ttl); err != nil {
			s.writeError(w, r, err)
			return
		}
		sess.ID = id
	}
	sess.Update(snap, s.ttl)
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	s.logger.Debug("snapshot saved", "session", id, "selected", len(snap.Selected), "focused", snap.Focused)
	writeJSON(w, http.StatusOK, SnapshotResponse{ID: id, Snapshot: sess.Snapshot, ExpiresAt: sess.ExpiresAt})
}

// restore loads the persisted snapshot into the live scene. Connected
// clients receive the resulting change as a state frame.
func (s *Server) restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ls, err := s.lookup(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
		return
	}
	if sess == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeSessionNotFound, "no snapshot stored for session %s", id))
		return
	}

	var resp EventResponse
	if err := ls.loop.Do(r.Context(), func(sc *scene.Scene) {
		resp.Change = sc.Restore(sess.Snapshot)
		ls.publish(sc, resp.Change)
		resp.State = stateOf(sc)
	}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
