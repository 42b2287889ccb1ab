// Package session persists explorer sessions: a payload plus the selection
// snapshot taken from its state machine.
//
// Backends implement [Store]:
//   - [MemoryStore]: in-memory storage for development and tests
//   - [FileStore]: one JSON file per session, for the CLI
//   - [SQLiteStore]: a single SQLite database file
//   - [RedisStore]: shared storage for multi-instance servers, expiry via TTL
//   - [MongoStore]: shared storage with a TTL index
//
// # Usage
//
//	store, err := session.Open(ctx, session.Config{Backend: session.BackendSQLite, SQLitePath: "sessions.db"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	sess, err := session.New(g, machine.Snapshot(), session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, id)
//	if sess == nil {
//	    // not found or expired
//	}
package session

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/authornet/pkg/cache"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/selection"
)

// DefaultTTL is the default session lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Session is a persisted explorer state.
type Session struct {
	ID        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	GraphHash string             `json:"graph_hash"`
	Graph     graph.Graph        `json:"graph"`
	Snapshot  selection.Snapshot `json:"snapshot"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// New creates a session for g with a fresh random ID.
func New(g graph.Graph, snap selection.Snapshot, ttl time.Duration) (*Session, error) {
	hash, err := GraphHash(g)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		GraphHash: hash,
		Graph:     g,
		Snapshot:  snap,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// GraphHash returns the content hash of a payload's canonical encoding.
func GraphHash(g graph.Graph) (string, error) {
	data, err := graph.Marshal(g)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Update replaces the snapshot and extends the expiry by ttl.
func (s *Session) Update(snap selection.Snapshot, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	s.Snapshot = snap
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any with the same ID.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns unexpired sessions, newest first.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions (may be a no-op for TTL backends).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

func encode(sess *Session) ([]byte, error) {
	return json.Marshal(sess)
}

func decode(data []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// newestFirst sorts sessions by creation time, newest first.
func newestFirst(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}
