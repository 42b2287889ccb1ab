package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/authornet/pkg/cache"
	"github.com/matzehuels/authornet/pkg/coauthor"
	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/observability"
	"github.com/matzehuels/authornet/pkg/render/nodelink"
	"github.com/matzehuels/authornet/pkg/scene"
	"github.com/matzehuels/authornet/pkg/selection"
	"github.com/matzehuels/authornet/pkg/session"
)

// Key types reported to the cache hooks.
const (
	keyTypeGraph    = "graph"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// It holds no per-run state, so one Runner can serve many goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	g, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.LinkCount = g.LinkCount()
	result.CacheInfo.LoadHit = loadHit

	if result.GraphHash, err = session.GraphHash(g); err != nil {
		return nil, fmt.Errorf("hash graph: %w", err)
	}
	if err := checkNodes(g, opts); err != nil {
		return nil, err
	}

	r.Logger.Info("loaded graph",
		"nodes", g.NodeCount(),
		"links", g.LinkCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	sc, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Ticks = sc.Ticks()
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"ticks", sc.Ticks(),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	sc.Restore(selection.Snapshot{
		Selected: opts.Select,
		Focused:  opts.Focus,
		Query:    opts.Query,
	})
	result.Snapshot = sc.Machine().Snapshot()

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.GraphHash, sc.Machine(), opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// checkNodes rejects selection and focus ids the payload does not know.
func checkNodes(g graph.Graph, opts Options) error {
	for _, id := range opts.Select {
		if _, ok := g.Node(id); !ok {
			return errors.New(errors.ErrCodeUnknownNode, "cannot select unknown node %q", id)
		}
	}
	if opts.Focus != "" {
		if _, ok := g.Node(opts.Focus); !ok {
			return errors.New(errors.ErrCodeUnknownNode, "cannot focus unknown node %q", opts.Focus)
		}
	}
	return nil
}

// LoadWithCacheInfo reads the input and reports whether it came from cache.
// Graph payloads are read directly; graphs built from references are cached
// by the hash of the references file.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (graph.Graph, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return graph.Graph{}, false, err
	}
	if opts.Graph != nil {
		if err := graph.Validate(*opts.Graph); err != nil {
			return graph.Graph{}, false, err
		}
		return *opts.Graph, false, nil
	}
	if !IsReferences(opts.Input) {
		g, err := graph.ReadFile(opts.Input)
		return g, false, err
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.Graph{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "references file %s", opts.Input)
		}
		return graph.Graph{}, false, fmt.Errorf("read references: %w", err)
	}
	cacheKey := r.Keyer.GraphKey(cache.Hash(data), opts.GraphKeyOpts())

	if !opts.Refresh {
		if cached, hit := r.get(ctx, keyTypeGraph, cacheKey); hit {
			if g, err := graph.Parse(cached); err == nil {
				return g, true, nil
			}
		}
	}

	refs, err := coauthor.ReadFile(opts.Input)
	if err != nil {
		return graph.Graph{}, false, err
	}
	g := coauthor.Build(refs, coauthor.Options{MinPapers: opts.MinPapers})

	if encoded, err := graph.Marshal(g); err == nil {
		r.set(ctx, keyTypeGraph, cacheKey, encoded, cache.TTLGraph)
	}
	return g, false, nil
}

// Load is a convenience wrapper that discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (graph.Graph, error) {
	g, _, err := r.LoadWithCacheInfo(ctx, opts)
	return g, err
}

// LayoutWithCacheInfo builds a scene for g with a settled layout and reports
// whether the positions came from cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (*scene.Scene, bool, error) {
	opts.SetLayoutDefaults()
	r.applyLogger(&opts)

	sc, err := scene.New(g, scene.Options{Layout: opts.Layout, Logger: opts.Logger})
	if err != nil {
		return nil, false, err
	}

	graphHash, err := session.GraphHash(g)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit := r.get(ctx, keyTypeLayout, cacheKey); hit {
			var pos map[string][2]float64
			if err := json.Unmarshal(data, &pos); err == nil {
				sc.Restore(selection.Snapshot{Positions: pos})
				return sc, true, nil
			}
		}
	}

	sc.Settle(opts.Ticks)

	if data, err := json.Marshal(sc.Machine().Snapshot().Positions); err == nil {
		r.set(ctx, keyTypeLayout, cacheKey, data, cache.TTLLayout)
	}
	return sc, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, opts Options) (*scene.Scene, error) {
	sc, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return sc, err
}

// RenderWithCacheInfo renders the machine's current state in every
// requested format. Artifacts are keyed by the payload hash and the state
// snapshot, so any change of selection, focus, filter or position misses.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, graphHash string, m *selection.Machine, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	state, err := json.Marshal(m.Snapshot())
	if err != nil {
		return nil, false, fmt.Errorf("serialize state for cache key: %w", err)
	}
	stateHash := cache.Hash(append([]byte(graphHash), state...))

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(stateHash, opts.ArtifactKeyOpts(format))
		if data, hit := r.get(ctx, keyTypeArtifact, key); hit {
			artifacts[format] = data
			continue
		}
		allCached = false

		data, err := RenderFormat(ctx, m, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		r.set(ctx, keyTypeArtifact, key, data, cache.TTLArtifact)
	}
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, graphHash string, m *selection.Machine, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, graphHash, m, opts)
	return artifacts, err
}

// RenderFormat renders one format without caching.
func RenderFormat(ctx context.Context, m *selection.Machine, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return nodelink.Render(ctx, m, opts.RenderOptions())
	case FormatDOT:
		return []byte(nodelink.ToDOT(m, opts.RenderOptions())), nil
	case FormatJSON:
		exp := Export{Snapshot: m.Snapshot()}
		for _, n := range m.Nodes() {
			exp.Graph.Nodes = append(exp.Graph.Nodes, n.Node)
		}
		for _, l := range m.Links() {
			exp.Graph.Links = append(exp.Graph.Links, l.Link)
		}
		if exp.Graph.Nodes == nil {
			exp.Graph.Nodes = []graph.Node{}
		}
		if exp.Graph.Links == nil {
			exp.Graph.Links = []graph.Link{}
		}
		return json.MarshalIndent(exp, "", "  ")
	default:
		return nil, ValidateFormat(format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
