// Package pipeline provides the export pipeline for authornet.
//
// The pipeline turns an input file into rendered artifacts in three stages,
// each cached independently:
//
//  1. Load: read a graph payload, or build one from a references JSONL file
//  2. Layout: settle the force layout and record node positions
//  3. Render: apply selection, focus and filter, then draw the scene
//
// The CLI render command and the server's SVG endpoint share the [Runner],
// so both produce the same output for the same state.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "authors.json",
//	    Select:  []string{"ada"},
//	    Focus:   "ada",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/authornet/pkg/cache"
	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/layout"
	"github.com/matzehuels/authornet/pkg/render/nodelink"
	"github.com/matzehuels/authornet/pkg/selection"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultTicks bounds the layout ticks run before rendering.
const DefaultTicks = 300

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the export pipeline.
type Options struct {
	// Load options
	Input     string       `json:"input,omitempty"`
	Graph     *graph.Graph `json:"-"`
	MinPapers int          `json:"min_papers,omitempty"`
	Refresh   bool         `json:"refresh,omitempty"`

	// Layout options
	Layout layout.Options `json:"layout"`
	Ticks  int            `json:"ticks,omitempty"`

	// Scene state applied before rendering
	Select []string `json:"select,omitempty"`
	Focus  string   `json:"focus,omitempty"`
	Query  string   `json:"query,omitempty"`

	// Render options
	Formats      []string `json:"formats,omitempty"`
	Labels       bool     `json:"labels,omitempty"`
	HideFiltered bool     `json:"hide_filtered,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded payload.
	Graph graph.Graph

	// GraphHash is the content hash of the payload.
	GraphHash string

	// Snapshot is the scene state that was rendered.
	Snapshot selection.Snapshot

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	Ticks      int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool
	LayoutHit bool
	RenderHit bool // all requested artifacts came from cache
}

// Export is the JSON artifact: the payload plus the rendered state.
type Export struct {
	Graph    graph.Graph        `json:"graph"`
	Snapshot selection.Snapshot `json:"snapshot"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// IsReferences reports whether path names a references JSONL file rather
// than a graph payload.
func IsReferences(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	return o.ValidateForRender()
}

// ValidateForLoad checks that there is something to load.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" && o.Graph == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input file or graph is required")
	}
	if o.MinPapers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "min papers cannot be negative")
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults fills unset layout fields.
func (o *Options) SetLayoutDefaults() {
	if o.Layout.Engine == "" {
		o.Layout.Engine = layout.EngineForce
	}
	d := layout.DefaultOptions()
	if o.Layout.Width <= 0 {
		o.Layout.Width = d.Width
	}
	if o.Layout.Height <= 0 {
		o.Layout.Height = d.Height
	}
	if o.Layout.Seed == 0 {
		o.Layout.Seed = d.Seed
	}
	if o.Ticks <= 0 {
		o.Ticks = DefaultTicks
	}
	o.setLogger()
}

// ValidateForRender checks the requested formats, defaulting to SVG.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// GraphKeyOpts returns cache key options for building a graph.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{MinPapers: o.MinPapers}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine: o.Layout.Engine,
		Width:  o.Layout.Width,
		Height: o.Layout.Height,
		Ticks:  o.Ticks,
		Seed:   o.Layout.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       format,
		Labels:       o.Labels,
		HideFiltered: o.HideFiltered,
	}
}

// RenderOptions returns the node-link options.
func (o *Options) RenderOptions() nodelink.Options {
	return nodelink.Options{Labels: o.Labels, HideFiltered: o.HideFiltered}
}
