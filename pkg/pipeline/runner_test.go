package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/authornet/pkg/cache"
	"github.com/matzehuels/authornet/pkg/errors"
)

const testPayload = `{
  "nodes": [
    {"id": "ada", "name": "Ada Lovelace", "initials": "AL", "publications": 4, "group": 1},
    {"id": "charles", "name": "Charles Babbage", "initials": "CB", "publications": 9, "group": 1},
    {"id": "mary", "initials": "MS", "publications": 1, "group": 2}
  ],
  "links": [
    {"source": "ada", "target": "charles", "value": 2},
    {"source": "charles", "target": "mary", "value": 1}
  ]
}`

const testRefs = `{"id": "p1", "authors": [{"first": "Ada", "last": "Lovelace"}, {"first": "Charles", "last": "Babbage"}]}
{"id": "p2", "authors": [{"first": "Ada", "last": "Lovelace"}, {"first": "Mary", "last": "Somerville"}]}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel}))
}

func TestExecute(t *testing.T) {
	r := newRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Input:   writeFile(t, "graph.json", testPayload),
		Ticks:   50,
		Select:  []string{"ada", "mary"},
		Focus:   "charles",
		Formats: []string{FormatDOT, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.NodeCount != 3 || res.Stats.LinkCount != 2 {
		t.Errorf("stats = %+v, want 3 nodes and 2 links", res.Stats)
	}
	if res.Stats.Ticks == 0 || res.Stats.Ticks > 50 {
		t.Errorf("Ticks = %d, want within 1..50", res.Stats.Ticks)
	}
	if res.GraphHash == "" {
		t.Error("GraphHash is empty")
	}
	if got := res.Snapshot.Selected; len(got) != 2 || got[0] != "ada" || got[1] != "mary" {
		t.Errorf("Selected = %v, want [ada mary]", got)
	}
	if res.Snapshot.Focused != "charles" {
		t.Errorf("Focused = %q, want charles", res.Snapshot.Focused)
	}

	dot := string(res.Artifacts[FormatDOT])
	if !strings.Contains(dot, `"ada" -- "charles"`) {
		t.Errorf("dot artifact missing link:\n%s", dot)
	}

	var exp Export
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &exp); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(exp.Graph.Nodes) != 3 || exp.Snapshot.Focused != "charles" {
		t.Errorf("json artifact = %d nodes, focus %q", len(exp.Graph.Nodes), exp.Snapshot.Focused)
	}
	if len(exp.Snapshot.Positions) != 3 {
		t.Errorf("json artifact has %d positions, want 3", len(exp.Snapshot.Positions))
	}
}

func TestExecuteSVG(t *testing.T) {
	r := newRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Input: writeFile(t, "graph.json", testPayload),
		Ticks: 10,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if svg := string(res.Artifacts[FormatSVG]); !strings.Contains(svg, "<svg") {
		t.Errorf("svg artifact = %.80s", svg)
	}
}

func TestExecuteErrors(t *testing.T) {
	payload := writeFile(t, "graph.json", testPayload)
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no input", Options{}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Input: payload, Formats: []string{"png"}}, errors.ErrCodeInvalidInput},
		{"unknown selection", Options{Input: payload, Select: []string{"nobody"}}, errors.ErrCodeUnknownNode},
		{"unknown focus", Options{Input: payload, Focus: "nobody"}, errors.ErrCodeUnknownNode},
		{"missing links", Options{Input: writeFile(t, "g.json", `{"nodes": []}`)}, errors.ErrCodeMissingLinks},
		{"missing references", Options{Input: filepath.Join(t.TempDir(), "none.jsonl")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRunner(t, nil).Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteFromReferences(t *testing.T) {
	r := newRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Input:   writeFile(t, "refs.jsonl", testRefs),
		Ticks:   5,
		Formats: []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.NodeCount != 3 || res.Stats.LinkCount != 2 {
		t.Errorf("built %d nodes %d links, want 3 and 2", res.Stats.NodeCount, res.Stats.LinkCount)
	}
	if n, ok := res.Graph.Node("ada-lovelace"); !ok || n.Publications != 2 {
		t.Errorf("ada-lovelace = %+v, %v", n, ok)
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, c)
	opts := Options{
		Input:   writeFile(t, "refs.jsonl", testRefs),
		Ticks:   20,
		Select:  []string{"ada-lovelace"},
		Formats: []string{FormatDOT, FormatJSON},
	}
	ctx := context.Background()

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LoadHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LoadHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if string(first.Artifacts[FormatDOT]) != string(second.Artifacts[FormatDOT]) {
		t.Error("cached dot artifact differs")
	}

	opts.Select = []string{"mary-somerville"}
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if !third.CacheInfo.LayoutHit {
		t.Error("changing the selection should keep the layout cached")
	}
	if third.CacheInfo.RenderHit {
		t.Error("changing the selection should miss the artifact cache")
	}

	opts.Refresh = true
	fourth, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if fourth.CacheInfo.LoadHit || fourth.CacheInfo.LayoutHit {
		t.Errorf("refresh run hit the cache: %+v", fourth.CacheInfo)
	}
}
