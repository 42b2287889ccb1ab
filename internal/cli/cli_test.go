package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/authornet/internal/config"
	"github.com/matzehuels/authornet/pkg/cache"
	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/pipeline"
	"github.com/matzehuels/authornet/pkg/selection"
	"github.com/matzehuels/authornet/pkg/session"
)

const trioPayload = `{
	"nodes": [
		{"id": "a", "name": "Ada Lovelace", "initials": "AL", "publications": 4, "group": 1},
		{"id": "b", "name": "Charles Babbage", "initials": "CB", "publications": 9, "group": 1},
		{"id": "c", "initials": "C", "publications": 1, "group": 2}
	],
	"links": [{"source": "a", "target": "b", "value": 2}]
}`

const testRefs = `{"id": "p1", "authors": [{"first": "Ada", "last": "Lovelace"}, {"first": "Charles", "last": "Babbage"}]}
{"id": "p2", "authors": [{"first": "Ada", "last": "Lovelace"}, {"first": "Mary", "last": "Somerville"}]}
`

// env is an isolated config with file-backed sessions and cache.
type env struct {
	dir        string
	configPath string
	sessionDir string
	cacheDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, key := range []string{
		config.EnvAddr, config.EnvSessionBackend, config.EnvSessionDir, config.EnvRedisAddr,
		config.EnvMongoURI, config.EnvSQLitePath, config.EnvCacheBackend, config.EnvCacheDir, config.EnvEventRate,
	} {
		t.Setenv(key, "")
	}

	e := env{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		sessionDir: filepath.Join(dir, "sessions"),
		cacheDir:   filepath.Join(dir, "artifacts"),
	}
	cfg := config.Default()
	cfg.Session.Backend = session.BackendFile
	cfg.Session.Dir = e.sessionDir
	cfg.Cache.Backend = config.CacheFile
	cfg.Cache.Dir = e.cacheDir
	cfg.Render.Ticks = 20
	if err := config.Save(cfg, e.configPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return e
}

func (e env) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with args and returns what commands wrote through
// cobra's output.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"explore", "serve", "render", "validate", "coauthor", "session", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing %q command (have %v)", want, names)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestValidate(t *testing.T) {
	e := newEnv(t)

	if _, err := e.run(t, "validate", e.write(t, "graph.json", trioPayload)); err != nil {
		t.Errorf("validate: %v", err)
	}

	_, err := e.run(t, "validate", e.write(t, "nolinks.json", `{"nodes": [{"id": "a", "initials": "A", "publications": 1}]}`))
	if !errors.Is(err, errors.ErrCodeMissingLinks) {
		t.Errorf("validate without links = %v, want MISSING_LINKS", err)
	}

	_, err = e.run(t, "validate", filepath.Join(e.dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("validate missing file = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRender(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "graph.json", trioPayload)
	base := filepath.Join(e.dir, "out", "trio")
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := e.run(t, "render", input, "-f", "dot,json", "-o", base, "--select", "a", "--focus", "b", "--filter", "ch")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.Contains(string(dot), `"a" -- "b"`) {
		t.Errorf("dot lacks the a-b link:\n%s", dot)
	}

	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var export pipeline.Export
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	want := selection.Snapshot{Selected: []string{"a"}, Focused: "b", Query: "ch"}
	if !slices.Equal(export.Snapshot.Selected, want.Selected) || export.Snapshot.Focused != want.Focused || export.Snapshot.Query != want.Query {
		t.Errorf("snapshot = %+v, want %+v", export.Snapshot, want)
	}
	if export.Graph.NodeCount() != 3 {
		t.Errorf("export carries %d nodes, want 3", export.Graph.NodeCount())
	}
}

func TestRenderDoesNotOverwriteInput(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "graph.json", trioPayload)

	if _, err := e.run(t, "render", input, "-f", "json"); err != nil {
		t.Fatalf("render: %v", err)
	}
	got, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != trioPayload {
		t.Error("render overwrote its input")
	}
	if _, err := os.Stat(filepath.Join(e.dir, "graph.export.json")); err != nil {
		t.Errorf("export not written beside the input: %v", err)
	}
}

func TestRenderErrors(t *testing.T) {
	e := newEnv(t)
	input := e.write(t, "graph.json", trioPayload)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unknown format", []string{"render", input, "-f", "png"}, errors.ErrCodeInvalidInput},
		{"unknown selection", []string{"render", input, "-f", "dot", "--select", "zed"}, errors.ErrCodeUnknownNode},
		{"unknown focus", []string{"render", input, "-f", "dot", "--focus", "zed"}, errors.ErrCodeUnknownNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.run(t, tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := e.run(t, "render", input, "-f", "dot,json", "-o", "-"); err == nil {
		t.Error("several formats to stdout succeeded")
	}
}

func TestCoauthor(t *testing.T) {
	e := newEnv(t)
	refs := e.write(t, "refs.jsonl", testRefs)
	out := filepath.Join(e.dir, "coauthors.json")

	if _, err := e.run(t, "coauthor", refs, "-o", out); err != nil {
		t.Fatalf("coauthor: %v", err)
	}
	g, err := graph.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if g.NodeCount() != 3 || g.LinkCount() != 2 {
		t.Errorf("built %d nodes and %d links, want 3 and 2", g.NodeCount(), g.LinkCount())
	}

	// Only Ada has two papers.
	if _, err := e.run(t, "coauthor", refs, "-o", out, "--min-papers", "2"); err != nil {
		t.Fatalf("coauthor --min-papers: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var filtered graph.Graph
	if err := json.Unmarshal(data, &filtered); err != nil {
		t.Fatal(err)
	}
	if filtered.NodeCount() != 1 || filtered.LinkCount() != 0 {
		t.Errorf("filtered graph has %d nodes and %d links, want 1 and 0", filtered.NodeCount(), filtered.LinkCount())
	}
}

func TestSessionCommands(t *testing.T) {
	e := newEnv(t)
	g, err := graph.Parse([]byte(trioPayload))
	if err != nil {
		t.Fatal(err)
	}
	store, err := session.NewFileStore(e.sessionDir)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := session.New(g, selection.Snapshot{Selected: []string{"a"}}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}

	if _, err := e.run(t, "session", "list"); err != nil {
		t.Errorf("session list: %v", err)
	}
	if _, err := e.run(t, "session", "show", sess.ID); err != nil {
		t.Errorf("session show: %v", err)
	}
	if _, err := e.run(t, "session", "show", "../etc"); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("show with a bad id = %v, want INVALID_ID", err)
	}

	if _, err := e.run(t, "session", "delete", sess.ID); err != nil {
		t.Fatalf("session delete: %v", err)
	}
	if got, _ := store.Get(ctx, sess.ID); got != nil {
		t.Error("session still stored after delete")
	}
	if _, err := e.run(t, "session", "show", sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("show after delete = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestCachePath(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out); got != e.cacheDir {
		t.Errorf("cache path = %q, want %q", got, e.cacheDir)
	}
}

func TestCacheClear(t *testing.T) {
	e := newEnv(t)
	c, err := cache.NewFileCache(e.cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, "layout:abc", []byte("{}"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := e.run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestCompletion(t *testing.T) {
	e := newEnv(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := e.run(t, "completion", shell)
		if err != nil {
			t.Errorf("completion %s: %v", shell, err)
			continue
		}
		if !strings.Contains(out, appName) {
			t.Errorf("%s completion does not mention %s", shell, appName)
		}
	}
	if _, err := e.run(t, "completion", "tcsh"); err == nil {
		t.Error("completion for an unknown shell succeeded")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "data/graph.json", "data/graph"},
		{"-", "graph.yaml", "graph"},
		{"out/trio.svg", "graph.json", "out/trio"},
		{"out/trio", "graph.json", "out/trio"},
		{"out/trio.v2", "graph.json", "out/trio.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a, b ,,c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := parseList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := parseFormats(""); !slices.Equal(got, []string{pipeline.FormatSVG}) {
		t.Errorf("parseFormats(\"\") = %v, want [svg]", got)
	}
}

func TestSummarize(t *testing.T) {
	g, err := graph.Parse([]byte(trioPayload))
	if err != nil {
		t.Fatal(err)
	}
	got := summarize(g)
	want := graphSummary{Nodes: 3, Links: 1, Unnamed: 1, Isolated: 1, Groups: 2, Publications: 14}
	if got != want {
		t.Errorf("summarize = %+v, want %+v", got, want)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{now, "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.t); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
