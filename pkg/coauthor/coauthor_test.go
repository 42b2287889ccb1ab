package coauthor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/authornet/pkg/errors"
	"github.com/matzehuels/authornet/pkg/graph"
)

const testRefs = `{"id": "p1", "title": "Notes", "authors": [{"first": "Ada", "last": "Lovelace"}, {"first": "Charles", "last": "Babbage"}]}
{"id": "p2", "authors": [{"first": "ada", "last": "LOVELACE"}, {"first": "Charles", "last": "Babbage"}, {"first": "Mary", "last": "Somerville"}]}

{"id": "p3", "authors": [{"first": "Alan M.", "last": "Turing"}, {"first": "Alonzo", "last": "Church"}, {"first": "Alan M.", "last": "Turing"}]}
{"id": "p4", "authors": [{"first": "Grace", "last": "Hopper"}, {"first": "", "last": ""}]}
`

func build(t *testing.T, opts Options) graph.Graph {
	t.Helper()
	refs, err := Read(strings.NewReader(testRefs))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return Build(refs, opts)
}

func nodeByID(t *testing.T, g graph.Graph, id string) graph.Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q missing", id)
	}
	return n
}

func TestAuthor(t *testing.T) {
	tests := []struct {
		author   Author
		name     string
		id       string
		initials string
	}{
		{Author{"Ada", "Lovelace"}, "Ada Lovelace", "ada-lovelace", "AL"},
		{Author{"  Alan  M. ", "Turing"}, "Alan M. Turing", "alan-m.-turing", "AMT"},
		{Author{"Ada", "King-Lovelace"}, "Ada King-Lovelace", "ada-king-lovelace", "AKL"},
		{Author{"", "Euclid"}, "Euclid", "euclid", "E"},
		{Author{"émilie", "du Châtelet"}, "émilie du Châtelet", "émilie-du-châtelet", "ÉDC"},
		{Author{"", "."}, ".", ".", "."},
		{Author{}, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.author.Name(); got != tt.name {
				t.Errorf("Name() = %q, want %q", got, tt.name)
			}
			if got := tt.author.ID(); got != tt.id {
				t.Errorf("ID() = %q, want %q", got, tt.id)
			}
			if got := tt.author.Initials(); got != tt.initials {
				t.Errorf("Initials() = %q, want %q", got, tt.initials)
			}
		})
	}
}

func TestRead(t *testing.T) {
	refs, err := Read(strings.NewReader(testRefs))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(refs) != 4 {
		t.Fatalf("Read returned %d references, want 4", len(refs))
	}
	if refs[0].Title != "Notes" || len(refs[0].Authors) != 2 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
}

func TestReadInvalidLine(t *testing.T) {
	_, err := Read(strings.NewReader("{\"id\": \"ok\"}\nnot json\n"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("Read error = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name line 2", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.jsonl")
	if err := os.WriteFile(path, []byte(testRefs), 0644); err != nil {
		t.Fatal(err)
	}
	refs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(refs) != 4 {
		t.Errorf("ReadFile returned %d references, want 4", len(refs))
	}

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestBuild(t *testing.T) {
	g := build(t, Options{})

	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	want := []string{"ada-lovelace", "alan-m.-turing", "alonzo-church", "charles-babbage", "grace-hopper", "mary-somerville"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("node ids = %v, want %v", ids, want)
	}

	if n := nodeByID(t, g, "ada-lovelace"); n.Publications != 2 || n.Name != "Ada Lovelace" || n.Initials != "AL" {
		t.Errorf("ada-lovelace = %+v", n)
	}
	if n := nodeByID(t, g, "alan-m.-turing"); n.Publications != 1 {
		t.Errorf("duplicate listing counted twice: publications = %d", n.Publications)
	}

	links := make(map[string]float64)
	for _, l := range g.Links {
		if l.Source >= l.Target {
			t.Errorf("link %s-%s not ordered", l.Source, l.Target)
		}
		links[l.Source+"|"+l.Target] = l.Value
	}
	wantLinks := map[string]float64{
		"ada-lovelace|charles-babbage":    2,
		"ada-lovelace|mary-somerville":    1,
		"charles-babbage|mary-somerville": 1,
		"alan-m.-turing|alonzo-church":    1,
	}
	if len(links) != len(wantLinks) {
		t.Errorf("links = %v, want %v", links, wantLinks)
	}
	for k, v := range wantLinks {
		if links[k] != v {
			t.Errorf("link %s value = %v, want %v", k, links[k], v)
		}
	}

	if err := graph.Validate(g); err != nil {
		t.Errorf("built graph does not validate: %v", err)
	}
}

func TestBuildGroups(t *testing.T) {
	g := build(t, Options{})

	tests := map[string]int{
		"ada-lovelace":    1,
		"charles-babbage": 1,
		"mary-somerville": 1,
		"alan-m.-turing":  2,
		"alonzo-church":   2,
		"grace-hopper":    3,
	}
	for id, want := range tests {
		if got := nodeByID(t, g, id).Group; got != want {
			t.Errorf("%s group = %d, want %d", id, got, want)
		}
	}
}

func TestBuildMinPapers(t *testing.T) {
	g := build(t, Options{MinPapers: 2})

	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %v, want ada-lovelace and charles-babbage", g.Nodes)
	}
	if len(g.Links) != 1 || g.Links[0].Value != 2 {
		t.Errorf("links = %v, want one link of value 2", g.Links)
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, err := graph.Marshal(build(t, Options{}))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := graph.Marshal(build(t, Options{}))
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatal("Build output differs between runs")
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil, Options{})
	if g.Nodes == nil || g.Links == nil {
		t.Error("empty build should have non-nil nodes and links")
	}
	data, err := graph.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := graph.Parse(data); err != nil {
		t.Errorf("empty build does not round-trip: %v", err)
	}
}
