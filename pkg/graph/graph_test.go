package graph

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/authornet/pkg/errors"
)

const twoAuthors = `{
	"nodes": [
		{"id": "a", "publications": 4, "initials": "A"},
		{"id": "b", "publications": 9, "initials": "B"}
	],
	"links": [{"source": "a", "target": "b", "value": 1}]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantLinks int
		wantCode  errors.Code
	}{
		{
			name:      "Valid",
			input:     twoAuthors,
			wantNodes: 2,
			wantLinks: 1,
		},
		{
			name:      "EmptyLinks",
			input:     `{"nodes": [{"id": "a", "initials": "A"}], "links": []}`,
			wantNodes: 1,
			wantLinks: 0,
		},
		{
			name:     "MissingLinks",
			input:    `{"nodes": [{"id": "a", "initials": "A"}]}`,
			wantCode: errors.ErrCodeMissingLinks,
		},
		{
			name:     "NullLinks",
			input:    `{"nodes": [], "links": null}`,
			wantCode: errors.ErrCodeMissingLinks,
		},
		{
			name:     "MissingNodes",
			input:    `{"links": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "MalformedJSON",
			input:    `{"nodes": [`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "MissingID",
			input:    `{"nodes": [{"initials": "A"}], "links": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "MissingInitials",
			input:    `{"nodes": [{"id": "a"}], "links": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "NegativePublications",
			input:    `{"nodes": [{"id": "a", "initials": "A", "publications": -1}], "links": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name: "DuplicateNode",
			input: `{"nodes": [
				{"id": "a", "initials": "A"},
				{"id": "a", "initials": "A"}
			], "links": []}`,
			wantCode: errors.ErrCodeDuplicateNode,
		},
		{
			name: "UnknownTarget",
			input: `{"nodes": [{"id": "a", "initials": "A"}],
				"links": [{"source": "a", "target": "z", "value": 1}]}`,
			wantCode: errors.ErrCodeUnknownNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse([]byte(tt.input))
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("Parse() = nil error, want %s", tt.wantCode)
				}
				if got := errors.GetCode(err); got != tt.wantCode {
					t.Fatalf("code = %s, want %s (err: %v)", got, tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := g.NodeCount(); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := g.LinkCount(); got != tt.wantLinks {
				t.Errorf("links = %d, want %d", got, tt.wantLinks)
			}
		})
	}
}

func TestParsePreservesFields(t *testing.T) {
	g, err := Parse([]byte(`{
		"nodes": [{"id": "a", "name": "Ada Lovelace", "initials": "AL", "publications": 4, "group": 2, "color": "#123456"}],
		"links": []
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n := g.Nodes[0]
	if n.Name != "Ada Lovelace" || n.Initials != "AL" || n.Publications != 4 || n.Group != 2 || n.Color != "#123456" {
		t.Errorf("unexpected node: %+v", n)
	}
}

func TestParseYAML(t *testing.T) {
	input := `
nodes:
  - id: a
    initials: A
    publications: 4
  - id: b
    initials: B
    publications: 9
links:
  - source: a
    target: b
    value: 2
`
	g, err := ParseYAML([]byte(input))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if g.NodeCount() != 2 || g.LinkCount() != 1 {
		t.Fatalf("got %d nodes, %d links", g.NodeCount(), g.LinkCount())
	}
	if g.Links[0].Value != 2 {
		t.Errorf("value = %v, want 2", g.Links[0].Value)
	}

	_, err = ParseYAML([]byte("nodes: []\n"))
	if !errors.Is(err, errors.ErrCodeMissingLinks) {
		t.Errorf("missing links: err = %v, want MISSING_LINKS", err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "g.json")
	if err := os.WriteFile(jsonPath, []byte(twoAuthors), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "g.yml")
	if err := os.WriteFile(yamlPath, []byte("nodes: []\nlinks: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if g, err := ReadFile(jsonPath); err != nil || g.NodeCount() != 2 {
		t.Errorf("ReadFile(json) = %d nodes, %v", g.NodeCount(), err)
	}
	if _, err := ReadFile(yamlPath); err != nil {
		t.Errorf("ReadFile(yaml): %v", err)
	}

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) = %v, want FILE_NOT_FOUND", err)
	}
}

func TestWriteAlwaysEmitsLinks(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(Graph{}, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"links": []`) {
		t.Errorf("output should contain empty links list:\n%s", buf.String())
	}

	// Round trip must parse, since links are always present.
	if _, err := Parse(buf.Bytes()); err != nil {
		t.Errorf("Parse(Write(empty)): %v", err)
	}
}

func TestMarshalOmitsEmptyOptionalFields(t *testing.T) {
	data, err := Marshal(Graph{Nodes: []Node{{ID: "a", Initials: "A"}}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string][]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	node := raw["nodes"][0]
	for _, key := range []string{"name", "group", "color"} {
		if _, ok := node[key]; ok {
			t.Errorf("key %q should be omitted", key)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := (Node{ID: "x"}).DisplayName(); got != "x" {
		t.Errorf("DisplayName() = %q, want id fallback", got)
	}
	if got := (Node{ID: "x", Name: "Xavier"}).DisplayName(); got != "Xavier" {
		t.Errorf("DisplayName() = %q, want Xavier", got)
	}
}

func TestLinkTouches(t *testing.T) {
	l := Link{Source: "a", Target: "b"}
	if !l.Touches("a") || !l.Touches("b") || l.Touches("c") {
		t.Errorf("Touches wrong for %+v", l)
	}
}

func TestValidateLinks(t *testing.T) {
	nodes := []Node{{ID: "a", Initials: "A"}}
	if err := Validate(Graph{Nodes: nodes}); !errors.Is(err, errors.ErrCodeMissingLinks) {
		t.Errorf("nil links: error = %v, want MISSING_LINKS", err)
	}
	if err := Validate(Graph{Nodes: nodes, Links: []Link{}}); err != nil {
		t.Errorf("empty links: %v", err)
	}
}
