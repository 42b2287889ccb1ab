package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/authornet/pkg/errors"
)

// payload mirrors Graph with a pointer for links so a missing key can be
// told apart from an empty list.
type payload struct {
	Nodes *[]Node `json:"nodes" yaml:"nodes"`
	Links *[]Link `json:"links" yaml:"links"`
}

func (p payload) graph() (Graph, error) {
	if p.Links == nil {
		return Graph{}, errors.New(errors.ErrCodeMissingLinks, "graph is missing links")
	}
	if p.Nodes == nil {
		return Graph{}, errors.New(errors.ErrCodeInvalidGraph, "graph is missing nodes")
	}
	g := Graph{Nodes: *p.Nodes, Links: *p.Links}
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	if err := Validate(g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Decoding
// =============================================================================

// Parse decodes and validates a JSON payload.
// A payload without a "links" key fails with [errors.ErrCodeMissingLinks].
func Parse(data []byte) (Graph, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode graph")
	}
	return p.graph()
}

// ParseYAML decodes and validates a YAML payload.
func ParseYAML(data []byte) (Graph, error) {
	var p payload
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode graph")
	}
	return p.graph()
}

// Read decodes a JSON payload from r.
func Read(r io.Reader) (Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Graph{}, fmt.Errorf("read graph: %w", err)
	}
	return Parse(data)
}

// ReadFile reads a payload file, choosing the decoder by extension.
// ".yaml" and ".yml" are decoded as YAML, everything else as JSON.
func ReadFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
		}
		return Graph{}, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// =============================================================================
// Encoding
// =============================================================================

// Marshal encodes g as indented JSON.
func Marshal(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes g as indented JSON to w.
// Nil slices are written as empty lists so the output always carries "links".
func Write(g Graph, w io.Writer) error {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// WriteFile writes g to path as JSON.
func WriteFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}
