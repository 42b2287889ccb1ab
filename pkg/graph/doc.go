// Package graph provides the input payload for co-authorship graph
// visualizations.
//
// This package defines the canonical wire format consumed by every
// authornet surface: the terminal explorer, the HTTP API, static SVG export
// and the co-authorship builder's output.
//
// # Payload
//
// A payload is a node-link document:
//
//	{
//	  "nodes": [
//	    {"id": "a", "name": "Ada Lovelace", "initials": "AL", "publications": 4, "group": 1},
//	    {"id": "b", "initials": "B", "publications": 9, "color": "#ff7f0e"}
//	  ],
//	  "links": [{"source": "a", "target": "b", "value": 1}]
//	}
//
// The links collection is mandatory. A payload without a "links" key is a
// configuration error ([errors.ErrCodeMissingLinks]) and must be rejected
// before any scene, layout or render state is created. An empty list is fine.
//
// # Decoding
//
//	g, err := graph.Parse(data)          // JSON bytes
//	g, err := graph.ParseYAML(data)      // YAML bytes
//	g, err := graph.ReadFile("g.json")   // by extension
//
// Every decoder runs [Validate], which checks struct tags with
// go-playground/validator and then structural rules: unique node ids and
// link endpoints that resolve to known nodes.
//
// # Styling
//
// The visual encoding of the original force graph lives here so every render
// surface draws the same thing: [Node.Radius], [Node.FontSize],
// [Link.StrokeWidth] and [Palette] for group colors.
//
// # Concurrency
//
// Graph values are plain data. A [Palette] is not safe for concurrent use.
//
// [errors.ErrCodeMissingLinks]: github.com/matzehuels/authornet/pkg/errors
package graph
