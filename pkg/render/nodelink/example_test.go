package nodelink_test

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/render/nodelink"
	"github.com/matzehuels/authornet/pkg/selection"
)

func ExampleToDOT() {
	m, _ := selection.New(graph.Graph{
		Nodes: []graph.Node{
			{ID: "turing", Name: "Alan Turing", Initials: "AT", Publications: 9},
			{ID: "church", Name: "Alonzo Church", Initials: "AC", Publications: 4},
		},
		Links: []graph.Link{{Source: "turing", Target: "church", Value: 1}},
	})
	m.SetPositions(map[string]r2.Vec{"turing": {X: 0, Y: 0}, "church": {X: 50, Y: 0}})
	m.Apply(selection.Focus("turing"))

	for _, line := range strings.Split(nodelink.ToDOT(m, nodelink.Options{}), "\n") {
		if strings.Contains(line, "--") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "turing" -- "church" [penwidth=1.00, color="#ff0000"];
}
