package coauthor

import (
	"cmp"
	"slices"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/authornet/pkg/graph"
)

// Options configures graph building.
type Options struct {
	// MinPapers drops authors with fewer publications, and their links.
	MinPapers int
}

type author struct {
	order int
	node  graph.Node
}

type pair struct{ a, b string }

// Build converts references to a co-authorship payload.
// Authors without a name are ignored. An author listed twice on the same
// paper counts once.
func Build(refs []Reference, opts Options) graph.Graph {
	authors := make(map[string]*author)
	pairs := make(map[pair]float64)

	for _, ref := range refs {
		ids := paperAuthors(ref, authors)
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				pairs[makePair(ids[i], ids[j])]++
			}
		}
	}

	for id, a := range authors {
		if a.node.Publications < opts.MinPapers {
			delete(authors, id)
		}
	}

	g := graph.Graph{Nodes: []graph.Node{}, Links: []graph.Link{}}
	for p, v := range pairs {
		if authors[p.a] == nil || authors[p.b] == nil {
			continue
		}
		g.Links = append(g.Links, graph.Link{Source: p.a, Target: p.b, Value: v})
	}
	group(authors, g.Links)

	for _, a := range authors {
		g.Nodes = append(g.Nodes, a.node)
	}
	slices.SortFunc(g.Nodes, func(x, y graph.Node) int { return cmp.Compare(x.ID, y.ID) })
	slices.SortFunc(g.Links, func(x, y graph.Link) int {
		return cmp.Or(cmp.Compare(x.Source, y.Source), cmp.Compare(x.Target, y.Target))
	})
	return g
}

// paperAuthors registers the paper's authors and returns their distinct ids
// in listing order.
func paperAuthors(ref Reference, authors map[string]*author) []string {
	var ids []string
	seen := make(map[string]bool, len(ref.Authors))
	for _, au := range ref.Authors {
		id := au.ID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)

		a, ok := authors[id]
		if !ok {
			a = &author{
				order: len(authors),
				node:  graph.Node{ID: id, Name: au.Name(), Initials: au.Initials()},
			}
			authors[id] = a
		}
		a.node.Publications++
	}
	return ids
}

func makePair(a, b string) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

// group numbers connected components from 1, ordered by the first
// appearance of any of their members.
func group(authors map[string]*author, links []graph.Link) {
	ug := simple.NewUndirectedGraph()
	byOrder := make(map[int64]*author, len(authors))
	for _, a := range authors {
		ug.AddNode(simple.Node(a.order))
		byOrder[int64(a.order)] = a
	}
	for _, l := range links {
		ug.SetEdge(ug.NewEdge(simple.Node(authors[l.Source].order), simple.Node(authors[l.Target].order)))
	}

	components := topo.ConnectedComponents(ug)
	first := func(c []gonumgraph.Node) int64 {
		m := c[0].ID()
		for _, n := range c[1:] {
			m = min(m, n.ID())
		}
		return m
	}
	slices.SortFunc(components, func(x, y []gonumgraph.Node) int { return cmp.Compare(first(x), first(y)) })

	for i, c := range components {
		for _, n := range c {
			byOrder[n.ID()].node.Group = i + 1
		}
	}
}
