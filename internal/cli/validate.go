package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/session"
)

// graphSummary counts what validate reports.
type graphSummary struct {
	Nodes        int
	Links        int
	Unnamed      int
	Isolated     int
	Groups       int
	Publications int
}

func summarize(g graph.Graph) graphSummary {
	s := graphSummary{Nodes: g.NodeCount(), Links: g.LinkCount()}
	linked := make(map[string]bool, len(g.Nodes))
	for _, l := range g.Links {
		linked[l.Source] = true
		linked[l.Target] = true
	}
	groups := make(map[int]bool)
	for _, n := range g.Nodes {
		if !n.HasName() {
			s.Unnamed++
		}
		if !linked[n.ID] {
			s.Isolated++
		}
		groups[n.Group] = true
		s.Publications += n.Publications
	}
	s.Groups = len(groups)
	return s
}

// validateCommand checks a payload without opening the explorer.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph.json]",
		Short: "Check a graph payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadFile(args[0])
			if err != nil {
				printError("%s is not a valid payload", args[0])
				return err
			}
			hash, err := session.GraphHash(g)
			if err != nil {
				return err
			}

			s := summarize(g)
			printSuccess("%s is valid", args[0])
			printKeyValue("Authors", strconv.Itoa(s.Nodes))
			printKeyValue("Links", strconv.Itoa(s.Links))
			printKeyValue("Groups", strconv.Itoa(s.Groups))
			printKeyValue("Papers", strconv.Itoa(s.Publications))
			printKeyValue("Hash", hash[:12])
			if s.Unnamed > 0 {
				printWarning("%d author(s) without a name show their id", s.Unnamed)
			}
			if s.Isolated > 0 {
				printDetail("%d author(s) without co-authors", s.Isolated)
			}
			return nil
		},
	}
}
