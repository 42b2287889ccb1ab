package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/pkg/coauthor"
	"github.com/matzehuels/authornet/pkg/graph"
)

// coauthorCommand converts a reference list into a graph payload.
func (c *CLI) coauthorCommand() *cobra.Command {
	var (
		output    string
		minPapers int
	)

	cmd := &cobra.Command{
		Use:   "coauthor [references.jsonl]",
		Short: "Build a co-authorship graph from a reference list",
		Long: `Coauthor reads one paper per line and writes a graph payload in which
every author is a node and every pair of co-authors is a link weighted by the
number of shared papers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog := newProgress(c.Logger)
			refs, err := coauthor.ReadFile(args[0])
			if err != nil {
				return err
			}
			g := coauthor.Build(refs, coauthor.Options{MinPapers: minPapers})
			prog.done("Built graph from " + args[0])

			if output == "" {
				output = basePath("", args[0]) + ".json"
			}
			out, err := openOutput(output)
			if err != nil {
				return err
			}
			if err := graph.Write(g, out); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			if output == "-" {
				return nil
			}

			printSuccess("Built graph from %d references", len(refs))
			printFile(output)
			printStats(g.NodeCount(), g.LinkCount(), false)
			if g.LinkCount() == 0 {
				printWarning("no co-authored papers; the explorer needs at least one link")
			}
			printNextStep("Explore", appName+" explore "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout (default: input name with .json)")
	cmd.Flags().IntVar(&minPapers, "min-papers", 0, "drop authors with fewer papers")
	return cmd
}
