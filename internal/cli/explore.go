package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/internal/tui"
	"github.com/matzehuels/authornet/pkg/graph"
	"github.com/matzehuels/authornet/pkg/scene"
)

// exploreCommand opens the terminal explorer on a payload.
func (c *CLI) exploreCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Explore a co-authorship graph in the terminal",
		Long: `Explore opens an interactive canvas for a graph payload.

Move the pointer with the arrow keys, press space to drag or click, b to
toggle shift (and the brush), enter to start and finish a brush, / to filter
names and tab to focus the next visible author.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			g, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("loaded graph", "nodes", g.NodeCount(), "links", g.LinkCount())

			return tui.Run(cmd.Context(), g, tui.Options{
				Path:     args[0],
				Watch:    watch,
				Scene:    scene.Options{Layout: cfg.Layout, Logger: c.Logger},
				Interval: cfg.Server.TickInterval.Duration,
				Logger:   c.Logger,
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the graph when the file changes")
	return cmd
}
