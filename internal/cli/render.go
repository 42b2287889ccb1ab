package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/internal/config"
	"github.com/matzehuels/authornet/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output       string // output file (single format), base path, or "-" for stdout
	formats      string // comma-separated output formats
	selectIDs    string // comma-separated ids to select
	focus        string // id shown in the info panel
	query        string // name filter
	ticks        int    // layout ticks before rendering
	minPapers    int    // drop authors with fewer papers (references input)
	labels       bool   // draw initials on nodes
	hideFiltered bool   // omit authors hidden by the filter
	noCache      bool   // bypass the cache
	refresh      bool   // recompute and overwrite cached entries
}

// renderCommand renders a payload or a references file to static exports.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json|references.jsonl]",
		Short: "Render a co-authorship graph to SVG, DOT or JSON",
		Long: `Render settles the layout, applies the requested selection, focus and
filter, and writes one file per format.

A .jsonl input is read as a reference list and converted to a graph first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			formats := parseFormats(opts.formats)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			if opts.output == "-" && len(formats) > 1 {
				return fmt.Errorf("cannot write %d formats to stdout", len(formats))
			}
			if !cmd.Flags().Changed("labels") {
				opts.labels = cfg.Render.Labels
			}
			if !cmd.Flags().Changed("hide-filtered") {
				opts.hideFiltered = cfg.Render.HideFiltered
			}
			if !cmd.Flags().Changed("ticks") {
				opts.ticks = cfg.Render.Ticks
			}
			return c.runRender(cmd.Context(), cfg, args[0], formats, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.selectIDs, "select", "", "author ids to select (comma-separated)")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "author id to focus")
	cmd.Flags().StringVar(&opts.query, "filter", "", "name filter")
	cmd.Flags().IntVar(&opts.ticks, "ticks", pipeline.DefaultTicks, "layout ticks before rendering")
	cmd.Flags().IntVar(&opts.minPapers, "min-papers", 0, "drop authors with fewer papers (references input)")
	cmd.Flags().BoolVar(&opts.labels, "labels", true, "draw initials on nodes")
	cmd.Flags().BoolVar(&opts.hideFiltered, "hide-filtered", false, "omit authors hidden by the filter")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached results")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg *config.Config, input string, formats []string, opts renderOpts) error {
	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Settling layout...")
	spinner.Start()
	prog := newProgress(c.Logger)

	result, err := runner.Execute(ctx, pipeline.Options{
		Input:        input,
		MinPapers:    opts.minPapers,
		Refresh:      opts.refresh,
		Layout:       cfg.Layout,
		Ticks:        opts.ticks,
		Select:       parseList(opts.selectIDs),
		Focus:        opts.focus,
		Query:        opts.query,
		Formats:      formats,
		Labels:       opts.labels,
		HideFiltered: opts.hideFiltered,
		Logger:       c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(formats)))

	base := basePath(opts.output, input)
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if filepath.Clean(path) == filepath.Clean(input) {
			path = base + ".export." + format
		}
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		if path != "-" {
			printFile(path)
		}
	}

	cached := result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, cached)
	if !pipeline.IsReferences(input) {
		printNextStep("Explore", appName+" explore "+input)
	}
	return nil
}

// basePath derives the output base from the -o flag or the input name,
// stripping a known format extension.
func basePath(output, input string) string {
	if output == "" || output == "-" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
