package cli

import (
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file (single format) or base path
	formats string // comma-separated formats
	noCache bool
	pipeline.Options
}

// renderCommand creates the render command for one-line diagrams and reports.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a survey's one-line diagram, block diagram or report",
		Long: `Render draws a survey in one or more formats:

  svg     one-line diagram
  png     one-line diagram, rasterized
  pdf     one-line diagram as a PDF page
  json    positioned layout for other renderers
  dot     nested block diagram source
  blocks  nested block diagram as SVG
  report  survey report PDF
  xlsx    panel schedule workbook
  chart   load and demand bar chart (PNG)

With a single format, -o names the output file. Otherwise -o is a base
path and each format adds its own extension.`,
		Example: `  singleline render depot.json
  singleline render depot.json -f svg,report --legend --diagram
  singleline render depot.json -f xlsx -o schedule.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.applyDiagramDefaults(cmd, &opts.Options); err != nil {
				return err
			}
			opts.Formats = parseFormats(opts.formats)
			return c.runRender(cmd, args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot, blocks, report, xlsx, chart (comma-separated)")
	f.StringVar(&opts.Title, "title", "", "diagram title")
	f.BoolVar(&opts.Legend, "legend", false, "draw the diagram legend")
	f.Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	f.BoolVar(&opts.Breakers, "breakers", false, "show breakers in the block diagram")
	f.BoolVar(&opts.Diagram, "diagram", false, "embed the one-line diagram in the report")
	f.BoolVar(&opts.Chart, "chart", false, "embed the load chart in the report")
	f.BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	cmd.ValidArgsFunction = completeSurveyArgs(1)
	return cmd
}

// applyDiagramDefaults fills unset diagram flags from the [diagram] config
// section.
func (c *CLI) applyDiagramDefaults(cmd *cobra.Command, opts *pipeline.Options) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("title") && cfg.Diagram.Title != "" {
		opts.Title = cfg.Diagram.Title
	}
	if !flags.Changed("legend") && cfg.Diagram.Legend {
		opts.Legend = true
	}
	if !flags.Changed("scale") && cfg.Diagram.Scale > 0 {
		opts.Scale = cfg.Diagram.Scale
	}
	return nil
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	s, err := loadSurvey(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering "+input)
	spin.Start()
	result, err := runner.Execute(ctx, s, opts.Options)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done("rendered", "formats", opts.Formats)

	paths := outputPaths(opts.output, input, opts.Formats)
	formats := make([]string, 0, len(paths))
	for f := range paths {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	printSuccess("Rendered %s", input)
	printStats(result.Stats.Panels, result.Stats.Breakers, result.Stats.Findings, result.CacheInfo.RenderHit)
	for _, f := range formats {
		if err := os.WriteFile(paths[f], result.Artifacts[f], 0644); err != nil {
			return err
		}
		printFile(paths[f])
	}
	if n := result.Stats.Findings; n > 0 {
		printNewline()
		printNextStep("Review "+plural(n, "finding"), "singleline check "+input)
	}
	return nil
}
