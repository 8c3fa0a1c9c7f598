package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/pkg/compliance"
	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/survey"
)

// checkOpts holds the flags of the check command.
type checkOpts struct {
	json    bool
	strict  bool
	noCache bool
}

// checkCommand creates the command that prints the compliance report.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOpts

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check a survey's panels, feeders, transformers and service capacity",
		Long: `Check runs the NEC sizing checks against a survey and prints each panel's
load, demand and space use followed by every finding.

Findings are advisory. The command fails only with --strict, and only when
at least one finding is an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when any finding is an error")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	cmd.ValidArgsFunction = completeSurveyArgs(1)
	return cmd
}

func (c *CLI) runCheck(cmd *cobra.Command, path string, opts checkOpts) error {
	ctx := cmd.Context()
	s, err := loadSurvey(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	rep, cached, err := runner.AnalyzeWithCacheInfo(ctx, s, pipeline.Options{})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printReport(path, s, rep, cached)
	}

	if n := rep.Count(compliance.SeverityError); opts.strict && n > 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "%s has %s", path, plural(n, "error"))
	}
	return nil
}

// printReport prints the human-readable compliance report.
func printReport(path string, s survey.Survey, rep compliance.Report, cached bool) {
	title := path
	if s.SiteInfo.CustomerName != "" {
		title = s.SiteInfo.CustomerName
	}
	fmt.Fprintln(stdout, StyleTitle.Render(title))
	printStats(len(s.Panels), len(s.Breakers()), len(rep.Findings), cached)
	printNewline()

	fmt.Fprintln(stdout, panelTable(rep))
	printNewline()
	printServices(rep)
	printNewline()

	if len(rep.Findings) == 0 {
		printSuccess("No findings")
		return
	}
	for _, f := range rep.Findings {
		printFinding(f)
	}
	printNewline()
	printKeyValue("Errors", fmt.Sprint(rep.Count(compliance.SeverityError)))
	printKeyValue("Warnings", fmt.Sprint(rep.Count(compliance.SeverityWarning)))
}
