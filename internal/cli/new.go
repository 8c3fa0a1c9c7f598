package cli

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/survey"
)

// newOpts holds the flags of the new command.
type newOpts struct {
	voltage string
	service survey.ServiceEntrance
	site    survey.SiteInfo
	mdpMain float64
	force   bool
}

// newCommand creates the command that starts a survey file.
func (c *CLI) newCommand() *cobra.Command {
	var opts newOpts

	cmd := &cobra.Command{
		Use:   "new [file]",
		Short: "Start a survey with one service and its main distribution panel",
		Example: `  singleline new depot.json --voltage 277/480 --amps 800 --customer "Harbor Freight Depot"
  singleline new home.json --amps 200 --technician "R. Ortiz"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNew(args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.voltage, "voltage", "120/240", "service voltage system: 120/240, 120/208 or 277/480")
	f.Float64Var(&opts.service.Amps, "amps", 0, "service rating in amps")
	f.StringVar(&opts.service.Name, "service-name", "", "service name (default \"Service 1\")")
	f.StringVar(&opts.service.UtilityProvider, "utility", "", "utility provider")
	f.StringVar(&opts.service.MeterNumber, "meter", "", "meter number")
	f.Float64Var(&opts.mdpMain, "main", 0, "MDP main breaker amps")
	f.StringVar(&opts.site.CustomerName, "customer", "", "customer name")
	f.StringVar(&opts.site.Address, "address", "", "site street address")
	f.StringVar(&opts.site.City, "city", "", "site city")
	f.StringVar(&opts.site.State, "state", "", "site state")
	f.StringVar(&opts.site.Zip, "zip", "", "site zip code")
	f.StringVar(&opts.site.SurveyDate, "date", "", "survey date (default today)")
	f.StringVar(&opts.site.TechnicianName, "technician", "", "surveying technician")
	f.StringVar(&opts.site.Notes, "notes", "", "free-form notes")
	f.BoolVar(&opts.force, "force", false, "overwrite an existing file")
	_ = cmd.RegisterFlagCompletionFunc("voltage", completeSystems)
	_ = cmd.RegisterFlagCompletionFunc("amps", completeBreakerSizes)
	_ = cmd.RegisterFlagCompletionFunc("main", completeBreakerSizes)

	return cmd
}

func (c *CLI) runNew(path string, opts newOpts) error {
	if !opts.force {
		if _, err := os.Stat(path); err == nil {
			return perrors.New(perrors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	sys, err := parseSystem("voltage", opts.voltage)
	if err != nil {
		return err
	}
	opts.service.Voltage = sys
	if opts.site.SurveyDate == "" {
		opts.site.SurveyDate = time.Now().Format(time.DateOnly)
	}

	ed := survey.NewEditor(c.ids)
	s := ed.UpdateSiteInfo(ed.New(opts.service), opts.site)
	if opts.mdpMain > 0 {
		mdp := s.Panels[0]
		mdp.MainBreakerAmps = opts.mdpMain
		if s, err = ed.UpdatePanel(s, mdp); err != nil {
			return err
		}
	}
	if err := saveSurvey(path, s); err != nil {
		return err
	}

	svc := s.Services[0]
	printSuccess("Created %s", path)
	printKeyValue("Service", string(svc.Voltage)+"  "+amps(svc.Amps))
	printKeyValue("MDP", s.Panels[0].ID)
	printNewline()
	printNextStep("Add a sub-panel", "singleline panel add "+path+" --parent MDP --name \"EV Panel\"")
	return nil
}
