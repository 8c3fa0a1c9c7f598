package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/survey"
)

// panelCommand creates the panel command group.
func (c *CLI) panelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Add, update or remove panels in a survey file",
		Long: `Panel edits the panels of a survey file in place.

Panels are named by id or by their unique name. A sub-panel is created
together with the feeder breaker that supplies it in the parent panel.`,
	}

	cmd.AddCommand(c.panelAddCommand())
	cmd.AddCommand(c.panelRemoveCommand())
	cmd.AddCommand(c.panelUpdateCommand())
	cmd.AddCommand(c.panelTransformerCommand())

	return cmd
}

// =============================================================================
// Panel Fields
// =============================================================================

// panelFields are the descriptive panel flags shared by add and update.
type panelFields struct {
	name     string
	location string
	make     string
	model    string
	main     float64
	bus      float64
	spaces   int
	spare    int
	proposed bool
}

func (f *panelFields) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "panel name")
	fs.StringVar(&f.location, "location", "", "panel location")
	fs.StringVar(&f.make, "make", "", "manufacturer")
	fs.StringVar(&f.model, "model", "", "model")
	fs.Float64Var(&f.main, "main", 0, "main breaker amps")
	fs.Float64Var(&f.bus, "bus", 0, "bus rating amps")
	fs.IntVar(&f.spaces, "spaces", 0, "total breaker spaces")
	fs.IntVar(&f.spare, "spare", 0, "spare spaces")
	fs.BoolVar(&f.proposed, "proposed", false, "mark the panel as new equipment")

	_ = cmd.RegisterFlagCompletionFunc("main", completeBreakerSizes)
	_ = cmd.RegisterFlagCompletionFunc("bus", completeBreakerSizes)
}

// apply copies every flag that was set on the command line onto p.
func (f *panelFields) apply(fs *pflag.FlagSet, p *survey.Panel) {
	if fs.Changed("name") {
		p.Name = f.name
	}
	if fs.Changed("location") {
		p.Location = f.location
	}
	if fs.Changed("make") {
		p.Make = f.make
	}
	if fs.Changed("model") {
		p.Model = f.model
	}
	if fs.Changed("main") {
		p.MainBreakerAmps = f.main
	}
	if fs.Changed("bus") {
		p.BusRatingAmps = f.bus
	}
	if fs.Changed("spaces") {
		p.TotalSpaces = f.spaces
	}
	if fs.Changed("spare") {
		p.SpareSpaces = f.spare
	}
	if fs.Changed("proposed") {
		p.Condition = survey.ConditionExisting
		if f.proposed {
			p.Condition = survey.ConditionNew
		}
	}
}

// =============================================================================
// Subcommands
// =============================================================================

func (c *CLI) panelAddCommand() *cobra.Command {
	var (
		parent  string
		service string
		fields  panelFields
	)

	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Add a sub-panel under --parent, or another MDP under --service",
		Example: `  singleline panel add depot.json --parent MDP --name "EV Panel" --main 225 --spaces 42
  singleline panel add depot.json --service service-1 --name "MDP B"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (parent == "") == (service == "") {
				return perrors.New(perrors.ErrCodeInvalidInput, "exactly one of --parent or --service is required")
			}
			var added survey.Panel
			_, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				var err error
				if service != "" {
					s, added, err = ed.AddRootPanel(s, service)
				} else {
					p, rerr := resolvePanel(s, parent)
					if rerr != nil {
						return s, rerr
					}
					s, added, err = ed.AddPanel(s, p.ID)
				}
				if err != nil {
					return s, err
				}
				fields.apply(cmd.Flags(), &added)
				return ed.UpdatePanel(s, added)
			})
			if err != nil {
				return err
			}
			printSuccess("Added panel %s", displayName(added.Name))
			printKeyValue("ID", added.ID)
			warnRating(added.MainBreakerAmps)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent panel id or name")
	cmd.Flags().StringVar(&service, "service", "", "service id for a new MDP")
	fields.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("parent", completePanelFlag)

	cmd.ValidArgsFunction = completeSurveyArgs(1)
	return cmd
}

func (c *CLI) panelRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [file] [panel]",
		Short: "Remove a panel with its feeder and every panel below it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			var name string
			_, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				p, err := resolvePanel(s, args[1])
				if err != nil {
					return s, err
				}
				out := ed.RemovePanel(s, p.ID)
				if len(out.Panels) == len(s.Panels) {
					return s, perrors.New(perrors.ErrCodeInvalidInput, "%s is the only panel of its service", displayName(p.Name))
				}
				removed, name = len(s.Panels)-len(out.Panels), p.Name
				return out, nil
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", displayName(name))
			if removed > 1 {
				printDetail("%s removed in total", plural(removed, "panel"))
			}
			return nil
		},
	}
	cmd.ValidArgsFunction = completeSurveyArgs(2)
	return cmd
}

func (c *CLI) panelUpdateCommand() *cobra.Command {
	var fields panelFields

	cmd := &cobra.Command{
		Use:     "update [file] [panel]",
		Short:   "Update a panel's name, ratings or spaces",
		Example: `  singleline panel update depot.json "EV Panel" --main 200 --spare 4`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var updated survey.Panel
			_, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				p, err := resolvePanel(s, args[1])
				if err != nil {
					return s, err
				}
				fields.apply(cmd.Flags(), &p)
				updated = p
				return ed.UpdatePanel(s, p)
			})
			if err != nil {
				return err
			}
			printSuccess("Updated %s", displayName(updated.Name))
			warnRating(updated.MainBreakerAmps)
			return nil
		},
	}

	fields.register(cmd)
	cmd.ValidArgsFunction = completeSurveyArgs(2)
	return cmd
}

func (c *CLI) panelTransformerCommand() *cobra.Command {
	var (
		kva       float64
		primary   string
		secondary string
		remove    bool
	)

	cmd := &cobra.Command{
		Use:   "transformer [file] [panel]",
		Short: "Set or remove the step-down transformer feeding a panel",
		Example: `  singleline panel transformer depot.json "EV Panel" --kva 75 --secondary 120/208
  singleline panel transformer depot.json "EV Panel" --remove`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var xf *survey.Transformer
			if !remove {
				if secondary == "" {
					return perrors.New(perrors.ErrCodeInvalidInput, "--secondary is required unless --remove is given")
				}
				sec, err := parseSystem("secondary", secondary)
				if err != nil {
					return err
				}
				xf = &survey.Transformer{KVA: kva, Secondary: sec}
				if primary != "" {
					if xf.Primary, err = parseSystem("primary", primary); err != nil {
						return err
					}
				}
			}

			var panelID string
			s, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				p, err := resolvePanel(s, args[1])
				if err != nil {
					return s, err
				}
				panelID = p.ID
				return ed.SetTransformer(s, p.ID, xf)
			})
			if err != nil {
				return err
			}

			p, _ := s.Panel(panelID)
			if xf == nil {
				printSuccess("Removed transformer from %s", displayName(p.Name))
				printDetail("now %s", s.EffectiveVoltage(panelID))
				return nil
			}
			t := p.Transformer
			printSuccess("%s now fed through a %g kVA transformer", displayName(p.Name), t.KVA)
			printKeyValue("Primary", string(t.Primary)+"  "+amps(roundTenth(t.PrimaryFLA())))
			printKeyValue("Secondary", string(t.Secondary)+"  "+amps(roundTenth(t.SecondaryFLA())))
			return nil
		},
	}

	cmd.Flags().Float64Var(&kva, "kva", 0, "transformer rating in kVA")
	cmd.Flags().StringVar(&primary, "primary", "", "primary voltage system (default the supply voltage)")
	cmd.Flags().StringVar(&secondary, "secondary", "", "secondary voltage system")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the transformer")
	_ = cmd.RegisterFlagCompletionFunc("kva", completeKVASizes)
	_ = cmd.RegisterFlagCompletionFunc("primary", completeSystems)
	_ = cmd.RegisterFlagCompletionFunc("secondary", completeSecondary)

	cmd.ValidArgsFunction = completeSurveyArgs(2)
	return cmd
}
