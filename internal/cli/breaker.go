package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/evsingleline/singleline/pkg/electrical"
	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/profile"
	"github.com/evsingleline/singleline/pkg/survey"
)

// breakerCommand creates the breaker command group.
func (c *CLI) breakerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breaker",
		Short: "Add, update or remove breakers in a survey file",
		Long: `Breaker edits the breakers of one panel in place.

Breakers are named by id, circuit number or unique label. Feeder breakers
are created with their sub-panel by "panel add"; removing one removes the
sub-panel below it.`,
	}

	cmd.AddCommand(c.breakerAddCommand())
	cmd.AddCommand(c.breakerRemoveCommand())
	cmd.AddCommand(c.breakerUpdateCommand())

	return cmd
}

// =============================================================================
// Breaker Fields
// =============================================================================

// breakerFields are the breaker flags shared by add and update.
type breakerFields struct {
	label      string
	amps       float64
	voltage    int
	circuit    string
	continuous bool
	proposed   bool

	level       string
	chargerAmps float64
	ports       int
	wireRun     float64
	wireSize    string
	conduit     string
	install     string
}

func (f *breakerFields) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.label, "label", "", "circuit label")
	fs.Float64Var(&f.amps, "amps", 0, "breaker rating in amps")
	fs.IntVar(&f.voltage, "voltage", 0, "breaker voltage (default from the panel and charger level)")
	fs.StringVar(&f.circuit, "circuit", "", "circuit number, e.g. 7 or 7,9 (default next free)")
	fs.BoolVar(&f.continuous, "continuous", false, "continuous load (EV chargers always are)")
	fs.BoolVar(&f.proposed, "proposed", false, "mark the breaker as new equipment")

	fs.StringVar(&f.level, "level", "", "EV charger level: 1, 2 or 3")
	fs.Float64Var(&f.chargerAmps, "charger-amps", 0, "EV charger continuous amps")
	fs.IntVar(&f.ports, "ports", 0, "EV charger ports")
	fs.Float64Var(&f.wireRun, "wire-run", 0, "EV wire run in feet")
	fs.StringVar(&f.wireSize, "wire-size", "", "EV conductor size")
	fs.StringVar(&f.conduit, "conduit", "", "EV conduit type")
	fs.StringVar(&f.install, "install-location", "", "EV charger install location")

	_ = cmd.RegisterFlagCompletionFunc("amps", completeBreakerSizes)
	_ = cmd.RegisterFlagCompletionFunc("voltage", completeBreakerVoltage)
	_ = cmd.RegisterFlagCompletionFunc("level", cobra.FixedCompletions([]string{"1", "2", "3"}, cobra.ShellCompDirectiveNoFileComp))
}

// apply copies every flag set on the command line onto b. sys is the
// panel's effective voltage, used to re-derive an EV breaker's voltage when
// only its level changes.
func (f *breakerFields) apply(fs *pflag.FlagSet, b *survey.Breaker, sys electrical.System) error {
	if fs.Changed("label") {
		b.Label = f.label
	}
	if fs.Changed("amps") {
		b.Amps = f.amps
	}
	if fs.Changed("circuit") {
		b.CircuitNumber = f.circuit
	}
	if fs.Changed("continuous") {
		b.LoadType = survey.LoadNonContinuous
		if f.continuous {
			b.LoadType = survey.LoadContinuous
		}
	}
	if fs.Changed("proposed") {
		b.Condition = survey.ConditionExisting
		if f.proposed {
			b.Condition = survey.ConditionNew
		}
	}

	if b.Kind != survey.KindEVCharger {
		for _, name := range []string{"level", "charger-amps", "ports", "wire-run", "wire-size", "conduit", "install-location"} {
			if fs.Changed(name) {
				return perrors.New(perrors.ErrCodeInvalidInput, "--%s applies to EV charger breakers only", name)
			}
		}
	} else {
		ch := survey.Charger{}
		if b.Charger != nil {
			ch = *b.Charger
		}
		if fs.Changed("level") {
			lvl, err := parseLevel(f.level)
			if err != nil {
				return err
			}
			ch.Level = lvl
			if !fs.Changed("voltage") {
				b.Voltage = electrical.ChargerVoltage(lvl, sys)
			}
		}
		if fs.Changed("charger-amps") {
			ch.Amps = f.chargerAmps
		}
		if fs.Changed("ports") {
			ch.Ports = f.ports
		}
		if fs.Changed("wire-run") {
			ch.WireRunFeet = f.wireRun
		}
		if fs.Changed("wire-size") {
			ch.WireSize = f.wireSize
		}
		if fs.Changed("conduit") {
			ch.ConduitType = f.conduit
		}
		if fs.Changed("install-location") {
			ch.InstallLocation = f.install
		}
		b.Charger = &ch
	}

	if fs.Changed("voltage") {
		b.Voltage = f.voltage
	}
	return nil
}

// =============================================================================
// Subcommands
// =============================================================================

func (c *CLI) breakerAddCommand() *cobra.Command {
	var (
		ev        bool
		profileID string
		fields    breakerFields
	)

	cmd := &cobra.Command{
		Use:   "add [file] [panel]",
		Short: "Add a load or EV charger breaker to a panel",
		Example: `  singleline breaker add depot.json MDP --label "Lighting" --amps 20
  singleline breaker add depot.json "EV Panel" --ev --charger-amps 48 --amps 60
  singleline breaker add depot.json "EV Panel" --profile ac50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prof *profile.Profile
			if profileID != "" {
				cat, err := c.catalog()
				if err != nil {
					return err
				}
				p, err := cat.Get(profileID)
				if err != nil {
					return perrors.Wrap(perrors.ErrCodeNotFound, err, "--profile")
				}
				prof, ev = &p, true
			}

			var added survey.Breaker
			var panelName string
			_, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				p, err := resolvePanel(s, args[1])
				if err != nil {
					return s, err
				}
				panelName = p.Name
				sys := s.EffectiveVoltage(p.ID)

				if !ev {
					b := survey.Breaker{Kind: survey.KindLoad}
					if err := fields.apply(cmd.Flags(), &b, sys); err != nil {
						return s, err
					}
					s, added, err = ed.AddBreaker(s, p.ID, b)
					return s, err
				}

				s, added, err = ed.AddEVCharger(s, p.ID, prof)
				if err != nil {
					return s, err
				}
				if err := fields.apply(cmd.Flags(), &added, sys); err != nil {
					return s, err
				}
				return ed.UpdateBreaker(s, p.ID, added)
			})
			if err != nil {
				return err
			}

			printSuccess("Added %s to %s", describeBreaker(added), displayName(panelName))
			printKeyValue("ID", added.ID)
			warnRating(added.Amps)
			if added.Kind == survey.KindEVCharger && added.Amps == 0 {
				printNextStep("Set the breaker rating", "singleline breaker update "+args[0]+" \""+args[1]+"\" "+added.ID+" --amps N")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ev, "ev", false, "add an EV charger breaker")
	cmd.Flags().StringVar(&profileID, "profile", "", "charger profile id (implies --ev; see \"singleline profiles\")")
	fields.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("profile", c.completeProfiles)

	cmd.ValidArgsFunction = completeSurveyArgs(2)
	return cmd
}

func (c *CLI) breakerRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [file] [panel] [breaker]",
		Short: "Remove a breaker; removing a feeder removes its sub-panel",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed survey.Breaker
			_, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				p, err := resolvePanel(s, args[1])
				if err != nil {
					return s, err
				}
				if removed, err = resolveBreaker(p, args[2]); err != nil {
					return s, err
				}
				return ed.RemoveBreaker(s, p.ID, removed.ID)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", describeBreaker(removed))
			if removed.Kind == survey.KindSubpanel {
				printDetail("sub-panel %s and everything below it removed", displayName(removed.Label))
			}
			return nil
		},
	}
	cmd.ValidArgsFunction = completeSurveyArgs(3)
	return cmd
}

func (c *CLI) breakerUpdateCommand() *cobra.Command {
	var fields breakerFields

	cmd := &cobra.Command{
		Use:     "update [file] [panel] [breaker]",
		Short:   "Update a breaker's rating, label, circuit or charger details",
		Example: `  singleline breaker update depot.json "EV Panel" 3,5 --amps 60 --charger-amps 48`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var updated survey.Breaker
			_, err := c.editSurvey(args[0], func(s survey.Survey, ed *survey.Editor) (survey.Survey, error) {
				p, err := resolvePanel(s, args[1])
				if err != nil {
					return s, err
				}
				b, err := resolveBreaker(p, args[2])
				if err != nil {
					return s, err
				}
				if err := fields.apply(cmd.Flags(), &b, s.EffectiveVoltage(p.ID)); err != nil {
					return s, err
				}
				updated = b
				return ed.UpdateBreaker(s, p.ID, b)
			})
			if err != nil {
				return err
			}
			printSuccess("Updated %s", describeBreaker(updated))
			warnRating(updated.Amps)
			return nil
		},
	}

	fields.register(cmd)
	cmd.ValidArgsFunction = completeSurveyArgs(3)
	return cmd
}
