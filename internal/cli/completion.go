package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/pkg/electrical"
	"github.com/evsingleline/singleline/pkg/survey"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for singleline.

Completions cover commands and flags, charger profile ids for --profile,
and panel and breaker names read from the survey file on the command line.

Bash:
  $ source <(singleline completion bash)

Zsh:
  $ singleline completion zsh > "${fpath[1]}/_singleline"

Fish:
  $ singleline completion fish > ~/.config/fish/completions/singleline.fish

PowerShell:
  PS> singleline completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(stdout, true)
			case "zsh":
				return root.GenZshCompletion(stdout)
			case "fish":
				return root.GenFishCompletion(stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}
}

// completeProfiles completes --profile with catalog ids.
func (c *CLI) completeProfiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := c.catalog()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, p := range cat.All() {
		out = append(out, p.ID+"\t"+p.Name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeSurveyArgs completes "[file] [panel] [breaker]" positionals.
// Panel and breaker candidates come from the survey file in args[0]; maxArgs
// bounds how many positionals the command takes.
func completeSurveyArgs(maxArgs int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		switch {
		case len(args) == 0:
			return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
		case len(args) >= maxArgs:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		s, err := loadSurvey(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		if len(args) == 1 {
			return panelCandidates(s), cobra.ShellCompDirectiveNoFileComp
		}
		p, err := resolvePanel(s, args[1])
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return breakerCandidates(p), cobra.ShellCompDirectiveNoFileComp
	}
}

// panelCandidates lists unique panel names, else ids.
func panelCandidates(s survey.Survey) []string {
	count := make(map[string]int)
	for _, p := range s.Panels {
		count[p.Name]++
	}
	out := make([]string, 0, len(s.Panels))
	for _, p := range s.Panels {
		if p.Name != "" && count[p.Name] == 1 {
			out = append(out, p.Name+"\t"+string(s.EffectiveVoltage(p.ID)))
		} else {
			out = append(out, p.ID+"\t"+displayName(p.Name))
		}
	}
	return out
}

// breakerCandidates lists breaker ids described by circuit and label.
func breakerCandidates(p survey.Panel) []string {
	out := make([]string, 0, len(p.Breakers))
	for _, b := range p.Breakers {
		out = append(out, b.ID+"\t"+describeBreaker(b))
	}
	return out
}

// completePanelFlag completes a panel-valued flag from the survey in args[0].
func completePanelFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := loadSurvey(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return panelCandidates(s), cobra.ShellCompDirectiveNoFileComp
}

// completeBreakerSizes completes an amps flag with standard breaker ratings.
func completeBreakerSizes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(electrical.StandardBreakerSizes))
	for i, a := range electrical.StandardBreakerSizes {
		out[i] = strconv.Itoa(a)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
}

// completeKVASizes completes --kva with common transformer ratings.
func completeKVASizes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(electrical.StandardKVASizes))
	for i, kva := range electrical.StandardKVASizes {
		out[i] = strconv.FormatFloat(kva, 'f', -1, 64)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
}

// completeSystems completes a voltage-system flag.
func completeSystems(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(electrical.Systems))
	for i, s := range electrical.Systems {
		out[i] = strings.TrimSuffix(string(s), "V")
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
}

// completeSecondary completes --secondary with the step-down options of the
// panel's supply, falling back to every system.
func completeSecondary(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) < 2 {
		return completeSystems(cmd, args, toComplete)
	}
	s, err := loadSurvey(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	p, err := resolvePanel(s, args[1])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	opts := electrical.StepDownOptions(s.SupplyVoltage(p.ID))
	if len(opts) == 0 {
		return completeSystems(cmd, args, toComplete)
	}
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = strings.TrimSuffix(string(o), "V")
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeBreakerVoltage completes --voltage with the voltages the panel in
// args[1] can serve.
func completeBreakerVoltage(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) < 2 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := loadSurvey(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	p, err := resolvePanel(s, args[1])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, v := range electrical.LoadVoltages(s.EffectiveVoltage(p.ID)) {
		out = append(out, strconv.Itoa(v))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
