package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/pkg/profile"
)

// profilesCommand lists the charger-profile catalog.
func (c *CLI) profilesCommand() *cobra.Command {
	var (
		level  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the charger profiles available to \"breaker add --profile\"",
		Long: `Profiles lists the built-in charger profiles plus any catalog files named
under [profiles] in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			list := cat.All()
			if level != "" {
				lvl, err := parseLevel(level)
				if err != nil {
					return err
				}
				list = cat.ForLevel(lvl)
			}

			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			fmt.Fprintln(stdout, profileTable(list))
			printDetail("%s", plural(len(list), "profile"))
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "only list chargers of this level: 1, 2 or 3")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profiles as JSON")

	return cmd
}

func profileTable(list []profile.Profile) string {
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Level.Label(),
			amps(p.ChargerAmps),
			strconv.Itoa(p.Ports),
			kilowatts(p.OutputKW),
			strconv.Itoa(p.BreakerAmps()) + " A",
			p.RecommendedConductor,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Level", "Charger", "Ports", "Output", "Breaker", "Conductor").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return styleHeader
			case col == 0:
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func kilowatts(v float64) string {
	if v == 0 {
		return "—"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " kW"
}
