package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/survey"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// browseCommand opens the interactive panel browser.
func (c *CLI) browseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Browse a survey's panel tree with loads, breakers and findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := loadSurvey(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()
			rep, err := runner.Analyze(ctx, s, pipeline.Options{})
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(NewBrowseModel(s, rep), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.ValidArgsFunction = completeSurveyArgs(1)
	return cmd
}

// =============================================================================
// BrowseModel - Interactive panel tree
// =============================================================================

// browseRow is one panel in tree order.
type browseRow struct {
	panel  survey.Panel
	depth  int
	report compliance.PanelReport
}

// BrowseModel is the bubbletea model for the panel browser. The left pane
// lists panels in tree order; the right pane shows the selected panel.
type BrowseModel struct {
	Survey   survey.Survey
	Report   compliance.Report
	Cursor   int
	Offset   int
	Height   int
	Breakers bool // right pane shows the breaker schedule instead of the summary

	rows []browseRow
}

// NewBrowseModel creates a browser over s and its report.
func NewBrowseModel(s survey.Survey, rep compliance.Report) BrowseModel {
	m := BrowseModel{Survey: s, Report: rep, Height: 15}
	s.Walk(func(p survey.Panel, depth int) {
		pr, _ := rep.Panel(p.ID)
		m.rows = append(m.rows, browseRow{panel: p, depth: depth, report: pr})
	})
	return m
}

// Selected returns the panel under the cursor.
func (m BrowseModel) Selected() (survey.Panel, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return survey.Panel{}, false
	}
	return m.rows[m.Cursor].panel, true
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "tab", "b":
			m.Breakers = !m.Breakers
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	title := m.Survey.SiteInfo.CustomerName
	if title == "" {
		title = "Survey"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab breakers/summary  q quit"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.treeView(), "  ", m.detailView()))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))
	return b.String()
}

func (m BrowseModel) treeView() string {
	var b strings.Builder
	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := severityStyle(compliance.Worst(r.report.Findings)).Render("●")
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", r.depth), marker, displayName(r.panel.Name))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowseModel) detailView() string {
	if m.Cursor >= len(m.rows) {
		return ""
	}
	r := m.rows[m.Cursor]
	if m.Breakers {
		return detailBoxStyle.Render(breakerTable(r.panel))
	}

	var b strings.Builder
	b.WriteString(StyleHighlight.Render(displayName(r.panel.Name)))
	b.WriteString("\n")
	kv := func(k, v string) {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%-12s", k)) + " " + v + "\n")
	}
	kv("Voltage", string(r.report.Voltage))
	kv("Main", amps(r.panel.MainBreakerAmps))
	kv("Load", amps(r.report.Load.LoadAmps))
	kv("EV", amps(r.report.Load.EVAmps))
	kv("Feed-thru", amps(r.report.Load.FeedThroughAmps))
	kv("Demand", amps(r.report.Demand.Total))
	kv("Peak", fmt.Sprintf("%.1f kW", r.report.Peak.Total()))
	kv("Spaces", fmt.Sprintf("%d used, %d spare of %d", r.report.Spaces.Used, r.report.Spaces.Spare, r.report.Spaces.Total))
	if t := r.report.Transformer; t != nil {
		kv("Transformer", fmt.Sprintf("%g kVA %s → %s", t.KVA, t.Primary, t.Secondary))
	}
	if len(r.report.Findings) > 0 {
		b.WriteString("\n")
		for _, f := range r.report.Findings {
			b.WriteString(severityStyle(f.Severity).Render("● ") + f.Message + "\n")
		}
	}
	return detailBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// breakerTable renders a panel's breaker schedule.
func breakerTable(p survey.Panel) string {
	rows := make([][]string, 0, len(p.Breakers))
	for _, br := range p.Breakers {
		label := br.Label
		if label == "" {
			label = br.Kind.Label()
		}
		rows = append(rows, []string{br.CircuitNumber, label, amps(br.Amps), fmt.Sprintf("%d V", br.Voltage), br.Kind.Label()})
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("Ckt", "Label", "Amps", "Volts", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
