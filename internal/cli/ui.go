package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/electrical"
)

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// warnRating flags a set breaker rating that is not a standard size.
func warnRating(a float64) {
	if a > 0 && !electrical.IsStandardBreakerSize(a) {
		printWarning("%s is not a standard breaker rating", amps(a))
	}
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Survey Output
// =============================================================================

// printStats prints survey statistics on a single line.
func printStats(panels, breakers, findings int, cached bool) {
	parts := []string{
		plural(panels, "panel"),
		plural(breakers, "breaker"),
		plural(findings, "finding"),
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(stdout, line)
}

// printFinding prints one finding with its severity icon.
func printFinding(f compliance.Finding) {
	switch f.Severity {
	case compliance.SeverityError:
		fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+StyleError.Render(f.Message))
	case compliance.SeverityWarning:
		printWarning("%s", f.Message)
	default:
		printInfo("%s", f.Message)
	}
	if f.Suggested > 0 {
		printDetail("suggested: %d A", f.Suggested)
	}
}

// panelTable renders the per-panel load table of a report.
func panelTable(rep compliance.Report) string {
	rows := make([][]string, 0, len(rep.Panels))
	for _, p := range rep.Panels {
		rows = append(rows, []string{
			strings.Repeat("  ", p.Depth) + p.Name,
			string(p.Voltage),
			amps(p.MainBreakerAmps),
			amps(p.Load.LoadAmps),
			amps(p.Load.FeedThroughAmps),
			amps(p.Demand.Total),
			fmt.Sprintf("%d/%d", p.Spaces.Used, p.Spaces.Total),
			panelStatus(p),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Panel", "Voltage", "Main", "Load", "Feed-thru", "Demand", "Spaces", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			if col != 7 || row < 0 || row >= len(rep.Panels) {
				return lipgloss.NewStyle()
			}
			return severityStyle(compliance.Worst(rep.Panels[row].Findings))
		}).
		Render()
}

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

func panelStatus(p compliance.PanelReport) string {
	if len(p.Findings) == 0 {
		return "ok"
	}
	return compliance.Worst(p.Findings).String()
}

// printServices prints each service's capacity summary.
func printServices(rep compliance.Report) {
	for _, svc := range rep.Services {
		used := fmt.Sprintf("%d%% of %s", svc.CapacityUsedPct, amps(svc.RatingAmps))
		style := StyleSuccess
		switch {
		case svc.CapacityUsedPct > 100:
			style = StyleError
		case svc.CapacityUsedPct > 80:
			style = StyleWarning
		}
		printKeyValue(svc.Name, fmt.Sprintf("%s  %s", svc.Voltage, style.Render(used)))
		printDetail("demand %s · peak %.1f kW", amps(svc.Demand.Total), svc.Peak.Total())
	}
}

func severityStyle(s compliance.Severity) lipgloss.Style {
	switch s {
	case compliance.SeverityError:
		return StyleError
	case compliance.SeverityWarning:
		return StyleWarning
	default:
		return StyleSuccess
	}
}

// =============================================================================
// Utilities
// =============================================================================

func amps(v float64) string {
	if v == 0 {
		return "—"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " A"
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
