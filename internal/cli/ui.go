package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/router"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - leads, primary actions
	colorGreen  = lipgloss.Color("35")  // Copper green - traces, success
	colorYellow = lipgloss.Color("220") // Amber - picks, warnings
	colorRed    = lipgloss.Color("167") // Soft red - failed connections
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - vias, secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - free cells, muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for paths and addresses.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	StyleError   = lipgloss.NewStyle().Foreground(colorRed)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleRouted  = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

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
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written artifact path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value in a fixed-width key column.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Routing Output
// =============================================================================

// boardLine summarizes the size and population of a board.
func boardLine(snap *router.Snapshot) string {
	parts := []string{
		fmt.Sprintf("%dx%d cells", snap.Width, snap.Height),
		fmt.Sprintf("%d leads", len(snap.Leads)),
	}
	if len(snap.Vias) > 0 {
		parts = append(parts, fmt.Sprintf("%d vias", len(snap.Vias)))
	}
	parts = append(parts, fmt.Sprintf("%d nets", len(snap.Nets)))
	return joinDim(parts)
}

// statsLine summarizes one routing run.
func statsLine(routed, already, failed int, cached bool) string {
	parts := []string{fmt.Sprintf("%d routed", routed)}
	if already > 0 {
		parts = append(parts, fmt.Sprintf("%d already connected", already))
	}
	if failed > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d failed", failed)))
	}
	if cached {
		parts = append(parts, styleCached.Render(iconCached))
	} else {
		parts = append(parts, styleRouted.Render(iconFresh))
	}
	return joinDim(parts)
}

func joinDim(parts []string) string {
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

func printStats(routed, already, failed int, cached bool) {
	fmt.Println(statsLine(routed, already, failed, cached))
}

// failureLine describes a connection that could not be routed.
func failureLine(snap *router.Snapshot, o router.Outcome) string {
	from, to := leadName(snap, o.Start), leadName(snap, o.End)
	return fmt.Sprintf("%s %s %s: %s (%s)", from, iconArrow, to, errors.UserMessage(o.Err), errors.GetCode(o.Err))
}
