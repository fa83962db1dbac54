package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	stylePlain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleCritical = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleGood = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindPlain lineKind = iota
	kindHeading
	kindCritical
	kindWarning
	kindGood
	kindMuted
	kindSystem
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[critical]"), strings.HasPrefix(line, "(high)"):
		return kindCritical
	case strings.HasPrefix(line, "[warning]"), strings.HasPrefix(line, "(medium)"):
		return kindWarning
	case strings.HasPrefix(line, "[info]"), strings.HasPrefix(line, "(low)"):
		return kindMuted
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "== ") && strings.HasSuffix(line, " =="):
		return kindHeading
	case strings.HasPrefix(line, "Outcome: completed"):
		return kindGood
	case strings.HasPrefix(line, "Outcome:"):
		return kindCritical
	default:
		return kindPlain
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeading:
		return styleHeading.Render(line)
	case kindCritical:
		return styleCritical.Render(line)
	case kindWarning:
		return styleWarning.Render(line)
	case kindGood:
		return styleGood.Render(line)
	case kindMuted:
		return styleMuted.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	default:
		return stylePlain.Render(line)
	}
}

// styledSystemMsg renders meta-command output in gray, bracketed unless
// the explorer already bracketed it.
func styledSystemMsg(text string) string {
	if !strings.HasPrefix(text, "[") {
		text = "[" + text + "]"
	}
	return styleSystem.Render(text)
}
