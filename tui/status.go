package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/questsim/types"
)

// displayName derives a human-readable name from an id.
// "lantern_keeper" -> "Lantern Keeper".
func displayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// adventure, outcome, scene progress and wounds of the current report,
// with its position in the panel on the right.
func (m Model) renderStatusBar() string {
	rep := m.explorer.Current()
	if rep == nil {
		return styleStatusBar.Width(m.width).Render(" No report")
	}

	outcome := string(rep.Termination.Reason)
	if rep.Termination.SceneID != "" && rep.Termination.Reason != types.ReasonCompleted {
		outcome += " at " + displayName(rep.Termination.SceneID)
	}
	left := fmt.Sprintf(" %s | %s | Scenes %d/%d | Wounds %d/%d",
		displayName(rep.Meta.AdventureID), outcome,
		rep.Summary.ScenesCompleted, rep.Summary.TotalScenes,
		rep.Player.Wounds, rep.Player.WoundsMax)

	right := fmt.Sprintf("Run %d/%d ", m.explorer.Index()+1, len(m.explorer.Reports))
	// Show the archetype too if it fits.
	if rep.Archetype != nil {
		candidate := fmt.Sprintf("%s | %s", rep.Archetype.Archetype.Name, right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
