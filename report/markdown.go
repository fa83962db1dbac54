package report

import (
	"fmt"
	"strings"

	"github.com/nathoo/questsim/types"
)

// Markdown renders a report for people to read.
func Markdown(rep types.SimulationReport) string {
	var b strings.Builder
	m := rep.Meta

	fmt.Fprintf(&b, "# Simulation: %s\n\n", m.AdventureID)
	fmt.Fprintf(&b, "- Run: `%s`\n", m.RunID)
	fmt.Fprintf(&b, "- Seed: `%d`\n", m.Seed)
	fmt.Fprintf(&b, "- Dice: %s, GM: %s, player: %s\n", orDash(string(m.Config.DiceMode)),
		orDash(string(m.Config.GMBehavior)), orDash(string(m.Config.PlayerBehavior)))
	if !m.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", m.FinishedAt.Sub(m.StartedAt))
	}
	b.WriteString("\n")

	t := rep.Termination
	fmt.Fprintf(&b, "## Outcome: %s\n\n", t.Reason)
	if t.Message != "" {
		fmt.Fprintf(&b, "%s", t.Message)
		if t.SceneID != "" {
			fmt.Fprintf(&b, " (scene `%s`, #%d)", t.SceneID, t.SceneIndex)
		}
		b.WriteString("\n\n")
	}

	s := rep.Summary
	b.WriteString("## Summary\n\n| | |\n|---|---|\n")
	rows := []struct {
		k string
		v any
	}{
		{"Scenes", fmt.Sprintf("%d of %d completed", s.ScenesCompleted, s.TotalScenes)},
		{"Checks", fmt.Sprintf("%d of %d passed", s.ChecksPassed, s.ChecksAttempted)},
		{"Triggers fired", s.TriggersFired},
		{"NPC interactions", s.NPCsInteracted},
		{"Wounds", fmt.Sprintf("%d (%d of %d at the end)", s.WoundsTaken, rep.Player.Wounds, rep.Player.WoundsMax)},
		{"Deaths", s.Deaths},
		{"Issues", fmt.Sprintf("%d critical, %d warnings, %d info", s.CriticalIssues, s.Warnings, s.InfoIssues)},
		{"Rolls", fmt.Sprintf("%d (%d nat 20, %d nat 1, mean %.1f)", s.Rolls, s.CriticalSuccesses, s.CriticalFailures, rep.DiceStats.Mean)},
		{"Lookups", fmt.Sprintf("%d (%d unanswered)", s.Lookups, s.LookupsFailed)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %v |\n", r.k, r.v)
	}
	b.WriteString("\n")

	if len(rep.SceneAnalyses) > 0 {
		b.WriteString("## Scenes\n\n| # | Scene | Checks | Wounds | Triggers | NPCs | Exit | Turns |\n|---|---|---|---|---|---|---|---|\n")
		for i, a := range rep.SceneAnalyses {
			exit := "yes"
			if !a.HasExitPath {
				exit = "**no**"
			}
			fmt.Fprintf(&b, "| %d | %s | %d/%d | %d | %d/%d | %d/%d | %s | %d |\n",
				i, sceneLabel(a), a.ChecksPassed, a.ChecksAttempted, a.WoundsTaken,
				a.TriggersFired, a.TriggersAvailable, a.NPCsInteracted, a.NPCsPresent, exit, a.Turns)
		}
		b.WriteString("\n")
	}

	writeCoherence(&b, rep.Coherence)

	if len(rep.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, r := range rep.Recommendations {
			fmt.Fprintf(&b, "- **%s** %s: %s", r.Priority, r.Type, r.Message)
			if len(r.Scenes) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(r.Scenes, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(rep.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, is := range rep.Issues {
			fmt.Fprintf(&b, "- [%s] `%s`", is.Severity, is.Type)
			if is.SceneID != "" {
				fmt.Fprintf(&b, " in `%s`", is.SceneID)
			}
			fmt.Fprintf(&b, ": %s\n", is.Message)
		}
		b.WriteString("\n")
	}

	if ar := rep.Archetype; ar != nil {
		fmt.Fprintf(&b, "## Archetype: %s\n\n", ar.Archetype.Name)
		fmt.Fprintf(&b, "%d questions asked, %d unanswered. %d creative actions, %d unhandled.\n\n",
			ar.QuestionsAsked, ar.QuestionsFailed, ar.CreativeActions, ar.Unhandled)
	}
	if gv := rep.GMValidated; gv != nil {
		vs := gv.Summary
		fmt.Fprintf(&b, "### GM review\n\n%d critiques: %d valid, %d intentional, %d GM discretion, %d false positives.\n\n",
			vs.Total, vs.ValidIssues, vs.IntentionalDesign, vs.GMDiscretion, vs.FalsePositive)
		writeFeedback(&b, "Valid issues", gv.ValidIssues)
		writeFeedback(&b, "Intentional design", gv.IntentionalDesign)
		writeFeedback(&b, "GM discretion", gv.GMDiscretion)
		writeFeedback(&b, "False positives", gv.FalsePositives)
	}

	return b.String()
}

func writeCoherence(b *strings.Builder, c types.CoherenceAnalysis) {
	b.WriteString("## Coherence\n\n")
	fmt.Fprintf(b, "- Breadcrumbs: %s (%d of %d transitions signposted)\n",
		orDash(string(c.Breadcrumbs.Strength)), c.Breadcrumbs.StrongPairs, c.Breadcrumbs.Pairs)
	fmt.Fprintf(b, "- Pacing: %d/100 (action %.0f%%, social %.0f%%, exploration %.0f%%)\n",
		c.Pacing.Score, c.Pacing.Action*100, c.Pacing.Social*100, c.Pacing.Exploration*100)
	fmt.Fprintf(b, "- References: %d forward, %d backward\n", len(c.ForwardReferences), len(c.BackwardReferences))
	if len(c.DeadEndScenes) > 0 {
		fmt.Fprintf(b, "- Dead ends: %s\n", strings.Join(c.DeadEndScenes, ", "))
	}
	for _, ci := range c.NPCContinuity {
		fmt.Fprintf(b, "- Continuity: %s\n", ci.Message)
	}
	for _, g := range c.InformationGaps {
		fmt.Fprintf(b, "- Gap in `%s`: %s\n", g.SceneID, g.Message)
	}
	b.WriteString("\n")
}

func writeFeedback(b *strings.Builder, title string, fb []types.ArchetypeFeedback) {
	if len(fb) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", title)
	for _, f := range fb {
		fmt.Fprintf(b, "- `%s` %s: %s", f.SceneID, f.Type, f.Description)
		if v := f.Validation; v != nil && v.Status != types.StatusValidIssue {
			fmt.Fprintf(b, " _(%s: %s)_", v.Status, v.Reasoning)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func sceneLabel(a types.SceneAnalysis) string {
	if a.Title == "" || a.Title == a.ID {
		return a.ID
	}
	return fmt.Sprintf("%s (%s)", a.Title, a.ID)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
