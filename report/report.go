// Package report turns a finished run into a SimulationReport, derives its
// summary, and reads and writes reports as JSON and Markdown.
package report

import (
	"github.com/nathoo/questsim/analysis/coherence"
	"github.com/nathoo/questsim/analysis/gmvalidator"
	"github.com/nathoo/questsim/engine"
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// Generator builds reports from run traces.
type Generator struct {
	// Matcher is shared with the coherence analyzer and the GM validator.
	// Nil uses rules.Default().
	Matcher *rules.Matcher
}

// Build assembles the report for one run. Coherence analysis always runs;
// the archetype report and GM validation only when the run had an
// archetype.
func (g Generator) Build(tr *engine.Trace) types.SimulationReport {
	m := g.Matcher
	if m == nil {
		m = rules.Default()
	}

	rep := types.SimulationReport{
		Meta: types.ReportMeta{
			RunID:       tr.RunID,
			AdventureID: tr.AdventureID,
			Config:      tr.Config,
			Seed:        tr.Seed,
			StartedAt:   tr.StartedAt,
			FinishedAt:  tr.FinishedAt,
			TotalScenes: len(tr.Selected),
			RNGDraws:    tr.Draws,
		},
		Termination:   tr.Termination,
		Player:        tr.Player,
		NPCs:          nonNil(tr.NPCs),
		SceneAnalyses: nonNil(tr.Analyses),
		DiceStats:     tr.Dice,
		Lookups:       nonNil(tr.Lookups),
		Events:        nonNil(tr.Events),
		Issues:        nonNil(tr.Issues),
	}
	if rep.DiceStats.Rolls == nil {
		rep.DiceStats.Rolls = []int{}
	}

	rep.Coherence = coherence.AnalyzeWith(m, tr.Scenes, rep.SceneAnalyses)
	rep.Recommendations = nonNil(rep.Coherence.Recommendations)

	if tr.Archetype != nil {
		ids := make([]string, len(tr.Scenes))
		for i, s := range tr.Scenes {
			ids[i] = s.ID
		}
		v := gmvalidator.New(gmvalidator.BuildKnowledge(tr.Guide), ids, m)
		annotated := v.Annotate(tr.Feedback)
		validated := gmvalidator.Partition(annotated)

		ar := &types.ArchetypeReport{
			Archetype:       *tr.Archetype,
			CreativeActions: tr.CreativeActions,
			Unhandled:       tr.Unhandled,
			Feedback:        annotated,
		}
		for _, l := range rep.Lookups {
			ar.QuestionsAsked++
			if !l.Found {
				ar.QuestionsFailed++
			}
		}
		rep.Archetype = ar
		rep.GMValidated = &validated
	}

	rep.Summary = Summarize(rep)
	return rep
}

// Summarize derives the summary counters from the report's scene analyses,
// issues, dice stats and lookups. It never reads the summary it replaces,
// so a loaded report can be re-summarized and compared.
func Summarize(rep types.SimulationReport) types.Summary {
	s := types.Summary{
		TotalScenes:       rep.Meta.TotalScenes,
		ScenesStarted:     len(rep.SceneAnalyses),
		Rolls:             rep.DiceStats.Count,
		CriticalSuccesses: rep.DiceStats.CriticalSuccesses,
		CriticalFailures:  rep.DiceStats.CriticalFailures,
		Lookups:           len(rep.Lookups),
	}
	for _, a := range rep.SceneAnalyses {
		if a.Completed {
			s.ScenesCompleted++
		}
		s.ChecksAttempted += a.ChecksAttempted
		s.ChecksPassed += a.ChecksPassed
		s.TriggersFired += a.TriggersFired
		s.NPCsInteracted += a.NPCsInteracted
		s.WoundsTaken += a.WoundsTaken
	}
	for _, is := range rep.Issues {
		switch is.Severity {
		case types.IssueCritical:
			s.CriticalIssues++
		case types.IssueWarning:
			s.Warnings++
		case types.IssueInfo:
			s.InfoIssues++
		}
		if is.Type == engine.IssuePlayerDeath {
			s.Deaths++
		}
	}
	for _, l := range rep.Lookups {
		if !l.Found {
			s.LookupsFailed++
		}
	}
	return s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
