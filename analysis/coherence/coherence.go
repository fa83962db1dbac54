// Package coherence analyzes the structure of an adventure after a run:
// how well scenes lead into each other, whether NPCs stay consistent,
// where GM-facing text is missing and how the scene mix is paced.
//
// Analysis is a pure function of the scene list and the run's scene
// analyses. Calling it twice on the same input yields the same result.
package coherence

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// Ideal pacing split.
const (
	IdealAction      = 0.3
	IdealSocial      = 0.4
	IdealExploration = 0.3
)

// Thresholds for the scene aggregates.
const (
	// LowPassRate flags scenes passing fewer checks than this fraction.
	LowPassRate = 0.5
	// MinChecksForPassRate is how many checks a scene needs before its
	// pass rate means anything.
	MinChecksForPassRate = 2
	// HighWounds flags scenes that dealt at least this many wounds.
	HighWounds = 2
	// PacingTarget is the score below which pacing is worth a note.
	PacingTarget = 60
)

// Analyze runs every structural check with the default matcher.
func Analyze(scenes []types.Scene, analyses []types.SceneAnalysis) types.CoherenceAnalysis {
	return AnalyzeWith(rules.Default(), scenes, analyses)
}

// AnalyzeWith runs every structural check. m classifies combat challenges
// for pacing. scenes must be in content order.
func AnalyzeWith(m *rules.Matcher, scenes []types.Scene, analyses []types.SceneAnalysis) types.CoherenceAnalysis {
	ca := types.CoherenceAnalysis{
		Breadcrumbs:       Breadcrumbs(scenes),
		NPCContinuity:     NPCContinuity(scenes),
		InformationGaps:   InformationGaps(scenes),
		Pacing:            Pacing(m, scenes),
		DeadEndScenes:     deadEnds(analyses),
		LowPassRateScenes: lowPassRate(analyses),
		HighWoundScenes:   highWounds(analyses),
	}
	ca.ForwardReferences, ca.BackwardReferences = References(scenes)
	ca.Recommendations = Recommend(ca)
	return ca
}

// Breadcrumbs rates every adjacent pair. A pair is strong when the earlier
// scene's narrative names the next scene's location or the earlier scene
// has explicit exits, and weak when only a next-scene pointer links them.
func Breadcrumbs(scenes []types.Scene) types.Breadcrumbs {
	var b types.Breadcrumbs
	for i := 0; i+1 < len(scenes); i++ {
		cur, next := scenes[i], scenes[i+1]
		b.Pairs++
		switch {
		case len(cur.Exits) > 0 || mentions(cur.Narrative, next.Location):
			b.StrongPairs++
		case cur.NextScene != "":
			b.WeakPairs++
		}
	}
	if b.Pairs > 0 {
		b.Ratio = float64(b.StrongPairs) / float64(b.Pairs)
	}

	switch {
	case b.Ratio > 0.7:
		b.Strength = types.BreadcrumbStrong
	case b.Ratio > 0.4:
		b.Strength = types.BreadcrumbMedium
	case b.Ratio > 0.1 || b.WeakPairs > 0:
		b.Strength = types.BreadcrumbWeak
	default:
		b.Strength = types.BreadcrumbNone
	}
	return b
}

// References finds every scene whose narrative names another scene's
// location. A mention of a later scene is a forward reference, of an
// earlier one a backward reference.
func References(scenes []types.Scene) (forward, backward []types.SceneReference) {
	for i, from := range scenes {
		for j, to := range scenes {
			if i == j || to.Location == "" || !mentions(from.Narrative, to.Location) {
				continue
			}
			ref := types.SceneReference{FromScene: from.ID, ToScene: to.ID, Location: to.Location}
			if j > i {
				forward = append(forward, ref)
			} else {
				backward = append(backward, ref)
			}
		}
	}
	return forward, backward
}

// NPCContinuity walks the scenes in order tracking each NPC's last authored
// state. defeated -> active is a hard issue, absent -> active a soft one.
func NPCContinuity(scenes []types.Scene) []types.ContinuityIssue {
	type seen struct {
		state types.NPCState
		scene string
	}
	last := map[string]seen{}

	var out []types.ContinuityIssue
	for _, s := range scenes {
		for _, n := range s.NPCs {
			st := n.State
			if st == "" {
				st = types.NPCActive
			}
			prev, ok := last[n.ID]
			last[n.ID] = seen{state: st, scene: s.ID}
			if !ok || st != types.NPCActive {
				continue
			}

			issue := types.ContinuityIssue{
				NPCID:     n.ID,
				FromScene: prev.scene,
				ToScene:   s.ID,
				FromState: prev.state,
				ToState:   st,
			}
			switch prev.state {
			case types.NPCDefeated:
				issue.Hard = true
				issue.Message = fmt.Sprintf("%s is defeated in %s but active in %s", n.ID, prev.scene, s.ID)
			case types.NPCAbsent:
				issue.Message = fmt.Sprintf("%s is absent in %s and active again in %s; verify this is intentional", n.ID, prev.scene, s.ID)
			default:
				continue
			}
			out = append(out, issue)
		}
	}
	return out
}

// InformationGaps lists hidden challenges without a GM description and
// irreversible triggers without narrative text.
func InformationGaps(scenes []types.Scene) []types.InformationGap {
	var out []types.InformationGap
	for _, s := range scenes {
		for _, ch := range s.Challenges {
			if ch.Type == types.ChallengeHidden && strings.TrimSpace(ch.GMDescription) == "" {
				out = append(out, types.InformationGap{
					SceneID:   s.ID,
					ElementID: ch.ID,
					Kind:      "hidden_challenge",
					Message:   fmt.Sprintf("hidden challenge %s has no GM description", ch.ID),
				})
			}
		}
		for _, tr := range s.Triggers {
			if tr.Irreversible && strings.TrimSpace(tr.Text) == "" {
				out = append(out, types.InformationGap{
					SceneID:   s.ID,
					ElementID: tr.ID,
					Kind:      "irreversible_trigger",
					Message:   fmt.Sprintf("irreversible trigger %s has no narrative text", tr.ID),
				})
			}
		}
	}
	return out
}

// Pacing classifies each scene as action (any combat challenge), social
// (any NPC) or exploration, and scores the mix against the ideal split:
// 100 - 200 x mean absolute deviation, floored at 0.
func Pacing(m *rules.Matcher, scenes []types.Scene) types.Pacing {
	var action, social, explore int
	for _, s := range scenes {
		switch {
		case hasCombat(m, s):
			action++
		case len(s.NPCs) > 0:
			social++
		default:
			explore++
		}
	}

	var p types.Pacing
	if n := float64(len(scenes)); n > 0 {
		p.Action = float64(action) / n
		p.Social = float64(social) / n
		p.Exploration = float64(explore) / n
	}
	mad := (math.Abs(p.Action-IdealAction) + math.Abs(p.Social-IdealSocial) + math.Abs(p.Exploration-IdealExploration)) / 3
	p.Score = max(0, int(math.Round(100-200*mad)))
	return p
}

func hasCombat(m *rules.Matcher, s types.Scene) bool {
	for _, ch := range s.Challenges {
		if m.IsCombat(ch) {
			return true
		}
	}
	return false
}

func deadEnds(analyses []types.SceneAnalysis) []string {
	return collect(analyses, func(a types.SceneAnalysis) bool { return !a.HasExitPath })
}

func lowPassRate(analyses []types.SceneAnalysis) []string {
	return collect(analyses, func(a types.SceneAnalysis) bool {
		return a.ChecksAttempted >= MinChecksForPassRate &&
			float64(a.ChecksPassed)/float64(a.ChecksAttempted) < LowPassRate
	})
}

func highWounds(analyses []types.SceneAnalysis) []string {
	return collect(analyses, func(a types.SceneAnalysis) bool { return a.WoundsTaken >= HighWounds })
}

// collect returns the ids of matching analyses, each once, in run order.
func collect(analyses []types.SceneAnalysis, keep func(types.SceneAnalysis) bool) []string {
	var out []string
	seen := map[string]bool{}
	for _, a := range analyses {
		if keep(a) && !seen[a.ID] {
			seen[a.ID] = true
			out = append(out, a.ID)
		}
	}
	return out
}

// Recommend derives the improvement list from a finished analysis, most
// urgent first. Equal priorities keep the order the checks run in.
func Recommend(ca types.CoherenceAnalysis) []types.Recommendation {
	var out []types.Recommendation
	add := func(p types.Severity, typ, msg string, scenes []string) {
		out = append(out, types.Recommendation{Priority: p, Type: typ, Message: msg, Scenes: scenes})
	}

	if n := len(ca.DeadEndScenes); n > 0 {
		add(types.SeverityHigh, "dead_end",
			fmt.Sprintf("%d scene(s) have no exit, next scene or ending; add a way forward", n), ca.DeadEndScenes)
	}
	for _, c := range ca.NPCContinuity {
		if c.Hard {
			add(types.SeverityHigh, "npc_continuity", c.Message, []string{c.FromScene, c.ToScene})
		}
	}
	switch ca.Breadcrumbs.Strength {
	case types.BreadcrumbWeak, types.BreadcrumbNone:
		add(types.SeverityMedium, "breadcrumbs",
			fmt.Sprintf("breadcrumbs are %s (%d of %d transitions are signposted); mention the next location in the narrative or add exits",
				ca.Breadcrumbs.Strength, ca.Breadcrumbs.StrongPairs, ca.Breadcrumbs.Pairs), nil)
	}
	if len(ca.InformationGaps) > 0 {
		add(types.SeverityMedium, "information_gap",
			fmt.Sprintf("%d hidden or irreversible element(s) lack GM-facing text", len(ca.InformationGaps)),
			gapScenes(ca.InformationGaps))
	}
	if len(ca.LowPassRateScenes) > 0 {
		add(types.SeverityMedium, "difficulty",
			"checks in these scenes failed more often than they passed; consider lowering difficulties", ca.LowPassRateScenes)
	}
	if len(ca.HighWoundScenes) > 0 {
		add(types.SeverityMedium, "lethality",
			fmt.Sprintf("these scenes dealt %d or more wounds; check the damage budget", HighWounds), ca.HighWoundScenes)
	}
	if ca.Pacing.Score < PacingTarget {
		add(types.SeverityMedium, "pacing", pacingAdvice(ca.Pacing), nil)
	}
	for _, c := range ca.NPCContinuity {
		if !c.Hard {
			add(types.SeverityLow, "npc_continuity", c.Message, []string{c.FromScene, c.ToScene})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out
}

func priorityRank(p types.Severity) int {
	switch p {
	case types.SeverityHigh:
		return 0
	case types.SeverityMedium:
		return 1
	}
	return 2
}

func gapScenes(gaps []types.InformationGap) []string {
	var out []string
	seen := map[string]bool{}
	for _, g := range gaps {
		if !seen[g.SceneID] {
			seen[g.SceneID] = true
			out = append(out, g.SceneID)
		}
	}
	return out
}

// pacingAdvice names the scene type furthest from its ideal share.
func pacingAdvice(p types.Pacing) string {
	kinds := []struct {
		name       string
		got, ideal float64
	}{
		{"action", p.Action, IdealAction},
		{"social", p.Social, IdealSocial},
		{"exploration", p.Exploration, IdealExploration},
	}
	worst := kinds[0]
	for _, k := range kinds[1:] {
		if math.Abs(k.got-k.ideal) > math.Abs(worst.got-worst.ideal) {
			worst = k
		}
	}
	dir := "more"
	if worst.got > worst.ideal {
		dir = "fewer"
	}
	return fmt.Sprintf("pacing score %d: %s scenes are %.0f%% of the adventure (ideal %.0f%%); consider %s of them",
		p.Score, worst.name, worst.got*100, worst.ideal*100, dir)
}

func mentions(text, phrase string) bool {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}
