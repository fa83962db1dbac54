package engine

import (
	"context"
	"fmt"

	"github.com/nathoo/questsim/engine/scene"
	"github.com/nathoo/questsim/types"
)

// askQuestions generates the scene's questions and resolves them through
// the probe one at a time. Unanswered questions become issues with a
// diagnostic capture attached.
func (r *Runner) askQuestions(ctx context.Context, s types.Scene, an *scene.Analyzer) {
	var qs []types.PlayerQuestion
	if arch := r.opts.Archetype; arch != nil {
		qs = r.gen.Questions(*arch, s)
	} else {
		qs = r.gen.FallbackQuestions(s)
	}

	for _, q := range qs {
		l := r.lookup(ctx, q)
		r.trace.Lookups = append(r.trace.Lookups, l)
		if l.Found {
			continue
		}

		sev := types.IssueWarning
		if q.Type == types.QuestionNPCInfo || q.Type == types.QuestionNPCMotivation {
			sev = types.IssueCritical
		}
		artifact, err := r.probe.CaptureDiagnostic(ctx, fmt.Sprintf("%s %s/%s", IssueInformationNotFound, s.ID, q.Type))
		if err != nil {
			r.logger.Warn("diagnostic capture failed", "scene", s.ID, "err", err)
		}
		r.sceneIssue(an, IssueInformationNotFound, sev, s.ID,
			fmt.Sprintf("%s question %q has no discoverable answer", q.Type, q.Query), artifact)
	}
}

// lookup asks the probe once. A probe error is a failed lookup, never a
// run failure.
func (r *Runner) lookup(ctx context.Context, q types.PlayerQuestion) types.InformationLookup {
	start := r.now()
	res, err := r.probe.Lookup(ctx, q)

	l := types.InformationLookup{
		Question:     q,
		SearchPath:   append([]string{}, res.SearchPath...),
		Found:        res.Found && err == nil,
		Interactions: res.Interactions,
	}
	if l.Found {
		l.FoundIn = res.FoundIn
	}
	if err != nil {
		l.SearchPath = append(l.SearchPath, "error: "+err.Error())
	}
	l.Elapsed = r.now().Sub(start)

	r.events.Emit("lookup", q.Context.SceneID, q.Query, map[string]any{
		"type":  string(q.Type),
		"found": l.Found,
		"where": l.FoundIn,
	})
	return l
}
