// Package engine plays an adventure end to end. A synthetic GM and player
// work through the selected scenes one at a time while the Runner records
// per-scene metrics, issues, lookups and events into a Trace.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nathoo/questsim/content"
	"github.com/nathoo/questsim/engine/archetype"
	"github.com/nathoo/questsim/engine/dice"
	"github.com/nathoo/questsim/engine/effects"
	"github.com/nathoo/questsim/engine/events"
	"github.com/nathoo/questsim/engine/policy"
	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/engine/scene"
	"github.com/nathoo/questsim/engine/state"
	"github.com/nathoo/questsim/probe"
	"github.com/nathoo/questsim/types"
)

// DefaultMaxWounds is used when the config leaves PlayerMaxWounds unset.
const DefaultMaxWounds = 6

// Issue codes recorded by the runner.
const (
	IssueContentUnavailable  = "CONTENT_UNAVAILABLE"
	IssueGuideUnavailable    = "GUIDE_UNAVAILABLE"
	IssueNoExitPath          = "NO_EXIT_PATH"
	IssuePossibleLoop        = "POSSIBLE_LOOP"
	IssueNPCContinuity       = "NPC_CONTINUITY"
	IssueNearDeath           = "NEAR_DEATH"
	IssuePlayerDeath         = "PLAYER_DEATH"
	IssueInformationNotFound = "INFORMATION_NOT_FOUND"
	IssueSoftLock            = "SOFT_LOCK"
	IssueMaxTurns            = "MAX_TURNS_REACHED"
	IssueSceneRevisited      = "SCENE_REVISITED"
)

// ErrAlreadyRun is returned when Run is called twice on one Runner.
var ErrAlreadyRun = errors.New("engine: runner has already run")

// Options configures a Runner. Zero values select the noted defaults.
type Options struct {
	Config types.SimulationConfig

	// Archetype drives questions and creative actions. Nil asks the
	// fallback questions and attempts no creative actions.
	Archetype *types.PlayerArchetype

	// Matcher decides which creative actions a scene supports.
	// Nil uses rules.Default().
	Matcher *rules.Matcher

	// Probe answers player questions. Nil uses a ContentProbe that writes
	// no diagnostics.
	Probe probe.Probe

	// Skills overrides the player's skill bonuses. Nil uses
	// state.ReferenceBuild.
	Skills map[string]int

	// Logger receives progress logging. Nil discards it.
	Logger *log.Logger

	// OnEvent observes every event as it is recorded.
	OnEvent events.Listener

	// Now is the clock. Nil uses time.Now.
	Now func() time.Time
}

// Trace is everything one run produced. The report generator turns it into
// a SimulationReport.
type Trace struct {
	RunID       string
	AdventureID string
	Config      types.SimulationConfig
	Seed        int64
	StartedAt   time.Time
	FinishedAt  time.Time
	// Draws is the RNG position at the end of the run. Replaying the seed
	// must reach the same position.
	Draws       int64

	// Scenes is the fetched content in content order, not the working list.
	Scenes []types.Scene
	Guide  map[string]any

	// Selected lists the working scene ids in play order.
	Selected []string

	Termination types.Termination
	Player      types.PlayerState
	NPCs        []types.NPCTracker
	Analyses    []types.SceneAnalysis
	Dice        types.DiceStats
	Lookups     []types.InformationLookup
	Events      []types.Event
	Issues      []types.Issue

	Archetype       *types.PlayerArchetype
	Feedback        []types.ArchetypeFeedback
	CreativeActions int
	Unhandled       int
}

// Runner plays one adventure once. It owns all run-scoped state; nothing
// is shared between runners.
type Runner struct {
	src     content.Source
	opts    Options
	cfg     types.SimulationConfig
	logger  *log.Logger
	matcher *rules.Matcher
	probe   probe.Probe
	now     func() time.Time

	rng    *rng.RNG
	dice   *dice.Engine
	player *state.Player
	npcs   *state.NPCRegistry
	events *events.Log
	gen    *archetype.Generator

	fire     policy.TriggerPolicy
	call     policy.ChallengePolicy
	interact policy.InteractPolicy

	ran    bool
	trace  *Trace
	known  map[string]bool
	visits map[string]int
}

// New creates a runner over src. A zero seed draws a fresh one, which is
// recorded in the trace so the run can be replayed.
func New(src content.Source, opts Options) *Runner {
	cfg := opts.Config
	if cfg.Seed == 0 {
		seed, err := rng.NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		cfg.Seed = seed
	}
	if cfg.PlayerMaxWounds <= 0 {
		cfg.PlayerMaxWounds = DefaultMaxWounds
	}

	r := &Runner{
		src:     src,
		opts:    opts,
		cfg:     cfg,
		logger:  opts.Logger,
		matcher: opts.Matcher,
		probe:   opts.Probe,
		now:     opts.Now,
		known:   map[string]bool{},
		visits:  map[string]int{},
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.matcher == nil {
		r.matcher = rules.Default()
	}
	if r.probe == nil {
		r.probe = probe.NewContentProbe(probe.Options{})
	}
	if r.now == nil {
		r.now = time.Now
	}

	r.rng = rng.New(cfg.Seed)
	r.dice = dice.New(r.rng, cfg.DiceMode)
	r.player = state.NewPlayer(cfg.PlayerMaxWounds, opts.Skills)
	r.npcs = state.NewNPCRegistry()
	r.gen = archetype.NewGenerator(r.rng)
	r.fire = policy.Trigger(cfg.GMBehavior)
	r.call = policy.Challenge(cfg.GMBehavior)
	r.interact = policy.Interact(cfg.PlayerBehavior)

	r.events = events.NewLog()
	r.events.Subscribe(func(e types.Event) {
		r.logger.Debug(e.Type, "seq", e.Seq, "scene", e.SceneID, "msg", e.Message)
	})
	if opts.OnEvent != nil {
		r.events.Subscribe(opts.OnEvent)
	}
	return r
}

// Seed returns the seed the run uses.
func (r *Runner) Seed() int64 { return r.cfg.Seed }

// Run plays the adventure and returns its trace. A run always produces a
// trace, whatever its termination reason; the only error is calling Run
// a second time.
func (r *Runner) Run(ctx context.Context, adventureID string) (*Trace, error) {
	if r.ran {
		return nil, ErrAlreadyRun
	}
	r.ran = true

	r.trace = &Trace{
		RunID:       uuid.NewString(),
		AdventureID: adventureID,
		Config:      r.cfg,
		Seed:        r.cfg.Seed,
		StartedAt:   r.now(),
		Guide:       map[string]any{},
		Termination: types.Termination{Reason: types.ReasonRunning, SceneIndex: -1},
		Archetype:   r.opts.Archetype,
		Analyses:    []types.SceneAnalysis{},
		Lookups:     []types.InformationLookup{},
		Issues:      []types.Issue{},
	}
	r.logger.Info("run started", "run", r.trace.RunID, "adventure", adventureID, "seed", r.cfg.Seed)

	r.play(ctx, adventureID)

	t := r.trace
	t.FinishedAt = r.now()
	t.Player = r.player.Snapshot()
	t.NPCs = r.npcs.Snapshot()
	t.Dice = r.dice.Stats()
	t.Events = r.events.Events()
	t.Draws = r.rng.Position()
	r.logger.Info("run finished",
		"reason", t.Termination.Reason,
		"scenes", len(t.Analyses),
		"issues", len(t.Issues),
		"draws", t.Draws,
	)
	return t, nil
}

func (r *Runner) play(ctx context.Context, adventureID string) {
	// 1. Fetch content. Any failure ends the run before it starts.
	scenes, err := r.src.FetchScenes(ctx, adventureID)
	if err != nil {
		r.issue(IssueContentUnavailable, types.IssueCritical, "", fmt.Sprintf("fetch scenes for %s: %v", adventureID, err), "")
		r.terminate(types.ReasonNoValidExits, "", -1, "content could not be fetched")
		return
	}
	if len(scenes) == 0 {
		r.terminate(types.ReasonNoValidExits, "", -1, "adventure has no scenes")
		return
	}
	r.trace.Scenes = scenes
	for _, s := range scenes {
		r.known[s.ID] = true
	}

	guide, err := r.src.FetchGuide(ctx, adventureID)
	switch {
	case err != nil:
		r.issue(IssueGuideUnavailable, types.IssueWarning, "", fmt.Sprintf("fetch guide for %s: %v", adventureID, err), "")
	case guide != nil:
		r.trace.Guide = guide
	}

	// 2. Point the probe at the content.
	if a, ok := r.probe.(probe.Attacher); ok {
		a.Attach(scenes, r.player)
	}

	// 3. Select the working list.
	working := SelectScenes(scenes, r.cfg, r.rng)
	if len(working) == 0 {
		r.terminate(types.ReasonNoValidExits, "", -1, "no scenes selected")
		return
	}
	for _, s := range working {
		r.trace.Selected = append(r.trace.Selected, s.ID)
	}
	r.events.Emit("run_started", "", "", map[string]any{"scenes": len(working)})

	// 4. Play until a scene ends the run.
	for i, s := range working {
		if r.playScene(ctx, i, s, working) {
			return
		}
	}

	last := len(working) - 1
	r.terminate(types.ReasonCompleted, working[last].ID, last, fmt.Sprintf("played %d scene(s)", len(working)))
}

// playScene runs one scene turn and reports whether the run ended in it.
func (r *Runner) playScene(ctx context.Context, i int, s types.Scene, working []types.Scene) bool {
	// 1. Activate.
	r.visits[s.ID]++
	if limit := r.cfg.MaxSceneVisits; limit > 0 && r.visits[s.ID] > limit {
		msg := fmt.Sprintf("scene %s entered %d times (limit %d)", s.ID, r.visits[s.ID], limit)
		r.issue(IssueSceneRevisited, types.IssueCritical, s.ID, msg, "")
		r.terminate(types.ReasonInfiniteLoopDetected, s.ID, i, msg)
		return true
	}

	an := scene.Start(s)
	r.logger.Info("scene", "index", i, "id", s.ID, "title", s.Title)
	r.events.Emit("scene_started", s.ID, s.Title, map[string]any{"index": i})
	r.registerNPCs(s, an)
	r.classifyExits(s, an)

	// 2. GM phase: triggers.
	for _, tr := range s.Triggers {
		if !r.fire(tr, r.rng) {
			continue
		}
		an.TriggerFired()
		res := r.applyTrigger(s, tr)
		an.Wounded(res.WoundsDealt)
		if r.record(i, s, an, res) {
			return true
		}
	}

	// 3. Check resolution.
	for _, ch := range s.Challenges {
		if !r.call(ch, r.rng) {
			continue
		}
		roll, res := r.resolveCheck(s, ch)
		an.CheckAttempted(roll.Success)
		an.Wounded(res.WoundsDealt)
		if r.record(i, s, an, res) {
			return true
		}
	}

	// 4. Player phase.
	for _, n := range s.NPCs {
		if !present(n) || !r.interact(n, r.rng) {
			continue
		}
		count := r.npcs.Interact(n.ID)
		an.NPCInteracted(n.ID)
		r.events.Emit("npc_interaction", s.ID, n.Name, map[string]any{"npc": n.ID, "count": count})
	}

	// 5. Question phase.
	r.askQuestions(ctx, s, an)

	// 6. Creative actions.
	arch := r.opts.Archetype
	if arch != nil {
		actions := archetype.CreativeActions(*arch, s)
		fb := archetype.CheckActions(r.matcher, *arch, s, actions)
		r.trace.CreativeActions += len(actions)
		r.trace.Unhandled += len(fb)
		r.trace.Feedback = append(r.trace.Feedback, fb...)
		for _, f := range fb {
			r.events.Emit("action_unhandled", s.ID, f.Description, nil)
		}
	}

	// 7. Pick the way out.
	r.leave(i, s, working, an)

	// 8. Finalize.
	over := r.overBudget(s, an)
	rec := an.Finalize(true)
	r.trace.Analyses = append(r.trace.Analyses, rec)
	if arch != nil {
		r.trace.Feedback = append(r.trace.Feedback, archetype.Critique(*arch, s, rec, r.trace.Lookups)...)
	}
	r.events.Emit("scene_completed", s.ID, s.Title, map[string]any{"turns": rec.Turns})

	// 9. A scene over its turn budget ends the run once it is finalized.
	if over {
		r.terminate(types.ReasonMaxTurnsReached, s.ID, i,
			fmt.Sprintf("scene %s used %d turns (limit %d)", s.ID, rec.Turns, r.cfg.MaxTurnsPerScene))
		return true
	}
	return false
}

func present(n types.NPCReference) bool {
	return n.State == "" || n.State == types.NPCActive || n.State == types.NPCPassive
}

// registerNPCs records the scene's NPCs and notes state changes that break
// continuity with where they were last seen.
func (r *Runner) registerNPCs(s types.Scene, an *scene.Analyzer) {
	for _, n := range s.NPCs {
		tr := r.npcs.Register(s.ID, n)
		switch tr.Verdict {
		case state.ContinuityViolation:
			r.sceneIssue(an, IssueNPCContinuity, types.IssueWarning, s.ID,
				fmt.Sprintf("%s was %s in %s but is %s here", n.ID, tr.From, tr.FromScene, tr.To), "")
		case state.ContinuityReview:
			r.sceneIssue(an, IssueNPCContinuity, types.IssueInfo, s.ID,
				fmt.Sprintf("%s returns from %s (last seen in %s); verify this is intentional", n.ID, tr.From, tr.FromScene), "")
		}
	}
}

func (r *Runner) classifyExits(s types.Scene, an *scene.Analyzer) {
	if !scene.HasExitPath(s) {
		r.sceneIssue(an, IssueNoExitPath, types.IssueWarning, s.ID,
			fmt.Sprintf("scene %s has no exits, no next scene and is not an ending", s.ID), "")
		return
	}
	if len(s.Exits) == 0 || s.NextScene != "" || scene.IsEnding(s) {
		return
	}
	for _, e := range s.Exits {
		if r.visits[e.Target] == 0 {
			return
		}
	}
	r.sceneIssue(an, IssuePossibleLoop, types.IssueWarning, s.ID,
		fmt.Sprintf("every exit from %s leads back to a visited scene", s.ID), "")
}

func (r *Runner) applyTrigger(s types.Scene, tr types.Trigger) effects.Result {
	r.events.Emit("trigger_fired", s.ID, tr.Label, map[string]any{"trigger": tr.ID})
	var effs []types.Effect
	if tr.Damage > 0 {
		effs = append(effs, damage(tr.Damage))
	}
	effs = append(effs, tr.Effects...)
	if len(effs) == 0 {
		return effects.Result{}
	}
	return effects.Apply(r.targets(), effs, effects.Context{SceneID: s.ID, SourceID: tr.ID})
}

func (r *Runner) targets() effects.Targets {
	return effects.Targets{Player: r.player, NPCs: r.npcs}
}

// record appends the events of an effect batch and handles its wounds. It
// reports whether the player died.
func (r *Runner) record(i int, s types.Scene, an *scene.Analyzer, res effects.Result) bool {
	r.events.Append(res.Events...)
	if res.NearDeath {
		r.sceneIssue(an, IssueNearDeath, types.IssueWarning, s.ID,
			fmt.Sprintf("player is one wound from death (%d/%d)", r.player.Wounds(), r.player.WoundsMax()), "")
	}
	if !res.Dead {
		return false
	}
	msg := fmt.Sprintf("player died in %s with %d/%d wounds", s.ID, r.player.Wounds(), r.player.WoundsMax())
	r.sceneIssue(an, IssuePlayerDeath, types.IssueCritical, s.ID, msg, "")
	r.trace.Analyses = append(r.trace.Analyses, an.Finalize(false))
	r.terminate(types.ReasonPlayerDeath, s.ID, i, msg)
	return true
}

// overBudget records a MAX_TURNS_REACHED issue when the scene has used
// more turns than allowed.
func (r *Runner) overBudget(s types.Scene, an *scene.Analyzer) bool {
	limit := r.cfg.MaxTurnsPerScene
	if limit <= 0 || an.Turns() <= limit {
		return false
	}
	r.sceneIssue(an, IssueMaxTurns, types.IssueWarning, s.ID,
		fmt.Sprintf("scene %s used %d turns (limit %d)", s.ID, an.Turns(), limit), "")
	return true
}

// leave records the exit the player takes out of s. A scene that has
// exits but none open, no next-scene pointer, and scenes remaining after
// it gets a critical SOFT_LOCK issue; play still moves on.
func (r *Runner) leave(i int, s types.Scene, working []types.Scene, an *scene.Analyzer) {
	if scene.IsEnding(s) {
		return
	}
	next := ""
	if i+1 < len(working) {
		next = working[i+1].ID
	}
	open := scene.OpenExits(s, r.player, func(id string) bool { return r.known[id] })

	switch {
	case next != "" && hasTarget(open, next):
		an.ExitTaken(next)
	case len(open) > 0:
		an.ExitTaken(open[0].Target)
	case s.NextScene != "":
		an.ExitTaken(s.NextScene)
	case len(s.Exits) > 0 && next != "":
		r.sceneIssue(an, IssueSoftLock, types.IssueCritical, s.ID,
			fmt.Sprintf("every exit from %s is locked or leads to an unknown scene", s.ID), "")
	}
}

func hasTarget(exits []types.Exit, id string) bool {
	for _, e := range exits {
		if e.Target == id {
			return true
		}
	}
	return false
}

// terminate moves the run to its terminal state. Only the first call
// has any effect.
func (r *Runner) terminate(reason types.TerminationReason, sceneID string, idx int, msg string) {
	if r.trace.Termination.Reason != types.ReasonRunning {
		return
	}
	r.trace.Termination = types.Termination{Reason: reason, SceneID: sceneID, SceneIndex: idx, Message: msg}
	r.events.Emit("run_terminated", sceneID, msg, map[string]any{"reason": string(reason)})
	if reason == types.ReasonCompleted {
		r.logger.Info("terminated", "reason", reason, "msg", msg)
		return
	}
	r.logger.Warn("terminated", "reason", reason, "scene", sceneID, "msg", msg)
}

func (r *Runner) issue(typ string, sev types.IssueSeverity, sceneID, msg, artifact string) {
	r.trace.Issues = append(r.trace.Issues, types.Issue{
		Type:     typ,
		Severity: sev,
		SceneID:  sceneID,
		Message:  msg,
		Artifact: artifact,
	})
	r.events.Emit("issue", sceneID, msg, map[string]any{"type": typ, "severity": string(sev)})

	switch sev {
	case types.IssueCritical:
		r.logger.Error(msg, "issue", typ, "scene", sceneID)
	case types.IssueWarning:
		r.logger.Warn(msg, "issue", typ, "scene", sceneID)
	default:
		r.logger.Info(msg, "issue", typ, "scene", sceneID)
	}
}

// sceneIssue records an issue and tags the scene's analysis with its code.
func (r *Runner) sceneIssue(an *scene.Analyzer, typ string, sev types.IssueSeverity, sceneID, msg, artifact string) {
	an.Issue(typ)
	r.issue(typ, sev, sceneID, msg, artifact)
}
