package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nathoo/questsim/content"
	"github.com/nathoo/questsim/engine/archetype"
	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/loader"
	"github.com/nathoo/questsim/probe"
	"github.com/nathoo/questsim/types"
)

// testScenes builds a three-scene adventure: a gate with a lock and an
// alarm, a hall with a sage, and an ending.
func testScenes() []types.Scene {
	return []types.Scene{
		{
			ID:        "gate",
			Title:     "The Gate",
			Location:  "Iron Gate",
			Narrative: "A rusted gate bars the road to the hall.",
			Markers:   []string{MarkerStart},
			NPCs:      []types.NPCReference{{ID: "guard", Name: "Old Guard", Role: "gatekeeper"}},
			Challenges: []types.Challenge{
				{ID: "lock", Skill: "Agility", Difficulty: 12, Type: types.ChallengeActive, FailureDamage: 1, Required: true},
			},
			Triggers: []types.Trigger{{ID: "alarm", Label: "The alarm bell rings", Required: true}},
			Exits:    []types.Exit{{Target: "hall", Label: "Through the gate"}},
		},
		{
			ID:        "hall",
			Title:     "The Hall",
			Location:  "Great Hall",
			Narrative: "Candles gutter around the sage.",
			NPCs:      []types.NPCReference{{ID: "sage", Name: "The Sage", Required: true, Motivation: "Guard the archive."}},
			NextScene: "end",
		},
		{ID: "end", Title: "Epilogue", Type: "ending"},
	}
}

func staticSource(scenes []types.Scene) *content.Static {
	return content.NewStatic(content.Adventure{ID: "test", Title: "Test", Scenes: scenes})
}

func run(t *testing.T, scenes []types.Scene, opts Options) *Trace {
	t.Helper()
	if opts.Config.Seed == 0 {
		opts.Config.Seed = 42
	}
	tr, err := New(staticSource(scenes), opts).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return tr
}

func issuesOf(tr *Trace, typ string) []types.Issue {
	var out []types.Issue
	for _, is := range tr.Issues {
		if is.Type == typ {
			out = append(out, is)
		}
	}
	return out
}

func TestRun_CompletesOnBlessedSpeedrun(t *testing.T) {
	tr := run(t, testScenes(), Options{Config: types.SimulationConfig{
		DiceMode:       types.DiceBlessed,
		GMBehavior:     types.GMEfficient,
		PlayerBehavior: types.PlayerSpeedrun,
		MaxScenes:      -1,
	}})

	if tr.Termination.Reason != types.ReasonCompleted {
		t.Fatalf("reason = %s (%s)", tr.Termination.Reason, tr.Termination.Message)
	}
	if n := len(issuesOf(tr, IssuePlayerDeath)); n != 0 {
		t.Errorf("deaths = %d, want 0", n)
	}
	if len(tr.Analyses) != 3 {
		t.Fatalf("analyses = %d, want 3", len(tr.Analyses))
	}
	for _, a := range tr.Analyses {
		if !a.Completed {
			t.Errorf("scene %s not completed", a.ID)
		}
	}

	gate := tr.Analyses[0]
	if gate.ChecksAttempted != 1 || gate.ChecksPassed != 1 || gate.TriggersFired != 1 {
		t.Errorf("gate = %+v", gate)
	}
	if gate.NPCsInteracted != 0 {
		t.Errorf("speedrun should skip the unrequired guard, interacted %d", gate.NPCsInteracted)
	}
	if !reflect.DeepEqual(gate.ExitsTaken, []string{"hall"}) {
		t.Errorf("gate exits = %v", gate.ExitsTaken)
	}
	if hall := tr.Analyses[1]; hall.NPCsInteracted != 1 || !reflect.DeepEqual(hall.ExitsTaken, []string{"end"}) {
		t.Errorf("hall = %+v", hall)
	}
	if tr.RunID == "" || tr.Seed != 42 {
		t.Errorf("run id %q seed %d", tr.RunID, tr.Seed)
	}
}

func TestRun_CursedDiceKill(t *testing.T) {
	tr := run(t, testScenes(), Options{Config: types.SimulationConfig{
		DiceMode:        types.DiceCursed,
		PlayerMaxWounds: 1,
	}})

	if tr.Termination.Reason != types.ReasonPlayerDeath {
		t.Fatalf("reason = %s, want player_death", tr.Termination.Reason)
	}
	if tr.Termination.SceneID != "gate" || tr.Termination.SceneIndex != 0 {
		t.Errorf("termination = %+v", tr.Termination)
	}
	if len(tr.Analyses) != 1 || tr.Analyses[0].Completed {
		t.Errorf("analyses = %+v", tr.Analyses)
	}
	deaths := issuesOf(tr, IssuePlayerDeath)
	if len(deaths) != 1 || deaths[0].Severity != types.IssueCritical {
		t.Errorf("death issues = %+v", deaths)
	}
	if tr.Player.Wounds != 1 {
		t.Errorf("wounds = %d", tr.Player.Wounds)
	}
}

func TestRun_NoExitPathWarning(t *testing.T) {
	scenes := []types.Scene{
		{ID: "cell", Title: "Cell"},
		{ID: "yard", Title: "Yard", Type: "ending"},
	}
	tr := run(t, scenes, Options{})

	got := issuesOf(tr, IssueNoExitPath)
	if len(got) != 1 {
		t.Fatalf("NO_EXIT_PATH issues = %+v, want exactly one", got)
	}
	if got[0].SceneID != "cell" || got[0].Severity != types.IssueWarning {
		t.Errorf("issue = %+v", got[0])
	}
	if tr.Termination.Reason != types.ReasonCompleted {
		t.Errorf("a missing exit should not end the run, got %s", tr.Termination.Reason)
	}
	if tr.Analyses[0].HasExitPath {
		t.Error("cell should have no exit path")
	}
}

func TestRun_NoContent(t *testing.T) {
	tr := run(t, nil, Options{})
	if tr.Termination.Reason != types.ReasonNoValidExits {
		t.Errorf("empty content: reason = %s", tr.Termination.Reason)
	}
	if len(tr.Analyses) != 0 {
		t.Errorf("analyses = %d", len(tr.Analyses))
	}

	tr, err := New(staticSource(testScenes()), Options{}).Run(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Termination.Reason != types.ReasonNoValidExits {
		t.Errorf("fetch error: reason = %s", tr.Termination.Reason)
	}
	if len(issuesOf(tr, IssueContentUnavailable)) != 1 {
		t.Errorf("issues = %+v", tr.Issues)
	}
}

func TestRun_SoftLockIsReportedNotFatal(t *testing.T) {
	door := types.Scene{
		ID:    "door",
		Exits: []types.Exit{{Target: "vault", RequiresFlag: "key"}},
	}
	vault := types.Scene{ID: "vault", Type: "ending"}

	tr := run(t, []types.Scene{door, vault}, Options{})
	if tr.Termination.Reason != types.ReasonCompleted || tr.Termination.SceneID != "vault" {
		t.Fatalf("termination = %+v", tr.Termination)
	}
	if len(tr.Analyses) != 2 {
		t.Fatalf("analyses = %+v", tr.Analyses)
	}
	locks := issuesOf(tr, IssueSoftLock)
	if len(locks) != 1 || locks[0].SceneID != "door" || locks[0].Severity != types.IssueCritical {
		t.Errorf("soft lock issues = %+v", locks)
	}
	if got := tr.Analyses[0].ExitsTaken; len(got) != 0 {
		t.Errorf("locked door exits taken = %v", got)
	}

	door.Triggers = []types.Trigger{{
		ID:      "find_key",
		Label:   "A key glints in the dust",
		Effects: []types.Effect{{Type: "set_flag", Params: map[string]any{"flag": "key"}}},
	}}
	tr = run(t, []types.Scene{door, vault}, Options{})
	if n := len(issuesOf(tr, IssueSoftLock)); n != 0 {
		t.Errorf("with the key: %d soft lock issues", n)
	}
	if got := tr.Analyses[0].ExitsTaken; !reflect.DeepEqual(got, []string{"vault"}) {
		t.Errorf("exits taken = %v", got)
	}
}

func TestRun_GatedExitsStillComplete(t *testing.T) {
	tests := []struct {
		name string
		exit types.Exit
	}{
		{"flag never set", types.Exit{Target: "s2", RequiresFlag: "key"}},
		{"mistyped target", types.Exit{Target: "s2x"}},
	}
	for _, tt := range tests {
		s1 := types.Scene{
			ID:    "s1",
			Exits: []types.Exit{tt.exit},
			Triggers: []types.Trigger{{
				ID:      "hidden_key",
				Effects: []types.Effect{{Type: "set_flag", Params: map[string]any{"flag": "key"}}},
			}},
		}
		s2 := types.Scene{ID: "s2", Type: "ending"}

		tr := run(t, []types.Scene{s1, s2}, Options{Config: types.SimulationConfig{
			DiceMode:       types.DiceBlessed,
			GMBehavior:     types.GMEfficient,
			PlayerBehavior: types.PlayerSpeedrun,
			MaxScenes:      -1,
		}})
		if tr.Termination.Reason != types.ReasonCompleted {
			t.Errorf("%s: reason = %s, want completed", tt.name, tr.Termination.Reason)
		}
		if len(tr.Analyses) != 2 {
			t.Errorf("%s: analyses = %d, want 2", tt.name, len(tr.Analyses))
		}
		if n := len(issuesOf(tr, IssuePlayerDeath)); n != 0 {
			t.Errorf("%s: deaths = %d", tt.name, n)
		}
		if n := len(issuesOf(tr, IssueSoftLock)); n != 1 {
			t.Errorf("%s: soft lock issues = %d, want 1", tt.name, n)
		}
	}
}

func TestRun_EndMarkerIsNotAnEnding(t *testing.T) {
	scenes := []types.Scene{
		{ID: "s1", NextScene: "s2", Markers: []string{MarkerStart}},
		{ID: "s2", Markers: []string{MarkerEnd}},
	}
	tr := run(t, scenes, Options{})

	got := issuesOf(tr, IssueNoExitPath)
	if len(got) != 1 || got[0].SceneID != "s2" {
		t.Fatalf("NO_EXIT_PATH issues = %+v, want exactly one on s2", got)
	}
	if tr.Termination.Reason != types.ReasonCompleted {
		t.Errorf("reason = %s", tr.Termination.Reason)
	}
}

func TestRun_MaxTurns(t *testing.T) {
	s := types.Scene{
		ID:   "gauntlet",
		Type: "ending",
		Challenges: []types.Challenge{
			{ID: "a", Skill: "Agility", Difficulty: 5},
			{ID: "b", Skill: "Agility", Difficulty: 5},
			{ID: "c", Skill: "Agility", Difficulty: 5},
		},
	}
	after := types.Scene{ID: "after", Type: "ending"}
	tr := run(t, []types.Scene{s, after}, Options{Config: types.SimulationConfig{
		DiceMode:         types.DiceBlessed,
		MaxTurnsPerScene: 2,
	}})

	if tr.Termination.Reason != types.ReasonMaxTurnsReached || tr.Termination.SceneID != "gauntlet" {
		t.Fatalf("termination = %+v", tr.Termination)
	}
	if len(tr.Analyses) != 1 {
		t.Fatalf("analyses = %d, want 1", len(tr.Analyses))
	}
	a := tr.Analyses[0]
	if !a.Completed || a.ChecksAttempted != 3 || a.Turns != 4 {
		t.Errorf("the scene should play out before the budget ends the run: %+v", a)
	}
	if n := len(issuesOf(tr, IssueMaxTurns)); n != 1 {
		t.Errorf("MAX_TURNS_REACHED issues = %d", n)
	}
}

func TestRun_DrawsReplay(t *testing.T) {
	cfg := types.SimulationConfig{Seed: 11, GMBehavior: types.GMRandom, PlayerBehavior: types.PlayerRandom}
	first := run(t, testScenes(), Options{Config: cfg})
	second := run(t, testScenes(), Options{Config: cfg})

	if first.Draws == 0 {
		t.Fatal("a random run should draw from the RNG")
	}
	if first.Draws != second.Draws {
		t.Errorf("draws = %d and %d for the same seed", first.Draws, second.Draws)
	}
}

func TestRun_SceneVisitLimit(t *testing.T) {
	loop := types.Scene{ID: "corridor", Exits: []types.Exit{{Target: "corridor"}}}
	scenes := []types.Scene{loop, loop}

	tr := run(t, scenes, Options{Config: types.SimulationConfig{MaxSceneVisits: 1}})
	if tr.Termination.Reason != types.ReasonInfiniteLoopDetected {
		t.Fatalf("reason = %s", tr.Termination.Reason)
	}
	if len(tr.Analyses) != 1 || tr.Termination.SceneIndex != 1 {
		t.Errorf("analyses = %d, termination = %+v", len(tr.Analyses), tr.Termination)
	}

	tr = run(t, scenes, Options{})
	if tr.Termination.Reason != types.ReasonCompleted || len(tr.Analyses) != 2 {
		t.Errorf("without a limit: %s with %d analyses", tr.Termination.Reason, len(tr.Analyses))
	}
	if len(issuesOf(tr, IssuePossibleLoop)) == 0 {
		t.Error("expected a possible-loop warning for a self exit")
	}
}

func TestRun_NearDeath(t *testing.T) {
	s := types.Scene{
		ID:       "pit",
		Type:     "ending",
		Triggers: []types.Trigger{{ID: "spikes", Label: "Spikes", Damage: 2, Harmful: true}},
	}
	tr := run(t, []types.Scene{s}, Options{Config: types.SimulationConfig{PlayerMaxWounds: 3}})

	if tr.Termination.Reason != types.ReasonCompleted {
		t.Fatalf("reason = %s", tr.Termination.Reason)
	}
	if len(issuesOf(tr, IssueNearDeath)) != 1 {
		t.Errorf("issues = %+v", tr.Issues)
	}
	if tr.Player.Wounds != 2 || tr.Analyses[0].WoundsTaken != 2 {
		t.Errorf("wounds = %d, scene wounds = %d", tr.Player.Wounds, tr.Analyses[0].WoundsTaken)
	}
}

func TestRun_NPCContinuity(t *testing.T) {
	scenes := []types.Scene{
		{
			ID:   "duel",
			NPCs: []types.NPCReference{{ID: "rival", Name: "Rival"}},
			Triggers: []types.Trigger{{ID: "win", Label: "The rival falls", Effects: []types.Effect{
				{Type: "set_npc_state", Params: map[string]any{"npc": "rival", "state": "defeated"}},
			}}},
			NextScene: "feast",
		},
		{ID: "feast", Type: "ending", NPCs: []types.NPCReference{{ID: "rival", Name: "Rival", State: types.NPCActive}}},
	}
	tr := run(t, scenes, Options{})

	got := issuesOf(tr, IssueNPCContinuity)
	if len(got) != 1 || got[0].SceneID != "feast" || got[0].Severity != types.IssueWarning {
		t.Errorf("continuity issues = %+v", got)
	}
}

// failingProbe never finds anything.
type failingProbe struct{ captures int }

func (p *failingProbe) Lookup(context.Context, types.PlayerQuestion) (probe.Result, error) {
	return probe.Result{SearchPath: []string{"scene_npcs"}, Interactions: 1}, errors.New("surface unavailable")
}

func (p *failingProbe) CaptureDiagnostic(context.Context, string) (string, error) {
	p.captures++
	return "diag.json", nil
}

func curious() *types.PlayerArchetype {
	w := map[types.QuestionType]int{}
	for _, qt := range archetype.QuestionTypes {
		w[qt] = 100
	}
	return &types.PlayerArchetype{ID: "curious", Name: "Curious", QuestionWeights: w}
}

func TestRun_ProbeFailureIsNotFatal(t *testing.T) {
	p := &failingProbe{}
	tr := run(t, testScenes(), Options{Probe: p, Archetype: curious(), Config: types.SimulationConfig{DiceMode: types.DiceBlessed}})

	if tr.Termination.Reason != types.ReasonCompleted {
		t.Fatalf("reason = %s", tr.Termination.Reason)
	}
	if len(tr.Lookups) == 0 {
		t.Fatal("expected questions to be asked")
	}
	notFound := issuesOf(tr, IssueInformationNotFound)
	if len(notFound) != len(tr.Lookups) || p.captures != len(tr.Lookups) {
		t.Errorf("%d lookups, %d issues, %d captures", len(tr.Lookups), len(notFound), p.captures)
	}
	for _, l := range tr.Lookups {
		if l.Found || !strings.HasPrefix(l.SearchPath[len(l.SearchPath)-1], "error:") {
			t.Errorf("lookup = %+v", l)
		}
	}
	for i, is := range notFound {
		q := tr.Lookups[i].Question
		want := types.IssueWarning
		if q.Type == types.QuestionNPCInfo || q.Type == types.QuestionNPCMotivation {
			want = types.IssueCritical
		}
		if is.Severity != want || is.Artifact != "diag.json" {
			t.Errorf("issue for %s = %+v", q.Type, is)
		}
	}
}

func TestRun_ContentProbeAnswers(t *testing.T) {
	tr := run(t, testScenes(), Options{Archetype: curious(), Config: types.SimulationConfig{DiceMode: types.DiceBlessed}})

	found := 0
	for _, l := range tr.Lookups {
		if l.Found {
			found++
			if l.FoundIn == "" {
				t.Errorf("found lookup without a location: %+v", l)
			}
		}
	}
	if found == 0 {
		t.Errorf("expected the content probe to answer something, lookups = %+v", tr.Lookups)
	}
}

func TestRun_Deterministic(t *testing.T) {
	opts := Options{Archetype: curious(), Config: types.SimulationConfig{
		Seed:           99,
		GMBehavior:     types.GMRandom,
		PlayerBehavior: types.PlayerRandom,
	}}
	a := run(t, testScenes(), opts)
	b := run(t, testScenes(), opts)

	if !reflect.DeepEqual(a.Analyses, b.Analyses) {
		t.Errorf("analyses differ:\n%+v\n%+v", a.Analyses, b.Analyses)
	}
	if !reflect.DeepEqual(a.Dice.Rolls, b.Dice.Rolls) {
		t.Errorf("rolls differ: %v vs %v", a.Dice.Rolls, b.Dice.Rolls)
	}
	if len(a.Lookups) != len(b.Lookups) || len(a.Events) != len(b.Events) {
		t.Errorf("lookups %d/%d events %d/%d", len(a.Lookups), len(b.Lookups), len(a.Events), len(b.Events))
	}
	if a.RunID == b.RunID {
		t.Error("each run should get its own id")
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	r := New(staticSource(testScenes()), Options{Config: types.SimulationConfig{Seed: 1}})
	if _, err := r.Run(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), "test"); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("second Run err = %v", err)
	}
}

func TestRun_EventsObserved(t *testing.T) {
	var seen []string
	tr := run(t, testScenes(), Options{OnEvent: func(e types.Event) { seen = append(seen, e.Type) }})

	if len(seen) != len(tr.Events) {
		t.Fatalf("listener saw %d events, log has %d", len(seen), len(tr.Events))
	}
	if seen[0] != "run_started" || seen[len(seen)-1] != "run_terminated" {
		t.Errorf("events = %v", seen)
	}
	for i, e := range tr.Events {
		if e.Seq != i+1 {
			t.Fatalf("event %d has seq %d", i, e.Seq)
		}
	}
}

func TestRun_Lantern(t *testing.T) {
	src := loader.Source{Root: "../adventures"}

	tr, err := New(src, Options{Config: types.SimulationConfig{Seed: 3, DiceMode: types.DiceBlessed}}).Run(context.Background(), "lantern")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Termination.Reason != types.ReasonCompleted {
		t.Fatalf("thorough run: %+v", tr.Termination)
	}
	if tr.Analyses[0].ID != "harbor" || tr.Termination.SceneID != "dawn" {
		t.Errorf("range = %s..%s, want harbor..dawn", tr.Analyses[0].ID, tr.Termination.SceneID)
	}

	// A GM who only fires harmful triggers never relights the lamp, so the
	// vault door stays shut. The run is flagged but keeps going.
	tr, err = New(src, Options{Config: types.SimulationConfig{
		Seed:       3,
		DiceMode:   types.DiceBlessed,
		GMBehavior: types.GMAdversarial,
	}}).Run(context.Background(), "lantern")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Termination.Reason == types.ReasonSoftLock {
		t.Errorf("adversarial run: %+v", tr.Termination)
	}
	locks := issuesOf(tr, IssueSoftLock)
	if len(locks) != 1 || locks[0].SceneID != "lighthouse" {
		t.Errorf("soft lock issues = %+v", locks)
	}
	var reachedVault bool
	for _, a := range tr.Analyses {
		reachedVault = reachedVault || a.ID == "vault"
	}
	if !reachedVault {
		t.Error("play should continue past the locked lighthouse")
	}
}

func TestSelectScenes(t *testing.T) {
	mk := func(id string, markers ...string) types.Scene { return types.Scene{ID: id, Markers: markers} }
	all := []types.Scene{mk("intro"), mk("a", MarkerStart), mk("b"), mk("c", MarkerEnd), mk("credits")}

	ids := func(ss []types.Scene) []string {
		var out []string
		for _, s := range ss {
			out = append(out, s.ID)
		}
		return out
	}

	r := rng.New(1)
	if got := ids(SelectScenes(all, types.SimulationConfig{}, r)); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("marked range = %v", got)
	}
	if got := ids(SelectScenes(all, types.SimulationConfig{MaxScenes: 2}, r)); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("truncated = %v", got)
	}
	if got := ids(SelectScenes(all, types.SimulationConfig{MaxScenes: -1}, r)); len(got) != 3 {
		t.Errorf("negative max should not truncate, got %v", got)
	}

	plain := []types.Scene{mk("x"), mk("y"), mk("z")}
	shuffled := SelectScenes(plain, types.SimulationConfig{RandomOrder: true}, rng.New(5))
	if len(shuffled) != 3 {
		t.Fatalf("shuffled = %v", ids(shuffled))
	}
	seen := map[string]bool{}
	for _, s := range shuffled {
		seen[s.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("shuffle lost scenes: %v", ids(shuffled))
	}
	if plain[0].ID != "x" {
		t.Error("input was modified")
	}
	if SelectScenes(nil, types.SimulationConfig{}, r) != nil {
		t.Error("empty input should select nothing")
	}
}

func TestCheckDamage(t *testing.T) {
	ch := types.Challenge{FailureDamage: 1, CriticalFailureDamage: 2}
	tests := []struct {
		name       string
		roll       types.RollResult
		fail, crit int
	}{
		{"success", types.RollResult{Roll: 15, Success: true}, 0, 0},
		{"failure", types.RollResult{Roll: 5}, 1, 0},
		{"critical failure", types.RollResult{Roll: 1, Critical: "failure"}, 1, 2},
		{"natural 1 that still passes", types.RollResult{Roll: 1, Critical: "failure", Success: true}, 0, 0},
	}
	for _, tt := range tests {
		fail, crit := CheckDamage(ch, tt.roll)
		if fail != tt.fail || crit != tt.crit {
			t.Errorf("%s: got %d+%d, want %d+%d", tt.name, fail, crit, tt.fail, tt.crit)
		}
	}
}
