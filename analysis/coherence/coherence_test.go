package coherence

import (
	"reflect"
	"testing"

	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

func testScenes() []types.Scene {
	return []types.Scene{
		{
			ID:        "docks",
			Location:  "Saltmere Docks",
			Narrative: "Gulls wheel above the nets.",
			NPCs:      []types.NPCReference{{ID: "mara", Name: "Mara"}},
			Exits:     []types.Exit{{Target: "tavern"}},
		},
		{
			ID:        "tavern",
			Location:  "Drowned Rat",
			Narrative: "Everyone here talks about the Old Lighthouse. Nobody mentions Saltmere Docks.",
			NPCs:      []types.NPCReference{{ID: "brannoc", Name: "Brannoc"}},
			Challenges: []types.Challenge{
				{ID: "brawl", Skill: "Strength", Difficulty: 13, Combat: true},
			},
		},
		{
			ID:        "lighthouse",
			Location:  "Old Lighthouse",
			Narrative: "The stairs climb into darkness.",
			NextScene: "cove",
			Challenges: []types.Challenge{
				{ID: "loose_step", Skill: "Perception", Type: types.ChallengeHidden},
			},
			Triggers: []types.Trigger{{ID: "relight", Irreversible: true}},
		},
		{
			ID:       "cove",
			Location: "Hidden Cove",
			Type:     "ending",
		},
	}
}

func TestBreadcrumbs(t *testing.T) {
	tests := []struct {
		name   string
		scenes []types.Scene
		want   types.BreadcrumbStrength
		strong int
		weak   int
	}{
		{
			name:   "mixed",
			scenes: testScenes(),
			want:   types.BreadcrumbMedium,
			strong: 2, // docks has exits, tavern names the lighthouse
			weak:   1,
		},
		{
			name: "pointers only",
			scenes: []types.Scene{
				{ID: "a", NextScene: "b"}, {ID: "b", NextScene: "c"}, {ID: "c"},
			},
			want: types.BreadcrumbWeak,
			weak: 2,
		},
		{
			name:   "nothing links",
			scenes: []types.Scene{{ID: "a"}, {ID: "b"}},
			want:   types.BreadcrumbNone,
		},
		{
			name: "all exits",
			scenes: []types.Scene{
				{ID: "a", Exits: []types.Exit{{Target: "b"}}}, {ID: "b", Exits: []types.Exit{{Target: "c"}}}, {ID: "c"},
			},
			want:   types.BreadcrumbStrong,
			strong: 2,
		},
		{
			name:   "single scene",
			scenes: []types.Scene{{ID: "a"}},
			want:   types.BreadcrumbNone,
		},
	}

	for _, tt := range tests {
		b := Breadcrumbs(tt.scenes)
		if b.Strength != tt.want || b.StrongPairs != tt.strong || b.WeakPairs != tt.weak {
			t.Errorf("%s: got %+v, want %s with %d strong and %d weak", tt.name, b, tt.want, tt.strong, tt.weak)
		}
	}
}

func TestReferences(t *testing.T) {
	fwd, back := References(testScenes())

	wantFwd := []types.SceneReference{{FromScene: "tavern", ToScene: "lighthouse", Location: "Old Lighthouse"}}
	wantBack := []types.SceneReference{{FromScene: "tavern", ToScene: "docks", Location: "Saltmere Docks"}}
	if !reflect.DeepEqual(fwd, wantFwd) {
		t.Errorf("forward = %+v", fwd)
	}
	if !reflect.DeepEqual(back, wantBack) {
		t.Errorf("backward = %+v", back)
	}
}

func TestNPCContinuity(t *testing.T) {
	scenes := []types.Scene{
		{ID: "s1", NPCs: []types.NPCReference{
			{ID: "rival", State: types.NPCDefeated},
			{ID: "ghost", State: types.NPCAbsent},
			{ID: "clerk", State: types.NPCPassive},
		}},
		{ID: "s2", NPCs: []types.NPCReference{
			{ID: "rival"},
			{ID: "ghost", State: types.NPCActive},
			{ID: "clerk", State: types.NPCActive},
		}},
	}

	got := NPCContinuity(scenes)
	if len(got) != 2 {
		t.Fatalf("issues = %+v", got)
	}
	if got[0].NPCID != "rival" || !got[0].Hard || got[0].FromScene != "s1" || got[0].ToScene != "s2" {
		t.Errorf("rival = %+v", got[0])
	}
	if got[1].NPCID != "ghost" || got[1].Hard {
		t.Errorf("ghost = %+v", got[1])
	}
}

func TestInformationGaps(t *testing.T) {
	got := InformationGaps(testScenes())
	if len(got) != 2 {
		t.Fatalf("gaps = %+v", got)
	}
	if got[0].Kind != "hidden_challenge" || got[0].ElementID != "loose_step" {
		t.Errorf("gap 0 = %+v", got[0])
	}
	if got[1].Kind != "irreversible_trigger" || got[1].ElementID != "relight" {
		t.Errorf("gap 1 = %+v", got[1])
	}

	described := testScenes()
	described[2].Challenges[0].GMDescription = "A rotten step gives way."
	described[2].Triggers[0].Text = "The beam sweeps the bay."
	if got := InformationGaps(described); len(got) != 0 {
		t.Errorf("described content still has gaps: %+v", got)
	}
}

func TestPacing(t *testing.T) {
	m := rules.Default()
	mk := func(kind string, n int) []types.Scene {
		var out []types.Scene
		for range n {
			switch kind {
			case "action":
				out = append(out, types.Scene{Challenges: []types.Challenge{{ID: "ambush", Skill: "Perception"}}})
			case "social":
				out = append(out, types.Scene{NPCs: []types.NPCReference{{ID: "npc"}}})
			default:
				out = append(out, types.Scene{})
			}
		}
		return out
	}
	concat := func(parts ...[]types.Scene) []types.Scene {
		var out []types.Scene
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	tests := []struct {
		name   string
		scenes []types.Scene
		score  int
	}{
		{"ideal", concat(mk("action", 3), mk("social", 4), mk("explore", 3)), 100},
		{"thirds", concat(mk("action", 1), mk("social", 1), mk("explore", 1)), 91},
		{"all social", mk("social", 4), 20},
		{"all exploration", mk("explore", 2), 7},
	}
	for _, tt := range tests {
		if got := Pacing(m, tt.scenes); got.Score != tt.score {
			t.Errorf("%s: score = %d (%+v), want %d", tt.name, got.Score, got, tt.score)
		}
	}
}

func TestAnalyze_Aggregates(t *testing.T) {
	analyses := []types.SceneAnalysis{
		{ID: "docks", HasExitPath: true, ChecksAttempted: 2, ChecksPassed: 2},
		{ID: "tavern", HasExitPath: false, ChecksAttempted: 3, ChecksPassed: 1, WoundsTaken: 2},
		{ID: "lighthouse", HasExitPath: true, ChecksAttempted: 1, ChecksPassed: 0},
	}
	ca := Analyze(testScenes(), analyses)

	if !reflect.DeepEqual(ca.DeadEndScenes, []string{"tavern"}) {
		t.Errorf("dead ends = %v", ca.DeadEndScenes)
	}
	if !reflect.DeepEqual(ca.LowPassRateScenes, []string{"tavern"}) {
		t.Errorf("low pass rate = %v", ca.LowPassRateScenes)
	}
	if !reflect.DeepEqual(ca.HighWoundScenes, []string{"tavern"}) {
		t.Errorf("high wounds = %v", ca.HighWoundScenes)
	}

	if len(ca.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if r := ca.Recommendations[0]; r.Priority != types.SeverityHigh || r.Type != "dead_end" {
		t.Errorf("first recommendation = %+v", r)
	}
	kinds := map[string]bool{}
	for i, r := range ca.Recommendations {
		kinds[r.Type] = true
		if i > 0 && priorityRank(r.Priority) < priorityRank(ca.Recommendations[i-1].Priority) {
			t.Errorf("recommendations out of priority order: %+v", ca.Recommendations)
		}
	}
	for _, want := range []string{"dead_end", "information_gap", "difficulty", "lethality"} {
		if !kinds[want] {
			t.Errorf("missing %s recommendation in %+v", want, ca.Recommendations)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	scenes := testScenes()
	analyses := []types.SceneAnalysis{{ID: "docks", HasExitPath: true}, {ID: "tavern"}}

	a := Analyze(scenes, analyses)
	b := Analyze(scenes, analyses)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated analysis differs:\n%+v\n%+v", a, b)
	}
}
