package scene

import (
	"testing"

	"github.com/nathoo/questsim/types"
)

type flagSet map[string]bool

func (f flagSet) HasFlag(name string) bool { return f[name] }

func TestHasExitPath(t *testing.T) {
	tests := []struct {
		name  string
		scene types.Scene
		want  bool
	}{
		{"exits", types.Scene{Exits: []types.Exit{{Target: "b"}}}, true},
		{"next scene", types.Scene{NextScene: "b"}, true},
		{"ending type", types.Scene{Type: "ending"}, true},
		{"end marker only", types.Scene{Markers: []string{"adventure_end"}}, false},
		{"nothing", types.Scene{Type: "combat"}, false},
	}
	for _, tt := range tests {
		if got := HasExitPath(tt.scene); got != tt.want {
			t.Errorf("%s: HasExitPath = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOpenExits(t *testing.T) {
	s := types.Scene{Exits: []types.Exit{
		{Target: "yard"},
		{Target: "vault", RequiresFlag: "vault_key"},
		{Target: "nowhere"},
	}}
	known := func(id string) bool { return id != "nowhere" }

	open := OpenExits(s, flagSet{}, known)
	if len(open) != 1 || open[0].Target != "yard" {
		t.Errorf("open exits = %+v, want [yard]", open)
	}

	open = OpenExits(s, flagSet{"vault_key": true}, known)
	if len(open) != 2 {
		t.Errorf("expected vault to open, got %+v", open)
	}

	if open = OpenExits(s, flagSet{}, nil); len(open) != 2 {
		t.Errorf("nil known func should accept every target, got %+v", open)
	}
}

func TestAnalyzer_Accumulates(t *testing.T) {
	s := types.Scene{
		ID:       "crypt",
		Title:    "The Crypt",
		NPCs:     []types.NPCReference{{ID: "a"}, {ID: "b"}},
		Triggers: []types.Trigger{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
		Exits:    []types.Exit{{Target: "nave"}},
	}

	a := Start(s)
	a.TriggerFired()
	a.CheckAttempted(true)
	a.CheckAttempted(false)
	a.NPCInteracted("a")
	a.NPCInteracted("a")
	a.Wounded(2)
	a.Wounded(-1)
	a.ExitTaken("nave")
	a.Issue("NEAR_DEATH")

	rec := a.Finalize(true)
	if rec.ID != "crypt" || rec.Title != "The Crypt" {
		t.Errorf("identity = %s/%s", rec.ID, rec.Title)
	}
	if !rec.Completed {
		t.Error("expected completed")
	}
	if rec.TriggersAvailable != 3 || rec.TriggersFired != 1 {
		t.Errorf("triggers = %d/%d", rec.TriggersFired, rec.TriggersAvailable)
	}
	if rec.ChecksAttempted != 2 || rec.ChecksPassed != 1 {
		t.Errorf("checks = %d/%d", rec.ChecksPassed, rec.ChecksAttempted)
	}
	if rec.NPCsPresent != 2 || rec.NPCsInteracted != 1 {
		t.Errorf("npcs = %d/%d", rec.NPCsInteracted, rec.NPCsPresent)
	}
	if rec.WoundsTaken != 2 {
		t.Errorf("wounds = %d, want 2", rec.WoundsTaken)
	}
	// 1 activation + 2 checks + 2 interactions.
	if rec.Turns != 5 {
		t.Errorf("turns = %d, want 5", rec.Turns)
	}
	if !rec.HasExitPath || len(rec.ExitsTaken) != 1 || len(rec.Issues) != 1 {
		t.Errorf("record = %+v", rec)
	}
}

func TestAnalyzer_FinalizeOnce(t *testing.T) {
	a := Start(types.Scene{ID: "x"})
	first := a.Finalize(false)
	second := a.Finalize(true)
	if first.Completed || second.Completed {
		t.Error("second Finalize should not change the record")
	}
}

func TestAnalyzer_RecordsAreCopies(t *testing.T) {
	a := Start(types.Scene{ID: "x"})
	a.Issue("A")
	rec := a.Finalize(true)
	rec.Issues[0] = "mutated"
	if a.Finalize(true).Issues[0] != "A" {
		t.Error("Finalize should return a copy")
	}
}
