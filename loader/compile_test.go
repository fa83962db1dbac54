package loader

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

func TestCompile_SceneParts(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Adventure { title = "Parts", tone = "grim" }
		Scene "hall" {
			title = "Great Hall",
			dc_note = "ignored",
			npcs = { NPC "guard" { name = "Guard", hostile = true }, "cat" },
			checks = { Check "door" { skill = "Strength", difficulty = 15 } },
			triggers = { Trigger "alarm" { damage = 2, harmful = true } },
			exits = { Exit "yard" { label = "Out" }, "cellar" },
		}
	`); err != nil {
		t.Fatalf("DoString: %v", err)
	}

	adv, err := compile(coll, "parts")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if adv.ID != "parts" || adv.Title != "Parts" {
		t.Errorf("identity = %s/%s", adv.ID, adv.Title)
	}
	if adv.Guide["tone"] != "grim" {
		t.Errorf("guide = %v", adv.Guide)
	}

	s := adv.Scenes[0]
	if s.ID != "hall" || s.Title != "Great Hall" {
		t.Errorf("scene = %s/%s", s.ID, s.Title)
	}
	if len(s.NPCs) != 2 || s.NPCs[0].ID != "guard" || !s.NPCs[0].Hostile || s.NPCs[1].ID != "cat" {
		t.Errorf("npcs = %+v", s.NPCs)
	}
	if len(s.Challenges) != 1 || s.Challenges[0].ID != "door" || s.Challenges[0].Difficulty != 15 {
		t.Errorf("challenges = %+v", s.Challenges)
	}
	if tr := s.Triggers[0]; tr.ID != "alarm" || tr.Label != "alarm" || tr.Damage != 2 || !tr.Harmful {
		t.Errorf("trigger = %+v", tr)
	}
	if len(s.Exits) != 2 || s.Exits[0].Target != "yard" || s.Exits[0].Label != "Out" || s.Exits[1].Target != "cellar" {
		t.Errorf("exits = %+v", s.Exits)
	}
}

func TestCompile_GuideEntries(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Adventure { id = "custom", title = "Guide", themes = { "grief" } }
		Scene "a" {}
		Secret "s1" { description = "A secret.", reveal_scene = "a" }
		Mystery { question = "Why?", red_herring = true }
		NPCSecret "bob" { public = "Baker", secret = "Spy" }
	`); err != nil {
		t.Fatalf("DoString: %v", err)
	}

	adv, err := compile(coll, "dir")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if adv.ID != "custom" {
		t.Errorf("Adventure.id should override the directory, got %q", adv.ID)
	}
	secrets := adv.Guide["secrets"].([]any)
	if secrets[0].(map[string]any)["id"] != "s1" {
		t.Errorf("secret = %v", secrets[0])
	}
	mysteries := adv.Guide["mysteries"].([]any)
	if mysteries[0].(map[string]any)["red_herring"] != true {
		t.Errorf("mystery = %v", mysteries[0])
	}
	ns := adv.Guide["npc_secrets"].([]any)
	if ns[0].(map[string]any)["npc_id"] != "bob" {
		t.Errorf("npc secret = %v", ns[0])
	}
	themes := adv.Guide["themes"].([]any)
	if len(themes) != 1 || themes[0] != "grief" {
		t.Errorf("themes = %v", themes)
	}
}

func TestCompileEffects_AllHelpers(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			Say("hi"), Damage(2), Heal(1), SetFlag("f"), ClearFlag("f"),
			GiveItem("key"), RemoveItem("key"), SetNPCState("bob", "defeated"),
			Disposition("bob", -10), EmitEvent("alarm"), Stop(),
		}
	`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	arr, ok := toGoValue(L.Get(-1)).([]any)
	if !ok || len(arr) != 11 {
		t.Fatalf("expected 11 effects, got %v", arr)
	}

	want := []string{"say", "damage", "heal", "set_flag", "clear_flag", "give_item",
		"remove_item", "set_npc_state", "disposition", "emit_event", "stop"}
	for i, w := range want {
		m := arr[i].(map[string]any)
		if m["type"] != w {
			t.Errorf("effect %d type = %v, want %s", i, m["type"], w)
		}
		if !validEffectTypes[w] {
			t.Errorf("helper %s produces a type the validator rejects", w)
		}
	}
	if d := arr[8].(map[string]any); d["npc"] != "bob" || d["amount"] != -10 {
		t.Errorf("disposition = %v", d)
	}
}

func TestCompileEffects_ArgumentChecked(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`Damage("lots")`); err == nil {
		t.Error("expected Damage to reject a non-numeric amount")
	}
}

func TestOrderScenes(t *testing.T) {
	scenes := []rawScene{{id: "a"}, {id: "b"}, {id: "c"}}
	got := orderScenes(scenes, []string{"c", "a"})
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i].id != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, got[i].id, want[i])
		}
	}
}

func TestToGoValue(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`return { n = 1.5, i = 3, list = { "x", "y" }, empty = {}, flag = true }`); err != nil {
		t.Fatal(err)
	}
	m := toGoValue(L.Get(-1)).(map[string]any)
	if m["n"] != 1.5 || m["i"] != 3 || m["flag"] != true {
		t.Errorf("scalars = %v", m)
	}
	if l := m["list"].([]any); len(l) != 2 || l[1] != "y" {
		t.Errorf("list = %v", l)
	}
	if e, ok := m["empty"].(map[string]any); !ok || len(e) != 0 {
		t.Errorf("empty table = %#v", m["empty"])
	}
}
