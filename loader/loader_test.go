package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/questsim/content"
	"github.com/nathoo/questsim/types"
)

// writeAdventure creates a temporary adventure directory from file contents.
func writeAdventure(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "adv")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad_Lantern(t *testing.T) {
	adv, err := Load("../adventures/lantern")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if adv.ID != "lantern" {
		t.Errorf("ID = %q, want lantern", adv.ID)
	}
	if adv.Title != "The Drowned Lantern" {
		t.Errorf("Title = %q", adv.Title)
	}
	if len(adv.Scenes) != 7 {
		t.Fatalf("expected 7 scenes, got %d", len(adv.Scenes))
	}

	// Adventure.order wins over declaration order.
	wantOrder := []string{"prologue", "harbor", "tavern", "cliffs", "lighthouse", "vault", "dawn"}
	for i, id := range wantOrder {
		if adv.Scenes[i].ID != id {
			t.Errorf("scene %d = %q, want %q", i, adv.Scenes[i].ID, id)
		}
	}

	harbor := adv.Scenes[1]
	if len(harbor.Markers) != 1 || harbor.Markers[0] != "adventure_start" {
		t.Errorf("harbor markers = %v", harbor.Markers)
	}
	if len(harbor.NPCs) != 2 || harbor.NPCs[0].Name != "Mara Vell" || !harbor.NPCs[0].Required {
		t.Errorf("harbor npcs = %+v", harbor.NPCs)
	}
	if c := harbor.Challenges[0]; c.ID != "slick_pier" || c.Difficulty != 12 || c.FailureDamage != 1 {
		t.Errorf("harbor challenge = %+v", c)
	}
	ledger := harbor.Conversation["mara"]["ledger"]
	if ledger.Text == "" || len(ledger.Requires) != 1 || ledger.Requires[0] != "trusted_by_mara" {
		t.Errorf("gated topic = %+v", ledger)
	}

	tavern := adv.Scenes[2]
	offer := tavern.Triggers[0]
	if len(offer.Effects) != 2 || offer.Effects[0].Type != "disposition" || offer.Effects[0].Params["amount"] != 20 {
		t.Errorf("trigger effects = %+v", offer.Effects)
	}

	lighthouse := adv.Scenes[4]
	if e := lighthouse.Exits[0]; e.Target != "vault" || e.RequiresFlag != "lamp_lit" {
		t.Errorf("gated exit = %+v", e)
	}

	cliffs := adv.Scenes[3]
	if cliffs.Challenges[1].Type != types.ChallengeHidden {
		t.Errorf("hidden challenge type = %q", cliffs.Challenges[1].Type)
	}
	if cliffs.Environment == nil || len(cliffs.Environment.Hazards) != 2 {
		t.Errorf("environment = %+v", cliffs.Environment)
	}

	dawn := adv.Scenes[6]
	if dawn.Type != "ending" || len(dawn.Markers) != 1 {
		t.Errorf("dawn = %+v", dawn)
	}

	// Guide payload.
	if adv.Guide["tone"] != "noir" {
		t.Errorf("guide tone = %v", adv.Guide["tone"])
	}
	if ms, ok := adv.Guide["mysteries"].([]any); !ok || len(ms) != 2 {
		t.Errorf("guide mysteries = %v", adv.Guide["mysteries"])
	}
	if ss, ok := adv.Guide["npc_secrets"].([]any); !ok || len(ss) != 1 {
		t.Errorf("guide npc secrets = %v", adv.Guide["npc_secrets"])
	} else if ss[0].(map[string]any)["npc_id"] != "aldous" {
		t.Errorf("npc secret id = %v", ss[0])
	}
	if _, ok := adv.Guide["order"]; ok {
		t.Error("order should not leak into the guide")
	}
}

func TestLoad_InvalidRefs_Fails(t *testing.T) {
	dir := writeAdventure(t, map[string]string{
		"adventure.lua": `Adventure { title = "Broken" }`,
		"scenes.lua": `
			Scene "a" {
				triggers = { Trigger "t" { effects = { SetNPCState("ghost", "defeated") } } },
			}`,
	})
	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid references")
	}
	if !strings.Contains(err.Error(), "undefined npc") {
		t.Errorf("error = %q, expected 'undefined npc'", err.Error())
	}
}

func TestLoad_DuplicateSceneIDs_Fails(t *testing.T) {
	dir := writeAdventure(t, map[string]string{
		"adventure.lua": `Adventure { title = "Twice" }`,
		"scenes.lua":    `Scene "a" {} Scene "a" {}`,
	})
	_, err := Load(dir)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assertContains(t, ve.Errors, "duplicate scene id")
}

func TestLoad_BadLuaSyntax_Fails(t *testing.T) {
	dir := writeAdventure(t, map[string]string{
		"adventure.lua": `Adventure { title = "x"`,
	})
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for bad Lua syntax")
	}
}

func TestLoad_NoLuaFiles_Fails(t *testing.T) {
	dir := writeAdventure(t, map[string]string{"notes.txt": "nothing"})
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "no .lua files") {
		t.Fatalf("expected 'no .lua files' error, got %v", err)
	}
}

func TestLoad_NoAdventureDef_Fails(t *testing.T) {
	dir := writeAdventure(t, map[string]string{
		"scenes.lua": `Scene "a" {}`,
	})
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "Adventure.title is required") {
		t.Fatalf("expected missing title error, got %v", err)
	}
}

func TestLoad_SceneWithoutExitsLoads(t *testing.T) {
	// A dead end is a finding for the simulation, not a load error.
	dir := writeAdventure(t, map[string]string{
		"adventure.lua": `Adventure { title = "Dead End" }`,
		"scenes.lua":    `Scene "only" { narrative = "Nothing here." }`,
	})
	adv, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(adv.Scenes) != 1 || len(adv.Scenes[0].Exits) != 0 {
		t.Errorf("scenes = %+v", adv.Scenes)
	}
	if adv.ID != "adv" {
		t.Errorf("ID should default to the directory name, got %q", adv.ID)
	}
}

func TestLoad_SandboxEnforced(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`os.execute("echo pwned")`); err == nil {
		t.Fatal("expected sandbox to block os.execute")
	}
	if err := L.DoString(`dofile("x.lua")`); err == nil {
		t.Fatal("expected sandbox to block dofile")
	}
	if err := L.DoString(`math.randomseed(1)`); err == nil {
		t.Fatal("expected sandbox to block math.randomseed")
	}
}

func TestLoad_FileOrdering(t *testing.T) {
	files := sortedLuaFiles([]string{"zeta.lua", "adventure.lua", "alpha.lua"})
	want := []string{"adventure.lua", "alpha.lua", "zeta.lua"}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestSource(t *testing.T) {
	src := Source{Root: "../adventures"}
	ctx := context.Background()

	scenes, err := src.FetchScenes(ctx, "lantern")
	if err != nil {
		t.Fatalf("FetchScenes: %v", err)
	}
	if len(scenes) != 7 {
		t.Errorf("expected 7 scenes, got %d", len(scenes))
	}

	guide, err := src.FetchGuide(ctx, "lantern")
	if err != nil || guide["tone"] != "noir" {
		t.Errorf("FetchGuide = %v, %v", guide, err)
	}

	if _, err := src.FetchScenes(ctx, "missing"); !errors.Is(err, content.ErrAdventureNotFound) {
		t.Errorf("expected ErrAdventureNotFound, got %v", err)
	}
	if _, err := src.FetchScenes(ctx, "../adventures"); err == nil {
		t.Error("expected error for path-like id")
	}

	ids, err := src.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == "lantern" {
			found = true
		}
	}
	if !found {
		t.Errorf("List = %v, want lantern included", ids)
	}
}

// assertContains checks that at least one string in the slice contains substr.
func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
