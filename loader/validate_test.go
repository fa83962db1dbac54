package loader

import (
	"errors"
	"testing"

	"github.com/nathoo/questsim/content"
)

// loadString runs Lua source through the DSL and returns the collector and
// compiled adventure.
func loadString(t *testing.T, src string) (*collector, content.Adventure) {
	t.Helper()
	L, coll := newTestVM()
	defer L.Close()
	if err := L.DoString(src); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	adv, err := compile(coll, "test")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return coll, adv
}

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return ve
}

func TestValidate_Valid(t *testing.T) {
	coll, adv := loadString(t, `
		Adventure { title = "Fine" }
		Scene "a" { npcs = { NPC "bob" {} }, exits = { Exit "b" {} } }
		Scene "b" { type = "ending" }
	`)
	if err := validate(coll, adv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoScenes(t *testing.T) {
	coll, adv := loadString(t, `Adventure { title = "Empty" }`)
	ve := validationErr(t, validate(coll, adv))
	assertContains(t, ve.Errors, "at least one Scene")
}

func TestValidate_UnknownEffectType(t *testing.T) {
	coll, adv := loadString(t, `
		Adventure { title = "Effects" }
		Scene "a" { triggers = { Trigger "t" { effects = { { type = "teleport" } } } } }
	`)
	ve := validationErr(t, validate(coll, adv))
	assertContains(t, ve.Errors, `unknown effect type "teleport"`)
}

func TestValidate_UnknownNPCState(t *testing.T) {
	coll, adv := loadString(t, `
		Adventure { title = "States" }
		Scene "a" {
			npcs = { NPC "bob" {} },
			triggers = { Trigger "t" { effects = { SetNPCState("bob", "asleep") } } },
		}
	`)
	ve := validationErr(t, validate(coll, adv))
	assertContains(t, ve.Errors, `unknown npc state "asleep"`)
}

func TestValidate_OrderNamesUndefinedScene(t *testing.T) {
	coll, adv := loadString(t, `
		Adventure { title = "Order", order = { "a", "zzz" } }
		Scene "a" {}
	`)
	ve := validationErr(t, validate(coll, adv))
	assertContains(t, ve.Errors, `undefined scene "zzz"`)
}

func TestValidate_MysteryWithoutQuestion(t *testing.T) {
	coll, adv := loadString(t, `
		Adventure { title = "Mystery" }
		Scene "a" {}
		Mystery { reveal_scene = "a" }
	`)
	ve := validationErr(t, validate(coll, adv))
	assertContains(t, ve.Errors, "has no question")
}

func TestValidate_GuideWarningsDoNotFail(t *testing.T) {
	coll, adv := loadString(t, `
		Adventure { title = "Warnings" }
		Scene "a" { exits = { Exit "nowhere" {} }, conversation = { ghost = { hi = "boo" } } }
		Secret "s" { description = "x", reveal_scene = "later" }
		NPCSecret "stranger" { public = "p", secret = "s" }
	`)
	if err := validate(coll, adv); err != nil {
		t.Fatalf("warnings should not fail validation: %v", err)
	}
}
