package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerPartConstructors(L)
	registerEffectHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Adventure { title = "...", tone = "...", themes = {...} }
	L.SetGlobal("Adventure", L.NewFunction(func(L *lua.LState) int {
		coll.adventure = L.CheckTable(1)
		return 0
	}))

	// Scene "id" { ... } — curried: Scene("id") returns a function that takes a table.
	L.SetGlobal("Scene", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.scenes = append(coll.scenes, rawScene{id: id, table: tbl, line: L.Where(1)})
			return 0
		}))
		return 1
	}))

	// Secret "id" { description = "...", reveal_scene = "..." }
	L.SetGlobal("Secret", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.secrets = append(coll.secrets, rawNamed{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// NPCSecret "npc_id" { public = "...", secret = "..." }
	L.SetGlobal("NPCSecret", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.npcSecrets = append(coll.npcSecrets, rawNamed{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Mystery { question = "...", reveal_scene = "...", red_herring = false }
	L.SetGlobal("Mystery", L.NewFunction(func(L *lua.LState) int {
		coll.mysteries = append(coll.mysteries, L.CheckTable(1))
		return 0
	}))
}

// registerPartConstructors registers the curried constructors for the
// pieces nested inside a Scene table. Each returns its table with the
// given key filled in.
func registerPartConstructors(L *lua.LState) {
	part := func(name, key string) {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.OptTable(1, L.NewTable())
				tbl.RawSetString(key, lua.LString(id))
				L.Push(tbl)
				return 1
			}))
			return 1
		}))
	}

	// NPC "id" { name = "...", hostile = true }
	part("NPC", "id")
	// Check "id" { skill = "Agility", dc = 12 }
	part("Check", "id")
	// Trigger "id" { label = "...", effects = { ... } }
	part("Trigger", "id")
	// Exit "target" { label = "...", requires = "flag" }
	part("Exit", "target")

	// Topic("text", {"flag"}) for gated conversation entries.
	L.SetGlobal("Topic", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(L.CheckString(1)))
		if req, ok := L.Get(2).(*lua.LTable); ok {
			tbl.RawSetString("requires", req)
		}
		L.Push(tbl)
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	// effect builds a helper whose positional arguments fill the named
	// params in order. Numeric params are checked as numbers.
	effect := func(name, typ string, params ...string) {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("type", lua.LString(typ))
			for i, p := range params {
				switch p {
				case "amount":
					tbl.RawSetString(p, L.CheckNumber(i+1))
				default:
					tbl.RawSetString(p, lua.LString(L.CheckString(i+1)))
				}
			}
			L.Push(tbl)
			return 1
		}))
	}

	effect("Say", "say", "text")
	effect("Damage", "damage", "amount")
	effect("Heal", "heal", "amount")
	effect("SetFlag", "set_flag", "flag")
	effect("ClearFlag", "clear_flag", "flag")
	effect("GiveItem", "give_item", "item")
	effect("RemoveItem", "remove_item", "item")
	effect("SetNPCState", "set_npc_state", "npc", "state")
	effect("Disposition", "disposition", "npc", "amount")
	effect("EmitEvent", "emit_event", "event")
	effect("Stop", "stop")
}
