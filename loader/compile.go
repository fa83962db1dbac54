package loader

import (
	"fmt"

	"github.com/nathoo/questsim/content"
	lua "github.com/yuin/gopher-lua"
)

// rawScene holds a scene table before compilation.
type rawScene struct {
	id    string
	table *lua.LTable
	line  string
}

// rawNamed holds a guide entry keyed by its constructor argument.
type rawNamed struct {
	id    string
	table *lua.LTable
}

// compile converts the collected Lua tables into a normalized adventure.
func compile(coll *collector, defaultID string) (content.Adventure, error) {
	adv := content.Adventure{ID: defaultID, Guide: map[string]any{}}

	var order []string
	if coll.adventure != nil {
		if id := getString(coll.adventure, "id"); id != "" {
			adv.ID = id
		}
		adv.Title = getString(coll.adventure, "title")
		for k, v := range tableToAnyMap(coll.adventure) {
			switch k {
			case "id", "title", "order":
			default:
				adv.Guide[k] = v
			}
		}
		order = stringList(getTable(coll.adventure, "order"))
	}

	for _, raw := range orderScenes(coll.scenes, order) {
		m := tableToAnyMap(raw.table)
		m["id"] = raw.id
		s, err := content.NormalizeScene(m)
		if err != nil {
			return content.Adventure{}, fmt.Errorf("%s %w", raw.line, err)
		}
		adv.Scenes = append(adv.Scenes, s)
	}

	if len(coll.secrets) > 0 {
		var secrets []any
		for _, s := range coll.secrets {
			m := tableToAnyMap(s.table)
			m["id"] = s.id
			secrets = append(secrets, m)
		}
		adv.Guide["secrets"] = secrets
	}
	if len(coll.mysteries) > 0 {
		var mysteries []any
		for _, t := range coll.mysteries {
			mysteries = append(mysteries, tableToAnyMap(t))
		}
		adv.Guide["mysteries"] = mysteries
	}
	if len(coll.npcSecrets) > 0 {
		var npcSecrets []any
		for _, s := range coll.npcSecrets {
			m := tableToAnyMap(s.table)
			m["npc_id"] = s.id
			npcSecrets = append(npcSecrets, m)
		}
		adv.Guide["npc_secrets"] = npcSecrets
	}

	if adv.Title == "" {
		adv.Title = adv.ID
	}
	return adv, nil
}

// orderScenes puts scenes named in order first, in that order, then the
// rest in declaration order.
func orderScenes(scenes []rawScene, order []string) []rawScene {
	if len(order) == 0 {
		return scenes
	}
	placed := map[int]bool{}
	var out []rawScene
	for _, id := range order {
		for i, s := range scenes {
			if s.id == id && !placed[i] {
				out = append(out, s)
				placed[i] = true
				break
			}
		}
	}
	for i, s := range scenes {
		if !placed[i] {
			out = append(out, s)
		}
	}
	return out
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// stringList returns the string entries of a Lua array table.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Arrays have sequential integer keys starting at 1.
		if maxN := val.MaxN(); maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		return tableToAnyMap(val)
	default:
		return nil
	}
}

// tableToAnyMap converts the string-keyed fields of a Lua table.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	m := map[string]any{}
	if tbl == nil {
		return m
	}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}
