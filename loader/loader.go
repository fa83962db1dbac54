// Package loader loads adventures written in the Lua scene DSL. The Lua VM
// is discarded after loading; the result is plain normalized content.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/questsim/content"
	"github.com/nathoo/questsim/types"
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	adventure  *lua.LTable
	scenes     []rawScene
	secrets    []rawNamed
	mysteries  []*lua.LTable
	npcSecrets []rawNamed
}

// Load reads all .lua files from dir, compiles them into a normalized
// adventure, and validates references. The directory name is the
// adventure id unless the Adventure table sets one.
func Load(dir string) (content.Adventure, error) {
	// Discover .lua files.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return content.Adventure{}, fmt.Errorf("reading adventure directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return content.Adventure{}, fmt.Errorf("no .lua files found in %s", dir)
	}

	// Sort: adventure.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return content.Adventure{}, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	adv, err := compile(coll, filepath.Base(dir))
	if err != nil {
		return content.Adventure{}, fmt.Errorf("compiling adventure: %w", err)
	}

	if err := validate(coll, adv); err != nil {
		return content.Adventure{}, err
	}

	return adv, nil
}

// Source serves Lua adventures stored as one directory per adventure
// under Root.
type Source struct {
	Root string
}

// FetchScenes implements content.Source.
func (s Source) FetchScenes(ctx context.Context, adventureID string) ([]types.Scene, error) {
	adv, err := s.load(ctx, adventureID)
	if err != nil {
		return nil, err
	}
	return adv.Scenes, nil
}

// FetchGuide implements content.Source.
func (s Source) FetchGuide(ctx context.Context, adventureID string) (map[string]any, error) {
	adv, err := s.load(ctx, adventureID)
	if err != nil {
		return nil, err
	}
	return adv.Guide, nil
}

// List returns the ids of the adventure directories under Root.
func (s Source) List() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("reading adventure root %s: %w", s.Root, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		matches, _ := filepath.Glob(filepath.Join(s.Root, e.Name(), "*.lua"))
		if len(matches) > 0 {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s Source) load(ctx context.Context, adventureID string) (content.Adventure, error) {
	if err := ctx.Err(); err != nil {
		return content.Adventure{}, err
	}
	if adventureID == "" || strings.ContainsAny(adventureID, `/\`) || adventureID == ".." {
		return content.Adventure{}, fmt.Errorf("invalid adventure id %q", adventureID)
	}
	dir := filepath.Join(s.Root, adventureID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return content.Adventure{}, fmt.Errorf("%w: %s in %s", content.ErrAdventureNotFound, adventureID, s.Root)
		}
		return content.Adventure{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	return Load(dir)
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must not reseed: runs are replayed from the simulation seed.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}

func sortedLuaFiles(files []string) []string {
	var first string
	var others []string
	for _, f := range files {
		if f == "adventure.lua" {
			first = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if first != "" {
		return append([]string{first}, others...)
	}
	return others
}
