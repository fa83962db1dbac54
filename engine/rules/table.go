// Package rules is the heuristic matcher: the keyword and substring rules
// used to decide whether content supports a creative action and whether a
// critique relates to known adventure knowledge. All vocabulary lives in a
// Table so it can be swapped or tuned from a YAML file.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Table is the vocabulary the matcher works from.
type Table struct {
	// ActionSupport maps an action verb to words whose presence in a
	// trigger, challenge or exit counts as content support for it.
	ActionSupport map[string][]string `yaml:"action_support"`

	Betrayal     []string `yaml:"betrayal"`
	Alliance     []string `yaml:"alliance"`
	Opposite     []string `yaml:"opposite"`
	PlayerChoice []string `yaml:"player_choice"`
	ToneMarkers  []string `yaml:"tone_markers"`
	CombatSkills []string `yaml:"combat_skills"`
	CombatWords  []string `yaml:"combat_words"`
}

// DefaultTable returns the built-in vocabulary.
func DefaultTable() Table {
	return Table{
		ActionSupport: map[string][]string{
			"betray":      {"betray", "double-cross", "treachery", "backstab"},
			"ally":        {"ally", "alliance", "pact", "join", "truce"},
			"negotiate":   {"negotiate", "bargain", "bribe", "deal", "parley"},
			"refuse":      {"refuse", "decline", "reject", "walk away"},
			"ignore":      {"ignore", "bypass", "skip"},
			"search":      {"search", "investigate", "examine", "hidden", "clue"},
			"interrogate": {"interrogate", "question", "confess", "interview"},
			"talk":        {"talk", "conversation", "persuade", "rumor"},
			"comfort":     {"comfort", "console", "grief", "mourn"},
			"persuade":    {"persuade", "convince", "charm", "presence"},
			"deceive":     {"deceive", "bluff", "lie", "disguise"},
			"intimidate":  {"intimidate", "threaten", "menace"},
			"sneak":       {"sneak", "stealth", "hide", "shadow"},
			"climb":       {"climb", "wall", "cliff", "rope", "athletics"},
			"escape":      {"escape", "flee", "exit", "retreat"},
			"attack":      {"attack", "fight", "combat", "ambush", "battle"},
			"break":       {"break", "smash", "force", "shatter"},
			"burn":        {"burn", "fire", "flame", "torch"},
			"steal":       {"steal", "pickpocket", "theft", "loot"},
			"oppose":      {"defy", "oppose", "rebel"},
		},
		Betrayal:     []string{"betray", "double-cross", "backstab", "treachery", "turn on"},
		Alliance:     []string{"ally", "alliance", "side with", "team up", "join the"},
		Opposite:     []string{"opposite of what", "contrary to"},
		PlayerChoice: []string{"refuse", "ignore", "decline", "walk away", "skip"},
		ToneMarkers:  []string{"noir", "grief", "mourning", "melancholy", "bleak"},
		CombatSkills: []string{"Agility", "Strength", "Attack", "Melee", "Ranged", "Combat"},
		CombatWords:  []string{"fight", "combat", "attack", "ambush", "battle", "duel", "brawl"},
	}
}

// LoadTable reads a YAML table from path and merges it over the defaults.
// Non-empty lists replace the default list; action_support entries replace
// the default entry for the same verb.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read rules table: %w", err)
	}
	var over Table
	if err := yaml.Unmarshal(data, &over); err != nil {
		return Table{}, fmt.Errorf("parse rules table %s: %w", path, err)
	}
	return Merge(DefaultTable(), over), nil
}

// Merge layers over on top of base.
func Merge(base, over Table) Table {
	out := base
	out.ActionSupport = make(map[string][]string, len(base.ActionSupport))
	for k, v := range base.ActionSupport {
		out.ActionSupport[k] = v
	}
	for k, v := range over.ActionSupport {
		out.ActionSupport[k] = v
	}
	pick := func(b, o []string) []string {
		if len(o) > 0 {
			return o
		}
		return b
	}
	out.Betrayal = pick(base.Betrayal, over.Betrayal)
	out.Alliance = pick(base.Alliance, over.Alliance)
	out.Opposite = pick(base.Opposite, over.Opposite)
	out.PlayerChoice = pick(base.PlayerChoice, over.PlayerChoice)
	out.ToneMarkers = pick(base.ToneMarkers, over.ToneMarkers)
	out.CombatSkills = pick(base.CombatSkills, over.CombatSkills)
	out.CombatWords = pick(base.CombatWords, over.CombatWords)
	return out
}
