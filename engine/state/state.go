// Package state holds the run-scoped mutable state: the single player
// record and the NPC registry. Both are owned by one runner and mutated
// only through the accessor methods here.
package state

import (
	"sort"

	"github.com/nathoo/questsim/types"
)

// DispositionMin and DispositionMax bound an NPC's disposition score.
const (
	DispositionMin = -100
	DispositionMax = 100
)

// ReferenceBuild is the skill-bonus table of the reference character the
// synthetic player uses. Skill names are matched case-sensitively.
var ReferenceBuild = map[string]int{
	"Agility":       1,
	"Strength":      1,
	"Finesse":       2,
	"Instinct":      2,
	"Presence":      1,
	"Knowledge":     0,
	"Athletics":     2,
	"Perception":    2,
	"Investigation": 1,
	"Stealth":       1,
	"Persuasion":    1,
	"Insight":       1,
	"Survival":      0,
}

// WoundOutcome reports the result of a wound application.
type WoundOutcome struct {
	Before    int
	After     int
	NearDeath bool // wounds landed exactly on max-1
	Dead      bool // wounds reached or passed max
}

// Player tracks the single player record for a run.
type Player struct {
	wounds    int
	woundsMax int
	inventory []string
	flags     map[string]bool
	skills    map[string]int
}

// NewPlayer creates a player with no wounds and the given skill table.
// A nil skills map uses ReferenceBuild.
func NewPlayer(woundsMax int, skills map[string]int) *Player {
	if skills == nil {
		skills = ReferenceBuild
	}
	p := &Player{
		woundsMax: woundsMax,
		inventory: []string{},
		flags:     map[string]bool{},
		skills:    make(map[string]int, len(skills)),
	}
	for k, v := range skills {
		p.skills[k] = v
	}
	return p
}

// Wounds returns the current wound count.
func (p *Player) Wounds() int { return p.wounds }

// WoundsMax returns the configured wound threshold.
func (p *Player) WoundsMax() int { return p.woundsMax }

// Dead reports whether wounds have reached the threshold.
func (p *Player) Dead() bool { return p.wounds >= p.woundsMax }

// DealWound increases wounds by n. Non-positive n is a no-op.
func (p *Player) DealWound(n int) WoundOutcome {
	out := WoundOutcome{Before: p.wounds}
	if n > 0 {
		p.wounds += n
	}
	out.After = p.wounds
	out.Dead = p.wounds >= p.woundsMax
	out.NearDeath = n > 0 && !out.Dead && p.wounds == p.woundsMax-1
	return out
}

// HealWound reduces wounds by n, never below zero.
func (p *Player) HealWound(n int) int {
	if n <= 0 {
		return p.wounds
	}
	p.wounds = max(0, p.wounds-n)
	return p.wounds
}

// SetFlag sets a flag on the player.
func (p *Player) SetFlag(name string) { p.flags[name] = true }

// ClearFlag removes a flag.
func (p *Player) ClearFlag(name string) { delete(p.flags, name) }

// HasFlag returns true if the flag is set. Unset flags return false.
func (p *Player) HasFlag(name string) bool { return p.flags[name] }

// AddItem appends an item to the inventory if not already held.
func (p *Player) AddItem(id string) {
	if !p.HasItem(id) {
		p.inventory = append(p.inventory, id)
	}
}

// RemoveItem drops an item from the inventory.
func (p *Player) RemoveItem(id string) {
	for i, v := range p.inventory {
		if v == id {
			p.inventory = append(p.inventory[:i], p.inventory[i+1:]...)
			return
		}
	}
}

// HasItem returns true if the player holds the given item.
func (p *Player) HasItem(id string) bool {
	for _, v := range p.inventory {
		if v == id {
			return true
		}
	}
	return false
}

// SkillBonus returns the bonus for a skill, or 0 when unmapped.
func (p *Player) SkillBonus(skill string) int {
	return p.skills[skill]
}

// Snapshot returns a copy of the player record with flags sorted.
func (p *Player) Snapshot() types.PlayerState {
	flags := make([]string, 0, len(p.flags))
	for f := range p.flags {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	skills := make(map[string]int, len(p.skills))
	for k, v := range p.skills {
		skills[k] = v
	}
	return types.PlayerState{
		Wounds:       p.wounds,
		WoundsMax:    p.woundsMax,
		Inventory:    append([]string{}, p.inventory...),
		Flags:        flags,
		SkillBonuses: skills,
	}
}

// Continuity is the verdict on an NPC state change between scenes.
type Continuity int

const (
	ContinuityOK Continuity = iota
	ContinuityReview
	ContinuityViolation
)

// Transition describes what Register observed for one NPC.
type Transition struct {
	NPCID     string
	FromScene string
	ToScene   string
	From      types.NPCState
	To        types.NPCState
	Verdict   Continuity
}

// CheckContinuity classifies a state change. defeated -> active is a
// violation, absent -> active needs review, everything else is fine.
func CheckContinuity(from, to types.NPCState) Continuity {
	if to != types.NPCActive {
		return ContinuityOK
	}
	switch from {
	case types.NPCDefeated:
		return ContinuityViolation
	case types.NPCAbsent:
		return ContinuityReview
	}
	return ContinuityOK
}

// NPCRegistry holds one tracker per NPC id across the whole run.
type NPCRegistry struct {
	npcs map[string]*types.NPCTracker
}

// NewNPCRegistry creates an empty registry.
func NewNPCRegistry() *NPCRegistry {
	return &NPCRegistry{npcs: map[string]*types.NPCTracker{}}
}

// Register records that ref appears in sceneID and returns the continuity
// verdict against its previously known state. References with no state
// are treated as active.
func (r *NPCRegistry) Register(sceneID string, ref types.NPCReference) Transition {
	st := ref.State
	if st == "" {
		st = types.NPCActive
	}
	tr := Transition{NPCID: ref.ID, ToScene: sceneID, To: st}

	t, ok := r.npcs[ref.ID]
	if !ok {
		r.npcs[ref.ID] = &types.NPCTracker{
			ID:            ref.ID,
			Name:          ref.Name,
			State:         st,
			LastSeenScene: sceneID,
		}
		return tr
	}

	tr.FromScene = t.LastSeenScene
	tr.From = t.State
	tr.Verdict = CheckContinuity(t.State, st)
	t.State = st
	t.LastSeenScene = sceneID
	if t.Name == "" {
		t.Name = ref.Name
	}
	return tr
}

// Interact increments the NPC's interaction counter and returns the new
// count. Unknown NPCs return 0.
func (r *NPCRegistry) Interact(id string) int {
	t, ok := r.npcs[id]
	if !ok {
		return 0
	}
	t.InteractionCount++
	return t.InteractionCount
}

// SetState overrides an NPC's lifecycle state. Returns false if unknown.
func (r *NPCRegistry) SetState(id string, st types.NPCState) bool {
	t, ok := r.npcs[id]
	if !ok {
		return false
	}
	t.State = st
	return true
}

// AdjustDisposition shifts disposition by delta, clamped to the valid
// range, and returns the new value.
func (r *NPCRegistry) AdjustDisposition(id string, delta int) (int, bool) {
	t, ok := r.npcs[id]
	if !ok {
		return 0, false
	}
	t.Disposition = min(DispositionMax, max(DispositionMin, t.Disposition+delta))
	return t.Disposition, true
}

// Get returns a copy of one tracker.
func (r *NPCRegistry) Get(id string) (types.NPCTracker, bool) {
	t, ok := r.npcs[id]
	if !ok {
		return types.NPCTracker{}, false
	}
	return *t, true
}

// Len returns the number of tracked NPCs.
func (r *NPCRegistry) Len() int { return len(r.npcs) }

// Snapshot returns copies of every tracker sorted by id.
func (r *NPCRegistry) Snapshot() []types.NPCTracker {
	out := make([]types.NPCTracker, 0, len(r.npcs))
	for _, t := range r.npcs {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
