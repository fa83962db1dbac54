package dice

import (
	"math"
	"testing"

	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/types"
)

func TestRoll_BoundsForAllModes(t *testing.T) {
	modes := []types.DiceMode{
		types.DiceFair, types.DiceLucky, types.DiceUnlucky,
		types.DiceBlessed, types.DiceCursed,
	}
	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			e := New(rng.New(1), mode)
			for i := 0; i < 2000; i++ {
				res := e.Roll(10, 0)
				if res.Roll < 1 || res.Roll > 20 {
					t.Fatalf("roll out of range: %d", res.Roll)
				}
			}
		})
	}
}

func TestRoll_DegeneratePolicies(t *testing.T) {
	blessed := New(rng.New(5), types.DiceBlessed)
	cursed := New(rng.New(5), types.DiceCursed)

	for i := 0; i < 50; i++ {
		if r := blessed.Roll(30, 0); r.Roll != 20 || r.Critical != "success" {
			t.Fatalf("blessed roll = %+v, want natural 20 critical success", r)
		}
		if r := cursed.Roll(0, 5); r.Roll != 1 || r.Critical != "failure" {
			t.Fatalf("cursed roll = %+v, want natural 1 critical failure", r)
		}
	}
}

func TestRoll_WeightedMeans(t *testing.T) {
	const samples = 5000

	lucky := New(rng.New(77), types.DiceLucky)
	unlucky := New(rng.New(77), types.DiceUnlucky)
	for i := 0; i < samples; i++ {
		lucky.Roll(10, 0)
		unlucky.Roll(10, 0)
	}

	if m := lucky.Stats().Mean; m <= 10.5 {
		t.Errorf("lucky mean = %.2f, want > 10.5", m)
	}
	if m := unlucky.Stats().Mean; m >= 10.5 {
		t.Errorf("unlucky mean = %.2f, want < 10.5", m)
	}
}

func TestRoll_CriticalIndependentOfTotal(t *testing.T) {
	// Natural 20 still fails a DC 30 with no bonus.
	res := New(rng.New(1), types.DiceBlessed).Roll(30, 0)
	if res.Success {
		t.Error("expected failure against DC 30")
	}
	if res.Critical != "success" {
		t.Errorf("Critical = %q, want success", res.Critical)
	}

	// Natural 1 still beats DC 5 with +10.
	res = New(rng.New(1), types.DiceCursed).Roll(5, 10)
	if !res.Success {
		t.Error("expected success against DC 5 with +10")
	}
	if res.Critical != "failure" {
		t.Errorf("Critical = %q, want failure", res.Critical)
	}
}

func TestRoll_TotalAndSuccess(t *testing.T) {
	res := New(rng.New(1), types.DiceCursed).Roll(4, 3)
	if res.Total != 4 {
		t.Errorf("Total = %d, want 4", res.Total)
	}
	if !res.Success {
		t.Error("total equal to target should succeed")
	}
}

func TestStats_Accumulate(t *testing.T) {
	e := New(rng.New(9), types.DiceFair)
	sum := 0
	for i := 0; i < 100; i++ {
		sum += e.Roll(10, 0).Roll
	}

	s := e.Stats()
	if s.Count != 100 || len(s.Rolls) != 100 {
		t.Fatalf("count = %d, rolls = %d, want 100", s.Count, len(s.Rolls))
	}
	want := float64(sum) / 100
	if math.Abs(s.Mean-want) > 1e-9 {
		t.Errorf("Mean = %f, want %f", s.Mean, want)
	}

	high := 0
	crits, fumbles := 0, 0
	for _, r := range s.Rolls {
		if r >= 10 {
			high++
		}
		if r == 20 {
			crits++
		}
		if r == 1 {
			fumbles++
		}
	}
	if s.SuccessRate != float64(high)/100 {
		t.Errorf("SuccessRate = %f, want %f", s.SuccessRate, float64(high)/100)
	}
	if s.CriticalSuccesses != crits || s.CriticalFailures != fumbles {
		t.Errorf("crits = %d/%d, want %d/%d", s.CriticalSuccesses, s.CriticalFailures, crits, fumbles)
	}
}

func TestStats_CopyIsolated(t *testing.T) {
	e := New(rng.New(1), types.DiceFair)
	e.Roll(10, 0)
	s := e.Stats()
	s.Rolls[0] = 99
	if e.Stats().Rolls[0] == 99 {
		t.Error("Stats() should return a copy of the roll history")
	}
}

func TestPolicyFor_UnknownFallsBackToFair(t *testing.T) {
	e := New(rng.New(3), types.DiceMode("weird"))
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		seen[e.Roll(10, 0).Roll] = true
	}
	if len(seen) < 15 {
		t.Errorf("expected fair spread, saw %d distinct values", len(seen))
	}
}
