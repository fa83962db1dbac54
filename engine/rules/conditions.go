package rules

import (
	"strings"

	"github.com/nathoo/questsim/types"
)

// FlagChecker is anything that can answer flag queries, typically the
// player tracker.
type FlagChecker interface {
	HasFlag(name string) bool
}

// EvalRequirement evaluates one flag requirement. A leading "!" negates it.
// An empty requirement is vacuously true.
func EvalRequirement(req string, f FlagChecker) bool {
	req = strings.TrimSpace(req)
	if req == "" {
		return true
	}
	if neg, ok := strings.CutPrefix(req, "!"); ok {
		return !f.HasFlag(neg)
	}
	return f.HasFlag(req)
}

// EvalAll returns true if all requirements pass (AND logic).
// An empty list is vacuously true.
func EvalAll(reqs []string, f FlagChecker) bool {
	for _, r := range reqs {
		if !EvalRequirement(r, f) {
			return false
		}
	}
	return true
}

// ExitOpen reports whether an exit's flag gate is satisfied.
func ExitOpen(e types.Exit, f FlagChecker) bool {
	return EvalRequirement(e.RequiresFlag, f)
}
