// Package content defines where adventures come from and canonicalizes
// their loosely shaped scene data into types.Scene exactly once.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/questsim/types"
)

// ErrAdventureNotFound is returned by sources that do not know an id.
var ErrAdventureNotFound = errors.New("adventure not found")

// Source serves scenes and the GM guide for an adventure. Implementations
// must be idempotent and side-effect free.
type Source interface {
	FetchScenes(ctx context.Context, adventureID string) ([]types.Scene, error)
	FetchGuide(ctx context.Context, adventureID string) (map[string]any, error)
}

// Adventure is a fully normalized adventure.
type Adventure struct {
	ID     string
	Title  string
	Scenes []types.Scene
	Guide  map[string]any
}

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Validate checks scene ids and references. Duplicate or empty ids are
// errors; dangling exits and next-scene pointers are warnings, since the
// runner reports them rather than refusing to play.
func Validate(scenes []types.Scene) (warnings []string, err error) {
	ve := &ValidationError{}
	ids := map[string]bool{}
	for i, s := range scenes {
		if s.ID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("scene #%d has no id", i+1))
			continue
		}
		if ids[s.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate scene id %q", s.ID))
		}
		ids[s.ID] = true
	}

	for _, s := range scenes {
		for _, e := range s.Exits {
			if !ids[e.Target] {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"scene %q exit points to undefined scene %q", s.ID, e.Target))
			}
		}
		if s.NextScene != "" && !ids[s.NextScene] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"scene %q next scene %q is not defined", s.ID, s.NextScene))
		}
		seen := map[string]bool{}
		for _, n := range s.NPCs {
			if seen[n.ID] {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"scene %q lists npc %q twice", s.ID, n.ID))
			}
			seen[n.ID] = true
		}
	}

	if len(ve.Errors) > 0 {
		return ve.Warnings, ve
	}
	return ve.Warnings, nil
}

// Static is an in-memory Source.
type Static struct {
	adventures map[string]Adventure
}

// NewStatic returns a Static source serving the given adventures.
func NewStatic(advs ...Adventure) *Static {
	s := &Static{adventures: map[string]Adventure{}}
	for _, a := range advs {
		s.adventures[a.ID] = a
	}
	return s
}

// FetchScenes returns a copy of the adventure's scene list.
func (s *Static) FetchScenes(ctx context.Context, adventureID string) ([]types.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := s.adventures[adventureID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdventureNotFound, adventureID)
	}
	return append([]types.Scene(nil), a.Scenes...), nil
}

// FetchGuide returns the adventure's guide payload. Missing guides are an
// empty map, not an error.
func (s *Static) FetchGuide(ctx context.Context, adventureID string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := s.adventures[adventureID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdventureNotFound, adventureID)
	}
	if a.Guide == nil {
		return map[string]any{}, nil
	}
	return a.Guide, nil
}

// IDs returns the known adventure ids, sorted.
func (s *Static) IDs() []string {
	ids := make([]string, 0, len(s.adventures))
	for id := range s.adventures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
