package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nathoo/questsim/types"
)

// Save serializes a report to indented JSON.
func Save(rep types.SimulationReport) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// Load deserializes a JSON report.
func Load(data []byte) (*types.SimulationReport, error) {
	var rep types.SimulationReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	// Ensure lists are never nil after load.
	rep.NPCs = nonNil(rep.NPCs)
	rep.SceneAnalyses = nonNil(rep.SceneAnalyses)
	rep.Recommendations = nonNil(rep.Recommendations)
	rep.Lookups = nonNil(rep.Lookups)
	rep.Events = nonNil(rep.Events)
	rep.Issues = nonNil(rep.Issues)
	rep.DiceStats.Rolls = nonNil(rep.DiceStats.Rolls)
	if rep.Player.Inventory == nil {
		rep.Player.Inventory = []string{}
	}
	if rep.Player.Flags == nil {
		rep.Player.Flags = []string{}
	}
	if rep.Player.SkillBonuses == nil {
		rep.Player.SkillBonuses = map[string]int{}
	}
	return &rep, nil
}

// WriteFile saves a report to path.
func WriteFile(path string, rep types.SimulationReport) error {
	data, err := Save(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadFile loads a report from path.
func ReadFile(path string) (*types.SimulationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	rep, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return rep, nil
}
