package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nathoo/questsim/cli"
	"github.com/nathoo/questsim/config"
	"github.com/nathoo/questsim/content"
	"github.com/nathoo/questsim/engine"
	"github.com/nathoo/questsim/engine/archetype"
	"github.com/nathoo/questsim/engine/rng"
	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/loader"
	"github.com/nathoo/questsim/probe"
	"github.com/nathoo/questsim/report"
	"github.com/nathoo/questsim/store/sqlite"
	"github.com/nathoo/questsim/tui"
	"github.com/nathoo/questsim/types"
)

// listRunsLimit caps -list output from the run history.
const listRunsLimit = 20

// source is an adventure source that can enumerate its adventures.
type source interface {
	content.Source
	List() ([]string, error)
}

// run executes one questsim invocation.
func run(ctx context.Context, cfg config.Config, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(errOut, log.Options{
		Prefix:          "questsim",
		ReportTimestamp: cfg.Verbose,
		Level:           level,
	})

	src := newSource(cfg)
	if cfg.List {
		if cfg.History != "" {
			return listRuns(ctx, cfg, out)
		}
		return listAdventures(src, out)
	}
	if cfg.AdventureID == "" {
		return errors.New("adventure id is required (try -list)")
	}

	sim, err := cfg.Simulation()
	if err != nil {
		return err
	}

	matcher := rules.Default()
	if cfg.RulesFile != "" {
		table, err := rules.LoadTable(cfg.RulesFile)
		if err != nil {
			return err
		}
		matcher = rules.NewMatcher(table)
	}

	players, err := resolveArchetypes(sim.Archetype)
	if err != nil {
		return err
	}
	// A panel shares one seed so its runs differ only by archetype.
	if len(players) > 1 && sim.Seed == 0 {
		if sim.Seed, err = rng.NewSeed(); err != nil {
			return fmt.Errorf("drawing seed: %w", err)
		}
	}

	gen := report.Generator{Matcher: matcher}
	reps := make([]types.SimulationReport, 0, len(players))
	for _, arch := range players {
		runCfg := sim
		runLogger := logger
		if arch != nil {
			runCfg.Archetype = arch.ID
			runLogger = logger.With("archetype", arch.ID)
		}

		r := engine.New(src, engine.Options{
			Config:    runCfg,
			Archetype: arch,
			Matcher:   matcher,
			Probe: probe.NewContentProbe(probe.Options{
				Timeout:     cfg.ProbeTimeout,
				ArtifactDir: cfg.ArtifactDir,
			}),
			Logger: runLogger,
		})
		tr, err := r.Run(ctx, cfg.AdventureID)
		if err != nil {
			return err
		}
		reps = append(reps, gen.Build(tr))
	}

	if err := writeOutputs(cfg, reps); err != nil {
		return err
	}
	if cfg.History != "" {
		if err := saveHistory(ctx, cfg.History, reps); err != nil {
			return err
		}
		logger.Info("runs recorded", "history", cfg.History, "count", len(reps))
	}

	if cfg.TUI && isTerminal() {
		return tui.Run(reps...)
	}
	cli.Print(out, reps...)
	return nil
}

func newSource(cfg config.Config) source {
	if cfg.Format == config.FormatYAML {
		return content.YAMLSource{Dir: cfg.Adventures}
	}
	return loader.Source{Root: cfg.Adventures}
}

// resolveArchetypes maps the archetype setting to the runs to make. A nil
// entry is a run without an archetype.
func resolveArchetypes(id string) ([]*types.PlayerArchetype, error) {
	catalog := archetype.NewCatalog()
	switch strings.ToLower(id) {
	case "":
		return []*types.PlayerArchetype{nil}, nil
	case config.ArchetypeAll:
		var out []*types.PlayerArchetype
		for _, a := range catalog.All() {
			out = append(out, &a)
		}
		return out, nil
	}
	a, ok := catalog.Get(strings.ToLower(id))
	if !ok {
		return nil, fmt.Errorf("unknown archetype %q (want %s or %s)", id, strings.Join(catalog.IDs(), ", "), config.ArchetypeAll)
	}
	return []*types.PlayerArchetype{&a}, nil
}

// writeOutputs writes the JSON and Markdown reports. A panel writes one
// file per archetype, suffixing the archetype id before the extension.
func writeOutputs(cfg config.Config, reps []types.SimulationReport) error {
	for _, rep := range reps {
		if cfg.JSONOut != "" {
			if err := report.WriteFile(outputPath(cfg.JSONOut, rep, len(reps)), rep); err != nil {
				return err
			}
		}
		if cfg.MarkdownOut != "" {
			path := outputPath(cfg.MarkdownOut, rep, len(reps))
			if err := os.WriteFile(path, []byte(report.Markdown(rep)), 0o644); err != nil {
				return fmt.Errorf("writing markdown report: %w", err)
			}
		}
	}
	return nil
}

func outputPath(path string, rep types.SimulationReport, n int) string {
	if n <= 1 || rep.Archetype == nil {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + rep.Archetype.Archetype.ID + ext
}

func saveHistory(ctx context.Context, path string, reps []types.SimulationReport) error {
	st, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, rep := range reps {
		if err := st.SaveRun(ctx, rep); err != nil {
			return err
		}
	}
	return nil
}

func listAdventures(src source, out io.Writer) error {
	ids, err := src.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No adventures found.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

func listRuns(ctx context.Context, cfg config.Config, out io.Writer) error {
	st, err := sqlite.Open(cfg.History)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, cfg.AdventureID, listRunsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		who := r.ArchetypeID
		if who == "" {
			who = "-"
		}
		fmt.Fprintf(out, "%s  %-12s %-12s seed %-20d %-22s scenes %d/%d  critical %d  warnings %d  valid critiques %d\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.AdventureID, who, r.Seed, r.Reason,
			r.ScenesCompleted, r.TotalScenes, r.CriticalIssues, r.Warnings, r.ValidCritiques)
	}
	return nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
