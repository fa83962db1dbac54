// Package config assembles the command configuration from the environment,
// flags and an optional YAML simulation file, and validates the simulation
// enums before they reach the engine.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/questsim/engine"
	"github.com/nathoo/questsim/engine/dice"
	"github.com/nathoo/questsim/engine/policy"
	"github.com/nathoo/questsim/types"
)

// Content formats.
const (
	FormatLua  = "lua"
	FormatYAML = "yaml"
)

// ArchetypeAll runs one simulation per catalog archetype.
const ArchetypeAll = "all"

// Simulation defaults applied by Normalize.
const (
	DefaultDiceMode       = types.DiceFair
	DefaultGMBehavior     = types.GMThorough
	DefaultPlayerBehavior = types.PlayerThorough
)

// Config holds the questsim command configuration.
type Config struct {
	Adventures   string        `env:"QUESTSIM_ADVENTURES"    envDefault:"adventures"`
	Format       string        `env:"QUESTSIM_FORMAT"        envDefault:"lua"`
	SimFile      string        `env:"QUESTSIM_SIM_FILE"`
	RulesFile    string        `env:"QUESTSIM_RULES_FILE"`
	JSONOut      string        `env:"QUESTSIM_JSON_OUT"`
	MarkdownOut  string        `env:"QUESTSIM_MARKDOWN_OUT"`
	ArtifactDir  string        `env:"QUESTSIM_ARTIFACT_DIR"`
	History      string        `env:"QUESTSIM_HISTORY"`
	ProbeTimeout time.Duration `env:"QUESTSIM_PROBE_TIMEOUT" envDefault:"2s"`
	Verbose      bool          `env:"QUESTSIM_VERBOSE"`
	TUI          bool          `env:"QUESTSIM_TUI"`
	List         bool

	// Simulation overrides. Zero values leave the simulation file (or the
	// Normalize defaults) in place.
	Seed             int64  `env:"QUESTSIM_SEED"`
	DiceMode         string `env:"QUESTSIM_DICE"`
	GMBehavior       string `env:"QUESTSIM_GM"`
	PlayerBehavior   string `env:"QUESTSIM_PLAYER"`
	Archetype        string `env:"QUESTSIM_ARCHETYPE"`
	MaxScenes        int    `env:"QUESTSIM_MAX_SCENES"`
	MaxTurnsPerScene int    `env:"QUESTSIM_MAX_TURNS"`
	MaxWounds        int    `env:"QUESTSIM_MAX_WOUNDS"`
	MaxSceneVisits   int    `env:"QUESTSIM_MAX_VISITS"`
	RandomOrder      bool   `env:"QUESTSIM_RANDOM_ORDER"`

	// AdventureID is the first positional argument.
	AdventureID string
}

// ParseConfig parses the environment, then flags, into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Adventures, "dir", cfg.Adventures, "adventure directory")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "content format: lua or yaml")
	fs.StringVar(&cfg.SimFile, "sim", cfg.SimFile, "YAML simulation config file")
	fs.StringVar(&cfg.RulesFile, "rules", cfg.RulesFile, "YAML heuristic rules table merged over the defaults")
	fs.StringVar(&cfg.JSONOut, "json", cfg.JSONOut, "write the JSON report to this path")
	fs.StringVar(&cfg.MarkdownOut, "md", cfg.MarkdownOut, "write the Markdown report to this path")
	fs.StringVar(&cfg.ArtifactDir, "artifacts", cfg.ArtifactDir, "directory for lookup diagnostics")
	fs.StringVar(&cfg.History, "history", cfg.History, "SQLite run history database")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "timeout per probe strategy")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "open the report explorer")
	fs.BoolVar(&cfg.List, "list", cfg.List, "list adventures (or stored runs with -history) and exit")

	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed (0 draws one)")
	fs.StringVar(&cfg.DiceMode, "dice", cfg.DiceMode, "dice mode: fair, lucky, unlucky, blessed, cursed")
	fs.StringVar(&cfg.GMBehavior, "gm", cfg.GMBehavior, "GM behavior: thorough, efficient, dramatic, random, adversarial, supportive")
	fs.StringVar(&cfg.PlayerBehavior, "player", cfg.PlayerBehavior, "player behavior: cautious, aggressive, thorough, speedrun, random, optimal")
	fs.StringVar(&cfg.Archetype, "archetype", cfg.Archetype, "player archetype id, or \"all\" for a panel")
	fs.IntVar(&cfg.MaxScenes, "max-scenes", cfg.MaxScenes, "limit the number of scenes played")
	fs.IntVar(&cfg.MaxTurnsPerScene, "max-turns", cfg.MaxTurnsPerScene, "turn budget per scene (0 is unlimited)")
	fs.IntVar(&cfg.MaxWounds, "max-wounds", cfg.MaxWounds, "wounds that kill the player")
	fs.IntVar(&cfg.MaxSceneVisits, "max-visits", cfg.MaxSceneVisits, "visits per scene before a loop is declared (0 is unlimited)")
	fs.BoolVar(&cfg.RandomOrder, "shuffle", cfg.RandomOrder, "play the selected scenes in random order")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.AdventureID = fs.Arg(0)

	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format != FormatLua && cfg.Format != FormatYAML {
		return Config{}, fmt.Errorf("unknown format %q (want lua or yaml)", cfg.Format)
	}
	return cfg, nil
}

// Simulation builds the simulation config: the simulation file if any,
// then every non-zero override, then Normalize.
func (c Config) Simulation() (types.SimulationConfig, error) {
	var sim types.SimulationConfig
	if c.SimFile != "" {
		var err error
		if sim, err = LoadSimulation(c.SimFile); err != nil {
			return types.SimulationConfig{}, err
		}
	}

	if c.Seed != 0 {
		sim.Seed = c.Seed
	}
	if c.DiceMode != "" {
		sim.DiceMode = types.DiceMode(c.DiceMode)
	}
	if c.GMBehavior != "" {
		sim.GMBehavior = types.GMBehavior(c.GMBehavior)
	}
	if c.PlayerBehavior != "" {
		sim.PlayerBehavior = types.PlayerBehavior(c.PlayerBehavior)
	}
	if c.Archetype != "" {
		sim.Archetype = c.Archetype
	}
	if c.MaxScenes != 0 {
		sim.MaxScenes = c.MaxScenes
	}
	if c.MaxTurnsPerScene != 0 {
		sim.MaxTurnsPerScene = c.MaxTurnsPerScene
	}
	if c.MaxWounds != 0 {
		sim.PlayerMaxWounds = c.MaxWounds
	}
	if c.MaxSceneVisits != 0 {
		sim.MaxSceneVisits = c.MaxSceneVisits
	}
	if c.RandomOrder {
		sim.RandomOrder = true
	}
	return Normalize(sim)
}

// LoadSimulation reads a YAML simulation file.
func LoadSimulation(path string) (types.SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.SimulationConfig{}, fmt.Errorf("reading simulation file: %w", err)
	}
	var sim types.SimulationConfig
	if err := yaml.Unmarshal(data, &sim); err != nil {
		return types.SimulationConfig{}, fmt.Errorf("parsing simulation file %s: %w", path, err)
	}
	return sim, nil
}

// Normalize fills empty enums with their defaults and rejects unknown
// values. Enum values are matched case-insensitively.
func Normalize(sim types.SimulationConfig) (types.SimulationConfig, error) {
	var errs []error

	sim.DiceMode = types.DiceMode(fold(string(sim.DiceMode)))
	switch _, ok := dice.Policies[sim.DiceMode]; {
	case sim.DiceMode == "":
		sim.DiceMode = DefaultDiceMode
	case !ok:
		errs = append(errs, fmt.Errorf("unknown dice mode %q", sim.DiceMode))
	}

	sim.GMBehavior = types.GMBehavior(fold(string(sim.GMBehavior)))
	switch _, ok := policy.GMTriggers[sim.GMBehavior]; {
	case sim.GMBehavior == "":
		sim.GMBehavior = DefaultGMBehavior
	case !ok:
		errs = append(errs, fmt.Errorf("unknown GM behavior %q", sim.GMBehavior))
	}

	sim.PlayerBehavior = types.PlayerBehavior(fold(string(sim.PlayerBehavior)))
	switch _, ok := policy.PlayerInteractions[sim.PlayerBehavior]; {
	case sim.PlayerBehavior == "":
		sim.PlayerBehavior = DefaultPlayerBehavior
	case !ok:
		errs = append(errs, fmt.Errorf("unknown player behavior %q", sim.PlayerBehavior))
	}

	if sim.PlayerMaxWounds <= 0 {
		sim.PlayerMaxWounds = engine.DefaultMaxWounds
	}
	if sim.MaxTurnsPerScene < 0 {
		errs = append(errs, fmt.Errorf("max turns per scene must not be negative"))
	}
	if sim.MaxSceneVisits < 0 {
		errs = append(errs, fmt.Errorf("max scene visits must not be negative"))
	}
	sim.Archetype = strings.TrimSpace(sim.Archetype)

	if err := errors.Join(errs...); err != nil {
		return types.SimulationConfig{}, err
	}
	return sim, nil
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
