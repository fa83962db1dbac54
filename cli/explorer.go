package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/questsim/report"
	"github.com/nathoo/questsim/types"
)

// Explorer answers queries about one or more reports. A panel run holds
// one report per archetype; queries apply to the current one.
type Explorer struct {
	Reports []types.SimulationReport
	// SaveDir receives /save and /md output given a bare name.
	SaveDir string

	current int
	lastCmd string // for "again"/"g" repeat
}

// NewExplorer creates an explorer over reps, starting at the first.
func NewExplorer(reps ...types.SimulationReport) *Explorer {
	return &Explorer{Reports: reps, SaveDir: "."}
}

// Current returns the report queries apply to, or nil.
func (e *Explorer) Current() *types.SimulationReport {
	if len(e.Reports) == 0 {
		return nil
	}
	return &e.Reports[e.current]
}

// Index returns the position of the current report in the panel.
func (e *Explorer) Index() int { return e.current }

// Exec runs one command line. It returns the output lines and whether the
// session should end.
func (e *Explorer) Exec(input string) ([]string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if e.lastCmd == "" {
			return []string{"Nothing to repeat."}, false
		}
		input = e.lastCmd
	} else {
		e.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		return e.handleMeta(input)
	}
	if e.Current() == nil {
		return []string{"No report loaded."}, false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	var arg string
	if len(parts) > 1 {
		arg = strings.Join(parts[1:], " ")
	}

	switch cmd {
	case "summary", "s":
		return SummaryLines(*e.Current()), false
	case "scenes":
		return e.scenes(), false
	case "scene":
		return e.scene(arg), false
	case "issues", "i":
		return e.issues(arg), false
	case "recs", "r":
		return e.recs(), false
	case "coherence", "c":
		return e.coherence(), false
	case "critique", "critiques":
		return e.critique(arg), false
	case "dice", "d":
		return e.dice(), false
	case "lookups", "l":
		return e.lookups(arg), false
	case "npcs":
		return e.npcs(), false
	case "events", "e":
		return e.events(arg), false
	case "runs":
		return e.runs(), false
	case "use":
		return e.use(arg), false
	default:
		return []string{fmt.Sprintf("Unknown query: %s. Type /help for available commands.", cmd)}, false
	}
}

// handleMeta dispatches meta-commands.
func (e *Explorer) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true
	case "/help":
		return HelpLines(), false
	case "/save":
		return e.write(arg, ".json", func(path string, rep types.SimulationReport) error {
			return report.WriteFile(path, rep)
		}), false
	case "/md":
		return e.write(arg, ".md", func(path string, rep types.SimulationReport) error {
			return os.WriteFile(path, []byte(report.Markdown(rep)), 0o644)
		}), false
	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (e *Explorer) write(name, ext string, fn func(string, types.SimulationReport) error) []string {
	rep := e.Current()
	if rep == nil {
		return []string{"No report loaded."}
	}
	if name == "" {
		name = "report-" + shortID(rep.Meta.RunID)
	}
	path := name
	if filepath.Ext(path) == "" {
		path += ext
	}
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		if err := os.MkdirAll(e.SaveDir, 0o755); err != nil {
			return []string{fmt.Sprintf("[Save failed: %v]", err)}
		}
		path = filepath.Join(e.SaveDir, path)
	}
	if err := fn(path, *rep); err != nil {
		return []string{fmt.Sprintf("[Save failed: %v]", err)}
	}
	return []string{fmt.Sprintf("[Report written to %s.]", path)}
}

// Commands lists every query and meta-command name, for completion.
var Commands = []string{
	"summary", "scenes", "scene", "issues", "recs", "coherence", "critique",
	"dice", "lookups", "npcs", "events", "runs", "use", "again",
	"/save", "/md", "/help", "/quit",
}

// HelpLines lists the explorer commands.
func HelpLines() []string {
	return []string{
		"Queries:",
		"  summary (s)            - Outcome and counters",
		"  scenes                 - Per-scene metrics",
		"  scene <id>             - One scene in detail",
		"  issues (i) [severity]  - Issue log, optionally critical/warning/info",
		"  recs (r)               - Recommendations",
		"  coherence (c)          - Breadcrumbs, pacing, continuity, gaps",
		"  critique [bucket]      - Archetype feedback by GM verdict",
		"  dice (d)               - Roll statistics",
		"  lookups (l) [failed]   - Question lookups",
		"  npcs                   - NPC trackers",
		"  events (e) [type]      - Raw event log",
		"  runs                   - Reports in this panel",
		"  use <n>                - Switch to report n",
		"  again (g)              - Repeat the last command",
		"",
		"System:",
		"  /save [name]  - Write the JSON report",
		"  /md [name]    - Write the Markdown report",
		"  /help         - Show this help",
		"  /quit         - Exit",
	}
}

// SummaryLines renders the headline of a report.
func SummaryLines(rep types.SimulationReport) []string {
	s := rep.Summary
	t := rep.Termination
	lines := []string{
		fmt.Sprintf("== %s (%s) ==", rep.Meta.AdventureID, shortID(rep.Meta.RunID)),
		fmt.Sprintf("Seed %d | dice %s | GM %s | player %s", rep.Meta.Seed,
			rep.Meta.Config.DiceMode, rep.Meta.Config.GMBehavior, rep.Meta.Config.PlayerBehavior),
	}
	if rep.Archetype != nil {
		lines = append(lines, "Archetype: "+rep.Archetype.Archetype.Name)
	}
	outcome := fmt.Sprintf("Outcome: %s", t.Reason)
	if t.SceneID != "" {
		outcome += fmt.Sprintf(" at %s (#%d)", t.SceneID, t.SceneIndex)
	}
	if t.Message != "" {
		outcome += ": " + t.Message
	}
	lines = append(lines,
		outcome,
		fmt.Sprintf("Scenes %d/%d | checks %d/%d | triggers %d | NPC talks %d",
			s.ScenesCompleted, s.TotalScenes, s.ChecksPassed, s.ChecksAttempted, s.TriggersFired, s.NPCsInteracted),
		fmt.Sprintf("Wounds %d/%d (taken %d) | deaths %d", rep.Player.Wounds, rep.Player.WoundsMax, s.WoundsTaken, s.Deaths),
		fmt.Sprintf("Issues: %d critical, %d warnings, %d info", s.CriticalIssues, s.Warnings, s.InfoIssues),
		fmt.Sprintf("Lookups: %d, %d unanswered | pacing %d/100 | breadcrumbs %s",
			s.Lookups, s.LookupsFailed, rep.Coherence.Pacing.Score, rep.Coherence.Breadcrumbs.Strength),
	)
	if gv := rep.GMValidated; gv != nil {
		lines = append(lines, fmt.Sprintf("Critiques: %d valid, %d intentional, %d GM discretion, %d false positives",
			gv.Summary.ValidIssues, gv.Summary.IntentionalDesign, gv.Summary.GMDiscretion, gv.Summary.FalsePositive))
	}
	return lines
}

func (e *Explorer) scenes() []string {
	rep := e.Current()
	if len(rep.SceneAnalyses) == 0 {
		return []string{"No scenes were played."}
	}
	lines := []string{"== Scenes =="}
	for i, a := range rep.SceneAnalyses {
		flag := ""
		if !a.Completed {
			flag = " (interrupted)"
		}
		if !a.HasExitPath {
			flag += " (dead end)"
		}
		lines = append(lines, fmt.Sprintf("%2d %-16s checks %d/%d wounds %d triggers %d/%d npcs %d/%d turns %d%s",
			i, a.ID, a.ChecksPassed, a.ChecksAttempted, a.WoundsTaken,
			a.TriggersFired, a.TriggersAvailable, a.NPCsInteracted, a.NPCsPresent, a.Turns, flag))
	}
	return lines
}

func (e *Explorer) scene(id string) []string {
	rep := e.Current()
	if id == "" {
		return []string{"Which scene? Usage: scene <id>"}
	}
	for _, a := range rep.SceneAnalyses {
		if a.ID != id {
			continue
		}
		lines := []string{
			fmt.Sprintf("== %s ==", sceneTitle(a)),
			fmt.Sprintf("Completed: %t | exit path: %t | turns: %d", a.Completed, a.HasExitPath, a.Turns),
			fmt.Sprintf("Checks %d/%d | wounds %d | triggers %d/%d | NPCs %d/%d",
				a.ChecksPassed, a.ChecksAttempted, a.WoundsTaken, a.TriggersFired, a.TriggersAvailable, a.NPCsInteracted, a.NPCsPresent),
		}
		if len(a.ExitsTaken) > 0 {
			lines = append(lines, "Exits taken: "+strings.Join(a.ExitsTaken, ", "))
		}
		for _, is := range rep.Issues {
			if is.SceneID == id {
				lines = append(lines, issueLine(is))
			}
		}
		if rep.Archetype != nil {
			for _, f := range rep.Archetype.Feedback {
				if f.SceneID == id {
					lines = append(lines, feedbackLine(f))
				}
			}
		}
		return lines
	}
	return []string{fmt.Sprintf("No scene %q in this run.", id)}
}

func (e *Explorer) issues(severity string) []string {
	rep := e.Current()
	var lines []string
	for _, is := range rep.Issues {
		if severity != "" && !strings.EqualFold(string(is.Severity), severity) {
			continue
		}
		lines = append(lines, issueLine(is))
	}
	if len(lines) == 0 {
		return []string{"No issues."}
	}
	return append([]string{"== Issues =="}, lines...)
}

func (e *Explorer) recs() []string {
	rep := e.Current()
	if len(rep.Recommendations) == 0 {
		return []string{"No recommendations."}
	}
	lines := []string{"== Recommendations =="}
	for _, r := range rep.Recommendations {
		line := fmt.Sprintf("(%s) %s: %s", r.Priority, r.Type, r.Message)
		if len(r.Scenes) > 0 {
			line += " [" + strings.Join(r.Scenes, ", ") + "]"
		}
		lines = append(lines, line)
	}
	return lines
}

func (e *Explorer) coherence() []string {
	c := e.Current().Coherence
	lines := []string{
		"== Coherence ==",
		fmt.Sprintf("Breadcrumbs: %s (%d strong, %d weak of %d pairs)",
			c.Breadcrumbs.Strength, c.Breadcrumbs.StrongPairs, c.Breadcrumbs.WeakPairs, c.Breadcrumbs.Pairs),
		fmt.Sprintf("Pacing: %d/100 (action %.0f%%, social %.0f%%, exploration %.0f%%)",
			c.Pacing.Score, c.Pacing.Action*100, c.Pacing.Social*100, c.Pacing.Exploration*100),
	}
	for _, r := range c.ForwardReferences {
		lines = append(lines, fmt.Sprintf("Forward: %s mentions %s (%s)", r.FromScene, r.Location, r.ToScene))
	}
	for _, r := range c.BackwardReferences {
		lines = append(lines, fmt.Sprintf("Backward: %s mentions %s (%s)", r.FromScene, r.Location, r.ToScene))
	}
	for _, ci := range c.NPCContinuity {
		sev := types.IssueInfo
		if ci.Hard {
			sev = types.IssueCritical
		}
		lines = append(lines, fmt.Sprintf("[%s] continuity: %s", sev, ci.Message))
	}
	for _, g := range c.InformationGaps {
		lines = append(lines, fmt.Sprintf("[%s] gap in %s: %s", types.IssueWarning, g.SceneID, g.Message))
	}
	return lines
}

func (e *Explorer) critique(bucket string) []string {
	rep := e.Current()
	gv := rep.GMValidated
	if gv == nil {
		return []string{"This run had no archetype."}
	}
	buckets := []struct {
		name string
		fb   []types.ArchetypeFeedback
	}{
		{"valid", gv.ValidIssues},
		{"intentional", gv.IntentionalDesign},
		{"discretion", gv.GMDiscretion},
		{"false", gv.FalsePositives},
	}
	var lines []string
	for _, b := range buckets {
		if bucket != "" && !strings.HasPrefix(b.name, strings.ToLower(bucket)) {
			continue
		}
		if len(b.fb) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("== %s (%d) ==", b.name, len(b.fb)))
		for _, f := range b.fb {
			lines = append(lines, feedbackLine(f))
		}
	}
	if len(lines) == 0 {
		return []string{"No critiques."}
	}
	return lines
}

func (e *Explorer) dice() []string {
	d := e.Current().DiceStats
	lines := []string{
		"== Dice ==",
		fmt.Sprintf("Rolls %d | mean %.2f | nat 20 %d | nat 1 %d | rolls >= 10: %.0f%%",
			d.Count, d.Mean, d.CriticalSuccesses, d.CriticalFailures, d.SuccessRate*100),
	}
	if d.Count > 0 {
		var hist [20]int
		for _, r := range d.Rolls {
			if r >= 1 && r <= 20 {
				hist[r-1]++
			}
		}
		for face, n := range hist {
			if n > 0 {
				lines = append(lines, fmt.Sprintf("%2d %s %d", face+1, strings.Repeat("#", n), n))
			}
		}
	}
	return lines
}

func (e *Explorer) lookups(filter string) []string {
	rep := e.Current()
	var lines []string
	for _, l := range rep.Lookups {
		if filter == "failed" && l.Found {
			continue
		}
		status := "found in " + l.FoundIn
		if !l.Found {
			status = "[warning] not found"
		}
		lines = append(lines, fmt.Sprintf("%s %s %q: %s (%s)",
			l.Question.Context.SceneID, l.Question.Type, l.Question.Query, status, strings.Join(l.SearchPath, " > ")))
	}
	if len(lines) == 0 {
		return []string{"No lookups."}
	}
	return append([]string{"== Lookups =="}, lines...)
}

func (e *Explorer) npcs() []string {
	rep := e.Current()
	if len(rep.NPCs) == 0 {
		return []string{"No NPCs met."}
	}
	npcs := append([]types.NPCTracker(nil), rep.NPCs...)
	sort.SliceStable(npcs, func(i, j int) bool { return npcs[i].ID < npcs[j].ID })
	lines := []string{"== NPCs =="}
	for _, n := range npcs {
		lines = append(lines, fmt.Sprintf("%-12s %-8s last seen %s, %d interaction(s), disposition %+d",
			n.ID, n.State, n.LastSeenScene, n.InteractionCount, n.Disposition))
	}
	return lines
}

func (e *Explorer) events(typ string) []string {
	rep := e.Current()
	var lines []string
	for _, ev := range rep.Events {
		if typ != "" && ev.Type != typ {
			continue
		}
		line := fmt.Sprintf("%4d %-16s %s", ev.Seq, ev.Type, ev.SceneID)
		if ev.Message != "" {
			line += " " + ev.Message
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{"No events."}
	}
	return lines
}

func (e *Explorer) runs() []string {
	lines := []string{"== Runs =="}
	for i, rep := range e.Reports {
		mark := " "
		if i == e.current {
			mark = "*"
		}
		who := "no archetype"
		if rep.Archetype != nil {
			who = rep.Archetype.Archetype.ID
		}
		lines = append(lines, fmt.Sprintf("%s%d %s %s %s", mark, i, shortID(rep.Meta.RunID), who, rep.Termination.Reason))
	}
	return lines
}

func (e *Explorer) use(arg string) []string {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 || n >= len(e.Reports) {
		return []string{fmt.Sprintf("No report %q; there are %d.", arg, len(e.Reports))}
	}
	e.current = n
	return SummaryLines(e.Reports[n])
}

func issueLine(is types.Issue) string {
	line := fmt.Sprintf("[%s] %s", is.Severity, is.Type)
	if is.SceneID != "" {
		line += " " + is.SceneID
	}
	line += ": " + is.Message
	if is.Artifact != "" {
		line += " (" + is.Artifact + ")"
	}
	return line
}

func feedbackLine(f types.ArchetypeFeedback) string {
	status := "unvalidated"
	if f.Validation != nil {
		status = string(f.Validation.Status)
	}
	line := fmt.Sprintf("(%s) %s %s %s: %s", f.Severity, status, f.SceneID, f.Type, f.Description)
	if f.Validation != nil && f.Validation.Status != types.StatusValidIssue {
		line += " - " + f.Validation.Reasoning
	}
	return line
}

func sceneTitle(a types.SceneAnalysis) string {
	if a.Title == "" || a.Title == a.ID {
		return a.ID
	}
	return fmt.Sprintf("%s (%s)", a.Title, a.ID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
