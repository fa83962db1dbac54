package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/questsim/cli"
	"github.com/nathoo/questsim/types"
)

const historyLimit = 100

// completions are the command words tab completes.
var completions = append(append([]string{}, cli.Commands...), "/clear")

// entry is one logged line, kept unstyled so resizing can re-wrap it.
type entry struct {
	text   string
	kind   lineKind
	echo   bool // the query as typed
	system bool // meta-command output
}

// Model is the Bubble Tea model for the report explorer.
type Model struct {
	explorer *cli.Explorer

	viewport viewport.Model
	input    textinput.Model
	history  *History
	// historyPath persists queries between sessions when set.
	historyPath string

	log []entry

	width, height int
	ready         bool
	quitting      bool
}

// outputMsg carries explorer output into the Update loop.
type outputMsg struct {
	query  string
	lines  []string
	system bool
}

// New creates a TUI model over the given reports.
func New(reps ...types.SimulationReport) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "summary, scenes, issues, critique ... (tab completes)"
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		explorer: cli.NewExplorer(reps...),
		input:    ti,
		history:  NewHistory(historyLimit),
	}
}

// Run starts the Bubble Tea program. Saved reports go under
// ~/.questsim/reports and queries persist in ~/.questsim/query_history.
func Run(reps ...types.SimulationReport) error {
	m := New(reps...)
	if home, err := os.UserHomeDir(); err == nil {
		base := filepath.Join(home, ".questsim")
		m.explorer.SaveDir = filepath.Join(base, "reports")
		m.historyPath = filepath.Join(base, "query_history")
		if h, err := LoadHistory(m.historyPath, historyLimit); err == nil {
			m.history = h
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init starts the cursor blinking and shows the current report's summary.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.summary)
}

func (m Model) summary() tea.Msg {
	rep := m.explorer.Current()
	if rep == nil {
		return outputMsg{lines: []string{"No report loaded."}, system: true}
	}
	return outputMsg{lines: append(cli.SummaryLines(*rep), "", "Type /help for queries.")}
}

// Update handles messages (key presses, window resize, explorer output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case outputMsg:
		m.appendOutput(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize lays out the viewport above the status bar and input line.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	vpHeight := max(height-2, 1)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.refreshViewport()
}

// handleKey reacts to the keys the model owns. Unhandled keys fall through
// to the text input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		cmd := m.quit()
		return m, cmd, true

	case "enter":
		next, cmd := m.submit()
		return next, cmd, true

	case "tab":
		m.input.SetValue(m.complete(m.input.Value()))
		m.input.CursorEnd()
		return m, nil, true

	case "up":
		if q, ok := m.history.Prev(); ok {
			m.input.SetValue(q)
			m.input.CursorEnd()
		}
		return m, nil, true

	case "down":
		// Past the newest entry Next returns "", clearing the input.
		q, _ := m.history.Next()
		m.input.SetValue(q)
		m.input.CursorEnd()
		return m, nil, true

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true

	case "home":
		m.viewport.GotoTop()
		return m, nil, true

	case "end":
		m.viewport.GotoBottom()
		return m, nil, true
	}
	return m, nil, false
}

// submit runs the typed query through the explorer.
func (m Model) submit() (Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if query == "" {
		return m, nil
	}
	m.history.Push(query)

	if query == "/clear" {
		m.log = nil
		m.refreshViewport()
		return m, nil
	}

	lines, quit := m.explorer.Exec(query)
	m.appendOutput(outputMsg{query: query, lines: lines, system: strings.HasPrefix(query, "/")})
	if quit {
		cmd := m.quit()
		return m, cmd
	}
	return m, nil
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	if m.historyPath != "" {
		_ = m.history.Save(m.historyPath)
	}
	return tea.Quit
}

// complete extends the input to the longest unambiguous completion: the
// command word first, then a scene id for "scene" or a severity for
// "issues".
func (m Model) complete(input string) string {
	fields := strings.Fields(input)
	trailing := strings.HasSuffix(input, " ")

	switch {
	case len(fields) == 0:
		return input
	case len(fields) == 1 && !trailing:
		return extend(fields[0], completions)
	}

	cmd := strings.ToLower(fields[0])
	var prefix string
	if len(fields) > 1 {
		prefix = fields[len(fields)-1]
	}
	if trailing {
		prefix = ""
	}

	var options []string
	switch cmd {
	case "scene":
		if rep := m.explorer.Current(); rep != nil {
			for _, a := range rep.SceneAnalyses {
				options = append(options, a.ID)
			}
		}
	case "issues", "i":
		options = []string{string(types.IssueCritical), string(types.IssueWarning), string(types.IssueInfo)}
	case "critique", "critiques":
		options = []string{"valid", "intentional", "discretion", "false"}
	case "lookups", "l":
		options = []string{"failed"}
	}
	done := extend(prefix, options)
	if done == prefix {
		return input
	}
	return cmd + " " + done
}

// extend returns the longest common prefix of the options starting with
// prefix, or prefix when none match.
func extend(prefix string, options []string) string {
	var common string
	matched := false
	for _, o := range options {
		if !strings.HasPrefix(o, prefix) {
			continue
		}
		if !matched {
			common, matched = o, true
			continue
		}
		for !strings.HasPrefix(o, common) {
			common = common[:len(common)-1]
		}
	}
	if !matched || len(common) < len(prefix) {
		return prefix
	}
	return common
}

// appendOutput logs a query and its output, then refreshes the viewport.
func (m *Model) appendOutput(msg outputMsg) {
	if msg.query != "" {
		m.log = append(m.log, entry{text: "> " + msg.query, echo: true})
	}
	for _, line := range msg.lines {
		e := entry{text: line, system: msg.system}
		if !msg.system {
			e.kind = classifyLine(line)
		}
		m.log = append(m.log, e)
	}
	m.log = append(m.log, entry{})
	m.refreshViewport()
}

// refreshViewport re-wraps and re-styles the log at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	styled := make([]string, 0, len(m.log))
	for _, e := range m.log {
		if e.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(e.text, width)
		switch {
		case e.echo:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case e.system:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, e.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps each line of text to width, breaking at spaces. Words
// longer than width stay whole on their own line.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	if len(line) <= width {
		return line
	}
	var b strings.Builder
	col := 0
	for _, word := range strings.Fields(line) {
		switch {
		case col == 0:
		case col+1+len(word) > width:
			b.WriteByte('\n')
			col = 0
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(word)
		col += len(word)
	}
	return b.String()
}

// View renders the viewport, the status bar and the input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
