// Package cli prints simulation reports and runs a plain line-based report
// explorer on standard I/O.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/questsim/types"
)

var (
	styleHeading  = lipgloss.NewStyle().Bold(true)
	styleCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleWarning  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleGood     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	styleMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// CLI is the plain report explorer.
type CLI struct {
	Explorer  *Explorer
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI over the given reports.
func New(reps ...types.SimulationReport) *CLI {
	return &CLI{
		Explorer: NewExplorer(reps...),
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

// Run prints the current report's summary, then loops:
// prompt → query → output.
func (c *CLI) Run() {
	if rep := c.Explorer.Current(); rep != nil {
		c.printLines(SummaryLines(*rep))
		c.printLine("")
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		lines, quit := c.Explorer.Exec(input)
		c.printLines(lines)
		if quit {
			return
		}
	}
}

// Print writes a colored summary of each report, with its critical issues
// and top recommendations.
func Print(w io.Writer, reps ...types.SimulationReport) {
	for i, rep := range reps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		lines := SummaryLines(rep)
		for j, line := range lines {
			switch {
			case j == 0:
				line = styleHeading.Render(line)
			case strings.HasPrefix(line, "Outcome:"):
				line = outcomeStyle(rep.Termination.Reason).Render(line)
			}
			fmt.Fprintln(w, line)
		}
		for _, is := range rep.Issues {
			if is.Severity == types.IssueCritical {
				fmt.Fprintln(w, "  "+styleLine(issueLine(is)))
			}
		}
		for k, r := range rep.Recommendations {
			if k == 3 {
				fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("  ... %d more recommendation(s)", len(rep.Recommendations)-k)))
				break
			}
			fmt.Fprintln(w, "  "+styleLine(fmt.Sprintf("(%s) %s: %s", r.Priority, r.Type, r.Message)))
		}
	}
}

func outcomeStyle(reason types.TerminationReason) lipgloss.Style {
	switch reason {
	case types.ReasonCompleted:
		return styleGood
	case types.ReasonPlayerDeath, types.ReasonSoftLock, types.ReasonInfiniteLoopDetected:
		return styleCritical
	default:
		return styleWarning
	}
}

// styleLine colors an explorer line by its severity prefix.
func styleLine(line string) string {
	switch {
	case strings.HasPrefix(line, "[critical]"), strings.HasPrefix(line, "(high)"):
		return styleCritical.Render(line)
	case strings.HasPrefix(line, "[warning]"), strings.HasPrefix(line, "(medium)"):
		return styleWarning.Render(line)
	case strings.HasPrefix(line, "[info]"), strings.HasPrefix(line, "(low)"):
		return styleMuted.Render(line)
	case strings.HasPrefix(line, "== "):
		return styleHeading.Render(line)
	}
	return line
}

func (c *CLI) printLines(lines []string) {
	for _, line := range lines {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}
