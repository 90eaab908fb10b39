package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true)
	stylePath  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // cyan
	styleType  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleFatal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true)
)

// Summary prints a short colorized overview of a written digest.
func Summary(w io.Writer, r Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", styleTitle.Render("digest:"), stylePath.Render(path))
	fmt.Fprintf(&b, "%d record(s) from %d log type(s), %d of %d file(s) eligible, %s\n",
		len(r.Records), len(r.Stats.Types), r.Stats.FilesEligible, r.Stats.FilesLocated,
		r.Stats.Elapsed.Round(time.Millisecond))

	for _, ts := range r.Stats.Types {
		fmt.Fprintf(&b, "  %s", styleType.Render(fmt.Sprintf("%-32s", ts.Type)))

		levels := make([]string, 0, len(ts.Levels))
		for l := range ts.Levels {
			levels = append(levels, l)
		}
		sort.Strings(levels)
		for _, l := range levels {
			fmt.Fprintf(&b, " %s=%d", styleLevel(l), ts.Levels[l])
		}
		if ts.Truncated > 0 {
			fmt.Fprintf(&b, " %s", styleInfo.Render(fmt.Sprintf("(+%d truncated)", ts.Truncated)))
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func styleLevel(level string) string {
	switch level {
	case "debug", "trace":
		return styleDebug.Render(level)
	case "warn", "warning":
		return styleWarn.Render(level)
	case "error", "err":
		return styleError.Render(level)
	case "fatal", "critical", "crit":
		return styleFatal.Render(level)
	default:
		return styleInfo.Render(level)
	}
}
