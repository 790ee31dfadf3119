// Package report renders problem lists into the stable Markdown tables
// returned to the agent. Formatting is a pure function of its inputs:
// same problems and stats in, byte-identical report out.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// DefaultMaxRows caps the rows displayed before truncation.
const DefaultMaxRows = 50

// Stats carries the stage-level aggregates rendered alongside the
// problem rows.
type Stats struct {
	Stage        string
	ErrorCount   int
	WarningCount int
	Aborted      bool
	Duration     time.Duration
	// Notes are caveat lines appended verbatim, e.g. the syntax-only
	// coverage disclaimer.
	Notes []string
}

// Options controls rendering.
type Options struct {
	MaxRows     int  // 0 uses DefaultMaxRows
	GroupByFile bool // render a section per file instead of one table
}

// rowEscaper keeps messages from breaking the table: literal pipes are
// escaped and newlines collapsed.
var rowEscaper = strings.NewReplacer("|", `\|`, "\r", "", "\n", " ")

// Format renders the report. Problems are sorted into the canonical
// order regardless of input order, truncated at the row cap with an
// explicit marker, and always followed by a single-line severity-count
// summary.
func Format(problems []types.Problem, stats Stats, opts Options) string {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	sorted := make([]types.Problem, len(problems))
	copy(sorted, problems)
	types.SortProblems(sorted)

	var sb strings.Builder
	if stats.Stage != "" {
		fmt.Fprintf(&sb, "## %s\n\n", stats.Stage)
	}
	if stats.Aborted {
		sb.WriteString("**Build aborted before completion.**\n\n")
	}

	shown := sorted
	truncated := 0
	if len(shown) > maxRows {
		truncated = len(shown) - maxRows
		shown = shown[:maxRows]
	}

	if len(shown) == 0 {
		sb.WriteString("No problems found.\n")
	} else if opts.GroupByFile {
		writeGrouped(&sb, shown)
	} else {
		writeTable(&sb, shown)
	}
	if truncated > 0 {
		fmt.Fprintf(&sb, "\n… %d more problem(s) not shown.\n", truncated)
	}

	sb.WriteString("\n")
	sb.WriteString(summaryLine(sorted, stats))
	sb.WriteString("\n")
	for _, note := range stats.Notes {
		fmt.Fprintf(&sb, "\nNote: %s\n", note)
	}
	return sb.String()
}

func writeTable(sb *strings.Builder, problems []types.Problem) {
	sb.WriteString("| Severity | File | Line:Col | Message |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, p := range problems {
		writeRow(sb, p, true)
	}
}

func writeGrouped(sb *strings.Builder, problems []types.Problem) {
	byFile := make(map[string][]types.Problem)
	var order []string
	for _, p := range problems {
		if _, seen := byFile[p.FilePath]; !seen {
			order = append(order, p.FilePath)
		}
		byFile[p.FilePath] = append(byFile[p.FilePath], p)
	}
	sort.Strings(order)

	for i, file := range order {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(sb, "### %s (%d)\n\n", escapeCell(file), len(byFile[file]))
		sb.WriteString("| Severity | Line:Col | Message |\n")
		sb.WriteString("|---|---|---|\n")
		for _, p := range byFile[file] {
			writeRow(sb, p, false)
		}
	}
}

func writeRow(sb *strings.Builder, p types.Problem, withFile bool) {
	pos := fmt.Sprintf("%d:%d", p.Line, p.Column)
	if withFile {
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n",
			p.Severity, escapeCell(p.FilePath), pos, escapeCell(p.Message))
		return
	}
	fmt.Fprintf(sb, "| %s | %s | %s |\n", p.Severity, pos, escapeCell(p.Message))
}

func escapeCell(s string) string {
	return rowEscaper.Replace(s)
}

// summaryLine renders the closing severity-count line. Stage counts win
// over list counts when present, since the enumerated list may be a
// best-effort subset.
func summaryLine(problems []types.Problem, stats Stats) string {
	counts := types.CountBySeverity(problems)
	errors := stats.ErrorCount
	warnings := stats.WarningCount
	if errors == 0 {
		errors = counts[types.SeverityError]
	}
	if warnings == 0 {
		warnings = counts[types.SeverityWarning]
	}
	parts := []string{
		fmt.Sprintf("%d syntax error(s)", counts[types.SeveritySyntaxError]),
		fmt.Sprintf("%d error(s)", errors),
		fmt.Sprintf("%d warning(s)", warnings),
		fmt.Sprintf("%d suggestion(s)", counts[types.SeveritySuggestion]),
	}
	line := "Summary: " + strings.Join(parts, ", ")
	if stats.Duration > 0 {
		line += fmt.Sprintf(" in %s", stats.Duration.Round(time.Millisecond))
	}
	return line
}
