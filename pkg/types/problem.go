package types

import "sort"

// Severity classifies a Problem. Lower ordinal values are more severe;
// report ordering depends on this.
type Severity int

const (
	// SeveritySyntaxError is a parser-level malformation.
	SeveritySyntaxError Severity = iota
	// SeverityError is a compilation error.
	SeverityError
	// SeverityWarning is a non-fatal diagnostic.
	SeverityWarning
	// SeveritySuggestion is an advisory hint.
	SeveritySuggestion
)

// String returns the display name of the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySyntaxError:
		return "syntax error"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeveritySuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// Problem is a single normalized diagnostic with a location and message.
// Every build stage produces Problems in this shape regardless of where
// the underlying detail came from.
type Problem struct {
	Severity Severity
	FilePath string // relative to the project root
	Line     int    // 1-based
	Column   int    // 1-based
	EndLine  int    // 0 when unknown
	EndCol   int    // 0 when unknown
	Message  string
}

// Validate checks the Problem invariants.
func (p *Problem) Validate() error {
	if p.Line < 1 {
		return ErrInvalidLine
	}
	if p.Column < 1 {
		return ErrInvalidColumn
	}
	if p.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// Less reports whether a sorts before b in report order:
// severity, then file path, then line, then column.
func Less(a, b Problem) bool {
	if a.Severity != b.Severity {
		return a.Severity < b.Severity
	}
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// SortProblems sorts problems in place into report order. The sort is
// stable so equal-position problems keep their collection order.
func SortProblems(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		return Less(problems[i], problems[j])
	})
}

// DedupeProblems removes exact duplicates, preserving first occurrence
// order. Stages that combine multiple collectors can report the same
// diagnostic twice; the report must not.
func DedupeProblems(problems []Problem) []Problem {
	type key struct {
		sev       Severity
		file      string
		line, col int
		msg       string
	}
	seen := make(map[key]struct{}, len(problems))
	out := problems[:0]
	for _, p := range problems {
		k := key{p.Severity, p.FilePath, p.Line, p.Column, p.Message}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// CountBySeverity returns the number of problems at each severity.
func CountBySeverity(problems []Problem) map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, p := range problems {
		counts[p.Severity]++
	}
	return counts
}
