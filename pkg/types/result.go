package types

// BuildResult is the outcome of a single build-stage run. It is created
// fresh per invocation and never mutated after construction. The counts
// are authoritative; the problem list is best-effort detail and may be
// shorter than ErrorCount+WarningCount.
type BuildResult struct {
	Aborted      bool
	Problems     []Problem
	ErrorCount   int
	WarningCount int
}

// NewBuildResult builds a result whose counts are derived from the
// problem list itself. Stages with an external count authority set the
// fields directly instead.
func NewBuildResult(problems []Problem) *BuildResult {
	counts := CountBySeverity(problems)
	return &BuildResult{
		Problems:     problems,
		ErrorCount:   counts[SeveritySyntaxError] + counts[SeverityError],
		WarningCount: counts[SeverityWarning],
	}
}

// Clean reports whether the build finished without errors.
func (r *BuildResult) Clean() bool {
	return !r.Aborted && r.ErrorCount == 0
}
