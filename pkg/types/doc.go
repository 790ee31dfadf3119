// Package types defines the shared data model for build diagnostics:
// the Problem record produced by every build stage, the BuildResult
// aggregate, and the classified error envelope returned across the
// tool boundary.
package types
