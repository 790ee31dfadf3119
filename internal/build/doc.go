// Package build implements the three-stage validation pipeline: a fast
// lexical syntax check, an incremental compile with best-effort detail
// enumeration, and an offline Maven build with output parsing. The
// stages escalate in cost and coverage; callers are expected to run
// them in order and restart from the first stage after fixing errors.
// Ordering is advised through the tool contract, not enforced here.
package build
