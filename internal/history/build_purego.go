//go:build !cgo_sqlite
// +build !cgo_sqlite

package history

// This file is compiled when building without the cgo_sqlite tag. It
// uses a pure Go SQLite implementation: no C compiler required, and
// history writes are far from any hot path.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
