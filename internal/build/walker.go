package build

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// prunedDirs are never descended into during source discovery.
var prunedDirs = map[string]struct{}{
	"build":        {},
	"out":          {},
	"target":       {},
	".git":         {},
	"node_modules": {},
}

// Walker discovers source files under a fixed set of roots.
type Walker struct {
	Roots      []string
	Extensions []string // with leading dot
}

// Discover walks every root and returns matching file paths. Pruned and
// hidden directories are skipped; unreadable entries are ignored so one
// bad directory does not abort discovery.
func (w *Walker) Discover() ([]string, error) {
	var files []string
	for _, root := range w.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			name := d.Name()
			if d.IsDir() {
				if _, pruned := prunedDirs[name]; pruned && path != root {
					return filepath.SkipDir
				}
				if strings.HasPrefix(name, ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			for _, ext := range w.Extensions {
				if strings.HasSuffix(name, ext) {
					files = append(files, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
