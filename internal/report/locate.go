package report

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autopkgwrapper/internal/logging"
)

// RootPrefix marks a directory holding one run's report artifacts.
const RootPrefix = "autopkg_report-"

// FindRoots returns every directory under base whose name starts with
// RootPrefix, sorted. When there are none but base directly holds files, base
// itself is the only root. A missing base yields no roots.
func FindRoots(base string) []string {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		logging.ReportsDebug("No report directory at %s", base)
		return nil
	}

	var roots []string
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.ReportsWarn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() && path != base && strings.HasPrefix(d.Name(), RootPrefix) {
			roots = append(roots, path)
		}
		return nil
	})
	if walkErr != nil {
		logging.ReportsWarn("Walking %s: %v", base, walkErr)
	}

	if len(roots) == 0 && hasFiles(base) {
		return []string{base}
	}
	sort.Strings(roots)
	return roots
}

func hasFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			return true
		}
	}
	return false
}
