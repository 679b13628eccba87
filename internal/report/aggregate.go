package report

import (
	"io/fs"
	"path/filepath"
	"strings"

	"autopkgwrapper/internal/logging"
)

// AggregateOptions tunes Aggregate.
type AggregateOptions struct {
	// Links resolves and links recipe names in plist rows. May be nil.
	Links LinkMap
}

// Aggregate parses every file under every root and folds the results into one
// Summary. Files are dispatched by extension: .plist, .json, anything else is
// read as text. Each plist counts as one processed recipe; JSON files add
// their own recipes count. Zero roots give an all-zero Summary.
func Aggregate(roots []string, opts AggregateOptions) *Summary {
	timer := logging.StartTimer(logging.CategoryReports, "aggregate")
	defer timer.Stop()

	s := &Summary{}
	files := 0
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.ReportsWarn("Skipping %s: %v", path, err)
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			files++
			s.merge(parseFile(path, opts))
			return nil
		})
		if err != nil {
			logging.ReportsWarn("Walking %s: %v", root, err)
		}
	}

	logging.Reports("Aggregated %d file(s) from %d root(s): %d recipe(s), %d upload(s), %d polic(ies), %d error(s)",
		files, len(roots), s.Recipes, len(s.Uploads), len(s.Policies), len(s.Errors))
	return s
}

func parseFile(path string, opts AggregateOptions) Result {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".plist":
		res := ParsePlist(path, opts.Links)
		res.Recipes = 1
		return res
	case ".json":
		return ParseJSON(path)
	default:
		return ParseText(path)
	}
}
