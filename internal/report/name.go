package report

import (
	"path/filepath"
	"regexp"
	"strings"

	"autopkgwrapper/internal/ordering"
)

var (
	reportTimestamp = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
)

// Words that show up in place of an app name in loosely formatted logs.
var notAppNames = map[string]struct{}{
	"apps":     {},
	"packages": {},
	"pkg":      {},
	"file":     {},
	"37":       {},
}

// InferRecipeIdentifier derives a recipe identifier from a report file path:
// "Foo.upload.jamf.recipe.yaml-2024-05-01T09-30-00.plist" -> "Foo.upload.jamf".
func InferRecipeIdentifier(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".plist")
	base = reportTimestamp.ReplaceAllString(base, "")
	return ordering.StripExtension(base)
}

func plausibleAppName(name string) bool {
	if name == "" || name == "-" {
		return false
	}
	if _, ok := notAppNames[strings.ToLower(name)]; ok {
		return false
	}
	return hasLetter.MatchString(name)
}
