package report

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"autopkgwrapper/internal/logging"
)

// LinkMap maps a recipe name (the file name up to ".recipe") to a browsable
// URL of the recipe file in its repository.
type LinkMap map[string]string

// BuildLinkMap scans a checkout for recipe files and links each one as
// {repoURL}/blob/{branch}/{relative path}. Any missing input yields an empty
// map. When two files share a name the first in walk order wins.
func BuildLinkMap(repoPath, repoURL, branch string) LinkMap {
	links := LinkMap{}
	if repoPath == "" || repoURL == "" || branch == "" {
		return links
	}
	if _, err := os.Stat(repoPath); err != nil {
		logging.ReportsWarn("Recipe repo %s not available: %v", repoPath, err)
		return links
	}

	repoURL = strings.TrimSuffix(repoURL, "/")
	_ = filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		name, _, found := strings.Cut(d.Name(), ".recipe")
		if !found || !d.Type().IsRegular() {
			return nil
		}
		if _, ok := links[name]; ok {
			return nil
		}
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return nil
		}
		links[name] = repoURL + "/blob/" + branch + "/" + filepath.ToSlash(rel)
		return nil
	})
	logging.ReportsDebug("Recipe link map: %d recipe(s) under %s", len(links), repoPath)
	return links
}

// Resolve returns name itself when it is linked, else the single linked
// recipe named "name.*", else name unchanged.
func (m LinkMap) Resolve(name string) string {
	if len(m) == 0 {
		return name
	}
	if _, ok := m[name]; ok {
		return name
	}
	var match string
	count := 0
	for candidate := range m {
		if strings.HasPrefix(candidate, name+".") {
			match = candidate
			count++
		}
	}
	if count == 1 {
		return match
	}
	return name
}

// URL returns the link for name, or "".
func (m LinkMap) URL(name string) string {
	return m[name]
}
