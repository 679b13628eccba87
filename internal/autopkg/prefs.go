package autopkg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"autopkgwrapper/internal/logging"
)

// DefaultPrefsPath is where autopkg keeps its preferences for the current user.
func DefaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Preferences", "com.github.autopkg.plist")
}

// OverrideDirs returns RECIPE_OVERRIDE_DIRS from an autopkg preferences file
// (.json or .plist). An empty path reads the default preferences.
func OverrideDirs(prefsPath string) ([]string, error) {
	if prefsPath == "" {
		prefsPath = DefaultPrefsPath()
	}
	logging.AutopkgDebug("autopkg prefs path: %s", prefsPath)

	data, err := os.ReadFile(prefsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read autopkg prefs: %w", err)
	}

	prefs := map[string]interface{}{}
	if strings.EqualFold(filepath.Ext(prefsPath), ".json") {
		err = json.Unmarshal(data, &prefs)
	} else {
		_, err = plist.Unmarshal(data, &prefs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse autopkg prefs %s: %w", prefsPath, err)
	}

	var dirs []string
	switch v := prefs["RECIPE_OVERRIDE_DIRS"].(type) {
	case string:
		dirs = []string{v}
	case []interface{}:
		for _, d := range v {
			if s, ok := d.(string); ok {
				dirs = append(dirs, s)
			}
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("RECIPE_OVERRIDE_DIRS not set in %s", prefsPath)
	}
	for i, d := range dirs {
		dirs[i] = expandHome(d)
	}
	return dirs, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
