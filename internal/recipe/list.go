package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"autopkgwrapper/internal/logging"
)

// ErrNoRecipes is returned when neither a recipe list nor a recipe file yields recipes.
var ErrNoRecipes = errors.New(`no recipes provided; use one of:
    --recipes recipe_one.download recipe_two.download
    --recipe-file path/to/recipe_list.json
    a comma or space separated list in the AW_RECIPES env variable`)

// Load resolves the recipe identifiers to run. A non-empty values list wins
// over the file. The result is never empty on success.
func Load(values []string, file string) ([]string, error) {
	var list []string

	if file != "" {
		logging.Recipes("Recipe List: %s", file)
		fromFile, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		list = fromFile
	}
	if len(values) > 0 {
		logging.Recipes("Recipes: %v", values)
		list = ParseList(values)
	}

	if len(list) == 0 {
		return nil, ErrNoRecipes
	}
	return list, nil
}

// ParseList turns CLI or environment input into identifiers. Several values
// are taken as-is. A single value is split on commas when it contains one,
// else on whitespace.
func ParseList(values []string) []string {
	if len(values) == 1 {
		return splitList(values[0])
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParsePostProcessors applies the ParseList rules to post-processor input.
// Empty input yields nil.
func ParsePostProcessors(values []string) []string {
	if len(values) == 0 {
		logging.RecipesDebug("No post processors defined")
		return nil
	}
	list := ParseList(values)
	if len(list) == 0 {
		return nil
	}
	logging.Recipes("Post Processors List: %v", list)
	return list
}

func splitList(s string) []string {
	var parts []string
	if strings.Contains(s, ",") {
		parts = strings.Split(s, ",")
	} else {
		parts = strings.Fields(s)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFile reads a recipe list from a .json, .yaml/.yml or .txt file.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var list []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse recipe file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		list, err = parseYAMLList(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recipe file %s: %w", path, err)
		}
	case ".txt":
		list = strings.Split(string(data), "\n")
	default:
		return nil, fmt.Errorf("unsupported recipe file type %q", filepath.Ext(path))
	}

	out := make([]string, 0, len(list))
	for _, r := range list {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// parseYAMLList accepts a bare sequence or a mapping with a recipes key.
func parseYAMLList(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Recipes []string `yaml:"recipes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Recipes, nil
}
