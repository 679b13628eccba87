package report

import (
	"sort"
	"strings"
)

// Upload is one package upload fact.
type Upload struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Policy is one policy change fact.
type Policy struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

// UploadRow is a rendered row of the uploaded recipes table.
type UploadRow struct {
	RecipeName       string `json:"recipe_name"`
	RecipeIdentifier string `json:"recipe_identifier"`
	RecipeURL        string `json:"recipe_url,omitempty"`
	Package          string `json:"package"`
	PackageURL       string `json:"package_url,omitempty"`
	Version          string `json:"version"`
}

// PolicyRow is a rendered row of the policy recipes table.
type PolicyRow struct {
	RecipeName       string `json:"recipe_name"`
	RecipeIdentifier string `json:"recipe_identifier"`
	RecipeURL        string `json:"recipe_url,omitempty"`
	Policy           string `json:"policy"`
	PolicyURL        string `json:"policy_url,omitempty"`
}

// ErrorRow is a rendered row of the issue body.
type ErrorRow struct {
	RecipeName string   `json:"recipe_name"`
	ErrorType  Category `json:"error_type"`
}

// Result is what a single parser extracts from one file. The bare lists are
// used for counting, the rows for rendering.
type Result struct {
	Uploads  []Upload
	Policies []Policy
	Errors   []string

	UploadRows []UploadRow
	PolicyRows []PolicyRow
	ErrorRows  []ErrorRow

	// Recipes is the number of recipe runs the file accounts for.
	Recipes int
}

func (r *Result) merge(o Result) {
	r.Uploads = append(r.Uploads, o.Uploads...)
	r.Policies = append(r.Policies, o.Policies...)
	r.Errors = append(r.Errors, o.Errors...)
	r.UploadRows = append(r.UploadRows, o.UploadRows...)
	r.PolicyRows = append(r.PolicyRows, o.PolicyRows...)
	r.ErrorRows = append(r.ErrorRows, o.ErrorRows...)
	r.Recipes += o.Recipes
}

// Summary is the aggregate of every report in a run. It is populated once by
// Aggregate, optionally annotated by Enrich, then only read.
type Summary struct {
	Result
}

// Display is the deduplicated view of a Summary used for headline counts.
type Display struct {
	// UploadsByApp maps an app name to its sorted distinct versions. Names
	// that do not look like an app collapse into "-".
	UploadsByApp map[string][]string
	// PoliciesByName maps a policy name to its sorted distinct actions.
	PoliciesByName map[string][]string
	// Categories is the error histogram over every Category.
	Categories map[Category]int
}

// Display derives the deduplicated view. Raw totals stay on the Summary.
func (s *Summary) Display() Display {
	uploads := make(map[string]map[string]struct{})
	for _, u := range s.Uploads {
		name := orDash(u.Name)
		if !plausibleAppName(name) {
			name = "-"
		}
		addToSet(uploads, name, orDash(u.Version))
	}

	policies := make(map[string]map[string]struct{})
	for _, p := range s.Policies {
		addToSet(policies, orDash(p.Name), orDash(p.Action))
	}

	cats := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		cats[c] = 0
	}
	for _, msg := range s.Errors {
		cats[Classify(msg)]++
	}

	return Display{
		UploadsByApp:   flattenSets(uploads),
		PoliciesByName: flattenSets(policies),
		Categories:     cats,
	}
}

func addToSet(m map[string]map[string]struct{}, key, value string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[value] = struct{}{}
}

func flattenSets(m map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, set := range m {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[k] = values
	}
	return out
}

func orDash(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}
