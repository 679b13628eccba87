// Package ordering sorts a flat recipe list into priority groups described by
// a processing-order spec. Patterns are matched against the dot separated
// segments that follow a recipe's first dot.
package ordering

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/recipe"
)

// Known recipe file extensions, longest first.
var knownExtensions = []string{".recipe.yaml", ".recipe"}

// Spec is an ordered, duplicate-free list of casefolded patterns.
// An empty Spec means "do not reorder".
type Spec []string

// Empty reports whether s requests no reordering.
func (s Spec) Empty() bool { return len(s) == 0 }

// Normalize turns raw processing-order input into a Spec. A single value is
// treated as a comma separated list; tokens in a longer list may also carry
// embedded commas.
func Normalize(raw ...string) Spec {
	var items []string
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		items = append(items, strings.Split(v, ",")...)
	}

	spec := Spec{}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		item = strings.TrimLeft(item, ".")
		item = StripExtension(item)
		if item == "" {
			continue
		}
		key := fold(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		spec = append(spec, key)
	}
	return spec
}

// StripExtension trims whitespace and removes one known recipe extension.
func StripExtension(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(identifier, ext) {
			return strings.TrimSuffix(identifier, ext)
		}
	}
	return identifier
}

// Matches reports whether pattern is satisfied by a recipe's type segments.
// A single-part pattern matches when any segment equals it; a dotted pattern
// must appear as a contiguous run of segments. Comparison is case-insensitive.
func Matches(pattern string, segments []string) bool {
	parts := splitNonEmpty(pattern)
	if len(parts) == 0 || len(segments) == 0 {
		return false
	}
	for i := range parts {
		parts[i] = fold(parts[i])
	}
	norm := make([]string, len(segments))
	for i, s := range segments {
		norm[i] = fold(s)
	}

	if len(parts) == 1 {
		for _, s := range norm {
			if s == parts[0] {
				return true
			}
		}
		return false
	}

	for start := 0; start+len(parts) <= len(norm); start++ {
		if equalAt(norm, start, parts) {
			return true
		}
	}
	return false
}

func equalAt(segments []string, start int, parts []string) bool {
	for j, p := range parts {
		if segments[start+j] != p {
			return false
		}
	}
	return true
}

// Order strips known extensions from every recipe and, when spec is non-empty,
// regroups the list: first one group per pattern (first match claims a
// recipe), then recipes no pattern claimed grouped by full type with the
// empty type last. Every group is sorted case-insensitively.
func Order(recipes []string, spec Spec) []string {
	stripped := make([]string, 0, len(recipes))
	for _, r := range recipes {
		stripped = append(stripped, StripExtension(r))
	}
	if len(stripped) == 0 || spec.Empty() {
		return stripped
	}

	groups := make([][]string, len(spec))
	claimed := make([]bool, len(stripped))
	for i, r := range stripped {
		segments := recipe.SegmentsOf(r)
		for p, pattern := range spec {
			if Matches(pattern, segments) {
				groups[p] = append(groups[p], r)
				claimed[i] = true
				break
			}
		}
	}

	residual := make(map[string][]string)
	var residualKeys []string
	for i, r := range stripped {
		if claimed[i] {
			continue
		}
		typ := recipe.TypeOf(r)
		if _, ok := residual[typ]; !ok {
			residualKeys = append(residualKeys, typ)
		}
		residual[typ] = append(residual[typ], r)
	}
	sort.Slice(residualKeys, func(i, j int) bool {
		a, b := residualKeys[i], residualKeys[j]
		if (a == "") != (b == "") {
			return b == ""
		}
		return lessFold(a, b)
	})

	ordered := make([]string, 0, len(stripped))
	for _, g := range groups {
		ordered = append(ordered, sortedFold(g)...)
	}
	for _, key := range residualKeys {
		ordered = append(ordered, sortedFold(residual[key])...)
	}

	logging.OrderingDebug("Recipe processing order: %v", []string(spec))
	logging.OrderingDebug("Ordered recipes: %v", ordered)
	return ordered
}

func sortedFold(in []string) []string {
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return lessFold(out[i], out[j]) })
	return out
}

// lessFold orders case-insensitively, breaking ties on the raw string so the
// result does not depend on input order.
func lessFold(a, b string) bool {
	fa, fb := fold(a), fold(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ".") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
