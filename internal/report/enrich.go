package report

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"autopkgwrapper/internal/logging"
)

// Inventory resolves package and policy names to links in an external
// system. Each map is name -> URL.
type Inventory interface {
	PackageLinks(ctx context.Context) (map[string]string, error)
	PolicyLinks(ctx context.Context) (map[string]string, error)
}

// EnrichStats reports what Enrich did.
type EnrichStats struct {
	Attempted      bool
	PackagesLinked int
	PackagesTotal  int
	PoliciesLinked int
	PoliciesTotal  int
	// PackageKeys and PolicyKeys are the sorted inventory names, kept for
	// diagnostics.
	PackageKeys []string
	PolicyKeys  []string
}

// Enrich annotates upload and policy rows with inventory links, matching
// names exactly and then case-insensitively. It is skipped without an
// inventory or without rows. Inventory errors leave the rows unlinked.
func Enrich(ctx context.Context, s *Summary, inv Inventory) EnrichStats {
	stats := EnrichStats{PackagesTotal: len(s.UploadRows), PoliciesTotal: len(s.PolicyRows)}
	if inv == nil || (stats.PackagesTotal == 0 && stats.PoliciesTotal == 0) {
		return stats
	}
	stats.Attempted = true

	if stats.PackagesTotal > 0 {
		links, err := inv.PackageLinks(ctx)
		if err != nil {
			logging.ReportsWarn("Package lookup failed, no package links added: %v", err)
		} else {
			for i := range s.UploadRows {
				if url := lookup(links, s.UploadRows[i].Package); url != "" {
					s.UploadRows[i].PackageURL = url
					stats.PackagesLinked++
				}
			}
			stats.PackageKeys = sortedKeys(links)
		}
	}

	if stats.PoliciesTotal > 0 {
		links, err := inv.PolicyLinks(ctx)
		if err != nil {
			logging.ReportsWarn("Policy lookup failed, no policy links added: %v", err)
		} else {
			for i := range s.PolicyRows {
				if url := lookup(links, s.PolicyRows[i].Policy); url != "" {
					s.PolicyRows[i].PolicyURL = url
					stats.PoliciesLinked++
				}
			}
			stats.PolicyKeys = sortedKeys(links)
		}
	}
	return stats
}

func lookup(links map[string]string, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if url, ok := links[name]; ok {
		return url
	}
	lower := strings.ToLower(name)
	// Deterministic when two inventory names differ only by case.
	for _, k := range sortedKeys(links) {
		if strings.ToLower(k) == lower {
			return links[k]
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const diagSample = 20

// Diagnostics is the content of jamf_lookup_debug.json.
type Diagnostics struct {
	JSSURL               string   `json:"jss_url"`
	JamfKeysCount        int      `json:"jamf_keys_count"`
	JamfKeysSample       []string `json:"jamf_keys_sample"`
	JamfPolicyKeysCount  int      `json:"jamf_policy_keys_count"`
	JamfPolicyKeysSample []string `json:"jamf_policy_keys_sample"`
	UploadsCount         int      `json:"uploads_count"`
	MatchedCount         int      `json:"matched_count"`
	UnmatchedCount       int      `json:"unmatched_count"`
	UnmatchedNames       []string `json:"unmatched_names"`
	PoliciesCount        int      `json:"policies_count"`
	PolicyMatchedCount   int      `json:"policy_matched_count"`
	PolicyUnmatchedCount int      `json:"policy_unmatched_count"`
	PolicyUnmatchedNames []string `json:"policy_unmatched_names"`
}

// NewDiagnostics summarises matched and unmatched rows after Enrich.
func NewDiagnostics(jssURL string, s *Summary, stats EnrichStats) Diagnostics {
	d := Diagnostics{
		JSSURL:               jssURL,
		JamfKeysCount:        len(stats.PackageKeys),
		JamfKeysSample:       sample(stats.PackageKeys),
		JamfPolicyKeysCount:  len(stats.PolicyKeys),
		JamfPolicyKeysSample: sample(stats.PolicyKeys),
		UploadsCount:         len(s.UploadRows),
		PoliciesCount:        len(s.PolicyRows),
		UnmatchedNames:       []string{},
		PolicyUnmatchedNames: []string{},
	}
	for _, r := range s.UploadRows {
		if r.PackageURL != "" {
			d.MatchedCount++
			continue
		}
		d.UnmatchedCount++
		if len(d.UnmatchedNames) < diagSample {
			d.UnmatchedNames = append(d.UnmatchedNames, r.Package)
		}
	}
	for _, r := range s.PolicyRows {
		if r.PolicyURL != "" {
			d.PolicyMatchedCount++
			continue
		}
		d.PolicyUnmatchedCount++
		if len(d.PolicyUnmatchedNames) < diagSample {
			d.PolicyUnmatchedNames = append(d.PolicyUnmatchedNames, r.Policy)
		}
	}
	return d
}

// Write stores the diagnostics as indented JSON.
func (d Diagnostics) Write(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func sample(keys []string) []string {
	if len(keys) > diagSample {
		keys = keys[:diagSample]
	}
	return append([]string{}, keys...)
}
