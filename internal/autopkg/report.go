package autopkg

import (
	"fmt"
	"os"

	"howett.net/plist"

	"autopkgwrapper/internal/recipe"
)

// runReport is the subset of an autopkg --report-plist file the wrapper reads.
type runReport struct {
	Failures       []interface{}                  `plist:"failures"`
	SummaryResults map[string]runReportSummaryRow `plist:"summary_results"`
}

type runReportSummaryRow struct {
	SummaryText string                   `plist:"summary_text"`
	Header      []string                 `plist:"header"`
	DataRows    []map[string]interface{} `plist:"data_rows"`
}

// ParseRunReport reads a run's report plist into recipe results: failures
// plus the munki importer rows.
func ParseRunReport(path string) (recipe.Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recipe.Results{}, fmt.Errorf("failed to read report %s: %w", path, err)
	}

	var rep runReport
	if _, err := plist.Unmarshal(data, &rep); err != nil {
		return recipe.Results{}, fmt.Errorf("failed to parse report %s: %w", path, err)
	}

	var results recipe.Results
	for _, f := range rep.Failures {
		results.Failures = append(results.Failures, toFailure(f))
	}
	if munki, ok := rep.SummaryResults["munki_importer_summary_result"]; ok {
		for _, row := range munki.DataRows {
			results.Imported = append(results.Imported, stringMap(row))
		}
	}
	return results, nil
}

func toFailure(v interface{}) recipe.Failure {
	switch f := v.(type) {
	case map[string]interface{}:
		return recipe.Failure{
			Message:   stringOf(f["message"]),
			Recipe:    stringOf(f["recipe"]),
			Traceback: stringOf(f["traceback"]),
		}
	default:
		return recipe.Failure{Message: stringOf(v)}
	}
}

func stringMap(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = stringOf(v)
	}
	return out
}

func stringOf(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
