package report

import (
	"fmt"
	"sort"
	"strings"
)

// RenderJobSummary renders the job summary Markdown for a run. environment
// and runDate only label the title and may be empty.
func RenderJobSummary(s *Summary, environment, runDate string) string {
	display := s.Display()
	var lines []string

	title := "# Autopkg Report Summary"
	if bits := nonEmpty(environment, runDate); len(bits) > 0 {
		title += " (" + strings.Join(bits, " ") + ")"
	}
	lines = append(lines, title, "")

	recipes := "N/A"
	if s.Recipes > 0 {
		recipes = fmt.Sprint(s.Recipes)
	}
	lines = append(lines,
		"| Metric | Value |",
		"| --- | --- |",
		fmt.Sprintf("| Recipes processed | %s |", recipes),
		fmt.Sprintf("| Apps uploaded | %d (items: %d) |", len(display.UploadsByApp), len(s.Uploads)),
		fmt.Sprintf("| Policies changed | %d |", len(display.PoliciesByName)),
		fmt.Sprintf("| Errors | %d |", len(s.Errors)),
		"",
	)

	if len(s.UploadRows) > 0 {
		lines = append(lines,
			"## Uploaded Recipes",
			"",
			"| Recipe Name | Identifier | Package | Version |",
			"| --- | --- | --- | --- |",
		)
		rows := append([]UploadRow(nil), s.UploadRows...)
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].RecipeName) < strings.ToLower(rows[j].RecipeName)
		})
		for _, r := range rows {
			lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s |",
				linkCell(r.RecipeName, r.RecipeURL), orDash(r.RecipeIdentifier),
				linkCell(r.Package, r.PackageURL), orDash(r.Version)))
		}
		lines = append(lines, "")
	} else {
		lines = append(lines, "No uploads in this run.", "")
	}

	if len(s.PolicyRows) > 0 {
		lines = append(lines,
			"## Policy Recipes",
			"",
			"| Recipe Name | Identifier | Policy |",
			"| --- | --- | --- |",
		)
		rows := append([]PolicyRow(nil), s.PolicyRows...)
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].RecipeName) < strings.ToLower(rows[j].RecipeName)
		})
		for _, r := range rows {
			lines = append(lines, fmt.Sprintf("| %s | %s | %s |",
				linkCell(r.RecipeName, r.RecipeURL), orDash(r.RecipeIdentifier),
				linkCell(r.Policy, r.PolicyURL)))
		}
		lines = append(lines, "")
	}

	if len(s.Errors) > 0 {
		lines = append(lines,
			"## Errors Summary",
			"",
			"| Category | Count |",
			"| --- | --- |",
		)
		for _, c := range Categories {
			lines = append(lines, fmt.Sprintf("| %s | %d |", c, display.Categories[c]))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// RenderIssueBody renders the failure issue Markdown: one row per error row
// with its category.
func RenderIssueBody(s *Summary, environment, runDate string) string {
	var suffix []string
	if runDate != "" {
		suffix = append(suffix, "on "+runDate)
	}
	if environment != "" {
		suffix = append(suffix, "("+environment+")")
	}

	head := "Autopkg run"
	if len(suffix) > 0 {
		head += " " + strings.Join(suffix, " ")
	}
	lines := []string{
		fmt.Sprintf("%s reported %d error(s).", head, len(s.Errors)),
		"",
		"### Errors",
		"| Recipe | Error Type |",
		"| --- | --- |",
	}
	for _, r := range s.ErrorRows {
		errType := r.ErrorType
		if errType == "" {
			errType = CategoryOther
		}
		lines = append(lines, fmt.Sprintf("| %s | %s |", orDash(r.RecipeName), errType))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func linkCell(text, url string) string {
	text = orDash(text)
	if url == "" {
		return text
	}
	return "[" + text + "](" + url + ")"
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
