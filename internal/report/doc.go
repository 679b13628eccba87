// Package report aggregates the artifacts an autopkg run leaves behind.
//
// A run produces one report plist per recipe, and CI pipelines may add JSON
// summaries or plain log files next to them. The package locates report
// roots, parses every file into the same Result shape, folds the results into
// a Summary and renders two Markdown documents from it:
//
//   - job_summary.md: counts plus uploaded and policy recipe tables
//   - errors_issue.md: one row per error with its category, only when errors exist
//
// Parsing is best effort. A file that cannot be read or decoded contributes
// nothing and never stops aggregation.
package report
