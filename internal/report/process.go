package report

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"autopkgwrapper/internal/logging"
)

// ErrArchiveNotFound is returned when a requested report archive is missing.
var ErrArchiveNotFound = errors.New("report archive not found")

// Output file names written by Process.
const (
	JobSummaryFile  = "job_summary.md"
	IssueBodyFile   = "errors_issue.md"
	DiagnosticsFile = "jamf_lookup_debug.json"
)

// ProcessOptions configures Process.
type ProcessOptions struct {
	// Zip, when set, is extracted into ExtractDir and processed from there.
	Zip        string
	ExtractDir string
	// Dir is processed when no Zip is given; it defaults to ExtractDir.
	Dir    string
	OutDir string

	Environment string
	RunDate     string

	// Debug writes DiagnosticsFile next to the summaries.
	Debug bool
	// Strict makes ExitCode 1 when any error was recorded.
	Strict bool

	RepoURL    string
	RepoBranch string
	RepoPath   string

	// Inventory enriches rows with links. Nil skips enrichment.
	Inventory    Inventory
	InventoryURL string
}

// Outcome describes a processed run.
type Outcome struct {
	Summary         *Summary
	ProcessDir      string
	JobSummaryPath  string
	IssuePath       string // empty when there were no errors
	DiagnosticsPath string
	Enrich          EnrichStats
	ExitCode        int
}

// Process locates, aggregates, enriches and renders a run's reports into
// OutDir. Only a missing archive and unwritable outputs are errors.
func Process(ctx context.Context, opts ProcessOptions) (*Outcome, error) {
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	processDir := opts.Dir
	if opts.Zip != "" {
		if _, err := os.Stat(opts.Zip); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, opts.Zip)
		}
		if err := ExtractZip(opts.Zip, opts.ExtractDir); err != nil {
			return nil, err
		}
		processDir = opts.ExtractDir
	}
	if processDir == "" {
		processDir = opts.ExtractDir
	}

	links := BuildLinkMap(opts.RepoPath, opts.RepoURL, opts.RepoBranch)
	summary := Aggregate(FindRoots(processDir), AggregateOptions{Links: links})
	out := &Outcome{Summary: summary, ProcessDir: processDir}

	out.Enrich = Enrich(ctx, summary, opts.Inventory)

	out.JobSummaryPath = filepath.Join(opts.OutDir, JobSummaryFile)
	if err := os.WriteFile(out.JobSummaryPath, []byte(RenderJobSummary(summary, opts.Environment, opts.RunDate)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write job summary: %w", err)
	}
	if len(summary.Errors) > 0 {
		out.IssuePath = filepath.Join(opts.OutDir, IssueBodyFile)
		if err := os.WriteFile(out.IssuePath, []byte(RenderIssueBody(summary, opts.Environment, opts.RunDate)), 0644); err != nil {
			return nil, fmt.Errorf("failed to write issue body: %w", err)
		}
	}

	if opts.Debug {
		path := filepath.Join(opts.OutDir, DiagnosticsFile)
		if err := NewDiagnostics(opts.InventoryURL, summary, out.Enrich).Write(path); err != nil {
			logging.ReportsWarn("Failed to write %s: %v", path, err)
		} else {
			out.DiagnosticsPath = path
		}
	}

	if opts.Strict && len(summary.Errors) > 0 {
		out.ExitCode = 1
	}
	logging.Reports("%s", out.Status())
	return out, nil
}

// Status is the one-line processing report that is logged.
func (o *Outcome) Status() string {
	issue := "none"
	if o.IssuePath != "" {
		issue = IssueBodyFile
	}
	recipes := "N/A"
	if o.Summary.Recipes > 0 {
		recipes = fmt.Sprint(o.Summary.Recipes)
	}
	parts := []string{
		fmt.Sprintf("Processed reports in '%s'. Recipes: %s", o.ProcessDir, recipes),
		fmt.Sprintf("Summary: '%s'", o.JobSummaryPath),
		"Errors file: " + issue,
	}
	if o.Enrich.Attempted {
		parts = append(parts, fmt.Sprintf("Jamf links added: packages %d/%d, policies %d/%d",
			o.Enrich.PackagesLinked, o.Enrich.PackagesTotal, o.Enrich.PoliciesLinked, o.Enrich.PoliciesTotal))
		if o.DiagnosticsPath != "" {
			parts = append(parts, fmt.Sprintf("Jamf lookup log: '%s'", o.DiagnosticsPath))
		}
	} else {
		parts = append(parts, "Jamf links: skipped (missing credentials or no uploads/policies)")
	}
	return strings.Join(parts, ". ")
}

// ExtractZip unpacks an archive into dest. Entries that would land outside
// dest are rejected.
func ExtractZip(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create extract dir: %w", err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(root, f.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes %s", f.Name, dest)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}
	logging.ReportsDebug("Extracted %d entr(ies) from %s into %s", len(zr.File), archive, dest)
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
