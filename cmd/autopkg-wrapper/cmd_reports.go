package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"autopkgwrapper/internal/config"
	"autopkgwrapper/internal/jamf"
	"autopkgwrapper/internal/report"
)

func addReportFlags(f *pflag.FlagSet, o *options) {
	f.StringVar(&o.reportsZip, "reports-zip", "", "Zip archive of report directories to extract and process")
	f.StringVar(&o.reportsExtractDir, "reports-extract-dir", "", "Where --reports-zip is extracted")
	f.StringVar(&o.reportsDir, "reports-dir", "", "Report directory to process when no zip is given")
	f.StringVar(&o.reportsOutDir, "reports-out-dir", "", "Directory for job_summary.md and errors_issue.md")
	f.StringVar(&o.reportsRunDate, "reports-run-date", "", "Run date shown in the summary title")
	f.StringVar(&o.reportsEnvironment, "reports-environment", "", "Environment label shown in the summary title")
	f.BoolVar(&o.reportsStrict, "reports-strict", false, "Exit 1 when any report recorded an error")
}

func newReportsCmd(a *app) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Summarise autopkg report artifacts into Markdown",
		Long: `Aggregates report plists, JSON summaries and log files into job_summary.md
and, when errors were recorded, errors_issue.md. Package and policy names are
linked to Jamf Pro when AUTOPKG_JSS_URL, AUTOPKG_CLIENT_ID and
AUTOPKG_CLIENT_SECRET are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := processReports(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Status())

			if show {
				if err := showSummary(cmd, out.JobSummaryPath); err != nil {
					return err
				}
			}
			if out.ExitCode != 0 {
				return &exitError{code: out.ExitCode}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Render the job summary in the terminal")
	addReportFlags(cmd.Flags(), &a.opts)
	return cmd
}

// processReports runs report processing with the configured sources and an
// optional Jamf inventory.
func processReports(ctx context.Context, cfg *config.Config) (*report.Outcome, error) {
	opts := report.ProcessOptions{
		Zip:         cfg.Reports.Zip,
		ExtractDir:  cfg.Reports.ExtractDir,
		Dir:         cfg.ReportsSource(),
		OutDir:      cfg.Reports.OutDir,
		Environment: cfg.Reports.Environment,
		RunDate:     cfg.Reports.RunDate,
		Debug:       cfg.Logging.Debug,
		Strict:      cfg.Reports.Strict,
		RepoURL:     cfg.Reports.RepoURL,
		RepoBranch:  cfg.Reports.RepoBranch,
		RepoPath:    cfg.Reports.RepoPath,
	}
	if cfg.Jamf.Enabled() {
		opts.Inventory = jamf.New(cfg.Jamf.URL, cfg.Jamf.ClientID, cfg.Jamf.ClientSecret, cfg.GetJamfTimeout())
		opts.InventoryURL = jamf.NormalizeURL(cfg.Jamf.URL)
	}
	return report.Process(ctx, opts)
}

func showSummary(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(string(data))
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
