// Package autopkg drives the autopkg command line tool for the scheduler:
// trust verification, trust updates and recipe runs with a report plist.
package autopkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/recipe"
	"autopkgwrapper/internal/tactile"
)

// ReportTimeFormat is the timestamp layout used in report plist names.
const ReportTimeFormat = "2006-01-02T15-04-05"

// Options configures a Client.
type Options struct {
	Bin       string
	PrefsFile string
	ReportDir string
	Debug     bool // adds -vvvv
	DryRun    bool // log commands without running them
	Timeout   time.Duration
}

// Client runs autopkg through a tactile executor.
type Client struct {
	opts Options
	exec tactile.Executor
	now  func() time.Time
}

// New creates a client.
func New(opts Options, exec tactile.Executor) *Client {
	if opts.Bin == "" {
		opts.Bin = "/usr/local/bin/autopkg"
	}
	if opts.ReportDir == "" {
		opts.ReportDir = "/private/tmp/autopkg"
	}
	return &Client{opts: opts, exec: exec, now: time.Now}
}

func (c *Client) command(args ...string) tactile.Command {
	return tactile.Command{Binary: c.opts.Bin, Arguments: args, Timeout: c.opts.Timeout}
}

func (c *Client) verbose() []string {
	if c.opts.Debug {
		return []string{"-vvvv"}
	}
	return nil
}

func (c *Client) prefs() []string {
	if c.opts.PrefsFile != "" {
		return []string{"--prefs", c.opts.PrefsFile}
	}
	return nil
}

// VerifyArgs returns the verify-trust-info argument list.
func (c *Client) VerifyArgs(r *recipe.Recipe) []string {
	args := []string{"verify-trust-info", r.Identifier()}
	args = append(args, c.verbose()...)
	return append(args, c.prefs()...)
}

// UpdateArgs returns the update-trust-info argument list.
func (c *Client) UpdateArgs(r *recipe.Recipe) []string {
	return append([]string{"update-trust-info", r.Identifier()}, c.prefs()...)
}

// RunArgs returns the run argument list for a report plist path.
func (c *Client) RunArgs(r *recipe.Recipe, report string) []string {
	args := []string{"run", r.Identifier(), "--report-plist", report}
	args = append(args, c.verbose()...)
	args = append(args, c.prefs()...)
	for _, p := range r.PostProcessors {
		args = append(args, "--post", p)
	}
	return args
}

// ReportPath returns the report plist path for a run started at t.
func (c *Client) ReportPath(r *recipe.Recipe, t time.Time) string {
	return filepath.Join(c.opts.ReportDir, fmt.Sprintf("%s-%s.plist", r.Identifier(), t.Format(ReportTimeFormat)))
}

// Verify runs verify-trust-info. In dry-run mode the recipe counts as verified.
func (c *Client) Verify(ctx context.Context, r *recipe.Recipe) (bool, string, error) {
	cmd := c.command(c.VerifyArgs(r)...)
	logging.AutopkgDebug("cmd: %s", tactile.Redact(cmd.CommandString()))
	if c.opts.DryRun {
		logging.Autopkg("Dry run: would verify trust info for %s", r.Identifier())
		return true, "", nil
	}

	res, err := c.exec.Execute(ctx, cmd)
	if err != nil {
		return false, "", fmt.Errorf("verify-trust-info %s: %w", r.Identifier(), err)
	}
	if res.Succeeded() {
		return true, "", nil
	}
	return false, strings.TrimSpace(res.Stderr), nil
}

// UpdateTrust runs update-trust-info.
func (c *Client) UpdateTrust(ctx context.Context, r *recipe.Recipe) error {
	cmd := c.command(c.UpdateArgs(r)...)
	logging.AutopkgDebug("cmd: %s", tactile.Redact(cmd.CommandString()))
	if c.opts.DryRun {
		logging.Autopkg("Dry run: would update trust info for %s", r.Identifier())
		return nil
	}

	res, err := c.exec.Execute(ctx, cmd)
	if err != nil {
		return fmt.Errorf("update-trust-info %s: %w", r.Identifier(), err)
	}
	if !res.Succeeded() {
		logging.AutopkgError("update-trust-info %s exited %d: %s", r.Identifier(), res.ExitCode, strings.TrimSpace(res.Stderr))
		return fmt.Errorf("update-trust-info %s exited %d", r.Identifier(), res.ExitCode)
	}
	return nil
}

// Execute runs the recipe and parses its report plist. A non-zero exit or an
// unreadable report is a failure; the report of a failed run is still read
// when present.
func (c *Client) Execute(ctx context.Context, r *recipe.Recipe) (recipe.Results, error) {
	report := c.ReportPath(r, c.now())
	cmd := c.command(c.RunArgs(r, report)...)
	logging.AutopkgDebug("cmd: %s", tactile.Redact(cmd.CommandString()))
	if c.opts.DryRun {
		logging.Autopkg("Dry run: would run recipe %s", r.Identifier())
		return recipe.Results{}, nil
	}

	if err := os.MkdirAll(c.opts.ReportDir, 0755); err != nil {
		return recipe.Results{}, fmt.Errorf("failed to create report dir: %w", err)
	}

	res, err := c.exec.Execute(ctx, cmd)
	if err != nil {
		return recipe.Results{Message: err.Error()}, fmt.Errorf("run %s: %w", r.Identifier(), err)
	}
	if !res.Succeeded() {
		msg := strings.TrimSpace(res.Stderr)
		if res.Killed {
			msg = strings.TrimSpace(res.KillReason + "\n" + msg)
		}
		// autopkg exits non-zero when a recipe fails but still writes its report.
		results, perr := ParseRunReport(report)
		if perr != nil {
			logging.AutopkgDebug("No usable report for failed run of %s: %v", r.Identifier(), perr)
			results = recipe.Results{}
		}
		results.Message = msg
		return results, fmt.Errorf("run %s exited %d", r.Identifier(), res.ExitCode)
	}

	results, err := ParseRunReport(report)
	if err != nil {
		return recipe.Results{Message: err.Error()}, err
	}
	logging.Autopkg("Recipe %s: %d imported, %d failure(s)", r.Identifier(), len(results.Imported), len(results.Failures))
	return results, nil
}
