// Command autopkg-wrapper runs a list of autopkg recipes in type-ordered
// batches, reconciles trust info, notifies and summarises the run's reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"autopkgwrapper/internal/config"
	"autopkgwrapper/internal/logging"
)

// exitError carries a non-zero exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// options holds every flag. Only flags set on the command line override the
// config file and environment.
type options struct {
	configPath string

	recipes         []string
	recipeFile      string
	processingOrder []string

	autopkgBin        string
	autopkgPrefs      string
	postProcessors    []string
	concurrency       int
	debug             bool
	dryRun            bool
	disableTrustCheck bool
	logFormat         string

	disableGitCommands bool
	overridesRepoPath  string
	branchName         string
	createPR           bool
	createIssues       bool
	githubToken        string
	slackToken         string

	processReports     bool
	reportsZip         string
	reportsExtractDir  string
	reportsDir         string
	reportsOutDir      string
	reportsRunDate     string
	reportsEnvironment string
	reportsStrict      bool
}

// app is the state shared by the command tree once flags are parsed.
type app struct {
	opts   options
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	root, _ := newApp()
	return root
}

// newApp builds the command tree and the app state its commands share.
func newApp() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "autopkg-wrapper [recipe...]",
		Short: "Run autopkg recipes in ordered, parallel batches",
		Long: `autopkg-wrapper runs autopkg recipes, optionally regrouped by a processing
order so that every recipe of one type finishes before the next type starts.

Recipes that fail trust verification get refreshed trust info committed to
a branch of the overrides repo; failures can be reported as a GitHub issue
and the run's report plists summarised into Markdown.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runRecipes,
	}

	pf := root.PersistentFlags()
	o := &a.opts
	pf.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	pf.StringArrayVar(&o.recipes, "recipes", nil, "Recipes to run: repeat the flag or pass a comma or space separated list")
	pf.StringVar(&o.recipeFile, "recipe-file", "", "Recipe list file (.json, .yaml or .txt)")
	pf.StringArrayVar(&o.processingOrder, "recipe-processing-order", nil, "Type patterns to run first, in order (e.g. upload,self_service)")
	pf.StringVar(&o.autopkgBin, "autopkg-bin", "", "Path to the autopkg executable")
	pf.StringVar(&o.autopkgPrefs, "autopkg-prefs", "", "autopkg preferences file (.plist or .json)")
	pf.BoolVar(&o.debug, "debug", false, "Debug logging and verbose autopkg output")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format: console or json")

	f := root.Flags()
	f.StringArrayVar(&o.postProcessors, "post-processors", nil, "Post processors passed to every run with --post")
	f.IntVar(&o.concurrency, "concurrency", 0, "Recipes run in parallel within a batch")
	f.BoolVar(&o.dryRun, "dry-run", false, "Log autopkg commands without running them")
	f.BoolVar(&o.disableTrustCheck, "disable-recipe-trust-check", false, "Run recipes without verifying trust info")
	f.BoolVar(&o.disableGitCommands, "disable-git-commands", false, "Do not commit or push refreshed trust info")
	f.StringVar(&o.overridesRepoPath, "overrides-repo-path", "", "Recipe overrides directory (defaults to RECIPE_OVERRIDE_DIRS)")
	f.StringVar(&o.branchName, "branch-name", "", "Branch for trust info updates")
	f.BoolVar(&o.createPR, "create-pr", false, "Open a pull request for trust info updates")
	f.BoolVar(&o.createIssues, "create-issues", false, "Open a GitHub issue listing failed recipes")
	f.StringVar(&o.githubToken, "github-token", "", "GitHub token (defaults to GITHUB_TOKEN or GH_TOKEN)")
	f.StringVar(&o.slackToken, "slack-token", "", "Slack webhook URL (defaults to SLACK_WEBHOOK_TOKEN)")
	f.BoolVar(&o.processReports, "process-reports", false, "Summarise the run's reports afterwards")
	addReportFlags(f, o)

	root.AddCommand(newReportsCmd(a), newPlanCmd(a))
	return root, a
}

// setup loads config, applies flags and starts logging.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	a.opts.apply(cmd, cfg)
	a.cfg = cfg

	logger, err := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Debug:  cfg.Logging.Debug,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	logging.Boot("Running autopkg-wrapper")
	return nil
}

// apply copies changed flags onto cfg.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	set := func(name string, fn func()) {
		if fl := f.Lookup(name); fl != nil && fl.Changed {
			fn()
		}
	}

	set("recipes", func() { cfg.Recipes = o.recipes })
	set("recipe-file", func() { cfg.RecipeFile = o.recipeFile })
	set("recipe-processing-order", func() { cfg.RecipeProcessingOrder = o.processingOrder })
	set("autopkg-bin", func() { cfg.Autopkg.Bin = o.autopkgBin })
	set("autopkg-prefs", func() { cfg.Autopkg.PrefsFile = o.autopkgPrefs })
	set("post-processors", func() { cfg.Autopkg.PostProcessors = o.postProcessors })
	set("concurrency", func() { cfg.Autopkg.Concurrency = o.concurrency })
	set("debug", func() { cfg.Logging.Debug = o.debug })
	set("dry-run", func() { cfg.Autopkg.DryRun = o.dryRun })
	set("disable-recipe-trust-check", func() { cfg.Autopkg.DisableTrustCheck = o.disableTrustCheck })
	set("log-format", func() { cfg.Logging.Format = o.logFormat })

	set("disable-git-commands", func() { cfg.Trust.DisableGitCommands = o.disableGitCommands })
	set("overrides-repo-path", func() { cfg.Trust.OverridesRepoPath = o.overridesRepoPath })
	set("branch-name", func() { cfg.Trust.BranchName = o.branchName })
	set("create-pr", func() { cfg.Trust.CreatePR = o.createPR })
	set("create-issues", func() { cfg.Trust.CreateIssues = o.createIssues })
	set("github-token", func() { cfg.GitHub.Token = o.githubToken })
	set("slack-token", func() { cfg.Slack.WebhookURL = o.slackToken })

	set("process-reports", func() { cfg.Reports.Process = o.processReports })
	set("reports-zip", func() { cfg.Reports.Zip = o.reportsZip })
	set("reports-extract-dir", func() { cfg.Reports.ExtractDir = o.reportsExtractDir })
	set("reports-dir", func() { cfg.Reports.Dir = o.reportsDir })
	set("reports-out-dir", func() { cfg.Reports.OutDir = o.reportsOutDir })
	set("reports-run-date", func() { cfg.Reports.RunDate = o.reportsRunDate })
	set("reports-environment", func() { cfg.Reports.Environment = o.reportsEnvironment })
	set("reports-strict", func() { cfg.Reports.Strict = o.reportsStrict })
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			stop()
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
