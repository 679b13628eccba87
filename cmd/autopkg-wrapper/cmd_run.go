package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autopkgwrapper/internal/autopkg"
	"autopkgwrapper/internal/config"
	"autopkgwrapper/internal/git"
	"autopkgwrapper/internal/github"
	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/notify"
	"autopkgwrapper/internal/ordering"
	"autopkgwrapper/internal/recipe"
	"autopkgwrapper/internal/scheduler"
	"autopkgwrapper/internal/tactile"
)

// runRecipes is the root command: plan, execute, post-process, and
// optionally summarise reports.
func (a *app) runRecipes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	recipes, ordered, err := planRecipes(cfg, args)
	if err != nil {
		return err
	}

	exec := tactile.NewDirectExecutor()
	client := autopkg.New(autopkg.Options{
		Bin:       cfg.Autopkg.Bin,
		PrefsFile: cfg.Autopkg.PrefsFile,
		ReportDir: cfg.Autopkg.ReportDir,
		Debug:     cfg.Logging.Debug,
		DryRun:    cfg.Autopkg.DryRun,
		Timeout:   cfg.GetRunTimeout(),
	}, exec)

	s, err := scheduler.New(scheduler.Options{
		Concurrency:       cfg.Autopkg.Concurrency,
		Ordered:           ordered,
		DisableTrustCheck: cfg.Autopkg.DisableTrustCheck,
	}, client, collaborators(ctx, cfg, exec)...)
	if err != nil {
		return err
	}

	res, err := s.Run(ctx, recipes)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d recipe(s), %d failed\n", res.RunID, len(res.Recipes), len(res.Failed))
	for _, r := range res.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", r.Identifier())
	}

	if !cfg.Reports.Process {
		return nil
	}
	out, err := processReports(ctx, cfg)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return &exitError{code: out.ExitCode}
	}
	return nil
}

// planRecipes resolves the recipe list, applies the processing order and
// builds the recipes. ordered reports whether an order was requested.
func planRecipes(cfg *config.Config, args []string) ([]*recipe.Recipe, bool, error) {
	values := recipe.ParseList(cfg.Recipes)
	if len(args) > 0 {
		values = append(values, recipe.ParseList(args)...)
	}
	ids, err := recipe.Load(values, cfg.RecipeFile)
	if err != nil {
		return nil, false, err
	}

	spec := ordering.Normalize(cfg.RecipeProcessingOrder...)
	ids = ordering.Order(ids, spec)
	if !spec.Empty() {
		logging.Ordering("Recipe processing order: %v", []string(spec))
	}

	post := recipe.ParsePostProcessors(cfg.Autopkg.PostProcessors)
	recipes := make([]*recipe.Recipe, 0, len(ids))
	for _, id := range ids {
		recipes = append(recipes, recipe.New(id, post))
	}
	return recipes, !spec.Empty(), nil
}

// collaborators wires the post-processing side effects the config asks for.
// Without a usable overrides repo, trust commits, pull requests and issues
// are skipped.
func collaborators(ctx context.Context, cfg *config.Config, exec tactile.Executor) []scheduler.Option {
	var opts []scheduler.Option
	if cfg.Slack.WebhookURL != "" {
		opts = append(opts, scheduler.WithNotifier(notify.NewSlack(cfg.Slack.WebhookURL)))
	}

	wantIssues := cfg.Trust.CreateIssues && cfg.GitHub.Token != ""
	if cfg.Trust.DisableGitCommands && !cfg.Trust.CreatePR && !wantIssues {
		return opts
	}

	root, err := overridesRepo(cfg)
	if err != nil {
		logging.BootError("Overrides repo unavailable, skipping trust commits, pull requests and issues: %v", err)
		return opts
	}
	logging.BootDebug("Override Repo Path: %s", root)
	repo := git.Open(root, exec)
	opts = append(opts, scheduler.WithReconciler(&git.Reconciler{
		Repo:               repo,
		Branch:             cfg.Trust.BranchName,
		DisableTrustCheck:  cfg.Autopkg.DisableTrustCheck,
		DisableGitCommands: cfg.Trust.DisableGitCommands,
	}))

	if !cfg.Trust.CreatePR && !wantIssues {
		return opts
	}
	remote, err := repo.Remote(ctx)
	if err != nil {
		logging.BootError("Cannot read the overrides repo remote, skipping pull requests and issues: %v", err)
		return opts
	}
	gh := github.NewClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL)
	if cfg.Trust.CreatePR {
		opts = append(opts, scheduler.WithPullRequester(&github.TrustPullRequester{
			Client: gh,
			Remote: remote,
			Branch: cfg.Trust.BranchName,
		}))
	}
	if wantIssues {
		opts = append(opts, scheduler.WithIssueReporter(&github.FailureIssueReporter{
			Client: gh,
			Remote: remote,
			Label:  cfg.GitHub.IssueLabel,
		}))
	}
	return opts
}

// overridesRepo finds the git checkout holding the recipe overrides: the
// configured path, else the first RECIPE_OVERRIDE_DIRS entry in the autopkg
// prefs.
func overridesRepo(cfg *config.Config) (string, error) {
	dir := cfg.Trust.OverridesRepoPath
	if dir == "" {
		prefs := cfg.Autopkg.PrefsFile
		if prefs == "" {
			prefs = autopkg.DefaultPrefsPath()
		}
		dirs, err := autopkg.OverrideDirs(prefs)
		if err != nil {
			return "", err
		}
		dir = dirs[0]
	}
	return git.FindRepoRoot(dir)
}
