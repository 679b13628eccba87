package git

import (
	"context"
	"fmt"

	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/recipe"
)

// Reconciler commits refreshed trust info for recipes that failed
// verification onto a dedicated branch and pushes it.
type Reconciler struct {
	Repo               *Repo
	Branch             string
	DisableTrustCheck  bool
	DisableGitCommands bool
}

// Reconcile implements scheduler.TrustReconciler. Calls are expected to be
// serial.
func (c *Reconciler) Reconcile(ctx context.Context, r *recipe.Recipe) error {
	logging.GitDebug("%s trust=%s disable_recipe_trust_check=%t", r.Identifier(), r.Trust, c.DisableTrustCheck)

	switch {
	case r.Trust == recipe.TrustVerified:
		logging.GitDebug("Not updating repo as recipe has been verified")
		return nil
	case c.DisableTrustCheck:
		logging.GitDebug("Not updating repo as recipe verification has been disabled")
		return nil
	case r.Trust != recipe.TrustFailed:
		return nil
	}

	if c.DisableGitCommands {
		logging.Git("Not running git commands as --disable-git-commands has been set")
		return nil
	}

	current, err := c.Repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current != c.Branch {
		logging.GitDebug("override_trust_branch: %s", c.Branch)
		if err := c.Repo.CreateBranch(ctx, c.Branch); err != nil {
			return err
		}
	}

	if err := c.Repo.Stage(ctx); err != nil {
		return err
	}
	if err := c.Repo.Commit(ctx, fmt.Sprintf("Updating Trust Info for %s", r.Name())); err != nil {
		return err
	}
	// The branch does not exist on origin until the first push.
	if err := c.Repo.Pull(ctx, c.Branch); err != nil {
		logging.GitDebug("pull skipped: %v", err)
	}
	if err := c.Repo.Push(ctx, c.Branch); err != nil {
		return err
	}
	logging.Git("Committed trust info for %s to %s", r.Name(), c.Branch)
	return nil
}
