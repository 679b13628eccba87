package scheduler

import (
	"context"

	"autopkgwrapper/internal/recipe"
)

// Executor performs the per-recipe autopkg operations.
type Executor interface {
	// Verify checks the recipe's trust info. ok is false when the trust info
	// drifted; detail carries the tool's explanation. err means the check
	// could not be run at all.
	Verify(ctx context.Context, r *recipe.Recipe) (ok bool, detail string, err error)

	// Execute runs the recipe. A non-nil error marks the run as failed; the
	// returned results are kept either way.
	Execute(ctx context.Context, r *recipe.Recipe) (recipe.Results, error)

	// UpdateTrust rewrites the recipe override's trust info.
	UpdateTrust(ctx context.Context, r *recipe.Recipe) error
}

// TrustReconciler persists trust updates (branch, commit, push).
type TrustReconciler interface {
	Reconcile(ctx context.Context, r *recipe.Recipe) error
}

// Notifier delivers a per-recipe notification.
type Notifier interface {
	Notify(ctx context.Context, r *recipe.Recipe) error
}

// PullRequester opens a pull request for trust updates and returns its URL.
type PullRequester interface {
	OpenPullRequest(ctx context.Context, r *recipe.Recipe) (string, error)
}

// IssueReporter files one issue for all failed recipes and returns its URL.
type IssueReporter interface {
	ReportFailures(ctx context.Context, failed []*recipe.Recipe) (string, error)
}
