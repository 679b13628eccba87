package github

import (
	"context"
	"fmt"
	"strings"

	"autopkgwrapper/internal/git"
	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/recipe"
)

// IssueTitle is the title of the per-run failure issue.
const IssueTitle = "AutoPkg Recipe Failures"

// TrustPullRequester opens the trust update pull request.
type TrustPullRequester struct {
	Client *Client
	Remote git.RemoteInfo
	Branch string
	Base   string // defaults to main
}

// OpenPullRequest implements scheduler.PullRequester.
func (p *TrustPullRequester) OpenPullRequest(ctx context.Context, r *recipe.Recipe) (string, error) {
	base := p.Base
	if base == "" {
		base = "main"
	}
	pr := PullRequest{
		Title: fmt.Sprintf("Update Trust Information: %s", r.Name()),
		Body: fmt.Sprintf("Recipe Verification information is out-of-date for %s.\n"+
			"Please review and merge the updated trust information for this override.\n", r.Name()),
		Head: p.Branch,
		Base: base,
	}
	created, err := p.Client.CreatePullRequest(ctx, p.Remote.Ref, pr)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/pull/%d", p.Remote.URL, created.Number)
	logging.NotifyDebug("PR URL: %s", url)
	return url, nil
}

// FailureIssueReporter files one issue listing every failed recipe.
type FailureIssueReporter struct {
	Client *Client
	Remote git.RemoteInfo
	Label  string // defaults to autopkg-failure
}

// ReportFailures implements scheduler.IssueReporter. It returns "" without
// calling GitHub when nothing failed.
func (p *FailureIssueReporter) ReportFailures(ctx context.Context, failed []*recipe.Recipe) (string, error) {
	if len(failed) == 0 {
		return "", nil
	}
	label := p.Label
	if label == "" {
		label = "autopkg-failure"
	}
	created, err := p.Client.CreateIssue(ctx, p.Remote.Ref, Issue{
		Title:  IssueTitle,
		Body:   FailureIssueBody(failed),
		Labels: []string{label},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/issues/%d", p.Remote.URL, created.Number), nil
}

// FailureIssueBody renders the Markdown body for the failure issue.
func FailureIssueBody(failed []*recipe.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following %d recipe(s) failed during the latest AutoPkg run:\n", len(failed))
	for _, r := range failed {
		fmt.Fprintf(&b, "\n### %s\n\n", r.Name())
		fmt.Fprintf(&b, "- Recipe: `%s`\n", r.Identifier())
		if len(r.Results.Failures) == 0 {
			msg := r.Results.Message
			if msg == "" {
				msg = "Unknown error"
			}
			fmt.Fprintf(&b, "- Error: %s\n", msg)
			continue
		}
		for _, f := range r.Results.Failures {
			fmt.Fprintf(&b, "- Error: %s\n", f.Message)
			if f.Traceback != "" {
				fmt.Fprintf(&b, "\n```\n%s\n```\n", strings.TrimSpace(f.Traceback))
			}
		}
	}
	return b.String()
}
