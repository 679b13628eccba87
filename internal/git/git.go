// Package git runs the git plumbing used to commit refreshed trust info in
// the recipe overrides repository.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/tactile"
)

// Repo is a git checkout addressed through --git-dir / --work-tree.
type Repo struct {
	Path string
	Bin  string
	exec tactile.Executor
}

// Open returns a Repo rooted at path.
func Open(path string, exec tactile.Executor) *Repo {
	return &Repo{Path: path, Bin: "git", exec: exec}
}

// FindRepoRoot returns dir when it holds .git, else its parent when that
// does. Override dirs are usually the repo root or one level below it.
func FindRepoRoot(dir string) (string, error) {
	dir = filepath.Clean(dir)
	for _, candidate := range []string{dir, filepath.Dir(dir)} {
		if info, err := os.Stat(filepath.Join(candidate, ".git")); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no git repository at %s or its parent", dir)
}

func (r *Repo) gitDir() string   { return "--git-dir=" + filepath.Join(r.Path, ".git") }
func (r *Repo) workTree() string { return "--work-tree=" + r.Path }

// run executes git with the repo's git dir (and work tree when withTree).
func (r *Repo) run(ctx context.Context, withTree bool, args ...string) (string, error) {
	full := []string{r.gitDir()}
	if withTree {
		full = append(full, r.workTree())
	}
	full = append(full, args...)

	res, err := r.exec.Execute(ctx, tactile.Command{Binary: r.Bin, Arguments: full})
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	out := strings.TrimSpace(res.Stdout)
	logging.GitDebug("git %s: %s%s", args[0], tactile.Redact(out), tactile.Redact(strings.TrimSpace(res.Stderr)))
	if !res.Succeeded() {
		return out, fmt.Errorf("git %s exited %d: %s", args[0], res.ExitCode, tactile.Redact(strings.TrimSpace(res.Stderr)))
	}
	return out, nil
}

// CurrentBranch returns the checked out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, false, "rev-parse", "--abbrev-ref", "HEAD")
}

// CreateBranch creates and checks out a new branch.
func (r *Repo) CreateBranch(ctx context.Context, name string) error {
	_, err := r.run(ctx, true, "checkout", "-b", name)
	return err
}

// Stage stages modifications to tracked files.
func (r *Repo) Stage(ctx context.Context) error {
	_, err := r.run(ctx, true, "add", "-u")
	return err
}

// Commit commits the staged changes.
func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, true, "commit", "-m", message)
	return err
}

// Pull rebases the branch onto origin.
func (r *Repo) Pull(ctx context.Context, branch string) error {
	_, err := r.run(ctx, true, "pull", "--rebase", "origin", branch)
	return err
}

// Push pushes the branch to origin and sets upstream.
func (r *Repo) Push(ctx context.Context, branch string) error {
	_, err := r.run(ctx, true, "push", "-u", "origin", branch)
	return err
}

// Remote returns the parsed origin remote.
func (r *Repo) Remote(ctx context.Context) (RemoteInfo, error) {
	url, err := r.run(ctx, false, "config", "--get", "remote.origin.url")
	if err != nil {
		return RemoteInfo{}, err
	}
	return ParseRemote(url)
}
