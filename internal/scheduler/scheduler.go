package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"autopkgwrapper/internal/batching"
	"autopkgwrapper/internal/logging"
	"autopkgwrapper/internal/recipe"
)

// State is a scheduler lifecycle phase.
type State string

const (
	StateIdle           State = "idle"
	StateBatching       State = "batching"
	StateExecuting      State = "executing"
	StateCollecting     State = "collecting"
	StatePostProcessing State = "post-processing"
	StateDone           State = "done"
)

// Options controls a run.
type Options struct {
	// Concurrency is the worker count per batch. Values below 1 mean 1.
	Concurrency int
	// Ordered is true when a processing order was applied upstream; it
	// enables one batch per contiguous type run.
	Ordered bool
	// DisableTrustCheck skips verification and runs every recipe.
	DisableTrustCheck bool
}

// Option wires an optional collaborator.
type Option func(*Scheduler)

// WithReconciler sets the trust reconciler used in post-processing.
func WithReconciler(r TrustReconciler) Option {
	return func(s *Scheduler) { s.reconciler = r }
}

// WithNotifier sets the per-recipe notifier used in post-processing.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithPullRequester enables a single trust update pull request per run.
func WithPullRequester(p PullRequester) Option {
	return func(s *Scheduler) { s.pullRequester = p }
}

// WithIssueReporter enables a single failure issue per run.
func WithIssueReporter(i IssueReporter) Option {
	return func(s *Scheduler) { s.issueReporter = i }
}

// WithStateHook registers a callback for every state transition.
func WithStateHook(fn func(State)) Option {
	return func(s *Scheduler) { s.stateHook = fn }
}

// Scheduler executes recipes in batches.
type Scheduler struct {
	opts     Options
	executor Executor

	reconciler    TrustReconciler
	notifier      Notifier
	pullRequester PullRequester
	issueReporter IssueReporter
	stateHook     func(State)
}

// New creates a scheduler around an executor.
func New(opts Options, executor Executor, options ...Option) (*Scheduler, error) {
	if executor == nil {
		return nil, fmt.Errorf("scheduler requires an executor")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	s := &Scheduler{opts: opts, executor: executor}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Recipes []*recipe.Recipe
	Batches []batching.Description

	// Failed lists failed recipes in completion order.
	Failed []*recipe.Recipe

	PullRequestURL string
	IssueURL       string

	// PostErrors collects collaborator errors from post-processing.
	PostErrors []error
}

// Run executes every recipe and then post-processes the results. It only
// returns an error when there is nothing to run; unit failures are recorded
// on the recipes and in Result.Failed.
func (s *Scheduler) Run(ctx context.Context, recipes []*recipe.Recipe) (*Result, error) {
	if len(recipes) == 0 {
		return nil, recipe.ErrNoRecipes
	}

	res := &Result{RunID: uuid.NewString(), Recipes: recipes}
	s.transition(res, StateIdle)

	s.transition(res, StateBatching)
	batches := batching.Build(recipes, s.opts.Ordered)
	res.Batches = batching.Describe(batches)
	logging.Scheduler("Running %d recipes in %d batch(es) with concurrency=%d",
		len(recipes), len(batches), s.opts.Concurrency)

	var mu sync.Mutex
	for i, b := range batches {
		s.transition(res, StateExecuting)
		logging.Scheduler("Batch %d/%d: type=%q count=%d", i+1, len(batches), b.Type, len(b.Units))
		timer := logging.StartTimer(logging.CategoryScheduler, fmt.Sprintf("batch %d", i+1))

		var g errgroup.Group
		g.SetLimit(s.opts.Concurrency)
		for _, r := range b.Units {
			r := r
			g.Go(func() error {
				s.process(ctx, r)
				if r.Failed() {
					mu.Lock()
					res.Failed = append(res.Failed, r)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		s.transition(res, StateCollecting)
		timer.Stop()
	}

	s.transition(res, StatePostProcessing)
	s.postProcess(ctx, res)

	s.transition(res, StateDone)
	logging.Scheduler("Run %s finished: %d recipe(s), %d failed, %d post-processing error(s)",
		res.RunID, len(recipes), len(res.Failed), len(res.PostErrors))
	return res, nil
}

// process runs one recipe: verify, then execute or update trust.
func (s *Scheduler) process(ctx context.Context, r *recipe.Recipe) {
	logging.Scheduler("Processing Recipe: %s", r.Name())

	if s.opts.DisableTrustCheck {
		logging.SchedulerDebug("Running %s without verification", r.Identifier())
		r.Trust = recipe.TrustUnknown
		s.execute(ctx, r)
		return
	}

	ok, detail, err := s.executor.Verify(ctx, r)
	if err != nil {
		logging.SchedulerError("Trust verification for %s could not run: %v", r.Identifier(), err)
		r.Error = true
		r.Results.Message = err.Error()
		return
	}
	if ok {
		r.Trust = recipe.TrustVerified
		s.execute(ctx, r)
		return
	}

	r.Trust = recipe.TrustFailed
	r.Results.Message = detail
	logging.SchedulerWarn("Trust verification failed for %s; updating trust info", r.Identifier())
	if err := s.executor.UpdateTrust(ctx, r); err != nil {
		logging.SchedulerError("Failed to update trust info for %s: %v", r.Identifier(), err)
		r.Error = true
		if r.Results.Message == "" {
			r.Results.Message = err.Error()
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, r *recipe.Recipe) {
	results, err := s.executor.Execute(ctx, r)
	r.Results = results
	if err != nil {
		r.Error = true
		if r.Results.Message == "" {
			r.Results.Message = err.Error()
		}
		logging.SchedulerWarn("Recipe %s failed: %v", r.Identifier(), err)
		return
	}
	r.Updated = !r.Failed()
}

// postProcess runs the serial side effects in original list order.
func (s *Scheduler) postProcess(ctx context.Context, res *Result) {
	if s.reconciler != nil {
		for _, r := range res.Recipes {
			if err := s.reconciler.Reconcile(ctx, r); err != nil {
				s.postError(res, fmt.Errorf("reconcile %s: %w", r.Identifier(), err))
			}
		}
	}

	if s.notifier != nil {
		for _, r := range res.Recipes {
			if err := s.notifier.Notify(ctx, r); err != nil {
				s.postError(res, fmt.Errorf("notify %s: %w", r.Identifier(), err))
			}
		}
	}

	if s.pullRequester != nil {
		rep := representative(res.Recipes)
		url, err := s.pullRequester.OpenPullRequest(ctx, rep)
		if err != nil {
			s.postError(res, fmt.Errorf("open pull request: %w", err))
		} else {
			res.PullRequestURL = url
			logging.Scheduler("Created Pull Request for trust info updates: %s", url)
		}
	}

	if s.issueReporter != nil && len(res.Failed) > 0 {
		url, err := s.issueReporter.ReportFailures(ctx, inListOrder(res.Recipes, res.Failed))
		if err != nil {
			s.postError(res, fmt.Errorf("report failures: %w", err))
		} else {
			res.IssueURL = url
			logging.Scheduler("Created GitHub issue for failed recipes: %s", url)
		}
	}
}

func (s *Scheduler) postError(res *Result, err error) {
	logging.SchedulerError("%v", err)
	res.PostErrors = append(res.PostErrors, err)
}

func (s *Scheduler) transition(res *Result, state State) {
	logging.SchedulerDebug("run %s: %s", res.RunID, state)
	if s.stateHook != nil {
		s.stateHook(state)
	}
}

// representative picks the recipe a trust pull request is titled after: the
// first one that was updated or failed verification, else the first.
func representative(recipes []*recipe.Recipe) *recipe.Recipe {
	for _, r := range recipes {
		if r.Updated || r.Trust == recipe.TrustFailed {
			return r
		}
	}
	return recipes[0]
}

// inListOrder returns subset sorted by position in all.
func inListOrder(all, subset []*recipe.Recipe) []*recipe.Recipe {
	pos := make(map[*recipe.Recipe]int, len(all))
	for i, r := range all {
		pos[r] = i
	}
	out := append([]*recipe.Recipe(nil), subset...)
	sort.Slice(out, func(i, j int) bool { return pos[out[i]] < pos[out[j]] })
	return out
}
