// Package scheduler runs recipes batch by batch. Units within a batch run
// concurrently on a bounded pool; a batch finishes completely before the next
// starts. After the last batch a serial post-processing phase reconciles
// trust changes, sends notifications and opens at most one pull request and
// one issue.
package scheduler
