// Package tactile runs external commands for the wrapper's adapters
// (autopkg, git) and returns structured results with bounded output capture.
package tactile

import (
	"strings"
	"time"
)

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "autopkg", "git").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Environment variables to add (KEY=VALUE), on top of the inherited environment.
	Environment []string `json:"environment,omitempty"`

	// Timeout overrides the executor default when positive.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ExecutionResult contains the outcome of a command.
type ExecutionResult struct {
	// ExitCode is the process exit code; -1 when the process never exited normally.
	ExitCode int `json:"exit_code"`

	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// Truncated is set when output exceeded the capture limit.
	Truncated bool `json:"truncated,omitempty"`

	// Killed is set when the command hit its timeout or the context was canceled.
	Killed     bool   `json:"killed,omitempty"`
	KillReason string `json:"kill_reason,omitempty"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded returns true when the command exited 0 and was not killed.
func (r *ExecutionResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0 && !r.Killed
}

// Output returns stdout and stderr joined by a newline.
func (r *ExecutionResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// ExecutorConfig holds defaults for an executor.
type ExecutorConfig struct {
	DefaultTimeout time.Duration
	MaxOutputBytes int64
}

// DefaultExecutorConfig returns sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultTimeout: 30 * time.Minute,
		MaxOutputBytes: 10 * 1024 * 1024,
	}
}
