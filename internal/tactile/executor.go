package tactile

import "context"

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command. A non-zero exit is reported in the result, not
	// as an error; the error is reserved for commands that could not start.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)
}
