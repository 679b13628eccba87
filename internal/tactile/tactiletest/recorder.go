// Package tactiletest provides a scripted tactile.Executor for tests.
package tactiletest

import (
	"context"
	"strings"
	"sync"

	"autopkgwrapper/internal/tactile"
)

// Response is what the recorder returns for a matching command.
type Response struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error

	// Hook runs before the response is returned, e.g. to write a report file.
	Hook func(cmd tactile.Command)
}

// Recorder records every command and answers from scripted responses keyed
// by a prefix of the joined argument list. Unmatched commands exit 0.
type Recorder struct {
	mu        sync.Mutex
	responses []scripted
	commands  []tactile.Command
}

type scripted struct {
	prefix string
	resp   Response
}

// On registers a response for commands whose arguments start with prefix.
// Earlier registrations win.
func (r *Recorder) On(prefix string, resp Response) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, scripted{prefix: prefix, resp: resp})
	return r
}

// Execute implements tactile.Executor.
func (r *Recorder) Execute(_ context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	var resp Response
	args := strings.Join(cmd.Arguments, " ")
	for _, s := range r.responses {
		if strings.HasPrefix(args, s.prefix) {
			resp = s.resp
			break
		}
	}
	r.mu.Unlock()

	if resp.Hook != nil {
		resp.Hook(cmd)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &tactile.ExecutionResult{
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
	}, nil
}

// Commands returns a copy of every command seen so far.
func (r *Recorder) Commands() []tactile.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tactile.Command(nil), r.commands...)
}

// Args returns the joined argument list of every command seen so far.
func (r *Recorder) Args() []string {
	cmds := r.Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = strings.Join(c.Arguments, " ")
	}
	return out
}
