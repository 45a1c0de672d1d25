// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"

	"suite-installer/internal/shell"
)

// Response is what the fake returns for a matching command.
type Response struct {
	Code   int
	Output string
}

// Fake records every command and answers from Responses, matched by the longest
// prefix of the rendered command line. Unmatched commands succeed with no output.
type Fake struct {
	mu        sync.Mutex
	Responses map[string]Response
	Commands  []shell.Command
	Streamed  []bool
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{Responses: map[string]Response{}}
}

// On registers a response for commands starting with prefix.
func (f *Fake) On(prefix string, code int, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[prefix] = Response{Code: code, Output: output}
	return f
}

// Run implements shell.Runner.
func (f *Fake) Run(_ context.Context, cmd shell.Command) (int, string) {
	r := f.record(cmd, false)
	return r.Code, r.Output
}

// Stream implements shell.Runner.
func (f *Fake) Stream(_ context.Context, cmd shell.Command) int {
	return f.record(cmd, true).Code
}

// Lines returns the recorded command lines in order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		lines[i] = c.String()
	}
	return lines
}

func (f *Fake) record(cmd shell.Command, streamed bool) Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, cmd)
	f.Streamed = append(f.Streamed, streamed)

	line := cmd.String()
	best, found := "", false
	for prefix := range f.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, found = prefix, true
		}
	}
	if !found {
		return Response{}
	}
	return f.Responses[best]
}
