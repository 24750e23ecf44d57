// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"sync"

	"github.com/fermyon/spin-companion/pkg/process"
)

// Call records one invocation of the fake runner
type Call struct {
	Program string
	Args    []string
	Env     map[string]string
}

// Result scripts the feed produced for one invocation
type Result struct {
	Lines  []string
	Stdout string
	// Err, when set, ends the feed with a Failure instead of Done
	Err error
}

// Runner replays Results in order, one per Run call. Running past the end of
// the script yields a Done with empty stdout.
type Runner struct {
	mu      sync.Mutex
	Results []Result
	Calls   []Call
}

// NewRunner creates a runner scripted with results
func NewRunner(results ...Result) *Runner {
	return &Runner{Results: results}
}

// Run implements process.Runner
func (r *Runner) Run(ctx context.Context, program string, args []string, env map[string]string) <-chan process.Event {
	r.mu.Lock()
	r.Calls = append(r.Calls, Call{Program: program, Args: append([]string(nil), args...), Env: env})
	var res Result
	if len(r.Results) > 0 {
		res = r.Results[0]
		r.Results = r.Results[1:]
	}
	r.mu.Unlock()

	events := make(chan process.Event, len(res.Lines)+1)
	for _, line := range res.Lines {
		events <- process.StderrLine{Text: line}
	}
	if res.Err != nil {
		events <- process.Failure{Err: res.Err}
	} else {
		events <- process.Done{Stdout: res.Stdout}
	}
	close(events)
	return events
}

// ExitFailure builds the error a real run reports for a non-zero exit
func ExitFailure(stderr string) error {
	return &process.ExitError{Program: "spin", ExitCode: 1, Stderr: stderr}
}

// Locator is a fixed spin.Locator
type Locator struct {
	Path string
	Err  error
}

// EnsureInstalled returns the configured path or error
func (l Locator) EnsureInstalled(ctx context.Context) (string, error) {
	return l.Path, l.Err
}
