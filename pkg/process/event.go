package process

import (
	"fmt"
	"strings"
)

// Event is one item in the feed produced by a running process. The feed is
// zero or more StderrLine values followed by exactly one Done or Failure.
// If the run is cancelled the feed closes with no terminal event.
type Event interface {
	isEvent()
}

// StderrLine is one trimmed, non-empty line written to stderr
type StderrLine struct {
	Text string
}

// Done is the terminal event of a run that exited successfully
type Done struct {
	// Stdout is everything the process wrote to stdout
	Stdout string
}

// Failure is the terminal event of a run that could not be started or
// exited unsuccessfully
type Failure struct {
	Err error
}

func (StderrLine) isEvent() {}
func (Done) isEvent()       {}
func (Failure) isEvent()    {}

// ExitError reports a process that ran but exited with a non-zero status.
// It keeps the captured text so callers can classify the failure.
type ExitError struct {
	Program  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Program, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Program, e.ExitCode, msg)
}

// Output returns stderr followed by stdout
func (e *ExitError) Output() string {
	if e.Stdout == "" {
		return e.Stderr
	}
	return e.Stderr + "\n" + e.Stdout
}
