package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/fermyon/spin-companion/pkg/util"
)

// waitDelay bounds how long Wait keeps copying output after the child has
// exited, for descendants that inherited its stdout
const waitDelay = 500 * time.Millisecond

// ErrCancelled is returned by Collect when the context ends before the
// process produced a terminal event
var ErrCancelled = errors.New("operation cancelled")

// Runner starts external programs and reports their progress as an Event feed
type Runner interface {
	Run(ctx context.Context, program string, args []string, env map[string]string) <-chan Event
}

// ExecRunner runs programs with os/exec
type ExecRunner struct {
	// Dir is the working directory of the child, empty for the current one
	Dir string
}

// NewExecRunner creates a runner that starts children in dir
func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

// Run starts program with args. env is merged over the inherited environment.
// The returned channel is closed after the terminal event, or straight away
// once ctx is cancelled; cancelling also kills the child and, where the
// platform allows, everything it started.
func (r *ExecRunner) Run(ctx context.Context, program string, args []string, env map[string]string) <-chan Event {
	events := make(chan Event)
	go r.run(ctx, program, args, env, events)
	return events
}

func (r *ExecRunner) run(ctx context.Context, program string, args []string, env map[string]string, events chan<- Event) {
	defer close(events)
	log := util.GetLogger()

	emit := func(ev Event) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if ctx.Err() != nil {
		return
	}

	cmd := exec.Command(program, args...)
	cmd.Dir = r.Dir
	cmd.Env = MergeEnv(os.Environ(), env)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		emit(Failure{Err: fmt.Errorf("failed to attach to stderr of %s: %w", program, err)})
		return
	}

	log.V(1).Info("Starting process", "program", program, "args", args, "envKeys", sortedKeys(env))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		emit(Failure{Err: fmt.Errorf("failed to execute %s: %w", program, err)})
		return
	}

	stop := context.AfterFunc(ctx, func() {
		log.V(1).Info("Cancelling process", "program", program, "pid", cmd.Process.Pid)
		if err := killProcessGroup(cmd.Process); err != nil {
			log.V(1).Info("Failed to kill process group", "pid", cmd.Process.Pid, "error", err)
			_ = cmd.Process.Kill()
		}
		// a descendant outside the group may still hold the pipe open
		_ = stderr.Close()
	})
	defer stop()

	var lines LineBuffer
	var stderrText strings.Builder
	buf := make([]byte, 4096)
	for {
		n, readErr := stderr.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			stderrText.Write(chunk)
			for _, line := range lines.Write(chunk) {
				emit(StderrLine{Text: line})
			}
		}
		if readErr != nil {
			break
		}
	}

	waitErr := cmd.Wait()
	log.V(1).Info("Process completed", "program", program, "duration", time.Since(start), "error", waitErr)

	if ctx.Err() != nil {
		return
	}

	if errors.Is(waitErr, exec.ErrWaitDelay) {
		// the child exited cleanly but left a descendant holding stdout
		log.Info("Process left output open after exiting", "program", program)
		waitErr = nil
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			emit(Failure{Err: &ExitError{
				Program:  program,
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderrText.String(),
			}})
			return
		}
		emit(Failure{Err: fmt.Errorf("failed waiting for %s: %w", program, waitErr)})
		return
	}

	emit(Done{Stdout: stdout.String()})
}

// Collect drains events until the terminal event. Each stderr line is passed
// to onLine, which may be nil. It returns the stdout of a successful run, the
// failure error otherwise, or ErrCancelled if ctx ends first.
func Collect(ctx context.Context, events <-chan Event, onLine func(string)) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ErrCancelled
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return "", ErrCancelled
				}
				return "", errors.New("process output ended without a result")
			}
			switch e := ev.(type) {
			case StderrLine:
				if onLine != nil {
					onLine(e.Text)
				}
			case Done:
				return e.Stdout, nil
			case Failure:
				return "", e.Err
			default:
				return "", fmt.Errorf("unexpected process event %T", ev)
			}
		}
	}
}

// MergeEnv returns base with the entries of overlay added or replaced
func MergeEnv(base []string, overlay map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := overlay[key]; overridden {
			continue
		}
		merged = append(merged, kv)
	}
	for _, key := range sortedKeys(overlay) {
		merged = append(merged, key+"="+overlay[key])
	}
	return merged
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
