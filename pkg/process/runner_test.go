package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess is not a real test. It is re-executed by the runner tests
// as the child process.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "lines":
		fmt.Fprint(os.Stderr, "Building...\n\n   \n  Uploading  \npartial tail")
		fmt.Fprint(os.Stdout, "https://myapp.example")
		os.Exit(0)
	case "exists":
		fmt.Fprint(os.Stderr, "Error: bindle already exists on the server\n")
		os.Exit(1)
	case "env":
		fmt.Fprintf(os.Stdout, "%s|%s|%t", os.Getenv("SPIN_TEST_OVERRIDE"), os.Getenv("SPIN_TEST_INHERITED"), os.Getenv("PATH") != "")
		os.Exit(0)
	case "hang":
		fmt.Fprint(os.Stderr, "started\n")
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "sleep":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "fork":
		// the grandchild inherits both output pipes
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "sleep")
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			os.Exit(3)
		}
		fmt.Fprint(os.Stderr, "forked\n")
		_ = child.Wait()
		os.Exit(0)
	}
	os.Exit(2)
}

func helperRun(ctx context.Context, mode string, env map[string]string) <-chan Event {
	overlay := map[string]string{"GO_WANT_HELPER_PROCESS": "1"}
	for k, v := range env {
		overlay[k] = v
	}
	runner := NewExecRunner("")
	return runner.Run(ctx, os.Args[0], []string{"-test.run=TestHelperProcess", "--", mode}, overlay)
}

func drain(events <-chan Event) []Event {
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func TestExecRunner_StreamsStderrLinesThenDone(t *testing.T) {
	all := drain(helperRun(context.Background(), "lines", nil))

	want := []Event{
		StderrLine{Text: "Building..."},
		StderrLine{Text: "Uploading"},
		Done{Stdout: "https://myapp.example"},
	}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("events = %#v, want %#v", all, want)
	}
}

func TestExecRunner_NonZeroExitIsFailure(t *testing.T) {
	all := drain(helperRun(context.Background(), "exists", nil))

	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d: %#v", len(all), all)
	}
	if line, ok := all[0].(StderrLine); !ok || line.Text != "Error: bindle already exists on the server" {
		t.Errorf("first event = %#v", all[0])
	}
	failure, ok := all[1].(Failure)
	if !ok {
		t.Fatalf("terminal event = %#v, want Failure", all[1])
	}
	var exitErr *ExitError
	if !errors.As(failure.Err, &exitErr) {
		t.Fatalf("failure error = %v, want *ExitError", failure.Err)
	}
	if exitErr.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.ExitCode)
	}
	if !strings.Contains(exitErr.Output(), "already exists on the server") {
		t.Errorf("output %q does not contain the stderr text", exitErr.Output())
	}
}

func TestExecRunner_ExactlyOneTerminalEvent(t *testing.T) {
	for _, mode := range []string{"lines", "exists", "env"} {
		t.Run(mode, func(t *testing.T) {
			all := drain(helperRun(context.Background(), mode, nil))
			terminals := 0
			for i, ev := range all {
				switch ev.(type) {
				case Done, Failure:
					terminals++
					if i != len(all)-1 {
						t.Errorf("terminal event at position %d of %d", i, len(all))
					}
				}
			}
			if terminals != 1 {
				t.Errorf("terminal events = %d, want 1", terminals)
			}
		})
	}
}

func TestExecRunner_EnvOverlay(t *testing.T) {
	t.Setenv("SPIN_TEST_INHERITED", "inherited")
	t.Setenv("SPIN_TEST_OVERRIDE", "original")

	stdout, err := Collect(context.Background(), helperRun(context.Background(), "env", map[string]string{
		"SPIN_TEST_OVERRIDE": "overridden",
	}), nil)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if stdout != "overridden|inherited|true" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestExecRunner_SpawnFailure(t *testing.T) {
	runner := NewExecRunner("")
	all := drain(runner.Run(context.Background(), "/nonexistent/spin-binary", nil, nil))

	if len(all) != 1 {
		t.Fatalf("expected a single event, got %#v", all)
	}
	if _, ok := all[0].(Failure); !ok {
		t.Errorf("event = %#v, want Failure", all[0])
	}
}

func TestExecRunner_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := helperRun(ctx, "hang", nil)

	first, ok := <-events
	if !ok {
		t.Fatal("stream closed before the first line")
	}
	if line, ok := first.(StderrLine); !ok || line.Text != "started" {
		t.Fatalf("first event = %#v", first)
	}

	cancel()

	done := make(chan []Event)
	go func() { done <- drain(events) }()
	select {
	case rest := <-done:
		if len(rest) != 0 {
			t.Errorf("events after cancel = %#v, want none", rest)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("stream was not closed after cancel")
	}
}

func TestExecRunner_CancelWithGrandchild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := helperRun(ctx, "fork", nil)

	first, ok := <-events
	if !ok {
		t.Fatal("stream closed before the first line")
	}
	if line, ok := first.(StderrLine); !ok || line.Text != "forked" {
		t.Fatalf("first event = %#v", first)
	}

	cancel()
	cancelled := time.Now()

	done := make(chan []Event)
	go func() { done <- drain(events) }()
	select {
	case rest := <-done:
		if len(rest) != 0 {
			t.Errorf("events after cancel = %#v, want none", rest)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream stayed open while the grandchild held its output")
	}
	if elapsed := time.Since(cancelled); elapsed > 3*time.Second {
		t.Errorf("stream closed %v after cancel", elapsed)
	}
}

func TestCollect(t *testing.T) {
	feed := func(evs ...Event) <-chan Event {
		ch := make(chan Event, len(evs))
		for _, ev := range evs {
			ch <- ev
		}
		close(ch)
		return ch
	}
	boom := errors.New("boom")

	tests := []struct {
		name       string
		events     <-chan Event
		wantStdout string
		wantErr    error
		wantLines  []string
	}{
		{
			name:       "done",
			events:     feed(StderrLine{Text: "a"}, StderrLine{Text: "b"}, Done{Stdout: "out"}),
			wantStdout: "out",
			wantLines:  []string{"a", "b"},
		},
		{
			name:      "failure",
			events:    feed(StderrLine{Text: "a"}, Failure{Err: boom}),
			wantErr:   boom,
			wantLines: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			stdout, err := Collect(context.Background(), tt.events, func(l string) { lines = append(lines, l) })
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Collect() error = %v, want %v", err, tt.wantErr)
			}
			if stdout != tt.wantStdout {
				t.Errorf("Collect() stdout = %q, want %q", stdout, tt.wantStdout)
			}
			if !reflect.DeepEqual(lines, tt.wantLines) {
				t.Errorf("lines = %v, want %v", lines, tt.wantLines)
			}
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Collect(ctx, make(chan Event), nil); !errors.Is(err, ErrCancelled) {
			t.Errorf("Collect() error = %v, want ErrCancelled", err)
		}
	})
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HIPPO_URL=http://old", "HOME=/home/me"}
	got := MergeEnv(base, map[string]string{"HIPPO_URL": "http://new", "BINDLE_URL": "http://bindle"})
	want := []string{"PATH=/usr/bin", "HOME=/home/me", "BINDLE_URL=http://bindle", "HIPPO_URL=http://new"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeEnv() = %v, want %v", got, want)
	}
}
