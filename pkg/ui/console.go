package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Notifier reports flow outcomes to the user
type Notifier interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)

	// Progress shows an in-flight status line from a long-running operation
	Progress(message string)

	// Output shows text produced by the tool
	Output(text string)
}

// Console writes notices to a terminal
type Console struct {
	out io.Writer
	err io.Writer
}

// NewConsole creates a console writing to stdout and stderr
func NewConsole() *Console {
	return NewConsoleTo(os.Stdout, os.Stderr)
}

// NewConsoleTo creates a console writing notices to out and errors to errOut
func NewConsoleTo(out, errOut io.Writer) *Console {
	return &Console{out: out, err: errOut}
}

// Info implements Notifier
func (c *Console) Info(format string, args ...any) {
	color.New(color.FgGreen).Fprint(c.out, "✓ ")
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Warn implements Notifier
func (c *Console) Warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(c.err, "⚠ "+format+"\n", args...)
}

// Error implements Notifier
func (c *Console) Error(format string, args ...any) {
	color.New(color.FgRed, color.Bold).Fprintf(c.err, "✗ "+format+"\n", args...)
}

// Progress implements Notifier
func (c *Console) Progress(message string) {
	color.New(color.FgCyan).Fprintf(c.err, "  › %s\n", message)
}

// Output implements Notifier
func (c *Console) Output(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	fmt.Fprintln(c.out, text)
}
