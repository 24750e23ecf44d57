// Package uitest provides scripted prompts and recorded notices for tests.
package uitest

import (
	"fmt"
	"sync"

	"github.com/fermyon/spin-companion/pkg/ui"
)

// Answer is one scripted reply. Cancel makes the prompt return ui.ErrCancelled.
type Answer struct {
	Value  string
	Cancel bool
}

// Reply answers a prompt with value
func Reply(value string) Answer {
	return Answer{Value: value}
}

// Cancel backs out of a prompt
func Cancel() Answer {
	return Answer{Cancel: true}
}

// Prompt records a prompt that was shown
type Prompt struct {
	Kind  string
	Label string
	Items []string
}

// Prompter replays Answers in order. Running out of answers cancels.
type Prompter struct {
	mu      sync.Mutex
	Answers []Answer
	Prompts []Prompt
}

// NewPrompter creates a prompter scripted with answers
func NewPrompter(answers ...Answer) *Prompter {
	return &Prompter{Answers: answers}
}

func (p *Prompter) next(kind, label string, items []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Prompts = append(p.Prompts, Prompt{Kind: kind, Label: label, Items: items})
	if len(p.Answers) == 0 {
		return "", ui.ErrCancelled
	}
	a := p.Answers[0]
	p.Answers = p.Answers[1:]
	if a.Cancel {
		return "", ui.ErrCancelled
	}
	if kind == "select" {
		found := false
		for _, item := range items {
			if item == a.Value {
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("scripted answer %q is not one of %v", a.Value, items)
		}
	}
	return a.Value, nil
}

// Input implements ui.Prompter
func (p *Prompter) Input(label, defaultValue string) (string, error) {
	return p.next("input", label, nil)
}

// Password implements ui.Prompter
func (p *Prompter) Password(label string) (string, error) {
	return p.next("password", label, nil)
}

// Select implements ui.Prompter
func (p *Prompter) Select(label string, items []string) (string, error) {
	return p.next("select", label, items)
}

// Notice is one recorded notification
type Notice struct {
	Level   string
	Message string
}

// Notifier records notices instead of printing them
type Notifier struct {
	mu            sync.Mutex
	Notices       []Notice
	ProgressLines []string
	Outputs       []string
}

func (n *Notifier) add(level, format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Info implements ui.Notifier
func (n *Notifier) Info(format string, args ...any) { n.add("info", format, args...) }

// Warn implements ui.Notifier
func (n *Notifier) Warn(format string, args ...any) { n.add("warn", format, args...) }

// Error implements ui.Notifier
func (n *Notifier) Error(format string, args ...any) { n.add("error", format, args...) }

// Progress implements ui.Notifier
func (n *Notifier) Progress(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ProgressLines = append(n.ProgressLines, message)
}

// Output implements ui.Notifier
func (n *Notifier) Output(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Outputs = append(n.Outputs, text)
}

// Levels returns the level of every notice in order
func (n *Notifier) Levels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var levels []string
	for _, notice := range n.Notices {
		levels = append(levels, notice.Level)
	}
	return levels
}
