package ui

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned by a Prompter when the user backs out
var ErrCancelled = errors.New("cancelled by user")

// Prompter asks the user for input
type Prompter interface {
	// Input asks for free text, offering defaultValue
	Input(label, defaultValue string) (string, error)

	// Password asks for text without echoing it
	Password(label string) (string, error)

	// Select asks the user to pick one of items and returns it
	Select(label string, items []string) (string, error)
}

// PromptuiPrompter prompts on the terminal with promptui
type PromptuiPrompter struct{}

// NewPromptuiPrompter creates a terminal prompter
func NewPromptuiPrompter() *PromptuiPrompter {
	return &PromptuiPrompter{}
}

// Input implements Prompter
func (p *PromptuiPrompter) Input(label, defaultValue string) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   defaultValue,
		AllowEdit: true,
	}
	result, err := prompt.Run()
	return result, translate(err)
}

// Password implements Prompter
func (p *PromptuiPrompter) Password(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	result, err := prompt.Run()
	return result, translate(err)
}

// Select implements Prompter
func (p *PromptuiPrompter) Select(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	_, result, err := prompt.Run()
	return result, translate(err)
}

func translate(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrCancelled
	}
	return err
}
