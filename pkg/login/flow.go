package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"

	"github.com/fermyon/spin-companion/pkg/process"
	"github.com/fermyon/spin-companion/pkg/spin"
	"github.com/fermyon/spin-companion/pkg/ui"
	"github.com/fermyon/spin-companion/pkg/util"
)

// Choices offered while waiting for authorization
const (
	ChoiceOpenBrowser = "Copy code and open browser"
	ChoiceDone        = "Done"
	ChoiceCancel      = "Cancel"
)

var (
	// ErrCancelled is returned when the user backs out of the login
	ErrCancelled = errors.New("login cancelled")

	// ErrTooManyPolls is returned once MaxPolls checks have all come back pending
	ErrTooManyPolls = errors.New("device code was not authorized")
)

// DeviceCodeClient runs the tool's device-code subcommands
type DeviceCodeClient interface {
	GetDeviceCode(ctx context.Context, url string, insecure bool) (*spin.DeviceCode, error)
	CheckDeviceCode(ctx context.Context, code *spin.DeviceCode, url string, insecure bool) (bool, error)
}

// Flow logs the tool in using a device code
type Flow struct {
	client   DeviceCodeClient
	prompter ui.Prompter
	notifier ui.Notifier

	// OpenURL opens the verification page
	OpenURL func(url string) error

	// CopyCode puts the user code on the clipboard
	CopyCode func(code string) error

	// MaxPolls bounds the number of "Done" checks. Zero means no bound.
	MaxPolls int
}

// NewFlow creates a login flow that opens pages in the system browser
func NewFlow(client DeviceCodeClient, prompter ui.Prompter, notifier ui.Notifier) *Flow {
	return &Flow{
		client:   client,
		prompter: prompter,
		notifier: notifier,
		OpenURL:  browser.OpenURL,
		CopyCode: clipboard.WriteAll,
	}
}

// Login authorizes the tool against url and returns url on success.
// It returns ErrCancelled if the user gives up or ctx is cancelled.
func (f *Flow) Login(ctx context.Context, url string, insecure bool) (string, error) {
	log := util.GetLogger()

	code, err := f.client.GetDeviceCode(ctx, url, insecure)
	if err != nil {
		return "", cancelled(ctx, err)
	}
	log.Info("Got device code", "url", url, "verificationUrl", code.VerificationURL)

	label := fmt.Sprintf("Your code is %s. Open %s and enter the code, then choose Done.", code.UserCode, code.VerificationURL)
	polls := 0
	for {
		choice, err := f.prompter.Select(label, []string{ChoiceOpenBrowser, ChoiceDone, ChoiceCancel})
		if errors.Is(err, ui.ErrCancelled) {
			return "", ErrCancelled
		}
		if err != nil {
			return "", err
		}

		switch choice {
		case ChoiceCancel:
			return "", ErrCancelled

		case ChoiceOpenBrowser:
			if err := f.CopyCode(code.UserCode); err != nil {
				log.V(1).Info("Could not copy code", "error", err.Error())
				f.notifier.Info("Your code is %s", code.UserCode)
			} else {
				f.notifier.Info("Copied code %s to the clipboard", code.UserCode)
			}
			if err := f.OpenURL(code.VerificationURL); err != nil {
				log.V(1).Info("Could not open browser", "error", err.Error())
				f.notifier.Warn("Unable to open %s, open it manually", code.VerificationURL)
			}
			label = fmt.Sprintf("Enter code %s at %s, then choose Done.", code.UserCode, code.VerificationURL)

		case ChoiceDone:
			polls++
			authorized, err := f.client.CheckDeviceCode(ctx, code, url, insecure)
			if err != nil {
				return "", cancelled(ctx, err)
			}
			if authorized {
				log.Info("Device code authorized", "url", url, "polls", polls)
				return url, nil
			}
			if f.MaxPolls > 0 && polls >= f.MaxPolls {
				return "", ErrTooManyPolls
			}
			label = fmt.Sprintf("Still waiting for code %s to be authorized at %s. Choose Done when it is.", code.UserCode, code.VerificationURL)

		default:
			return "", fmt.Errorf("unknown choice %q", choice)
		}
	}
}

// cancelled turns an interrupted tool run into ErrCancelled
func cancelled(ctx context.Context, err error) error {
	if errors.Is(err, process.ErrCancelled) || ctx.Err() != nil {
		return ErrCancelled
	}
	return err
}
