package deploy

import (
	"errors"
	"strings"

	"github.com/fermyon/spin-companion/pkg/process"
)

// FailureKind is what a failed deploy's output says went wrong
type FailureKind int

const (
	// FailureOther is any failure without a dedicated recovery
	FailureOther FailureKind = iota
	// FailureAlreadyExists means the bindle is already on the server
	FailureAlreadyExists
	// FailureLoginFailed means the platform rejected the credentials
	FailureLoginFailed
)

// Phrases printed by the tool. Matching is case-sensitive.
const (
	alreadyExistsText = "already exists on the server"
	loginFailedText   = "Login failed"
)

// Classify maps the text of a failed deploy to a FailureKind. A reactivation
// has no recovery for an existing bindle, so there a login failure is
// matched first.
func Classify(text string, reactivation bool) FailureKind {
	exists := strings.Contains(text, alreadyExistsText)
	loginFailed := strings.Contains(text, loginFailedText)
	switch {
	case exists && !reactivation:
		return FailureAlreadyExists
	case loginFailed:
		return FailureLoginFailed
	case exists:
		return FailureAlreadyExists
	default:
		return FailureOther
	}
}

// classifyError classifies a deploy error. Only a process that ran and
// exited unsuccessfully has output worth classifying.
func classifyError(err error, reactivation bool) (FailureKind, string) {
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		text := exitErr.Output()
		return Classify(text, reactivation), strings.TrimSpace(text)
	}
	return FailureOther, err.Error()
}
